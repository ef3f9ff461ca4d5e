package econogix

import (
	"context"
	"encoding/json"
	"io"

	"github.com/heroiclabs/nakama-common/runtime"
)

// Config drives Init: where the catalog and optional snapshot files live,
// and whether the JSON RPC facade should be registered.
type Config struct {
	// CatalogFile is the path of the economy catalog JSON file, resolved
	// through the Nakama runtime's data directory.
	CatalogFile string
	// SnapshotFile optionally points at a persisted economy snapshot to
	// reconcile at startup.
	SnapshotFile string
	// RegisterRpcs controls whether the economy RPC handlers are registered
	// with the initializer.
	RegisterRpcs bool
}

// Econogix is the top-level entry point handed back by Init. It owns a
// single economy engine instance; there is no hidden global state.
type Econogix interface {
	// GetEconomyEngine returns the engine, initialized and ready.
	GetEconomyEngine() *EconomyEngine

	// AddPublisher adds a publisher to the chain receiving engine events.
	AddPublisher(publisher Publisher)
}

// econogixImpl implements the Econogix interface.
type econogixImpl struct {
	engine *EconomyEngine
}

// Init loads the catalog (and snapshot, when configured), constructs the
// engine and registers the RPC facade.
func Init(ctx context.Context, logger runtime.Logger, nk runtime.NakamaModule, initializer runtime.Initializer, config *Config) (Econogix, error) {
	if config == nil || config.CatalogFile == "" {
		return nil, ErrBadInput
	}

	logger.Info("Initializing economy engine, catalog file: %s", config.CatalogFile)

	catalogConfig := &EconomyCatalogConfig{}
	if err := readJsonFile(logger, nk, config.CatalogFile, catalogConfig); err != nil {
		return nil, err
	}

	var snapshot *EconomySnapshot
	if config.SnapshotFile != "" {
		snapshot = &EconomySnapshot{}
		if err := readJsonFile(logger, nk, config.SnapshotFile, snapshot); err != nil {
			return nil, err
		}
	}

	engine := NewEconomyEngine(logger, catalogConfig)
	engine.Initialize(logger, snapshot)

	impl := &econogixImpl{engine: engine}

	if config.RegisterRpcs {
		if err := impl.registerRpcs(initializer); err != nil {
			return nil, err
		}
	}

	return impl, nil
}

func readJsonFile(logger runtime.Logger, nk runtime.NakamaModule, path string, out any) error {
	file, err := nk.ReadFile(path)
	if err != nil {
		logger.Error("Failed to read file %s: %v", path, err)
		return err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		logger.Error("Failed to read file contents of %s: %v", path, err)
		return err
	}

	if err := json.Unmarshal(data, out); err != nil {
		logger.Error("Failed to parse %s: %v", path, err)
		return err
	}
	return nil
}

func (p *econogixImpl) GetEconomyEngine() *EconomyEngine {
	return p.engine
}

func (p *econogixImpl) AddPublisher(publisher Publisher) {
	p.engine.AddPublisher(publisher)
}

// registerRpcs registers the economy RPC facade with the initializer.
func (p *econogixImpl) registerRpcs(initializer runtime.Initializer) error {
	handlers := map[string]rpcHandler{
		RpcIdEconomyWalletGet:          rpcEconomyWalletGet(p),
		RpcIdEconomyWalletAdd:          rpcEconomyWalletAdd(p),
		RpcIdEconomyWalletRemove:       rpcEconomyWalletRemove(p),
		RpcIdEconomyWalletSet:          rpcEconomyWalletSet(p),
		RpcIdInventoryItemCreate:       rpcInventoryItemCreate(p),
		RpcIdInventoryItemDelete:       rpcInventoryItemDelete(p),
		RpcIdInventoryItemGet:          rpcInventoryItemGet(p),
		RpcIdInventoryItemList:         rpcInventoryItemList(p),
		RpcIdInventoryCount:            rpcInventoryCount(p),
		RpcIdInventoryPropertyGet:      rpcInventoryPropertyGet(p),
		RpcIdInventoryPropertySet:      rpcInventoryPropertySet(p),
		RpcIdEconomyTransactionProcess: rpcEconomyTransactionProcess(p),
		RpcIdEconomyIapRedeemApple:     rpcEconomyIapRedeemApple(p),
		RpcIdEconomyIapRedeemGoogle:    rpcEconomyIapRedeemGoogle(p),
		RpcIdEconomySnapshotExport:     rpcEconomySnapshotExport(p),
	}
	for id, handler := range handlers {
		if err := initializer.RegisterRpc(id, handler); err != nil {
			return err
		}
	}
	return nil
}
