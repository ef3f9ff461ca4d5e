package econogix

import (
	"context"

	"github.com/heroiclabs/nakama-common/runtime"
)

// EconomyEngine ties the wallet ledger, the inventory store and the
// transaction processor together behind one explicitly constructed object:
// no global state, one catalog, one snapshot boundary.
//
// The engine is single threaded. Every operation runs to completion on the
// calling goroutine with no locking; callers that share an engine across
// goroutines must serialize access externally.
type EconomyEngine struct {
	catalog   Catalog
	wallet    *WalletLedger
	inventory *InventoryStore
	processor *TransactionProcessor

	initialized bool
}

// NewEconomyEngine builds an engine over the catalog. The engine is not
// usable until Initialize has run.
func NewEconomyEngine(logger runtime.Logger, config *EconomyCatalogConfig) *EconomyEngine {
	catalog := NewCatalog(logger, config)
	return &EconomyEngine{catalog: catalog}
}

// Initialize seeds the engine, reconciling the snapshot against the catalog
// when one is provided. Initializing an already-initialized engine is a
// silent no-op by design.
func (e *EconomyEngine) Initialize(logger runtime.Logger, snapshot *EconomySnapshot) {
	if e.initialized {
		return
	}

	var balances []*SnapshotBalance
	var items []*ItemInstance
	if snapshot != nil {
		balances = snapshot.Balances
		items = snapshot.Items
	}

	e.wallet = NewWalletLedger(logger, e.catalog, balances, snapshot != nil)
	e.inventory = NewInventoryStore(e.catalog)
	e.inventory.loadItems(logger, items)
	e.processor = NewTransactionProcessor(e.catalog, e.wallet, e.inventory)
	e.initialized = true
}

// Initialized reports whether Initialize has run.
func (e *EconomyEngine) Initialized() bool {
	return e.initialized
}

// AddPublisher registers a publisher with every event-producing component.
func (e *EconomyEngine) AddPublisher(publisher Publisher) {
	if !e.initialized {
		return
	}
	e.inventory.AddPublisher(publisher)
	e.processor.AddPublisher(publisher)
}

// Catalog exposes the read-only catalog the engine was built with.
func (e *EconomyEngine) Catalog() Catalog {
	return e.catalog
}

// Wallet exposes the ledger. Nil until Initialize has run.
func (e *EconomyEngine) Wallet() *WalletLedger {
	return e.wallet
}

// Inventory exposes the item store. Nil until Initialize has run.
func (e *EconomyEngine) Inventory() *InventoryStore {
	return e.inventory
}

// ProcessVirtualTransaction runs one virtual exchange. See
// TransactionProcessor.ProcessVirtualTransaction for the verification and
// commit contract.
func (e *EconomyEngine) ProcessVirtualTransaction(ctx context.Context, logger runtime.Logger, transactionKey string, counterpartItemIds []string) (*TransactionResult, error) {
	if !e.initialized {
		return nil, ErrEngineNotReady
	}
	return e.processor.ProcessVirtualTransaction(ctx, logger, transactionKey, counterpartItemIds)
}

// ProcessVirtualTransactionAsync is the completion-handle variant. The handle
// is settled before this method returns.
func (e *EconomyEngine) ProcessVirtualTransactionAsync(ctx context.Context, logger runtime.Logger, transactionKey string, counterpartItemIds []string, completion *TransactionCompletion) {
	result, err := e.ProcessVirtualTransaction(ctx, logger, transactionKey, counterpartItemIds)
	if completion == nil {
		return
	}
	if err != nil {
		completion.Reject(err)
		return
	}
	completion.Resolve(result)
}

// RedeemAppleIap grants the reward of an IAP transaction against an App
// Store receipt. The receipt is carried opaquely.
func (e *EconomyEngine) RedeemAppleIap(ctx context.Context, logger runtime.Logger, transactionKey, receipt string) (*TransactionResult, error) {
	if !e.initialized {
		return nil, ErrEngineNotReady
	}
	return e.processor.RedeemIap(ctx, logger, transactionKey, EconomyStoreTypeAppleAppstore, receipt)
}

// RedeemGoogleIap grants the reward of an IAP transaction against a Play
// Store receipt. The receipt is carried opaquely.
func (e *EconomyEngine) RedeemGoogleIap(ctx context.Context, logger runtime.Logger, transactionKey, receipt string) (*TransactionResult, error) {
	if !e.initialized {
		return nil, ErrEngineNotReady
	}
	return e.processor.RedeemIap(ctx, logger, transactionKey, EconomyStoreTypeGooglePlay, receipt)
}

// ExportSnapshot produces a snapshot equivalent to current live state, in
// the same shape the engine accepts at Initialize.
func (e *EconomyEngine) ExportSnapshot() (*EconomySnapshot, error) {
	if !e.initialized {
		return nil, ErrEngineNotReady
	}
	return &EconomySnapshot{
		Balances: e.wallet.exportBalances(),
		Items:    e.inventory.exportItems(),
	}, nil
}
