package econogix

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/heroiclabs/nakama-common/runtime"
)

const (
	RpcIdEconomyWalletGet    = "economy_wallet_get"
	RpcIdEconomyWalletAdd    = "economy_wallet_add"
	RpcIdEconomyWalletRemove = "economy_wallet_remove"
	RpcIdEconomyWalletSet    = "economy_wallet_set"

	RpcIdInventoryItemCreate  = "inventory_item_create"
	RpcIdInventoryItemDelete  = "inventory_item_delete"
	RpcIdInventoryItemGet     = "inventory_item_get"
	RpcIdInventoryItemList    = "inventory_item_list"
	RpcIdInventoryCount       = "inventory_count"
	RpcIdInventoryPropertyGet = "inventory_property_get"
	RpcIdInventoryPropertySet = "inventory_property_set"

	RpcIdEconomyTransactionProcess = "economy_transaction_process"
	RpcIdEconomyIapRedeemApple     = "economy_iap_redeem_apple"
	RpcIdEconomyIapRedeemGoogle    = "economy_iap_redeem_google"
	RpcIdEconomySnapshotExport     = "economy_snapshot_export"
)

type rpcHandler = func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error)

// Economy RPC handlers with JSON serialization.

type EconomyWalletRequest struct {
	CurrencyKey string `json:"currency_key"`
	Amount      int64  `json:"amount,omitempty"`
}

type EconomyWalletResponse struct {
	CurrencyKey string `json:"currency_key"`
	Balance     int64  `json:"balance"`
}

func rpcEconomyWalletGet(p *econogixImpl) rpcHandler {
	return func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
		request := &EconomyWalletRequest{}
		if err := json.Unmarshal([]byte(payload), request); err != nil {
			logger.Error("Failed to unmarshal EconomyWalletRequest: %v", err)
			return "", ErrPayloadDecode
		}

		balance, err := p.engine.Wallet().GetBalance(request.CurrencyKey)
		if err != nil {
			return "", err
		}

		return marshalResponse(logger, &EconomyWalletResponse{CurrencyKey: request.CurrencyKey, Balance: balance})
	}
}

func rpcEconomyWalletAdd(p *econogixImpl) rpcHandler {
	return func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
		request := &EconomyWalletRequest{}
		if err := json.Unmarshal([]byte(payload), request); err != nil {
			logger.Error("Failed to unmarshal EconomyWalletRequest: %v", err)
			return "", ErrPayloadDecode
		}

		balance, err := p.engine.Wallet().AddBalance(request.CurrencyKey, request.Amount)
		if err != nil {
			logger.Error("Error adding balance: %v", err)
			return "", err
		}

		return marshalResponse(logger, &EconomyWalletResponse{CurrencyKey: request.CurrencyKey, Balance: balance})
	}
}

func rpcEconomyWalletRemove(p *econogixImpl) rpcHandler {
	return func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
		request := &EconomyWalletRequest{}
		if err := json.Unmarshal([]byte(payload), request); err != nil {
			logger.Error("Failed to unmarshal EconomyWalletRequest: %v", err)
			return "", ErrPayloadDecode
		}

		balance, err := p.engine.Wallet().RemoveBalance(request.CurrencyKey, request.Amount)
		if err != nil {
			logger.Error("Error removing balance: %v", err)
			return "", err
		}

		return marshalResponse(logger, &EconomyWalletResponse{CurrencyKey: request.CurrencyKey, Balance: balance})
	}
}

func rpcEconomyWalletSet(p *econogixImpl) rpcHandler {
	return func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
		request := &EconomyWalletRequest{}
		if err := json.Unmarshal([]byte(payload), request); err != nil {
			logger.Error("Failed to unmarshal EconomyWalletRequest: %v", err)
			return "", ErrPayloadDecode
		}

		if err := p.engine.Wallet().SetBalance(request.CurrencyKey, request.Amount); err != nil {
			logger.Error("Error setting balance: %v", err)
			return "", err
		}

		return marshalResponse(logger, &EconomyWalletResponse{CurrencyKey: request.CurrencyKey, Balance: request.Amount})
	}
}

type InventoryItemCreateRequest struct {
	DefinitionKey string `json:"definition_key"`
	InstanceId    string `json:"instance_id,omitempty"`
}

func rpcInventoryItemCreate(p *econogixImpl) rpcHandler {
	return func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
		request := &InventoryItemCreateRequest{}
		if err := json.Unmarshal([]byte(payload), request); err != nil {
			logger.Error("Failed to unmarshal InventoryItemCreateRequest: %v", err)
			return "", ErrPayloadDecode
		}

		item, err := p.engine.Inventory().CreateItem(request.DefinitionKey, request.InstanceId)
		if err != nil {
			logger.Error("Error creating item: %v", err)
			return "", err
		}

		return marshalResponse(logger, item)
	}
}

type InventoryItemDeleteRequest struct {
	InstanceId string `json:"instance_id"`
}

type InventoryItemDeleteResponse struct {
	Deleted bool `json:"deleted"`
}

func rpcInventoryItemDelete(p *econogixImpl) rpcHandler {
	return func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
		request := &InventoryItemDeleteRequest{}
		if err := json.Unmarshal([]byte(payload), request); err != nil {
			logger.Error("Failed to unmarshal InventoryItemDeleteRequest: %v", err)
			return "", ErrPayloadDecode
		}

		deleted := p.engine.Inventory().DeleteItem(request.InstanceId)
		return marshalResponse(logger, &InventoryItemDeleteResponse{Deleted: deleted})
	}
}

type InventoryItemGetRequest struct {
	InstanceId string `json:"instance_id"`
}

func rpcInventoryItemGet(p *econogixImpl) rpcHandler {
	return func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
		request := &InventoryItemGetRequest{}
		if err := json.Unmarshal([]byte(payload), request); err != nil {
			logger.Error("Failed to unmarshal InventoryItemGetRequest: %v", err)
			return "", ErrPayloadDecode
		}

		item, err := p.engine.Inventory().GetItem(request.InstanceId)
		if err != nil {
			return "", err
		}

		return marshalResponse(logger, item)
	}
}

type InventoryItemListResponse struct {
	Items []*ItemInstance `json:"items"`
}

func rpcInventoryItemList(p *econogixImpl) rpcHandler {
	return func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
		return marshalResponse(logger, &InventoryItemListResponse{Items: p.engine.Inventory().exportItems()})
	}
}

type InventoryCountRequest struct {
	DefinitionKey string `json:"definition_key"`
}

type InventoryCountResponse struct {
	DefinitionKey string `json:"definition_key"`
	Count         int    `json:"count"`
}

func rpcInventoryCount(p *econogixImpl) rpcHandler {
	return func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
		request := &InventoryCountRequest{}
		if err := json.Unmarshal([]byte(payload), request); err != nil {
			logger.Error("Failed to unmarshal InventoryCountRequest: %v", err)
			return "", ErrPayloadDecode
		}

		count := p.engine.Inventory().CountByDefinition(request.DefinitionKey)
		return marshalResponse(logger, &InventoryCountResponse{DefinitionKey: request.DefinitionKey, Count: count})
	}
}

type InventoryPropertyRequest struct {
	InstanceId  string       `json:"instance_id"`
	PropertyKey string       `json:"property_key"`
	Value       *TaggedValue `json:"value,omitempty"`
}

type InventoryPropertyResponse struct {
	InstanceId  string      `json:"instance_id"`
	PropertyKey string      `json:"property_key"`
	Value       TaggedValue `json:"value"`
}

func rpcInventoryPropertyGet(p *econogixImpl) rpcHandler {
	return func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
		request := &InventoryPropertyRequest{}
		if err := json.Unmarshal([]byte(payload), request); err != nil {
			logger.Error("Failed to unmarshal InventoryPropertyRequest: %v", err)
			return "", ErrPayloadDecode
		}

		value, err := p.engine.Inventory().GetProperty(request.InstanceId, request.PropertyKey)
		if err != nil {
			return "", err
		}

		return marshalResponse(logger, &InventoryPropertyResponse{
			InstanceId:  request.InstanceId,
			PropertyKey: request.PropertyKey,
			Value:       value,
		})
	}
}

func rpcInventoryPropertySet(p *econogixImpl) rpcHandler {
	return func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
		request := &InventoryPropertyRequest{}
		if err := json.Unmarshal([]byte(payload), request); err != nil {
			logger.Error("Failed to unmarshal InventoryPropertyRequest: %v", err)
			return "", ErrPayloadDecode
		}
		if request.Value == nil {
			return "", ErrBadInput
		}

		if err := p.engine.Inventory().SetProperty(ctx, logger, request.InstanceId, request.PropertyKey, *request.Value); err != nil {
			logger.Error("Error setting property: %v", err)
			return "", err
		}

		return marshalResponse(logger, &InventoryPropertyResponse{
			InstanceId:  request.InstanceId,
			PropertyKey: request.PropertyKey,
			Value:       *request.Value,
		})
	}
}

type EconomyTransactionRequest struct {
	TransactionKey     string   `json:"transaction_key"`
	CounterpartItemIds []string `json:"counterpart_item_ids,omitempty"`
}

// EconomyTransactionResponse carries either the committed result or the full
// aggregated list of verification failures, so a client can render every
// shortfall from one response.
type EconomyTransactionResponse struct {
	Success bool                 `json:"success"`
	Result  *TransactionResult   `json:"result,omitempty"`
	Errors  TransactionErrorList `json:"errors,omitempty"`
}

func rpcEconomyTransactionProcess(p *econogixImpl) rpcHandler {
	return func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
		request := &EconomyTransactionRequest{}
		if err := json.Unmarshal([]byte(payload), request); err != nil {
			logger.Error("Failed to unmarshal EconomyTransactionRequest: %v", err)
			return "", ErrPayloadDecode
		}

		result, err := p.engine.ProcessVirtualTransaction(ctx, logger, request.TransactionKey, request.CounterpartItemIds)
		if err != nil {
			var verification TransactionErrorList
			if errors.As(err, &verification) {
				return marshalResponse(logger, &EconomyTransactionResponse{Success: false, Errors: verification})
			}
			logger.Error("Error processing transaction %s: %v", request.TransactionKey, err)
			return "", err
		}

		return marshalResponse(logger, &EconomyTransactionResponse{Success: true, Result: result})
	}
}

type EconomyIapRedeemRequest struct {
	TransactionKey string `json:"transaction_key"`
	Receipt        string `json:"receipt"`
}

func rpcEconomyIapRedeemApple(p *econogixImpl) rpcHandler {
	return func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
		return redeemIapRpc(ctx, logger, p, payload, EconomyStoreTypeAppleAppstore)
	}
}

func rpcEconomyIapRedeemGoogle(p *econogixImpl) rpcHandler {
	return func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
		return redeemIapRpc(ctx, logger, p, payload, EconomyStoreTypeGooglePlay)
	}
}

func redeemIapRpc(ctx context.Context, logger runtime.Logger, p *econogixImpl, payload string, store EconomyStoreType) (string, error) {
	request := &EconomyIapRedeemRequest{}
	if err := json.Unmarshal([]byte(payload), request); err != nil {
		logger.Error("Failed to unmarshal EconomyIapRedeemRequest: %v", err)
		return "", ErrPayloadDecode
	}

	var result *TransactionResult
	var err error
	switch store {
	case EconomyStoreTypeAppleAppstore:
		result, err = p.engine.RedeemAppleIap(ctx, logger, request.TransactionKey, request.Receipt)
	default:
		result, err = p.engine.RedeemGoogleIap(ctx, logger, request.TransactionKey, request.Receipt)
	}
	if err != nil {
		logger.Error("Error redeeming IAP transaction %s: %v", request.TransactionKey, err)
		return "", err
	}

	return marshalResponse(logger, &EconomyTransactionResponse{Success: true, Result: result})
}

func rpcEconomySnapshotExport(p *econogixImpl) rpcHandler {
	return func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
		snapshot, err := p.engine.ExportSnapshot()
		if err != nil {
			return "", err
		}
		return marshalResponse(logger, snapshot)
	}
}

func marshalResponse(logger runtime.Logger, response any) (string, error) {
	data, err := json.Marshal(response)
	if err != nil {
		logger.Error("Failed to marshal response: %v", err)
		return "", ErrPayloadEncode
	}
	return string(data), nil
}
