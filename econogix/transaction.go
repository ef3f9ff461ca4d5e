package econogix

import (
	"context"
	"time"

	"github.com/heroiclabs/nakama-common/runtime"
	"github.com/robfig/cron/v3"
)

// EconomyStoreType identifies the storefront an IAP receipt came from. The
// engine treats receipts opaquely; validation happens upstream.
type EconomyStoreType string

const (
	EconomyStoreTypeAppleAppstore EconomyStoreType = "apple_appstore"
	EconomyStoreTypeGooglePlay    EconomyStoreType = "google_play"
)

// TransactionResult reports the concrete effects of one committed
// transaction. It is produced once, after both the commit and reward phases
// have run, never partially.
type TransactionResult struct {
	TransactionKey string `json:"transaction_key"`

	CostCurrencies      map[string]int64 `json:"cost_currencies,omitempty"`
	ConsumedInstanceIds []string         `json:"consumed_instance_ids,omitempty"`

	RewardCurrencies   map[string]int64 `json:"reward_currencies,omitempty"`
	CreatedInstanceIds []string         `json:"created_instance_ids,omitempty"`

	Metadata       map[string]string `json:"metadata,omitempty"`
	CompletedAtSec int64             `json:"completed_at_sec,omitempty"`
}

// purchaseWindow tracks how many times a limited transaction has committed
// in the current reset window.
type purchaseWindow struct {
	count    int64
	resetAt  time.Time
	schedule cron.Schedule
	// disabled marks a limit whose reset expression failed to parse; the
	// limit is skipped instead of failing catalog load.
	disabled bool
}

// TransactionProcessor orchestrates virtual transactions and IAP reward
// grants against the ledger and the item store. Verification never mutates;
// once the commit phase starts the transaction always runs to completion.
type TransactionProcessor struct {
	catalog   Catalog
	wallet    *WalletLedger
	inventory *InventoryStore

	cronParser      cron.Parser
	purchaseWindows map[string]*purchaseWindow

	publishers []Publisher
}

func NewTransactionProcessor(catalog Catalog, wallet *WalletLedger, inventory *InventoryStore) *TransactionProcessor {
	return &TransactionProcessor{
		catalog:         catalog,
		wallet:          wallet,
		inventory:       inventory,
		cronParser:      cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow),
		purchaseWindows: make(map[string]*purchaseWindow),
	}
}

// AddPublisher registers a target for transaction events.
func (p *TransactionProcessor) AddPublisher(publisher Publisher) {
	p.publishers = append(p.publishers, publisher)
}

// ProcessVirtualTransaction runs one exchange: look up the definition,
// consolidate its cost, verify balances and the caller's item payload,
// then commit the cost and apply the reward.
//
// An unknown or non-virtual transaction key short-circuits with
// ErrTransactionNotFound. Verification failures are collected into a
// TransactionErrorList so a single response reports every shortfall; when
// that list is returned no ledger or store state has changed.
func (p *TransactionProcessor) ProcessVirtualTransaction(ctx context.Context, logger runtime.Logger, transactionKey string, counterpartItemIds []string) (*TransactionResult, error) {
	if transactionKey == "" {
		return nil, ErrBadInput
	}

	// 1. Look up. Nothing downstream is meaningful without a definition.
	definition, ok := p.catalog.FindTransaction(transactionKey)
	if !ok || definition.Kind == TransactionKindIap {
		return nil, ErrTransactionNotFound
	}

	// 2. Consolidate the cost spec.
	requiredCurrencies, requiredItemCounts := ConsolidateExchange(definition.Cost)

	errs := make(TransactionErrorList, 0)

	// 3. Verify cost. Collect every shortfall rather than stopping at the
	// first so the caller can report them all at once.
	for _, key := range sortedKeys(requiredCurrencies) {
		required := requiredCurrencies[key]
		available, err := p.wallet.GetBalance(key)
		if err != nil {
			logger.Warn("Transaction %s costs unknown currency %s", transactionKey, key)
			available = 0
		}
		if available < required {
			errs = append(errs, &TransactionError{
				Code:      TransactionErrorInsufficientBalance,
				Key:       key,
				Required:  required,
				Available: available,
			})
		}
	}
	for _, key := range sortedKeys(requiredItemCounts) {
		required := requiredItemCounts[key]
		available := int64(p.inventory.CountByDefinition(key))
		if available < required {
			errs = append(errs, &TransactionError{
				Code:      TransactionErrorInsufficientItems,
				Key:       key,
				Required:  required,
				Available: available,
			})
		}
	}

	// 4. Verify the item payload. Each supplied id may satisfy at most one
	// outstanding requirement; ids that match nothing are accepted and
	// ignored rather than rejected.
	remaining := make(map[string]int64, len(requiredItemCounts))
	for key, count := range requiredItemCounts {
		remaining[key] = count
	}

	toConsume := make([]string, 0, len(counterpartItemIds))
	seen := make(map[string]bool, len(counterpartItemIds))
	for _, instanceId := range counterpartItemIds {
		if seen[instanceId] {
			continue
		}
		seen[instanceId] = true

		item, err := p.inventory.GetItem(instanceId)
		if err != nil {
			errs = append(errs, &TransactionError{
				Code: TransactionErrorItemNotFound,
				Key:  instanceId,
			})
			continue
		}
		if remaining[item.DefinitionKey] > 0 {
			remaining[item.DefinitionKey]--
			toConsume = append(toConsume, instanceId)
		} else {
			logger.Debug("Ignoring counterpart item %s (%s): no outstanding requirement", instanceId, item.DefinitionKey)
		}
	}
	for _, key := range sortedKeys(remaining) {
		if remaining[key] > 0 {
			errs = append(errs, &TransactionError{
				Code:     TransactionErrorMissingItemRequirement,
				Key:      key,
				Required: remaining[key],
			})
		}
	}

	// Purchase limits are verified alongside the economic checks so a capped
	// transaction reports together with any other shortfall.
	window := p.rollPurchaseWindow(logger, transactionKey, definition)
	if window != nil && window.count >= definition.MaxPurchases {
		errs = append(errs, &TransactionError{
			Code:      TransactionErrorPurchaseLimitReached,
			Key:       transactionKey,
			Required:  definition.MaxPurchases,
			Available: window.count,
		})
	}

	// 5. Abort on any verification failure. Nothing has mutated yet.
	if len(errs) > 0 {
		return nil, errs
	}

	// 6. Commit the cost. Verification passed, so failures here would mean
	// the engine was mutated concurrently; treat them as fatal.
	result := &TransactionResult{
		TransactionKey:      transactionKey,
		CostCurrencies:      requiredCurrencies,
		ConsumedInstanceIds: make([]string, 0, len(toConsume)),
	}
	for _, key := range sortedKeys(requiredCurrencies) {
		if requiredCurrencies[key] == 0 {
			continue
		}
		if _, err := p.wallet.AdjustBalance(key, -requiredCurrencies[key]); err != nil {
			logger.Error("Commit-phase debit of %s failed after verification: %v", key, err)
			return nil, ErrInternal
		}
	}
	for _, instanceId := range toConsume {
		if !p.inventory.DeleteItem(instanceId) {
			logger.Error("Commit-phase consume of %s failed after verification", instanceId)
			return nil, ErrInternal
		}
		result.ConsumedInstanceIds = append(result.ConsumedInstanceIds, instanceId)
	}
	if window != nil {
		window.count++
	}

	// 7. Apply the reward.
	if err := p.applyReward(logger, definition, result); err != nil {
		return nil, err
	}

	// 8. Report.
	result.CompletedAtSec = time.Now().Unix()
	p.publish(ctx, logger, EventTransactionCompleted, transactionKey, result)
	return result, nil
}

// RedeemIap grants the reward of an IAP transaction definition. The receipt
// has already been validated by the storefront pipeline upstream and is
// carried opaquely; no cost verification of any kind runs on this path.
func (p *TransactionProcessor) RedeemIap(ctx context.Context, logger runtime.Logger, transactionKey string, store EconomyStoreType, receipt string) (*TransactionResult, error) {
	if transactionKey == "" {
		return nil, ErrBadInput
	}

	definition, ok := p.catalog.FindTransaction(transactionKey)
	if !ok || definition.Kind != TransactionKindIap {
		return nil, ErrTransactionNotFound
	}

	result := &TransactionResult{
		TransactionKey: transactionKey,
		Metadata: map[string]string{
			"store_type": string(store),
			"receipt":    receipt,
		},
	}

	if err := p.applyReward(logger, definition, result); err != nil {
		return nil, err
	}

	result.CompletedAtSec = time.Now().Unix()
	p.publish(ctx, logger, EventIapTransactionRedeemed, transactionKey, result)
	return result, nil
}

// applyReward consolidates the reward spec, credits each currency and creates
// each reward item, recording concrete effects on the result. Reward-phase
// errors are unexpected after a successful lookup and are surfaced as
// internal.
func (p *TransactionProcessor) applyReward(logger runtime.Logger, definition *EconomyConfigTransaction, result *TransactionResult) error {
	rewardCurrencies, rewardItemCounts := ConsolidateExchange(definition.Reward)

	result.RewardCurrencies = rewardCurrencies
	result.CreatedInstanceIds = make([]string, 0)

	for _, key := range sortedKeys(rewardCurrencies) {
		if rewardCurrencies[key] == 0 {
			continue
		}
		if _, err := p.wallet.AdjustBalance(key, rewardCurrencies[key]); err != nil {
			logger.Error("Reward-phase credit of %s failed: %v", key, err)
			return ErrInternal
		}
	}

	for _, key := range sortedKeys(rewardItemCounts) {
		for i := int64(0); i < rewardItemCounts[key]; i++ {
			item, err := p.inventory.CreateItem(key, "")
			if err != nil {
				logger.Error("Reward-phase create of %s failed: %v", key, err)
				return ErrInternal
			}
			result.CreatedInstanceIds = append(result.CreatedInstanceIds, item.InstanceId)
		}
	}

	return nil
}

// rollPurchaseWindow returns the live purchase window for a limited
// transaction, resetting the count when the cron schedule has rolled over.
// Returns nil when the definition carries no limit or its schedule cannot be
// parsed.
func (p *TransactionProcessor) rollPurchaseWindow(logger runtime.Logger, transactionKey string, definition *EconomyConfigTransaction) *purchaseWindow {
	if definition.MaxPurchases <= 0 {
		return nil
	}

	now := time.Now()
	window, ok := p.purchaseWindows[transactionKey]
	if !ok {
		window = &purchaseWindow{}
		if definition.LimitResetCronexpr != "" {
			schedule, err := p.cronParser.Parse(definition.LimitResetCronexpr)
			if err != nil {
				logger.Warn("Failed to parse limit reset CRON expression for transaction %s, disabling limit: %v", transactionKey, err)
				window.disabled = true
			} else {
				window.schedule = schedule
				window.resetAt = schedule.Next(now)
			}
		}
		p.purchaseWindows[transactionKey] = window
	}
	if window.disabled {
		return nil
	}

	if window.schedule != nil && !now.Before(window.resetAt) {
		window.count = 0
		window.resetAt = window.schedule.Next(now)
	}
	return window
}

func (p *TransactionProcessor) publish(ctx context.Context, logger runtime.Logger, name, transactionKey string, result *TransactionResult) {
	if len(p.publishers) == 0 {
		return
	}
	event := &PublisherEvent{
		Name:      name,
		Id:        transactionKey,
		Timestamp: result.CompletedAtSec,
		Metadata:  result.Metadata,
	}
	for _, publisher := range p.publishers {
		publisher.Send(ctx, logger, []*PublisherEvent{event})
	}
}
