package econogix

import (
	"github.com/heroiclabs/nakama-common/runtime"
)

// WalletLedger holds one integer balance per catalog currency. Every balance
// stays inside [0, max] at all times, where a zero catalog maximum means
// unbounded. Mutations validate first and leave the stored balance untouched
// on failure.
type WalletLedger struct {
	catalog  Catalog
	balances map[string]int64
}

// NewWalletLedger builds a ledger with one record per catalog currency.
// Without a snapshot every currency starts at its catalog initial balance.
// With a snapshot, a currency missing from it defaults to 0 with a warning,
// never an error, and persisted balances outside the currency's valid range
// are clamped with a warning.
func NewWalletLedger(logger runtime.Logger, catalog Catalog, persisted []*SnapshotBalance, hasSnapshot bool) *WalletLedger {
	ledger := &WalletLedger{
		catalog:  catalog,
		balances: make(map[string]int64),
	}

	persistedByKey := make(map[string]int64, len(persisted))
	for _, balance := range persisted {
		if balance == nil {
			continue
		}
		persistedByKey[balance.CurrencyKey] = balance.Balance
	}

	for _, key := range catalog.CurrencyKeys() {
		currency, _ := catalog.FindCurrency(key)
		amount, ok := persistedByKey[key]
		if !ok {
			if hasSnapshot {
				amount = 0
				logger.Warn("No persisted balance for currency %s, defaulting to 0", key)
			} else {
				amount = currency.InitialBalance
			}
		}
		if amount < 0 {
			logger.Warn("Persisted balance for currency %s is negative (%d), clamping to 0", key, amount)
			amount = 0
		}
		if currency.MaxBalance > 0 && amount > currency.MaxBalance {
			logger.Warn("Persisted balance for currency %s exceeds maximum (%d > %d), clamping", key, amount, currency.MaxBalance)
			amount = currency.MaxBalance
		}
		ledger.balances[key] = amount
		delete(persistedByKey, key)
	}

	// Balances for currencies no longer in the catalog are dropped.
	for key := range persistedByKey {
		logger.Warn("Dropping persisted balance for unknown currency %s", key)
	}

	return ledger
}

// GetBalance returns the current balance for the currency.
func (w *WalletLedger) GetBalance(currency string) (int64, error) {
	amount, ok := w.balances[currency]
	if !ok {
		return 0, ErrCurrencyNotFound
	}
	return amount, nil
}

// AdjustBalance applies a signed delta. The updated balance is validated
// against [0, max] before it is stored; a violation returns
// ErrBalanceUnderflow or ErrBalanceOverflow without mutating anything.
func (w *WalletLedger) AdjustBalance(currency string, delta int64) (int64, error) {
	old, ok := w.balances[currency]
	if !ok {
		return 0, ErrCurrencyNotFound
	}
	return w.store(currency, old+delta)
}

// SetBalance replaces the balance with an absolute amount under the same
// validation as AdjustBalance.
func (w *WalletLedger) SetBalance(currency string, amount int64) error {
	if _, ok := w.balances[currency]; !ok {
		return ErrCurrencyNotFound
	}
	_, err := w.store(currency, amount)
	return err
}

// AddBalance is the sign-constrained convenience wrapper over AdjustBalance
// exposed to the facade.
func (w *WalletLedger) AddBalance(currency string, delta int64) (int64, error) {
	if delta < 0 {
		return 0, ErrNegativeDelta
	}
	return w.AdjustBalance(currency, delta)
}

// RemoveBalance is the sign-constrained convenience wrapper over
// AdjustBalance exposed to the facade.
func (w *WalletLedger) RemoveBalance(currency string, delta int64) (int64, error) {
	if delta < 0 {
		return 0, ErrNegativeDelta
	}
	return w.AdjustBalance(currency, -delta)
}

func (w *WalletLedger) store(currency string, next int64) (int64, error) {
	if next < 0 {
		return 0, ErrBalanceUnderflow
	}
	definition, _ := w.catalog.FindCurrency(currency)
	if definition != nil && definition.MaxBalance > 0 && next > definition.MaxBalance {
		return 0, ErrBalanceOverflow
	}
	w.balances[currency] = next
	return next, nil
}

// exportBalances returns the live balances in stable currency order.
func (w *WalletLedger) exportBalances() []*SnapshotBalance {
	balances := make([]*SnapshotBalance, 0, len(w.balances))
	for _, key := range w.catalog.CurrencyKeys() {
		balances = append(balances, &SnapshotBalance{CurrencyKey: key, Balance: w.balances[key]})
	}
	return balances
}
