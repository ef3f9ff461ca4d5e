package econogix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLedger(t *testing.T, balances map[string]int64) *WalletLedger {
	t.Helper()
	logger := &mockLogger{}
	catalog := NewCatalog(logger, newTestCatalogConfig())

	persisted := make([]*SnapshotBalance, 0, len(balances))
	for key, amount := range balances {
		persisted = append(persisted, &SnapshotBalance{CurrencyKey: key, Balance: amount})
	}
	return NewWalletLedger(logger, catalog, persisted, true)
}

func TestWalletLedger_GetBalance(t *testing.T) {
	ledger := newTestLedger(t, map[string]int64{"gold": 10})

	balance, err := ledger.GetBalance("gold")
	require.NoError(t, err)
	assert.Equal(t, int64(10), balance)

	// Currency known to the catalog but missing from the snapshot defaults
	// to zero.
	balance, err = ledger.GetBalance("gems")
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance)

	_, err = ledger.GetBalance("crystals")
	assert.ErrorIs(t, err, ErrCurrencyNotFound)
}

func TestWalletLedger_AdjustBalance(t *testing.T) {
	ledger := newTestLedger(t, map[string]int64{"gold": 10, "gems": 990})

	balance, err := ledger.AdjustBalance("gold", 5)
	require.NoError(t, err)
	assert.Equal(t, int64(15), balance)

	balance, err = ledger.AdjustBalance("gold", -15)
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance)

	// Underflow leaves the stored balance unchanged.
	_, err = ledger.AdjustBalance("gold", -1)
	assert.ErrorIs(t, err, ErrBalanceUnderflow)
	balance, _ = ledger.GetBalance("gold")
	assert.Equal(t, int64(0), balance)

	// Overflow: gems cap at 1000.
	_, err = ledger.AdjustBalance("gems", 11)
	assert.ErrorIs(t, err, ErrBalanceOverflow)
	balance, _ = ledger.GetBalance("gems")
	assert.Equal(t, int64(990), balance)

	// Gold has no maximum, so large credits pass.
	_, err = ledger.AdjustBalance("gold", 1<<40)
	assert.NoError(t, err)

	_, err = ledger.AdjustBalance("crystals", 1)
	assert.ErrorIs(t, err, ErrCurrencyNotFound)
}

func TestWalletLedger_SetBalance(t *testing.T) {
	ledger := newTestLedger(t, map[string]int64{"gems": 5})

	require.NoError(t, ledger.SetBalance("gems", 1000))
	balance, _ := ledger.GetBalance("gems")
	assert.Equal(t, int64(1000), balance)

	assert.ErrorIs(t, ledger.SetBalance("gems", 1001), ErrBalanceOverflow)
	assert.ErrorIs(t, ledger.SetBalance("gems", -1), ErrBalanceUnderflow)
	balance, _ = ledger.GetBalance("gems")
	assert.Equal(t, int64(1000), balance, "failed sets must not mutate")

	assert.ErrorIs(t, ledger.SetBalance("crystals", 1), ErrCurrencyNotFound)
}

func TestWalletLedger_SignConstrainedWrappers(t *testing.T) {
	ledger := newTestLedger(t, map[string]int64{"gold": 10})

	balance, err := ledger.AddBalance("gold", 5)
	require.NoError(t, err)
	assert.Equal(t, int64(15), balance)

	balance, err = ledger.RemoveBalance("gold", 5)
	require.NoError(t, err)
	assert.Equal(t, int64(10), balance)

	_, err = ledger.AddBalance("gold", -1)
	assert.ErrorIs(t, err, ErrNegativeDelta)
	_, err = ledger.RemoveBalance("gold", -1)
	assert.ErrorIs(t, err, ErrNegativeDelta)

	balance, _ = ledger.GetBalance("gold")
	assert.Equal(t, int64(10), balance)
}

func TestWalletLedger_SnapshotReconciliation(t *testing.T) {
	logger := &mockLogger{}
	catalog := NewCatalog(logger, newTestCatalogConfig())

	// Out-of-range persisted balances are clamped, unknown currencies are
	// dropped, and the load never fails.
	ledger := NewWalletLedger(logger, catalog, []*SnapshotBalance{
		{CurrencyKey: "gold", Balance: -5},
		{CurrencyKey: "gems", Balance: 5000},
		{CurrencyKey: "retired_currency", Balance: 42},
	}, true)

	balance, err := ledger.GetBalance("gold")
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance)

	balance, err = ledger.GetBalance("gems")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), balance)

	_, err = ledger.GetBalance("retired_currency")
	assert.ErrorIs(t, err, ErrCurrencyNotFound)
}

func TestWalletLedger_FreshStartUsesInitialBalances(t *testing.T) {
	logger := &mockLogger{}
	config := newTestCatalogConfig()
	config.Currencies["gold"].InitialBalance = 50
	catalog := NewCatalog(logger, config)

	ledger := NewWalletLedger(logger, catalog, nil, false)

	balance, err := ledger.GetBalance("gold")
	require.NoError(t, err)
	assert.Equal(t, int64(50), balance)
}
