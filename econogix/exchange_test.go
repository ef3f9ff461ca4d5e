package econogix

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConsolidateExchange_SumsDuplicates(t *testing.T) {
	spec := &EconomyConfigExchange{
		Currencies: []*EconomyConfigExchangeCurrency{
			{Key: "gold", Amount: 3},
			{Key: "gold", Amount: 4},
			{Key: "gems", Amount: 1},
		},
		Items: []*EconomyConfigExchangeItem{
			{Key: "potion", Amount: 2},
			{Key: "potion", Amount: 1},
		},
	}

	currencies, items := ConsolidateExchange(spec)
	assert.Equal(t, map[string]int64{"gold": 7, "gems": 1}, currencies)
	assert.Equal(t, map[string]int64{"potion": 3}, items)
}

func TestConsolidateExchange_Empty(t *testing.T) {
	currencies, items := ConsolidateExchange(&EconomyConfigExchange{})
	assert.Empty(t, currencies)
	assert.Empty(t, items)

	currencies, items = ConsolidateExchange(nil)
	assert.Empty(t, currencies)
	assert.Empty(t, items)
}
