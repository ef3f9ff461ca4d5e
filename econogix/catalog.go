package econogix

import (
	"sort"

	"github.com/heroiclabs/nakama-common/runtime"
)

// EconomyCatalogConfig is the data definition for the static economy catalog:
// the currencies, item definitions and transaction definitions the engine can
// reference at runtime. It is authored externally and loaded read-only.
type EconomyCatalogConfig struct {
	Currencies   map[string]*EconomyConfigCurrency    `json:"currencies,omitempty"`
	Items        map[string]*EconomyConfigItem        `json:"items,omitempty"`
	Transactions map[string]*EconomyConfigTransaction `json:"transactions,omitempty"`
}

type EconomyConfigCurrency struct {
	Name           string `json:"name,omitempty"`
	InitialBalance int64  `json:"initial_balance,omitempty"`
	// MaxBalance caps the balance when nonzero. Zero means unbounded.
	MaxBalance int64 `json:"max_balance,omitempty"`
}

type EconomyConfigItem struct {
	Name     string `json:"name,omitempty"`
	Category string `json:"category,omitempty"`
	Disabled bool   `json:"disabled,omitempty"`
	// DefaultProperties seed every instance created from this definition.
	DefaultProperties map[string]*EconomyConfigItemProperty `json:"default_properties,omitempty"`
}

type EconomyConfigItemProperty struct {
	Type  string `json:"type,omitempty"`
	Value string `json:"value,omitempty"`
}

// TransactionKind separates exchanges paid with in-game resources from
// reward-only grants triggered by an already-validated real-money purchase.
type TransactionKind string

const (
	TransactionKindVirtual TransactionKind = "virtual"
	TransactionKindIap     TransactionKind = "iap"
)

type EconomyConfigTransaction struct {
	Name     string          `json:"name,omitempty"`
	Kind     TransactionKind `json:"kind,omitempty"`
	Disabled bool            `json:"disabled,omitempty"`

	Cost   *EconomyConfigExchange `json:"cost,omitempty"`
	Reward *EconomyConfigExchange `json:"reward,omitempty"`

	// MaxPurchases limits how many times the transaction can be committed per
	// reset window when nonzero. LimitResetCronexpr is a 5-field cron
	// expression marking when the window rolls over; empty means the limit
	// never resets.
	MaxPurchases       int64  `json:"max_purchases,omitempty"`
	LimitResetCronexpr string `json:"limit_reset_cronexpr,omitempty"`
}

// EconomyConfigExchange is one side of a transaction as authored in the
// catalog. Repeated entries for the same key are allowed; consolidation sums
// them.
type EconomyConfigExchange struct {
	Currencies []*EconomyConfigExchangeCurrency `json:"currencies,omitempty"`
	Items      []*EconomyConfigExchangeItem     `json:"items,omitempty"`
}

type EconomyConfigExchangeCurrency struct {
	Key    string `json:"key,omitempty"`
	Amount int64  `json:"amount,omitempty"`
}

type EconomyConfigExchangeItem struct {
	Key    string `json:"key,omitempty"`
	Amount int64  `json:"amount,omitempty"`
}

// ItemProperty is one key/value pair on an item definition or instance.
// Property order is preserved wherever a property list appears.
type ItemProperty struct {
	Key   string      `json:"key"`
	Value TaggedValue `json:"value"`
}

// ItemDefinition is the parsed, runtime form of an EconomyConfigItem with its
// default properties materialized as tagged values in a deterministic order.
type ItemDefinition struct {
	Key               string
	Name              string
	Category          string
	DefaultProperties []ItemProperty
}

// Catalog is the read-only lookup surface the engine consumes. It never
// mutates during the engine's lifetime.
type Catalog interface {
	// FindCurrency returns the currency definition for the key, if present.
	FindCurrency(key string) (*EconomyConfigCurrency, bool)

	// FindItemDefinition returns the parsed item definition for the key, if
	// present and not disabled.
	FindItemDefinition(key string) (*ItemDefinition, bool)

	// FindTransaction returns the transaction definition for the key, if
	// present and not disabled.
	FindTransaction(key string) (*EconomyConfigTransaction, bool)

	// CurrencyKeys lists every known currency key in a stable order.
	CurrencyKeys() []string
}

type staticCatalog struct {
	currencies   map[string]*EconomyConfigCurrency
	items        map[string]*ItemDefinition
	transactions map[string]*EconomyConfigTransaction
}

// NewCatalog parses a catalog config into its runtime form. Default
// properties that fail to parse are dropped with a warning rather than
// failing the whole load.
func NewCatalog(logger runtime.Logger, config *EconomyCatalogConfig) Catalog {
	c := &staticCatalog{
		currencies:   make(map[string]*EconomyConfigCurrency),
		items:        make(map[string]*ItemDefinition),
		transactions: make(map[string]*EconomyConfigTransaction),
	}
	if config == nil {
		return c
	}

	for key, currency := range config.Currencies {
		if currency == nil {
			continue
		}
		c.currencies[key] = currency
	}

	for key, item := range config.Items {
		if item == nil || item.Disabled {
			continue
		}

		def := &ItemDefinition{
			Key:      key,
			Name:     item.Name,
			Category: item.Category,
		}

		// Materialize defaults in sorted key order so every instance carries
		// its properties in the same order.
		propertyKeys := make([]string, 0, len(item.DefaultProperties))
		for propertyKey := range item.DefaultProperties {
			propertyKeys = append(propertyKeys, propertyKey)
		}
		sort.Strings(propertyKeys)

		for _, propertyKey := range propertyKeys {
			property := item.DefaultProperties[propertyKey]
			if property == nil {
				continue
			}
			value, ok := TryParseTaggedValue(property.Type, property.Value)
			if !ok {
				logger.Warn("Dropping unparsable default property %s.%s (%s %q)", key, propertyKey, property.Type, property.Value)
				continue
			}
			def.DefaultProperties = append(def.DefaultProperties, ItemProperty{Key: propertyKey, Value: value})
		}

		c.items[key] = def
	}

	for key, transaction := range config.Transactions {
		if transaction == nil || transaction.Disabled {
			continue
		}
		c.transactions[key] = transaction
	}

	return c
}

func (c *staticCatalog) FindCurrency(key string) (*EconomyConfigCurrency, bool) {
	currency, ok := c.currencies[key]
	return currency, ok
}

func (c *staticCatalog) FindItemDefinition(key string) (*ItemDefinition, bool) {
	def, ok := c.items[key]
	return def, ok
}

func (c *staticCatalog) FindTransaction(key string) (*EconomyConfigTransaction, bool) {
	transaction, ok := c.transactions[key]
	return transaction, ok
}

func (c *staticCatalog) CurrencyKeys() []string {
	keys := make([]string, 0, len(c.currencies))
	for key := range c.currencies {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
