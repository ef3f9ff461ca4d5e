package econogix

import (
	"context"
	"testing"

	"github.com/heroiclabs/nakama-common/runtime"
	"go.uber.org/zap"
)

// mockLogger is a simple logger that implements runtime.Logger for testing.
type mockLogger struct{}

func (l *mockLogger) Debug(format string, v ...interface{})                   {}
func (l *mockLogger) Info(format string, v ...interface{})                    {}
func (l *mockLogger) Warn(format string, v ...interface{})                    {}
func (l *mockLogger) Error(format string, v ...interface{})                   {}
func (l *mockLogger) WithField(key string, v interface{}) runtime.Logger      { return l }
func (l *mockLogger) WithFields(fields map[string]interface{}) runtime.Logger { return l }
func (l *mockLogger) Fields() map[string]interface{}                          { return nil }

// zapTestLogger adapts a zap development logger to runtime.Logger for tests
// that benefit from visible output.
type zapTestLogger struct {
	sugar *zap.SugaredLogger
}

func newZapTestLogger(t *testing.T) *zapTestLogger {
	logger, _ := zap.NewDevelopment()
	t.Cleanup(func() { _ = logger.Sync() })
	return &zapTestLogger{sugar: logger.Sugar()}
}

func (l *zapTestLogger) Debug(format string, v ...interface{})                   { l.sugar.Debugf(format, v...) }
func (l *zapTestLogger) Info(format string, v ...interface{})                    { l.sugar.Infof(format, v...) }
func (l *zapTestLogger) Warn(format string, v ...interface{})                    { l.sugar.Warnf(format, v...) }
func (l *zapTestLogger) Error(format string, v ...interface{})                   { l.sugar.Errorf(format, v...) }
func (l *zapTestLogger) WithField(key string, v interface{}) runtime.Logger      { return l }
func (l *zapTestLogger) WithFields(fields map[string]interface{}) runtime.Logger { return l }
func (l *zapTestLogger) Fields() map[string]interface{}                          { return nil }

// collectingPublisher records every event it receives.
type collectingPublisher struct {
	events []*PublisherEvent
}

func (p *collectingPublisher) Send(ctx context.Context, logger runtime.Logger, events []*PublisherEvent) {
	p.events = append(p.events, events...)
}

// newTestCatalogConfig builds the catalog shared by most engine tests: two
// currencies, two item definitions and a handful of transactions.
func newTestCatalogConfig() *EconomyCatalogConfig {
	return &EconomyCatalogConfig{
		Currencies: map[string]*EconomyConfigCurrency{
			"gold": {Name: "Gold", InitialBalance: 0},
			"gems": {Name: "Gems", InitialBalance: 0, MaxBalance: 1000},
		},
		Items: map[string]*EconomyConfigItem{
			"potion": {
				Name: "Healing Potion",
				DefaultProperties: map[string]*EconomyConfigItemProperty{
					"charges": {Type: "int64", Value: "3"},
					"potency": {Type: "float64", Value: "1.5"},
					"bound":   {Type: "bool", Value: "false"},
					"rarity":  {Type: "string", Value: "common"},
				},
			},
			"sword": {
				Name: "Iron Sword",
				DefaultProperties: map[string]*EconomyConfigItemProperty{
					"durability": {Type: "int64", Value: "100"},
				},
			},
		},
		Transactions: map[string]*EconomyConfigTransaction{
			"buy_potion": {
				Kind: TransactionKindVirtual,
				Cost: &EconomyConfigExchange{
					Currencies: []*EconomyConfigExchangeCurrency{{Key: "gold", Amount: 5}},
				},
				Reward: &EconomyConfigExchange{
					Currencies: []*EconomyConfigExchangeCurrency{{Key: "gems", Amount: 3}},
					Items:      []*EconomyConfigExchangeItem{{Key: "potion", Amount: 1}},
				},
			},
			"expensive": {
				Kind: TransactionKindVirtual,
				Cost: &EconomyConfigExchange{
					Currencies: []*EconomyConfigExchangeCurrency{{Key: "gold", Amount: 15}},
				},
			},
			"brew": {
				Kind: TransactionKindVirtual,
				Cost: &EconomyConfigExchange{
					Items: []*EconomyConfigExchangeItem{{Key: "potion", Amount: 1}},
				},
				Reward: &EconomyConfigExchange{
					Currencies: []*EconomyConfigExchangeCurrency{{Key: "gold", Amount: 1}},
				},
			},
			"starter_pack": {
				Kind: TransactionKindIap,
				Reward: &EconomyConfigExchange{
					Currencies: []*EconomyConfigExchangeCurrency{{Key: "gold", Amount: 100}},
				},
			},
		},
	}
}

// newTestEngine builds an initialized engine over the shared test catalog
// with the given starting balances.
func newTestEngine(t *testing.T, balances map[string]int64) *EconomyEngine {
	t.Helper()

	logger := &mockLogger{}
	engine := NewEconomyEngine(logger, newTestCatalogConfig())

	snapshot := &EconomySnapshot{}
	for key, amount := range balances {
		snapshot.Balances = append(snapshot.Balances, &SnapshotBalance{CurrencyKey: key, Balance: amount})
	}
	engine.Initialize(logger, snapshot)
	return engine
}
