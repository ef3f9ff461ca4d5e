package econogix

// EconomySnapshot is the only persisted-state contract the engine depends
// on. It is handed in once at startup and can be exported on demand; how it
// reaches disk or network is the caller's concern.
type EconomySnapshot struct {
	Balances []*SnapshotBalance `json:"balances,omitempty"`
	Items    []*ItemInstance    `json:"items,omitempty"`
}

type SnapshotBalance struct {
	CurrencyKey string `json:"currency_key"`
	Balance     int64  `json:"balance"`
}
