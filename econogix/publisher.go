package econogix

import (
	"context"

	"github.com/heroiclabs/nakama-common/runtime"
)

const (
	EventItemPropertyChanged    = "item_property_changed"
	EventTransactionCompleted   = "transaction_completed"
	EventIapTransactionRedeemed = "iap_transaction_redeemed"
)

type PublisherEvent struct {
	Name      string            `json:"name,omitempty"`
	Id        string            `json:"id,omitempty"`
	Timestamp int64             `json:"timestamp,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Value     string            `json:"value,omitempty"`
}

// The Publisher describes a service or similar target implementation that
// wishes to receive and process events generated by the economy engine, such
// as item property changes and completed transactions.
//
// Each Publisher may choose to process or ignore each event as it sees fit.
// Implementations must handle any errors or retries internally, callers will
// not repeat calls in case of errors.
type Publisher interface {
	// Send is called when there are one or more events generated.
	Send(ctx context.Context, logger runtime.Logger, events []*PublisherEvent)
}
