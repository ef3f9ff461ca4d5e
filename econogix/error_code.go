package econogix

import (
	"fmt"
	"strings"

	"github.com/heroiclabs/nakama-common/runtime"
)

const (
	// INVALID_ARGUMENT_ERROR_CODE represents an error for invalid input arguments.
	INVALID_ARGUMENT_ERROR_CODE = 3
	// NOT_FOUND_ERROR_CODE represents an error for a resource not being found.
	NOT_FOUND_ERROR_CODE = 5
	// FAILED_PRECONDITION_ERROR_CODE represents an error for a failed precondition.
	FAILED_PRECONDITION_ERROR_CODE = 9
	// INTERNAL_ERROR_CODE represents an internal server error.
	INTERNAL_ERROR_CODE = 13
)

var (
	ErrInternal           = runtime.NewError("internal error occurred", INTERNAL_ERROR_CODE) // INTERNAL
	ErrBadInput           = runtime.NewError("bad input", INVALID_ARGUMENT_ERROR_CODE)       // INVALID_ARGUMENT
	ErrPayloadDecode      = runtime.NewError("cannot decode json", INTERNAL_ERROR_CODE)      // INTERNAL
	ErrPayloadEmpty       = runtime.NewError("payload should not be empty", INVALID_ARGUMENT_ERROR_CODE)
	ErrPayloadEncode      = runtime.NewError("cannot encode json", INTERNAL_ERROR_CODE) // INTERNAL
	ErrSystemNotAvailable = runtime.NewError("system not available", INTERNAL_ERROR_CODE)
	ErrEngineNotReady     = runtime.NewError("economy engine not initialized", INTERNAL_ERROR_CODE)

	ErrCurrencyNotFound       = runtime.NewError("currency not found", NOT_FOUND_ERROR_CODE)
	ErrItemDefinitionNotFound = runtime.NewError("item definition not found", NOT_FOUND_ERROR_CODE)
	ErrTransactionNotFound    = runtime.NewError("transaction not found", NOT_FOUND_ERROR_CODE)
	ErrItemInstanceNotFound   = runtime.NewError("item instance not found", NOT_FOUND_ERROR_CODE)
	ErrPropertyNotFound       = runtime.NewError("item property not found", NOT_FOUND_ERROR_CODE)

	ErrDuplicateInstanceId  = runtime.NewError("item instance id already in use", INVALID_ARGUMENT_ERROR_CODE)
	ErrPropertyTypeMismatch = runtime.NewError("property value type mismatch", INVALID_ARGUMENT_ERROR_CODE)
	ErrNegativeDelta        = runtime.NewError("delta must not be negative", INVALID_ARGUMENT_ERROR_CODE)

	ErrBalanceOverflow  = runtime.NewError("balance would exceed currency maximum", FAILED_PRECONDITION_ERROR_CODE)
	ErrBalanceUnderflow = runtime.NewError("balance would drop below zero", FAILED_PRECONDITION_ERROR_CODE)
)

// TransactionErrorCode identifies a single verification failure within a
// virtual transaction attempt.
type TransactionErrorCode string

const (
	TransactionErrorInsufficientBalance    TransactionErrorCode = "insufficient_balance"
	TransactionErrorInsufficientItems      TransactionErrorCode = "insufficient_items"
	TransactionErrorItemNotFound           TransactionErrorCode = "item_not_found"
	TransactionErrorMissingItemRequirement TransactionErrorCode = "missing_item_requirement"
	TransactionErrorPurchaseLimitReached   TransactionErrorCode = "purchase_limit_reached"
)

// TransactionError carries enough detail for a client to render one shortfall,
// such as "insufficient gold: need 15, have 10".
type TransactionError struct {
	Code      TransactionErrorCode `json:"code"`
	Key       string               `json:"key,omitempty"`
	Required  int64                `json:"required,omitempty"`
	Available int64                `json:"available,omitempty"`
}

func (e *TransactionError) Error() string {
	switch e.Code {
	case TransactionErrorInsufficientBalance, TransactionErrorInsufficientItems:
		return fmt.Sprintf("%s: %s required=%d available=%d", e.Code, e.Key, e.Required, e.Available)
	case TransactionErrorMissingItemRequirement:
		return fmt.Sprintf("%s: %s missing=%d", e.Code, e.Key, e.Required)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Key)
	}
}

// TransactionErrorList aggregates every verification failure found in a single
// transaction attempt so callers see all shortfalls at once rather than just
// the first.
type TransactionErrorList []*TransactionError

func (l TransactionErrorList) Error() string {
	msgs := make([]string, 0, len(l))
	for _, e := range l {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "; ")
}
