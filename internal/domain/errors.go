package domain

import (
	"fmt"

	"github.com/pkg/errors"
)

// Error kinds for failures crossing component boundaries. Callers branch
// with errors.Is / errors.As, never on message text.
var (
	// ErrNetworkFailure transport-level failure talking to the exchange.
	ErrNetworkFailure = errors.New("network failure")
	// ErrAPIError the exchange reported success:false.
	ErrAPIError = errors.New("exchange api error")
	// ErrInsufficientBalance balance dropped below the trade amount.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrPersistenceFailure the ledger could not be flushed to disk.
	ErrPersistenceFailure = errors.New("ledger persistence failure")
	// ErrDataUnavailable neither balance nor price could be read for a token.
	ErrDataUnavailable = errors.New("market data unavailable")
)

// RejectionReason names the first failed check of trade validation.
type RejectionReason string

const (
	RejectionUnsupportedToken     RejectionReason = "unsupported_token"
	RejectionPercentageOutOfRange RejectionReason = "percentage_out_of_range"
	RejectionAmountTooSmall       RejectionReason = "amount_too_small"
)

// ValidationError rejection produced by trade sizing/validation.
// It is always surfaced to the caller and never retried silently.
type ValidationError struct {
	Reason  RejectionReason
	Message string
}

// NewValidationError creates a validation rejection with the given reason.
func NewValidationError(reason RejectionReason, message string) *ValidationError {
	return &ValidationError{Reason: reason, Message: message}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("trade rejected (%s): %s", e.Reason, e.Message)
}

// RejectionOf extracts the rejection reason from an error chain.
// The second return is false when the error is not a validation rejection.
func RejectionOf(err error) (RejectionReason, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Reason, true
	}
	return "", false
}
