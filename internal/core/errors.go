package core

import (
	"errors"
	"strings"
)

// Request-boundary error taxonomy. All of these are recoverable: the
// caller surfaces the message and lets the user correct input or refresh
// a stale view. Storage failures are wrapped separately and never mapped
// onto these sentinels.
var (
	// ErrNotFound marks a missing project, installment or submission.
	ErrNotFound = errors.New("not found")

	// ErrConflict marks a business-rule violation against existing state:
	// a duplicate pending submission or an installment already paid.
	ErrConflict = errors.New("conflict")

	// ErrInvalidState marks a review attempt on a non-pending submission.
	// It usually means the client acted on a stale view.
	ErrInvalidState = errors.New("invalid state")
)

// ValidationError reports malformed input with every offending field or
// installment number enumerated, so the caller can surface all problems
// at once instead of one per round trip.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Problems, "; ")
}

// AsValidation unwraps err into a *ValidationError if it is one.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
