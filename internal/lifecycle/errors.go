package lifecycle

import (
	"errors"
	"fmt"

	"bharosepe/internal/models"
)

// Transition failures abort the whole operation with no partial write.
// ErrSideEffectFailure is the one exception: it reports a notification
// insert that failed after the state change had already committed.
var (
	ErrNotFound          = errors.New("transaction not found")
	ErrUnauthorizedActor = errors.New("actor is not a recognized party for this event")
	ErrInvalidGuard      = errors.New("event not valid in current state")
	ErrStaleState        = errors.New("transaction status changed concurrently")
	ErrSideEffectFailure = errors.New("notification dispatch failed after commit")
)

func guardErr(ev Event, current models.TransactionStatus, format string, args ...any) error {
	detail := fmt.Sprintf(format, args...)
	return fmt.Errorf("%w: %s in status %q: %s", ErrInvalidGuard, ev, current, detail)
}

func invalidTransitionErr(ev Event, current models.TransactionStatus, expected []models.TransactionStatus) error {
	return fmt.Errorf("%w: %s requires status in %v, transaction is %q", ErrInvalidGuard, ev, expected, current)
}
