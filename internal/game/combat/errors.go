package combat

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrSelfTarget        = errors.New("cannot target yourself")
	ErrUnknownItem       = errors.New("unknown item")
	ErrInsufficientItems = errors.New("not enough items")
	ErrCooldown          = errors.New("attack is on cooldown")
	ErrWrongItemKind     = errors.New("item cannot be used this way")
	ErrUnknownEffect     = errors.New("unknown effect type")
	ErrInvalidEffect     = errors.New("invalid effect parameters")
)

// ValidationError is a user-facing refusal raised before any mutation.
// errors.Is matches the wrapped sentinel.
type ValidationError struct {
	Err        error
	Reason     string
	RetryAfter time.Duration // set for ErrCooldown
}

func (e *ValidationError) Error() string {
	if e.Reason == "" {
		return e.Err.Error()
	}
	return e.Err.Error() + ": " + e.Reason
}

func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(err error, format string, args ...any) error {
	return &ValidationError{Err: err, Reason: fmt.Sprintf(format, args...)}
}

// StoreError marks a durable-store failure during a player action.
// Nothing is assumed committed by the failing call.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *StoreError) Unwrap() error { return e.Err }

func storeErr(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}

// IsStoreFailure reports whether err comes from the durable stores.
func IsStoreFailure(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}

// IsValidation reports whether err is a pre-mutation refusal.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
