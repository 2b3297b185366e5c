package internal

import (
	"errors"
	"fmt"
)

// ErrUnauthenticated is returned by every ledger operation invoked without a
// resolved user identity, before any backend call is attempted.
var ErrUnauthenticated = errors.New("unauthenticated: no resolved user identity")

// ErrNotFound is returned when a record does not exist for the caller's user.
var ErrNotFound = errors.New("record not found")

// ValidationError wraps a field-constraint failure. It is surfaced before any
// backend call.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return "validation failed: " + e.Err.Error() }
func (e *ValidationError) Unwrap() error { return e.Err }

// StoreError wraps a failure from the persistence backend. The ledger does
// not retry; callers decide.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return fmt.Sprintf("store unavailable: %s: %v", e.Op, e.Err) }
func (e *StoreError) Unwrap() error { return e.Err }

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsStoreUnavailable(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}
