package reflow

import (
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/google/uuid"
)

// ErrStoreClosed is returned by [Store.DispatchAsync] after [Store.Close].
var ErrStoreClosed = errors.New("store is closed")

// PanicError describes a panic recovered from a reducer, a middleware, or a
// subscriber callback.
//
// Each PanicError carries a correlation ID that also appears in the log
// line written for it, so a user-facing error can be matched with the
// full stack trace server-side.
type PanicError struct {
	// Value is the value passed to panic.
	Value any

	// CorrelationID identifies this failure in logs.
	CorrelationID string

	// Stack is the goroutine stack captured at recovery.
	Stack []byte
}

// newPanicError must be called from the deferred function that recovered r.
func newPanicError(r any) *PanicError {
	return &PanicError{
		Value:         r,
		CorrelationID: uuid.NewString(),
		Stack:         debug.Stack(),
	}
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v (correlation_id: %s)", e.Value, e.CorrelationID)
}

// Unwrap returns the panic value when it is an error, so errors.Is and
// errors.As see through the panic.
func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

// DispatchError is returned when an action fails during dispatch.
//
// Actions before the failing one in the same call were applied; actions
// after it were not, and no broadcast happened. The failing action's
// reducer result is assigned only if the panic came from a middleware
// after it called next.
type DispatchError struct {
	// Index is the position of the failing action in the dispatch call.
	Index int

	// Cause is the panic recovered while the action moved through the
	// middleware chain and reducer.
	Cause *PanicError
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch action %d: %v", e.Index, e.Cause)
}

func (e *DispatchError) Unwrap() error {
	return e.Cause
}
