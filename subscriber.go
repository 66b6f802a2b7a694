package reflow

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Subscriber is a registered observer of a [Store]'s state.
//
// A Subscriber is returned by [Store.Subscribe] and is the only handle a
// caller needs to keep; pass it to [Store.Unsubscribe] to stop updates.
//
// A subscriber whose callback panics is crashed: the panic is recovered
// and logged, [Subscriber.HasCrashed] becomes permanently true, and the
// subscriber receives no further updates. Crashing never affects the
// store's state or delivery to other subscribers.
type Subscriber[S any] struct {
	id       uuid.UUID
	callback func(S)

	// callMu keeps a single callback from running concurrently with itself.
	callMu sync.Mutex

	// written under Store.subMu, read lock-free
	crashed      atomic.Bool
	unsubscribed atomic.Bool
}

// ID returns the subscriber's unique identifier.
func (s *Subscriber[S]) ID() uuid.UUID {
	return s.id
}

// HasCrashed reports whether the subscriber's callback has panicked.
// Once true it stays true.
func (s *Subscriber[S]) HasCrashed() bool {
	return s.crashed.Load()
}

// Outcome is the result of delivering a state to a subscriber: either Ok
// or Failed with the error that caused the failure.
type Outcome struct {
	err error
}

// Ok reports whether the delivery succeeded.
func (o Outcome) Ok() bool {
	return o.err == nil
}

// Err returns the failure, or nil for an Ok outcome.
func (o Outcome) Err() error {
	return o.err
}

// update calls the callback with panic recovery.
func (s *Subscriber[S]) update(state S) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = Outcome{err: newPanicError(r)}
		}
	}()
	s.callback(state)
	return Outcome{}
}
