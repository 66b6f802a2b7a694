package reflow

import (
	"errors"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/jpalmerr/reflow/internal/queue"
)

// Store holds a single state value and applies actions to it.
//
// Store owns one [Reducer], the current state, an insertion-ordered list of
// [Subscriber] values, and the dispatch pipeline composed from its
// [Middleware]. It is created with [New].
//
// # Concurrency
//
// Store enforces a single writer: each call to [Store.Dispatch], and each
// batch processed by the asynchronous worker, holds the write lock for its
// whole reduction and broadcast. Reads ([Store.State], [Store.Fold],
// [Fold]) and subscription changes use separate locks and are safe from any
// goroutine, including from inside subscriber callbacks and middleware.
//
// Calling Dispatch or [Store.Close] from inside a subscriber callback or a
// middleware deadlocks. Use [Store.DispatchAsync] there instead; it never
// blocks.
type Store[S, A any] struct {
	reducer  Reducer[S, A]
	dispatch Dispatcher[A]
	logger   *slog.Logger

	// writeMu serialises dispatches, sync and async alike.
	writeMu sync.Mutex

	stateMu sync.RWMutex
	state   S

	subMu       sync.Mutex
	subscribers []*Subscriber[S]

	jobs *queue.Queue[[]A]
}

// New creates a [Store] with the given reducer, initial state and options.
//
// Middleware supplied via [WithMiddleware] is composed once here; the
// resulting pipeline cannot change for the lifetime of the store. The store
// starts with no subscribers.
//
// Returns an error if the reducer is nil or if any option is invalid.
//
// Example:
//
//	counter := reflow.ReducerFunc[int, int](func(count, delta int) int { return count + delta })
//	store, err := reflow.New[int, int](counter, 0)
//	if err != nil {
//	    return err
//	}
//	_ = store.Dispatch(5, -2, 10) // state is now 13
func New[S, A any](reducer Reducer[S, A], initial S, opts ...Option[S, A]) (*Store[S, A], error) {
	if reducer == nil {
		return nil, errors.New("reducer is required")
	}

	cfg := &storeConfig[S, A]{}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	// default to slog.Default() if no logger provided
	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Store[S, A]{
		reducer: reducer,
		logger:  logger,
		state:   initial,
		jobs:    queue.New[[]A](),
	}
	s.dispatch = composeMiddleware(s.getState, s.baseDispatch, cfg.middleware)

	return s, nil
}

// State returns the current state.
func (s *Store[S, A]) State() S {
	return s.getState()
}

// Fold calls f with the current state, for callers that want a one-shot
// read without subscribing.
func (s *Store[S, A]) Fold(f func(S)) {
	f(s.getState())
}

// Fold applies f to the store's current state and returns the result.
//
// Fold is a package function because Go methods cannot declare their own
// type parameters.
//
// Example:
//
//	total := reflow.Fold(store, func(st Cart) int { return len(st.Items) })
func Fold[S, A, R any](s *Store[S, A], f func(S) R) R {
	return f(s.getState())
}

// Subscribe registers callback and immediately calls it once with the
// current state, before returning.
//
// The callback is then called after every successful dispatch, in
// subscription order, until the returned [Subscriber] is passed to
// [Store.Unsubscribe] or the callback panics. A panicking callback is
// recovered and logged, and the subscriber is crashed permanently; this
// includes a panic during the initial call.
//
// Returns an error if callback is nil.
func (s *Store[S, A]) Subscribe(callback func(S)) (*Subscriber[S], error) {
	if callback == nil {
		return nil, errors.New("subscriber callback cannot be nil")
	}

	sub := &Subscriber[S]{
		id:       uuid.New(),
		callback: callback,
	}

	// hold the invocation lock before the subscriber becomes visible, so a
	// concurrent broadcast delivers only after the initial call
	sub.callMu.Lock()
	defer sub.callMu.Unlock()

	s.subMu.Lock()
	s.subscribers = append(s.subscribers, sub)
	s.subMu.Unlock()

	s.deliver(sub, s.getState())

	return sub, nil
}

// Unsubscribe removes the subscriber and returns the number of subscribers
// removed.
//
// Unsubscribe is idempotent: a nil, unknown, already removed or crashed
// subscriber is a no-op returning 0. Crashed subscribers are removed by the
// next broadcast.
func (s *Store[S, A]) Unsubscribe(sub *Subscriber[S]) int {
	if sub == nil {
		return 0
	}

	s.subMu.Lock()
	defer s.subMu.Unlock()

	if sub.crashed.Load() {
		return 0
	}

	removed := 0
	s.subscribers = slices.DeleteFunc(s.subscribers, func(candidate *Subscriber[S]) bool {
		if candidate.id == sub.id {
			removed++
			return true
		}
		return false
	})
	if removed > 0 {
		sub.unsubscribed.Store(true)
	}
	return removed
}

// Len returns the number of subscribers currently held, including crashed
// subscribers that have not yet been pruned.
func (s *Store[S, A]) Len() int {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	return len(s.subscribers)
}

// Dispatch applies actions in order, then notifies subscribers.
//
// Each action passes through the middleware pipeline and the reducer; the
// state produced by one action is the input for the next. After all actions
// are applied, crashed subscribers are pruned and every remaining
// subscriber is called with the current state, in subscription order. A
// call with no actions still runs the broadcast.
//
// If an action panics, Dispatch returns a [*DispatchError]: the actions
// after it are not applied and no subscriber is notified. The state keeps
// the actions before it. Whether the failing action's own reducer result
// was assigned depends on where the panic occurred: a reducer panic, or a
// middleware panic before next, leaves it unassigned; a middleware panic
// after next does not undo it.
func (s *Store[S, A]) Dispatch(actions ...A) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.apply(actions); err != nil {
		return err
	}
	s.broadcast()
	return nil
}

// apply runs each action through the pipeline, stopping at the first failure.
func (s *Store[S, A]) apply(actions []A) error {
	for i, action := range actions {
		if err := s.applyOne(i, action); err != nil {
			return err
		}
	}
	return nil
}

// applyOne dispatches one action with panic recovery.
func (s *Store[S, A]) applyOne(index int, action A) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &DispatchError{Index: index, Cause: newPanicError(r)}
		}
	}()
	s.dispatch(action)
	return nil
}

// baseDispatch is the innermost dispatcher: reduce and assign.
func (s *Store[S, A]) baseDispatch(action A) {
	next := s.reducer.Reduce(s.getState(), action)

	s.stateMu.Lock()
	s.state = next
	s.stateMu.Unlock()
}

func (s *Store[S, A]) getState() S {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.state
}

// broadcast prunes crashed subscribers and notifies the rest.
func (s *Store[S, A]) broadcast() {
	s.subMu.Lock()
	s.subscribers = slices.DeleteFunc(s.subscribers, func(sub *Subscriber[S]) bool {
		return sub.crashed.Load()
	})
	// snapshot so callbacks may subscribe or unsubscribe freely
	live := slices.Clone(s.subscribers)
	s.subMu.Unlock()

	state := s.getState()
	for _, sub := range live {
		s.notify(sub, state)
	}
}

// notify delivers state to one subscriber unless it left since the snapshot.
func (s *Store[S, A]) notify(sub *Subscriber[S], state S) {
	sub.callMu.Lock()
	defer sub.callMu.Unlock()

	if sub.crashed.Load() || sub.unsubscribed.Load() {
		return
	}
	s.deliver(sub, state)
}

// deliver invokes the callback and crashes the subscriber on failure.
// Caller must hold sub.callMu.
func (s *Store[S, A]) deliver(sub *Subscriber[S], state S) {
	out := sub.update(state)
	if out.Ok() {
		return
	}

	s.subMu.Lock()
	sub.crashed.Store(true)
	s.subMu.Unlock()

	attrs := []any{"subscriber_id", sub.id.String(), "error", out.Err().Error()}
	var pe *PanicError
	if errors.As(out.Err(), &pe) {
		attrs = append(attrs,
			"correlation_id", pe.CorrelationID,
			"panic", pe.Value,
			"stack", string(pe.Stack),
		)
	}
	s.logger.Error("subscriber crashed", attrs...)
}
