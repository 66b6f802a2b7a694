// Package reflow provides a unidirectional-data-flow state container.
//
// A [Store] holds one state value. Callers change it only by dispatching
// actions, which pass through a middleware pipeline into a pure [Reducer].
// After each successful dispatch every subscriber is notified with the new
// state. The package uses Go generics: S is the state type and A the action
// type.
//
// # Quick Start
//
// Create a store from a reducer and an initial state, subscribe, dispatch:
//
//	counter := reflow.ReducerFunc[int, int](func(count, delta int) int {
//	    return count + delta
//	})
//	store, _ := reflow.New[int, int](counter, 0)
//
//	store.Subscribe(func(count int) {
//	    fmt.Println("count:", count) // prints 0 immediately, then 13
//	})
//
//	if err := store.Dispatch(5, -2, 10); err != nil {
//	    slog.Error("dispatch failed", "error", err)
//	}
//
// # Middleware
//
// Middleware wraps dispatch with cross-cutting behavior and is supplied at
// construction with [WithMiddleware]. The first middleware is the outermost
// layer. Built-ins:
//
//   - [LoggingMiddleware]: logs each action and its duration
//   - [FilterMiddleware]: drops actions rejected by a predicate
//   - [ThunkMiddleware]: runs [Thunk] actions that dispatch further actions
//
// Every middleware receives the raw base dispatch as its dispatch argument,
// not the composed pipeline. Forward through the pipeline with next.
//
// # Failure Isolation
//
// A reducer or middleware that panics aborts the dispatch call: later
// actions are skipped, no subscriber is notified, and Dispatch returns a
// [*DispatchError]. The state keeps the actions before the failing one,
// plus the failing action itself if a middleware panicked after forwarding
// it.
//
// A subscriber that panics is recovered, logged with a correlation ID and
// stack trace, and crashed permanently. Other subscribers and the state are
// unaffected, and the dispatch caller never sees the failure.
//
// # Asynchronous Dispatch
//
// [Store.DispatchAsync] queues actions for a single background worker and
// returns immediately. Batches are applied in the order they were queued.
// There is no completion handle; failures are logged. The worker runs only
// while the queue is non-empty. [Store.Close] rejects further async work and
// waits for the queue to drain.
//
// # Architecture
//
//   - internal/queue: unbounded FIFO feeding the async worker
//   - tally: a small counter domain used by the CLI
//   - config: YAML scripts describing a tally session
//   - cmd/reflow: CLI that validates and runs scripts
package reflow
