package reflow

import (
	"fmt"
	"log/slog"
	"time"
)

// LoggingMiddleware returns a [Middleware] that logs every action.
//
// Each action is logged at Debug level after the inner layers return, with
// its Go type and the time spent in them. If an inner layer panics, a Warn
// line is written and the panic continues to the store.
func LoggingMiddleware[S, A any](logger *slog.Logger) Middleware[S, A] {
	return func(_ func() S, _ Dispatcher[A]) func(Dispatcher[A]) Dispatcher[A] {
		return func(next Dispatcher[A]) Dispatcher[A] {
			return func(action A) {
				start := time.Now()
				completed := false
				defer func() {
					attrs := []any{
						"action", fmt.Sprintf("%T", action),
						"duration_us", time.Since(start).Microseconds(),
					}
					if completed {
						logger.Debug("action dispatched", attrs...)
					} else {
						logger.Warn("action failed", attrs...)
					}
				}()

				next(action)
				completed = true
			}
		}
	}
}

// FilterMiddleware returns a [Middleware] that forwards only the actions
// allow accepts.
//
// allow receives the state at call time and the action. Rejected actions
// never reach the inner layers or the reducer; the dispatch still counts
// as successful and subscribers are still notified.
//
// Example:
//
//	nonZero := reflow.FilterMiddleware(func(_ int, delta int) bool { return delta != 0 })
func FilterMiddleware[S, A any](allow func(state S, action A) bool) Middleware[S, A] {
	return func(getState func() S, _ Dispatcher[A]) func(Dispatcher[A]) Dispatcher[A] {
		return func(next Dispatcher[A]) Dispatcher[A] {
			return func(action A) {
				if !allow(getState(), action) {
					return
				}
				next(action)
			}
		}
	}
}

// Thunk is an action that runs code instead of being reduced.
//
// A Thunk can only travel through a store whose action type A is an
// interface type able to hold it (for example any). It is executed by
// [ThunkMiddleware].
type Thunk[S, A any] func(getState func() S, dispatch Dispatcher[A])

// ThunkMiddleware returns a [Middleware] that executes [Thunk] actions.
//
// A thunk receives getState and the next layer's dispatcher, so the
// actions it dispatches go through every middleware inside this one but
// not through the ones outside it. Place ThunkMiddleware first to give
// thunk-dispatched actions the full pipeline minus the thunk layer itself.
// Other actions are forwarded unchanged.
//
// Example:
//
//	store, _ := reflow.New[int, any](reducer, 0,
//	    reflow.WithMiddleware(reflow.ThunkMiddleware[int, any]()),
//	)
//	_ = store.Dispatch(reflow.Thunk[int, any](func(getState func() int, dispatch reflow.Dispatcher[any]) {
//	    if getState() < 10 {
//	        dispatch(1)
//	    }
//	}))
func ThunkMiddleware[S, A any]() Middleware[S, A] {
	return func(getState func() S, _ Dispatcher[A]) func(Dispatcher[A]) Dispatcher[A] {
		return func(next Dispatcher[A]) Dispatcher[A] {
			return func(action A) {
				if thunk, ok := any(action).(Thunk[S, A]); ok {
					thunk(getState, next)
					return
				}
				next(action)
			}
		}
	}
}
