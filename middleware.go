package reflow

// Dispatcher applies a single action.
type Dispatcher[A any] func(action A)

// Middleware wraps a [Store]'s dispatch with cross-cutting behavior such as
// logging, filtering, or running thunks, without the [Reducer] knowing
// about it.
//
// A Middleware is a factory. It is called exactly once when the Store is
// constructed, with:
//
//   - getState: reads the Store's state at call time (not a snapshot)
//   - dispatch: the raw base dispatch that applies one action through the
//     reducer and assigns the result
//
// It returns a wrapper that receives next, the inner layer, and returns
// the dispatcher for its own layer.
//
// # Ordering
//
// Middleware is composed right to left: the first middleware passed to
// [WithMiddleware] is the outermost layer and sees every action first.
//
// # Base dispatch
//
// Every middleware receives the same raw base dispatch as its dispatch
// argument, not the composed chain. Calling it skips every other
// middleware and goes straight to the reducer. To forward an action
// through the remaining layers, call next.
//
// Example:
//
//	audit := func(getState func() int, _ reflow.Dispatcher[int]) func(reflow.Dispatcher[int]) reflow.Dispatcher[int] {
//	    return func(next reflow.Dispatcher[int]) reflow.Dispatcher[int] {
//	        return func(action int) {
//	            before := getState()
//	            next(action)
//	            log.Printf("%d -> %d", before, getState())
//	        }
//	    }
//	}
type Middleware[S, A any] func(getState func() S, dispatch Dispatcher[A]) func(next Dispatcher[A]) Dispatcher[A]

// composeMiddleware folds middleware around base, right to left.
func composeMiddleware[S, A any](getState func() S, base Dispatcher[A], middleware []Middleware[S, A]) Dispatcher[A] {
	wrappers := make([]func(Dispatcher[A]) Dispatcher[A], len(middleware))
	for i, m := range middleware {
		wrappers[i] = m(getState, base)
	}

	dispatch := base
	for i := len(wrappers) - 1; i >= 0; i-- {
		dispatch = wrappers[i](dispatch)
	}
	return dispatch
}
