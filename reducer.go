package reflow

// Reducer computes the next state from the current state and an action.
//
// Reducer follows functional programming principles: Reduce must be a pure
// function that never mutates the state it is given. It returns a new state
// value, or the same value when the action does not apply. Reference types
// inside S (maps, slices, pointers) must be copied before modification.
//
// A Reducer signals an unrecoverable failure by panicking. The [Store]
// recovers the panic at the dispatch boundary, leaves the state at its
// pre-action value, and reports a [*DispatchError] to the caller.
type Reducer[S, A any] interface {
	Reduce(state S, action A) S
}

// ReducerFunc adapts a plain function to the [Reducer] interface.
//
// Example:
//
//	counter := reflow.ReducerFunc[int, int](func(count, delta int) int {
//	    return count + delta
//	})
type ReducerFunc[S, A any] func(state S, action A) S

// Reduce calls f(state, action).
func (f ReducerFunc[S, A]) Reduce(state S, action A) S {
	return f(state, action)
}

// Compose returns a [Reducer] that applies f and feeds its resulting state
// into g for the same action.
//
// Compose is used to build a larger reducer out of independent
// sub-reducers operating over the same state shape.
func Compose[S, A any](f, g Reducer[S, A]) Reducer[S, A] {
	return ReducerFunc[S, A](func(state S, action A) S {
		return g.Reduce(f.Reduce(state, action), action)
	})
}

// Combine folds reducers left to right with [Compose].
//
// Combine() returns the identity reducer. Nil reducers are skipped.
func Combine[S, A any](reducers ...Reducer[S, A]) Reducer[S, A] {
	var combined Reducer[S, A] = ReducerFunc[S, A](identity[S, A])
	for _, r := range reducers {
		if r == nil {
			continue
		}
		combined = Compose(combined, r)
	}
	return combined
}

func identity[S, A any](state S, _ A) S {
	return state
}
