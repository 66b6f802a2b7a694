package tally

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jpalmerr/reflow"
)

// Op names an operation on a counter.
type Op string

const (
	// OpAdd adds Amount to the counter at Key, creating it if needed.
	OpAdd Op = "add"

	// OpSet sets the counter at Key to Amount.
	OpSet Op = "set"

	// OpReset removes the counter at Key.
	OpReset Op = "reset"

	// OpClear removes every counter.
	OpClear Op = "clear"
)

// Valid reports whether o is a known operation.
func (o Op) Valid() bool {
	switch o {
	case OpAdd, OpSet, OpReset, OpClear:
		return true
	}
	return false
}

// Action is an intent to change a [State].
type Action struct {
	Op     Op
	Key    string
	Amount int64
}

// String renders the action in the script shorthand form.
func (a Action) String() string {
	switch a.Op {
	case OpClear:
		return string(OpClear)
	case OpReset:
		return fmt.Sprintf("%s:%s", a.Op, a.Key)
	default:
		return fmt.Sprintf("%s:%s:%d", a.Op, a.Key, a.Amount)
	}
}

// State is a set of named counters.
//
// State values are immutable by convention: [Reduce] never modifies the
// map it receives. Use [State.Clone] before changing one yourself.
type State struct {
	counters map[string]int64
}

// NewState creates a State from initial counter values. The map is copied.
func NewState(initial map[string]int64) State {
	st := State{counters: make(map[string]int64, len(initial))}
	for k, v := range initial {
		st.counters[k] = v
	}
	return st
}

// Clone returns a deep copy of the state.
func (s State) Clone() State {
	return NewState(s.counters)
}

// Get returns the counter at key and whether it exists.
func (s State) Get(key string) (int64, bool) {
	v, ok := s.counters[key]
	return v, ok
}

// Len returns the number of counters.
func (s State) Len() int {
	return len(s.counters)
}

// Keys returns the counter names in sorted order.
func (s State) Keys() []string {
	keys := make([]string, 0, len(s.counters))
	for k := range s.counters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Map returns a copy of the counters.
func (s State) Map() map[string]int64 {
	return s.Clone().counters
}

// String renders the counters as "{a=1 b=2}" with sorted keys.
func (s State) String() string {
	parts := make([]string, 0, len(s.counters))
	for _, k := range s.Keys() {
		parts = append(parts, fmt.Sprintf("%s=%d", k, s.counters[k]))
	}
	return "{" + strings.Join(parts, " ") + "}"
}

// Reduce applies action to state and returns the new state.
//
// Reduce is pure: state is never modified. Unknown operations, and resets
// of missing counters, return state unchanged.
func Reduce(state State, action Action) State {
	switch action.Op {
	case OpAdd:
		next := state.Clone()
		next.counters[action.Key] += action.Amount
		return next
	case OpSet:
		next := state.Clone()
		next.counters[action.Key] = action.Amount
		return next
	case OpReset:
		if _, ok := state.counters[action.Key]; !ok {
			return state
		}
		next := state.Clone()
		delete(next.counters, action.Key)
		return next
	case OpClear:
		return NewState(nil)
	default:
		return state
	}
}

// Reducer is [Reduce] as a [reflow.Reducer].
var Reducer reflow.Reducer[State, Action] = reflow.ReducerFunc[State, Action](Reduce)

// Env returns the guard expression environment for an action about to be
// applied to state.
//
// Variables: op, key, amount, current (the counter's value, 0 if missing),
// exists, and counters (a copy of all counters).
func Env(state State, action Action) map[string]any {
	current, exists := state.Get(action.Key)
	return map[string]any{
		"op":       string(action.Op),
		"key":      action.Key,
		"amount":   action.Amount,
		"current":  current,
		"exists":   exists,
		"counters": state.Map(),
	}
}
