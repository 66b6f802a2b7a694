// Package tally is a small counter domain built on a reflow store.
//
// A [State] is a set of named int64 counters. An [Action] adds to, sets,
// resets or clears them. [Reduce] is the pure reducer for the domain and
// [Env] exposes an action and state as a flat map for guard expressions.
//
// The reflow CLI uses this package to run YAML scripts, and it doubles as
// a worked example of writing an immutable-by-copy reducer for map state.
package tally
