package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/jpalmerr/reflow"
)

// todos is the example state: an immutable list of items.
type todos struct {
	items []string
	done  map[int]bool
}

type addTodo struct{ text string }

type completeTodo struct{ index int }

func reduce(state todos, action any) todos {
	switch a := action.(type) {
	case addTodo:
		items := append(append([]string(nil), state.items...), a.text)
		return todos{items: items, done: state.done}
	case completeTodo:
		if a.index < 0 || a.index >= len(state.items) {
			return state
		}
		done := make(map[int]bool, len(state.done)+1)
		for k, v := range state.done {
			done[k] = v
		}
		done[a.index] = true
		return todos{items: state.items, done: done}
	default:
		return state
	}
}

func render(state todos) string {
	var b strings.Builder
	for i, item := range state.items {
		mark := " "
		if state.done[i] {
			mark = "x"
		}
		fmt.Fprintf(&b, "[%s] %s\n", mark, item)
	}
	return b.String()
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	store, err := reflow.New[todos, any](reflow.ReducerFunc[todos, any](reduce), todos{},
		reflow.WithLogger[todos, any](logger),
		reflow.WithMiddleware(
			reflow.ThunkMiddleware[todos, any](),
			reflow.LoggingMiddleware[todos, any](logger),
		),
	)
	if err != nil {
		slog.Error("failed to create store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	// print the list after every dispatch
	_, err = store.Subscribe(func(state todos) {
		fmt.Printf("--- %d items ---\n%s", len(state.items), render(state))
	})
	if err != nil {
		slog.Error("failed to subscribe", "error", err)
		os.Exit(1)
	}

	// a subscriber that fails is isolated and logged; the others keep running
	_, _ = store.Subscribe(func(state todos) {
		if len(state.items) > 1 {
			panic("too many todos")
		}
	})

	if err := store.Dispatch(addTodo{"write reducer"}, addTodo{"add middleware"}); err != nil {
		slog.Error("dispatch failed", "error", err)
	}

	// complete everything that is still open
	completeAll := reflow.Thunk[todos, any](func(getState func() todos, dispatch reflow.Dispatcher[any]) {
		for i := range getState().items {
			dispatch(completeTodo{i})
		}
	})
	if err := store.Dispatch(completeAll); err != nil {
		slog.Error("dispatch failed", "error", err)
	}

	if err := store.DispatchAsync(addTodo{"ship it"}); err != nil {
		slog.Error("async dispatch failed", "error", err)
	}
	store.Close()

	fmt.Printf("final: %d items, %d subscribers\n", len(store.State().items), store.Len())
}
