package config

import (
	"bytes"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/jpalmerr/reflow"
	"github.com/jpalmerr/reflow/tally"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBuildActions(t *testing.T) {
	got := BuildActions([]ActionConfig{
		{Op: "add", Key: "carts", Amount: 5},
		{Op: "clear"},
	})

	want := []tally.Action{
		{Op: tally.OpAdd, Key: "carts", Amount: 5},
		{Op: tally.OpClear},
	}
	if len(got) != len(want) {
		t.Fatalf("len(BuildActions()) = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("BuildActions()[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestBuildInitial(t *testing.T) {
	cfg := &Config{Initial: map[string]int64{"carts": 3}}
	if got := BuildInitial(cfg).String(); got != "{carts=3}" {
		t.Errorf("BuildInitial() = %s, want {carts=3}", got)
	}
}

func TestBuildGuard_None(t *testing.T) {
	guard, err := BuildGuard(&Config{}, discardLogger())
	if err != nil {
		t.Fatalf("BuildGuard() error = %v", err)
	}
	if guard != nil {
		t.Error("BuildGuard() = non-nil, want nil without a guard expression")
	}
}

func TestBuildGuard_InvalidExpression(t *testing.T) {
	_, err := BuildGuard(&Config{Guard: "amount >="}, discardLogger())
	if err == nil {
		t.Fatal("BuildGuard() expected error, got nil")
	}
}

func TestBuildGuard_Filters(t *testing.T) {
	tests := []struct {
		name    string
		guard   string
		actions []tally.Action
		want    string
	}{
		{
			name:  "non-negative adds",
			guard: "amount >= 0 || op != 'add'",
			actions: []tally.Action{
				{Op: tally.OpAdd, Key: "carts", Amount: 5},
				{Op: tally.OpAdd, Key: "carts", Amount: -2},
				{Op: tally.OpSet, Key: "orders", Amount: -1},
			},
			want: "{carts=5 orders=-1}",
		},
		{
			name:  "cap by current value",
			guard: "current + amount <= 10",
			actions: []tally.Action{
				{Op: tally.OpAdd, Key: "carts", Amount: 6},
				{Op: tally.OpAdd, Key: "carts", Amount: 6},
				{Op: tally.OpAdd, Key: "carts", Amount: 4},
			},
			want: "{carts=10}",
		},
		{
			name:  "only existing counters",
			guard: "exists || op == 'set'",
			actions: []tally.Action{
				{Op: tally.OpAdd, Key: "carts", Amount: 1},
				{Op: tally.OpSet, Key: "carts", Amount: 1},
				{Op: tally.OpAdd, Key: "carts", Amount: 1},
			},
			want: "{carts=2}",
		},
		{
			name:  "counters map",
			guard: "len(counters) < 2 || exists",
			actions: []tally.Action{
				{Op: tally.OpAdd, Key: "a", Amount: 1},
				{Op: tally.OpAdd, Key: "b", Amount: 1},
				{Op: tally.OpAdd, Key: "c", Amount: 1},
				{Op: tally.OpAdd, Key: "a", Amount: 1},
			},
			want: "{a=2 b=1}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			guard, err := BuildGuard(&Config{Guard: tt.guard}, discardLogger())
			if err != nil {
				t.Fatalf("BuildGuard() error = %v", err)
			}

			store, err := reflow.New(tally.Reducer, tally.NewState(nil), reflow.WithMiddleware(guard))
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if err := store.Dispatch(tt.actions...); err != nil {
				t.Fatalf("Dispatch() error = %v", err)
			}

			if got := store.State().String(); got != tt.want {
				t.Errorf("state = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestBuildOptions(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	cfg := &Config{Guard: "amount > 0", LogActions: true}
	opts, err := BuildOptions(cfg, logger)
	if err != nil {
		t.Fatalf("BuildOptions() error = %v", err)
	}
	if len(opts) != 3 {
		t.Fatalf("len(BuildOptions()) = %d, want 3", len(opts))
	}

	store, err := reflow.New(tally.Reducer, tally.NewState(nil), opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	err = store.Dispatch(
		tally.Action{Op: tally.OpAdd, Key: "carts", Amount: 1},
		tally.Action{Op: tally.OpAdd, Key: "carts", Amount: -1},
	)
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	if got := store.State().String(); got != "{carts=1}" {
		t.Errorf("state = %s, want {carts=1}", got)
	}

	out := logs.String()
	if strings.Count(out, "action dispatched") != 1 {
		t.Errorf("expected exactly one dispatched action in logs, got:\n%s", out)
	}
	if !strings.Contains(out, "action rejected by guard") {
		t.Errorf("expected guard rejection in logs, got:\n%s", out)
	}
}

func TestBuildOptions_Minimal(t *testing.T) {
	opts, err := BuildOptions(&Config{}, discardLogger())
	if err != nil {
		t.Fatalf("BuildOptions() error = %v", err)
	}
	if len(opts) != 1 {
		t.Errorf("len(BuildOptions()) = %d, want 1 (logger only)", len(opts))
	}
}
