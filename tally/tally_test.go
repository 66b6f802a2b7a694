package tally

import (
	"reflect"
	"testing"

	"github.com/jpalmerr/reflow"
)

func TestReduce(t *testing.T) {
	tests := []struct {
		name    string
		initial map[string]int64
		action  Action
		want    string
	}{
		{
			name:   "add creates counter",
			action: Action{Op: OpAdd, Key: "carts", Amount: 5},
			want:   "{carts=5}",
		},
		{
			name:    "add accumulates",
			initial: map[string]int64{"carts": 5},
			action:  Action{Op: OpAdd, Key: "carts", Amount: -2},
			want:    "{carts=3}",
		},
		{
			name:    "set overwrites",
			initial: map[string]int64{"carts": 5},
			action:  Action{Op: OpSet, Key: "carts", Amount: 1},
			want:    "{carts=1}",
		},
		{
			name:    "reset removes counter",
			initial: map[string]int64{"carts": 5, "orders": 1},
			action:  Action{Op: OpReset, Key: "carts"},
			want:    "{orders=1}",
		},
		{
			name:    "reset missing counter",
			initial: map[string]int64{"orders": 1},
			action:  Action{Op: OpReset, Key: "carts"},
			want:    "{orders=1}",
		},
		{
			name:    "clear",
			initial: map[string]int64{"carts": 5, "orders": 1},
			action:  Action{Op: OpClear},
			want:    "{}",
		},
		{
			name:    "unknown op",
			initial: map[string]int64{"carts": 5},
			action:  Action{Op: "multiply", Key: "carts", Amount: 2},
			want:    "{carts=5}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Reduce(NewState(tt.initial), tt.action)
			if got.String() != tt.want {
				t.Errorf("Reduce() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestReduce_DoesNotMutateInput(t *testing.T) {
	before := NewState(map[string]int64{"carts": 5})

	_ = Reduce(before, Action{Op: OpAdd, Key: "carts", Amount: 1})
	_ = Reduce(before, Action{Op: OpSet, Key: "orders", Amount: 1})
	_ = Reduce(before, Action{Op: OpReset, Key: "carts"})

	if before.String() != "{carts=5}" {
		t.Errorf("input state mutated: %s", before)
	}
}

func TestNewState_CopiesInput(t *testing.T) {
	initial := map[string]int64{"carts": 1}
	st := NewState(initial)
	initial["carts"] = 99

	if v, _ := st.Get("carts"); v != 1 {
		t.Errorf("Get(carts) = %d, want 1", v)
	}
}

func TestState_ZeroValue(t *testing.T) {
	var st State
	if st.String() != "{}" {
		t.Errorf("String() = %q, want {}", st.String())
	}
	next := Reduce(st, Action{Op: OpAdd, Key: "a", Amount: 1})
	if next.String() != "{a=1}" {
		t.Errorf("Reduce() on zero state = %s, want {a=1}", next)
	}
}

func TestState_Keys(t *testing.T) {
	st := NewState(map[string]int64{"b": 1, "a": 2, "c": 3})
	want := []string{"a", "b", "c"}
	if got := st.Keys(); !reflect.DeepEqual(got, want) {
		t.Errorf("Keys() = %v, want %v", got, want)
	}
}

func TestAction_String(t *testing.T) {
	tests := []struct {
		action Action
		want   string
	}{
		{Action{Op: OpAdd, Key: "carts", Amount: 5}, "add:carts:5"},
		{Action{Op: OpSet, Key: "carts", Amount: -1}, "set:carts:-1"},
		{Action{Op: OpReset, Key: "carts"}, "reset:carts"},
		{Action{Op: OpClear}, "clear"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.action.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestOp_Valid(t *testing.T) {
	for _, op := range []Op{OpAdd, OpSet, OpReset, OpClear} {
		if !op.Valid() {
			t.Errorf("%q.Valid() = false, want true", op)
		}
	}
	if Op("multiply").Valid() {
		t.Error(`"multiply".Valid() = true, want false`)
	}
}

func TestEnv(t *testing.T) {
	st := NewState(map[string]int64{"carts": 3})

	env := Env(st, Action{Op: OpAdd, Key: "carts", Amount: 2})
	if env["op"] != "add" || env["key"] != "carts" || env["amount"] != int64(2) {
		t.Errorf("Env() action fields = %v", env)
	}
	if env["current"] != int64(3) || env["exists"] != true {
		t.Errorf("Env() current/exists = %v/%v, want 3/true", env["current"], env["exists"])
	}

	env = Env(st, Action{Op: OpAdd, Key: "orders", Amount: 1})
	if env["current"] != int64(0) || env["exists"] != false {
		t.Errorf("Env() for missing key current/exists = %v/%v, want 0/false", env["current"], env["exists"])
	}
}

func TestReducer_InStore(t *testing.T) {
	store, err := reflow.New(Reducer, NewState(nil))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	err = store.Dispatch(
		Action{Op: OpAdd, Key: "carts", Amount: 5},
		Action{Op: OpAdd, Key: "carts", Amount: -2},
		Action{Op: OpAdd, Key: "carts", Amount: 10},
	)
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	if got, _ := store.State().Get("carts"); got != 13 {
		t.Errorf("carts = %d, want 13", got)
	}
}
