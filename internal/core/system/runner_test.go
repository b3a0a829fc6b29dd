package system

import (
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

type fakeSystem struct {
	name   string
	phase  Phase
	access Access
	run    func()
}

func (f *fakeSystem) Name() string          { return f.name }
func (f *fakeSystem) Phase() Phase          { return f.phase }
func (f *fakeSystem) Access() Access        { return f.access }
func (f *fakeSystem) Update(time.Duration)  { f.run() }

func TestConflicts(t *testing.T) {
	cases := []struct {
		name string
		a, b Access
		want bool
	}{
		{"disjoint", Access{Writes: []CompID{"pos"}}, Access{Writes: []CompID{"vel"}}, false},
		{"write-write", Access{Writes: []CompID{"pos"}}, Access{Writes: []CompID{"pos"}}, true},
		{"read-write", Access{Reads: []CompID{"pos"}}, Access{Writes: []CompID{"pos"}}, true},
		{"write-read", Access{Writes: []CompID{"pos"}}, Access{Reads: []CompID{"pos"}}, true},
		{"read-read", Access{Reads: []CompID{"pos"}}, Access{Reads: []CompID{"pos"}}, false},
	}
	for _, c := range cases {
		if got := Conflicts(c.a, c.b); got != c.want {
			t.Errorf("%s: Conflicts = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestPlanSplitsConflictingSystems(t *testing.T) {
	r := NewRunner(zap.NewNop())
	var order []string
	mk := func(name string, w CompID) *fakeSystem {
		return &fakeSystem{
			name:  name,
			phase: PhaseCharacter,
			access: Access{Writes: []CompID{w}},
			run:   func() { order = append(order, name) },
		}
	}
	// a and b both write "pos" so they must land in different batches;
	// c is disjoint and shares a batch with a.
	r.Register(mk("a", "pos"))
	r.Register(mk("b", "pos"))
	r.Register(mk("c", "vel"))
	r.Plan()

	batches := r.batches[PhaseCharacter]
	if len(batches) != 2 {
		t.Fatalf("expected 2 batches, got %d", len(batches))
	}
	if len(batches[0]) != 2 || len(batches[1]) != 1 {
		t.Fatalf("unexpected batch shapes: %d, %d", len(batches[0]), len(batches[1]))
	}
}

func TestPhaseOrdering(t *testing.T) {
	r := NewRunner(zap.NewNop())
	var seq []Phase
	for _, ph := range []Phase{PhaseOutput, PhaseInput, PhaseApply} {
		ph := ph
		r.Register(&fakeSystem{
			name:  "s",
			phase: ph,
			run:   func() { seq = append(seq, ph) },
		})
	}
	r.Tick(time.Millisecond)
	want := []Phase{PhaseInput, PhaseApply, PhaseOutput}
	for i, ph := range want {
		if seq[i] != ph {
			t.Fatalf("phase order %v, want %v", seq, want)
		}
	}
}

func TestPanicQuarantine(t *testing.T) {
	r := NewRunner(zap.NewNop())
	var ran atomic.Bool
	r.Register(&fakeSystem{
		name:  "bad",
		phase: PhaseInput,
		run:   func() { panic("boom") },
	})
	r.Register(&fakeSystem{
		name:   "good",
		phase:  PhaseInput,
		access: Access{Writes: []CompID{"x"}},
		run:    func() { ran.Store(true) },
	})
	r.Tick(time.Millisecond) // must not propagate the panic
	if !ran.Load() {
		t.Fatal("a panicking system must not stop the rest of the phase")
	}
}
