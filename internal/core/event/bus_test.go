package event

import (
	"sync"
	"testing"
)

func TestEmitterFIFOWithinEmitter(t *testing.T) {
	bus := NewBus[int]()
	a := bus.Emitter()
	b := bus.Emitter()
	a.Emit(1)
	a.Emit(2)
	b.Emit(3)
	a.Flush()
	b.Flush()

	got := bus.DrainAll()
	if len(got) != 3 {
		t.Fatalf("drained %d events, want 3", len(got))
	}
	i1, i2 := -1, -1
	for i, v := range got {
		if v == 1 {
			i1 = i
		}
		if v == 2 {
			i2 = i
		}
	}
	if i1 < 0 || i2 < 0 || i1 > i2 {
		t.Fatalf("per-emitter FIFO violated: %v", got)
	}
}

func TestDrainIsSnapshotEpoch(t *testing.T) {
	bus := NewBus[string]()
	bus.EmitNow("first")
	got := bus.DrainAll()
	if len(got) != 1 || got[0] != "first" {
		t.Fatalf("unexpected drain: %v", got)
	}
	bus.EmitNow("second")
	got = bus.DrainAll()
	if len(got) != 1 || got[0] != "second" {
		t.Fatalf("post-drain emit should land in a fresh epoch, got %v", got)
	}
}

func TestDrainIsPermutationOfEmits(t *testing.T) {
	bus := NewBus[int]()
	const producers, each = 8, 100
	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			em := bus.Emitter()
			defer em.Flush()
			for i := 0; i < each; i++ {
				em.Emit(p*each + i)
			}
		}(p)
	}
	wg.Wait()

	got := bus.DrainAll()
	if len(got) != producers*each {
		t.Fatalf("drained %d events, want %d", len(got), producers*each)
	}
	seen := make(map[int]bool, len(got))
	for _, v := range got {
		if seen[v] {
			t.Fatalf("event %d duplicated", v)
		}
		seen[v] = true
	}
}

func TestFlushOnErrorPath(t *testing.T) {
	bus := NewBus[int]()
	func() {
		em := bus.Emitter()
		defer em.Flush()
		em.Emit(42)
		defer func() { recover() }()
		panic("system failure mid-scope")
	}()
	got := bus.DrainAll()
	if len(got) != 1 || got[0] != 42 {
		t.Fatalf("deferred flush must deliver on panic exit, got %v", got)
	}
}

func TestFlushTwiceDoesNotDuplicate(t *testing.T) {
	bus := NewBus[int]()
	em := bus.Emitter()
	em.Emit(7)
	em.Flush()
	em.Flush()
	if got := bus.DrainAll(); len(got) != 1 {
		t.Fatalf("double flush duplicated events: %v", got)
	}
}
