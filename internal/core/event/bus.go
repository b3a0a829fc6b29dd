package event

import "sync"

// Bus is a multi-producer queue for one event family. Producers either
// EmitNow under the shared lock or batch through an Emitter and take the
// lock once on Flush. DrainAll snapshots the queue at the call instant;
// emits after the drain land in a fresh epoch.
//
// Ordering: FIFO per emitter; interleaving between emitters is arbitrary.
type Bus[T any] struct {
	mu    sync.Mutex
	queue []T
}

func NewBus[T any]() *Bus[T] {
	return &Bus[T]{queue: make([]T, 0, 64)}
}

// EmitNow enqueues a single event immediately.
func (b *Bus[T]) EmitNow(e T) {
	b.mu.Lock()
	b.queue = append(b.queue, e)
	b.mu.Unlock()
}

// Emitter returns a scope-bound batching handle. Callers must arrange
// Flush on every exit path, normally `defer em.Flush()`.
func (b *Bus[T]) Emitter() *Emitter[T] {
	return &Emitter[T]{bus: b}
}

// DrainAll returns everything emitted up to the call instant.
func (b *Bus[T]) DrainAll() []T {
	b.mu.Lock()
	out := b.queue
	b.queue = make([]T, 0, 64)
	b.mu.Unlock()
	return out
}

// Len reports the number of queued events; test helper.
func (b *Bus[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}

// Emitter buffers events locally and appends them to the shared queue in
// one locked operation when flushed. This keeps lock contention off the
// hot path when many systems emit concurrently.
type Emitter[T any] struct {
	bus *Bus[T]
	buf []T
}

func (em *Emitter[T]) Emit(e T) {
	em.buf = append(em.buf, e)
}

// Flush appends the local buffer to the shared queue. Safe to call more
// than once; subsequent calls with an empty buffer are no-ops.
func (em *Emitter[T]) Flush() {
	if len(em.buf) == 0 {
		return
	}
	em.bus.mu.Lock()
	em.bus.queue = append(em.bus.queue, em.buf...)
	em.bus.mu.Unlock()
	em.buf = em.buf[:0]
}
