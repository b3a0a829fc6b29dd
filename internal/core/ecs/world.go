package ecs

import "sync"

// World is the top-level ECS container. It owns the entity pool, the
// component registry, a staging area for deferred insertions, and a
// deferred destruction queue.
//
// Systems running in parallel may stage insertions concurrently; staged
// work becomes visible only when FlushStaged runs at the maintain barrier.
// Destroys are likewise deferred to end-of-tick cleanup.
type World struct {
	pool     *Pool
	registry *Registry

	stagedMu     sync.Mutex
	staged       []func()
	destroyQueue []Entity
}

func NewWorld() *World {
	return &World{
		pool:         NewPool(),
		registry:     NewRegistry(),
		staged:       make([]func(), 0, 64),
		destroyQueue: make([]Entity, 0, 64),
	}
}

func (w *World) Pool() *Pool         { return w.pool }
func (w *World) Registry() *Registry { return w.registry }

func (w *World) CreateEntity() Entity {
	return w.pool.Create()
}

func (w *World) Alive(e Entity) bool {
	return w.pool.Alive(e)
}

// Stage buffers an insertion to be applied at the next maintain barrier.
// Safe to call from parallel systems.
func (w *World) Stage(apply func()) {
	w.stagedMu.Lock()
	w.staged = append(w.staged, apply)
	w.stagedMu.Unlock()
}

// StageSet is the typed staging helper for inserting a component.
func StageSet[T any](w *World, s *Store[T], e Entity, c *T) {
	w.Stage(func() { s.Set(e, c) })
}

// FlushStaged applies all staged insertions in staging order. Runs at the
// maintain barrier, single-threaded.
func (w *World) FlushStaged() {
	w.stagedMu.Lock()
	staged := w.staged
	w.staged = make([]func(), 0, 64)
	w.stagedMu.Unlock()
	for _, apply := range staged {
		apply()
	}
}

// MarkForDestruction queues an entity for end-of-tick cleanup.
func (w *World) MarkForDestruction(e Entity) {
	w.destroyQueue = append(w.destroyQueue, e)
}

// FlushDestroyQueue destroys all queued entities and clears their
// components. Called by the cleanup phase at the end of each tick.
func (w *World) FlushDestroyQueue() {
	for _, e := range w.destroyQueue {
		w.registry.RemoveAll(e)
		w.pool.Destroy(e)
	}
	w.destroyQueue = w.destroyQueue[:0]
}
