// Package world carries simulation-wide registries that are not tied to a
// single entity: the Uid allocator and the site index.
package world

import (
	"github.com/emberwild/server/internal/comp"
	"github.com/emberwild/server/internal/core/ecs"
)

// UidRegistry hands out stable public identifiers and maps them back to
// live entities. Uids survive entity destruction in the sense that they
// are never reissued; the mapping is simply dropped.
//
// Game loop only, no locking.
type UidRegistry struct {
	next     uint64
	toEntity map[comp.Uid]ecs.Entity
	toUid    map[ecs.Entity]comp.Uid
}

func NewUidRegistry() *UidRegistry {
	return &UidRegistry{
		next:     1,
		toEntity: make(map[comp.Uid]ecs.Entity, 256),
		toUid:    make(map[ecs.Entity]comp.Uid, 256),
	}
}

// Allocate issues a fresh Uid for the entity and records both directions.
func (r *UidRegistry) Allocate(e ecs.Entity) comp.Uid {
	uid := comp.Uid(r.next)
	r.next++
	r.toEntity[uid] = e
	r.toUid[e] = uid
	return uid
}

// Entity resolves a Uid to its live entity.
func (r *UidRegistry) Entity(uid comp.Uid) (ecs.Entity, bool) {
	e, ok := r.toEntity[uid]
	return e, ok
}

// Uid resolves an entity to its public identifier.
func (r *UidRegistry) Uid(e ecs.Entity) (comp.Uid, bool) {
	u, ok := r.toUid[e]
	return u, ok
}

// Release drops the mapping for a destroyed entity. The Uid itself is
// retired, never reissued.
func (r *UidRegistry) Release(e ecs.Entity) {
	if u, ok := r.toUid[e]; ok {
		delete(r.toEntity, u)
		delete(r.toUid, e)
	}
}

func (r *UidRegistry) Len() int { return len(r.toEntity) }
