// Package rtsim is the coarse simulation for NPCs outside every player's
// loaded region. Entities are a seed plus mutable travel state; body,
// loadout, level and name are recomputed from the seed on promotion.
package rtsim

import (
	"go.uber.org/zap"

	"github.com/emberwild/server/internal/comp"
	"github.com/emberwild/server/internal/config"
	"github.com/emberwild/server/internal/vmath"
	"github.com/emberwild/server/internal/world"
)

// travelStep is how far an entity moves per rtsim tick, and also the
// arrival radius that clears the target.
const travelStep = 64.0

// EntityID is the durable rtsim identity, independent of any live ECS
// handle the entity gets while promoted.
type EntityID uint64

// Entity is one coarse-simulated NPC.
type Entity struct {
	ID       EntityID
	Seed     uint64
	Pos      vmath.Vec3
	LastTick uint64
	Target   world.SiteID // 0 when none
	Brain    Brain
	Loaded   bool // promoted into the ECS, skip coarse ticks
}

// RtSim owns the coarse entity table.
type RtSim struct {
	entities map[EntityID]*Entity
	nextID   EntityID
	sites    *world.Sites
	airships bool
	tick     uint64
	log      *zap.Logger
}

func New(sites *world.Sites, cfg config.RtSimConfig, log *zap.Logger) *RtSim {
	return &RtSim{
		entities: make(map[EntityID]*Entity, 256),
		sites:    sites,
		airships: cfg.EnableAirships,
		log:      log,
	}
}

// Spawn registers a new coarse entity at pos with the given seed.
func (r *RtSim) Spawn(seed uint64, pos vmath.Vec3) *Entity {
	r.nextID++
	e := &Entity{ID: r.nextID, Seed: seed, Pos: pos}
	r.entities[e.ID] = e
	return e
}

func (r *RtSim) Get(id EntityID) (*Entity, bool) {
	e, ok := r.entities[id]
	return e, ok
}

func (r *RtSim) Len() int { return len(r.entities) }

// Each visits every entity; mutation through the pointer is allowed from
// the game loop.
func (r *RtSim) Each(fn func(*Entity)) {
	for _, e := range r.entities {
		fn(e)
	}
}

// Tick advances every unloaded entity one quantum: keep or choose a
// travel target, walk toward it, clear it on arrival, and age memories.
func (r *RtSim) Tick(now float64) {
	r.tick++
	for _, e := range r.entities {
		if e.Loaded {
			continue
		}
		r.tickEntity(e, now)
		e.LastTick = r.tick
	}
}

func (r *RtSim) tickEntity(e *Entity, now float64) {
	body := GenBody(e.Seed, r.airships)

	if e.Target == 0 {
		e.Target = r.chooseTarget(e, body)
	}
	if e.Target != 0 {
		site, ok := r.sites.Get(e.Target)
		if !ok {
			e.Target = 0
		} else {
			to := site.Pos.Sub(e.Pos.XY())
			if to.Magnitude() <= travelStep {
				e.Pos = site.Pos.WithZ(e.Pos.Z)
				e.Target = 0
				e.Brain.Remember(Memory{Kind: MemoryVisitedSite, Data: site.Name, Time: now})
			} else {
				step := to.Normalized().Scale(travelStep)
				e.Pos = e.Pos.Add(step.WithZ(0))
			}
		}
	}

	e.Brain.Forget(now)
}

// chooseTarget picks a destination site filtered by body kind, weighted
// toward near sites but biased against the very closest so entities do
// not shuttle between neighbors forever.
func (r *RtSim) chooseTarget(e *Entity, body comp.Body) world.SiteID {
	accept := siteFilter(body.Kind)
	cand := r.sites.Nearest(e.Pos.XY(), 6, accept)
	if len(cand) == 0 {
		return 0
	}

	// Weight = distance, floored; the nearest candidate gets the least
	// weight, distant ones proportionally more.
	weights := make([]float64, len(cand))
	var total float64
	for i, s := range cand {
		d := s.Pos.Distance(e.Pos.XY())
		if d < travelStep {
			d = 0 // already here, never re-picked
		}
		weights[i] = d
		total += d
	}
	if total == 0 {
		return 0
	}

	roll := float64(mix(e.Seed, r.tick)%10000) / 10000.0 * total
	for i, w := range weights {
		roll -= w
		if roll <= 0 && w > 0 {
			return cand[i].ID
		}
	}
	return cand[len(cand)-1].ID
}

// siteFilter maps a body kind to the site kinds it travels between.
// Airships accept any site.
func siteFilter(kind comp.BodyKind) func(*world.Site) bool {
	switch kind {
	case comp.BodyHumanoid:
		return func(s *world.Site) bool {
			return s.Kind == world.SiteSettlement || s.Kind == world.SiteCastle
		}
	case comp.BodyShip:
		return func(s *world.Site) bool { return s.Kind == world.SiteSettlement }
	case comp.BodyAirship:
		return nil
	default:
		return func(s *world.Site) bool {
			return s.Kind == world.SiteDungeon || s.Kind == world.SiteCave
		}
	}
}

// PromotedData is everything needed to build the live ECS entity.
type PromotedData struct {
	ID      EntityID
	Pos     vmath.Vec3
	Body    comp.Body
	Loadout comp.Loadout
	Stats   comp.Stats
	Health  comp.Health
}

// Promote marks the entity loaded and returns its reconstructed live
// form. Returns nil when unknown or already loaded.
func (r *RtSim) Promote(id EntityID) *PromotedData {
	e, ok := r.entities[id]
	if !ok || e.Loaded {
		return nil
	}
	e.Loaded = true
	body := GenBody(e.Seed, r.airships)
	return &PromotedData{
		ID:      id,
		Pos:     e.Pos,
		Body:    body,
		Loadout: GenLoadout(e.Seed, body),
		Stats:   GenStats(e.Seed),
		Health:  GenHealth(e.Seed),
	}
}

// Demote returns the entity to coarse simulation, preserving the live
// position and brain.
func (r *RtSim) Demote(id EntityID, pos vmath.Vec3, brain Brain) {
	e, ok := r.entities[id]
	if !ok {
		r.log.Warn("demote of unknown rtsim entity", zap.Uint64("id", uint64(id)))
		return
	}
	e.Loaded = false
	e.Pos = pos
	e.Brain = brain
}

// Remove drops a coarse entity permanently (live counterpart died).
func (r *RtSim) Remove(id EntityID) {
	delete(r.entities, id)
}

// restore reinstates a persisted entity; store loading only.
func (r *RtSim) restore(e *Entity) {
	r.entities[e.ID] = e
	if e.ID > r.nextID {
		r.nextID = e.ID
	}
}
