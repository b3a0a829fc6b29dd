package systems

import (
	"math"
	"time"

	"github.com/emberwild/server/internal/comp"
	"github.com/emberwild/server/internal/core/ecs"
	"github.com/emberwild/server/internal/core/event"
	"github.com/emberwild/server/internal/core/system"
	"github.com/emberwild/server/internal/rtsim"
	"github.com/emberwild/server/internal/sim"
	"github.com/emberwild/server/internal/terrain"
)

// loadedRadius is how close a player must be for a coarse entity to be
// promoted into the ECS, in world units. Demotion uses a wider band so
// entities do not flap at the boundary.
const (
	loadedRadius = 8 * terrain.ChunkSize
	unloadRadius = 12 * terrain.ChunkSize
)

// RtSimTick advances the coarse simulation one quantum and moves
// entities across the loaded-region boundary in both directions.
type RtSimTick struct {
	rs *sim.Resources
}

func NewRtSimTick(rs *sim.Resources) *RtSimTick { return &RtSimTick{rs: rs} }

func (s *RtSimTick) Name() string        { return "rtsim" }
func (s *RtSimTick) Phase() system.Phase { return system.PhaseRtSim }

func (s *RtSimTick) Access() system.Access {
	return system.Access{
		Reads:  []system.CompID{sim.CompPos, sim.CompPresence},
		Writes: []system.CompID{sim.ResRtSim},
	}
}

func (s *RtSimTick) Update(dt time.Duration) {
	rs := s.rs
	rs.RtSim.Tick(rs.Time)

	// Player positions define the loaded regions.
	var players []comp.Pos
	rs.Stores.Presence.Each(func(e ecs.Entity, p *comp.Presence) {
		if pos, ok := rs.Stores.Pos.Get(e); ok {
			players = append(players, *pos)
		}
	})
	if len(players) == 0 {
		// Nobody online: demote everything still live.
		rs.Stores.RtSimLink.Each(func(e ecs.Entity, id *rtsim.EntityID) {
			s.demote(e, *id)
		})
		return
	}

	// Promote coarse entities that entered a loaded region.
	rs.RtSim.Each(func(re *rtsim.Entity) {
		if re.Loaded {
			return
		}
		if nearestPlayer(players, re.Pos.X, re.Pos.Y) <= loadedRadius {
			if p := rs.RtSim.Promote(re.ID); p != nil {
				rs.ServerEvents.EmitNow(event.CreateNpc{
					Pos:     p.Pos,
					Body:    p.Body,
					Stats:   p.Stats,
					Health:  p.Health,
					Loadout: p.Loadout,
					RtSimID: uint64(p.ID),
				})
			}
		}
	})

	// Demote live counterparts that left every loaded region.
	rs.Stores.RtSimLink.Each(func(e ecs.Entity, id *rtsim.EntityID) {
		pos, ok := rs.Stores.Pos.Get(e)
		if !ok {
			return
		}
		if nearestPlayer(players, pos.P.X, pos.P.Y) > unloadRadius {
			s.demote(e, *id)
		}
	})
}

func (s *RtSimTick) demote(e ecs.Entity, id rtsim.EntityID) {
	rs := s.rs
	pos, ok := rs.Stores.Pos.Get(e)
	if !ok {
		return
	}
	var brain rtsim.Brain
	if re, ok := rs.RtSim.Get(id); ok {
		brain = re.Brain
	}
	rs.RtSim.Demote(id, pos.P, brain)
	rs.ServerEvents.EmitNow(event.Delete{Entity: e})
}

func nearestPlayer(players []comp.Pos, x, y float64) float64 {
	best := -1.0
	for _, p := range players {
		dx, dy := p.P.X-x, p.P.Y-y
		d := dx*dx + dy*dy
		if best < 0 || d < best {
			best = d
		}
	}
	if best < 0 {
		return 0
	}
	return math.Sqrt(best)
}
