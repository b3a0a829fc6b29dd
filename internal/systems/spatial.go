package systems

import (
	"time"

	"github.com/emberwild/server/internal/comp"
	"github.com/emberwild/server/internal/core/ecs"
	"github.com/emberwild/server/internal/core/system"
	"github.com/emberwild/server/internal/sim"
)

// Spatial rebuilds the two-scale grid from current positions. The grid is
// valid from the end of this phase until positions next change.
type Spatial struct {
	rs *sim.Resources
}

func NewSpatial(rs *sim.Resources) *Spatial { return &Spatial{rs: rs} }

func (s *Spatial) Name() string        { return "spatial" }
func (s *Spatial) Phase() system.Phase { return system.PhaseSpatial }

func (s *Spatial) Access() system.Access {
	return system.Access{
		Reads:  []system.CompID{sim.CompPos, sim.CompBody},
		Writes: []system.CompID{sim.ResGrid},
	}
}

const defaultRadius = 0.5

func (s *Spatial) Update(dt time.Duration) {
	rs := s.rs
	rs.Grid.Clear()
	rs.Stores.Pos.Each(func(e ecs.Entity, p *comp.Pos) {
		r := defaultRadius
		if b, ok := rs.Stores.Body.Get(e); ok {
			r = b.Radius
		}
		rs.Grid.Insert(p.P.XY(), r, e)
	})
}
