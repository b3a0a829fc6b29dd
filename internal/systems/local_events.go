package systems

import (
	"time"

	"github.com/emberwild/server/internal/comp"
	"github.com/emberwild/server/internal/core/event"
	"github.com/emberwild/server/internal/core/system"
	"github.com/emberwild/server/internal/sim"
)

// LocalApply drains the intra-tick event queue before physics runs.
// Events against destroyed entities are silently dropped.
type LocalApply struct {
	rs *sim.Resources
}

func NewLocalApply(rs *sim.Resources) *LocalApply { return &LocalApply{rs: rs} }

func (s *LocalApply) Name() string        { return "local_apply" }
func (s *LocalApply) Phase() system.Phase { return system.PhaseLocalApply }

func (s *LocalApply) Access() system.Access {
	return system.Access{Writes: []system.CompID{sim.CompVel}}
}

func (s *LocalApply) Update(dt time.Duration) {
	vel := s.rs.Stores.Vel
	for _, ev := range s.rs.LocalEvents.DrainAll() {
		switch e := ev.(type) {
		case event.Jump:
			vel.Mutate(e.Entity, func(v *comp.Vel) {
				v.V.Z = e.Impulse
			})
		case event.Boost:
			vel.Mutate(e.Entity, func(v *comp.Vel) {
				v.V = v.V.Add(e.Dir.Normalized().Scale(e.Power))
			})
		case event.ApplyImpulse:
			vel.Mutate(e.Entity, func(v *comp.Vel) {
				v.V = v.V.Add(e.Impulse)
			})
		}
	}
}
