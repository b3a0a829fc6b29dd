package systems

import (
	"time"

	"github.com/emberwild/server/internal/charstate"
	"github.com/emberwild/server/internal/comp"
	"github.com/emberwild/server/internal/core/ecs"
	"github.com/emberwild/server/internal/core/system"
	"github.com/emberwild/server/internal/sim"
)

// Character drives the state machines: one Behavior call per character
// per tick, applying the returned update and forwarding its events.
// Energy regen and poise breaks live here too.
type Character struct {
	rs *sim.Resources

	// Fractional regen carry, since Energy is integral.
	regenCarry map[ecs.Entity]float64
}

func NewCharacter(rs *sim.Resources) *Character {
	return &Character{rs: rs, regenCarry: make(map[ecs.Entity]float64, 128)}
}

func (s *Character) Name() string        { return "character" }
func (s *Character) Phase() system.Phase { return system.PhaseCharacter }

func (s *Character) Access() system.Access {
	return system.Access{
		Reads: []system.CompID{
			sim.CompPos, sim.CompPhysState, sim.CompBody,
			sim.CompStats, sim.CompHealth,
		},
		Writes: []system.CompID{
			sim.CompCharacter, sim.CompVel, sim.CompOri,
			sim.CompEnergy, sim.CompPoise, sim.CompController,
			sim.CompLoadout,
		},
	}
}

func (s *Character) Update(dt time.Duration) {
	rs := s.rs
	st := rs.Stores
	dtSec := dt.Seconds()

	local := rs.LocalEvents.Emitter()
	server := rs.ServerEvents.Emitter()
	defer local.Flush()
	defer server.Flush()

	st.Character.Each(func(e ecs.Entity, ch *charstate.Character) {
		ctrl, ok := st.Controller.Get(e)
		if !ok {
			return
		}
		if h, ok := st.Health.Get(e); ok && h.IsDead {
			ctrl.DrainEvents()
			ctrl.DrainActions()
			return
		}

		events := ctrl.DrainEvents()
		s.applyControlEvents(e, ctrl, events)

		// Buffered presses count as held for this tick.
		in := ctrl.Inputs
		for _, a := range ctrl.DrainActions() {
			switch a.Kind {
			case comp.ActionPrimary:
				in.Primary = true
			case comp.ActionSecondary:
				in.Secondary = true
			case comp.ActionRoll:
				in.Roll = true
			}
		}

		d := charstate.JoinData{
			Entity: e,
			DT:     dtSec,
			Inputs: &in,
			Events: events,
		}
		if d.Physics, ok = st.PhysState.Get(e); !ok {
			return
		}
		if d.Energy, ok = st.Energy.Get(e); !ok {
			return
		}
		if d.Pos, ok = st.Pos.Get(e); !ok {
			return
		}
		if d.Vel, ok = st.Vel.Get(e); !ok {
			return
		}
		if d.Ori, ok = st.Ori.Get(e); !ok {
			return
		}
		d.Stats, _ = st.Stats.Get(e)
		d.Body, _ = st.Body.Get(e)
		if d.Loadout, ok = st.Loadout.Get(e); !ok {
			d.Loadout = &comp.Loadout{}
		}

		u := ch.State.Behavior(&d)

		ch.State = u.Character
		d.Vel.V = u.Vel
		d.Ori.Q = u.Ori
		for _, ec := range u.Energy {
			d.Energy.Change(ec)
		}
		for _, ev := range u.Local {
			local.Emit(ev)
		}
		for _, ev := range u.Server {
			server.Emit(ev)
		}

		s.regen(e, d.Energy, dtSec)
		s.checkPoise(e, ch)
	})

	// Forget carries for entities that no longer exist.
	for e := range s.regenCarry {
		if !st.Character.Has(e) {
			delete(s.regenCarry, e)
		}
	}
}

// applyControlEvents handles the discrete events that act on the
// controller itself rather than the state machine.
func (s *Character) applyControlEvents(e ecs.Entity, ctrl *comp.Controller, events []comp.ControlEvent) {
	for _, ev := range events {
		switch ev.Kind {
		case comp.ControlToggleWield:
			ctrl.Inputs.Wield = !ctrl.Inputs.Wield
		case comp.ControlSwapLoadout:
			s.rs.Stores.Loadout.Mutate(e, func(l *comp.Loadout) {
				main := l.Equipped(comp.SlotMainhand)
				off := l.Equipped(comp.SlotOffhand)
				l.Equip(comp.SlotMainhand, off)
				l.Equip(comp.SlotOffhand, main)
			})
		}
	}
}

// regen trickles stamina back outside of active drain.
func (s *Character) regen(e ecs.Entity, en *comp.Energy, dt float64) {
	if en.Current >= en.Maximum {
		s.regenCarry[e] = 0
		return
	}
	carry := s.regenCarry[e] + en.Regen*dt
	whole := int32(carry)
	if whole > 0 {
		en.Change(comp.EnergyChange{Amount: whole, Source: comp.EnergySourceRegen})
		carry -= float64(whole)
	}
	s.regenCarry[e] = carry
}

// checkPoise stuns the character when poise hits zero and refills the bar
// so the stun does not retrigger.
func (s *Character) checkPoise(e ecs.Entity, ch *charstate.Character) {
	s.rs.Stores.Poise.Mutate(e, func(p *comp.Poise) {
		if !p.IsBroken() {
			return
		}
		wielded := false
		switch ch.State.(type) {
		case *charstate.Idle, *charstate.Sneak, *charstate.Glide, *charstate.Climb:
		default:
			wielded = true
		}
		ch.State = &charstate.Stunned{RecoverDuration: 1.2, WasWielded: wielded}
		p.Current = p.Maximum
	})
}
