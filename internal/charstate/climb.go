package charstate

import (
	"github.com/emberwild/server/internal/comp"
	"github.com/emberwild/server/internal/core/event"
	"github.com/emberwild/server/internal/vmath"
)

// Climb scales walls. Active iff touching a wall, holding a climb input,
// and off the ground. Vertical acceleration counteracts gravity so that
// Up climbs, Hold hovers, and Down descends; energy drains each tick and
// exhaustion drops the climber.
type Climb struct{}

func (*Climb) isCharacterState() {}

func (s *Climb) Behavior(d *JoinData) StateUpdate {
	u := initUpdate(d, s)

	// Jump exits the climb with a half-strength impulse so the character
	// can mantle over ledges.
	if d.Inputs.Jump {
		u.Character = &Idle{}
		u.Local = append(u.Local, event.Jump{Entity: d.Entity, Impulse: BaseJumpImpulse / 2})
		return u
	}
	if d.Physics.OnWall == nil || d.Inputs.Climb == nil || d.Physics.OnGround {
		u.Character = &Idle{}
		return u
	}

	kind := *d.Inputs.Climb
	cost := int32(ClimbCostHold)
	switch kind {
	case comp.ClimbUp:
		cost = ClimbCostUp
	case comp.ClimbDown:
		cost = ClimbCostDown
	}
	exhausted := d.Energy.Current < uint32(cost)
	u.Energy = append(u.Energy, comp.EnergyChange{Amount: -cost, Source: comp.EnergySourceClimb})
	if exhausted {
		u.Character = &Idle{}
		return u
	}

	// Horizontal: shimmy along the wall, capped at climb speed.
	dir := d.Inputs.MoveDir.ClampMagnitude(1)
	u.Vel = u.Vel.Add(dir.Scale(ClimbAccel * d.DT).WithZ(0))
	planar := u.Vel.XY()
	if planar.Magnitude() > ClimbSpeed {
		capped := planar.Normalized().Scale(ClimbSpeed)
		u.Vel.X, u.Vel.Y = capped.X, capped.Y
	}

	// Vertical: gravity is added back here and subtracted again by
	// physics, so the net motion is ±ClimbAccel or a hover.
	switch kind {
	case comp.ClimbUp:
		u.Vel.Z += (Gravity + ClimbAccel) * d.DT
		if u.Vel.Z > ClimbSpeed {
			u.Vel.Z = ClimbSpeed
		}
	case comp.ClimbDown:
		u.Vel.Z += (Gravity - ClimbAccel) * d.DT
	case comp.ClimbHold:
		u.Vel.Z += Gravity * d.DT
	}

	// Face into the wall.
	rate := 2.0
	if d.Physics.OnGround {
		rate = 9.0
	}
	u.Ori = u.Ori.Slerp(vmath.QuatLookDir(*d.Physics.OnWall), vmath.Clamp(rate*d.DT, 0, 1))
	return u
}
