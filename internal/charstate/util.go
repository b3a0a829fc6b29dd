package charstate

import (
	"github.com/emberwild/server/internal/comp"
	"github.com/emberwild/server/internal/core/event"
	"github.com/emberwild/server/internal/vmath"
)

// Shared per-tick behavior fragments. Each helper mutates the update in
// place; states compose them and then layer their own logic on top.

// handleMove accelerates toward the input move direction, clamped to a
// fraction of the run speed, and turns the character to face movement.
func handleMove(d *JoinData, u *StateUpdate, speedMul float64) {
	accel := AirAccel
	if d.Physics.OnGround {
		accel = BaseAccel
	}
	dir := d.Inputs.MoveDir.ClampMagnitude(1)
	u.Vel = u.Vel.Add(dir.Scale(accel * d.DT).WithZ(0))

	// Clamp planar speed.
	maxSpeed := MaxRunSpeed * speedMul
	planar := u.Vel.XY()
	if planar.Magnitude() > maxSpeed {
		capped := planar.Normalized().Scale(maxSpeed)
		u.Vel.X, u.Vel.Y = capped.X, capped.Y
	}

	handleOrientation(d, u, 9)
}

// handleOrientation slerps the orientation toward the look direction, or
// toward movement when the client sent no look input.
func handleOrientation(d *JoinData, u *StateUpdate, rate float64) {
	target := d.Inputs.LookDir
	if target.IsZero() {
		target = d.Inputs.MoveDir.WithZ(0)
	}
	if target.IsZero() {
		return
	}
	u.Ori = u.Ori.Slerp(vmath.QuatLookDir(target), vmath.Clamp(rate*d.DT, 0, 1))
}

// handleJump emits a full-strength jump when pressed on the ground.
func handleJump(d *JoinData, u *StateUpdate) {
	if d.Inputs.Jump && d.Physics.OnGround {
		u.Local = append(u.Local, event.Jump{Entity: d.Entity, Impulse: BaseJumpImpulse})
	}
}

// attemptWield switches to Wielding when the wield input is held and a
// tool is equipped.
func attemptWield(d *JoinData, u *StateUpdate) {
	if d.Inputs.Wield && d.Loadout.ActiveTool() != comp.ToolEmpty {
		u.Character = &Wielding{}
	}
}

// attemptClimb enters Climb when against a wall, off the ground, with a
// climb input held.
func attemptClimb(d *JoinData, u *StateUpdate) {
	if d.Inputs.Climb != nil && d.Physics.OnWall != nil && !d.Physics.OnGround {
		u.Character = &Climb{}
	}
}

// attemptGlide opens the glider in the air.
func attemptGlide(d *JoinData, u *StateUpdate) {
	if d.Inputs.Glide && !d.Physics.OnGround && !d.Physics.InFluid {
		u.Character = &Glide{}
	}
}

// attemptSneak toggles into Sneak on the ground.
func attemptSneak(d *JoinData, u *StateUpdate) {
	if d.Inputs.Sneak && d.Physics.OnGround {
		u.Character = &Sneak{}
	}
}

// attemptRoll starts a dodge roll if energy allows, remembering the state
// context so the roll can chain back into an interrupted combo.
func attemptRoll(d *JoinData, u *StateUpdate, wasWielded bool, prev *PrevAbility) {
	if !d.Inputs.Roll || !d.Physics.OnGround {
		return
	}
	const rollCost = 12
	if d.Energy.Current < rollCost {
		return
	}
	u.Energy = append(u.Energy, comp.EnergyChange{Amount: -rollCost, Source: comp.EnergySourceRoll})
	u.Character = &Roll{
		Static: RollData{
			BuildupDuration:  0.1,
			MovementDuration: 0.3,
			RecoverDuration:  0.2,
			Strength:         25,
			ImmuneMelee:      true,
			WasWielded:       wasWielded,
			WasSneak:         false,
		},
		Prev: prev,
	}
}

// attemptPrimary dispatches the primary ability for the wielded tool.
func attemptPrimary(d *JoinData, u *StateUpdate) {
	if !d.Inputs.Primary {
		return
	}
	switch d.Loadout.ActiveTool() {
	case comp.ToolSword, comp.ToolAxe:
		u.Character = NewComboMelee(true)
	case comp.ToolHammer:
		u.Character = NewChargedMelee()
	case comp.ToolBow:
		u.Character = NewBasicRanged()
	case comp.ToolStaff:
		u.Character = NewBeam()
	case comp.ToolDebug:
		u.Character = NewBasicRanged()
	}
}

// attemptSecondary dispatches the secondary ability for the wielded tool.
func attemptSecondary(d *JoinData, u *StateUpdate) {
	if !d.Inputs.Secondary {
		return
	}
	switch d.Loadout.ActiveTool() {
	case comp.ToolSword, comp.ToolAxe:
		u.Character = NewRollDodge()
	case comp.ToolHammer, comp.ToolStaff:
		u.Character = NewShockwave()
	case comp.ToolBow:
		u.Character = NewBasicRanged()
	}
}

// fallthroughState computes the default successor for a state that ends
// by completion: wielded context wins, then sneak, then idle.
func fallthroughState(wasWielded, wasSneak bool) CharacterState {
	switch {
	case wasWielded:
		return &Wielding{}
	case wasSneak:
		return &Sneak{}
	default:
		return &Idle{}
	}
}

// timerAdvance ticks a section timer and reports whether the section's
// duration elapsed. The caller resets the timer on transition.
func timerAdvance(timer *float64, dt, duration float64) bool {
	*timer += dt
	return *timer >= duration
}
