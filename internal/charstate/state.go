// Package charstate implements the per-entity character state machine.
//
// A state is a tagged variant behind a sealed interface: every variant
// lives in this package and appliers can switch exhaustively. Each tick
// the character system calls Behavior with a JoinData view and applies
// the returned StateUpdate. States never mutate the world directly; all
// structural and combat effects go out as queued events.
package charstate

import (
	"github.com/emberwild/server/internal/comp"
	"github.com/emberwild/server/internal/core/ecs"
	"github.com/emberwild/server/internal/core/event"
	"github.com/emberwild/server/internal/vmath"
)

// Movement and combat constants shared by the states.
const (
	Gravity         = 25.0
	BaseJumpImpulse = 16.0
	BaseAccel       = 50.0
	AirAccel        = 8.0
	MaxRunSpeed     = 9.0
	SneakSpeedMul   = 0.45

	ClimbAccel     = 12.0
	ClimbSpeed     = 5.0
	ClimbCostUp    = 5
	ClimbCostDown  = 1
	ClimbCostHold  = 1

	GlideAntigrav  = 22.0
	GlideAccel     = 12.0
	MaxGlideSpeed  = 30.0
)

// StageSection is the phase within a multi-phase state.
type StageSection uint8

const (
	StageBuildup StageSection = iota
	StageAction
	StageRecover
)

func (s StageSection) String() string {
	switch s {
	case StageBuildup:
		return "buildup"
	case StageAction:
		return "action"
	default:
		return "recover"
	}
}

// JoinData is the read view handed to a state's behavior for one tick.
type JoinData struct {
	Entity  ecs.Entity
	DT      float64
	Physics *comp.PhysicsState
	Inputs  *comp.ControlInputs
	Events  []comp.ControlEvent
	Energy  *comp.Energy
	Stats   *comp.Stats
	Body    *comp.Body
	Loadout *comp.Loadout
	Pos     *comp.Pos
	Vel     *comp.Vel
	Ori     *comp.Ori
}

// StateUpdate is the delta a behavior produces: the successor variant,
// new velocity and orientation, energy changes, and queued events.
type StateUpdate struct {
	Character CharacterState
	Vel       vmath.Vec3
	Ori       vmath.Quat
	Energy    []comp.EnergyChange
	Local     []event.LocalEvent
	Server    []event.ServerEvent
}

// CharacterState is the sealed tagged variant.
type CharacterState interface {
	isCharacterState()
	Behavior(d *JoinData) StateUpdate
}

// Character is the ECS component wrapping the current variant.
type Character struct {
	State CharacterState
}

func NewCharacter() Character {
	return Character{State: &Idle{}}
}

// initUpdate seeds a StateUpdate that keeps the current state unchanged.
func initUpdate(d *JoinData, s CharacterState) StateUpdate {
	return StateUpdate{
		Character: s,
		Vel:       d.Vel.V,
		Ori:       d.Ori.Q,
	}
}

// MeleeImmune reports whether the damage apply phase must ignore melee
// hits against an entity in this state.
func MeleeImmune(s CharacterState) bool {
	r, ok := s.(*Roll)
	return ok && r.Static.ImmuneMelee && r.Section == StageAction
}

// Name returns the variant tag, for logs and sync messages.
func Name(s CharacterState) string {
	switch s.(type) {
	case *Idle:
		return "idle"
	case *Wielding:
		return "wielding"
	case *Sneak:
		return "sneak"
	case *Climb:
		return "climb"
	case *Glide:
		return "glide"
	case *Roll:
		return "roll"
	case *ComboMelee:
		return "combo_melee"
	case *ChargedMelee:
		return "charged_melee"
	case *BasicRanged:
		return "basic_ranged"
	case *ShockwaveState:
		return "shockwave"
	case *BeamState:
		return "beam"
	case *Stunned:
		return "stunned"
	default:
		return "unknown"
	}
}
