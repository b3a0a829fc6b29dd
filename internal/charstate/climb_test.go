package charstate

import (
	"testing"

	"github.com/emberwild/server/internal/comp"
	"github.com/emberwild/server/internal/core/ecs"
	"github.com/emberwild/server/internal/core/event"
	"github.com/emberwild/server/internal/vmath"
)

func testJoinData(t *testing.T) *JoinData {
	t.Helper()
	energy := comp.NewEnergy(100)
	stats := comp.NewStats("tester")
	body := comp.HumanoidBody(0)
	loadout := &comp.Loadout{}
	return &JoinData{
		Entity:  ecs.Entity(1),
		DT:      1.0 / 30,
		Physics: &comp.PhysicsState{},
		Inputs:  &comp.ControlInputs{},
		Energy:  &energy,
		Stats:   &stats,
		Body:    &body,
		Loadout: loadout,
		Pos:     &comp.Pos{},
		Vel:     &comp.Vel{},
		Ori:     &comp.Ori{Q: vmath.QuatIdentity()},
	}
}

func climbInput(k comp.ClimbKind) *comp.ClimbKind { return &k }

func TestClimbMantle(t *testing.T) {
	d := testJoinData(t)
	wall := vmath.Vec3{X: 1}
	d.Physics.OnWall = &wall
	d.Physics.OnGround = false
	d.Inputs.Climb = climbInput(comp.ClimbHold)
	d.Inputs.Jump = true

	u := (&Climb{}).Behavior(d)
	if _, ok := u.Character.(*Idle); !ok {
		t.Fatalf("jump during climb should exit to Idle, got %s", Name(u.Character))
	}
	if len(u.Local) != 1 {
		t.Fatalf("expected one local event, got %d", len(u.Local))
	}
	j, ok := u.Local[0].(event.Jump)
	if !ok {
		t.Fatalf("expected Jump event, got %T", u.Local[0])
	}
	if j.Impulse != BaseJumpImpulse/2 {
		t.Fatalf("mantle impulse = %v, want %v", j.Impulse, BaseJumpImpulse/2)
	}
	if j.Entity != d.Entity {
		t.Fatalf("jump attributed to %v, want %v", j.Entity, d.Entity)
	}
}

func TestClimbExhaustion(t *testing.T) {
	d := testJoinData(t)
	wall := vmath.Vec3{X: 1}
	d.Physics.OnWall = &wall
	d.Inputs.Climb = climbInput(comp.ClimbUp)
	d.Energy.Current = 4 // below the Up cost of 5

	u := (&Climb{}).Behavior(d)
	if len(u.Energy) != 1 || u.Energy[0].Amount != -ClimbCostUp {
		t.Fatalf("expected energy change of -%d, got %v", ClimbCostUp, u.Energy)
	}
	if _, ok := u.Character.(*Idle); !ok {
		t.Fatalf("exhausted climber should drop to Idle, got %s", Name(u.Character))
	}
}

func TestClimbEnergyCosts(t *testing.T) {
	costs := map[comp.ClimbKind]int32{
		comp.ClimbUp:   ClimbCostUp,
		comp.ClimbDown: ClimbCostDown,
		comp.ClimbHold: ClimbCostHold,
	}
	for kind, want := range costs {
		d := testJoinData(t)
		wall := vmath.Vec3{X: 1}
		d.Physics.OnWall = &wall
		d.Inputs.Climb = climbInput(kind)
		u := (&Climb{}).Behavior(d)
		if len(u.Energy) != 1 || u.Energy[0].Amount != -want {
			t.Errorf("climb kind %d: energy change %v, want -%d", kind, u.Energy, want)
		}
		if u.Energy[0].Source != comp.EnergySourceClimb {
			t.Errorf("climb kind %d: wrong energy source %v", kind, u.Energy[0].Source)
		}
	}
}

func TestClimbVerticalAcceleration(t *testing.T) {
	cases := []struct {
		kind comp.ClimbKind
		// net acceleration after physics subtracts gravity
		wantNet float64
	}{
		{comp.ClimbUp, ClimbAccel},
		{comp.ClimbDown, -ClimbAccel},
		{comp.ClimbHold, 0},
	}
	for _, c := range cases {
		d := testJoinData(t)
		wall := vmath.Vec3{X: 1}
		d.Physics.OnWall = &wall
		d.Inputs.Climb = climbInput(c.kind)
		u := (&Climb{}).Behavior(d)
		// The state adds gravity back; physics will subtract it.
		net := u.Vel.Z - Gravity*d.DT
		want := c.wantNet * d.DT
		if diff := net - want; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("climb kind %d: net vertical accel %v, want %v", c.kind, net, want)
		}
	}
}

// Exit is total: from any input combination Climb either persists
// (wall && climb && !ground && !jump) or transitions to Idle.
func TestClimbExitTotality(t *testing.T) {
	wall := vmath.Vec3{X: 1}
	for _, hasWall := range []bool{false, true} {
		for _, hasClimb := range []bool{false, true} {
			for _, onGround := range []bool{false, true} {
				for _, jump := range []bool{false, true} {
					d := testJoinData(t)
					if hasWall {
						d.Physics.OnWall = &wall
					}
					if hasClimb {
						d.Inputs.Climb = climbInput(comp.ClimbHold)
					}
					d.Physics.OnGround = onGround
					d.Inputs.Jump = jump

					u := (&Climb{}).Behavior(d)
					persist := hasWall && hasClimb && !onGround && !jump
					if persist {
						if _, ok := u.Character.(*Climb); !ok {
							t.Errorf("wall=%v climb=%v ground=%v jump=%v: expected Climb, got %s",
								hasWall, hasClimb, onGround, jump, Name(u.Character))
						}
					} else {
						if _, ok := u.Character.(*Idle); !ok {
							t.Errorf("wall=%v climb=%v ground=%v jump=%v: expected Idle, got %s",
								hasWall, hasClimb, onGround, jump, Name(u.Character))
						}
					}
				}
			}
		}
	}
}
