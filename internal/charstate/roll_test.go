package charstate

import (
	"math"
	"testing"
)

func rollUnderTest() *Roll {
	return &Roll{
		Static: RollData{
			BuildupDuration:  0.1,
			MovementDuration: 0.3,
			RecoverDuration:  0.2,
			Strength:         5.0,
		},
	}
}

func TestRollSectionTiming(t *testing.T) {
	r := rollUnderTest()
	d := testJoinData(t)
	d.DT = 0.05

	// Two 0.05s ticks complete the 0.1s buildup.
	r.Behavior(d)
	if r.Section != StageBuildup {
		t.Fatalf("after 0.05s section = %v, want buildup", r.Section)
	}
	r.Behavior(d)
	if r.Section != StageAction {
		t.Fatalf("after 0.1s section = %v, want movement", r.Section)
	}
	if r.Timer != 0 {
		t.Fatalf("timer must reset on section transition, got %v", r.Timer)
	}

	// 0.3s of movement.
	for i := 0; i < 6; i++ {
		r.Behavior(d)
	}
	if r.Section != StageRecover {
		t.Fatalf("after movement duration section = %v, want recover", r.Section)
	}

	// 0.2s of recover falls through to Idle.
	var last StateUpdate
	for i := 0; i < 4; i++ {
		last = r.Behavior(d)
	}
	if _, ok := last.Character.(*Idle); !ok {
		t.Fatalf("completed roll should fall through to Idle, got %s", Name(last.Character))
	}
}

func TestRollForwardForceDecay(t *testing.T) {
	r := rollUnderTest()
	const total = 0.3
	if got := r.ForwardForce(0, total); got != 5.0 {
		t.Fatalf("force at t=0 is %v, want 5.0", got)
	}
	if got := r.ForwardForce(total, total); math.Abs(got-2.5) > 1e-9 {
		t.Fatalf("force at t=T is %v, want 2.5", got)
	}
	if got := r.ForwardForce(total/2, total); math.Abs(got-3.75) > 1e-9 {
		t.Fatalf("force at t=T/2 is %v, want 3.75", got)
	}
}

func TestRollFallthroughRespectsContext(t *testing.T) {
	cases := []struct {
		wielded, sneak bool
		want           string
	}{
		{true, false, "wielding"},
		{false, true, "sneak"},
		{false, false, "idle"},
		{true, true, "wielding"}, // wielded wins
	}
	for _, c := range cases {
		got := Name(fallthroughState(c.wielded, c.sneak))
		if got != c.want {
			t.Errorf("fallthrough(wielded=%v sneak=%v) = %s, want %s", c.wielded, c.sneak, got, c.want)
		}
	}
}

func TestRollChainsBackIntoCombo(t *testing.T) {
	r := rollUnderTest()
	r.Section = StageRecover
	r.Prev = &PrevAbility{Primary: true, Stage: 1}
	d := testJoinData(t)
	d.DT = 0.25 // finishes the 0.2s recover in one tick
	d.Inputs.Primary = true

	u := r.Behavior(d)
	cm, ok := u.Character.(*ComboMelee)
	if !ok {
		t.Fatalf("roll with held combo input should re-enter ComboMelee, got %s", Name(u.Character))
	}
	if cm.Stage != 1 {
		t.Fatalf("combo should resume at stage 1, got %d", cm.Stage)
	}
}

func TestComboOffersRollCancel(t *testing.T) {
	cm := NewComboMelee(true)
	cm.Stage = 1
	d := testJoinData(t)
	d.Physics.OnGround = true
	d.Inputs.Roll = true

	// Buildup: the dodge cancels out, remembering the stage.
	u := cm.Behavior(d)
	r, ok := u.Character.(*Roll)
	if !ok {
		t.Fatalf("roll input during buildup produced %s, want roll", Name(u.Character))
	}
	if r.Prev == nil || !r.Prev.Primary || r.Prev.Stage != 1 {
		t.Fatalf("roll context = %+v, want primary at stage 1", r.Prev)
	}
	if !r.Static.WasWielded {
		t.Fatal("combo roll lost the wielded context")
	}

	// Mid-swing the attack is committed.
	cm = NewComboMelee(true)
	cm.Section = StageAction
	u = cm.Behavior(d)
	if _, ok := u.Character.(*Roll); ok {
		t.Fatal("roll input cancelled the swing section")
	}

	// Recover cancels again.
	cm = NewComboMelee(true)
	cm.Section = StageRecover
	u = cm.Behavior(d)
	if _, ok := u.Character.(*Roll); !ok {
		t.Fatalf("roll input during recover produced %s, want roll", Name(u.Character))
	}
}

func TestRollMeleeImmunityWindow(t *testing.T) {
	r := rollUnderTest()
	r.Static.ImmuneMelee = true
	if MeleeImmune(r) {
		t.Fatal("buildup section should not be melee immune")
	}
	r.Section = StageAction
	if !MeleeImmune(r) {
		t.Fatal("movement section should be melee immune")
	}
	r.Section = StageRecover
	if MeleeImmune(r) {
		t.Fatal("recover section should not be melee immune")
	}
}
