package charstate

import (
	"math/rand"
	"testing"

	"github.com/emberwild/server/internal/comp"
	"github.com/emberwild/server/internal/vmath"
)

// successors lists the reachable one-tick transitions per variant.
var successors = map[string]map[string]bool{
	"idle": {"idle": true, "wielding": true, "sneak": true, "glide": true,
		"climb": true, "roll": true},
	"wielding": {"wielding": true, "idle": true, "climb": true, "roll": true,
		"combo_melee": true, "charged_melee": true, "basic_ranged": true,
		"shockwave": true, "beam": true},
	"sneak":         {"sneak": true, "idle": true},
	"climb":         {"climb": true, "idle": true},
	"glide":         {"glide": true, "idle": true},
	"roll":          {"roll": true, "idle": true, "wielding": true, "sneak": true, "combo_melee": true},
	"combo_melee":   {"combo_melee": true, "idle": true, "wielding": true, "roll": true},
	"charged_melee": {"charged_melee": true, "idle": true, "wielding": true},
	"basic_ranged":  {"basic_ranged": true, "idle": true, "wielding": true},
	"shockwave":     {"shockwave": true, "idle": true, "wielding": true},
	"beam":          {"beam": true, "idle": true, "wielding": true},
	"stunned":       {"stunned": true, "idle": true, "wielding": true},
}

func randomInputs(rng *rand.Rand) comp.ControlInputs {
	in := comp.ControlInputs{
		MoveDir:   vmath.Vec2{X: rng.Float64()*2 - 1, Y: rng.Float64()*2 - 1},
		LookDir:   vmath.Vec3{X: rng.Float64()*2 - 1, Y: rng.Float64()*2 - 1},
		Jump:      rng.Intn(4) == 0,
		Sneak:     rng.Intn(4) == 0,
		Primary:   rng.Intn(3) == 0,
		Secondary: rng.Intn(4) == 0,
		Roll:      rng.Intn(5) == 0,
		Glide:     rng.Intn(5) == 0,
		Wield:     rng.Intn(2) == 0,
	}
	if rng.Intn(3) == 0 {
		k := comp.ClimbKind(rng.Intn(3))
		in.Climb = &k
	}
	return in
}

func freshState(name string) CharacterState {
	switch name {
	case "idle":
		return &Idle{}
	case "wielding":
		return &Wielding{}
	case "sneak":
		return &Sneak{}
	case "climb":
		return &Climb{}
	case "glide":
		return &Glide{}
	case "roll":
		return rollUnderTest()
	case "combo_melee":
		return NewComboMelee(true)
	case "charged_melee":
		return NewChargedMelee()
	case "basic_ranged":
		return NewBasicRanged()
	case "shockwave":
		return NewShockwave()
	case "beam":
		return NewBeam()
	case "stunned":
		return &Stunned{RecoverDuration: 0.5, WasWielded: true}
	default:
		panic("unknown state " + name)
	}
}

// Property: after one tick the resulting state is a reachable successor
// and its stage section is a valid one.
func TestTransitionsAreReachableSuccessors(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	wall := vmath.Vec3{X: 1}
	tool := &comp.Item{ID: "sword", Kind: comp.ItemTool, Tool: comp.ToolSword}

	for name, allowed := range successors {
		for trial := 0; trial < 200; trial++ {
			d := testJoinData(t)
			in := randomInputs(rng)
			d.Inputs = &in
			d.Physics.OnGround = rng.Intn(2) == 0
			if rng.Intn(2) == 0 {
				d.Physics.OnWall = &wall
			}
			if rng.Intn(2) == 0 {
				d.Loadout.Equip(comp.SlotMainhand, tool)
			} else {
				d.Loadout.Equip(comp.SlotMainhand, nil)
			}
			d.Energy.Current = uint32(rng.Intn(101))
			d.DT = []float64{1.0 / 30, 0.1, 0.5}[rng.Intn(3)]

			s := freshState(name)
			u := s.Behavior(d)
			got := Name(u.Character)
			if !allowed[got] {
				t.Fatalf("%s transitioned to %s, not a reachable successor", name, got)
			}
			switch next := u.Character.(type) {
			case *Roll:
				if next.Section > StageRecover {
					t.Fatalf("roll in impossible section %d", next.Section)
				}
			case *ComboMelee:
				if next.Section > StageRecover {
					t.Fatalf("combo in impossible section %d", next.Section)
				}
				if int(next.Stage) >= len(next.Static.Stages) {
					t.Fatalf("combo in impossible stage %d", next.Stage)
				}
			}
		}
	}
}

func TestStunnedFallsThrough(t *testing.T) {
	s := &Stunned{RecoverDuration: 0.1, WasWielded: true}
	d := testJoinData(t)
	d.DT = 0.2
	u := s.Behavior(d)
	if _, ok := u.Character.(*Wielding); !ok {
		t.Fatalf("stunned with wielded context should recover to Wielding, got %s", Name(u.Character))
	}
}

func TestWieldingEntersToolAbility(t *testing.T) {
	cases := []struct {
		tool comp.ToolKind
		want string
	}{
		{comp.ToolSword, "combo_melee"},
		{comp.ToolHammer, "charged_melee"},
		{comp.ToolBow, "basic_ranged"},
		{comp.ToolStaff, "beam"},
	}
	for _, c := range cases {
		d := testJoinData(t)
		d.Inputs.Wield = true
		d.Inputs.Primary = true
		d.Loadout.Equip(comp.SlotMainhand, &comp.Item{ID: "t", Kind: comp.ItemTool, Tool: c.tool})
		u := (&Wielding{}).Behavior(d)
		if got := Name(u.Character); got != c.want {
			t.Errorf("primary with %v: entered %s, want %s", c.tool, got, c.want)
		}
	}
}
