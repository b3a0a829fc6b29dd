package charstate

import (
	"github.com/emberwild/server/internal/core/event"
)

// ComboStage describes one stage of a melee combo.
type ComboStage struct {
	BaseDamage      uint32
	DamageIncrease  uint32
	Knockback       float64
	Range           float64
	Angle           float64
	BuildupDuration float64
	SwingDuration   float64
	RecoverDuration float64
	ForwardMovement float64
}

// ComboMeleeData is the static description of a full combo.
type ComboMeleeData struct {
	Stages     []ComboStage
	WasWielded bool
}

// ComboMelee is the staged melee attack. Each stage runs
// Buildup→Action→Recover; holding the input through Recover chains into
// the next stage, damage rising with the combo counter.
type ComboMelee struct {
	Static  ComboMeleeData
	Stage   uint32
	Combo   uint32
	Timer   float64
	Section StageSection
	hit     bool
}

func (*ComboMelee) isCharacterState() {}

func NewComboMelee(wasWielded bool) *ComboMelee {
	return &ComboMelee{
		Static: ComboMeleeData{
			Stages: []ComboStage{
				{BaseDamage: 90, DamageIncrease: 10, Knockback: 6, Range: 3.5, Angle: 50,
					BuildupDuration: 0.25, SwingDuration: 0.2, RecoverDuration: 0.3, ForwardMovement: 1.5},
				{BaseDamage: 130, DamageIncrease: 15, Knockback: 12, Range: 3.8, Angle: 30,
					BuildupDuration: 0.4, SwingDuration: 0.25, RecoverDuration: 0.4, ForwardMovement: 3},
			},
			WasWielded: wasWielded,
		},
	}
}

func (s *ComboMelee) stage() ComboStage {
	i := int(s.Stage)
	if i >= len(s.Static.Stages) {
		i = len(s.Static.Stages) - 1
	}
	return s.Static.Stages[i]
}

func (s *ComboMelee) Behavior(d *JoinData) StateUpdate {
	u := initUpdate(d, s)
	st := s.stage()
	handleOrientation(d, &u, 3)
	// Dodge cancel outside the swing itself. The roll remembers the
	// stage so a held input resumes the combo where it left off.
	if s.Section != StageAction {
		attemptRoll(d, &u, s.Static.WasWielded, &PrevAbility{Primary: true, Stage: s.Stage})
		if _, ok := u.Character.(*Roll); ok {
			return u
		}
	}
	switch s.Section {
	case StageBuildup:
		if timerAdvance(&s.Timer, d.DT, st.BuildupDuration) {
			s.Section = StageAction
			s.Timer = 0
			s.hit = false
		}
	case StageAction:
		// Lunge and land the hit once at swing start.
		if !s.hit {
			s.hit = true
			fwd := d.Ori.Q.Forward()
			u.Vel = u.Vel.Add(fwd.Scale(st.ForwardMovement))
			u.Server = append(u.Server, event.MeleeHit{
				Owner:     d.Entity,
				Pos:       d.Pos.P,
				Dir:       fwd,
				Range:     st.Range,
				Angle:     st.Angle,
				Damage:    st.BaseDamage + st.DamageIncrease*s.Combo,
				Knockback: st.Knockback,
			})
		}
		if timerAdvance(&s.Timer, d.DT, st.SwingDuration) {
			s.Section = StageRecover
			s.Timer = 0
		}
	case StageRecover:
		if timerAdvance(&s.Timer, d.DT, st.RecoverDuration) {
			if d.Inputs.Primary {
				// Chain to the next stage, wrapping at the end.
				s.Stage = (s.Stage + 1) % uint32(len(s.Static.Stages))
				s.Combo++
				s.Section = StageBuildup
				s.Timer = 0
				s.hit = false
				return u
			}
			u.Character = fallthroughState(s.Static.WasWielded, false)
		}
	}
	return u
}
