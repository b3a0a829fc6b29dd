package charstate

import (
	"github.com/emberwild/server/internal/comp"
	"github.com/emberwild/server/internal/core/event"
)

// ChargedMeleeData is the static description of a charged strike.
type ChargedMeleeData struct {
	EnergyDrain     int32 // per tick while charging
	MaxChargeTime   float64
	SwingDuration   float64
	RecoverDuration float64
	BaseDamage      uint32
	ScaledDamage    uint32 // added at full charge
	Range           float64
	Angle           float64
	Knockback       float64
	WasWielded      bool
}

// ChargedMelee charges while the input is held, then swings with damage
// scaled by the charge fraction.
type ChargedMelee struct {
	Static  ChargedMeleeData
	Timer   float64
	Section StageSection
	Charge  float64 // 0..1
	hit     bool
}

func (*ChargedMelee) isCharacterState() {}

func NewChargedMelee() *ChargedMelee {
	return &ChargedMelee{
		Static: ChargedMeleeData{
			EnergyDrain:     1,
			MaxChargeTime:   1.2,
			SwingDuration:   0.3,
			RecoverDuration: 0.5,
			BaseDamage:      120,
			ScaledDamage:    160,
			Range:           4.0,
			Angle:           60,
			Knockback:       18,
			WasWielded:      true,
		},
	}
}

func (s *ChargedMelee) Behavior(d *JoinData) StateUpdate {
	u := initUpdate(d, s)
	handleOrientation(d, &u, 2)
	switch s.Section {
	case StageBuildup:
		// Charge while held; release or a full bar starts the swing.
		holding := d.Inputs.Primary
		if holding && d.Energy.Current >= uint32(s.Static.EnergyDrain) {
			u.Energy = append(u.Energy, comp.EnergyChange{Amount: -s.Static.EnergyDrain, Source: comp.EnergySourceAbility})
			s.Timer += d.DT
			s.Charge = s.Timer / s.Static.MaxChargeTime
			if s.Charge > 1 {
				s.Charge = 1
			}
		}
		if !holding || s.Charge >= 1 {
			s.Section = StageAction
			s.Timer = 0
		}
	case StageAction:
		if !s.hit {
			s.hit = true
			u.Server = append(u.Server, event.MeleeHit{
				Owner:     d.Entity,
				Pos:       d.Pos.P,
				Dir:       d.Ori.Q.Forward(),
				Range:     s.Static.Range,
				Angle:     s.Static.Angle,
				Damage:    s.Static.BaseDamage + uint32(float64(s.Static.ScaledDamage)*s.Charge),
				Knockback: s.Static.Knockback * (0.5 + 0.5*s.Charge),
			})
		}
		if timerAdvance(&s.Timer, d.DT, s.Static.SwingDuration) {
			s.Section = StageRecover
			s.Timer = 0
		}
	case StageRecover:
		if timerAdvance(&s.Timer, d.DT, s.Static.RecoverDuration) {
			u.Character = fallthroughState(s.Static.WasWielded, false)
		}
	}
	return u
}
