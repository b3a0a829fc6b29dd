package charstate

import (
	"github.com/emberwild/server/internal/comp"
	"github.com/emberwild/server/internal/core/event"
)

// ShockwaveData is the static description of a ground slam.
type ShockwaveData struct {
	BuildupDuration float64
	RecoverDuration float64
	Damage          uint32
	Knockback       float64
	Speed           float64
	Duration        float64
	EnergyCost      int32
	WasWielded      bool
}

// ShockwaveState winds up and releases an expanding wave, resolved by the
// apply phase over its lifetime.
type ShockwaveState struct {
	Static   ShockwaveData
	Timer    float64
	Section  StageSection
	released bool
}

func (*ShockwaveState) isCharacterState() {}

func NewShockwave() *ShockwaveState {
	return &ShockwaveState{
		Static: ShockwaveData{
			BuildupDuration: 0.6,
			RecoverDuration: 0.5,
			Damage:          100,
			Knockback:       20,
			Speed:           15,
			Duration:        1.0,
			EnergyCost:      30,
			WasWielded:      true,
		},
	}
}

func (s *ShockwaveState) Behavior(d *JoinData) StateUpdate {
	u := initUpdate(d, s)
	switch s.Section {
	case StageBuildup:
		if timerAdvance(&s.Timer, d.DT, s.Static.BuildupDuration) {
			s.Section = StageAction
			s.Timer = 0
		}
	case StageAction:
		if !s.released {
			s.released = true
			if d.Energy.Current >= uint32(s.Static.EnergyCost) {
				u.Energy = append(u.Energy, comp.EnergyChange{Amount: -s.Static.EnergyCost, Source: comp.EnergySourceAbility})
				u.Server = append(u.Server, event.Shockwave{
					Owner:     d.Entity,
					Pos:       d.Pos.P,
					Dir:       d.Ori.Q.Forward(),
					Speed:     s.Static.Speed,
					Duration:  s.Static.Duration,
					Damage:    s.Static.Damage,
					Knockback: s.Static.Knockback,
				})
			}
		}
		s.Section = StageRecover
		s.Timer = 0
	case StageRecover:
		if timerAdvance(&s.Timer, d.DT, s.Static.RecoverDuration) {
			u.Character = fallthroughState(s.Static.WasWielded, false)
		}
	}
	return u
}
