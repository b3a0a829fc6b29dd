package charstate

import (
	"github.com/emberwild/server/internal/comp"
	"github.com/emberwild/server/internal/core/event"
)

// BasicRangedData is the static description of a projectile shot.
type BasicRangedData struct {
	BuildupDuration float64
	RecoverDuration float64
	ProjectileSpeed float64
	Damage          uint32
	EnergyCost      int32
	WasWielded      bool
}

// BasicRanged draws, releases one projectile, and recovers.
type BasicRanged struct {
	Static  BasicRangedData
	Timer   float64
	Section StageSection
	fired   bool
}

func (*BasicRanged) isCharacterState() {}

func NewBasicRanged() *BasicRanged {
	return &BasicRanged{
		Static: BasicRangedData{
			BuildupDuration: 0.35,
			RecoverDuration: 0.4,
			ProjectileSpeed: 60,
			Damage:          70,
			EnergyCost:      5,
			WasWielded:      true,
		},
	}
}

func (s *BasicRanged) Behavior(d *JoinData) StateUpdate {
	u := initUpdate(d, s)
	handleOrientation(d, &u, 4)
	switch s.Section {
	case StageBuildup:
		if timerAdvance(&s.Timer, d.DT, s.Static.BuildupDuration) {
			s.Section = StageAction
			s.Timer = 0
		}
	case StageAction:
		if !s.fired {
			s.fired = true
			if d.Energy.Current < uint32(s.Static.EnergyCost) {
				// Not enough energy to loose the shot; abort to recover.
				s.Section = StageRecover
				s.Timer = 0
				break
			}
			u.Energy = append(u.Energy, comp.EnergyChange{Amount: -s.Static.EnergyCost, Source: comp.EnergySourceAbility})
			dir := d.Inputs.LookDir
			if dir.IsZero() {
				dir = d.Ori.Q.Forward()
			}
			u.Server = append(u.Server, event.ShootProjectile{
				Owner:  d.Entity,
				Pos:    d.Pos.P,
				Dir:    dir.Normalized(),
				Speed:  s.Static.ProjectileSpeed,
				Damage: s.Static.Damage,
			})
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
