package charstate

import (
	"github.com/emberwild/server/internal/comp"
	"github.com/emberwild/server/internal/core/event"
)

// BeamData is the static description of a sustained beam.
type BeamData struct {
	BuildupDuration float64
	RecoverDuration float64
	DrainPerTick    int32
	Damage          uint32
	Range           float64
	WasWielded      bool
}

// BeamState channels a continuous beam while the input is held and energy
// lasts, emitting one segment event per tick.
type BeamState struct {
	Static  BeamData
	Timer   float64
	Section StageSection
}

func (*BeamState) isCharacterState() {}

func NewBeam() *BeamState {
	return &BeamState{
		Static: BeamData{
			BuildupDuration: 0.25,
			RecoverDuration: 0.25,
			DrainPerTick:    2,
			Damage:          12,
			Range:           18,
			WasWielded:      true,
		},
	}
}

func (s *BeamState) Behavior(d *JoinData) StateUpdate {
	u := initUpdate(d, s)
	handleOrientation(d, &u, 6)
	switch s.Section {
	case StageBuildup:
		if timerAdvance(&s.Timer, d.DT, s.Static.BuildupDuration) {
			s.Section = StageAction
			s.Timer = 0
		}
	case StageAction:
		if !d.Inputs.Primary || d.Energy.Current < uint32(s.Static.DrainPerTick) {
			s.Section = StageRecover
			s.Timer = 0
			break
		}
		u.Energy = append(u.Energy, comp.EnergyChange{Amount: -s.Static.DrainPerTick, Source: comp.EnergySourceAbility})
		dir := d.Inputs.LookDir
		if dir.IsZero() {
			dir = d.Ori.Q.Forward()
		}
		u.Server = append(u.Server, event.BeamSegment{
			Owner:  d.Entity,
			Pos:    d.Pos.P,
			Dir:    dir.Normalized(),
			Range:  s.Static.Range,
			Damage: s.Static.Damage,
		})
	case StageRecover:
		if timerAdvance(&s.Timer, d.DT, s.Static.RecoverDuration) {
			u.Character = fallthroughState(s.Static.WasWielded, false)
		}
	}
	return u
}
