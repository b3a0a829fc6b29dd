package charstate

// PrevAbility remembers the combo input interrupted by a roll so the
// combo can resume at the same stage when the input is still held on
// recovery.
type PrevAbility struct {
	Primary bool
	Stage   uint32
}

// RollData is the static description of a dodge roll.
type RollData struct {
	BuildupDuration  float64
	MovementDuration float64
	RecoverDuration  float64
	Strength         float64
	ImmuneMelee      bool
	WasWielded       bool
	WasSneak         bool
}

// Roll is the three-section dodge: Buildup, Movement (with melee
// immunity), Recover.
type Roll struct {
	Static  RollData
	Timer   float64
	Section StageSection
	Prev    *PrevAbility
}

func (*Roll) isCharacterState() {}

// NewRollDodge is the secondary-ability roll used by blade tools.
func NewRollDodge() *Roll {
	return &Roll{
		Static: RollData{
			BuildupDuration:  0.05,
			MovementDuration: 0.28,
			RecoverDuration:  0.12,
			Strength:         30,
			ImmuneMelee:      true,
			WasWielded:       true,
		},
	}
}

// ForwardForce is the movement-section force at time t into a section of
// length total: decaying linearly from Strength to Strength/2.
func (s *Roll) ForwardForce(t, total float64) float64 {
	if total <= 0 {
		return s.Static.Strength
	}
	frac := t / total
	if frac > 1 {
		frac = 1
	}
	return s.Static.Strength * (0.5 + 0.5*(1-frac))
}

func (s *Roll) Behavior(d *JoinData) StateUpdate {
	u := initUpdate(d, s)
	switch s.Section {
	case StageBuildup:
		if timerAdvance(&s.Timer, d.DT, s.Static.BuildupDuration) {
			s.Section = StageAction
			s.Timer = 0
		}
	case StageAction:
		force := s.ForwardForce(s.Timer, s.Static.MovementDuration)
		fwd := d.Ori.Q.Forward()
		u.Vel = u.Vel.Add(fwd.Scale(force * d.DT))
		if timerAdvance(&s.Timer, d.DT, s.Static.MovementDuration) {
			s.Section = StageRecover
			s.Timer = 0
		}
	case StageRecover:
		if timerAdvance(&s.Timer, d.DT, s.Static.RecoverDuration) {
			// Chain back into the interrupted combo when the input is
			// still held.
			if s.Prev != nil && ((s.Prev.Primary && d.Inputs.Primary) || (!s.Prev.Primary && d.Inputs.Secondary)) {
				cm := NewComboMelee(s.Static.WasWielded)
				cm.Stage = s.Prev.Stage
				u.Character = cm
				return u
			}
			u.Character = fallthroughState(s.Static.WasWielded, s.Static.WasSneak)
		}
	}
	return u
}
