package charstate

// Idle is the resting default: free movement, and the entry point into
// every other state.
type Idle struct{}

func (*Idle) isCharacterState() {}

func (s *Idle) Behavior(d *JoinData) StateUpdate {
	u := initUpdate(d, s)
	handleMove(d, &u, 1.0)
	handleJump(d, &u)
	attemptWield(d, &u)
	attemptSneak(d, &u)
	attemptGlide(d, &u)
	attemptClimb(d, &u)
	attemptRoll(d, &u, false, nil)
	return u
}

// Wielding has the tool out: movement plus the combat entries.
type Wielding struct{}

func (*Wielding) isCharacterState() {}

func (s *Wielding) Behavior(d *JoinData) StateUpdate {
	u := initUpdate(d, s)
	handleMove(d, &u, 1.0)
	handleJump(d, &u)
	attemptClimb(d, &u)
	attemptRoll(d, &u, true, nil)
	if !d.Inputs.Wield {
		u.Character = &Idle{}
	}
	// Ability entries take precedence over unwield.
	attemptPrimary(d, &u)
	attemptSecondary(d, &u)
	return u
}

// Sneak moves at reduced speed; any air time or released input ends it.
type Sneak struct{}

func (*Sneak) isCharacterState() {}

func (s *Sneak) Behavior(d *JoinData) StateUpdate {
	u := initUpdate(d, s)
	handleMove(d, &u, SneakSpeedMul)
	if d.Inputs.Jump && d.Physics.OnGround {
		handleJump(d, &u)
		u.Character = &Idle{}
		return u
	}
	if !d.Inputs.Sneak || !d.Physics.OnGround {
		u.Character = &Idle{}
	}
	return u
}

// Glide trades altitude for lift: gravity is mostly cancelled while the
// input is held and the character is airborne.
type Glide struct{}

func (*Glide) isCharacterState() {}

func (s *Glide) Behavior(d *JoinData) StateUpdate {
	u := initUpdate(d, s)
	if d.Physics.OnGround || d.Physics.InFluid || !d.Inputs.Glide {
		u.Character = &Idle{}
		return u
	}
	// Antigravity proportional to forward speed, capped below full gravity
	// so a glider always descends.
	u.Vel.Z += GlideAntigrav * d.DT
	dir := d.Inputs.MoveDir.ClampMagnitude(1)
	u.Vel = u.Vel.Add(dir.Scale(GlideAccel * d.DT).WithZ(0))
	planar := u.Vel.XY()
	if planar.Magnitude() > MaxGlideSpeed {
		capped := planar.Normalized().Scale(MaxGlideSpeed)
		u.Vel.X, u.Vel.Y = capped.X, capped.Y
	}
	handleOrientation(d, &u, 2)
	return u
}

// Stunned is the poise-break state: no control until the timer runs out.
type Stunned struct {
	RecoverDuration float64
	Timer           float64
	WasWielded      bool
}

func (*Stunned) isCharacterState() {}

func (s *Stunned) Behavior(d *JoinData) StateUpdate {
	u := initUpdate(d, s)
	if timerAdvance(&s.Timer, d.DT, s.RecoverDuration) {
		u.Character = fallthroughState(s.WasWielded, false)
	}
	return u
}
