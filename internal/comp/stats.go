package comp

import "github.com/emberwild/server/internal/vmath"

// Uid is the durable cross-session identity, distinct from the transient
// ECS handle. It is the identity used on the wire and in chat.
type Uid uint64

// HealthSource tags the origin of a health change for attribution.
type HealthSource uint8

const (
	HealthSourceDamage HealthSource = iota
	HealthSourceFall
	HealthSourceEnergy
	HealthSourceExplosion
	HealthSourceProjectile
	HealthSourceBeam
	HealthSourceShockwave
	HealthSourceRevive
	HealthSourceCommand
	HealthSourceUnknown
)

// HealthChange records the most recent delta and its source.
type HealthChange struct {
	Amount int32
	By     *Uid
	Cause  HealthSource
}

// Health is a clamped scalar resource in tenths of a hit point.
type Health struct {
	Current    uint32
	Maximum    uint32
	LastChange HealthChange
	IsDead     bool
}

func NewHealth(max uint32) Health {
	return Health{Current: max, Maximum: max}
}

// Change applies a delta, clamping to [0, Maximum], and records the source.
// A change against a dead entity is a no-op.
func (h *Health) Change(c HealthChange) {
	if h.IsDead {
		return
	}
	n := int64(h.Current) + int64(c.Amount)
	if n < 0 {
		n = 0
	}
	if n > int64(h.Maximum) {
		n = int64(h.Maximum)
	}
	h.Current = uint32(n)
	h.LastChange = c
	if h.Current == 0 {
		h.IsDead = true
	}
}

// Revive restores the entity to the given fraction of maximum health.
func (h *Health) Revive(frac float64) {
	h.Current = uint32(float64(h.Maximum) * vmath.Clamp(frac, 0, 1))
	h.IsDead = false
}

// EnergySource tags the origin of an energy change.
type EnergySource uint8

const (
	EnergySourceAbility EnergySource = iota
	EnergySourceClimb
	EnergySourceRoll
	EnergySourceRegen
	EnergySourceRevive
)

type EnergyChange struct {
	Amount int32
	Source EnergySource
}

// Energy is the stamina pool consumed by abilities and climbing.
type Energy struct {
	Current    uint32
	Maximum    uint32
	Regen      float64
	LastChange EnergyChange
}

func NewEnergy(max uint32) Energy {
	return Energy{Current: max, Maximum: max, Regen: 10}
}

func (e *Energy) Change(c EnergyChange) {
	n := int64(e.Current) + int64(c.Amount)
	if n < 0 {
		n = 0
	}
	if n > int64(e.Maximum) {
		n = int64(e.Maximum)
	}
	e.Current = uint32(n)
	e.LastChange = c
}

// TryChange applies the change only if the full cost is available.
func (e *Energy) TryChange(c EnergyChange) bool {
	if c.Amount < 0 && uint32(-c.Amount) > e.Current {
		return false
	}
	e.Change(c)
	return true
}

// Poise is stagger resistance; depleting it stuns the entity.
type Poise struct {
	Current    uint32
	Maximum    uint32
	LastChange int32
}

func NewPoise(max uint32) Poise {
	return Poise{Current: max, Maximum: max}
}

func (p *Poise) Change(amount int32) {
	n := int64(p.Current) + int64(amount)
	if n < 0 {
		n = 0
	}
	if n > int64(p.Maximum) {
		n = int64(p.Maximum)
	}
	p.Current = uint32(n)
	p.LastChange = amount
}

func (p *Poise) IsBroken() bool { return p.Current == 0 }

// Stats carries identity and progression.
type Stats struct {
	Name  string
	Level uint32
	Exp   uint32
	Skills SkillSet
}

func NewStats(name string) Stats {
	return Stats{Name: name, Level: 1, Skills: NewSkillSet()}
}
