package event

import (
	"github.com/emberwild/server/internal/comp"
	"github.com/emberwild/server/internal/core/ecs"
	"github.com/emberwild/server/internal/vmath"
)

// LocalEvent is the intra-tick family, applied before physics runs.
// Sealed: the set of variants is closed so appliers can switch exhaustively.
type LocalEvent interface{ isLocalEvent() }

type Jump struct {
	Entity  ecs.Entity
	Impulse float64
}

type Boost struct {
	Entity ecs.Entity
	Dir    vmath.Vec3
	Power  float64
}

type ApplyImpulse struct {
	Entity  ecs.Entity
	Impulse vmath.Vec3
}

func (Jump) isLocalEvent()         {}
func (Boost) isLocalEvent()        {}
func (ApplyImpulse) isLocalEvent() {}

// ServerEvent is the post-physics authoritative family, drained serially
// by the apply phase. Every variant referencing an entity must tolerate
// that entity being gone by apply time.
type ServerEvent interface{ isServerEvent() }

// Combat.

type Damage struct {
	Target ecs.Entity
	Amount uint32
	By     *comp.Uid
	Cause  comp.HealthSource
}

type PoiseChange struct {
	Target ecs.Entity
	Amount int32
}

type Knockback struct {
	Target  ecs.Entity
	Impulse vmath.Vec3
}

type Explosion struct {
	Pos    vmath.Vec3
	Power  uint32
	Radius float64
	Owner  *comp.Uid
}

type Shockwave struct {
	Owner     ecs.Entity
	Pos       vmath.Vec3
	Dir       vmath.Vec3
	Speed     float64
	Duration  float64
	Damage    uint32
	Knockback float64
}

type BeamSegment struct {
	Owner  ecs.Entity
	Pos    vmath.Vec3
	Dir    vmath.Vec3
	Range  float64
	Damage uint32
}

// MeleeHit is resolved against the spatial grid at apply time: every
// entity inside the arc takes the damage and knockback.
type MeleeHit struct {
	Owner     ecs.Entity
	Pos       vmath.Vec3
	Dir       vmath.Vec3
	Range     float64
	Angle     float64
	Damage    uint32
	Knockback float64
}

type ShootProjectile struct {
	Owner  ecs.Entity
	Pos    vmath.Vec3
	Dir    vmath.Vec3
	Speed  float64
	Damage uint32
}

// Lifecycle.

type CreateNpc struct {
	Pos     vmath.Vec3
	Body    comp.Body
	Stats   comp.Stats
	Health  comp.Health
	Loadout comp.Loadout
	RtSimID uint64 // nonzero when promoted from RtSim
}

// Destroy marks death: drops inventory, records the kill, schedules Delete.
type Destroy struct {
	Entity ecs.Entity
	Cause  comp.HealthSource
}

// Delete removes the entity from the world at the end of the apply phase.
type Delete struct {
	Entity ecs.Entity
}

type Respawn struct {
	Entity ecs.Entity
}

type ClientDisconnect struct {
	Entity ecs.Entity
}

// Persistence.

type InitCharacterData struct {
	Entity      ecs.Entity
	CharacterID int64
}

type UpdateCharacterData struct {
	Entity ecs.Entity
}

// Social.

type Chat struct {
	From *comp.Uid // nil for server broadcasts
	Msg  string
}

type ChatCmd struct {
	Entity ecs.Entity
	Cmd    string
	Args   []string
}

type RequestSiteInfo struct {
	Entity ecs.Entity
	SiteID uint64
}

// Possess swaps client ownership between two Uids.
type Possess struct {
	Possessor comp.Uid
	Possessee comp.Uid
}

type InventoryManipKind uint8

const (
	ManipPickup InventoryManipKind = iota
	ManipDrop
	ManipUse
	ManipSwap
)

type InventoryManip struct {
	Entity ecs.Entity
	Kind   InventoryManipKind
	Slot   int
	Other  int // ManipSwap only
	Item   *comp.Item
}

func (Damage) isServerEvent()              {}
func (PoiseChange) isServerEvent()         {}
func (Knockback) isServerEvent()           {}
func (Explosion) isServerEvent()           {}
func (Shockwave) isServerEvent()           {}
func (BeamSegment) isServerEvent()         {}
func (MeleeHit) isServerEvent()            {}
func (ShootProjectile) isServerEvent()     {}
func (CreateNpc) isServerEvent()           {}
func (Destroy) isServerEvent()             {}
func (Delete) isServerEvent()              {}
func (Respawn) isServerEvent()             {}
func (ClientDisconnect) isServerEvent()    {}
func (InitCharacterData) isServerEvent()   {}
func (UpdateCharacterData) isServerEvent() {}
func (Chat) isServerEvent()                {}
func (ChatCmd) isServerEvent()             {}
func (RequestSiteInfo) isServerEvent()     {}
func (Possess) isServerEvent()             {}
func (InventoryManip) isServerEvent()      {}
