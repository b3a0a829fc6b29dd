package comp

import "github.com/emberwild/server/internal/vmath"

// Pos, Vel, Ori form the movable bundle: an entity has all three or none.

type Pos struct {
	P vmath.Vec3
}

type Vel struct {
	V vmath.Vec3
}

type Ori struct {
	Q vmath.Quat
}

// PhysicsState is the transient per-tick snapshot attached to the join view
// passed to character states. Written by physics, read-only elsewhere.
type PhysicsState struct {
	OnGround bool
	// OnWall holds the wall-facing direction when touching a wall.
	OnWall  *vmath.Vec3
	InFluid bool
}

// ForceUpdate, while present, tells handlers to reject client-authoritative
// position updates until the client acknowledges the server position.
type ForceUpdate struct {
	Counter uint32
}

// Waypoint is the respawn anchor persisted with the character.
type Waypoint struct {
	Pos vmath.Vec3
}
