package comp

// BodyKind is the coarse species class of an entity's body. It drives
// collider size, RtSim travel preferences, and client-side model choice.
type BodyKind uint8

const (
	BodyHumanoid BodyKind = iota
	BodyQuadruped
	BodyBird
	BodyShip
	BodyAirship
	BodyObject
)

func (k BodyKind) String() string {
	switch k {
	case BodyHumanoid:
		return "humanoid"
	case BodyQuadruped:
		return "quadruped"
	case BodyBird:
		return "bird"
	case BodyShip:
		return "ship"
	case BodyAirship:
		return "airship"
	case BodyObject:
		return "object"
	default:
		return "unknown"
	}
}

// Body is the physical body component: species class plus the collider
// dimensions used by the spatial grid and physics.
type Body struct {
	Kind    BodyKind
	Species uint32
	Radius  float64
	Height  float64
}

func HumanoidBody(species uint32) Body {
	return Body{Kind: BodyHumanoid, Species: species, Radius: 0.4, Height: 1.75}
}
