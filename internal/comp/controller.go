package comp

import "github.com/emberwild/server/internal/vmath"

// ClimbKind is the continuous climb input.
type ClimbKind uint8

const (
	ClimbUp ClimbKind = iota
	ClimbDown
	ClimbHold
)

// ControlInputs are the continuous inputs, latest-wins. Handlers overwrite
// the whole struct each time a ControllerInputs message arrives.
type ControlInputs struct {
	MoveDir   vmath.Vec2
	LookDir   vmath.Vec3
	Jump      bool
	Sneak     bool
	Primary   bool
	Secondary bool
	Roll      bool
	Glide     bool
	Wield     bool
	Climb     *ClimbKind
}

// ControlEventKind is a discrete one-shot control event.
type ControlEventKind uint8

const (
	ControlRespawn ControlEventKind = iota
	ControlInteract
	ControlToggleWield
	ControlSwapLoadout
)

type ControlEvent struct {
	Kind   ControlEventKind
	Target Uid // Interact only
}

// ControlActionKind is a buffered tool-use press.
type ControlActionKind uint8

const (
	ActionPrimary ControlActionKind = iota
	ActionSecondary
	ActionRoll
)

// ControlAction records a rising edge on a tool-use input, so a press
// and release within one tick is not lost.
type ControlAction struct {
	Kind ControlActionKind
}

// Controller is the per-entity input channel: message handlers append,
// the character system drains at its tick boundary. Writes are serialized
// by the scheduler's write-lock on the Controller storage.
type Controller struct {
	Inputs  ControlInputs
	Events  []ControlEvent
	Actions []ControlAction
}

func (c *Controller) PushEvent(ev ControlEvent) {
	c.Events = append(c.Events, ev)
}

func (c *Controller) PushAction(a ControlAction) {
	c.Actions = append(c.Actions, a)
}

// DrainEvents returns the buffered one-shot events and clears the buffer.
func (c *Controller) DrainEvents() []ControlEvent {
	evs := c.Events
	c.Events = nil
	return evs
}

func (c *Controller) DrainActions() []ControlAction {
	as := c.Actions
	c.Actions = nil
	return as
}
