package system

import "time"

// Phase defines execution ordering within a single tick. Phases are global
// barriers: everything in phase N finishes before phase N+1 starts.
type Phase int

const (
	PhaseInput      Phase = iota // 0: drain client messages, run handlers
	PhaseLocalApply              // 1: apply intra-tick local events
	PhaseSpatial                 // 2: rebuild the spatial grid
	PhaseCharacter               // 3: character state machines
	PhasePhysics                 // 4: integrate movement
	PhaseApply                   // 5: apply server events (serial)
	PhaseRtSim                   // 6: tick the offline simulation quantum
	PhaseOutput                  // 7: flush outbound messages
	PhaseCleanup                 // 8: maintain barriers, advance time
)

// CompID names a component storage or exclusive resource for scheduling.
// The scheduler treats these as opaque labels; two systems may run in the
// same parallel batch only when their declared write sets are disjoint and
// neither reads what the other writes.
type CompID string

// Access is a system's declared read/write footprint.
type Access struct {
	Reads  []CompID
	Writes []CompID
}

// System is the interface every simulation system implements.
type System interface {
	Name() string
	Phase() Phase
	Access() Access
	Update(dt time.Duration)
}

// Conflicts reports whether two access declarations forbid concurrent
// execution: write/write or read/write overlap.
func Conflicts(a, b Access) bool {
	for _, w := range a.Writes {
		for _, w2 := range b.Writes {
			if w == w2 {
				return true
			}
		}
		for _, r := range b.Reads {
			if w == r {
				return true
			}
		}
	}
	for _, r := range a.Reads {
		for _, w := range b.Writes {
			if r == w {
				return true
			}
		}
	}
	return false
}
