package systems

import (
	"time"

	"github.com/emberwild/server/internal/core/system"
	"github.com/emberwild/server/internal/sim"
	"github.com/emberwild/server/internal/terrain"
	"github.com/emberwild/server/internal/vmath"
)

// Cleanup is the end-of-tick maintain barrier: staged ECS work becomes
// visible, queued destroys run, terrain edits land, and time advances.
type Cleanup struct {
	rs *sim.Resources
}

func NewCleanup(rs *sim.Resources) *Cleanup { return &Cleanup{rs: rs} }

func (s *Cleanup) Name() string        { return "cleanup" }
func (s *Cleanup) Phase() system.Phase { return system.PhaseCleanup }

func (s *Cleanup) Access() system.Access {
	return system.Access{
		Writes: []system.CompID{sim.ResTerrain},
	}
}

func (s *Cleanup) Update(dt time.Duration) {
	rs := s.rs

	rs.World.FlushStaged()
	rs.World.FlushDestroyQueue()

	// Terrain edits: apply serially, then invalidate the compressed cache
	// for every touched chunk so the next request re-serializes.
	applied := rs.BlockChange.Apply(rs.Terrain)
	for _, edit := range applied {
		key := terrain.KeyOf(vmath.Vec3{
			X: float64(edit.X), Y: float64(edit.Y), Z: float64(edit.Z),
		})
		delete(rs.ChunkCache, key)
	}

	rs.TickNo++
	rs.Time += dt.Seconds()
}
