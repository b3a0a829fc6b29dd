package systems

import (
	"testing"
	"time"

	"github.com/emberwild/server/internal/comp"
	"github.com/emberwild/server/internal/terrain"
	"github.com/emberwild/server/internal/vmath"
)

func TestGravityLandsOnTerrain(t *testing.T) {
	rs := testResources()
	sys := NewPhysics(rs)
	rs.Terrain.InsertChunk(terrain.Generate(7, terrain.ChunkKey{}))

	e := rs.World.CreateEntity()
	rs.Stores.Pos.Set(e, &comp.Pos{P: vmath.Vec3{X: 8, Y: 8, Z: 40}})
	rs.Stores.Vel.Set(e, &comp.Vel{})
	rs.Stores.PhysState.Set(e, &comp.PhysicsState{})

	for i := 0; i < 400; i++ {
		sys.Update(33 * time.Millisecond)
	}

	ps, _ := rs.Stores.PhysState.Get(e)
	if !ps.OnGround {
		t.Fatal("entity never landed")
	}
	v, _ := rs.Stores.Vel.Get(e)
	if v.V.Z != 0 {
		t.Fatalf("grounded vertical velocity = %v, want 0", v.V.Z)
	}
	p, _ := rs.Stores.Pos.Get(e)
	if p.P.Z <= 0 || p.P.Z >= 40 {
		t.Fatalf("rest height = %v, want inside the column", p.P.Z)
	}

	// Ground friction bleeds horizontal speed once landed.
	rs.Stores.Vel.Mutate(e, func(v *comp.Vel) { v.V.X = 5 })
	sys.Update(33 * time.Millisecond)
	if v, _ := rs.Stores.Vel.Get(e); v.V.X >= 5 {
		t.Fatalf("horizontal velocity %v not damped on ground", v.V.X)
	}
}
