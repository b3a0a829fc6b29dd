package systems

import (
	"time"

	"github.com/emberwild/server/internal/charstate"
	"github.com/emberwild/server/internal/comp"
	"github.com/emberwild/server/internal/core/ecs"
	"github.com/emberwild/server/internal/core/system"
	"github.com/emberwild/server/internal/sim"
	"github.com/emberwild/server/internal/terrain"
	"github.com/emberwild/server/internal/vmath"
)

// Physics integrates velocity into position against the voxel grid and
// refreshes each entity's PhysicsState snapshot. Axis-separated sweep:
// good enough for box-vs-voxel at tick rates, no broadphase needed
// beyond the grid itself.
type Physics struct {
	rs *sim.Resources
}

func NewPhysics(rs *sim.Resources) *Physics { return &Physics{rs: rs} }

func (s *Physics) Name() string        { return "physics" }
func (s *Physics) Phase() system.Phase { return system.PhasePhysics }

func (s *Physics) Access() system.Access {
	return system.Access{
		Reads:  []system.CompID{sim.CompBody, sim.ResTerrain},
		Writes: []system.CompID{sim.CompPos, sim.CompVel, sim.CompPhysState},
	}
}

const (
	groundFriction = 10.0
	fluidDrag      = 3.0
	terminalVel    = 60.0
)

func (s *Physics) Update(dt time.Duration) {
	rs := s.rs
	dtSec := dt.Seconds()

	rs.Stores.Vel.Each(func(e ecs.Entity, v *comp.Vel) {
		p, ok := rs.Stores.Pos.Get(e)
		if !ok {
			return
		}
		radius, height := defaultRadius, 1.75
		if b, ok := rs.Stores.Body.Get(e); ok {
			radius, height = b.Radius, b.Height
		}

		state := comp.PhysicsState{}
		inFluid := rs.Terrain.BlockAt(p.P).IsFluid()
		state.InFluid = inFluid

		// Gravity, softened in fluid.
		g := charstate.Gravity
		if inFluid {
			g *= 0.3
		}
		v.V.Z -= g * dtSec
		if v.V.Z < -terminalVel {
			v.V.Z = -terminalVel
		}
		if inFluid {
			v.V = v.V.Scale(1 - vmath.Clamp(fluidDrag*dtSec, 0, 1))
		}

		// Integrate axis by axis, zeroing velocity into solids.
		next := p.P
		next.X += v.V.X * dtSec
		if solidAt(rs.Terrain, next, radius, height) {
			next.X = p.P.X
			v.V.X = 0
		}
		next.Y += v.V.Y * dtSec
		if solidAt(rs.Terrain, next, radius, height) {
			next.Y = p.P.Y
			v.V.Y = 0
		}
		next.Z += v.V.Z * dtSec
		if solidAt(rs.Terrain, next, radius, height) {
			if v.V.Z < 0 {
				state.OnGround = true
			}
			next.Z = p.P.Z
			v.V.Z = 0
		}
		p.P = next

		if !state.OnGround && v.V.Z <= 0 &&
			rs.Terrain.BlockAt(vmath.Vec3{X: p.P.X, Y: p.P.Y, Z: p.P.Z - 0.05}).IsSolid() {
			state.OnGround = true
		}
		if state.OnGround {
			damp := 1 - vmath.Clamp(groundFriction*dtSec, 0, 1)
			v.V.X *= damp
			v.V.Y *= damp
		}

		state.OnWall = wallNormal(rs.Terrain, p.P, radius, height)

		rs.Stores.PhysState.Mutate(e, func(ps *comp.PhysicsState) {
			*ps = state
		})
	})
}

// solidAt samples the collider's corners and center column.
func solidAt(g *terrain.Grid, pos vmath.Vec3, radius, height float64) bool {
	for _, dz := range []float64{0.05, height / 2, height - 0.05} {
		for _, off := range [...]vmath.Vec2{
			{X: 0, Y: 0},
			{X: radius, Y: 0}, {X: -radius, Y: 0},
			{X: 0, Y: radius}, {X: 0, Y: -radius},
		} {
			if g.BlockAt(vmath.Vec3{X: pos.X + off.X, Y: pos.Y + off.Y, Z: pos.Z + dz}).IsSolid() {
				return true
			}
		}
	}
	return false
}

// wallNormal probes the four horizontal directions at chest height and
// returns the direction facing the wall, nil when clear.
func wallNormal(g *terrain.Grid, pos vmath.Vec3, radius, height float64) *vmath.Vec3 {
	probe := radius + 0.1
	z := pos.Z + height/2
	dirs := [...]vmath.Vec3{
		{X: 1}, {X: -1}, {Y: 1}, {Y: -1},
	}
	for _, d := range dirs {
		if g.BlockAt(vmath.Vec3{X: pos.X + d.X*probe, Y: pos.Y + d.Y*probe, Z: z}).IsSolid() {
			n := d
			return &n
		}
	}
	return nil
}
