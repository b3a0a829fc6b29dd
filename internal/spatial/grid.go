// Package spatial implements the two-scale hashed cell grid used for
// collision broad-phase and area-of-interest queries.
//
// Entities with a bounding radius at or below the cutoff go in the fine
// grid; larger entities go in the coarse grid. Queries expand the box by
// the cutoff (fine) or by the largest inserted large radius (coarse) so an
// entity is never missed; false positives are allowed and callers re-test.
//
// Rebuilt from authoritative positions every tick; written only in the
// rebuild phase and read-only thereafter. No locks.
package spatial

import (
	"math"

	"github.com/emberwild/server/internal/core/ecs"
	"github.com/emberwild/server/internal/vmath"
)

// Aabr is an axis-aligned bounding rectangle in the XY plane.
type Aabr struct {
	Min, Max vmath.Vec2
}

type cellKey struct {
	X, Y int32
}

// Grid is the two-scale spatial hash.
type Grid struct {
	cellBits      uint
	largeCellBits uint
	cutoff        float64

	cells      map[cellKey][]ecs.Entity
	largeCells map[cellKey][]ecs.Entity

	largestLargeRadius float64
}

// NewGrid builds a grid with fine cells of 2^cellBits units, coarse cells
// of 2^largeCellBits units, and the given radius cutoff between them.
func NewGrid(cellBits, largeCellBits uint, cutoff float64) *Grid {
	return &Grid{
		cellBits:      cellBits,
		largeCellBits: largeCellBits,
		cutoff:        cutoff,
		cells:         make(map[cellKey][]ecs.Entity, 256),
		largeCells:    make(map[cellKey][]ecs.Entity, 64),
	}
}

func toCell(v float64, bits uint) int32 {
	return int32(math.Floor(v)) >> bits
}

// Insert places an entity by its XY position and bounding radius. O(1).
func (g *Grid) Insert(pos vmath.Vec2, radius float64, e ecs.Entity) {
	if radius <= g.cutoff {
		k := cellKey{toCell(pos.X, g.cellBits), toCell(pos.Y, g.cellBits)}
		g.cells[k] = append(g.cells[k], e)
		return
	}
	k := cellKey{toCell(pos.X, g.largeCellBits), toCell(pos.Y, g.largeCellBits)}
	g.largeCells[k] = append(g.largeCells[k], e)
	if radius > g.largestLargeRadius {
		g.largestLargeRadius = radius
	}
}

// Clear empties both grids for the per-tick rebuild.
func (g *Grid) Clear() {
	clear(g.cells)
	clear(g.largeCells)
	g.largestLargeRadius = 0
}

// Query yields every entity whose bounding circle may intersect the given
// rectangle. May yield false positives; never false negatives.
func (g *Grid) Query(aabr Aabr, fn func(ecs.Entity)) {
	g.queryScale(aabr, g.cutoff, g.cellBits, g.cells, fn)
	g.queryScale(aabr, g.largestLargeRadius, g.largeCellBits, g.largeCells, fn)
}

// QueryAll collects Query results into a slice.
func (g *Grid) QueryAll(aabr Aabr) []ecs.Entity {
	var out []ecs.Entity
	g.Query(aabr, func(e ecs.Entity) { out = append(out, e) })
	return out
}

// InRadius queries a circle by querying its bounding square.
func (g *Grid) InRadius(center vmath.Vec2, radius float64, fn func(ecs.Entity)) {
	g.Query(Aabr{
		Min: vmath.Vec2{X: center.X - radius, Y: center.Y - radius},
		Max: vmath.Vec2{X: center.X + radius, Y: center.Y + radius},
	}, fn)
}

func (g *Grid) queryScale(aabr Aabr, expand float64, bits uint, cells map[cellKey][]ecs.Entity, fn func(ecs.Entity)) {
	if len(cells) == 0 {
		return
	}
	minX := toCell(aabr.Min.X-expand, bits)
	minY := toCell(aabr.Min.Y-expand, bits)
	maxX := toCell(aabr.Max.X+expand, bits)
	maxY := toCell(aabr.Max.Y+expand, bits)
	for cx := minX; cx <= maxX; cx++ {
		for cy := minY; cy <= maxY; cy++ {
			for _, e := range cells[cellKey{cx, cy}] {
				fn(e)
			}
		}
	}
}

// LargestLargeRadius reports the biggest radius inserted into the coarse
// grid since the last Clear.
func (g *Grid) LargestLargeRadius() float64 { return g.largestLargeRadius }
