// Package terrain holds the voxel grid the simulation reads, the
// BlockChange aggregator that serializes edits, and the background chunk
// generation pool. The grid is read-shared by all systems; mutation goes
// through BlockChange only, applied serially at end-of-tick.
package terrain

import (
	"encoding/binary"
	"math"

	"github.com/emberwild/server/internal/vmath"
)

// Block is a voxel kind.
type Block uint8

const (
	BlockAir Block = iota
	BlockStone
	BlockDirt
	BlockGrass
	BlockWater
)

// IsSolid reports whether the block stops movement.
func (b Block) IsSolid() bool {
	return b == BlockStone || b == BlockDirt || b == BlockGrass
}

func (b Block) IsFluid() bool { return b == BlockWater }

// Chunk geometry.
const (
	ChunkSize   = 16 // blocks per side, XY
	ChunkHeight = 64
)

// ChunkKey addresses a chunk column.
type ChunkKey struct {
	X, Y int32
}

// KeyOf maps a world position to its chunk key.
func KeyOf(pos vmath.Vec3) ChunkKey {
	return ChunkKey{
		X: int32(math.Floor(pos.X / ChunkSize)),
		Y: int32(math.Floor(pos.Y / ChunkSize)),
	}
}

// Chunk is a dense column of blocks, x-major then y then z.
type Chunk struct {
	Key    ChunkKey
	Blocks [ChunkSize * ChunkSize * ChunkHeight]Block
}

func blockIndex(x, y, z int) int {
	return (z*ChunkSize+y)*ChunkSize + x
}

func (c *Chunk) At(x, y, z int) Block {
	if x < 0 || x >= ChunkSize || y < 0 || y >= ChunkSize || z < 0 || z >= ChunkHeight {
		return BlockAir
	}
	return c.Blocks[blockIndex(x, y, z)]
}

func (c *Chunk) Set(x, y, z int, b Block) {
	if x < 0 || x >= ChunkSize || y < 0 || y >= ChunkSize || z < 0 || z >= ChunkHeight {
		return
	}
	c.Blocks[blockIndex(x, y, z)] = b
}

// Serialize packs the chunk for the wire: key header then raw blocks.
// Callers compress the result before sending.
func (c *Chunk) Serialize() []byte {
	out := make([]byte, 8+len(c.Blocks))
	binary.LittleEndian.PutUint32(out[0:4], uint32(c.Key.X))
	binary.LittleEndian.PutUint32(out[4:8], uint32(c.Key.Y))
	for i, b := range c.Blocks {
		out[8+i] = byte(b)
	}
	return out
}

// Grid is the loaded-chunk map. Game loop reads freely; writes happen
// only via ApplyBlockChanges and InsertChunk during serial phases.
type Grid struct {
	chunks map[ChunkKey]*Chunk
}

func NewGrid() *Grid {
	return &Grid{chunks: make(map[ChunkKey]*Chunk, 128)}
}

func (g *Grid) Chunk(key ChunkKey) (*Chunk, bool) {
	c, ok := g.chunks[key]
	return c, ok
}

func (g *Grid) InsertChunk(c *Chunk) {
	g.chunks[c.Key] = c
}

func (g *Grid) RemoveChunk(key ChunkKey) {
	delete(g.chunks, key)
}

func (g *Grid) Len() int { return len(g.chunks) }

// BlockAt reads a block at a world position; unloaded space is air.
func (g *Grid) BlockAt(pos vmath.Vec3) Block {
	key := KeyOf(pos)
	c, ok := g.chunks[key]
	if !ok {
		return BlockAir
	}
	x := int(math.Floor(pos.X)) - int(key.X)*ChunkSize
	y := int(math.Floor(pos.Y)) - int(key.Y)*ChunkSize
	z := int(math.Floor(pos.Z))
	return c.At(x, y, z)
}

func (g *Grid) setBlock(x, y, z int32, b Block) bool {
	key := ChunkKey{X: floorDiv(x, ChunkSize), Y: floorDiv(y, ChunkSize)}
	c, ok := g.chunks[key]
	if !ok {
		return false
	}
	c.Set(int(x-key.X*ChunkSize), int(y-key.Y*ChunkSize), int(z), b)
	return true
}

func floorDiv(a, b int32) int32 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
