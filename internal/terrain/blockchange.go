package terrain

import "sync"

// BlockEdit is one staged terrain mutation.
type BlockEdit struct {
	X, Y, Z int32
	Block   Block
}

// BlockChange aggregates the tick's terrain edits. Handlers stage edits
// concurrently; the edits hit the grid in one serial pass at end-of-tick,
// keeping the terrain read-shared everywhere else.
type BlockChange struct {
	mu    sync.Mutex
	edits []BlockEdit
}

func NewBlockChange() *BlockChange {
	return &BlockChange{edits: make([]BlockEdit, 0, 32)}
}

func (bc *BlockChange) Stage(e BlockEdit) {
	bc.mu.Lock()
	bc.edits = append(bc.edits, e)
	bc.mu.Unlock()
}

// Apply writes all staged edits to the grid in staging order and returns
// the edits that landed in loaded chunks. Serial phase only.
func (bc *BlockChange) Apply(g *Grid) []BlockEdit {
	bc.mu.Lock()
	edits := bc.edits
	bc.edits = make([]BlockEdit, 0, 32)
	bc.mu.Unlock()

	applied := edits[:0]
	for _, e := range edits {
		if g.setBlock(e.X, e.Y, e.Z, e.Block) {
			applied = append(applied, e)
		}
	}
	return applied
}
