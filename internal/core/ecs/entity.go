package ecs

// Entity encodes a 32-bit slot index in the lower bits and a 32-bit
// generation in the upper bits. The generation increments on destroy so a
// stale handle to a reused slot never resolves.
type Entity uint64

func NewEntity(index uint32, generation uint32) Entity {
	return Entity(uint64(generation)<<32 | uint64(index))
}

func (e Entity) Index() uint32      { return uint32(e) }
func (e Entity) Generation() uint32 { return uint32(e >> 32) }
func (e Entity) IsZero() bool       { return e == 0 }

// Pool allocates entities from a free list with generational indices.
type Pool struct {
	generations []uint32
	freeList    []uint32
	nextIndex   uint32
}

func NewPool() *Pool {
	return &Pool{
		generations: make([]uint32, 0, 1024),
		freeList:    make([]uint32, 0, 256),
	}
}

func (p *Pool) Create() Entity {
	if len(p.freeList) > 0 {
		idx := p.freeList[len(p.freeList)-1]
		p.freeList = p.freeList[:len(p.freeList)-1]
		return NewEntity(idx, p.generations[idx])
	}
	idx := p.nextIndex
	p.nextIndex++
	if int(idx) >= len(p.generations) {
		p.generations = append(p.generations, 0)
	}
	return NewEntity(idx, p.generations[idx])
}

// Alive reports whether the handle still refers to a live slot.
func (p *Pool) Alive(e Entity) bool {
	idx := e.Index()
	if idx >= p.nextIndex {
		return false
	}
	return p.generations[idx] == e.Generation()
}

func (p *Pool) Destroy(e Entity) {
	idx := e.Index()
	if idx >= p.nextIndex {
		return
	}
	if p.generations[idx] != e.Generation() {
		return // stale handle, slot already reused
	}
	p.generations[idx]++
	p.freeList = append(p.freeList, idx)
}
