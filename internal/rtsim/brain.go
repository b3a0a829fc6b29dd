package rtsim

// MemoryKind classifies what an NPC remembers.
type MemoryKind uint8

const (
	MemoryMood MemoryKind = iota
	MemoryCharacterFight
	MemoryVisitedSite
)

// Memory is one remembered fact with the world time it was formed.
type Memory struct {
	Kind MemoryKind `json:"kind"`
	Data string     `json:"data"`
	Time float64    `json:"time"`
}

// MemoryTTL is how long a memory survives, in world seconds.
const MemoryTTL = 3600.0

// Brain is the per-entity memory list. Serialized as JSON into the
// rtsim store.
type Brain struct {
	Memories []Memory `json:"memories"`
}

func (b *Brain) Remember(m Memory) {
	b.Memories = append(b.Memories, m)
}

// Forget drops memories older than the TTL at the given world time.
func (b *Brain) Forget(now float64) {
	kept := b.Memories[:0]
	for _, m := range b.Memories {
		if now-m.Time < MemoryTTL {
			kept = append(kept, m)
		}
	}
	b.Memories = kept
}

// Recall returns memories of a kind, newest last.
func (b *Brain) Recall(kind MemoryKind) []Memory {
	var out []Memory
	for _, m := range b.Memories {
		if m.Kind == kind {
			out = append(out, m)
		}
	}
	return out
}
