package ecs

// Each2 iterates over entities present in both stores: the joined view for
// the component set {A, B}. It walks the smaller store and probes the larger.
func Each2[A, B any](sa *Store[A], sb *Store[B], fn func(Entity, *A, *B)) {
	if sa.Len() <= sb.Len() {
		for e, a := range sa.data {
			if b, ok := sb.data[e]; ok {
				fn(e, a, b)
			}
		}
	} else {
		for e, b := range sb.data {
			if a, ok := sa.data[e]; ok {
				fn(e, a, b)
			}
		}
	}
}

// Each3 iterates over entities present in all three stores.
func Each3[A, B, C any](sa *Store[A], sb *Store[B], sc *Store[C], fn func(Entity, *A, *B, *C)) {
	// Walk whichever store is smallest.
	smallest, which := sa.Len(), 0
	if sb.Len() < smallest {
		smallest, which = sb.Len(), 1
	}
	if sc.Len() < smallest {
		which = 2
	}
	switch which {
	case 0:
		for e, a := range sa.data {
			if b, ok := sb.data[e]; ok {
				if c, ok := sc.data[e]; ok {
					fn(e, a, b, c)
				}
			}
		}
	case 1:
		for e, b := range sb.data {
			if a, ok := sa.data[e]; ok {
				if c, ok := sc.data[e]; ok {
					fn(e, a, b, c)
				}
			}
		}
	default:
		for e, c := range sc.data {
			if a, ok := sa.data[e]; ok {
				if b, ok := sb.data[e]; ok {
					fn(e, a, b, c)
				}
			}
		}
	}
}

// Each4 iterates over entities present in all four stores, walking the
// first store; callers pass the narrowest component first.
func Each4[A, B, C, D any](sa *Store[A], sb *Store[B], sc *Store[C], sd *Store[D], fn func(Entity, *A, *B, *C, *D)) {
	for e, a := range sa.data {
		b, ok := sb.data[e]
		if !ok {
			continue
		}
		c, ok := sc.data[e]
		if !ok {
			continue
		}
		d, ok := sd.data[e]
		if !ok {
			continue
		}
		fn(e, a, b, c, d)
	}
}
