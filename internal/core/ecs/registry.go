package ecs

// Registry tracks all component stores for bulk cleanup on entity destroy.
// Stores are registered once at startup; the set is fixed thereafter.
type Registry struct {
	stores []Removable
}

func NewRegistry() *Registry {
	return &Registry{
		stores: make([]Removable, 0, 32),
	}
}

func (r *Registry) Register(store Removable) {
	r.stores = append(r.stores, store)
}

// RemoveAll clears the given entity from every registered component store.
func (r *Registry) RemoveAll(e Entity) {
	for _, s := range r.stores {
		s.Remove(e)
	}
}
