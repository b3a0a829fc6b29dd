package ecs

// Removable is implemented by every component store so the Registry can
// bulk-remove an entity's data from all stores on destroy.
type Removable interface {
	Remove(e Entity)
}

// Store is a generic typed map store for components. No reflect, no
// interface{} — pure generics. A missing entity is data, not an error:
// Get returns (nil, false) and mutating helpers no-op.
type Store[T any] struct {
	data map[Entity]*T
}

func NewStore[T any]() *Store[T] {
	return &Store[T]{
		data: make(map[Entity]*T, 256),
	}
}

func (s *Store[T]) Set(e Entity, c *T) {
	s.data[e] = c
}

func (s *Store[T]) Get(e Entity) (*T, bool) {
	c, ok := s.data[e]
	return c, ok
}

func (s *Store[T]) Remove(e Entity) {
	delete(s.data, e)
}

func (s *Store[T]) Has(e Entity) bool {
	_, ok := s.data[e]
	return ok
}

func (s *Store[T]) Len() int {
	return len(s.data)
}

func (s *Store[T]) Each(fn func(Entity, *T)) {
	for e, c := range s.data {
		fn(e, c)
	}
}

// Mutate applies fn to the entity's component if present and reports
// whether it was. Absent entities are a silent no-op.
func (s *Store[T]) Mutate(e Entity, fn func(*T)) bool {
	c, ok := s.data[e]
	if !ok {
		return false
	}
	fn(c)
	return true
}
