package dedup

import "sync"

// Cache is the seen/mark surface the event receiver depends on. Injected so
// the in-memory set can be swapped for a shared store in a multi-instance
// deployment.
type Cache interface {
	Seen(id string) bool
	Mark(id string)
}

// BoundedSet keeps the most recent event ids up to a fixed capacity. When
// the set overflows it is cleared wholesale; dedup is best-effort, so losing
// history on overflow is acceptable.
type BoundedSet struct {
	mu       sync.Mutex
	ids      map[string]struct{}
	capacity int
}

const DefaultCapacity = 1000

func NewBoundedSet(capacity int) *BoundedSet {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &BoundedSet{
		ids:      make(map[string]struct{}, capacity),
		capacity: capacity,
	}
}

func (s *BoundedSet) Seen(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.ids[id]
	return ok
}

func (s *BoundedSet) Mark(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.ids) >= s.capacity {
		s.ids = make(map[string]struct{}, s.capacity)
	}
	s.ids[id] = struct{}{}
}

func (s *BoundedSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids)
}
