package set

// Set is a collection of unique elements that remembers insertion order, so
// lists built from it (attendees, recipients) stay stable between calls.
type Set[T comparable] struct {
	index map[T]int
	items []T
}

// New creates and returns a new empty Set.
func New[T comparable]() *Set[T] {
	return &Set[T]{
		index: make(map[T]int),
	}
}

// FromSlice creates a new Set from the provided slice of items. Duplicates
// keep the position of their first occurrence.
func FromSlice[T comparable](items []T) *Set[T] {
	set := New[T]()
	for _, item := range items {
		set.Add(item)
	}
	return set
}

// Add adds an item to the Set and reports whether it was new.
func (s *Set[T]) Add(item T) bool {
	if _, exists := s.index[item]; exists {
		return false
	}
	s.index[item] = len(s.items)
	s.items = append(s.items, item)
	return true
}

// Remove removes an item from the Set and reports whether it was present.
func (s *Set[T]) Remove(item T) bool {
	i, exists := s.index[item]
	if !exists {
		return false
	}
	delete(s.index, item)
	s.items = append(s.items[:i], s.items[i+1:]...)
	for j := i; j < len(s.items); j++ {
		s.index[s.items[j]] = j
	}
	return true
}

// Contains checks if the item exists in the Set.
func (s *Set[T]) Contains(item T) bool {
	_, exists := s.index[item]
	return exists
}

// Size returns the number of items in the Set.
func (s *Set[T]) Size() int {
	return len(s.items)
}

// ToSlice returns a copy of the items in insertion order.
func (s *Set[T]) ToSlice() []T {
	result := make([]T, len(s.items))
	copy(result, s.items)
	return result
}
