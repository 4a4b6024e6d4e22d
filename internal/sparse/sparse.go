// Package sparse provides a sparse set over small uint32 universes.
//
// The set keeps a sparse index array and a dense member array, giving
// O(1) insert, membership, and clear. The interpreter uses one per
// search state to deduplicate program counters within a step
// generation, where clear-per-step cost matters.
package sparse

// Set is a set of uint32 values below a fixed capacity.
type Set struct {
	sparse []uint32 // value -> index into dense
	dense  []uint32 // members in insertion order
}

// New creates a set holding values in [0, capacity).
func New(capacity uint32) *Set {
	return &Set{
		sparse: make([]uint32, capacity),
		dense:  make([]uint32, 0, capacity),
	}
}

// Insert adds value and reports whether it was newly added. Values at
// or above capacity are rejected (returns false, as if present).
func (s *Set) Insert(value uint32) bool {
	if s.Contains(value) {
		return false
	}
	if value >= uint32(len(s.sparse)) {
		return false
	}
	s.sparse[value] = uint32(len(s.dense))
	s.dense = append(s.dense, value)
	return true
}

// Contains reports whether value is in the set.
func (s *Set) Contains(value uint32) bool {
	if value >= uint32(len(s.sparse)) {
		return false
	}
	idx := s.sparse[value]
	return idx < uint32(len(s.dense)) && s.dense[idx] == value
}

// Clear empties the set in O(1).
func (s *Set) Clear() {
	s.dense = s.dense[:0]
}

// Len returns the number of members.
func (s *Set) Len() int {
	return len(s.dense)
}
