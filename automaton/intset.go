package automaton

import "slices"

// IntSet A set of states, usable as a HashMap key during subset construction.
type IntSet interface {
	Hashable

	// GetArray Returns the members in ascending order.
	GetArray() []int

	Size() int
}

// hashStates Order independent hash of a set of states.
func hashStates(values []int) uint64 {
	h := uint64(len(values))
	for _, v := range values {
		h += mixState(v)
	}
	return h
}

// mixState Spreads the bits of a state id with the MurmurHash3 finalizer.
func mixState(v int) uint64 {
	k := uint32(v)
	k = (k ^ (k >> 16)) * 0x85ebca6b
	k = (k ^ (k >> 13)) * 0xc2b2ae35
	return uint64(k ^ (k >> 16))
}

func equalSets(a, b IntSet) bool {
	return a.Size() == b.Size() && a.Hash() == b.Hash() && slices.Equal(a.GetArray(), b.GetArray())
}

var _ IntSet = &FrozenIntSet{}

// FrozenIntSet An immutable set of states together with the state it was assigned in the determinized
// automaton.
type FrozenIntSet struct {
	values   []int
	state    int
	hashCode uint64
}

func NewFrozenIntSet(values []int, hashCode uint64, state int) *FrozenIntSet {
	return &FrozenIntSet{values: values, state: state, hashCode: hashCode}
}

// FreezeStates Sorts and deduplicates values into a FrozenIntSet.
func FreezeStates(values []int, state int) *FrozenIntSet {
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)
	return NewFrozenIntSet(sorted, hashStates(sorted), state)
}

func (f *FrozenIntSet) Hash() uint64 {
	return f.hashCode
}

func (f *FrozenIntSet) Equals(other Hashable) bool {
	if f == nil {
		ptr, ok := other.(*FrozenIntSet)
		return ok && ptr == nil
	}
	switch o := other.(type) {
	case *FrozenIntSet:
		if o == nil {
			return false
		}
		return f.hashCode == o.hashCode && slices.Equal(f.values, o.values)
	case *StateSet:
		if o == nil {
			return false
		}
		return equalSets(f, o)
	default:
		return false
	}
}

func (f *FrozenIntSet) GetArray() []int {
	return f.values
}

func (f *FrozenIntSet) Size() int {
	return len(f.values)
}

// State The determinized state this set was assigned.
func (f *FrozenIntSet) State() int {
	return f.state
}

var _ IntSet = &StateSet{}

// StateSet A mutable multiset of states; a state is a member while its count is positive.
type StateSet struct {
	inner       map[int]int
	hashUpdated bool
	hashCode    uint64
}

func NewStateSet() *StateSet {
	return &StateSet{
		inner: make(map[int]int),
	}
}

func (s *StateSet) Hash() uint64 {
	if s.hashUpdated {
		return s.hashCode
	}
	s.hashCode = uint64(len(s.inner))
	for key := range s.inner {
		s.hashCode += mixState(key)
	}
	s.hashUpdated = true
	return s.hashCode
}

func (s *StateSet) Equals(other Hashable) bool {
	is, ok := other.(IntSet)
	if !ok || is == nil {
		return false
	}
	if ptr, ok := other.(*FrozenIntSet); ok && ptr == nil {
		return false
	}
	if ptr, ok := other.(*StateSet); ok && ptr == nil {
		return false
	}
	return equalSets(s, is)
}

func (s *StateSet) GetArray() []int {
	keys := make([]int, 0, len(s.inner))
	for k := range s.inner {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func (s *StateSet) Size() int {
	return len(s.inner)
}

func (s *StateSet) keyChanged() {
	s.hashUpdated = false
	s.hashCode = 0
}

func (s *StateSet) Incr(state int) {
	s.inner[state]++
	if s.inner[state] == 1 {
		s.keyChanged()
	}
}

func (s *StateSet) Decr(state int) {
	count, ok := s.inner[state]
	if !ok {
		return
	}
	if count == 1 {
		delete(s.inner, state)
		s.keyChanged()
	} else {
		s.inner[state]--
	}
}

// Reset Removes all members.
func (s *StateSet) Reset() {
	clear(s.inner)
	s.keyChanged()
}

// Freeze Returns an immutable copy tagged with state.
func (s *StateSet) Freeze(state int) *FrozenIntSet {
	return NewFrozenIntSet(s.GetArray(), s.Hash(), state)
}
