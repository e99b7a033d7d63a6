package automaton

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFreezeStates(t *testing.T) {
	tests := []struct {
		name       string
		values     []int
		state      int
		wantValues []int
	}{
		{name: "sorted", values: []int{1, 2, 3}, state: 0, wantValues: []int{1, 2, 3}},
		{name: "unsorted with duplicates", values: []int{3, 1, 3, 2, 1}, state: 4, wantValues: []int{1, 2, 3}},
		{name: "empty", values: nil, state: -1, wantValues: []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FreezeStates(tt.values, tt.state)
			assert.ElementsMatch(t, tt.wantValues, got.GetArray())
			assert.Equal(t, len(tt.wantValues), got.Size())
			assert.Equal(t, tt.state, got.State())
			assert.Equal(t, hashStates(tt.wantValues), got.Hash())
		})
	}
}

func TestFrozenIntSet_Equals(t *testing.T) {
	tests := []struct {
		name     string
		f        *FrozenIntSet
		other    Hashable
		expected bool
	}{
		{
			name:     "both nil",
			f:        nil,
			other:    (*FrozenIntSet)(nil),
			expected: true,
		},
		{
			name:     "other nil",
			f:        FreezeStates([]int{1}, 0),
			other:    (*FrozenIntSet)(nil),
			expected: false,
		},
		{
			name:     "different type",
			f:        FreezeStates([]int{1, 2, 3}, 1),
			other:    collidingKey(1),
			expected: false,
		},
		{
			name:     "values differ",
			f:        FreezeStates([]int{1, 2, 3}, 1),
			other:    FreezeStates([]int{1, 2}, 1),
			expected: false,
		},
		{
			name:     "same hash, values differ",
			f:        NewFrozenIntSet([]int{1, 2, 3}, 123, 1),
			other:    NewFrozenIntSet([]int{4, 5, 6}, 123, 1),
			expected: false,
		},
		{
			name:     "assigned state is ignored",
			f:        FreezeStates([]int{1, 2, 3}, 1),
			other:    FreezeStates([]int{3, 2, 1}, 2),
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.f.Equals(tt.other))
		})
	}
}

func TestStateSet(t *testing.T) {
	s := NewStateSet()
	s.Incr(3)
	s.Incr(1)
	s.Incr(3)
	assert.Equal(t, []int{1, 3}, s.GetArray())
	assert.Equal(t, 2, s.Size())

	frozen := s.Freeze(7)
	assert.True(t, s.Equals(frozen))
	assert.True(t, frozen.Equals(s))
	assert.Equal(t, s.Hash(), frozen.Hash())

	s.Decr(3)
	assert.Equal(t, []int{1, 3}, s.GetArray())
	s.Decr(3)
	assert.Equal(t, []int{1}, s.GetArray())
	assert.False(t, s.Equals(frozen))
	assert.Equal(t, hashStates([]int{1}), s.Hash())

	s.Decr(42)
	s.Reset()
	assert.Equal(t, 0, s.Size())
}
