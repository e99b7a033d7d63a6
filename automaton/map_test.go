package automaton

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// collidingKey hashes every value to the same bucket.
type collidingKey int

func (k collidingKey) Hash() uint64 { return 7 }

func (k collidingKey) Equals(other Hashable) bool {
	o, ok := other.(collidingKey)
	return ok && k == o
}

func TestHashMap_SetGet(t *testing.T) {
	hm := NewHashMap[int](WithCapacity(8))
	hm.Set(FreezeStates([]int{3, 1}, 0), 10)
	hm.Set(FreezeStates([]int{2}, 1), 20)

	got, ok := hm.Get(FreezeStates([]int{1, 3, 3}, -1))
	assert.True(t, ok)
	assert.Equal(t, 10, got)

	hm.Set(FreezeStates([]int{1, 3}, 0), 11)
	got, _ = hm.Get(FreezeStates([]int{1, 3}, -1))
	assert.Equal(t, 11, got)
	assert.Equal(t, 2, hm.Size())

	_, ok = hm.Get(FreezeStates([]int{1}, -1))
	assert.False(t, ok)
}

func TestHashMap_Collisions(t *testing.T) {
	hm := NewHashMap[string](WithCapacity(4))
	for i, v := range []string{"a", "b", "c"} {
		hm.Set(collidingKey(i), v)
	}
	assert.Equal(t, 3, hm.Size())
	for i, v := range []string{"a", "b", "c"} {
		got, ok := hm.Get(collidingKey(i))
		assert.True(t, ok)
		assert.Equal(t, v, got)
	}

	// a key of another type is not found
	_, ok := hm.Get(FreezeStates(nil, -1))
	assert.False(t, ok)
}

func TestHashMap_Grows(t *testing.T) {
	hm := NewHashMap[int](WithCapacity(16))
	for i := 0; i < 100; i++ {
		hm.Set(FreezeStates([]int{i, i + 1}, i), i)
	}
	assert.Greater(t, len(hm.buckets), 16)
	for i := 0; i < 100; i++ {
		got, ok := hm.Get(FreezeStates([]int{i + 1, i}, -1))
		assert.True(t, ok)
		assert.Equal(t, i, got)
	}
	assert.Equal(t, 100, hm.Size())
}

func TestHashMap_StateSetProbe(t *testing.T) {
	hm := NewHashMap[int](WithCapacity(4), WithLoadFactor(0.5))
	hm.Set(FreezeStates([]int{2, 1}, 0), 0)
	hm.Set(FreezeStates([]int{3}, 1), 1)

	live := NewStateSet()
	live.Incr(1)
	live.Incr(2)
	got, ok := hm.Get(live)
	assert.True(t, ok)
	assert.Equal(t, 0, got)

	live.Decr(2)
	_, ok = hm.Get(live)
	assert.False(t, ok)
}

func TestNewHashMap_Capacity(t *testing.T) {
	assert.Len(t, NewHashMap[string](WithCapacity(0)).buckets, 1)
	assert.Len(t, NewHashMap[string](WithCapacity(5)).buckets, 8)
}
