package optifa

import (
	"math/rand/v2"
	"testing"

	"github.com/bits-and-blooms/bitset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setOf(symbols ...uint) *bitset.BitSet {
	b := bitset.New(8)
	for _, s := range symbols {
		b.Set(s)
	}
	return b
}

func members(b *bitset.BitSet) []uint {
	var out []uint
	for s, ok := b.NextSet(0); ok; s, ok = b.NextSet(s + 1) {
		out = append(out, s)
	}
	return out
}

func TestComputeMinterms(t *testing.T) {
	// a=0 b=1 c=2
	tree := ComputeMinterms(setOf(0, 1, 2), []*bitset.BitSet{setOf(0, 1), setOf(1, 2)})
	require.Equal(t, 3, tree.Len())

	leaves := tree.Leaves()
	assert.Equal(t, []uint{1}, members(leaves[0]))
	assert.Equal(t, []uint{0}, members(leaves[1]))
	assert.Equal(t, []uint{2}, members(leaves[2]))

	classOf := tree.ClassOf(4)
	assert.Equal(t, []int{1, 0, 2, -1}, classOf)
	assert.Equal(t, 1, tree.Representative(0))
	assert.Equal(t, 0, tree.Representative(1))
}

func TestMintermTree_Refine(t *testing.T) {
	tree := NewMintermTree(setOf(0, 1))
	assert.Equal(t, 1, tree.Len())

	// symbols outside the alphabet do not create minterms
	tree.Refine(setOf(0, 1, 5))
	assert.Equal(t, 1, tree.Len())
	assert.NotNil(t, tree.Root.Left)
	assert.Nil(t, tree.Root.Right)
	assert.Same(t, tree.Root, tree.Root.Left.Parent)

	tree.Refine(setOf(1))
	assert.Equal(t, 2, tree.Len())
}

func TestComputeMinterms_Partition(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 4))
	for i := 0; i < 100; i++ {
		size := 1 + r.IntN(10)
		alphabet := bitset.New(uint(size))
		for s := 0; s < size; s++ {
			alphabet.Set(uint(s))
		}
		sets := make([]*bitset.BitSet, r.IntN(5))
		for j := range sets {
			sets[j] = bitset.New(uint(size))
			for s := 0; s < size; s++ {
				if r.IntN(2) == 0 {
					sets[j].Set(uint(s))
				}
			}
		}

		tree := ComputeMinterms(alphabet, sets)
		union := bitset.New(uint(size))
		total := uint(0)
		for _, leaf := range tree.Leaves() {
			require.True(t, leaf.Any())
			total += leaf.Count()
			union.InPlaceUnion(leaf)
			// every label set contains a minterm entirely or not at all
			for _, set := range sets {
				n := leaf.IntersectionCardinality(set)
				assert.True(t, n == 0 || n == leaf.Count())
			}
		}
		assert.Equal(t, alphabet.Count(), total)
		assert.Equal(t, members(alphabet), members(union))
	}
}
