package optifa

import (
	"github.com/bits-and-blooms/bitset"

	"github.com/geange/optifa/automaton"
)

// MintermNode is a node of a MintermTree. Left holds the part of Set inside the label set that split
// it, Right the part outside; either may be nil when that part is empty.
type MintermNode struct {
	Set         *bitset.BitSet
	Left, Right *MintermNode
	Parent      *MintermNode
}

// MintermTree partitions an alphabet into minterms: maximal sets of symbols on which every refining
// label set agrees.
type MintermTree struct {
	Root     *MintermNode
	alphabet *bitset.BitSet
	leaves   []*MintermNode
}

// NewMintermTree returns the tree whose only leaf is alphabet.
func NewMintermTree(alphabet *bitset.BitSet) *MintermTree {
	root := &MintermNode{Set: alphabet.Clone()}
	return &MintermTree{Root: root, alphabet: alphabet.Clone(), leaves: []*MintermNode{root}}
}

// ComputeMinterms refines the full alphabet by every label set in turn.
func ComputeMinterms(alphabet *bitset.BitSet, labelSets []*bitset.BitSet) *MintermTree {
	t := NewMintermTree(alphabet)
	for _, set := range labelSets {
		t.Refine(set)
	}
	return t
}

// Refine splits every leaf into its intersections with set and with the complement of set,
// discarding empty parts. Symbols of set outside the alphabet are ignored.
func (t *MintermTree) Refine(set *bitset.BitSet) {
	outside := t.alphabet.Difference(set)
	leaves := make([]*MintermNode, 0, len(t.leaves))
	for _, leaf := range t.leaves {
		if in := leaf.Set.Intersection(set); in.Any() {
			leaf.Left = &MintermNode{Set: in, Parent: leaf}
			leaves = append(leaves, leaf.Left)
		}
		if out := leaf.Set.Intersection(outside); out.Any() {
			leaf.Right = &MintermNode{Set: out, Parent: leaf}
			leaves = append(leaves, leaf.Right)
		}
	}
	t.leaves = leaves
}

// Leaves returns the minterms. They are pairwise disjoint, nonempty, and cover the alphabet.
func (t *MintermTree) Leaves() []*bitset.BitSet {
	sets := make([]*bitset.BitSet, len(t.leaves))
	for i, leaf := range t.leaves {
		sets[i] = leaf.Set
	}
	return sets
}

// Len returns the number of minterms.
func (t *MintermTree) Len() int {
	return len(t.leaves)
}

// ClassOf maps every symbol below size to the index of its minterm, or -1 for symbols outside the
// alphabet.
func (t *MintermTree) ClassOf(size int) []int {
	classOf := make([]int, size)
	for i := range classOf {
		classOf[i] = -1
	}
	for class, leaf := range t.leaves {
		for s, ok := leaf.Set.NextSet(0); ok && int(s) < size; s, ok = leaf.Set.NextSet(s + 1) {
			classOf[s] = class
		}
	}
	return classOf
}

// Representative returns the smallest symbol of minterm class.
func (t *MintermTree) Representative(class int) int {
	s, _ := t.leaves[class].Set.NextSet(0)
	return int(s)
}

// transitionMinterms computes the minterms of the symbols used by a and b, refined by the labels
// between every pair of states of either automaton.
func transitionMinterms(a, b *automaton.Automaton) (*MintermTree, int) {
	size := max(a.MaxSymbol(), b.MaxSymbol()) + 1
	alphabet := bitset.New(uint(size))
	sets := append(automaton.LabelSets(a), automaton.LabelSets(b)...)
	for _, set := range sets {
		alphabet.InPlaceUnion(set)
	}
	return ComputeMinterms(alphabet, sets), size
}
