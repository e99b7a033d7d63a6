package automaton

import (
	"fmt"
	"sort"

	"github.com/bits-and-blooms/bitset"
)

// Builder Records transitions in any order, plus epsilon edges, and produces an Automaton with
// sorted, reduced transitions and no epsilon edges on Finish.
type Builder struct {
	nextState int

	isAccept *bitset.BitSet
	isStart  *bitset.BitSet

	// Holds source, dest, min, max for each transition.
	transitions []int

	// Epsilon edges, source -> dests.
	epsilons map[int][]int
}

func NewBuilder() *Builder {
	return &Builder{
		isAccept: bitset.New(16),
		isStart:  bitset.New(16),
		epsilons: make(map[int][]int),
	}
}

// CreateState Create a new state.
func (r *Builder) CreateState() int {
	state := r.nextState
	r.nextState++
	return state
}

// GetNumStates How many states this builder has.
func (r *Builder) GetNumStates() int {
	return r.nextState
}

// SetAccept Set or clear this state as an accept state.
func (r *Builder) SetAccept(state int, accept bool) {
	r.isAccept.SetTo(uint(state), accept)
}

// SetStart Set or clear this state as a start state.
func (r *Builder) SetStart(state int, start bool) {
	r.isStart.SetTo(uint(state), start)
}

func (r *Builder) IsAccept(state int) bool {
	return r.isAccept.Test(uint(state))
}

// AddTransition Add a new transition with the specified source, dest, min, max. Panics on states that
// were not created or on an empty label range.
func (r *Builder) AddTransition(source, dest, min, max int) {
	if source < 0 || source >= r.nextState || dest < 0 || dest >= r.nextState {
		panic(fmt.Sprintf("transition %d -> %d references unknown state", source, dest))
	}
	if min < 0 || min > max {
		panic(fmt.Sprintf("invalid label range [%d, %d]", min, max))
	}
	r.transitions = append(r.transitions, source, dest, min, max)
}

// AddTransitionLabel Add a new transition with min = max = label.
func (r *Builder) AddTransitionLabel(source, dest, label int) {
	r.AddTransition(source, dest, label, label)
}

// AddEpsilon Add an epsilon edge between source and dest. It is removed on Finish: source inherits all
// transitions (and acceptance) of every state reachable from it through epsilon edges.
func (r *Builder) AddEpsilon(source, dest int) {
	if source == dest {
		return
	}
	r.epsilons[source] = append(r.epsilons[source], dest)
}

// CopyStates Copies over all states, transitions and accept flags of other. Start flags are not copied.
// Returns the offset added to the state numbers of other.
func (r *Builder) CopyStates(other *Automaton) int {
	other.FinishState()
	offset := r.nextState
	for s := 0; s < other.GetNumStates(); s++ {
		state := r.CreateState()
		r.SetAccept(state, other.IsAccept(s))
	}

	t := NewTransition()
	for s := 0; s < other.GetNumStates(); s++ {
		count := other.InitTransition(s, t)
		for i := 0; i < count; i++ {
			other.GetNextTransition(t)
			r.AddTransition(offset+s, offset+t.Dest, t.Min, t.Max)
		}
	}
	return offset
}

// Copy Like CopyStates, but also copies the start flags.
func (r *Builder) Copy(other *Automaton) int {
	offset := r.CopyStates(other)
	for _, s := range other.StartStates() {
		r.SetStart(offset+s, true)
	}
	return offset
}

func (r *Builder) sort(from, to int) {
	sort.Sort(&builderSorter{
		values: r.transitions[4*from:],
		size:   to - from,
	})
}

// closure Returns the states reachable from state through epsilon edges, state included.
func (r *Builder) closure(state int) []int {
	if len(r.epsilons[state]) == 0 {
		return []int{state}
	}
	seen := bitset.New(uint(r.nextState))
	seen.Set(uint(state))
	result := []int{state}
	for i := 0; i < len(result); i++ {
		for _, dest := range r.epsilons[result[i]] {
			if !seen.Test(uint(dest)) {
				seen.Set(uint(dest))
				result = append(result, dest)
			}
		}
	}
	return result
}

// Finish Compiles all added states and transitions into a new Automaton and returns it.
func (r *Builder) Finish() *Automaton {
	numTransitions := len(r.transitions) / 4
	r.sort(0, numTransitions)

	// first[s] is the index of the first transition leaving s, first[s+1] the end.
	first := make([]int, r.nextState+1)
	for i := 0; i < numTransitions; i++ {
		first[r.transitions[4*i]+1]++
	}
	for s := 0; s < r.nextState; s++ {
		first[s+1] += first[s]
	}

	a := NewAutomatonV1(r.nextState, numTransitions)
	for s := 0; s < r.nextState; s++ {
		a.CreateState()
		a.SetStart(s, r.isStart.Test(uint(s)))
	}

	for s := 0; s < r.nextState; s++ {
		for _, c := range r.closure(s) {
			if r.isAccept.Test(uint(c)) {
				a.SetAccept(s, true)
			}
			for i := first[c]; i < first[c+1]; i++ {
				// States and ranges were validated in AddTransition.
				_ = a.AddTransition(s, r.transitions[4*i+1], r.transitions[4*i+2], r.transitions[4*i+3])
			}
		}
	}
	a.FinishState()
	return a
}

var _ sort.Interface = &builderSorter{}

// Sorts 4-tuples of source, dest, min, max.
type builderSorter struct {
	values []int
	size   int
}

func (b *builderSorter) Len() int {
	return b.size
}

func (b *builderSorter) Less(i, j int) bool {
	i *= 4
	j *= 4

	for k := 0; k < 4; k++ {
		if b.values[i+k] != b.values[j+k] {
			return b.values[i+k] < b.values[j+k]
		}
	}
	return false
}

func (b *builderSorter) Swap(i, j int) {
	i *= 4
	j *= 4

	b.values[i], b.values[j] = b.values[j], b.values[i]
	b.values[i+1], b.values[j+1] = b.values[j+1], b.values[i+1]
	b.values[i+2], b.values[j+2] = b.values[j+2], b.values[i+2]
	b.values[i+3], b.values[j+3] = b.values[j+3], b.values[i+3]
}
