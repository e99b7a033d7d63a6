package automaton

import (
	"fmt"
	"sort"

	"github.com/bits-and-blooms/bitset"
)

// Automaton Represents a finite word automaton and all its states and transitions. States are integers
// and must be created using CreateState. Mark a state as an accept state using SetAccept and as a start
// state using SetStart; an automaton may have any number of both. Transitions carry an inclusive range
// [Min, Max] of integer symbol ids. Each state must have all of its transitions added at once; if this
// is too restrictive then use Builder instead. Once a state is finished, either because you've started
// adding transitions to another state or you call FinishState, then that states transitions are sorted
// (first by min, then max, then dest) and reduced (transitions with adjacent labels going to the same
// dest are combined).
type Automaton struct {
	// Where we next write to in transitions; this increments by 3 for each added transition because
	// we pack dest, min, max in sequence.
	nextTransition int

	// Current state we are adding transitions to; the caller must add all transitions for this state
	// before moving onto another state.
	curState int

	// Index in the transitions array, where this states leaving transitions are stored, or -1
	// if this state has not added any transitions yet, followed by number of transitions.
	states []int

	isAccept *bitset.BitSet
	isStart  *bitset.BitSet

	// Holds toState, min, max for each transition.
	transitions []int

	// True if no state has two transitions leaving with the same label.
	deterministic bool
}

func NewAutomaton() *Automaton {
	return NewAutomatonV1(2, 2)
}

func NewAutomatonV1(numStates, numTransitions int) *Automaton {
	return &Automaton{
		curState:      -1,
		deterministic: true,
		states:        make([]int, 0, numStates*2),
		isAccept:      bitset.New(uint(numStates)),
		isStart:       bitset.New(uint(numStates)),
		transitions:   make([]int, 0, numTransitions*3),
	}
}

// CreateState Create a new state.
func (a *Automaton) CreateState() int {
	state := len(a.states) / 2
	a.states = append(a.states, -1, 0)
	return state
}

// SetAccept Set or clear this state as an accept state.
func (a *Automaton) SetAccept(state int, accept bool) {
	a.isAccept.SetTo(uint(state), accept)
}

// SetStart Set or clear this state as a start state.
func (a *Automaton) SetStart(state int, start bool) {
	a.isStart.SetTo(uint(state), start)
	if a.isStart.Count() > 1 {
		a.deterministic = false
	}
}

// IsAccept Returns true if this state is an accept state.
func (a *Automaton) IsAccept(state int) bool {
	return a.isAccept.Test(uint(state))
}

// IsStart Returns true if this state is a start state.
func (a *Automaton) IsStart(state int) bool {
	return a.isStart.Test(uint(state))
}

// AcceptStates Returns the accept states in ascending order.
func (a *Automaton) AcceptStates() []int {
	return setStates(a.isAccept, a.GetNumStates())
}

// StartStates Returns the start states in ascending order.
func (a *Automaton) StartStates() []int {
	return setStates(a.isStart, a.GetNumStates())
}

func setStates(b *bitset.BitSet, numStates int) []int {
	result := make([]int, 0, b.Count())
	for i, ok := b.NextSet(0); ok && i < uint(numStates); i, ok = b.NextSet(i + 1) {
		result = append(result, int(i))
	}
	return result
}

// AddTransitionLabel Add a new transition with min = max = label.
func (a *Automaton) AddTransitionLabel(source, dest, label int) error {
	return a.AddTransition(source, dest, label, label)
}

// AddTransition Add a new transition with the specified source, dest, min, max.
func (a *Automaton) AddTransition(source, dest, min, max int) error {
	numStates := a.GetNumStates()
	if source < 0 || source >= numStates {
		return fmt.Errorf("source state %d out of bounds (%d states)", source, numStates)
	}
	if dest < 0 || dest >= numStates {
		return fmt.Errorf("dest state %d out of bounds (%d states)", dest, numStates)
	}
	if min < 0 || min > max {
		return fmt.Errorf("invalid label range [%d, %d]", min, max)
	}

	a.growTransitions()
	if a.curState != source {
		if a.curState != -1 {
			a.finishCurrentState()
		}

		// Move to next source:
		a.curState = source
		if a.states[2*a.curState] != -1 {
			return fmt.Errorf("from state (%d) already had transitions added", source)
		}
		a.states[2*a.curState] = a.nextTransition
	}

	a.transitions[a.nextTransition] = dest
	a.nextTransition++
	a.transitions[a.nextTransition] = min
	a.nextTransition++
	a.transitions[a.nextTransition] = max
	a.nextTransition++

	// Increment transition count for this state
	a.states[2*a.curState+1]++
	return nil
}

// Copy Copies over all states/transitions from other, including accept and start flags. The states
// numbers are sequentially assigned (appended). Returns the offset added to the state numbers of other.
func (a *Automaton) Copy(other *Automaton) int {
	a.FinishState()
	other.FinishState()

	// Bulk copy and then fixup the state pointers:
	stateOffset := a.GetNumStates()
	nextState := len(a.states)

	a.states = append(a.states, other.states...)
	for i := nextState; i < len(a.states); i += 2 {
		if a.states[i] != -1 {
			a.states[i] += a.nextTransition
		}
	}

	otherNumStates := uint(other.GetNumStates())
	for s, ok := other.isAccept.NextSet(0); ok && s < otherNumStates; s, ok = other.isAccept.NextSet(s + 1) {
		a.SetAccept(stateOffset+int(s), true)
	}
	for s, ok := other.isStart.NextSet(0); ok && s < otherNumStates; s, ok = other.isStart.NextSet(s + 1) {
		a.SetStart(stateOffset+int(s), true)
	}

	// Bulk copy and then fixup dest for each transition:
	a.transitions = grow(a.transitions, a.nextTransition+other.nextTransition)
	copy(a.transitions[a.nextTransition:a.nextTransition+other.nextTransition], other.transitions)
	for i := 0; i < other.nextTransition; i += 3 {
		a.transitions[a.nextTransition+i] += stateOffset
	}
	a.nextTransition += other.nextTransition

	if !other.deterministic {
		a.deterministic = false
	}
	return stateOffset
}

// Freezes the last state, sorting and reducing the transitions.
func (a *Automaton) finishCurrentState() {
	numTransitions := a.states[2*a.curState+1]

	offset := a.states[2*a.curState]
	start := offset / 3

	sort.Sort(&destMinMaxSorter{
		from:      start,
		to:        start + numTransitions,
		Automaton: a,
	})

	// Reduce any "adjacent" transitions:
	upto := 0
	minValue := -1
	maxValue := -1
	dest := -1

	for i := 0; i < numTransitions; i++ {
		tDest := a.transitions[offset+3*i]
		tMin := a.transitions[offset+3*i+1]
		tMax := a.transitions[offset+3*i+2]

		if dest == tDest {
			if tMin <= maxValue+1 {
				if tMax > maxValue {
					maxValue = tMax
				}
			} else {
				if dest != -1 {
					a.transitions[offset+3*upto] = dest
					a.transitions[offset+3*upto+1] = minValue
					a.transitions[offset+3*upto+2] = maxValue
					upto++
				}
				minValue = tMin
				maxValue = tMax
			}
		} else {
			if dest != -1 {
				a.transitions[offset+3*upto] = dest
				a.transitions[offset+3*upto+1] = minValue
				a.transitions[offset+3*upto+2] = maxValue
				upto++
			}
			dest = tDest
			minValue = tMin
			maxValue = tMax
		}
	}

	if dest != -1 {
		// Last transition
		a.transitions[offset+3*upto] = dest
		a.transitions[offset+3*upto+1] = minValue
		a.transitions[offset+3*upto+2] = maxValue
		upto++
	}

	a.nextTransition -= (numTransitions - upto) * 3
	a.states[2*a.curState+1] = upto

	// Sort transitions by minValue/maxValue/dest:
	sort.Sort(&minMaxDestSorter{
		from:      start,
		to:        start + upto,
		Automaton: a,
	})

	if a.deterministic && upto > 1 {
		lastMax := a.transitions[offset+2]
		for i := 1; i < upto; i++ {
			minValue = a.transitions[offset+3*i+1]
			if minValue <= lastMax {
				a.deterministic = false
				break
			}
			lastMax = a.transitions[offset+3*i+2]
		}
	}
}

// IsDeterministic Returns true if this automaton is deterministic: at most one start state and, for every
// state, at most one transition for each label.
func (a *Automaton) IsDeterministic() bool {
	return a.deterministic
}

// FinishState
// Finishes the current state; call this once you are done adding transitions for a state.
// This is automatically called if you start adding transitions to a new source state,
// but for the last state you add you need to this method yourself.
func (a *Automaton) FinishState() {
	if a.curState != -1 {
		a.finishCurrentState()
		a.curState = -1
	}
}

// GetNumStates How many states this automaton has.
func (a *Automaton) GetNumStates() int {
	return len(a.states) / 2
}

// GetNumTransitions How many transitions this automaton has.
func (a *Automaton) GetNumTransitions() int {
	return a.nextTransition / 3
}

// GetNumTransitionsWithState How many transitions this state has.
func (a *Automaton) GetNumTransitionsWithState(state int) int {
	return a.states[2*state+1]
}

func (a *Automaton) growTransitions() {
	if a.nextTransition+3 > len(a.transitions) {
		a.transitions = grow(a.transitions, a.nextTransition+3)
	}
}

// Sorts transitions by dest, ascending, then min label ascending, then max label ascending
type destMinMaxSorter struct {
	from, to int
	*Automaton
}

func (r *destMinMaxSorter) Len() int {
	return r.to - r.from
}

func (r *destMinMaxSorter) Less(i, j int) bool {
	iStart := 3 * (r.from + i)
	jStart := 3 * (r.from + j)

	// First dest:
	if r.transitions[iStart] != r.transitions[jStart] {
		return r.transitions[iStart] < r.transitions[jStart]
	}
	// Then min:
	if r.transitions[iStart+1] != r.transitions[jStart+1] {
		return r.transitions[iStart+1] < r.transitions[jStart+1]
	}
	// Then max:
	return r.transitions[iStart+2] < r.transitions[jStart+2]
}

func (r *destMinMaxSorter) Swap(i, j int) {
	swapTriple(r.transitions, 3*(r.from+i), 3*(r.from+j))
}

// Sorts transitions by min label, ascending, then max label ascending, then dest ascending
type minMaxDestSorter struct {
	from, to int
	*Automaton
}

func (r *minMaxDestSorter) Len() int {
	return r.to - r.from
}

func (r *minMaxDestSorter) Less(i, j int) bool {
	iStart := 3 * (r.from + i)
	jStart := 3 * (r.from + j)

	// First min:
	if r.transitions[iStart+1] != r.transitions[jStart+1] {
		return r.transitions[iStart+1] < r.transitions[jStart+1]
	}
	// Then max:
	if r.transitions[iStart+2] != r.transitions[jStart+2] {
		return r.transitions[iStart+2] < r.transitions[jStart+2]
	}
	// Then dest:
	return r.transitions[iStart] < r.transitions[jStart]
}

func (r *minMaxDestSorter) Swap(i, j int) {
	swapTriple(r.transitions, 3*(r.from+i), 3*(r.from+j))
}

func swapTriple(values []int, i, j int) {
	values[i], values[j] = values[j], values[i]
	values[i+1], values[j+1] = values[j+1], values[i+1]
	values[i+2], values[j+2] = values[j+2], values[i+2]
}

// InitTransition Initialize the provided Transition to iterate through all transitions leaving the specified
// state. You must call GetNextTransition to get each transition. Returns the number of transitions leaving
// this state.
func (a *Automaton) InitTransition(state int, t *Transition) int {
	t.Source = state
	t.TransitionUpto = a.states[2*state]
	return a.GetNumTransitionsWithState(state)
}

// GetNextTransition Iterate to the next transition after the provided one
func (a *Automaton) GetNextTransition(t *Transition) {
	t.Dest = a.transitions[t.TransitionUpto]
	t.TransitionUpto++
	t.Min = a.transitions[t.TransitionUpto]
	t.TransitionUpto++
	t.Max = a.transitions[t.TransitionUpto]
	t.TransitionUpto++
}

// Fill the provided Transition with the index'th transition leaving the specified state.
func (a *Automaton) getTransition(state, index int, t *Transition) {
	i := a.states[2*state] + 3*index
	t.Source = state
	t.Dest = a.transitions[i]
	t.Min = a.transitions[i+1]
	t.Max = a.transitions[i+2]
}

// GetStartPoints Returns sorted array of all interval start points.
func (a *Automaton) GetStartPoints() []int {
	pointset := make(map[int]struct{})
	pointset[0] = struct{}{}

	for s := 0; s < len(a.states); s += 2 {
		trans := a.states[s]
		limit := trans + 3*a.states[s+1]
		for trans < limit {
			pointset[a.transitions[trans+1]] = struct{}{}
			pointset[a.transitions[trans+2]+1] = struct{}{}
			trans += 3
		}
	}

	points := make([]int, 0, len(pointset))
	for k := range pointset {
		points = append(points, k)
	}
	sort.Ints(points)
	return points
}

// MaxSymbol Returns the largest symbol id used by any transition, or -1 if there are no transitions.
func (a *Automaton) MaxSymbol() int {
	maxSymbol := -1
	for i := 0; i < a.nextTransition; i += 3 {
		if a.transitions[i+2] > maxSymbol {
			maxSymbol = a.transitions[i+2]
		}
	}
	return maxSymbol
}

// Step Performs lookup in transitions, assuming determinism.
// Params: 	state – starting state
//
//	label – symbol to look up
//
// Returns: destination state, -1 if no matching outgoing transition
func (a *Automaton) Step(state, label int) int {
	return a.next(state, 0, label, nil)
}

// Next
// Looks for the next transition that matches the provided label, assuming determinism.
// It keeps the latest reached transition index in transition.TransitionUpto so the next call
// to this method can continue from there instead of restarting from the first transition.
//
// Returns: The destination state; or -1 if no matching outgoing transition.
func (a *Automaton) Next(transition *Transition, label int) int {
	return a.next(transition.Source, 0, label, transition)
}

func (a *Automaton) next(state, fromTransitionIndex, label int, transition *Transition) int {
	stateIndex := 2 * state
	firstTransitionIndex := a.states[stateIndex]
	numTransitions := a.states[stateIndex+1]

	// Since transitions are sorted,
	// binary search the transition for which label is within [minLabel, maxLabel].
	low := max(fromTransitionIndex, 0)
	high := numTransitions - 1

	for low <= high {
		mid := (low + high) >> 1
		transitionIndex := firstTransitionIndex + 3*mid
		minLabel := a.transitions[transitionIndex+1]
		if minLabel > label {
			high = mid - 1
		} else {
			maxLabel := a.transitions[transitionIndex+2]
			if maxLabel < label {
				low = mid + 1
			} else {
				destState := a.transitions[transitionIndex]
				if transition != nil {
					transition.Dest = destState
					transition.Min = minLabel
					transition.Max = maxLabel
					transition.TransitionUpto = mid
				}
				return destState
			}
		}
	}

	destState := -1
	if transition != nil {
		transition.Dest = destState
		transition.TransitionUpto = low
	}
	return destState
}
