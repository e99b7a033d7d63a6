package automaton

import "github.com/bits-and-blooms/bitset"

// Run Returns true if a accepts word. Nondeterminism is handled by tracking the set of current states.
func Run(a *Automaton, word []int) bool {
	a.FinishState()
	numStates := uint(a.GetNumStates())
	current := bitset.New(numStates)
	for _, s := range a.StartStates() {
		current.Set(uint(s))
	}

	next := bitset.New(numStates)
	t := NewTransition()
	for _, c := range word {
		next.ClearAll()
		for s, ok := current.NextSet(0); ok; s, ok = current.NextSet(s + 1) {
			count := a.InitTransition(int(s), t)
			for i := 0; i < count; i++ {
				a.GetNextTransition(t)
				if t.Min > c {
					// Transitions are sorted by min label.
					break
				}
				if c <= t.Max {
					next.Set(uint(t.Dest))
				}
			}
		}
		if next.None() {
			return false
		}
		current, next = next, current
	}

	for s, ok := current.NextSet(0); ok; s, ok = current.NextSet(s + 1) {
		if a.IsAccept(int(s)) {
			return true
		}
	}
	return false
}
