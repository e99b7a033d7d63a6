package automaton

import (
	"fmt"
	"sort"
)

// Determinize Determinizes the given automaton from all of its start states.
// Worst case complexity: exponential in number of states.
// Params: 	workLimit – Maximum amount of "work" that the powerset construction will spend before
//
//	returning ErrTooComplex; 0 or less means DefaultDeterminizeWorkLimit.
func Determinize(a *Automaton, workLimit int) (*Automaton, error) {
	a.FinishState()
	if a.IsDeterministic() && len(a.StartStates()) == 1 {
		return a, nil
	}
	return DeterminizeFrom(a, a.StartStates(), workLimit)
}

// DeterminizeFrom Subset construction seeded with the given start states instead of the automaton's own.
// The result has exactly one start state, state 0, and only states reachable from it.
func DeterminizeFrom(a *Automaton, starts []int, workLimit int) (*Automaton, error) {
	a.FinishState()
	if workLimit <= 0 {
		workLimit = DefaultDeterminizeWorkLimit
	}

	points := a.GetStartPoints()
	b := NewBuilder()

	initialSet := FreezeStates(starts, 0)
	b.CreateState()
	b.SetStart(0, true)
	b.SetAccept(0, anyAccept(a, initialSet.GetArray()))

	newState := NewHashMap[int](WithCapacity(16))
	newState.Set(initialSet, 0)
	worklist := []*FrozenIntSet{initialSet}

	// dests[i] collects the destinations on labels [points[i], points[i+1]-1].
	dests := make([][]int, len(points))
	live := NewStateSet()
	t := NewTransition()
	effort := 0

	for len(worklist) > 0 {
		s := worklist[0]
		worklist = worklist[1:]

		for i := range dests {
			dests[i] = dests[i][:0]
		}

		for _, q := range s.GetArray() {
			count := a.InitTransition(q, t)
			for i := 0; i < count; i++ {
				a.GetNextTransition(t)
				lo := sort.SearchInts(points, t.Min)
				hi := sort.SearchInts(points, t.Max+1)
				for p := lo; p < hi; p++ {
					dests[p] = append(dests[p], t.Dest)
				}
				effort += hi - lo
			}
		}
		if effort > workLimit {
			return nil, fmt.Errorf("subset construction over %d states: %w", a.GetNumStates(), ErrTooComplex)
		}

		for p, d := range dests {
			if len(d) == 0 {
				continue
			}
			live.Reset()
			for _, q := range d {
				live.Incr(q)
			}
			dest, ok := newState.Get(live)
			if !ok {
				dest = b.CreateState()
				set := live.Freeze(dest)
				b.SetAccept(dest, anyAccept(a, set.GetArray()))
				newState.Set(set, dest)
				worklist = append(worklist, set)
			}
			b.AddTransition(s.State(), dest, points[p], points[p+1]-1)
		}
	}

	return b.Finish(), nil
}

func anyAccept(a *Automaton, states []int) bool {
	for _, s := range states {
		if a.IsAccept(s) {
			return true
		}
	}
	return false
}
