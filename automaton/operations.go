package automaton

import (
	"github.com/bits-and-blooms/bitset"
)

// IsEmptyAutomaton
// Returns true if the given automaton accepts no strings.
func IsEmptyAutomaton(a *Automaton) bool {
	a.FinishState()
	starts := a.StartStates()
	if len(starts) == 0 || a.isAccept.None() {
		// Common case: nothing to start from or nothing to reach
		return true
	}

	workList := make([]int, 0, len(starts))
	seen := bitset.New(uint(a.GetNumStates()))
	for _, s := range starts {
		workList = append(workList, s)
		seen.Set(uint(s))
	}

	t := NewTransition()
	for len(workList) > 0 {
		state := workList[0]
		workList = workList[1:]

		if a.IsAccept(state) {
			return false
		}

		count := a.InitTransition(state, t)
		for i := 0; i < count; i++ {
			a.GetNextTransition(t)
			if !seen.Test(uint(t.Dest)) {
				workList = append(workList, t.Dest)
				seen.Set(uint(t.Dest))
			}
		}
	}
	return true
}

// Trim Returns a copy of a without useless states: states not reachable from a start state or from
// which no accept state is reachable. The second result maps each state of a to its state in the copy,
// or -1 if it was removed.
func Trim(a *Automaton) (*Automaton, []int) {
	a.FinishState()
	numStates := a.GetNumStates()
	liveSet := getLiveStates(a)

	mp := make([]int, numStates)

	result := NewAutomatonV1(int(liveSet.Count()), a.GetNumTransitions())
	for i := 0; i < numStates; i++ {
		mp[i] = -1
		if liveSet.Test(uint(i)) {
			mp[i] = result.CreateState()
			result.SetAccept(mp[i], a.IsAccept(i))
			result.SetStart(mp[i], a.IsStart(i))
		}
	}

	t := NewTransition()
	for i := 0; i < numStates; i++ {
		if !liveSet.Test(uint(i)) {
			continue
		}
		numTransitions := a.InitTransition(i, t)
		// filter out transitions to dead states:
		for j := 0; j < numTransitions; j++ {
			a.GetNextTransition(t)
			if liveSet.Test(uint(t.Dest)) {
				// Kept states are visited in ascending order, so this cannot fail.
				_ = result.AddTransition(mp[i], mp[t.Dest], t.Min, t.Max)
			}
		}
	}

	result.FinishState()
	return result, mp
}

func getLiveStates(a *Automaton) *bitset.BitSet {
	live := getLiveStatesFromInitial(a)
	live.InPlaceIntersection(getLiveStatesToAccept(a))
	return live
}

func getLiveStatesFromInitial(a *Automaton) *bitset.BitSet {
	numStates := a.GetNumStates()
	live := bitset.New(uint(numStates))
	workList := a.StartStates()
	for _, s := range workList {
		live.Set(uint(s))
	}

	t := NewTransition()
	for len(workList) > 0 {
		s := workList[0]
		workList = workList[1:]
		count := a.InitTransition(s, t)
		for i := 0; i < count; i++ {
			a.GetNextTransition(t)
			if !live.Test(uint(t.Dest)) {
				live.Set(uint(t.Dest))
				workList = append(workList, t.Dest)
			}
		}
	}

	return live
}

func getLiveStatesToAccept(a *Automaton) *bitset.BitSet {
	numStates := a.GetNumStates()

	// Reverse adjacency, one slice of sources per state.
	sources := make([][]int, numStates)
	t := NewTransition()
	for s := 0; s < numStates; s++ {
		count := a.InitTransition(s, t)
		for i := 0; i < count; i++ {
			a.GetNextTransition(t)
			sources[t.Dest] = append(sources[t.Dest], s)
		}
	}

	live := bitset.New(uint(numStates))
	workList := a.AcceptStates()
	for _, s := range workList {
		live.Set(uint(s))
	}
	for len(workList) > 0 {
		s := workList[0]
		workList = workList[1:]
		for _, src := range sources[s] {
			if !live.Test(uint(src)) {
				live.Set(uint(src))
				workList = append(workList, src)
			}
		}
	}
	return live
}

// Union Returns an automaton that accepts the union of the languages of the given automata. Every start
// state of every operand stays a start state, so no new initial state is needed.
func Union(automata ...*Automaton) *Automaton {
	builder := NewBuilder()
	for _, a := range automata {
		builder.Copy(a)
	}
	return builder.Finish()
}

// Concatenate Returns an automaton that accepts the concatenation of the languages of the given
// automata, in order. With no operands the result accepts only the empty string.
func Concatenate(automata ...*Automaton) *Automaton {
	if len(automata) == 0 {
		return defaultAutomata.MakeEmptyString()
	}

	builder := NewBuilder()
	offsets := make([]int, len(automata))
	for i, a := range automata {
		offsets[i] = builder.CopyStates(a)
	}

	for _, s := range automata[0].StartStates() {
		builder.SetStart(offsets[0]+s, true)
	}

	// Accept states of each operand lead into the start states of the next one.
	for i := 0; i+1 < len(automata); i++ {
		for _, acc := range automata[i].AcceptStates() {
			builder.SetAccept(offsets[i]+acc, false)
			for _, st := range automata[i+1].StartStates() {
				builder.AddEpsilon(offsets[i]+acc, offsets[i+1]+st)
			}
		}
	}

	return builder.Finish()
}

// Optional Returns an automaton that accepts the language of a plus the empty string.
func Optional(a *Automaton) *Automaton {
	return Union(a, defaultAutomata.MakeEmptyString())
}

// Repeat Returns an automaton that accepts the Kleene star of the language of a.
func Repeat(a *Automaton) *Automaton {
	builder := NewBuilder()
	hub := builder.CreateState()
	builder.SetStart(hub, true)
	builder.SetAccept(hub, true)
	offset := builder.CopyStates(a)

	for _, s := range a.StartStates() {
		builder.AddEpsilon(hub, offset+s)
	}
	for _, s := range a.AcceptStates() {
		builder.AddEpsilon(offset+s, hub)
	}
	return builder.Finish()
}

// RepeatMin Returns an automaton that accepts min or more concatenated repetitions of the language of a.
func RepeatMin(a *Automaton, min int) *Automaton {
	as := make([]*Automaton, 0, min+1)
	for i := 0; i < min; i++ {
		as = append(as, a)
	}
	as = append(as, Repeat(a))
	return Concatenate(as...)
}

// RepeatRange Returns an automaton that accepts between min and max (inclusive) concatenated
// repetitions of the language of a.
func RepeatRange(a *Automaton, min, max int) *Automaton {
	if min > max {
		return defaultAutomata.MakeEmpty()
	}

	as := make([]*Automaton, 0, max)
	for i := 0; i < min; i++ {
		as = append(as, a)
	}
	optional := Optional(a)
	for i := min; i < max; i++ {
		as = append(as, optional)
	}
	return Concatenate(as...)
}

// Totalize Returns a copy of a with a dead state added so that every state has a transition for every
// symbol in [0, maxSymbol].
func Totalize(a *Automaton, maxSymbol int) *Automaton {
	a.FinishState()
	numStates := a.GetNumStates()
	result := NewAutomatonV1(numStates+1, a.GetNumTransitions()+numStates)
	for i := 0; i < numStates; i++ {
		result.CreateState()
		result.SetAccept(i, a.IsAccept(i))
		result.SetStart(i, a.IsStart(i))
	}
	deadState := result.CreateState()
	if numStates == 0 {
		result.SetStart(deadState, true)
	}

	t := NewTransition()
	for i := 0; i < numStates; i++ {
		maxi := 0
		count := a.InitTransition(i, t)
		for j := 0; j < count; j++ {
			a.GetNextTransition(t)
			if t.Min > maxSymbol {
				break
			}
			_ = result.AddTransition(i, t.Dest, t.Min, min(t.Max, maxSymbol))
			if t.Min > maxi {
				_ = result.AddTransition(i, deadState, maxi, t.Min-1)
			}
			if t.Max+1 > maxi {
				maxi = t.Max + 1
			}
		}

		if maxi <= maxSymbol {
			_ = result.AddTransition(i, deadState, maxi, maxSymbol)
		}
	}
	_ = result.AddTransition(deadState, deadState, 0, maxSymbol)

	result.FinishState()
	return result
}

// Complement Returns an automaton accepting every string over [0, maxSymbol] that a does not accept.
func Complement(a *Automaton, maxSymbol, workLimit int) (*Automaton, error) {
	det, err := Determinize(a, workLimit)
	if err != nil {
		return nil, err
	}
	total := Totalize(det, maxSymbol)
	for p := 0; p < total.GetNumStates(); p++ {
		total.SetAccept(p, !total.IsAccept(p))
	}
	trimmed, _ := Trim(total)
	return trimmed, nil
}

// Intersection Builds the product of a1 and a2 pair by pair from the start state pairs, following every
// pair of transitions with overlapping labels. This is the plain product construction with no pruning.
// When breakWhenFinal is set, construction stops at the first pair of accept states. The second result
// holds the (a1 state, a2 state) pair of every state of the product.
func Intersection(a1, a2 *Automaton, breakWhenFinal bool) (*Automaton, [][2]int) {
	a1.FinishState()
	a2.FinishState()

	builder := NewBuilder()
	ids := make(map[[2]int]int)
	var pairs [][2]int
	var workList [][2]int

	add := func(p [2]int) int {
		if id, ok := ids[p]; ok {
			return id
		}
		id := builder.CreateState()
		ids[p] = id
		pairs = append(pairs, p)
		builder.SetAccept(id, a1.IsAccept(p[0]) && a2.IsAccept(p[1]))
		workList = append(workList, p)
		return id
	}

	for _, s1 := range a1.StartStates() {
		for _, s2 := range a2.StartStates() {
			builder.SetStart(add([2]int{s1, s2}), true)
		}
	}

	t1 := NewTransition()
	t2 := NewTransition()
	for len(workList) > 0 {
		p := workList[0]
		workList = workList[1:]
		src := ids[p]
		if breakWhenFinal && builder.IsAccept(src) {
			break
		}

		n1 := a1.InitTransition(p[0], t1)
		for i := 0; i < n1; i++ {
			a1.GetNextTransition(t1)
			n2 := a2.InitTransition(p[1], t2)
			for j := 0; j < n2; j++ {
				a2.GetNextTransition(t2)
				lo, hi := max(t1.Min, t2.Min), min(t1.Max, t2.Max)
				if lo > hi {
					continue
				}
				dest := add([2]int{t1.Dest, t2.Dest})
				builder.AddTransition(src, dest, lo, hi)
			}
		}
	}

	return builder.Finish(), pairs
}

// Remap Relabels every transition of a through classOf: symbol c becomes classOf[c]. Symbols outside
// classOf, or mapped to a negative class, are dropped.
func Remap(a *Automaton, classOf []int) *Automaton {
	a.FinishState()
	builder := NewBuilder()
	for s := 0; s < a.GetNumStates(); s++ {
		builder.CreateState()
		builder.SetAccept(s, a.IsAccept(s))
		builder.SetStart(s, a.IsStart(s))
	}

	t := NewTransition()
	for s := 0; s < a.GetNumStates(); s++ {
		count := a.InitTransition(s, t)
		for i := 0; i < count; i++ {
			a.GetNextTransition(t)
			for c := t.Min; c <= t.Max && c < len(classOf); c++ {
				if classOf[c] >= 0 {
					builder.AddTransitionLabel(s, t.Dest, classOf[c])
				}
			}
		}
	}
	return builder.Finish()
}

// LabelSets Returns, for every (source, dest) pair of states joined by at least one transition, the
// set of symbols labelling those transitions.
func LabelSets(a *Automaton) []*bitset.BitSet {
	a.FinishState()
	var result []*bitset.BitSet
	t := NewTransition()
	for s := 0; s < a.GetNumStates(); s++ {
		byDest := make(map[int]*bitset.BitSet)
		var order []int
		count := a.InitTransition(s, t)
		for i := 0; i < count; i++ {
			a.GetNextTransition(t)
			set, ok := byDest[t.Dest]
			if !ok {
				set = bitset.New(uint(t.Max + 1))
				byDest[t.Dest] = set
				order = append(order, t.Dest)
			}
			for c := t.Min; c <= t.Max; c++ {
				set.Set(uint(c))
			}
		}
		for _, d := range order {
			result = append(result, byDest[d])
		}
	}
	return result
}
