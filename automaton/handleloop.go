package automaton

import "github.com/bits-and-blooms/bitset"

// FormulaEntry Describes the lengths of the runs reaching one accepting state of a handle and loop
// automaton: Offset + k*Period for every k >= 0. Period 0 means the state lies on the handle and is
// reached by exactly one length.
type FormulaEntry struct {
	Offset int
	Period int
}

// Lengths Reports whether n is one of the lengths described by e.
func (e FormulaEntry) Lengths(n int) bool {
	if n < e.Offset {
		return false
	}
	if e.Period == 0 {
		return n == e.Offset
	}
	return (n-e.Offset)%e.Period == 0
}

// UnifySymbols Returns a copy of a in which every symbol outside keep is replaced by one unified
// symbol, the smallest symbol not in keep. Symbols in keep are left alone. The start and accept states
// are kept. With a nil or empty keep every transition carries symbol 0 and the language of the copy is
// the set of word lengths accepted by a.
func UnifySymbols(a *Automaton, keep *bitset.BitSet) *Automaton {
	a.FinishState()
	unified := 0
	if keep != nil {
		u, _ := keep.NextClear(0)
		unified = int(u)
	}

	b := NewBuilder()
	for s := 0; s < a.GetNumStates(); s++ {
		b.CreateState()
		b.SetAccept(s, a.IsAccept(s))
		b.SetStart(s, a.IsStart(s))
	}

	t := NewTransition()
	for s := 0; s < a.GetNumStates(); s++ {
		count := a.InitTransition(s, t)
		for i := 0; i < count; i++ {
			a.GetNextTransition(t)
			if keep == nil || keep.None() {
				b.AddTransitionLabel(s, t.Dest, unified)
				continue
			}
			for c := t.Min; c <= t.Max; c++ {
				if keep.Test(uint(c)) {
					b.AddTransitionLabel(s, t.Dest, c)
				} else {
					b.AddTransitionLabel(s, t.Dest, unified)
				}
			}
		}
	}
	return b.Finish()
}

// HandleAndLoop Determinizes unified (an automaton over the single symbol 0, see UnifySymbols) from
// start and returns one FormulaEntry per accepting state of the result, ordered by offset. A
// deterministic automaton over one symbol is a path, the handle, that may close into a single cycle,
// the loop. Returns no entries when no accepting state is reachable.
func HandleAndLoop(unified *Automaton, start, workLimit int) ([]FormulaEntry, error) {
	det, err := DeterminizeFrom(unified, []int{start}, workLimit)
	if err != nil {
		return nil, err
	}

	// Walk the lasso, numbering states by their distance from the start.
	position := make(map[int]int)
	path := make([]int, 0, det.GetNumStates())
	loopStart := -1
	for s := 0; s != -1; s = det.Step(s, 0) {
		if p, ok := position[s]; ok {
			loopStart = p
			break
		}
		position[s] = len(path)
		path = append(path, s)
	}

	period := 0
	if loopStart >= 0 {
		period = len(path) - loopStart
	}

	var entries []FormulaEntry
	for i, s := range path {
		if !det.IsAccept(s) {
			continue
		}
		entry := FormulaEntry{Offset: i}
		if loopStart >= 0 && i >= loopStart {
			entry.Period = period
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
