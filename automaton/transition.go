package automaton

// Transition Holds one transition from an Automaton. This is typically used temporarily when iterating
// through transitions by invoking Automaton.InitTransition and Automaton.GetNextTransition.
type Transition struct {
	// Source state.
	Source int

	// Destination state.
	Dest int

	// Minimum accepted label (inclusive).
	Min int

	// Maximum accepted label (inclusive).
	Max int

	// Remembers where we are in the iteration; init to -1 to provoke exception if nextTransition is
	// called without first initTransition.
	TransitionUpto int
}

func NewTransition() *Transition {
	return &Transition{TransitionUpto: -1}
}

// Edge is a single-symbol transition. Label ranges are expanded into one Edge per symbol.
type Edge struct {
	Source int
	Dest   int
	Symbol int
}

// Edges Returns every transition of the automaton expanded to single symbols, ordered by source state,
// then symbol, then dest.
func (a *Automaton) Edges() []Edge {
	edges := make([]Edge, 0, a.GetNumTransitions())
	t := NewTransition()
	for s := 0; s < a.GetNumStates(); s++ {
		count := a.InitTransition(s, t)
		for i := 0; i < count; i++ {
			a.GetNextTransition(t)
			for sym := t.Min; sym <= t.Max; sym++ {
				edges = append(edges, Edge{Source: s, Dest: t.Dest, Symbol: sym})
			}
		}
	}
	return edges
}
