package automaton

// Automata Factory for small automata. Every automaton it returns has at most one start state.
type Automata struct {
}

var defaultAutomata = &Automata{}

// MakeEmpty
// Returns a new (deterministic) automaton with the empty language.
func (*Automata) MakeEmpty() *Automaton {
	a := NewAutomaton()
	a.FinishState()
	return a
}

// MakeEmptyString
// Returns a new (deterministic) automaton that accepts only the empty string.
func (*Automata) MakeEmptyString() *Automaton {
	a := NewAutomaton()
	s := a.CreateState()
	a.SetStart(s, true)
	a.SetAccept(s, true)
	return a
}

// MakeSymbolRange
// Returns a new (deterministic) automaton that accepts a single symbol in [min, max].
func (*Automata) MakeSymbolRange(min, max int) (*Automaton, error) {
	a := NewAutomaton()
	s1 := a.CreateState()
	s2 := a.CreateState()
	a.SetStart(s1, true)
	a.SetAccept(s2, true)
	if err := a.AddTransition(s1, s2, min, max); err != nil {
		return nil, err
	}
	a.FinishState()
	return a, nil
}

// MakeString
// Returns a new (deterministic) automaton that accepts exactly the given word.
func (*Automata) MakeString(word []int) (*Automaton, error) {
	a := NewAutomatonV1(len(word)+1, len(word))
	last := a.CreateState()
	a.SetStart(last, true)
	for _, c := range word {
		state := a.CreateState()
		if err := a.AddTransitionLabel(last, state, c); err != nil {
			return nil, err
		}
		last = state
	}
	a.SetAccept(last, true)
	a.FinishState()
	return a, nil
}

// MakeAnyString
// Returns a new (deterministic) automaton that accepts all strings over the symbols [0, numSymbols).
func (*Automata) MakeAnyString(numSymbols int) (*Automaton, error) {
	a := NewAutomaton()
	s := a.CreateState()
	a.SetStart(s, true)
	a.SetAccept(s, true)
	if numSymbols > 0 {
		if err := a.AddTransition(s, s, 0, numSymbols-1); err != nil {
			return nil, err
		}
	}
	a.FinishState()
	return a, nil
}
