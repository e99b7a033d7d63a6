package automaton

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// symbols Interns every character of s and returns the ids.
func symbols(al *Alphabet, s string) []int {
	ids := make([]int, 0, len(s))
	for _, c := range s {
		ids = append(ids, al.Intern(string(c)))
	}
	return ids
}

func TestAutomaton_CreateState(t *testing.T) {
	a := NewAutomaton()
	assert.Equal(t, 0, a.CreateState())
	assert.Equal(t, 1, a.CreateState())
	assert.Equal(t, 2, a.CreateState())
	assert.Equal(t, 3, a.GetNumStates())
}

func TestAutomaton_StartAndAccept(t *testing.T) {
	a := NewAutomaton()
	s0 := a.CreateState()
	s1 := a.CreateState()
	s2 := a.CreateState()

	a.SetStart(s0, true)
	assert.True(t, a.IsDeterministic())
	a.SetStart(s2, true)
	assert.False(t, a.IsDeterministic())
	a.SetAccept(s1, true)

	assert.Equal(t, []int{0, 2}, a.StartStates())
	assert.Equal(t, []int{1}, a.AcceptStates())
	assert.True(t, a.IsStart(s2))
	assert.False(t, a.IsAccept(s2))
}

func TestAutomaton_AddTransition(t *testing.T) {
	t.Run("out of bounds", func(t *testing.T) {
		a := NewAutomaton()
		s := a.CreateState()
		assert.Error(t, a.AddTransition(s, 5, 0, 0))
		assert.Error(t, a.AddTransition(-1, s, 0, 0))
		assert.Error(t, a.AddTransition(s, s, 3, 1))
	})

	t.Run("source revisited", func(t *testing.T) {
		a := NewAutomaton()
		s0 := a.CreateState()
		s1 := a.CreateState()
		require.NoError(t, a.AddTransitionLabel(s0, s1, 0))
		require.NoError(t, a.AddTransitionLabel(s1, s0, 0))
		assert.Error(t, a.AddTransitionLabel(s0, s0, 1))
	})

	t.Run("adjacent ranges are merged", func(t *testing.T) {
		a := NewAutomaton()
		s0 := a.CreateState()
		s1 := a.CreateState()
		require.NoError(t, a.AddTransition(s0, s1, 3, 4))
		require.NoError(t, a.AddTransition(s0, s1, 0, 2))
		require.NoError(t, a.AddTransition(s0, s1, 7, 7))
		a.FinishState()

		assert.Equal(t, 2, a.GetNumTransitionsWithState(s0))
		tr := NewTransition()
		a.getTransition(s0, 0, tr)
		assert.Equal(t, []int{0, 4}, []int{tr.Min, tr.Max})
		a.getTransition(s0, 1, tr)
		assert.Equal(t, []int{7, 7}, []int{tr.Min, tr.Max})
		assert.True(t, a.IsDeterministic())
	})

	t.Run("overlapping labels are nondeterministic", func(t *testing.T) {
		a := NewAutomaton()
		s0 := a.CreateState()
		s1 := a.CreateState()
		require.NoError(t, a.AddTransition(s0, s0, 0, 1))
		require.NoError(t, a.AddTransition(s0, s1, 1, 1))
		a.FinishState()
		assert.False(t, a.IsDeterministic())
	})
}

func TestAutomaton_Step(t *testing.T) {
	a := NewAutomaton()
	s0 := a.CreateState()
	s1 := a.CreateState()
	s2 := a.CreateState()
	require.NoError(t, a.AddTransition(s0, s1, 0, 2))
	require.NoError(t, a.AddTransition(s0, s2, 5, 9))
	a.FinishState()

	assert.Equal(t, s1, a.Step(s0, 1))
	assert.Equal(t, s2, a.Step(s0, 9))
	assert.Equal(t, -1, a.Step(s0, 4))
	assert.Equal(t, -1, a.Step(s1, 0))

	tr := NewTransition()
	tr.Source = s0
	assert.Equal(t, s2, a.Next(tr, 6))
	assert.Equal(t, 5, tr.Min)
	assert.Equal(t, 9, tr.Max)
}

func TestAutomaton_Copy(t *testing.T) {
	other := NewAutomaton()
	o0 := other.CreateState()
	o1 := other.CreateState()
	other.SetStart(o0, true)
	other.SetAccept(o1, true)
	require.NoError(t, other.AddTransitionLabel(o0, o1, 4))
	other.FinishState()

	a := NewAutomaton()
	a.CreateState()
	offset := a.Copy(other)

	assert.Equal(t, 1, offset)
	assert.Equal(t, 3, a.GetNumStates())
	assert.True(t, a.IsStart(1))
	assert.True(t, a.IsAccept(2))
	assert.Equal(t, 2, a.Step(1, 4))
	assert.Equal(t, 0, a.GetNumTransitionsWithState(0))
}

func TestAutomaton_GetStartPoints(t *testing.T) {
	a := NewAutomaton()
	s0 := a.CreateState()
	s1 := a.CreateState()
	require.NoError(t, a.AddTransition(s0, s1, 2, 4))
	require.NoError(t, a.AddTransition(s1, s0, 3, 7))
	a.FinishState()

	assert.Equal(t, []int{0, 2, 3, 5, 8}, a.GetStartPoints())
	assert.Equal(t, 7, a.MaxSymbol())
	assert.Equal(t, -1, NewAutomaton().MaxSymbol())
}

func TestAutomaton_Edges(t *testing.T) {
	a := NewAutomaton()
	s0 := a.CreateState()
	s1 := a.CreateState()
	require.NoError(t, a.AddTransition(s0, s1, 1, 2))
	a.FinishState()

	assert.Equal(t, []Edge{{Source: 0, Dest: 1, Symbol: 1}, {Source: 0, Dest: 1, Symbol: 2}}, a.Edges())
}

func TestAlphabet(t *testing.T) {
	al := NewAlphabet()
	assert.Equal(t, 0, al.Intern("a"))
	assert.Equal(t, 1, al.Intern("bb"))
	assert.Equal(t, 0, al.Intern("a"))
	assert.Equal(t, 2, al.Len())

	id, ok := al.Lookup("bb")
	assert.True(t, ok)
	assert.Equal(t, 1, id)
	_, ok = al.Lookup("c")
	assert.False(t, ok)

	assert.Equal(t, "#7", al.Name(7))
	assert.Equal(t, "a.bb", al.Word([]int{0, 1}, "."))
	assert.Equal(t, "#3", (*Alphabet)(nil).Name(3))
}
