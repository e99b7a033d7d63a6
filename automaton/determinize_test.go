package automaton

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/bits-and-blooms/bitset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// randomAutomaton Returns an automaton with numStates states over numSymbols symbols, built from r.
func randomAutomaton(r *rand.Rand, numStates, numSymbols int) *Automaton {
	b := NewBuilder()
	for i := 0; i < numStates; i++ {
		b.CreateState()
		b.SetAccept(i, r.IntN(3) == 0)
	}
	b.SetStart(r.IntN(numStates), true)
	for i := 0; i < numStates*2; i++ {
		b.AddTransitionLabel(r.IntN(numStates), r.IntN(numStates), r.IntN(numSymbols))
	}
	return b.Finish()
}

func allWords(numSymbols, maxLen int) [][]int {
	words := [][]int{{}}
	frontier := [][]int{{}}
	for l := 0; l < maxLen; l++ {
		var next [][]int
		for _, w := range frontier {
			for c := 0; c < numSymbols; c++ {
				next = append(next, append(append([]int{}, w...), c))
			}
		}
		words = append(words, next...)
		frontier = next
	}
	return words
}

func TestDeterminize(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	words := allWords(2, 6)
	for i := 0; i < 50; i++ {
		a := randomAutomaton(r, 1+r.IntN(6), 2)
		d, err := Determinize(a, 0)
		require.NoError(t, err)
		assert.True(t, d.IsDeterministic())
		assert.LessOrEqual(t, len(d.StartStates()), 1)
		for _, w := range words {
			assert.Equal(t, Run(a, w), Run(d, w), "word %v", w)
		}
	}
}

func TestDeterminizeFrom(t *testing.T) {
	al := NewAlphabet()
	a := Concatenate(mustString(t, al, "ab"), mustString(t, al, "c"))

	// Seeded from the state reached after "a".
	from := a.Step(a.StartStates()[0], al.Intern("a"))
	require.NotEqual(t, -1, from)
	d, err := DeterminizeFrom(a, []int{from}, 0)
	require.NoError(t, err)
	assert.True(t, Run(d, symbols(al, "bc")))
	assert.False(t, Run(d, symbols(al, "abc")))
}

func TestDeterminize_TooComplex(t *testing.T) {
	// (a|b)*a(a|b){8}: the classic exponential blow-up.
	al := NewAlphabet()
	ab := Union(mustString(t, al, "a"), mustString(t, al, "b"))
	a := Concatenate(Repeat(ab), mustString(t, al, "a"), RepeatRange(ab, 8, 8))

	_, err := Determinize(a, 100)
	assert.True(t, errors.Is(err, ErrTooComplex))

	d, err := Determinize(a, 0)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, d.GetNumStates(), 512)
}

func TestHandleAndLoop(t *testing.T) {
	tests := []struct {
		name    string
		build   func(b *Builder)
		start   int
		entries []FormulaEntry
	}{
		{
			// 0 -> 1 -> 2, accept 2
			name: "handle only",
			build: func(b *Builder) {
				b.AddTransitionLabel(0, 1, 0)
				b.AddTransitionLabel(1, 2, 0)
				b.SetAccept(2, true)
			},
			entries: []FormulaEntry{{Offset: 2}},
		},
		{
			// 0 -> 1 -> 2 -> 1, accept 2
			name: "handle and loop",
			build: func(b *Builder) {
				b.AddTransitionLabel(0, 1, 0)
				b.AddTransitionLabel(1, 2, 0)
				b.AddTransitionLabel(2, 1, 0)
				b.SetAccept(2, true)
			},
			entries: []FormulaEntry{{Offset: 2, Period: 2}},
		},
		{
			// 0 -> 0, accept 0
			name: "accepting self loop",
			build: func(b *Builder) {
				b.AddTransitionLabel(0, 0, 0)
				b.SetAccept(0, true)
			},
			entries: []FormulaEntry{{Offset: 0, Period: 1}},
		},
		{
			// accept 0 and 2 on a loop 1 -> 2 -> 1, reached from 0
			name: "accept on handle and loop",
			build: func(b *Builder) {
				b.AddTransitionLabel(0, 1, 0)
				b.AddTransitionLabel(1, 2, 0)
				b.AddTransitionLabel(2, 1, 0)
				b.SetAccept(0, true)
				b.SetAccept(2, true)
			},
			entries: []FormulaEntry{{Offset: 0}, {Offset: 2, Period: 2}},
		},
		{
			name: "other start",
			build: func(b *Builder) {
				b.AddTransitionLabel(0, 1, 0)
				b.AddTransitionLabel(1, 2, 0)
				b.SetAccept(2, true)
			},
			start:   1,
			entries: []FormulaEntry{{Offset: 1}},
		},
		{
			name: "no accept reachable",
			build: func(b *Builder) {
				b.AddTransitionLabel(0, 1, 0)
				b.SetAccept(0, false)
			},
			entries: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuilder()
			for i := 0; i < 3; i++ {
				b.CreateState()
			}
			b.SetStart(0, true)
			tt.build(b)
			entries, err := HandleAndLoop(UnifySymbols(b.Finish(), nil), tt.start, 0)
			require.NoError(t, err)
			assert.Equal(t, tt.entries, entries)
		})
	}
}

func TestHandleAndLoop_Lengths(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 11))
	for i := 0; i < 50; i++ {
		a := randomAutomaton(r, 1+r.IntN(6), 3)
		unified := UnifySymbols(a, nil)
		start := r.IntN(a.GetNumStates())
		entries, err := HandleAndLoop(unified, start, 0)
		require.NoError(t, err)

		// Lengths accepted from start agree with the formula entries.
		single, err := DeterminizeFrom(unified, []int{start}, 0)
		require.NoError(t, err)
		for n := 0; n < 20; n++ {
			word := make([]int, n)
			described := false
			for _, e := range entries {
				described = described || e.Lengths(n)
			}
			assert.Equal(t, Run(single, word), described, "length %d", n)
		}
	}
}

func TestUnifySymbols(t *testing.T) {
	r := rand.New(rand.NewPCG(5, 13))
	words := allWords(4, 4)
	keep := bitset.New(4).Set(1).Set(3)
	project := func(w []int) []int {
		p := make([]int, len(w))
		for i, c := range w {
			if keep.Test(uint(c)) {
				p[i] = c
			}
		}
		return p
	}

	for i := 0; i < 30; i++ {
		a := randomAutomaton(r, 1+r.IntN(5), 4)
		partial := UnifySymbols(a, keep)
		full := UnifySymbols(a, nil)

		images := make(map[string]bool)
		lengths := make(map[int]bool)
		for _, w := range words {
			if Run(a, w) {
				images[fmt.Sprint(project(w))] = true
				lengths[len(w)] = true
			}
		}
		for _, w := range words {
			if slices.Contains(w, 2) {
				assert.False(t, Run(partial, w), "case %d: unified away symbol in %v", i, w)
				continue
			}
			assert.Equal(t, images[fmt.Sprint(w)], Run(partial, w), "case %d, word %v", i, w)
		}
		for n := 0; n <= 4; n++ {
			assert.Equal(t, lengths[n], Run(full, make([]int, n)), "case %d, length %d", i, n)
		}
	}
}

func TestFormulaEntry_Lengths(t *testing.T) {
	e := FormulaEntry{Offset: 3, Period: 2}
	assert.False(t, e.Lengths(1))
	assert.True(t, e.Lengths(3))
	assert.False(t, e.Lengths(4))
	assert.True(t, e.Lengths(7))

	fixed := FormulaEntry{Offset: 2}
	assert.True(t, fixed.Lengths(2))
	assert.False(t, fixed.Lengths(4))
}
