package optifa

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geange/optifa/automaton"
	"github.com/geange/optifa/smt"
)

// build returns an automaton with states 0..n-1, the given start and accepting states and one
// transition per {source, symbol, dest} triple.
func build(n int, starts, accepts []int, edges ...[3]int) *automaton.Automaton {
	b := automaton.NewBuilder()
	for i := 0; i < n; i++ {
		b.CreateState()
	}
	for _, s := range starts {
		b.SetStart(s, true)
	}
	for _, s := range accepts {
		b.SetAccept(s, true)
	}
	for _, e := range edges {
		b.AddTransitionLabel(e[0], e[2], e[1])
	}
	return b.Finish()
}

const (
	symA = 0
	symB = 1
)

func TestParikhChecker_Trivial(t *testing.T) {
	a := build(1, []int{0}, []int{0})
	b := build(1, []int{0}, []int{0})
	c := NewParikhChecker(a, b, nil)

	res, err := c.Check(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Equal(t, smt.Sat, res)
	assert.Equal(t, ParikhStats{Trivial: 1}, c.Stats())
	assert.Equal(t, 0, c.SolverStats().Checks)
}

func TestParikhChecker_SymbolCounts(t *testing.T) {
	ctx := context.Background()

	// a+ against b+
	a := build(2, []int{0}, []int{1}, [3]int{0, symA, 1}, [3]int{1, symA, 1})
	b := build(2, []int{0}, []int{1}, [3]int{0, symB, 1}, [3]int{1, symB, 1})
	c := NewParikhChecker(a, b, nil)
	res, err := c.Check(ctx, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, smt.Unsat, res)

	// (ab)* against ab
	a = build(2, []int{0}, []int{0}, [3]int{0, symA, 1}, [3]int{1, symB, 0})
	b = build(3, []int{0}, []int{2}, [3]int{0, symA, 1}, [3]int{1, symB, 2})
	c = NewParikhChecker(a, b, nil)
	tests := []struct {
		stateA, stateB int
		want           smt.Result
	}{
		{0, 0, smt.Sat},
		{1, 1, smt.Sat},
		{1, 0, smt.Unsat},
		{0, 1, smt.Unsat},
	}
	for _, tt := range tests {
		res, err := c.Check(ctx, tt.stateA, tt.stateB)
		require.NoError(t, err)
		assert.Equal(t, tt.want, res, "(%d, %d)", tt.stateA, tt.stateB)
	}
	stats := c.Stats()
	assert.Equal(t, 2, stats.Sat)
	assert.Equal(t, 2, stats.Unsat)
	assert.Equal(t, 4, c.SolverStats().Checks)
}

func TestParikhChecker_Connectivity(t *testing.T) {
	// a with a b-loop that no run from 0 can enter, against ab
	a := build(3, []int{0}, []int{1}, [3]int{0, symA, 1}, [3]int{2, symB, 2})
	b := build(3, []int{0}, []int{2}, [3]int{0, symA, 1}, [3]int{1, symB, 2})

	tests := []struct {
		name string
		opts []Option
		want smt.Result
	}{
		{"reverse", nil, smt.Unsat},
		{"forward", []Option{WithReverseLengths(false)}, smt.Unsat},
		{"flow only", []Option{WithZConstraints(false)}, smt.Sat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewParikhChecker(a, b, NewConfig(tt.opts...))
			res, err := c.Check(context.Background(), 0, 0)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res)
		})
	}
}

func TestParikhChecker_FramesDoNotLeak(t *testing.T) {
	ctx := context.Background()
	a := build(2, []int{0}, []int{0}, [3]int{0, symA, 1}, [3]int{1, symB, 0})
	b := build(3, []int{0}, []int{2}, [3]int{0, symA, 1}, [3]int{1, symB, 2})
	c := NewParikhChecker(a, b, nil)

	for i := 0; i < 3; i++ {
		res, err := c.Check(ctx, 1, 0)
		require.NoError(t, err)
		assert.Equal(t, smt.Unsat, res)
		res, err = c.Check(ctx, 0, 0)
		require.NoError(t, err)
		assert.Equal(t, smt.Sat, res)
	}
}
