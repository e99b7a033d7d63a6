package optifa

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geange/optifa/automaton"
	"github.com/geange/optifa/smt"
)

func entry2(offset, period int) automaton.FormulaEntry {
	return automaton.FormulaEntry{Offset: offset, Period: period}
}

func TestLengthsIntersect(t *testing.T) {
	tests := []struct {
		name string
		x, y automaton.FormulaEntry
		want bool
	}{
		{"same offset", entry2(3, 0), entry2(3, 5), true},
		{"loop reaches fixed length", entry2(2, 3), entry2(2, 0), true},
		{"fixed length on loop", entry2(5, 0), entry2(2, 3), true},
		{"fixed length off loop", entry2(4, 0), entry2(2, 3), false},
		{"both fixed", entry2(4, 0), entry2(1, 0), false},
		{"shorter side fixed", entry2(7, 2), entry2(1, 0), false},
		{"coprime loops", entry2(1, 2), entry2(0, 3), true},
		{"even and odd", entry2(1, 2), entry2(0, 4), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LengthsIntersect(tt.x, tt.y))
			assert.Equal(t, tt.want, LengthsIntersect(tt.y, tt.x))
		})
	}
}

func bruteLengths(x, y automaton.FormulaEntry, bound int) bool {
	for m := 0; m <= bound; m++ {
		for n := 0; n <= bound; n++ {
			if x.Offset+m*x.Period == y.Offset+n*y.Period {
				return true
			}
		}
	}
	return false
}

func TestLengthsIntersect_BruteForce(t *testing.T) {
	for xo := 0; xo < 7; xo++ {
		for xp := 0; xp < 5; xp++ {
			for yo := 0; yo < 7; yo++ {
				for yp := 0; yp < 5; yp++ {
					x, y := entry2(xo, xp), entry2(yo, yp)
					assert.Equal(t, bruteLengths(x, y, 30), LengthsIntersect(x, y), "%v %v", x, y)
				}
			}
		}
	}
}

func TestNewLengthChecker_UnknownMode(t *testing.T) {
	_, err := NewLengthChecker(LengthMode(7))
	assert.ErrorIs(t, err, ErrUnknownLengthMode)
}

func TestLengthChecker_Check(t *testing.T) {
	ctx := context.Background()
	for _, mode := range []LengthMode{LengthExact, LengthSMT} {
		t.Run(mode.String(), func(t *testing.T) {
			c, err := NewLengthChecker(mode)
			require.NoError(t, err)

			res, err := c.Check(ctx, []automaton.FormulaEntry{entry2(4, 0)}, []automaton.FormulaEntry{entry2(2, 3)})
			require.NoError(t, err)
			assert.Equal(t, smt.Unsat, res)

			res, err = c.Check(ctx,
				[]automaton.FormulaEntry{entry2(4, 0), entry2(5, 0)},
				[]automaton.FormulaEntry{entry2(2, 3)})
			require.NoError(t, err)
			assert.Equal(t, smt.Sat, res)

			res, err = c.Check(ctx, nil, []automaton.FormulaEntry{entry2(0, 1)})
			require.NoError(t, err)
			assert.Equal(t, smt.Unsat, res)
		})
	}
}

func TestLengthChecker_ModesAgree(t *testing.T) {
	ctx := context.Background()
	exact, err := NewLengthChecker(LengthExact)
	require.NoError(t, err)
	solver, err := NewLengthChecker(LengthSMT)
	require.NoError(t, err)

	r := rand.New(rand.NewPCG(5, 6))
	for i := 0; i < 200; i++ {
		as := []automaton.FormulaEntry{entry2(r.IntN(8), r.IntN(5))}
		bs := []automaton.FormulaEntry{entry2(r.IntN(8), r.IntN(5))}
		want, err := exact.Check(ctx, as, bs)
		require.NoError(t, err)
		got, err := solver.Check(ctx, as, bs)
		require.NoError(t, err)
		assert.Equal(t, want, got, "%v %v", as, bs)
	}
	assert.Equal(t, smt.Stats{}, exact.SolverStats())
	assert.Equal(t, 200, solver.SolverStats().Checks)
}
