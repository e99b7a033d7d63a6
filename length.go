package optifa

import (
	"context"
	"fmt"

	"github.com/geange/optifa/automaton"
	"github.com/geange/optifa/smt"
)

// LengthsIntersect reports whether x and y describe a common length, that is whether
// x.Offset + m*x.Period == y.Offset + n*y.Period for some m, n >= 0.
func LengthsIntersect(x, y automaton.FormulaEntry) bool {
	if x.Offset == y.Offset {
		return true
	}
	// x becomes the side with the longer handle; only y can grow towards it.
	if x.Offset < y.Offset {
		x, y = y, x
	}
	d := x.Offset - y.Offset
	switch {
	case y.Period == 0:
		return false
	case x.Period == 0:
		return d%y.Period == 0
	default:
		return d%gcdInt(x.Period, y.Period) == 0
	}
}

func gcdInt(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// LengthChecker decides the length abstraction: whether some accepting run from one state of each
// automaton has the same length on both sides.
type LengthChecker struct {
	mode    LengthMode
	session *smt.Session
	m, n    smt.Var
}

// NewLengthChecker returns a checker for mode. Solver options only apply to LengthSMT.
func NewLengthChecker(mode LengthMode, opts ...smt.Option) (*LengthChecker, error) {
	c := &LengthChecker{mode: mode}
	switch mode {
	case LengthExact:
	case LengthSMT:
		c.session = smt.NewSession(opts...)
		c.m = c.session.NewVar("m")
		c.n = c.session.NewVar("n")
		c.session.Assert(smt.Ge(smt.V(c.m), smt.C(0)), smt.Ge(smt.V(c.n), smt.C(0)))
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownLengthMode, int(mode))
	}
	return c, nil
}

// Check returns Sat as soon as one pair of entries shares a length and Unsat once every pair has
// been refuted. In LengthSMT mode an undecided query yields Unknown.
func (c *LengthChecker) Check(ctx context.Context, as, bs []automaton.FormulaEntry) (smt.Result, error) {
	result := smt.Unsat
	for _, x := range as {
		for _, y := range bs {
			if c.mode == LengthExact {
				if LengthsIntersect(x, y) {
					return smt.Sat, nil
				}
				continue
			}

			res, err := c.query(ctx, x, y)
			if err != nil {
				return smt.Unknown, err
			}
			switch res {
			case smt.Sat:
				return smt.Sat, nil
			case smt.Unknown:
				result = smt.Unknown
			}
		}
	}
	return result, nil
}

func (c *LengthChecker) query(ctx context.Context, x, y automaton.FormulaEntry) (smt.Result, error) {
	res := smt.Unknown
	err := c.session.WithFrame(func(f *smt.Frame) error {
		lhs := smt.V(c.m).Mul(int64(x.Period)).Plus(int64(x.Offset))
		rhs := smt.V(c.n).Mul(int64(y.Period)).Plus(int64(y.Offset))
		if err := f.Assert(smt.Eq(lhs, rhs)); err != nil {
			return err
		}
		var err error
		res, err = f.Check(ctx)
		return err
	})
	return res, err
}

// SolverStats returns the counters of the solver session, zero in LengthExact mode.
func (c *LengthChecker) SolverStats() smt.Stats {
	if c.session == nil {
		return smt.Stats{}
	}
	return c.session.Stats()
}
