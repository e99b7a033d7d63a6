package optifa

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/geange/optifa/automaton"
	"github.com/geange/optifa/smt"
)

// parikhSide holds the variables of one automaton in the Parikh encoding. Edge counts y, state
// balances u, connectivity depths z and one selector e per accepting state.
type parikhSide struct {
	a      *automaton.Automaton
	edges  []automaton.Edge
	in     [][]int
	out    [][]int
	finals []int

	y []smt.Var
	u []smt.Var
	z []smt.Var
	e map[int]smt.Var
}

func newParikhSide(s *smt.Session, prefix string, a *automaton.Automaton) *parikhSide {
	a.FinishState()
	n := a.GetNumStates()
	side := &parikhSide{
		a:      a,
		edges:  a.Edges(),
		in:     make([][]int, n),
		out:    make([][]int, n),
		finals: a.AcceptStates(),
		u:      make([]smt.Var, n),
		z:      make([]smt.Var, n),
		e:      make(map[int]smt.Var),
	}
	side.y = make([]smt.Var, len(side.edges))
	for i, edge := range side.edges {
		side.y[i] = s.NewVar(fmt.Sprintf("%s_y_%d_%d_%d", prefix, edge.Source, edge.Symbol, edge.Dest))
		side.out[edge.Source] = append(side.out[edge.Source], i)
		side.in[edge.Dest] = append(side.in[edge.Dest], i)
	}
	for q := 0; q < n; q++ {
		side.u[q] = s.NewVar(fmt.Sprintf("%s_u_%d", prefix, q))
		side.z[q] = s.NewVar(fmt.Sprintf("%s_z_%d", prefix, q))
	}
	for _, f := range side.finals {
		side.e[f] = s.NewVar(fmt.Sprintf("%s_e_%d", prefix, f))
	}
	return side
}

func (p *parikhSide) sum(edges []int) smt.Expr {
	vs := make([]smt.Var, len(edges))
	for i, t := range edges {
		vs[i] = p.y[t]
	}
	return smt.Sum(vs...)
}

func (p *parikhSide) unused(edges []int) smt.Formula {
	fs := make([]smt.Formula, len(edges))
	for i, t := range edges {
		fs[i] = smt.Eq(smt.V(p.y[t]), smt.C(0))
	}
	return smt.And(fs...)
}

// persistent returns the constraints that do not depend on the chosen start state.
func (p *parikhSide) persistent(reverseZ bool) []smt.Formula {
	var fs []smt.Formula
	for q := range p.u {
		// u_q + in - out = 0
		fs = append(fs, smt.Eq(smt.V(p.u[q]).Add(p.sum(p.in[q])).Sub(p.sum(p.out[q])), smt.C(0)))
	}
	for _, y := range p.y {
		fs = append(fs, smt.Ge(smt.V(y), smt.C(0)))
	}

	selectors := make([]smt.Var, 0, len(p.finals))
	for _, f := range p.finals {
		e := p.e[f]
		selectors = append(selectors, e)
		fs = append(fs, smt.Ge(smt.V(e), smt.C(0)), smt.Le(smt.V(e), smt.C(1)))
	}
	if len(selectors) > 0 {
		fs = append(fs, smt.Eq(smt.Sum(selectors...), smt.C(1)))
	}

	if reverseZ {
		fs = append(fs, p.reverseDepths()...)
	}
	return fs
}

// reverseDepths numbers every state used by the run with its distance to the chosen accepting state
// plus one, and every unused state with 0.
func (p *parikhSide) reverseDepths() []smt.Formula {
	fs := make([]smt.Formula, 0, len(p.z))
	for q, zq := range p.z {
		var options []smt.Formula
		if e, ok := p.e[q]; ok {
			options = append(options, smt.And(smt.Eq(smt.V(e), smt.C(1)), smt.Eq(smt.V(zq), smt.C(1))))
		}
		options = append(options, smt.And(smt.Eq(smt.V(zq), smt.C(0)), p.unused(p.out[q])))
		for _, t := range p.out[q] {
			zr := p.z[p.edges[t].Dest]
			options = append(options, smt.And(
				smt.Ge(smt.V(p.y[t]), smt.C(1)),
				smt.Ge(smt.V(zr), smt.C(1)),
				smt.Eq(smt.V(zq), smt.V(zr).Plus(1)),
			))
		}
		fs = append(fs, smt.Or(options...))
	}
	return fs
}

// forwardDepths numbers every state used by the run with its distance from start plus one.
func (p *parikhSide) forwardDepths(start int) []smt.Formula {
	fs := make([]smt.Formula, 0, len(p.z))
	for q, zq := range p.z {
		if q == start {
			fs = append(fs, smt.Eq(smt.V(zq), smt.C(1)))
			continue
		}
		options := []smt.Formula{smt.And(smt.Eq(smt.V(zq), smt.C(0)), p.unused(p.in[q]))}
		for _, t := range p.in[q] {
			zr := p.z[p.edges[t].Source]
			options = append(options, smt.And(
				smt.Ge(smt.V(p.y[t]), smt.C(1)),
				smt.Ge(smt.V(zr), smt.C(1)),
				smt.Eq(smt.V(zq), smt.V(zr).Plus(1)),
			))
		}
		fs = append(fs, smt.Or(options...))
	}
	return fs
}

// frame returns the constraints that fix start as the first state of the run.
func (p *parikhSide) frame(start int, forwardZ bool) []smt.Formula {
	fs := make([]smt.Formula, 0, len(p.u))
	for q, uq := range p.u {
		var k int64
		if q == start {
			k = 1
		}
		rhs := smt.C(k)
		if e, ok := p.e[q]; ok {
			// u_q = [q = start] - e_q
			rhs = rhs.Sub(smt.V(e))
		}
		fs = append(fs, smt.Eq(smt.V(uq), rhs))
	}
	if forwardZ {
		fs = append(fs, p.forwardDepths(start)...)
	}
	return fs
}

// ParikhStats counts the outcomes of ParikhChecker.Check.
type ParikhStats struct {
	Trivial int // both states accepting, decided without the solver
	Sat     int
	Unsat   int
	Unknown int
}

// ParikhChecker decides the Parikh image abstraction: whether there are runs from a state of each
// automaton to one of its accepting states that use every symbol equally often. Flow conservation,
// edge counts, symbol counts and, when enabled, connectivity are encoded as linear constraints; the
// per-state part lives in a frame that is released after every query.
type ParikhChecker struct {
	session *smt.Session
	a, b    *automaton.Automaton

	useZ    bool
	reverse bool

	built  bool
	sideA  *parikhSide
	sideB  *parikhSide
	stats  ParikhStats
	logger *slog.Logger
}

// NewParikhChecker prepares a checker for a and b. The persistent constraints are built on the
// first query that needs the solver.
func NewParikhChecker(a, b *automaton.Automaton, cfg *Config) *ParikhChecker {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ParikhChecker{
		session: smt.NewSession(smt.WithTimeout(cfg.SolverTimeout)),
		a:       a,
		b:       b,
		useZ:    cfg.UseZConstraints,
		reverse: cfg.ReverseLengths,
		logger:  logger,
	}
}

func (c *ParikhChecker) build() {
	c.sideA = newParikhSide(c.session, "a", c.a)
	c.sideB = newParikhSide(c.session, "b", c.b)
	c.session.Assert(c.sideA.persistent(c.useZ && c.reverse)...)
	c.session.Assert(c.sideB.persistent(c.useZ && c.reverse)...)

	// hash_s = sum of the edges labelled s, on both sides
	bySymbol := make(map[int][2][]int)
	var symbols []int
	for side, p := range []*parikhSide{c.sideA, c.sideB} {
		for i, e := range p.edges {
			entry, ok := bySymbol[e.Symbol]
			if !ok {
				symbols = append(symbols, e.Symbol)
			}
			entry[side] = append(entry[side], i)
			bySymbol[e.Symbol] = entry
		}
	}
	for _, s := range symbols {
		hash := c.session.NewVar(fmt.Sprintf("hash_%d", s))
		entry := bySymbol[s]
		c.session.Assert(
			smt.Eq(smt.V(hash), c.sideA.sum(entry[0])),
			smt.Eq(smt.V(hash), c.sideB.sum(entry[1])),
		)
	}
	c.built = true
	c.logger.Debug("parikh constraints built", "variables", c.session.NumVars())
}

// Check reports whether the Parikh abstraction admits runs from stateA and stateB. Unknown means the
// solver gave up; callers treat it as satisfiable.
func (c *ParikhChecker) Check(ctx context.Context, stateA, stateB int) (smt.Result, error) {
	if c.a.IsAccept(stateA) && c.b.IsAccept(stateB) {
		c.stats.Trivial++
		return smt.Sat, nil
	}
	if !c.built {
		c.build()
	}

	res := smt.Unknown
	err := c.session.WithFrame(func(f *smt.Frame) error {
		forward := c.useZ && !c.reverse
		if err := f.Assert(c.sideA.frame(stateA, forward)...); err != nil {
			return err
		}
		if err := f.Assert(c.sideB.frame(stateB, forward)...); err != nil {
			return err
		}
		var err error
		res, err = f.Check(ctx)
		return err
	})
	if err != nil {
		return smt.Unknown, fmt.Errorf("parikh check of (%d, %d): %w", stateA, stateB, err)
	}

	switch res {
	case smt.Sat:
		c.stats.Sat++
	case smt.Unsat:
		c.stats.Unsat++
	default:
		c.stats.Unknown++
	}
	return res, nil
}

// Stats returns the outcome counters.
func (c *ParikhChecker) Stats() ParikhStats {
	return c.stats
}

// SolverStats returns the counters of the underlying solver session.
func (c *ParikhChecker) SolverStats() smt.Stats {
	return c.session.Stats()
}
