package smt

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/go-air/gini"
	"github.com/go-air/gini/z"
)

// Result is the outcome of Session.Check.
type Result int

const (
	Unknown Result = iota
	Sat
	Unsat
)

func (r Result) String() string {
	switch r {
	case Sat:
		return "sat"
	case Unsat:
		return "unsat"
	default:
		return "unknown"
	}
}

// Stats counts the work done by a Session across all checks.
type Stats struct {
	Checks   int // calls to Check
	Rounds   int // SAT calls
	Lemmas   int // theory conflicts learned as clauses
	Pivots   int
	Branches int // branch and bound nodes
}

type options struct {
	timeout   time.Duration
	maxRounds int
	maxNodes  int
}

// Option configures a Session.
type Option func(*options)

// WithTimeout bounds every Check. Zero means no bound.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithMaxRounds bounds the SAT/theory rounds of a single Check.
func WithMaxRounds(n int) Option {
	return func(o *options) { o.maxRounds = n }
}

// WithMaxNodes bounds the branch and bound nodes of a single theory check.
func WithMaxNodes(n int) Option {
	return func(o *options) { o.maxNodes = n }
}

type nodeKind int

const (
	nodeAtom nodeKind = iota
	nodeAnd
	nodeOr
	nodeConst
)

// node is an encoded formula: lit implies the node holds.
type node struct {
	kind     nodeKind
	lit      z.Lit
	atom     int
	children []*node
}

type atomEntry struct {
	c   constraint
	lit z.Lit
}

// Session is an incremental solver for linear integer formulas. It is not safe for concurrent use.
type Session struct {
	opts options
	g    *gini.Gini

	lastVar z.Var
	trueLit z.Lit

	names  []string
	byName map[string]Var

	atoms     []atomEntry
	atomByKey map[string]int

	roots  []*node
	frames []*Frame

	model []int64
	stats Stats
}

// NewSession returns an empty session.
func NewSession(opts ...Option) *Session {
	o := options{maxRounds: 100_000, maxNodes: 10_000}
	for _, opt := range opts {
		opt(&o)
	}
	s := &Session{
		opts:      o,
		g:         gini.New(),
		byName:    make(map[string]Var),
		atomByKey: make(map[string]int),
	}
	s.trueLit = s.newLit()
	s.g.Add(s.trueLit)
	s.g.Add(0)
	return s
}

func (s *Session) newLit() z.Lit {
	s.lastVar++
	return s.lastVar.Pos()
}

// NewVar returns the integer variable called name, creating it on first use. An empty name always
// creates a fresh variable.
func (s *Session) NewVar(name string) Var {
	if name != "" {
		if v, ok := s.byName[name]; ok {
			return v
		}
	}
	v := Var(len(s.names))
	if name == "" {
		name = fmt.Sprintf("_%d", v)
	}
	s.names = append(s.names, name)
	s.byName[name] = v
	return v
}

// Name returns the name of v.
func (s *Session) Name(v Var) string {
	return s.names[v]
}

// NumVars returns the number of variables created so far.
func (s *Session) NumVars() int {
	return len(s.names)
}

// Stats returns the accumulated counters.
func (s *Session) Stats() Stats {
	return s.stats
}

func (s *Session) addClause(lits ...z.Lit) {
	for _, l := range lits {
		s.g.Add(l)
	}
	s.g.Add(0)
}

// encode adds the implication clauses of f and returns its node.
func (s *Session) encode(f Formula) *node {
	switch f := f.(type) {
	case constant:
		if f {
			return &node{kind: nodeConst, lit: s.trueLit}
		}
		return &node{kind: nodeConst, lit: s.trueLit.Not()}
	case atom:
		c, decided := normalize(f)
		if decided != nil {
			return s.encode(decided)
		}
		key := c.key()
		id, ok := s.atomByKey[key]
		if !ok {
			id = len(s.atoms)
			s.atoms = append(s.atoms, atomEntry{c: c, lit: s.newLit()})
			s.atomByKey[key] = id
		}
		return &node{kind: nodeAtom, lit: s.atoms[id].lit, atom: id}
	case and:
		n := &node{kind: nodeAnd, lit: s.newLit()}
		for _, child := range f {
			cn := s.encode(child)
			n.children = append(n.children, cn)
			s.addClause(n.lit.Not(), cn.lit)
		}
		return n
	case or:
		n := &node{kind: nodeOr, lit: s.newLit()}
		clause := []z.Lit{n.lit.Not()}
		for _, child := range f {
			cn := s.encode(child)
			n.children = append(n.children, cn)
			clause = append(clause, cn.lit)
		}
		s.addClause(clause...)
		return n
	}
	panic(fmt.Sprintf("smt: unknown formula %T", f))
}

// Assert adds fs to the persistent assertions.
func (s *Session) Assert(fs ...Formula) {
	for _, f := range fs {
		n := s.encode(f)
		s.addClause(n.lit)
		s.roots = append(s.roots, n)
	}
}

// Frame is a scope of assertions that holds until Release. Frames may be released in any order.
type Frame struct {
	s        *Session
	act      z.Lit
	roots    []*node
	released bool
}

// Push opens a new frame.
func (s *Session) Push() *Frame {
	f := &Frame{s: s, act: s.newLit()}
	s.frames = append(s.frames, f)
	return f
}

// WithFrame runs fn inside a fresh frame and releases it afterwards.
func (s *Session) WithFrame(fn func(*Frame) error) error {
	f := s.Push()
	defer f.Release()
	return fn(f)
}

// Assert adds fs to the frame.
func (f *Frame) Assert(fs ...Formula) error {
	if f.released {
		return ErrFrameReleased
	}
	for _, formula := range fs {
		n := f.s.encode(formula)
		f.s.addClause(f.act.Not(), n.lit)
		f.roots = append(f.roots, n)
	}
	return nil
}

// Check decides the formulas of f's frame together with every other live assertion.
func (f *Frame) Check(ctx context.Context) (Result, error) {
	if f.released {
		return Unknown, ErrFrameReleased
	}
	return f.s.Check(ctx)
}

// Release drops the frame's assertions. Releasing twice is a no-op.
func (f *Frame) Release() {
	if f.released {
		return
	}
	f.released = true
	if len(f.roots) > 0 {
		f.s.addClause(f.act.Not())
	}
	frames := f.s.frames[:0]
	for _, other := range f.s.frames {
		if other != f {
			frames = append(frames, other)
		}
	}
	f.s.frames = frames
}

// Value returns the value of v in the model of the last Sat check, or 0.
func (s *Session) Value(v Var) int64 {
	if int(v) >= len(s.model) {
		return 0
	}
	return s.model[v]
}

// Check decides the conjunction of the persistent assertions and all live frames. A context or
// configured timeout yields Unknown with a nil error; any other cancellation is returned.
func (s *Session) Check(ctx context.Context) (Result, error) {
	s.stats.Checks++
	s.model = nil

	deadline, hasDeadline := ctx.Deadline()
	if s.opts.timeout > 0 {
		if d := time.Now().Add(s.opts.timeout); !hasDeadline || d.Before(deadline) {
			deadline, hasDeadline = d, true
		}
	}
	expired := func() bool {
		return ctx.Err() != nil || hasDeadline && !time.Now().Before(deadline)
	}
	stopped := func() (Result, error) {
		if err := ctx.Err(); err != nil && !errors.Is(err, context.DeadlineExceeded) {
			return Unknown, err
		}
		return Unknown, nil
	}

	for round := 0; ; round++ {
		if round >= s.opts.maxRounds {
			return Unknown, nil
		}
		if expired() {
			return stopped()
		}

		for _, f := range s.frames {
			if len(f.roots) > 0 {
				s.g.Assume(f.act)
			}
		}
		s.stats.Rounds++
		switch s.solve(ctx, deadline, hasDeadline) {
		case -1:
			return Unsat, nil
		case 0:
			return stopped()
		}

		atoms := s.justify()
		res, core := s.theory(atoms, expired)
		switch res {
		case branchSat:
			return Sat, nil
		case branchUnknown:
			if expired() {
				return stopped()
			}
			return Unknown, nil
		}

		if len(core) == 0 {
			core = atoms
		}
		clause := make([]z.Lit, 0, len(core))
		seen := make(map[int]bool, len(core))
		for _, id := range core {
			if id < 0 || seen[id] {
				continue
			}
			seen[id] = true
			clause = append(clause, s.atoms[id].lit.Not())
		}
		if len(clause) == 0 {
			return Unknown, fmt.Errorf("%w: empty theory conflict", ErrSolver)
		}
		s.addClause(clause...)
		s.stats.Lemmas++
	}
}

// solve runs the SAT solver, stopping it when ctx is done or the deadline passes.
func (s *Session) solve(ctx context.Context, deadline time.Time, hasDeadline bool) int {
	if !hasDeadline && ctx.Done() == nil {
		return s.g.Solve()
	}
	if !hasDeadline {
		deadline = time.Now().Add(time.Hour)
	}
	sv := s.g.GoSolve()
	timer := time.NewTimer(time.Until(deadline))
	defer timer.Stop()
	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return sv.Stop()
		case <-timer.C:
			return sv.Stop()
		case <-ticker.C:
			if res, done := sv.Test(); done {
				return res
			}
		}
	}
}

// justify collects the atoms a satisfying assignment relies on: every child of a true conjunction
// and the first true child of a disjunction.
func (s *Session) justify() []int {
	var atoms []int
	seen := make(map[int]bool)
	var walk func(n *node)
	walk = func(n *node) {
		switch n.kind {
		case nodeAtom:
			if !seen[n.atom] {
				seen[n.atom] = true
				atoms = append(atoms, n.atom)
			}
		case nodeAnd:
			for _, c := range n.children {
				walk(c)
			}
		case nodeOr:
			for _, c := range n.children {
				if s.g.Value(c.lit) {
					walk(c)
					return
				}
			}
		}
	}
	for _, n := range s.roots {
		walk(n)
	}
	for _, f := range s.frames {
		for _, n := range f.roots {
			walk(n)
		}
	}
	return atoms
}

// theory decides the conjunction of atoms over the integers, storing the model on success.
func (s *Session) theory(atoms []int, expired func() bool) (branchResult, []int) {
	t := newTableau(len(s.names))
	slacks := make(map[string]int)
	defer func() { s.stats.Pivots += t.pivots }()

	for _, id := range atoms {
		c := s.atoms[id].c
		col := int(c.terms[0].Var)
		if len(c.terms) > 1 {
			form := c.form()
			var ok bool
			if col, ok = slacks[form]; !ok {
				cols := make([]int, len(c.terms))
				coefs := make([]int64, len(c.terms))
				for i, term := range c.terms {
					cols[i], coefs[i] = int(term.Var), term.Coef
				}
				col = t.addSlack(cols, coefs)
				slacks[form] = col
			}
		}
		if c.hasLower {
			if ok, core := t.assertLower(col, new(big.Rat).SetInt64(c.lower), id); !ok {
				return branchUnsat, core
			}
		}
		if c.hasUpper {
			if ok, core := t.assertUpper(col, new(big.Rat).SetInt64(c.upper), id); !ok {
				return branchUnsat, core
			}
		}
	}

	nodes := 0
	res, core := t.branchAndBound(&nodes, s.opts.maxNodes, expired)
	s.stats.Branches += nodes
	if res == branchSat {
		s.model = make([]int64, len(s.names))
		for x := range s.model {
			s.model[x] = t.value[x].Num().Int64()
		}
	}
	return res, core
}
