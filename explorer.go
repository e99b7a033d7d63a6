package optifa

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/bits-and-blooms/bitset"

	"github.com/geange/optifa/automaton"
	"github.com/geange/optifa/smt"
)

// Pair is a state of the product: a state of the first automaton and a state of the second.
type Pair struct {
	A, B int
}

// Result is the outcome of an exploration.
type Result struct {
	// Nonempty is set when a pair of accepting states was reached; the languages then share Witness.
	Nonempty bool
	// BestEffort is set when some query was left undecided and let through. An empty verdict is then
	// not guaranteed, since a pair that should have been pruned may still have been explored, but a
	// nonempty verdict always stands.
	BestEffort bool

	// Reached lists the pairs that passed the filters in the order they were expanded.
	Reached []Pair
	Final   []Pair
	Witness []int
	Stats   Stats

	// Product is the trimmed intersection over Reached, built with Config.BuildProduct. ProductPairs
	// maps its states back to pairs.
	Product      *automaton.Automaton
	ProductPairs []Pair
}

type entry struct {
	pair      Pair
	skippable bool
	parent    *entry
	symbol    int
}

type productEdge struct {
	dest     Pair
	min, max int
}

// Explorer searches the product of two automata for a pair of accepting states, pruning pairs that
// the length or Parikh abstraction shows cannot lead to one.
type Explorer struct {
	cfg  *Config
	a, b *automaton.Automaton
}

// NewExplorer returns an explorer of the product of a and b. A nil cfg means DefaultConfig.
func NewExplorer(a, b *automaton.Automaton, cfg *Config) *Explorer {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Explorer{cfg: cfg, a: a, b: b}
}

// Explore is shorthand for NewExplorer(a, b, NewConfig(opts...)).Explore(ctx).
func Explore(ctx context.Context, a, b *automaton.Automaton, opts ...Option) (*Result, error) {
	return NewExplorer(a, b, NewConfig(opts...)).Explore(ctx)
}

func (c *Config) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.Logger
}

// Explore runs the search. Solver failures and cancellation of ctx abort it without a result.
func (e *Explorer) Explore(ctx context.Context) (*Result, error) {
	if err := e.cfg.validate(); err != nil {
		return nil, err
	}
	log := e.cfg.logger()
	a, b := e.a, e.b

	res := &Result{}
	if automaton.IsEmptyAutomaton(a) || automaton.IsEmptyAutomaton(b) {
		log.Info("no accepting state is reachable, intersection is empty")
		if e.cfg.BuildProduct {
			res.Product, res.ProductPairs = automaton.NewBuilder().Finish(), []Pair{}
		}
		return res, nil
	}

	// The Parikh abstraction sees the original symbols, merged as configured.
	parikhA, parikhB := a, b
	if keep, ok := symbolsToKeep(a, b, e.cfg); ok {
		parikhA, parikhB = automaton.UnifySymbols(a, keep), automaton.UnifySymbols(b, keep)
		log.Debug("symbols unified for the parikh abstraction", "kept", keep.Count())
	}

	var minterms *MintermTree
	if e.cfg.UseMinterms {
		var size int
		minterms, size = transitionMinterms(a, b)
		classOf := minterms.ClassOf(size)
		a, b = automaton.Remap(a, classOf), automaton.Remap(b, classOf)
		res.Stats.Minterms = minterms.Len()
		log.Debug("alphabet compressed", "symbols", size, "minterms", minterms.Len())
	}

	x := &exploration{
		cfg:     e.cfg,
		log:     log,
		a:       a,
		b:       b,
		parikhA: parikhA,
		parikhB: parikhB,
		nB:      b.GetNumStates(),
		res:     res,
		pending: make(map[Pair]*entry),
		checked: bitset.New(uint(a.GetNumStates() * b.GetNumStates())),
	}
	if err := x.init(); err != nil {
		return nil, err
	}
	if err := x.run(ctx); err != nil {
		return nil, err
	}

	res.Reached = x.reached
	res.Final = x.finals
	res.Nonempty = len(x.finals) > 0
	if x.firstFinal != nil {
		res.Witness = x.witness(x.firstFinal, minterms)
	}
	if e.cfg.BuildProduct {
		res.Product, res.ProductPairs = x.product(minterms)
	}

	res.Stats.Reached = len(x.reached)
	res.Stats.Final = len(x.finals)
	if x.length != nil {
		res.Stats.SolverChecks += x.length.SolverStats().Checks
	}
	if x.parikh != nil {
		res.Stats.SolverChecks += x.parikh.SolverStats().Checks
		res.Stats.ParikhTrivial = x.parikh.Stats().Trivial
	}

	log.Info("exploration finished",
		"nonempty", res.Nonempty,
		"bestEffort", res.BestEffort,
		"checked", res.Stats.Checked,
		"processed", res.Stats.Processed,
		"skipped", res.Stats.Skipped,
		"reached", res.Stats.Reached,
		"final", res.Stats.Final,
		"solverChecks", res.Stats.SolverChecks,
	)
	return res, nil
}

// symbolsToKeep returns the symbols that stay distinct under the configured unification. ok is false
// when no unification is configured or it would merge fewer than two symbols in use.
func symbolsToKeep(a, b *automaton.Automaton, cfg *Config) (*bitset.BitSet, bool) {
	if len(cfg.UnifySymbols) == 0 && len(cfg.KeepSymbols) == 0 {
		return nil, false
	}
	used := bitset.New(0)
	for _, x := range []*automaton.Automaton{a, b} {
		for _, set := range automaton.LabelSets(x) {
			used.InPlaceUnion(set)
		}
	}

	listed := bitset.New(0)
	for _, s := range append(slices.Clone(cfg.UnifySymbols), cfg.KeepSymbols...) {
		if s >= 0 {
			listed.Set(uint(s))
		}
	}
	var keep, merged *bitset.BitSet
	if len(cfg.UnifySymbols) > 0 {
		keep, merged = used.Difference(listed), used.Intersection(listed)
	} else {
		keep, merged = listed, used.Difference(listed)
	}
	if merged.Count() < 2 {
		return nil, false
	}
	return keep, true
}

type exploration struct {
	cfg  *Config
	log  *slog.Logger
	a, b *automaton.Automaton
	nB   int
	res  *Result

	// parikhA and parikhB share the states of a and b, with the alphabet the Parikh abstraction counts.
	parikhA, parikhB *automaton.Automaton

	// pending holds the queued entries by pair so a queued pair can be upgraded in place.
	pending map[Pair]*entry
	stack   []*entry
	checked *bitset.BitSet

	reached    []Pair
	finals     []Pair
	firstFinal *entry
	edges      map[Pair][]productEdge

	length             *LengthChecker
	parikh             *ParikhChecker
	unifiedA, unifiedB *automaton.Automaton
	formulasA          map[int][]automaton.FormulaEntry
	formulasB          map[int][]automaton.FormulaEntry
}

func (x *exploration) init() error {
	if x.cfg.Abstraction.useLength() {
		var err error
		x.length, err = NewLengthChecker(x.cfg.LengthMode, smt.WithTimeout(x.cfg.SolverTimeout))
		if err != nil {
			return err
		}
		x.unifiedA = automaton.UnifySymbols(x.a, nil)
		x.unifiedB = automaton.UnifySymbols(x.b, nil)
		x.formulasA = make(map[int][]automaton.FormulaEntry)
		x.formulasB = make(map[int][]automaton.FormulaEntry)
	}
	if x.cfg.Abstraction.useParikh() {
		x.parikh = NewParikhChecker(x.parikhA, x.parikhB, x.cfg)
	}
	if x.cfg.BuildProduct {
		x.edges = make(map[Pair][]productEdge)
	}
	return nil
}

func (x *exploration) index(p Pair) uint {
	return uint(p.A*x.nB + p.B)
}

// push queues p unless it was already popped. A queued pair only ever gains the skippable flag.
func (x *exploration) push(p Pair, skippable bool, parent *entry, symbol int) {
	if x.checked.Test(x.index(p)) {
		return
	}
	if queued, ok := x.pending[p]; ok {
		queued.skippable = queued.skippable || skippable
		return
	}
	en := &entry{pair: p, skippable: skippable, parent: parent, symbol: symbol}
	x.pending[p] = en
	x.stack = append(x.stack, en)
}

func (x *exploration) run(ctx context.Context) error {
	for _, sa := range x.a.StartStates() {
		for _, sb := range x.b.StartStates() {
			x.push(Pair{A: sa, B: sb}, false, nil, -1)
		}
	}

	stats := &x.res.Stats
	for len(x.stack) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		cur := x.stack[len(x.stack)-1]
		x.stack = x.stack[:len(x.stack)-1]
		delete(x.pending, cur.pair)
		x.checked.Set(x.index(cur.pair))
		stats.Checked++

		sat := true
		if cur.skippable {
			stats.Skipped++
		} else {
			stats.Processed++
			var err error
			if sat, err = x.satisfiable(ctx, cur.pair); err != nil {
				return err
			}
			if sat {
				stats.Satisfiable++
			} else {
				stats.Unsatisfiable++
			}
		}
		x.log.Debug("pair", "a", cur.pair.A, "b", cur.pair.B, "skippable", cur.skippable, "sat", sat)
		if !sat {
			continue
		}

		x.reached = append(x.reached, cur.pair)
		if x.a.IsAccept(cur.pair.A) && x.b.IsAccept(cur.pair.B) {
			x.finals = append(x.finals, cur.pair)
			if x.firstFinal == nil {
				x.firstFinal = cur
			}
			if x.cfg.BreakWhenFinal {
				return nil
			}
		}
		x.expand(cur)
	}
	return nil
}

// expand queues the successors of cur. When cur has exactly one successor, counting one per symbol
// and destination pair, that successor is marked skippable.
func (x *exploration) expand(cur *entry) {
	type candidate struct {
		pair   Pair
		symbol int
	}
	var candidates []candidate
	count := 0

	t1 := automaton.NewTransition()
	t2 := automaton.NewTransition()
	n1 := x.a.InitTransition(cur.pair.A, t1)
	for i := 0; i < n1; i++ {
		x.a.GetNextTransition(t1)
		n2 := x.b.InitTransition(cur.pair.B, t2)
		for j := 0; j < n2; j++ {
			x.b.GetNextTransition(t2)
			lo, hi := max(t1.Min, t2.Min), min(t1.Max, t2.Max)
			if lo > hi {
				continue
			}
			dest := Pair{A: t1.Dest, B: t2.Dest}
			count += hi - lo + 1
			candidates = append(candidates, candidate{pair: dest, symbol: lo})
			if x.edges != nil {
				x.edges[cur.pair] = append(x.edges[cur.pair], productEdge{dest: dest, min: lo, max: hi})
			}
		}
	}

	single := x.cfg.SkipSingleSuccessors && count == 1
	for _, c := range candidates {
		x.push(c.pair, single, cur, c.symbol)
	}
}

// satisfiable runs the configured filters in order of cost. Undecided queries pass.
func (x *exploration) satisfiable(ctx context.Context, p Pair) (bool, error) {
	stats := &x.res.Stats
	if x.length != nil {
		res, err := x.checkLength(ctx, p)
		if err != nil {
			return false, err
		}
		if res == smt.Unsat {
			stats.LengthUnsat++
			return false, nil
		}
		stats.LengthSat++
		x.undecided(res)
	}

	if x.parikh != nil {
		res, err := x.parikh.Check(ctx, p.A, p.B)
		if err != nil {
			return false, err
		}
		if res == smt.Unsat {
			stats.ParikhUnsat++
			return false, nil
		}
		stats.ParikhSat++
		x.undecided(res)
	}
	return true, nil
}

func (x *exploration) undecided(res smt.Result) {
	if res == smt.Unknown {
		x.res.Stats.Unknown++
		x.res.BestEffort = true
	}
}

func (x *exploration) checkLength(ctx context.Context, p Pair) (smt.Result, error) {
	as, err := x.formulas(x.unifiedA, x.formulasA, p.A)
	if err == nil {
		var bs []automaton.FormulaEntry
		if bs, err = x.formulas(x.unifiedB, x.formulasB, p.B); err == nil {
			return x.length.Check(ctx, as, bs)
		}
	}
	if errors.Is(err, automaton.ErrTooComplex) {
		x.log.Warn("length abstraction skipped", "a", p.A, "b", p.B, "err", err)
		return smt.Unknown, nil
	}
	return smt.Unknown, fmt.Errorf("length abstraction of (%d, %d): %w", p.A, p.B, err)
}

// formulas returns the handle and loop entries of state, computed once per state.
func (x *exploration) formulas(unified *automaton.Automaton, cache map[int][]automaton.FormulaEntry, state int) ([]automaton.FormulaEntry, error) {
	if entries, ok := cache[state]; ok {
		return entries, nil
	}
	entries, err := automaton.HandleAndLoop(unified, state, x.cfg.DeterminizeWorkLimit)
	if err != nil {
		return nil, err
	}
	cache[state] = entries
	return entries, nil
}

func (x *exploration) witness(final *entry, minterms *MintermTree) []int {
	word := []int{}
	for en := final; en.parent != nil; en = en.parent {
		symbol := en.symbol
		if minterms != nil {
			symbol = minterms.Representative(symbol)
		}
		word = append(word, symbol)
	}
	slices.Reverse(word)
	return word
}

// product builds the automaton over the reached pairs and trims it.
func (x *exploration) product(minterms *MintermTree) (*automaton.Automaton, []Pair) {
	builder := automaton.NewBuilder()
	ids := make(map[Pair]int, len(x.reached))
	for _, p := range x.reached {
		id := builder.CreateState()
		ids[p] = id
		builder.SetAccept(id, x.a.IsAccept(p.A) && x.b.IsAccept(p.B))
		builder.SetStart(id, x.a.IsStart(p.A) && x.b.IsStart(p.B))
	}

	var leaves []*bitset.BitSet
	if minterms != nil {
		leaves = minterms.Leaves()
	}
	for _, p := range x.reached {
		src := ids[p]
		for _, e := range x.edges[p] {
			dest, ok := ids[e.dest]
			if !ok {
				continue
			}
			if leaves == nil {
				builder.AddTransition(src, dest, e.min, e.max)
				continue
			}
			for class := e.min; class <= e.max; class++ {
				set := leaves[class]
				for s, ok := set.NextSet(0); ok; s, ok = set.NextSet(s + 1) {
					builder.AddTransitionLabel(src, dest, int(s))
				}
			}
		}
	}

	trimmed, mapping := automaton.Trim(builder.Finish())
	pairs := make([]Pair, trimmed.GetNumStates())
	for old, id := range mapping {
		if id >= 0 {
			pairs[id] = x.reached[old]
		}
	}
	return trimmed, pairs
}
