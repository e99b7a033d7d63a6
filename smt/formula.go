package smt

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Formula is a Boolean combination of linear integer constraints. Formulas are built with Eq, Le, Ge,
// Lt, Gt, And, Or, True and False; there is no negation.
type Formula interface {
	fmt.Stringer
	isFormula()
}

type relation int

const (
	relLe relation = iota // e <= 0
	relEq                 // e == 0
)

type atom struct {
	e   Expr
	rel relation
}

type and []Formula

type or []Formula

type constant bool

var (
	True  Formula = constant(true)
	False Formula = constant(false)
)

func (atom) isFormula()     {}
func (and) isFormula()      {}
func (or) isFormula()       {}
func (constant) isFormula() {}

// Eq returns a == b.
func Eq(a, b Expr) Formula { return atom{e: a.Sub(b), rel: relEq} }

// Le returns a <= b.
func Le(a, b Expr) Formula { return atom{e: a.Sub(b), rel: relLe} }

// Ge returns a >= b.
func Ge(a, b Expr) Formula { return Le(b, a) }

// Lt returns a < b, which over the integers is a + 1 <= b.
func Lt(a, b Expr) Formula { return Le(a.Plus(1), b) }

// Gt returns a > b.
func Gt(a, b Expr) Formula { return Lt(b, a) }

// And returns the conjunction of fs; the empty conjunction is True.
func And(fs ...Formula) Formula {
	switch len(fs) {
	case 0:
		return True
	case 1:
		return fs[0]
	}
	return and(slices.Clone(fs))
}

// Or returns the disjunction of fs; the empty disjunction is False.
func Or(fs ...Formula) Formula {
	switch len(fs) {
	case 0:
		return False
	case 1:
		return fs[0]
	}
	return or(slices.Clone(fs))
}

func (a atom) String() string {
	if a.rel == relEq {
		return a.e.String() + " == 0"
	}
	return a.e.String() + " <= 0"
}

func (f and) String() string { return joinFormulas("and", f) }
func (f or) String() string  { return joinFormulas("or", f) }

func (c constant) String() string {
	if c {
		return "true"
	}
	return "false"
}

func joinFormulas(op string, fs []Formula) string {
	parts := make([]string, len(fs))
	for i, f := range fs {
		parts[i] = f.String()
	}
	return "(" + op + " " + strings.Join(parts, " ") + ")"
}

// constraint is a normalized atom: lower <= sum(terms) <= upper. Terms are sorted by variable, have
// nonzero coefficients with gcd 1 and a positive first coefficient.
type constraint struct {
	terms              []Term
	hasLower, hasUpper bool
	lower, upper       int64
}

// form identifies the linear form of c, shared by every constraint over the same terms.
func (c constraint) form() string {
	var sb strings.Builder
	for _, t := range c.terms {
		sb.WriteString(strconv.FormatInt(t.Coef, 10))
		sb.WriteByte('*')
		sb.WriteString(strconv.Itoa(int(t.Var)))
		sb.WriteByte(' ')
	}
	return sb.String()
}

func (c constraint) key() string {
	var sb strings.Builder
	sb.WriteString(c.form())
	if c.hasLower {
		sb.WriteString(">=" + strconv.FormatInt(c.lower, 10))
	}
	if c.hasUpper {
		sb.WriteString("<=" + strconv.FormatInt(c.upper, 10))
	}
	return sb.String()
}

// normalize turns a into a constraint. When a has no variables left it is decided outright and the
// second result is its truth value wrapped as a constant.
func normalize(a atom) (constraint, Formula) {
	terms := mergeTerms(a.e.Terms)
	k := -a.e.Const

	if len(terms) == 0 {
		if a.rel == relEq {
			return constraint{}, constant(k == 0)
		}
		return constraint{}, constant(0 <= k)
	}

	g := int64(0)
	for _, t := range terms {
		g = gcd(g, abs(t.Coef))
	}

	negate := terms[0].Coef < 0
	if negate {
		for i := range terms {
			terms[i].Coef = -terms[i].Coef
		}
		k = -k
	}
	for i := range terms {
		terms[i].Coef /= g
	}

	c := constraint{terms: terms}
	switch {
	case a.rel == relEq:
		if k%g != 0 {
			return constraint{}, False
		}
		c.hasLower, c.hasUpper = true, true
		c.lower, c.upper = k/g, k/g
	case negate:
		// sum >= k
		c.hasLower = true
		c.lower = ceilDiv(k, g)
	default:
		c.hasUpper = true
		c.upper = floorDiv(k, g)
	}
	return c, nil
}

func mergeTerms(terms []Term) []Term {
	merged := make([]Term, 0, len(terms))
	sorted := slices.Clone(terms)
	slices.SortStableFunc(sorted, func(a, b Term) int { return int(a.Var) - int(b.Var) })
	for _, t := range sorted {
		if n := len(merged); n > 0 && merged[n-1].Var == t.Var {
			merged[n-1].Coef += t.Coef
			continue
		}
		merged = append(merged, t)
	}
	return slices.DeleteFunc(merged, func(t Term) bool { return t.Coef == 0 })
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func abs(a int64) int64 {
	if a < 0 {
		return -a
	}
	return a
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func ceilDiv(a, b int64) int64 {
	return -floorDiv(-a, b)
}
