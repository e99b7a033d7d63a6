package smt

import (
	"fmt"
	"strings"
)

// Var is an integer variable of a Session.
type Var int

// Term is Coef * Var.
type Term struct {
	Var  Var
	Coef int64
}

// Expr is a linear expression: the sum of its terms plus Const.
type Expr struct {
	Terms []Term
	Const int64
}

// V returns the expression consisting of v alone.
func V(v Var) Expr {
	return Expr{Terms: []Term{{Var: v, Coef: 1}}}
}

// C returns the constant expression k.
func C(k int64) Expr {
	return Expr{Const: k}
}

// Sum returns the sum of the given variables.
func Sum(vs ...Var) Expr {
	e := Expr{Terms: make([]Term, 0, len(vs))}
	for _, v := range vs {
		e.Terms = append(e.Terms, Term{Var: v, Coef: 1})
	}
	return e
}

// Add returns e + o.
func (e Expr) Add(o Expr) Expr {
	terms := make([]Term, 0, len(e.Terms)+len(o.Terms))
	terms = append(terms, e.Terms...)
	terms = append(terms, o.Terms...)
	return Expr{Terms: terms, Const: e.Const + o.Const}
}

// Sub returns e - o.
func (e Expr) Sub(o Expr) Expr {
	return e.Add(o.Mul(-1))
}

// Mul returns k * e.
func (e Expr) Mul(k int64) Expr {
	terms := make([]Term, len(e.Terms))
	for i, t := range e.Terms {
		terms[i] = Term{Var: t.Var, Coef: t.Coef * k}
	}
	return Expr{Terms: terms, Const: e.Const * k}
}

// Plus returns e + k.
func (e Expr) Plus(k int64) Expr {
	return Expr{Terms: e.Terms, Const: e.Const + k}
}

func (e Expr) String() string {
	var sb strings.Builder
	for i, t := range e.Terms {
		switch {
		case i == 0 && t.Coef == 1:
		case i == 0 && t.Coef == -1:
			sb.WriteString("-")
		case i == 0:
			fmt.Fprintf(&sb, "%d*", t.Coef)
		case t.Coef == 1:
			sb.WriteString(" + ")
		case t.Coef == -1:
			sb.WriteString(" - ")
		case t.Coef < 0:
			fmt.Fprintf(&sb, " - %d*", -t.Coef)
		default:
			fmt.Fprintf(&sb, " + %d*", t.Coef)
		}
		fmt.Fprintf(&sb, "v%d", t.Var)
	}
	switch {
	case len(e.Terms) == 0:
		fmt.Fprintf(&sb, "%d", e.Const)
	case e.Const > 0:
		fmt.Fprintf(&sb, " + %d", e.Const)
	case e.Const < 0:
		fmt.Fprintf(&sb, " - %d", -e.Const)
	}
	return sb.String()
}
