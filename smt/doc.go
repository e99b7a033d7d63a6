// Package smt decides conjunctions and disjunctions of linear integer constraints.
//
// A Session keeps persistent assertions plus a stack of scoped frames. Check
// searches the Boolean structure of the asserted formulas with the gini SAT
// solver and decides every candidate set of linear atoms with an exact
// rational simplex, refined to integers by branch and bound. Theory conflicts
// are learned as clauses, so the search is incremental across checks and
// frames.
//
// Unsat is only reported when proven. Exhausted budgets (timeout, rounds,
// branch and bound nodes) yield Unknown.
package smt
