package automaton

import "errors"

var (
	// ErrTooComplex Returned when subset construction exceeds its work limit.
	ErrTooComplex = errors.New("automaton too complex to determinize")

	// ErrSyntax Returned for malformed regular expressions and Timbuk input.
	ErrSyntax = errors.New("syntax error")
)

// DefaultDeterminizeWorkLimit Work limit used when none is given.
const DefaultDeterminizeWorkLimit = 1_000_000
