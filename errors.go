package optifa

import "errors"

var (
	ErrUnknownLengthMode  = errors.New("unknown length mode")
	ErrUnknownAbstraction = errors.New("unknown abstraction")
	ErrConflictingSymbols = errors.New("unifySymbols and keepSymbols are mutually exclusive")
)
