package smt

import "errors"

var (
	// ErrFrameReleased is returned when asserting into a frame after Release.
	ErrFrameReleased = errors.New("smt: frame already released")

	// ErrSolver reports an internal inconsistency of the decision procedure.
	ErrSolver = errors.New("smt: solver failure")
)
