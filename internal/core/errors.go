package core

import "errors"

var (
	// ErrInvalidParameter marks a precondition violation detected before any generation.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrDegenerateRun means no observer sample fell inside the horizon.
	ErrDegenerateRun = errors.New("degenerate run: no observer samples")
)
