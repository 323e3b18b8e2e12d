package ssa

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument reports malformed input detected at call entry:
// non-positive dimensions, mismatched buffer lengths or an impossible Stop.
var ErrInvalidArgument = errors.New("ssa: invalid argument")

// ErrAllocation reports that the propensity grid for the requested lattice
// could not be allocated.
var ErrAllocation = errors.New("ssa: propensity grid allocation failed")

// ErrInvalidState reports a corrupted propensity total discovered while
// running: a negative or NaN total, or a negative waiting time.
var ErrInvalidState = errors.New("ssa: invalid simulation state")

// StepError wraps a failure raised inside the event loop with the position
// in the run where it happened.
type StepError struct {
	Events int
	Clock  float64
	Err    error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("after %d events at t=%g: %v", e.Events, e.Clock, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

func invalidArg(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}
