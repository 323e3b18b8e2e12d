package ssa

import (
	"fmt"
	"math"
)

// Mode selects the stopping discipline of a run.
type Mode int

const (
	// UntilTime runs until the continuous clock reaches Stop.Time.
	UntilTime Mode = iota
	// ForEvents runs until Stop.Events reactions have fired.
	ForEvents
)

func (m Mode) String() string {
	switch m {
	case UntilTime:
		return "until-time"
	case ForEvents:
		return "for-events"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Stop describes when a run terminates. Build it with RunUntil or RunFor.
type Stop struct {
	Mode   Mode
	Time   float64
	Events int
}

// RunUntil stops once the simulated clock reaches t.
func RunUntil(t float64) Stop { return Stop{Mode: UntilTime, Time: t} }

// RunFor stops after n reaction events.
func RunFor(n int) Stop { return Stop{Mode: ForEvents, Events: n} }

// DecodeStop interprets the overloaded (current, next) pair of the flat
// interface: next < current requests |trunc(next)| events, anything else a
// target time of next.
func DecodeStop(current, next float64) Stop {
	if next < current {
		return RunFor(int(math.Abs(math.Trunc(next))))
	}
	return RunUntil(next)
}

func (s Stop) String() string {
	if s.Mode == ForEvents {
		return fmt.Sprintf("%d events", s.Events)
	}
	return fmt.Sprintf("t=%g", s.Time)
}

func (s Stop) validate() error {
	switch s.Mode {
	case UntilTime:
		if math.IsNaN(s.Time) {
			return invalidArg("target time is NaN")
		}
	case ForEvents:
		if s.Events < 0 {
			return invalidArg("negative event target %d", s.Events)
		}
	default:
		return invalidArg("unknown stop mode %v", s.Mode)
	}
	return nil
}

// Status reports which terminal condition ended a run.
type Status int

const (
	// TimeReached means the clock reached the target time.
	TimeReached Status = iota
	// CountReached means the requested number of events fired.
	CountReached
	// Exhausted means total propensity dropped to zero. In UntilTime mode the
	// clock has been moved to the target.
	Exhausted
)

func (s Status) String() string {
	switch s {
	case TimeReached:
		return "time-reached"
	case CountReached:
		return "count-reached"
	case Exhausted:
		return "exhausted"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}
