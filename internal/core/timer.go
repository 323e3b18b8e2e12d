package core

import "time"

// FixedStep paces simulation steps at a steady rate independent of the
// caller's own loop frequency (ebiten frames, websocket ticks).
type FixedStep struct {
	step        time.Duration
	accumulator time.Duration
	last        time.Time
	maxBurst    int
}

// NewFixedStep constructs a FixedStep controller targeting the given rate in
// steps per second.
func NewFixedStep(rate int) *FixedStep {
	fs := &FixedStep{maxBurst: 8}
	fs.SetRate(rate)
	fs.accumulator = fs.step
	return fs
}

// SetRate changes the step rate. Non-positive rates fall back to 60.
func (f *FixedStep) SetRate(rate int) {
	if rate <= 0 {
		rate = 60
	}
	f.step = time.Second / time.Duration(rate)
}

// Interval reports the duration of one step.
func (f *FixedStep) Interval() time.Duration { return f.step }

// Due reports how many steps have accumulated since the previous call. The
// result is capped so a stalled caller does not trigger an unbounded burst.
func (f *FixedStep) Due(now time.Time) int {
	if f.last.IsZero() {
		f.last = now
	}
	f.accumulator += now.Sub(f.last)
	f.last = now

	n := 0
	for f.accumulator >= f.step && n < f.maxBurst {
		f.accumulator -= f.step
		n++
	}
	if n == f.maxBurst {
		f.accumulator = 0
	}
	return n
}

