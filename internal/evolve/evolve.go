// Package evolve drives long simulations as a sequence of ssa.Advance
// chunks, recording a frame of the lattice at every output point.
//
// Each chunk gets its own seed drawn from a master generator seeded once per
// run, so a run is reproducible from its seed alone.
package evolve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"chem-ca/internal/core"
	"chem-ca/internal/logging"
	"chem-ca/internal/ssa"
	pcore "chem-ca/pkg/core"
)

// ErrNoNetwork is returned when a Driver is run without a network or lattice.
var ErrNoNetwork = errors.New("evolve: network and lattice are required")

// Frame is the lattice state at one output point. In time runs Time is the
// output point and Clock the simulated clock, which may lie past it. In event
// runs Time holds the cumulative event count.
type Frame struct {
	Index   int
	Time    float64
	Clock   float64
	Events  int
	Lattice *core.Lattice
}

// Recorder persists frames. The lattice passed in a Frame is a private copy
// the recorder may keep.
type Recorder interface {
	Record(ctx context.Context, f Frame) error
}

// Update is a compact progress message for live consumers.
type Update struct {
	Frame   int       `json:"frame"`
	Time    float64   `json:"time"`
	Clock   float64   `json:"clock"`
	Events  int       `json:"events"`
	Species []string  `json:"species"`
	Totals  []float64 `json:"totals"`
}

// Publisher receives an Update after every frame. Publish failures are logged
// and never stop a run.
type Publisher interface {
	Publish(ctx context.Context, u Update) error
}

// Summary describes a finished run.
type Summary struct {
	Clock  float64
	Events int
	Frames int
	Status ssa.Status
}

// Driver runs a network on a lattice. The lattice is mutated in place.
type Driver struct {
	Network     *ssa.Network
	Lattice     *core.Lattice
	Species     []string
	Seed        int64
	Incremental bool

	Recorder  Recorder
	Publisher Publisher
	Logger    *slog.Logger
}

func (d *Driver) check() error {
	if d.Network == nil || d.Lattice == nil {
		return ErrNoNetwork
	}
	return nil
}

// RunTime advances from start to end, emitting a frame at start and at every
// multiple of every after it, the last one at end.
func (d *Driver) RunTime(ctx context.Context, start, end, every float64) (Summary, error) {
	sum := Summary{Clock: start, Status: ssa.TimeReached}
	if err := d.check(); err != nil {
		return sum, err
	}
	if !(every > 0) || math.IsInf(every, 0) {
		return sum, fmt.Errorf("evolve: output interval must be positive and finite, got %g", every)
	}
	if end < start {
		return sum, fmt.Errorf("evolve: end %g is before start %g", end, start)
	}

	log := logging.OrDiscard(d.Logger)
	master := pcore.NewRNG(d.Seed)
	if err := d.emit(ctx, log, &sum, start); err != nil {
		return sum, err
	}

	for k := 1; start < end; k++ {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		point := math.Min(start+float64(k)*every, end)
		res, err := d.advance(ctx, log, sum.Clock, ssa.RunUntil(point), master.Seed())
		sum.Events += res.Events
		if err != nil {
			return sum, fmt.Errorf("chunk to t=%g: %w", point, err)
		}
		sum.Clock = res.Clock
		sum.Status = res.Status
		if err := d.emit(ctx, log, &sum, point); err != nil {
			return sum, err
		}
		if point >= end {
			break
		}
	}

	log.Info("run finished", "clock", sum.Clock, "events", sum.Events, "frames", sum.Frames, "status", sum.Status.String())
	return sum, nil
}

// RunEvents fires total events, emitting a frame at the start and after every
// chunk of every events. It stops early once no reaction can fire.
func (d *Driver) RunEvents(ctx context.Context, start float64, total, every int) (Summary, error) {
	sum := Summary{Clock: start, Status: ssa.CountReached}
	if err := d.check(); err != nil {
		return sum, err
	}
	if total < 0 {
		return sum, fmt.Errorf("evolve: negative event total %d", total)
	}
	if every <= 0 || every > total {
		every = total
	}

	log := logging.OrDiscard(d.Logger)
	master := pcore.NewRNG(d.Seed)
	if err := d.emit(ctx, log, &sum, 0); err != nil {
		return sum, err
	}

	for sum.Events < total {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		n := min(every, total-sum.Events)
		res, err := d.advance(ctx, log, start, ssa.RunFor(n), master.Seed())
		sum.Events += res.Events
		if err != nil {
			return sum, fmt.Errorf("chunk at event %d: %w", sum.Events, err)
		}
		sum.Status = res.Status
		if err := d.emit(ctx, log, &sum, float64(sum.Events)); err != nil {
			return sum, err
		}
		if res.Status == ssa.Exhausted {
			break
		}
	}

	log.Info("run finished", "events", sum.Events, "frames", sum.Frames, "status", sum.Status.String())
	return sum, nil
}

func (d *Driver) advance(ctx context.Context, log *slog.Logger, clock float64, stop ssa.Stop, seed int64) (ssa.Result, error) {
	opts := ssa.Options{Incremental: d.Incremental, Logger: log}
	if log.Enabled(ctx, logging.LevelTrace) {
		opts.Observer = func(e ssa.Event) {
			log.Log(ctx, logging.LevelTrace, "event",
				"n", e.Index, "x", e.X, "y", e.Y, "reaction", e.Reaction, "clock", e.Clock, "total", e.Total)
		}
	}
	res, err := ssa.Advance(ssa.Request{
		Start:   clock,
		Stop:    stop,
		Seed:    seed,
		Lattice: d.Lattice,
		Network: d.Network,
		Options: opts,
	})
	log.Debug("chunk done", "stop", stop.String(), "seed", seed, "events", res.Events, "clock", res.Clock)
	return res, err
}

func (d *Driver) emit(ctx context.Context, log *slog.Logger, sum *Summary, label float64) error {
	f := Frame{
		Index:   sum.Frames,
		Time:    label,
		Clock:   sum.Clock,
		Events:  sum.Events,
		Lattice: d.Lattice.Clone(),
	}
	sum.Frames++
	if d.Recorder != nil {
		if err := d.Recorder.Record(ctx, f); err != nil {
			return fmt.Errorf("record frame %d: %w", f.Index, err)
		}
	}
	if d.Publisher != nil {
		u := Update{
			Frame:   f.Index,
			Time:    f.Time,
			Clock:   f.Clock,
			Events:  f.Events,
			Species: d.Species,
			Totals:  f.Lattice.Totals(),
		}
		if err := d.Publisher.Publish(ctx, u); err != nil {
			log.Warn("publish failed", "frame", f.Index, "error", err)
		}
	}
	return nil
}
