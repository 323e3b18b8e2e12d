// Package sweep runs independent replicates of one simulation across a
// bounded pool of workers and summarises their final species totals.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"chem-ca/internal/core"
	"chem-ca/internal/logging"
	"chem-ca/internal/ssa"
)

// Outcome is the end state of one replicate.
type Outcome struct {
	Totals []float64
	Events int
	Clock  float64
	Status ssa.Status
}

// ErrShortTotals marks a replicate whose outcome holds fewer totals than the
// sweep has species.
var ErrShortTotals = errors.New("sweep: outcome has fewer totals than species")

// Scenario runs a single replicate with the given seed.
type Scenario func(ctx context.Context, seed int64) (Outcome, error)

// Replicate is one finished (or failed) scenario run.
type Replicate struct {
	Index int
	Seed  int64
	Outcome
	Err error
}

// Stats holds per-species statistics over the successful replicates.
type Stats struct {
	Mean   []float64
	StdDev []float64
	Min    []float64
	Max    []float64
}

// Report is the result of a sweep. Replicates are ordered by index.
type Report struct {
	Species    []string
	Replicates []Replicate
	Stats      Stats
	Failed     int
}

// Options configure Run.
type Options struct {
	Replicates int
	Workers    int
	// BaseSeed seeds replicate i with BaseSeed+i.
	BaseSeed int64
	Logger   *slog.Logger
}

// Run executes opts.Replicates copies of sc. Failed replicates are reported
// in the Report and excluded from Stats; Run itself only fails when ctx is
// cancelled.
func Run(ctx context.Context, species []string, opts Options, sc Scenario) (Report, error) {
	n := opts.Replicates
	if n <= 0 {
		n = 1
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}
	if workers > n {
		workers = n
	}
	log := logging.OrDiscard(opts.Logger)

	type job struct {
		index int
		seed  int64
	}
	jobs := make(chan job)
	results := make(chan Replicate)
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				out, err := sc(ctx, j.seed)
				results <- Replicate{Index: j.index, Seed: j.seed, Outcome: out, Err: err}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	go func() {
		defer close(jobs)
		for i := 0; i < n; i++ {
			select {
			case jobs <- job{index: i, seed: opts.BaseSeed + int64(i)}:
			case <-ctx.Done():
				return
			}
		}
	}()

	rep := Report{Species: species, Replicates: make([]Replicate, n)}
	done := make([]bool, n)
	for r := range results {
		if r.Err == nil && len(r.Totals) < len(species) {
			r.Err = fmt.Errorf("%w: got %d, want %d", ErrShortTotals, len(r.Totals), len(species))
		}
		rep.Replicates[r.Index] = r
		done[r.Index] = true
		if r.Err != nil {
			log.Warn("replicate failed", "replicate", r.Index, "seed", r.Seed, "error", r.Err)
			continue
		}
		log.Debug("replicate done", "replicate", r.Index, "seed", r.Seed, "events", r.Events)
	}

	if err := ctx.Err(); err != nil {
		return rep, err
	}

	var ok []Outcome
	for i, r := range rep.Replicates {
		if !done[i] || r.Err != nil {
			rep.Failed++
			continue
		}
		ok = append(ok, r.Outcome)
	}
	rep.Stats = summarise(len(species), ok)
	log.Info("sweep finished", "replicates", n, "failed", rep.Failed, "workers", workers)
	return rep, nil
}

func summarise(species int, outs []Outcome) Stats {
	st := Stats{
		Mean:   make([]float64, species),
		StdDev: make([]float64, species),
		Min:    make([]float64, species),
		Max:    make([]float64, species),
	}
	if len(outs) == 0 {
		return st
	}
	for m := 0; m < species; m++ {
		st.Min[m] = math.Inf(1)
		st.Max[m] = math.Inf(-1)
		sum := 0.0
		for _, o := range outs {
			v := o.Totals[m]
			sum += v
			st.Min[m] = math.Min(st.Min[m], v)
			st.Max[m] = math.Max(st.Max[m], v)
		}
		mean := sum / float64(len(outs))
		st.Mean[m] = mean
		if len(outs) > 1 {
			ss := 0.0
			for _, o := range outs {
				d := o.Totals[m] - mean
				ss += d * d
			}
			st.StdDev[m] = math.Sqrt(ss / float64(len(outs)-1))
		}
	}
	return st
}

// LatticeScenario runs net on a lattice built per replicate by build, from
// start until stop.
func LatticeScenario(net *ssa.Network, build func(seed int64) (*core.Lattice, error), start float64, stop ssa.Stop, incremental bool) Scenario {
	return func(ctx context.Context, seed int64) (Outcome, error) {
		if err := ctx.Err(); err != nil {
			return Outcome{}, err
		}
		lat, err := build(seed)
		if err != nil {
			return Outcome{}, fmt.Errorf("build lattice: %w", err)
		}
		res, err := ssa.Advance(ssa.Request{
			Start:   start,
			Stop:    stop,
			Seed:    seed,
			Lattice: lat,
			Network: net,
			Options: ssa.Options{Incremental: incremental},
		})
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{Totals: lat.Totals(), Events: res.Events, Clock: res.Clock, Status: res.Status}, nil
	}
}
