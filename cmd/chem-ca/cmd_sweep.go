package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"chem-ca/internal/core"
	"chem-ca/internal/sweep"
)

type sweepJSON struct {
	System     string           `json:"system"`
	Species    []string         `json:"species"`
	Replicates []replicateJSON  `json:"replicates"`
	Failed     int              `json:"failed"`
	Stats      map[string]stats `json:"stats"`
}

type replicateJSON struct {
	Seed   int64     `json:"seed"`
	Events int       `json:"events"`
	Clock  float64   `json:"clock"`
	Status string    `json:"status"`
	Totals []float64 `json:"totals,omitempty"`
	Error  string    `json:"error,omitempty"`
}

type stats struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

func newSweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run independent replicates and summarise final abundances",
		Long: `Run the configured simulation once per seed (seed, seed+1, ...) on a
bounded pool of workers and report the mean, standard deviation, minimum
and maximum of every molecule's final lattice total.

Examples:
  chem-ca sweep --preset predprey --end 1 --replicates 32 --workers 8`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSession(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("replicates") {
				s.cfg.Sweep.Replicates, _ = cmd.Flags().GetInt("replicates")
			}
			if cmd.Flags().Changed("workers") {
				s.cfg.Sweep.Workers, _ = cmd.Flags().GetInt("workers")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			_, start, err := s.lattice(s.cfg.Seed)
			if err != nil {
				return err
			}
			build := func(seed int64) (*core.Lattice, error) {
				lat, _, err := s.lattice(seed)
				return lat, err
			}
			sc := sweep.LatticeScenario(s.net, build, start, s.stop(), s.cfg.Incremental)
			rep, err := sweep.Run(ctx, s.sys.Molecules, sweep.Options{
				Replicates: s.cfg.Sweep.Replicates,
				Workers:    s.cfg.Sweep.Workers,
				BaseSeed:   s.cfg.Seed,
				Logger:     s.log,
			}, sc)
			if err != nil {
				return err
			}

			if jsonOutput(cmd) {
				return writeJSON(cmd.OutOrStdout(), sweepReport(s.name, rep))
			}
			if rep.Failed == len(rep.Replicates) {
				return fmt.Errorf("every replicate failed: %w", rep.Replicates[0].Err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %d replicates, %d failed\n", s.name, len(rep.Replicates), rep.Failed)
			fmt.Fprintf(out, "%-12s %14s %14s %14s %14s\n", "molecule", "mean", "stddev", "min", "max")
			for m, name := range rep.Species {
				fmt.Fprintf(out, "%-12s %14.6g %14.6g %14.6g %14.6g\n", name,
					rep.Stats.Mean[m], rep.Stats.StdDev[m], rep.Stats.Min[m], rep.Stats.Max[m])
			}
			return nil
		},
	}
	addRunFlags(cmd)
	cmd.Flags().Int("replicates", 0, "Number of replicates (default from config)")
	cmd.Flags().Int("workers", 0, "Concurrent workers (default from config)")
	return cmd
}

func sweepReport(system string, rep sweep.Report) sweepJSON {
	out := sweepJSON{System: system, Species: rep.Species, Failed: rep.Failed, Stats: map[string]stats{}}
	for _, r := range rep.Replicates {
		rj := replicateJSON{Seed: r.Seed, Events: r.Events, Clock: r.Clock, Status: r.Status.String(), Totals: r.Totals}
		if r.Err != nil {
			rj.Error = r.Err.Error()
		}
		out.Replicates = append(out.Replicates, rj)
	}
	if len(rep.Stats.Mean) == len(rep.Species) {
		for m, name := range rep.Species {
			out.Stats[name] = stats{rep.Stats.Mean[m], rep.Stats.StdDev[m], rep.Stats.Min[m], rep.Stats.Max[m]}
		}
	}
	return out
}
