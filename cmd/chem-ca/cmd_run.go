package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"chem-ca/internal/evolve"
	"chem-ca/internal/ssa"
	"chem-ca/internal/store"
)

type runResult struct {
	System   string             `json:"system"`
	RunID    int64              `json:"run_id,omitempty"`
	Seed     int64              `json:"seed"`
	Clock    float64            `json:"clock"`
	Events   int                `json:"events"`
	Frames   int                `json:"frames"`
	Status   string             `json:"status"`
	Totals   map[string]float64 `json:"totals"`
	Store    string             `json:"store,omitempty"`
	Snapshot string             `json:"snapshot,omitempty"`
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Simulate a reaction system and record frames",
		Long: `Simulate a reaction system on the lattice and record a frame of the
whole lattice at every output point.

Frames go to the SQLite database given by --store (or store.path in the
configuration) and are kept in memory otherwise. --snapshot saves the final
lattice so a later run can continue from it with --restore.

Examples:
  chem-ca run --preset predprey --end 2 --output 0.01 --store runs.db
  chem-ca run -c brusselator.yaml --events 100000 --every 1000
  chem-ca run --network polymer.crs --restore last.json --end 20`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSession(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("store") {
				s.cfg.Store.Path, _ = cmd.Flags().GetString("store")
			}
			if cmd.Flags().Changed("snapshot") {
				s.cfg.Store.Snapshot, _ = cmd.Flags().GetString("snapshot")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			res, err := runSession(ctx, s)
			if err != nil {
				return err
			}
			if jsonOutput(cmd) {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %d events, clock %g, %d frames (%s)\n", res.System, res.Events, res.Clock, res.Frames, res.Status)
			for _, name := range s.sys.Molecules {
				fmt.Fprintf(out, "  %-12s %g\n", name, res.Totals[name])
			}
			if res.RunID > 0 {
				fmt.Fprintf(out, "stored as run %d in %s\n", res.RunID, res.Store)
			}
			return nil
		},
	}
	addRunFlags(cmd)
	cmd.Flags().String("store", "", "SQLite database receiving the frames")
	cmd.Flags().String("snapshot", "", "Save the final lattice to this file (.json or .yaml)")
	return cmd
}

func runSession(ctx context.Context, s *session) (runResult, error) {
	cfg := s.cfg
	lat, start, err := s.lattice(cfg.Seed)
	if err != nil {
		return runResult{}, err
	}
	res := runResult{System: s.name, Seed: cfg.Seed, Store: cfg.Store.Path, Snapshot: cfg.Store.Snapshot}

	var rec evolve.Recorder = store.NewMemoryRecorder()
	if cfg.Store.Path != "" {
		db, err := store.OpenSQLite(cfg.Store.Path)
		if err != nil {
			return res, err
		}
		defer db.Close()
		run, err := db.BeginRun(ctx, store.RunInfo{
			Name:      s.name,
			Seed:      cfg.Seed,
			Width:     lat.W,
			Height:    lat.H,
			Molecules: s.sys.Molecules,
			Network:   s.networkText(),
		})
		if err != nil {
			return res, err
		}
		res.RunID = run.ID()
		rec = run
	}

	d := &evolve.Driver{
		Network:     s.net,
		Lattice:     lat,
		Species:     s.sys.Molecules,
		Seed:        cfg.Seed,
		Incremental: cfg.Incremental,
		Recorder:    rec,
		Logger:      s.log,
	}
	var sum evolve.Summary
	if cfg.EventMode() {
		sum, err = d.RunEvents(ctx, start, cfg.Events.Total, cfg.Events.Output)
	} else {
		sum, err = d.RunTime(ctx, start, cfg.Time.End, cfg.Time.Output)
	}
	if err != nil {
		return res, err
	}

	events := sum.Events
	if s.snapshot != nil {
		events += s.snapshot.Events
	}
	res.Clock, res.Events, res.Frames, res.Status = sum.Clock, events, sum.Frames, sum.Status.String()
	res.Totals = make(map[string]float64, len(s.sys.Molecules))
	for i, v := range lat.Totals() {
		res.Totals[s.sys.Molecules[i]] = v
	}
	if sum.Status == ssa.Exhausted {
		s.log.Warn("no reaction can fire; the lattice is absorbing", "clock", sum.Clock)
	}

	if cfg.Store.Snapshot != "" {
		snap := store.NewSnapshot(lat, s.sys.Molecules, sum.Clock, events, cfg.Seed)
		if err := store.SaveSnapshot(cfg.Store.Snapshot, snap); err != nil {
			return res, err
		}
		s.log.Info("snapshot saved", "path", cfg.Store.Snapshot)
	}
	return res, nil
}
