package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"chem-ca/internal/core"
	"chem-ca/internal/evolve"
	"chem-ca/internal/notify"
	"chem-ca/internal/sims/chem"
	"chem-ca/internal/ssa"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a simulation and stream its progress over websocket",
		Long: `Run a simulation indefinitely and push a JSON update with the clock,
the event count and every molecule's lattice total to all clients of the
/ws websocket endpoint. GET /state returns the latest update.

The simulation advances serve.events_per_frame events (or --dt time units)
per frame at serve.rate frames per second.

Examples:
  chem-ca serve --preset predprey --addr :8080 --rate 20`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSession(cmd)
			if err != nil {
				return err
			}
			f := cmd.Flags()
			if f.Changed("addr") {
				s.cfg.Serve.Addr, _ = f.GetString("addr")
			}
			if f.Changed("rate") {
				s.cfg.Serve.Rate, _ = f.GetInt("rate")
			}
			if f.Changed("per-frame") {
				s.cfg.Serve.EventsPerFrame, _ = f.GetInt("per-frame")
			}
			dt, _ := f.GetFloat64("dt")
			maxFrames, _ := f.GetInt("frames")

			world, err := s.world(dt)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			hub := notify.NewHub(s.log)
			defer hub.Close()
			last := &latestUpdate{next: hub}

			mux := http.NewServeMux()
			mux.Handle("/ws", hub)
			mux.HandleFunc("/state", last.serveState)
			srv := &http.Server{Addr: s.cfg.Serve.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

			errCh := make(chan error, 1)
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()
			s.log.Info("serving", "addr", s.cfg.Serve.Addr, "system", s.name, "rate", s.cfg.Serve.Rate)

			streamCtx, cancel := context.WithCancel(ctx)
			go func() {
				if err, ok := <-errCh; ok {
					s.log.Error("http server failed", "error", err)
					cancel()
				}
			}()
			frames, streamErr := stream(streamCtx, world, last, core.NewFixedStep(s.cfg.Serve.Rate), maxFrames, s.log)
			cancel()

			shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
			defer done()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				s.log.Warn("http shutdown", "error", err)
			}
			s.log.Info("stream stopped", "frames", frames, "events", world.Events(), "clock", world.Clock())
			return streamErr
		},
	}
	addRunFlags(cmd)
	cmd.Flags().String("addr", "", "Listen address (default from config)")
	cmd.Flags().Int("rate", 0, "Frames per second (default from config)")
	cmd.Flags().Int("per-frame", 0, "Reaction events per frame (default from config)")
	cmd.Flags().Float64("dt", 0, "Advance this much simulated time per frame instead of a fixed event count")
	cmd.Flags().Int("frames", 0, "Stop after this many frames (0 runs until interrupted)")
	return cmd
}

// world builds the interactive form of the session's system.
func (s *session) world(dt float64) (*chem.World, error) {
	cfg := chem.DefaultConfig()
	cfg.Width, cfg.Height = s.cfg.Lattice.Width, s.cfg.Lattice.Height
	cfg.Seed = s.cfg.Seed
	cfg.Incremental = s.cfg.Incremental
	cfg.TimePerStep = dt
	if s.cfg.Serve.EventsPerFrame > 0 {
		cfg.EventsPerStep = s.cfg.Serve.EventsPerFrame
	}
	w, err := chem.NewFromSystem(s.name, s.sys, s.initial, cfg)
	if err != nil {
		return nil, err
	}
	w.SetLogger(s.log)
	if s.snapshot != nil {
		lat, err := s.snapshot.Lattice()
		if err != nil {
			return nil, err
		}
		if err := w.Restore(lat, s.snapshot.Clock, s.snapshot.Events); err != nil {
			return nil, err
		}
	}
	return w, nil
}

// stream steps w at the pace of fs and publishes an update after every
// frame. It returns when ctx is done, after maxFrames frames when positive,
// or once no reaction can fire.
func stream(ctx context.Context, w *chem.World, pub evolve.Publisher, fs *core.FixedStep, maxFrames int, log *slog.Logger) (int, error) {
	ticker := time.NewTicker(fs.Interval())
	defer ticker.Stop()

	frames := 0
	publish := func() {
		u := evolve.Update{
			Frame:   frames,
			Time:    w.Clock(),
			Clock:   w.Clock(),
			Events:  w.Events(),
			Species: w.SpeciesNames(),
			Totals:  w.SpeciesTotals(),
		}
		if err := pub.Publish(ctx, u); err != nil && ctx.Err() == nil {
			log.Warn("publish failed", "frame", frames, "error", err)
		}
		frames++
	}

	publish()
	for maxFrames <= 0 || frames < maxFrames {
		select {
		case <-ctx.Done():
			return frames, nil
		case now := <-ticker.C:
			due := fs.Due(now)
			for i := 0; i < due; i++ {
				w.Step()
			}
			if due == 0 {
				continue
			}
			if err := w.Err(); err != nil {
				return frames, err
			}
			publish()
			if w.Status() == ssa.Exhausted {
				log.Info("no reaction can fire; stream finished", "clock", w.Clock(), "events", w.Events())
				return frames, nil
			}
		}
	}
	return frames, nil
}

// latestUpdate remembers the last update for /state and forwards it.
type latestUpdate struct {
	mu   sync.RWMutex
	last *evolve.Update
	next evolve.Publisher
}

func (l *latestUpdate) Publish(ctx context.Context, u evolve.Update) error {
	l.mu.Lock()
	l.last = &u
	l.mu.Unlock()
	if l.next == nil {
		return nil
	}
	return l.next.Publish(ctx, u)
}

func (l *latestUpdate) serveState(w http.ResponseWriter, r *http.Request) {
	l.mu.RLock()
	last := l.last
	l.mu.RUnlock()
	if last == nil {
		http.Error(w, "no frame yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := writeJSON(w, last); err != nil {
		http.Error(w, fmt.Sprintf("encode state: %v", err), http.StatusInternalServerError)
	}
}
