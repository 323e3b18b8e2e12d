//go:build ebiten

package main

import (
	"errors"
	"fmt"
	"os"

	"chem-ca/internal/app"
	"chem-ca/internal/core"
	_ "chem-ca/internal/sims/chem"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/spf13/cobra"
)

func main() {
	cfg := app.NewConfig()
	cmd := &cobra.Command{
		Use:   "ca",
		Short: "Interactive viewer for lattice reaction systems",
		Long: `Runs a registered preset in a window.

Keys: space pause, n single step, r reset, s reseed, tab cycle species
heatmap, backspace hide it, q quit.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			factory, ok := core.Sims()[cfg.Sim]
			if !ok {
				return fmt.Errorf("unknown sim %q (have %v)", cfg.Sim, core.SimNames())
			}
			sim := factory(cfg.SimParams())
			game := app.New(sim, cfg)
			size := sim.Size()

			ebiten.SetWindowTitle("chem-ca: " + sim.Name())
			ebiten.SetTPS(cfg.TPS)
			ebiten.SetWindowSize(size.W*cfg.Scale+max(cfg.HUDWidth, 0), size.H*cfg.Scale)

			if err := ebiten.RunGame(game); err != nil && !errors.Is(err, ebiten.Termination) {
				return err
			}
			return nil
		},
	}
	cfg.Bind(cmd.Flags())

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
