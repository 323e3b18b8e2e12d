package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0-dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "chem-ca",
		Short: "Stochastic reaction systems on a lattice",
		Long: `chem-ca runs chemical reaction systems on a 2D lattice of well-mixed
sites with Gillespie's direct method.

A run is described by a YAML configuration (--config) naming either a
built-in preset or a reaction system file, the lattice size, the initial
abundances and the stop condition. Flags override the configuration and
CHEMCA_* environment variables override the file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")
	rootCmd.PersistentFlags().StringP("config", "c", "", "Run configuration file (YAML)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: info, debug, trace or warn")

	rootCmd.AddCommand(
		newVersionCmd(),
		newPresetsCmd(),
		newValidateCmd(),
		newConvertCmd(),
		newRunCmd(),
		newRunsCmd(),
		newExportCmd(),
		newSweepCmd(),
		newServeCmd(),
	)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			if jsonOutput(cmd) {
				return writeJSON(cmd.OutOrStdout(), map[string]string{"version": version})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "chem-ca version %s\n", version)
			return nil
		},
	}
}

func jsonOutput(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("json")
	return v
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
