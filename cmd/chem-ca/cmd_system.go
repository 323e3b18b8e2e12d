package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"chem-ca/internal/crs"
	"chem-ca/internal/sims/chem"
)

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List the built-in reaction systems",
		RunE: func(cmd *cobra.Command, args []string) error {
			type presetJSON struct {
				Name        string   `json:"name"`
				Description string   `json:"description"`
				Molecules   []string `json:"molecules"`
				Reactions   int      `json:"reactions"`
			}
			var out []presetJSON
			for _, name := range chem.PresetNames() {
				p, _ := chem.LookupPreset(name)
				sys, err := p.System()
				if err != nil {
					return fmt.Errorf("preset %s: %w", name, err)
				}
				out = append(out, presetJSON{name, p.Description, sys.Molecules, len(sys.Reactions)})
			}
			if jsonOutput(cmd) {
				return writeJSON(cmd.OutOrStdout(), out)
			}
			for _, p := range out {
				fmt.Fprintf(cmd.OutOrStdout(), "%-12s %3d molecules %3d reactions  %s\n", p.Name, len(p.Molecules), p.Reactions, p.Description)
			}
			return nil
		},
	}
}

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Check a reaction system file",
		Long: `Parse a reaction system file, check it and compile it for the engine.

With --print the normalized system is written back in text form.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sys, err := crs.LoadFile(args[0])
			if err != nil {
				return err
			}
			if _, err := sys.Compile(); err != nil {
				return err
			}
			if jsonOutput(cmd) {
				return writeJSON(cmd.OutOrStdout(), map[string]any{
					"file":      args[0],
					"valid":     true,
					"molecules": len(sys.Molecules),
					"reactions": len(sys.Reactions),
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok, %d molecules, %d reactions\n", args[0], len(sys.Molecules), len(sys.Reactions))
			if show, _ := cmd.Flags().GetBool("print"); show {
				return crs.WriteText(cmd.OutOrStdout(), sys)
			}
			return nil
		},
	}
	cmd.Flags().Bool("print", false, "Print the normalized system")
	return cmd
}

func newConvertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert <in> <out>",
		Short: "Convert a reaction system between text, YAML and JSON",
		Long: `Convert a reaction system between the text, YAML and JSON formats.
Formats follow the file extensions (.yaml/.yml, .json, anything else is
text). A preset can be exported with --preset instead of <in>.

Examples:
  chem-ca convert network.crs network.yaml
  chem-ca convert --preset brusselator bz.crs`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			preset, _ := cmd.Flags().GetString("preset")
			var (
				sys *crs.System
				err error
				out string
			)
			switch {
			case preset != "" && len(args) == 1:
				p, ok := chem.LookupPreset(preset)
				if !ok {
					return fmt.Errorf("%w %q", errUnknownPreset, preset)
				}
				sys, err = p.System()
				out = args[0]
			case preset == "" && len(args) == 2:
				sys, err = crs.LoadFile(args[0])
				out = args[1]
			default:
				return fmt.Errorf("convert takes <in> <out>, or --preset and <out>")
			}
			if err != nil {
				return err
			}
			if err := crs.SaveFile(out, sys); err != nil {
				return err
			}
			if !jsonOutput(cmd) {
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%s)\n", out, crs.FormatOf(out))
				return nil
			}
			return writeJSON(cmd.OutOrStdout(), map[string]string{"out": out, "format": string(crs.FormatOf(out))})
		},
	}
	cmd.Flags().String("preset", "", "Export a built-in system")
	return cmd
}
