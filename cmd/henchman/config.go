// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/henchman-tools/henchman/internal/config"
)

// newConfigCommand creates the `henchman config` command tree.
func newConfigCommand(app *App, flags *globalFlags) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect henchman configuration",
		Long: `Inspect henchman configuration.

Configuration is read from henchman.cue in the module root, or from the file
given with --config. Any key can be overridden from the environment with the
HENCHMAN_ prefix, e.g. HENCHMAN_UNIT_PATTERN or HENCHMAN_TOOLS_PUPPET.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration as CUE",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig(cmd.Context(), flags)
			if err != nil {
				return app.fail(err, flags.verbose)
			}

			source := SubtitleStyle.Render("(using defaults)")
			if path := app.Config.Path(flags.loadOptions()); path != "" {
				source = path
			}
			fmt.Fprintf(app.stdout, "// %s: %s\n", CmdStyle.Render("Config file"), source)
			fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := app.Config.Path(flags.loadOptions())
			if path == "" {
				fmt.Fprintln(app.stdout, SubtitleStyle.Render("(using defaults)"))
				return nil
			}
			fmt.Fprintln(app.stdout, path)
			return nil
		},
	})

	return cfgCmd
}
