// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newSpecHelperCommand creates the `henchman spec-helper` command.
func newSpecHelperCommand(app *App, flags *globalFlags) *cobra.Command {
	var write bool

	helperCmd := &cobra.Command{
		Use:   "spec-helper",
		Short: "Print the generated rspec-puppet helper",
		Long: `Print the rspec-puppet configuration henchman generates for unit tests.

The helper is derived from FUTURE_PARSER ("yes"), STRICT_VARIABLES ("yes"),
STRINGIFY_FACTS ("no"), TRUSTED_NODE_DATA ("yes") and ORDERING. Note that
FUTURE_PARSER must be "true" for the syntax tasks but "yes" here.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := app.newHarness(cmd.Context(), flags)
			if err != nil {
				return app.fail(err, flags.verbose)
			}
			settings := h.SpecHelper()

			if write {
				if err := settings.Write(h.SpecHelperPath()); err != nil {
					return app.fail(err, flags.verbose)
				}
				fmt.Fprintf(app.stdout, "%s Wrote %s\n", SuccessStyle.Render("✓"), h.SpecHelperPath())
				return nil
			}

			content, err := settings.Render()
			if err != nil {
				return err
			}
			fmt.Fprint(app.stdout, content)
			return nil
		},
	}

	helperCmd.Flags().BoolVarP(&write, "write", "w", false, "write the helper into the fixtures directory")

	return helperCmd
}
