// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/henchman-tools/henchman/internal/harness"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	flags := &globalFlags{}
	var listTasks bool

	rootCmd := &cobra.Command{
		Use:   "henchman [task[args]...]",
		Short: "Build and test harness for Puppet modules",
		Long: TitleStyle.Render("henchman") + SubtitleStyle.Render(" - build and test harness for Puppet modules") + `

henchman runs lint, syntax, metadata, unit and integration tasks for the
Puppet module in the current directory, delegating to puppet-lint, puppet,
metadata-json-lint, rspec, librarian-puppet and Test Kitchen.

` + SubtitleStyle.Render("Examples:") + `
  henchman                      List the available tasks
  henchman style                Run metadata, lint and syntax checks
  henchman unit                 Run unit tests (fixtures are cleaned up afterwards)
  henchman integration[never]   Run integration tests, keeping instances
  henchman clean                Remove test fixtures`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if listTasks {
				h, err := app.newHarness(cmd.Context(), flags)
				if err != nil {
					return app.fail(err, flags.verbose)
				}
				return harness.PrintTasks(app.stdout, h.Graph().Tasks(), false)
			}
			return runTasks(cmd.Context(), app, flags, args)
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default is ./henchman.cue)")
	rootCmd.PersistentFlags().StringVarP(&flags.chdir, "chdir", "C", "", "run as if started in this module directory")
	rootCmd.Flags().BoolVarP(&listTasks, "tasks", "T", false, "list tasks with descriptions and exit")

	rootCmd.AddCommand(newTasksCommand(app, flags))
	rootCmd.AddCommand(newSpecHelperCommand(app, flags))
	rootCmd.AddCommand(newConfigCommand(app, flags))

	return rootCmd
}

func runTasks(ctx context.Context, app *App, flags *globalFlags, specs []string) error {
	h, err := app.newHarness(ctx, flags)
	if err != nil {
		return app.fail(err, flags.verbose)
	}
	if err := h.Run(ctx, specs...); err != nil {
		return app.fail(err, flags.verbose)
	}
	return nil
}

// fail renders err and converts it into an ExitError.
func (a *App) fail(err error, verbose bool) error {
	a.renderError(err, verbose)
	return &ExitError{Code: 1, Err: err}
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// errorHandler leaves errors that were already rendered as ExitError alone.
func errorHandler(w io.Writer, styles fang.Styles, err error) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return
	}
	fang.DefaultErrorHandler(w, styles, err)
}

// Execute runs the CLI. This is called by main.main().
func Execute() {
	rootCmd := NewRootCommand(NewApp(Dependencies{}))
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(errorHandler),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}
