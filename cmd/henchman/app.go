// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/henchman-tools/henchman/internal/config"
	"github.com/henchman-tools/henchman/internal/harness"
	"github.com/henchman-tools/henchman/internal/issue"
	"github.com/henchman-tools/henchman/internal/tools"
)

type (
	// App wires CLI services. Every command handler receives it and reads
	// configuration and builds the harness through it.
	App struct {
		Config    config.Provider
		stdout    io.Writer
		stderr    io.Writer
		lookupEnv func(string) (string, bool)
		lookPath  tools.LookPathFunc
		runner    tools.ScriptRunner
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config    config.Provider
		Stdout    io.Writer
		Stderr    io.Writer
		LookupEnv func(string) (string, bool)
		LookPath  tools.LookPathFunc
		Runner    tools.ScriptRunner
	}

	// globalFlags are the persistent root flags.
	globalFlags struct {
		verbose    bool
		configPath string
		chdir      string
	}
)

// NewApp creates an App from deps.
func NewApp(deps Dependencies) *App {
	app := &App{
		Config:    deps.Config,
		stdout:    deps.Stdout,
		stderr:    deps.Stderr,
		lookupEnv: deps.LookupEnv,
		lookPath:  deps.LookPath,
		runner:    deps.Runner,
	}
	if app.Config == nil {
		app.Config = config.NewProvider()
	}
	if app.stdout == nil {
		app.stdout = os.Stdout
	}
	if app.stderr == nil {
		app.stderr = os.Stderr
	}
	if app.lookupEnv == nil {
		app.lookupEnv = os.LookupEnv
	}
	return app
}

func (f *globalFlags) loadOptions() config.LoadOptions {
	return config.LoadOptions{ConfigFilePath: f.configPath, Dir: f.chdir}
}

// loadConfig loads configuration and folds ui.verbose into the flags.
func (a *App) loadConfig(ctx context.Context, flags *globalFlags) (*config.Config, error) {
	cfg, err := a.Config.Load(ctx, flags.loadOptions())
	if err != nil {
		return nil, err
	}
	if cfg.UI.Verbose {
		flags.verbose = true
	}
	return cfg, nil
}

func (a *App) newLogger(verbose bool) *log.Logger {
	logger := log.NewWithOptions(a.stderr, log.Options{Prefix: "henchman"})
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

// newHarness loads configuration and builds the task table.
func (a *App) newHarness(ctx context.Context, flags *globalFlags) (*harness.Harness, error) {
	cfg, err := a.loadConfig(ctx, flags)
	if err != nil {
		return nil, err
	}
	return harness.New(harness.Options{
		Dir:       flags.chdir,
		Config:    cfg,
		Stdout:    a.stdout,
		Logger:    a.newLogger(flags.verbose),
		LookupEnv: a.lookupEnv,
		LookPath:  a.lookPath,
		Runner:    a.runner,
	})
}

// renderError writes err for the user. In verbose mode the error chain and
// the matching troubleshooting guide are included.
func (a *App) renderError(err error, verbose bool) {
	fmt.Fprintf(a.stderr, "%s %s\n", ErrorStyle.Render("Error:"), formatErrorForDisplay(err, verbose))

	var ae *issue.ActionableError
	if !verbose || !errors.As(err, &ae) {
		return
	}
	if guide := issue.Get(ae.Guide); guide != nil {
		if rendered, renderErr := guide.Render("dark"); renderErr == nil {
			fmt.Fprint(a.stderr, rendered)
		}
	}
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}
