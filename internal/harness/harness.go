// SPDX-License-Identifier: MPL-2.0

package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/henchman-tools/henchman/internal/config"
	"github.com/henchman-tools/henchman/internal/fixtures"
	"github.com/henchman-tools/henchman/internal/issue"
	"github.com/henchman-tools/henchman/internal/project"
	"github.com/henchman-tools/henchman/internal/shell"
	"github.com/henchman-tools/henchman/internal/spechelper"
	"github.com/henchman-tools/henchman/internal/taskgraph"
	"github.com/henchman-tools/henchman/internal/tools"
	"github.com/henchman-tools/henchman/internal/versiongate"
)

// DefaultTask runs when no task is named.
const DefaultTask = "help"

type (
	// Options configures a Harness. Zero values fall back to the process
	// environment, the current directory and the default configuration.
	Options struct {
		Dir    string
		Config *config.Config
		Stdout io.Writer
		Logger *log.Logger
		// LookupEnv feeds both FUTURE_PARSER checks and the spec helper settings.
		LookupEnv func(key string) (string, bool)
		// LookPath probes optional tools at registration time.
		LookPath tools.LookPathFunc
		// Runner executes external tools.
		Runner tools.ScriptRunner
		// Gate overrides the Puppet version gate.
		Gate *versiongate.Gate
	}

	// Harness owns the task graph and everything its actions need.
	Harness struct {
		layout    project.Layout
		cfg       *config.Config
		out       io.Writer
		logger    *log.Logger
		lookupEnv func(key string) (string, bool)
		runner    tools.ScriptRunner
		gate      *versiongate.Gate
		prober    *tools.Prober
		sections  *sectionPrinter
		lint      *tools.LintOptions
		graph     *taskgraph.Graph

		// moduleName is resolved once per Run.
		moduleName string
	}
)

// New builds the harness and registers the task table.
func New(opts Options) (*Harness, error) {
	dir := opts.Dir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		dir = wd
	}
	layout, err := project.NewLayout(dir)
	if err != nil {
		return nil, err
	}

	h := &Harness{
		layout:    layout,
		cfg:       opts.Config,
		out:       opts.Stdout,
		logger:    opts.Logger,
		lookupEnv: opts.LookupEnv,
		runner:    opts.Runner,
		gate:      opts.Gate,
	}
	if h.cfg == nil {
		h.cfg = config.DefaultConfig()
	}
	if h.out == nil {
		h.out = os.Stdout
	}
	if h.logger == nil {
		h.logger = log.New(io.Discard)
	}
	if h.lookupEnv == nil {
		h.lookupEnv = os.LookupEnv
	}
	if h.runner == nil {
		h.runner = shell.NewRunner(layout.SourceDir, h.logger.WithPrefix("shell"))
	}
	if h.gate == nil {
		h.gate = versiongate.New(
			versiongate.WithTool(h.cfg.Tools.Puppet),
			versiongate.WithLookupEnv(h.lookupEnv),
		)
	}
	h.prober = tools.NewProber(opts.LookPath)
	h.sections = newSectionPrinter(h.out)
	h.graph = taskgraph.New(taskgraph.WithLogger(h.logger.WithPrefix("task")))

	if err := h.register(); err != nil {
		return nil, fmt.Errorf("failed to register tasks: %w", err)
	}
	if err := h.graph.Validate(); err != nil {
		return nil, err
	}
	return h, nil
}

// Graph returns the registered task graph.
func (h *Harness) Graph() *taskgraph.Graph {
	return h.graph
}

// Layout returns the module layout the harness operates on.
func (h *Harness) Layout() project.Layout {
	return h.layout
}

// Run invokes each task spec ("name" or "name[arg,...]") in order within a
// single invocation, so shared prerequisites run once. No specs runs the
// default task. The first failure stops the run.
func (h *Harness) Run(ctx context.Context, specs ...string) error {
	if len(specs) == 0 {
		specs = []string{DefaultTask}
	}
	h.moduleName = ""

	inv := h.graph.NewInvocation()
	for _, spec := range specs {
		name, args, err := taskgraph.ParseTaskSpec(spec)
		if err != nil {
			return err
		}
		if err := inv.Invoke(ctx, name, args...); err != nil {
			return decorate(err)
		}
	}
	return nil
}

// SpecHelper returns the spec helper settings for this module and environment.
func (h *Harness) SpecHelper() spechelper.Settings {
	return spechelper.FromEnv(h.layout.FixturesDir(), h.lookupEnv)
}

// SpecHelperPath is where spec:unit:prep writes the helper.
func (h *Harness) SpecHelperPath() string {
	return filepath.Join(h.layout.FixturesDir(), spechelper.HelperFile)
}

func (h *Harness) module() (string, error) {
	if h.moduleName != "" {
		return h.moduleName, nil
	}
	name, err := h.layout.ModuleName()
	if err != nil {
		return "", err
	}
	h.moduleName = name
	return name, nil
}

// decorate attaches troubleshooting context to the fatal error classes.
func decorate(err error) error {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return err
	}

	var (
		notFound   *taskgraph.TaskNotFoundError
		cycle      *taskgraph.PrerequisiteCycleError
		toolErr    *versiongate.ToolNotFoundError
		conflict   *fixtures.FilesystemStateConflictError
		ctxBuilder *issue.ErrorContext
	)
	switch {
	case errors.As(err, &notFound):
		ctxBuilder = issue.NewErrorContext().
			WithOperation("run task").
			WithResource(notFound.Name).
			WithSuggestion("Run 'henchman tasks --all' to list every task").
			WithGuide(issue.TaskNotFoundId)
	case errors.As(err, &cycle):
		ctxBuilder = issue.NewErrorContext().
			WithOperation("resolve prerequisites").
			WithGuide(issue.PrerequisiteCycleId)
	case errors.As(err, &toolErr):
		ctxBuilder = issue.NewErrorContext().
			WithOperation("determine the Puppet version").
			WithResource(toolErr.Tool).
			WithSuggestion("Install Puppet or set tools.puppet in henchman.cue").
			WithGuide(issue.ToolNotFoundId)
	case errors.As(err, &conflict):
		ctxBuilder = issue.NewErrorContext().
			WithOperation("manage test fixtures").
			WithResource(conflict.Path).
			WithSuggestion("Move the file or directory out of the way and rerun").
			WithGuide(issue.FixtureConflictId)
	default:
		return err
	}
	return ctxBuilder.Wrap(err).BuildError()
}
