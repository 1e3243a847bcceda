// SPDX-License-Identifier: MPL-2.0

package harness

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/henchman-tools/henchman/internal/fixtures"
	"github.com/henchman-tools/henchman/internal/issue"
	"github.com/henchman-tools/henchman/internal/kitchen"
	"github.com/henchman-tools/henchman/internal/taskgraph"
	"github.com/henchman-tools/henchman/internal/tools"
)

// run adapts a context-only function to a taskgraph.Action.
func run(fn func(context.Context) error) taskgraph.Action {
	return func(ctx context.Context, _ taskgraph.Call) error {
		return fn(ctx)
	}
}

func (h *Harness) register() error {
	for _, reg := range []func() error{
		h.registerHelp,
		h.registerLint,
		h.registerSyntax,
		h.registerMetadata,
		h.registerStyle,
		h.registerSpec,
		h.registerAliases,
	} {
		if err := reg(); err != nil {
			return err
		}
	}
	return nil
}

func (h *Harness) registerHelp() error {
	h.graph.Register(DefaultTask, nil, run(func(context.Context) error {
		return PrintTasks(h.out, h.graph.Tasks(), false)
	}), taskgraph.WithDescription("Display the list of available tasks"))
	return nil
}

func (h *Harness) section(title string) taskgraph.Action {
	return run(func(context.Context) error {
		h.sections.Print(title)
		return nil
	})
}

func (h *Harness) degraded(name, skipped string, tool tools.Tool) {
	missing := tool.Missing(skipped)
	h.graph.Register(name, nil, run(tools.Degraded(h.logger, missing)),
		taskgraph.WithDescription("Not available, install "+tool.Name))
}

func (h *Harness) registerLint() error {
	tool := h.prober.Probe(h.cfg.Tools.PuppetLint)
	if !tool.Available() {
		h.degraded("lint", "lint validation", tool)
	} else {
		stock := &tools.Lint{Binary: tool.Path, Dir: h.layout.SourceDir, Options: &tools.LintOptions{}, Exec: h.runner}
		h.graph.Register("lint", nil, run(stock.Run), taskgraph.WithDescription("Run puppet-lint"))

		// Redefine lint in relative mode with the configured checks.
		if err := h.graph.Clear("lint"); err != nil {
			return err
		}
		h.lint = &tools.LintOptions{
			FailOnWarnings: h.cfg.Lint.FailOnWarnings,
			Relative:       true,
			DisableChecks:  slices.Clone(h.cfg.Lint.DisableChecks),
			IgnorePaths:    slices.Clone(h.cfg.ExcludePaths),
		}
		lint := &tools.Lint{Binary: tool.Path, Dir: h.layout.SourceDir, Options: h.lint, Exec: h.runner}
		h.graph.Register("lint", nil, run(lint.Run), taskgraph.WithDescription("Run puppet-lint"))
	}

	h.graph.Register("lint:section", nil, h.section("Lint Validation"))
	return h.graph.Enhance("lint", "lint:section")
}

func (h *Harness) registerSyntax() error {
	h.graph.Register("syntax:section", nil, run(func(ctx context.Context) error {
		future, err := h.gate.IsFutureEnabled(ctx)
		if err != nil {
			return err
		}
		title := "Syntax Validation"
		if future {
			title += " (with future parser)"
		}
		h.sections.Print(title)
		return nil
	}))

	tool := h.prober.Probe(h.cfg.Tools.Puppet)
	if !tool.Available() {
		h.degraded("syntax", "syntax validation", tool)
		return h.graph.Enhance("syntax", "syntax:section")
	}

	syntax := &tools.Syntax{
		Puppet:         tool.Path,
		ERB:            h.cfg.Tools.ERB,
		Ruby:           h.cfg.Tools.Ruby,
		Dir:            h.layout.SourceDir,
		Exclude:        slices.Clone(h.cfg.ExcludePaths),
		HieradataPaths: slices.Clone(h.cfg.Syntax.HieradataPaths),
		Runner:         h.runner,
	}

	h.graph.Register("syntax:manifests", nil, run(func(ctx context.Context) error {
		future, err := h.gate.IsFutureEnabled(ctx)
		if err != nil {
			return err
		}
		return syntax.Manifests(ctx, future)
	}), taskgraph.WithDescription("Syntax check Puppet manifests"))

	h.graph.Register("syntax:templates", nil, run(func(ctx context.Context) error {
		epp, err := h.eppSupported(ctx)
		if err != nil {
			return err
		}
		return syntax.Templates(ctx, epp)
	}), taskgraph.WithDescription("Syntax check Puppet templates"))

	h.graph.Register("syntax:hiera:yaml", nil, run(syntax.Hiera),
		taskgraph.WithDescription("Syntax check Hiera config files"))
	h.graph.Register("syntax:hiera", []string{"syntax:hiera:yaml"}, nil)
	h.graph.Register("syntax", []string{"syntax:manifests", "syntax:templates", "syntax:hiera"}, nil,
		taskgraph.WithDescription("Syntax check Puppet manifests and templates"))

	for _, name := range []string{"syntax:manifests", "syntax:templates", "syntax:hiera:yaml"} {
		if err := h.graph.Enhance(name, "syntax:section"); err != nil {
			return err
		}
	}
	return nil
}

// eppSupported reports whether the installed Puppet can validate EPP
// templates: Puppet 4 and later, or the 3.x future parser.
func (h *Harness) eppSupported(ctx context.Context) (bool, error) {
	future, err := h.gate.IsFutureEnabled(ctx)
	if err != nil || future {
		return future, err
	}
	v, err := h.gate.ToolVersion(ctx)
	if err != nil {
		return false, err
	}
	return v.Segments()[0] >= 4, nil
}

func (h *Harness) registerMetadata() error {
	tool := h.prober.Probe(h.cfg.Tools.MetadataJSONLint)
	if !tool.Available() {
		h.degraded("metadata", "metadata validation", tool)
	} else {
		m := &tools.Metadata{Binary: tool.Path, Layout: h.layout, Exec: h.runner}
		h.graph.Register("metadata", nil, run(m.Run), taskgraph.WithDescription("Validate metadata.json file"))
	}

	h.graph.Register("metadata:section", nil, h.section("Metadata Validation"))
	return h.graph.Enhance("metadata", "metadata:section")
}

func (h *Harness) registerStyle() error {
	h.graph.Register("style", []string{"metadata", "lint", "syntax"}, nil,
		taskgraph.WithDescription("Run metadata, lint, and syntax tasks"))
	return nil
}

func (h *Harness) registerSpec() error {
	h.graph.Register("spec:clean", nil, run(func(context.Context) error {
		return fixtures.CleanDir(h.layout.ModulesDir())
	}))

	librarian := &tools.Librarian{
		Binary:     h.cfg.Tools.LibrarianPuppet,
		ModulesDir: h.layout.ModulesDir(),
		Exec:       h.runner,
		Logger:     h.logger.WithPrefix("deps"),
	}
	h.graph.Register("spec:prep", nil, run(func(ctx context.Context) error {
		if err := os.MkdirAll(h.layout.ModulesDir(), 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", h.layout.ModulesDir(), err)
		}
		return librarian.Install(ctx)
	}))

	h.graph.Register("spec:unit:prep", nil, run(func(context.Context) error {
		resources, err := h.unitFixtures()
		if err != nil {
			return err
		}
		if err := fixtures.AcquireAll(resources...); err != nil {
			return err
		}
		return h.SpecHelper().Write(h.SpecHelperPath())
	}))

	h.graph.Register("spec:unit:clean", nil, run(func(context.Context) error {
		resources, err := h.unitFixtures()
		if err != nil {
			return err
		}
		if err := fixtures.ReleaseAll(resources...); err != nil {
			return err
		}
		if err := os.Remove(h.SpecHelperPath()); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove spec helper: %w", err)
		}
		return nil
	}))

	h.graph.Register("spec:unit:section", nil, run(func(ctx context.Context) error {
		v, err := h.gate.ToolVersion(ctx)
		if err != nil {
			return err
		}
		future, err := h.gate.IsFutureEnabled(ctx)
		if err != nil {
			return err
		}
		title := "Unit Tests (Puppet " + v.Original()
		if future {
			title += " with future parser"
		}
		h.sections.Print(title + ")")
		return nil
	}))

	rspec := &tools.RSpec{
		Binary:  h.cfg.Tools.RSpec,
		Pattern: h.cfg.Unit.Pattern,
		Helper:  h.SpecHelperPath(),
		Exec:    h.runner,
	}
	h.graph.Register("spec:unit", nil, run(rspec.Run))

	h.graph.Register("spec:integration:section", nil, h.section("Integration Tests"))
	h.graph.Register("spec:integration:manual", []string{"spec:prep", "spec:unit:clean"}, nil)
	h.graph.Register("spec:integration", nil, h.integrate, taskgraph.WithArgs("destroy"))

	return h.wireSpec()
}

// wireSpec attaches the prerequisites and post-actions of the spec tasks.
func (h *Harness) wireSpec() error {
	if err := h.graph.Enhance("spec:unit", "spec:unit:section", "spec:prep", "spec:unit:prep"); err != nil {
		return err
	}
	if err := h.graph.EnsureAction("spec:unit", taskgraph.ExecuteTask("spec:unit:clean")); err != nil {
		return err
	}
	if err := h.graph.Enhance("spec:integration", "spec:integration:section", "spec:prep", "spec:unit:clean"); err != nil {
		return err
	}
	return h.graph.Enhance("spec:clean", "spec:unit:clean")
}

func (h *Harness) registerAliases() error {
	h.graph.Register("unit", []string{"spec:unit"}, nil, taskgraph.WithDescription("Run unit tests"))
	h.graph.Register("integration", []string{"spec:integration"}, nil,
		taskgraph.WithDescription("Run integration tests"), taskgraph.WithArgs("destroy"))
	h.graph.Register("integration:manual", []string{"spec:integration:manual"}, nil,
		taskgraph.WithDescription("Prepare for integration tests run manually"))
	h.graph.Register("clean", []string{"spec:clean"}, nil, taskgraph.WithDescription("Clean up after spec tests"))
	return nil
}

// unitFixtures lists the paths unit tests need: spec -> test/unit, the
// module's own symlink among the fixture modules and the site manifest.
func (h *Harness) unitFixtures() ([]fixtures.Resource, error) {
	name, err := h.module()
	if err != nil {
		return nil, err
	}
	return []fixtures.Resource{
		fixtures.Symlink{Path: h.layout.SpecDir(), Target: h.layout.UnitDir()},
		fixtures.Symlink{Path: filepath.Join(h.layout.ModulesDir(), name), Target: h.layout.SourceDir},
		fixtures.Placeholder{Path: h.layout.SiteManifest()},
	}, nil
}

func (h *Harness) integrate(ctx context.Context, call taskgraph.Call) error {
	policy := kitchen.ParseDestroyPolicy(call.Arg("destroy"))

	cfg, err := kitchen.LoadConfig(h.layout.SourceDir)
	if err != nil && !errors.Is(err, kitchen.ErrNoConfig) {
		return err
	}
	var instances []kitchen.Instance
	if cfg != nil {
		instances = cfg.Instances()
	}
	if len(instances) == 0 {
		if err == nil {
			err = fmt.Errorf("%s defines no instances", cfg.Path)
		}
		return issue.NewErrorContext().
			WithOperation("list Test Kitchen instances").
			WithResource(h.layout.SourceDir).
			WithSuggestion("Add platforms and suites to .kitchen.yml").
			WithGuide(issue.MissingInstancesId).
			Wrap(err).
			BuildError()
	}

	logger, closer, err := kitchen.OpenFileLogger(h.layout.SourceDir)
	if err != nil {
		return err
	}
	defer closer.Close()

	h.logger.Debug("running integration tests", "instances", len(instances), "destroy", policy)
	return kitchen.New(h.cfg.Tools.Kitchen, h.runner, logger).TestAll(ctx, instances, policy)
}
