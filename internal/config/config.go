// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/henchman-tools/henchman/internal/issue"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/spf13/viper"
)

const (
	// AppName is the application name.
	AppName = "henchman"
	// ConfigFileName is the name of the config file looked up in the module root.
	ConfigFileName = "henchman.cue"
	// EnvPrefix prefixes environment overrides, e.g. HENCHMAN_UNIT_PATTERN.
	EnvPrefix = "HENCHMAN"
)

//go:embed config_schema.cue
var configSchema string

// loadWithOptions performs option-driven config loading. It returns the
// resolved config file path, empty when only defaults and env were used.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := newViper()

	resolvedPath := ""
	switch {
	case opts.ConfigFilePath != "":
		if !fileExists(opts.ConfigFilePath) {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Use 'henchman config show' to see the default configuration").
				WithGuide(issue.ConfigLoadFailedId).
				Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
				BuildError()
		}
		resolvedPath = opts.ConfigFilePath
	default:
		candidate := filepath.Join(opts.Dir, ConfigFileName)
		if fileExists(candidate) {
			resolvedPath = candidate
		}
	}

	if resolvedPath != "" {
		if err := loadCUEIntoViper(v, resolvedPath); err != nil {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(resolvedPath).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Verify the configuration values match the expected schema").
				WithGuide(issue.ConfigLoadFailedId).
				Wrap(err).
				BuildError()
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}

	if ok, errs := cfg.IsValid(); !ok {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(resolvedPath).
			WithSuggestion("Glob patterns use doublestar syntax, e.g. 'pkg/**/*'").
			WithGuide(issue.ConfigLoadFailedId).
			Wrap(errs[0]).
			BuildError()
	}

	return &cfg, resolvedPath, nil
}

// newViper returns a viper instance seeded with the defaults and bound to
// HENCHMAN_ environment variables.
func newViper() *viper.Viper {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("tools.puppet", defaults.Tools.Puppet)
	v.SetDefault("tools.puppet_lint", defaults.Tools.PuppetLint)
	v.SetDefault("tools.metadata_json_lint", defaults.Tools.MetadataJSONLint)
	v.SetDefault("tools.rspec", defaults.Tools.RSpec)
	v.SetDefault("tools.kitchen", defaults.Tools.Kitchen)
	v.SetDefault("tools.librarian_puppet", defaults.Tools.LibrarianPuppet)
	v.SetDefault("tools.erb", defaults.Tools.ERB)
	v.SetDefault("tools.ruby", defaults.Tools.Ruby)
	v.SetDefault("exclude_paths", defaults.ExcludePaths)
	v.SetDefault("lint.fail_on_warnings", defaults.Lint.FailOnWarnings)
	v.SetDefault("lint.disable_checks", defaults.Lint.DisableChecks)
	v.SetDefault("syntax.hieradata_paths", defaults.Syntax.HieradataPaths)
	v.SetDefault("unit.pattern", defaults.Unit.Pattern)
	v.SetDefault("ui.verbose", defaults.UI.Verbose)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// loadCUEIntoViper parses a CUE file, validates it against the #Config schema,
// and merges its contents into Viper.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(path))
	if userValue.Err() != nil {
		return formatCUEError(userValue.Err(), path)
	}

	schema := schemaValue.LookupPath(cue.ParsePath("#Config"))
	unified := schema.Unify(userValue)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return formatCUEError(err, path)
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return formatCUEError(err, path)
	}

	// Merge keeps defaults and env overrides in place.
	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}

	return nil
}

// formatCUEError flattens CUE errors into one line per field, prefixed with
// the field path.
func formatCUEError(err error, filePath string) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return fmt.Errorf("%s: %w", filePath, err)
	}

	lines := make([]string, 0, len(errs))
	for _, e := range errs {
		msg := e.Error()
		if path := strings.Join(cueerrors.Path(e), "."); path != "" && !strings.HasPrefix(msg, path) {
			msg = path + ": " + msg
		}
		lines = append(lines, msg)
	}

	if len(lines) == 1 {
		return fmt.Errorf("%s: %s", filePath, lines[0])
	}
	return fmt.Errorf("%s: validation failed:\n  %s", filePath, strings.Join(lines, "\n  "))
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// GenerateCUE renders cfg as a henchman.cue document.
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// henchman configuration\n\n")

	sb.WriteString("tools: {\n")
	fmt.Fprintf(&sb, "\tpuppet: %q\n", cfg.Tools.Puppet)
	fmt.Fprintf(&sb, "\tpuppet_lint: %q\n", cfg.Tools.PuppetLint)
	fmt.Fprintf(&sb, "\tmetadata_json_lint: %q\n", cfg.Tools.MetadataJSONLint)
	fmt.Fprintf(&sb, "\trspec: %q\n", cfg.Tools.RSpec)
	fmt.Fprintf(&sb, "\tkitchen: %q\n", cfg.Tools.Kitchen)
	fmt.Fprintf(&sb, "\tlibrarian_puppet: %q\n", cfg.Tools.LibrarianPuppet)
	fmt.Fprintf(&sb, "\terb: %q\n", cfg.Tools.ERB)
	fmt.Fprintf(&sb, "\truby: %q\n", cfg.Tools.Ruby)
	sb.WriteString("}\n")

	sb.WriteString("\nexclude_paths: ")
	writeCUEList(&sb, cfg.ExcludePaths, "")

	sb.WriteString("\nlint: {\n")
	fmt.Fprintf(&sb, "\tfail_on_warnings: %v\n", cfg.Lint.FailOnWarnings)
	sb.WriteString("\tdisable_checks: ")
	writeCUEList(&sb, cfg.Lint.DisableChecks, "\t")
	sb.WriteString("}\n")

	sb.WriteString("\nsyntax: {\n")
	sb.WriteString("\thieradata_paths: ")
	writeCUEList(&sb, cfg.Syntax.HieradataPaths, "\t")
	sb.WriteString("}\n")

	sb.WriteString("\nunit: {\n")
	fmt.Fprintf(&sb, "\tpattern: %q\n", cfg.Unit.Pattern)
	sb.WriteString("}\n")

	sb.WriteString("\nui: {\n")
	fmt.Fprintf(&sb, "\tverbose: %v\n", cfg.UI.Verbose)
	sb.WriteString("}\n")

	return sb.String()
}

func writeCUEList(sb *strings.Builder, items []string, indent string) {
	if len(items) == 0 {
		sb.WriteString("[]\n")
		return
	}
	sb.WriteString("[\n")
	for _, item := range items {
		fmt.Fprintf(sb, "%s\t%q,\n", indent, item)
	}
	sb.WriteString(indent + "]\n")
}
