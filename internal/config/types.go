// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

var (
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrInvalidPattern is returned when a glob pattern does not parse.
	ErrInvalidPattern = errors.New("invalid glob pattern")
)

type (
	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// ToolsConfig names the external binaries tasks delegate to. Values are
	// looked up on PATH unless they contain a path separator.
	ToolsConfig struct {
		Puppet           string `json:"puppet" mapstructure:"puppet"`
		PuppetLint       string `json:"puppet_lint" mapstructure:"puppet_lint"`
		MetadataJSONLint string `json:"metadata_json_lint" mapstructure:"metadata_json_lint"`
		RSpec            string `json:"rspec" mapstructure:"rspec"`
		Kitchen          string `json:"kitchen" mapstructure:"kitchen"`
		LibrarianPuppet  string `json:"librarian_puppet" mapstructure:"librarian_puppet"`
		ERB              string `json:"erb" mapstructure:"erb"`
		Ruby             string `json:"ruby" mapstructure:"ruby"`
	}

	// LintConfig configures puppet-lint.
	LintConfig struct {
		// FailOnWarnings makes warnings fail the lint task.
		FailOnWarnings bool `json:"fail_on_warnings" mapstructure:"fail_on_warnings"`
		// DisableChecks lists puppet-lint checks to turn off.
		DisableChecks []string `json:"disable_checks" mapstructure:"disable_checks"`
	}

	// SyntaxConfig configures the syntax checks.
	SyntaxConfig struct {
		// HieradataPaths are extra YAML files checked by syntax:hiera:yaml.
		HieradataPaths []string `json:"hieradata_paths" mapstructure:"hieradata_paths"`
	}

	// UnitConfig configures the unit test run.
	UnitConfig struct {
		// Pattern selects spec files passed to rspec.
		Pattern string `json:"pattern" mapstructure:"pattern"`
	}

	// UIConfig configures output.
	UIConfig struct {
		Verbose bool `json:"verbose" mapstructure:"verbose"`
	}

	// Config holds the harness configuration.
	Config struct {
		Tools ToolsConfig `json:"tools" mapstructure:"tools"`
		// ExcludePaths are glob patterns ignored by lint and syntax checks.
		ExcludePaths []string     `json:"exclude_paths" mapstructure:"exclude_paths"`
		Lint         LintConfig   `json:"lint" mapstructure:"lint"`
		Syntax       SyntaxConfig `json:"syntax" mapstructure:"syntax"`
		Unit         UnitConfig   `json:"unit" mapstructure:"unit"`
		UI           UIConfig     `json:"ui" mapstructure:"ui"`
	}
)

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Tools: ToolsConfig{
			Puppet:           "puppet",
			PuppetLint:       "puppet-lint",
			MetadataJSONLint: "metadata-json-lint",
			RSpec:            "rspec",
			Kitchen:          "kitchen",
			LibrarianPuppet:  "librarian-puppet",
			ERB:              "erb",
			Ruby:             "ruby",
		},
		ExcludePaths: []string{
			"pkg/**/*",
			"vendor/**/*",
			"spec/**/*",
			"test/**/*",
		},
		Lint: LintConfig{
			FailOnWarnings: true,
			DisableChecks: []string{
				"80chars",
				"class_parameter_defaults",
				"class_inherits_from_params_class",
				"documentation",
				"single_quote_string_with_variables",
			},
		},
		Syntax: SyntaxConfig{
			HieradataPaths: []string{"spec/fixtures/hieradata/test.yaml"},
		},
		Unit: UnitConfig{
			Pattern: "spec/{classes,defines,functions,hosts,types,unit}/**/*_spec.rb",
		},
	}
}

// IsValid returns whether the Config is valid, and the field errors if it is not.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	for i, p := range c.ExcludePaths {
		if !doublestar.ValidatePattern(p) {
			errs = append(errs, fmt.Errorf("exclude_paths[%d]: %w: %q", i, ErrInvalidPattern, p))
		}
	}
	if strings.TrimSpace(c.Unit.Pattern) == "" {
		errs = append(errs, errors.New("unit.pattern: must not be empty"))
	} else if !doublestar.ValidatePattern(c.Unit.Pattern) {
		errs = append(errs, fmt.Errorf("unit.pattern: %w: %q", ErrInvalidPattern, c.Unit.Pattern))
	}
	for i, check := range c.Lint.DisableChecks {
		if strings.TrimSpace(check) == "" || strings.ContainsAny(check, " \t") {
			errs = append(errs, fmt.Errorf("lint.disable_checks[%d]: invalid check name %q", i, check))
		}
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

func (e *InvalidConfigError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, err := range e.FieldErrors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }
