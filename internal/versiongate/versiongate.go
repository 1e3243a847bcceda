// SPDX-License-Identifier: MPL-2.0

// Package versiongate decides whether Puppet's future parser may be used.
//
// The decision is a pure function of the environment and the installed
// Puppet version. Nothing is cached: every query asks the tool again, so the
// answer always reflects the live installation.
package versiongate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"

	"github.com/hashicorp/go-version"
)

const (
	// FutureParserEnv enables future-parser syntax checks when set to exactly "true".
	FutureParserEnv = "FUTURE_PARSER"

	// DefaultTool is the binary queried for its version.
	DefaultTool = "puppet"

	futureFlagValue = "true"

	// futureConstraint is the release window in which the future parser exists.
	futureConstraint = ">= 3.2, < 4.0"
)

var (
	// ErrToolNotFound is the sentinel wrapped by ToolNotFoundError.
	ErrToolNotFound = errors.New("tool version not available")

	versionPattern = regexp.MustCompile(`\d+\.\d+(?:\.\d+)?(?:[-+][0-9A-Za-z.\-+]*)?`)

	futureRange = version.MustConstraints(version.NewConstraint(futureConstraint))
)

type (
	// ToolNotFoundError is returned when the installed tool's version cannot be read.
	ToolNotFoundError struct {
		Tool  string
		Cause error
	}

	// LookupEnvFunc matches os.LookupEnv.
	LookupEnvFunc func(key string) (string, bool)

	// VersionSource reports the raw version string of the installed tool.
	VersionSource interface {
		RawVersion(ctx context.Context) (string, error)
	}

	// CommandSource runs "<Binary> --version" and returns its output.
	CommandSource struct {
		Binary string
	}

	// StaticSource always reports the same version. Useful for tests and for
	// pinning the version through configuration.
	StaticSource string

	// Gate answers future-parser questions for one tool.
	Gate struct {
		source    VersionSource
		lookupEnv LookupEnvFunc
		tool      string
	}

	// Option configures a Gate.
	Option func(*Gate)
)

func (e *ToolNotFoundError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("cannot determine %s version", e.Tool)
	}
	return fmt.Sprintf("cannot determine %s version: %v", e.Tool, e.Cause)
}

// Unwrap returns ErrToolNotFound so callers can use errors.Is.
func (e *ToolNotFoundError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrToolNotFound}
	}
	return []error{ErrToolNotFound, e.Cause}
}

// RawVersion implements VersionSource.
func (s CommandSource) RawVersion(ctx context.Context) (string, error) {
	binary := s.Binary
	if binary == "" {
		binary = DefaultTool
	}
	path, err := exec.LookPath(binary)
	if err != nil {
		return "", err
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, path, "--version")
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("%w: %s", err, msg)
		}
		return "", err
	}
	return stdout.String(), nil
}

// RawVersion implements VersionSource.
func (s StaticSource) RawVersion(context.Context) (string, error) {
	if s == "" {
		return "", errors.New("no version configured")
	}
	return string(s), nil
}

// WithSource overrides where the version is read from.
func WithSource(src VersionSource) Option {
	return func(g *Gate) {
		g.source = src
	}
}

// WithLookupEnv overrides the environment lookup.
func WithLookupEnv(fn LookupEnvFunc) Option {
	return func(g *Gate) {
		g.lookupEnv = fn
	}
}

// WithTool sets the tool name used in errors and the default command source.
func WithTool(name string) Option {
	return func(g *Gate) {
		g.tool = name
	}
}

// New creates a Gate. Without options it runs "puppet --version" and reads os.LookupEnv.
func New(opts ...Option) *Gate {
	g := &Gate{
		lookupEnv: os.LookupEnv,
		tool:      DefaultTool,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.source == nil {
		g.source = CommandSource{Binary: g.tool}
	}
	return g
}

// ToolVersion returns the currently installed tool version.
func (g *Gate) ToolVersion(ctx context.Context) (*version.Version, error) {
	raw, err := g.source.RawVersion(ctx)
	if err != nil {
		return nil, &ToolNotFoundError{Tool: g.tool, Cause: err}
	}
	v, err := ParseVersion(raw)
	if err != nil {
		return nil, &ToolNotFoundError{Tool: g.tool, Cause: err}
	}
	return v, nil
}

// IsFutureApplicable reports whether 3.2 <= version < 4.0. Pre-release and
// build suffixes are ignored for the range check.
func (g *Gate) IsFutureApplicable(ctx context.Context) (bool, error) {
	v, err := g.ToolVersion(ctx)
	if err != nil {
		return false, err
	}
	return InFutureRange(v), nil
}

// IsFutureEnabled reports whether FUTURE_PARSER is exactly "true" and the
// installed version supports the future parser. The tool is only queried
// when the flag is set.
func (g *Gate) IsFutureEnabled(ctx context.Context) (bool, error) {
	if value, ok := g.lookupEnv(FutureParserEnv); !ok || value != futureFlagValue {
		return false, nil
	}
	return g.IsFutureApplicable(ctx)
}

// InFutureRange applies the future-parser window to v's core version.
func InFutureRange(v *version.Version) bool {
	if v == nil {
		return false
	}
	return futureRange.Check(v.Core())
}

// ParseVersion extracts the first version number from tool output such as
// "3.8.7" or "Puppet v3.8.7 (Puppet Enterprise 3.8.1)".
func ParseVersion(output string) (*version.Version, error) {
	match := versionPattern.FindString(output)
	if match == "" {
		return nil, fmt.Errorf("no version in output %q", strings.TrimSpace(output))
	}
	return version.NewVersion(match)
}
