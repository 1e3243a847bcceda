// SPDX-License-Identifier: MPL-2.0

package tools

import (
	"context"
	"errors"
	"fmt"
	"os/exec"

	"github.com/charmbracelet/log"
)

// ErrMissingOptionalDependency is the sentinel wrapped by MissingOptionalDependencyError.
var ErrMissingOptionalDependency = errors.New("optional dependency missing")

type (
	// MissingOptionalDependencyError reports an optional tool that is not
	// installed. It is logged as a warning by degraded tasks and never
	// returned from a run.
	MissingOptionalDependencyError struct {
		Tool string
		// Skipped names what is skipped because of it, e.g. "lint validation".
		Skipped string
		Cause   error
	}

	// LookPathFunc matches exec.LookPath.
	LookPathFunc func(file string) (string, error)

	// Tool is an external binary resolved by a Prober.
	Tool struct {
		// Name is the configured binary name or path.
		Name string
		// Path is the resolved executable, empty when unavailable.
		Path string
		// Err is why the tool is unavailable.
		Err error
	}

	// Prober resolves tool binaries.
	Prober struct {
		lookPath LookPathFunc
	}

	// Executor runs an external program.
	Executor interface {
		Exec(ctx context.Context, name string, args ...string) error
	}

	// ScriptRunner interprets a shell snippet.
	ScriptRunner interface {
		Executor
		Script(ctx context.Context, script string) error
	}
)

func (e *MissingOptionalDependencyError) Error() string {
	return fmt.Sprintf("Skipping %s, %s missing", e.Skipped, e.Tool)
}

// Unwrap returns ErrMissingOptionalDependency for errors.Is.
func (e *MissingOptionalDependencyError) Unwrap() error { return ErrMissingOptionalDependency }

// NewProber creates a Prober. A nil lookPath means exec.LookPath.
func NewProber(lookPath LookPathFunc) *Prober {
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	return &Prober{lookPath: lookPath}
}

// Probe resolves name on PATH, or as a path when it contains a separator.
func (p *Prober) Probe(name string) Tool {
	path, err := p.lookPath(name)
	if err != nil {
		return Tool{Name: name, Err: err}
	}
	return Tool{Name: name, Path: path}
}

// Available reports whether the tool was found.
func (t Tool) Available() bool {
	return t.Path != ""
}

// Missing returns the error a degraded task logs for t.
func (t Tool) Missing(skipped string) *MissingOptionalDependencyError {
	return &MissingOptionalDependencyError{Tool: t.Name, Skipped: skipped, Cause: t.Err}
}

// Degraded returns an action that logs err as a warning and succeeds.
func Degraded(logger *log.Logger, err *MissingOptionalDependencyError) func(context.Context) error {
	return func(context.Context) error {
		logger.Warn(err.Error())
		return nil
	}
}
