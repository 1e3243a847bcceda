// SPDX-License-Identifier: MPL-2.0

// Package shell runs external tools on behalf of tasks. Exec starts a
// program directly; Script interprets a POSIX shell snippet with the
// embedded mvdan/sh interpreter so pipelines work without a system shell.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/charmbracelet/log"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// ErrCommandFailed is the sentinel wrapped by ExitStatusError.
var ErrCommandFailed = errors.New("command failed")

type (
	// ExitStatusError reports a command that ran and exited non-zero.
	ExitStatusError struct {
		Command string
		Code    int
	}

	// Runner executes commands in a fixed directory with fixed I/O.
	Runner struct {
		Dir    string
		Env    []string
		Stdin  io.Reader
		Stdout io.Writer
		Stderr io.Writer
		Logger *log.Logger
	}
)

func (e *ExitStatusError) Error() string {
	return fmt.Sprintf("%s exited with status %d", e.Command, e.Code)
}

// Unwrap returns ErrCommandFailed for errors.Is.
func (e *ExitStatusError) Unwrap() error { return ErrCommandFailed }

// NewRunner creates a Runner for dir inheriting the process environment and
// standard streams.
func NewRunner(dir string, logger *log.Logger) *Runner {
	return &Runner{
		Dir:    dir,
		Env:    os.Environ(),
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Logger: logger,
	}
}

// Exec runs name with args and waits for it.
func (r *Runner) Exec(ctx context.Context, name string, args ...string) error {
	cmdline := strings.Join(append([]string{name}, args...), " ")
	r.debug("exec", "cmd", cmdline)

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = r.Dir
	cmd.Env = r.Env
	cmd.Stdin = r.Stdin
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &ExitStatusError{Command: cmdline, Code: exitErr.ExitCode()}
		}
		return fmt.Errorf("failed to run %s: %w", name, err)
	}
	return nil
}

// Script parses and runs a shell snippet.
func (r *Runner) Script(ctx context.Context, script string) error {
	prog, err := syntax.NewParser().Parse(strings.NewReader(script), "script")
	if err != nil {
		return fmt.Errorf("failed to parse script: %w", err)
	}
	r.debug("script", "src", script)

	runner, err := interp.New(
		interp.Dir(r.Dir),
		interp.Env(expand.ListEnviron(r.Env...)),
		interp.StdIO(r.Stdin, r.Stdout, r.Stderr),
	)
	if err != nil {
		return fmt.Errorf("failed to create interpreter: %w", err)
	}

	if err := runner.Run(ctx, prog); err != nil {
		var exitStatus interp.ExitStatus
		if errors.As(err, &exitStatus) {
			return &ExitStatusError{Command: script, Code: int(exitStatus)}
		}
		return fmt.Errorf("script execution failed: %w", err)
	}
	return nil
}

// Quote renders s as a single shell word.
func Quote(s string) string {
	q, err := syntax.Quote(s, syntax.LangPOSIX)
	if err != nil {
		return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
	}
	return q
}

func (r *Runner) debug(msg string, keyvals ...any) {
	if r.Logger != nil {
		r.Logger.Debug(msg, keyvals...)
	}
}
