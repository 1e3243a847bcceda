// SPDX-License-Identifier: MPL-2.0

package tools

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
)

// Librarian installs the module's dependencies with librarian-puppet.
type Librarian struct {
	Binary     string
	ModulesDir string
	Exec       Executor
	Logger     *log.Logger
}

// Install runs "librarian-puppet install --path <modules> --destructive".
// A failed install is logged as a warning and does not fail the task.
func (l *Librarian) Install(ctx context.Context) error {
	logger := l.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if err := l.Exec.Exec(ctx, l.Binary, "install", "--path", l.ModulesDir, "--destructive"); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Warn("dependency install failed", "tool", l.Binary, "error", err)
	}
	return nil
}
