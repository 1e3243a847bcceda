// SPDX-License-Identifier: MPL-2.0

package kitchen

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
)

const (
	// DefaultBinary is the Test Kitchen executable.
	DefaultBinary = "kitchen"

	logDir  = ".kitchen/logs"
	logFile = "kitchen.log"
)

type (
	// Executor runs an external command in the project directory.
	Executor interface {
		Exec(ctx context.Context, name string, args ...string) error
	}

	// Kitchen tests instances through the kitchen CLI.
	Kitchen struct {
		binary string
		exec   Executor
		logger *log.Logger
	}
)

// New creates a Kitchen. An empty binary means DefaultBinary. A nil logger discards.
func New(binary string, exec Executor, logger *log.Logger) *Kitchen {
	if binary == "" {
		binary = DefaultBinary
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Kitchen{binary: binary, exec: exec, logger: logger}
}

// Test runs "kitchen test <instance> --destroy=<policy>".
func (k *Kitchen) Test(ctx context.Context, inst Instance, policy DestroyPolicy) error {
	k.logger.Info("testing instance", "instance", inst.Name, "destroy", policy)
	if err := k.exec.Exec(ctx, k.binary, "test", inst.Name, "--destroy="+policy.String()); err != nil {
		k.logger.Error("instance failed", "instance", inst.Name, "error", err)
		return fmt.Errorf("instance %s: %w", inst.Name, err)
	}
	k.logger.Info("instance passed", "instance", inst.Name)
	return nil
}

// TestAll tests each instance in order and stops at the first failure.
func (k *Kitchen) TestAll(ctx context.Context, instances []Instance, policy DestroyPolicy) error {
	for _, inst := range instances {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := k.Test(ctx, inst, policy); err != nil {
			return err
		}
	}
	return nil
}

// OpenFileLogger opens .kitchen/logs/kitchen.log under dir for appending and
// returns a logger writing to it. The caller closes the returned file.
func OpenFileLogger(dir string) (*log.Logger, io.Closer, error) {
	logsDir := filepath.Join(dir, logDir)
	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create %s: %w", logsDir, err)
	}
	f, err := os.OpenFile(filepath.Join(logsDir, logFile), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open kitchen log: %w", err)
	}
	logger := log.NewWithOptions(f, log.Options{
		Prefix:          "kitchen",
		ReportTimestamp: true,
		Formatter:       log.LogfmtFormatter,
	})
	return logger, f, nil
}
