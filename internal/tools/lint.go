// SPDX-License-Identifier: MPL-2.0

package tools

import (
	"context"
	"strings"
)

const manifestPattern = "**/*.pp"

type (
	// LintOptions configures a puppet-lint run. Lint holds a pointer so that
	// changes made after registration are seen by the next run.
	LintOptions struct {
		FailOnWarnings bool
		Relative       bool
		DisableChecks  []string
		IgnorePaths    []string
	}

	// Lint runs puppet-lint over the module's manifests.
	Lint struct {
		Binary  string
		Dir     string
		Options *LintOptions
		Exec    Executor
	}
)

// Args builds the puppet-lint command line for files.
func (l *Lint) Args(files []string) []string {
	var args []string
	opts := l.Options
	if opts.FailOnWarnings {
		args = append(args, "--fail-on-warnings")
	}
	if opts.Relative {
		args = append(args, "--relative")
	}
	for _, check := range opts.DisableChecks {
		args = append(args, "--no-"+check+"-check")
	}
	if len(opts.IgnorePaths) > 0 {
		args = append(args, "--ignore-paths", strings.Join(opts.IgnorePaths, ","))
	}
	return append(args, files...)
}

// Run lints every manifest not under an ignored path. No manifests means
// nothing to do.
func (l *Lint) Run(ctx context.Context) error {
	files, err := Discover(l.Dir, manifestPattern, l.Options.IgnorePaths)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return nil
	}
	return l.Exec.Exec(ctx, l.Binary, l.Args(files)...)
}
