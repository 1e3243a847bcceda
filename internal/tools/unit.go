// SPDX-License-Identifier: MPL-2.0

package tools

import "context"

// RSpec runs the unit test suite.
type RSpec struct {
	Binary  string
	Pattern string
	// Helper is required before the specs load. Empty means none.
	Helper string
	Exec   Executor
}

// Args builds the rspec command line.
func (r *RSpec) Args() []string {
	args := []string{"--pattern", r.Pattern}
	if r.Helper != "" {
		args = append(args, "--require", r.Helper)
	}
	return args
}

// Run runs rspec.
func (r *RSpec) Run(ctx context.Context) error {
	return r.Exec.Exec(ctx, r.Binary, r.Args()...)
}
