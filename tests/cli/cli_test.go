// SPDX-License-Identifier: MPL-2.0

// Package cli contains CLI integration tests using testscript.
//
// The henchman binary is linked into the test executable, so scripts call it
// like any other program without a separate build step.
package cli

import (
	"testing"

	"github.com/rogpeppe/go-internal/testscript"

	cmd "github.com/henchman-tools/henchman/cmd/henchman"
)

func TestMain(m *testing.M) {
	testscript.Main(m, map[string]func(){
		"henchman": cmd.Execute,
	})
}

// TestCLI runs all testscript tests in the testdata directory.
func TestCLI(t *testing.T) {
	testscript.Run(t, testscript.Params{
		Dir: "testdata",
		Setup: func(env *testscript.Env) error {
			// Keep real Puppet tooling and user settings out of the scripts.
			env.Setenv("NO_COLOR", "1")
			env.Setenv("HENCHMAN_TOOLS_PUPPET", "henchman-test-missing-puppet")
			env.Setenv("HENCHMAN_TOOLS_PUPPET_LINT", "henchman-test-missing-puppet-lint")
			env.Setenv("HENCHMAN_TOOLS_METADATA_JSON_LINT", "henchman-test-missing-metadata-json-lint")
			env.Setenv("HENCHMAN_TOOLS_LIBRARIAN_PUPPET", "henchman-test-missing-librarian-puppet")
			return nil
		},
	})
}
