// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the henchman command line.
//
// The root command runs tasks: "henchman style unit" runs style, then unit,
// in one invocation. Parameterized tasks use brackets, as in
// "henchman integration[never]". Without arguments the help task lists what
// is available. Subcommands cover task listing (tasks), the generated rspec
// helper (spec-helper) and configuration (config).
package cmd
