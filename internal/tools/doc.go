// SPDX-License-Identifier: MPL-2.0

// Package tools wraps the external programs the harness delegates to:
// puppet-lint, puppet parser, erb/ruby, metadata-json-lint, rspec and
// librarian-puppet.
//
// Optional tools are probed when the task table is built. A missing optional
// tool turns its task into a stub that logs a warning and succeeds, so one
// uninstalled linter never blocks the rest of a run.
package tools
