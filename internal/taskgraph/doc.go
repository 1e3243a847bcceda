// SPDX-License-Identifier: MPL-2.0

// Package taskgraph holds named tasks with ordered prerequisites and
// enhancements, and runs them the way make targets or Rake tasks run.
//
// A Graph is built once at startup and then only read. Each Invocation owns
// its own memo: within one invocation every task runs at most once, while a
// new invocation starts from scratch. Execution is strictly sequential.
package taskgraph
