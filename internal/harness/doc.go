// SPDX-License-Identifier: MPL-2.0

// Package harness builds henchman's task table on a taskgraph.Graph and runs
// tasks against a Puppet module checkout.
//
// The table is fixed:
//
//	help (default)            list tasks
//	lint, syntax, metadata    style checks, each degrading to a warning when its tool is missing
//	style                     metadata, lint, syntax
//	spec:prep, spec:clean     dependency install and fixture teardown
//	spec:unit:prep/clean      fixture symlinks and the generated spec helper
//	spec:unit                 rspec, always followed by spec:unit:clean
//	spec:integration[destroy] Test Kitchen over every instance
//
// plus the unit, integration, integration:manual and clean aliases.
package harness
