// SPDX-License-Identifier: MPL-2.0

// Package config handles henchman configuration using Viper with CUE as the file format.
//
// Configuration is read from henchman.cue in the module root (or the file given
// with --config), validated against an embedded CUE schema and merged over the
// defaults. Every key can also be overridden with a HENCHMAN_ environment
// variable, e.g. HENCHMAN_UNIT_PATTERN or HENCHMAN_TOOLS_PUPPET.
//
// FUTURE_PARSER and the rspec-puppet variables are deliberately not part of
// this configuration; they are read where they are used.
package config
