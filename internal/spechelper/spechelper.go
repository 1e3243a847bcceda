// SPDX-License-Identifier: MPL-2.0

// Package spechelper builds the rspec-puppet configuration used by unit tests.
//
// This is a separate configuration surface from the task graph's future
// parser gate: here FUTURE_PARSER must be "yes", while the syntax tasks
// require "true". The two checks are kept independent.
package spechelper

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
)

const (
	// HelperFile is the generated helper's file name inside the fixtures directory.
	HelperFile = "henchman_spec_helper.rb"

	envFutureParser    = "FUTURE_PARSER"
	envStrictVariables = "STRICT_VARIABLES"
	envStringifyFacts  = "STRINGIFY_FACTS"
	envTrustedNodeData = "TRUSTED_NODE_DATA"
	envOrdering        = "ORDERING"
)

//go:embed spec_helper.rb.tmpl
var helperSource string

var helperTemplate = template.Must(template.New("spec_helper").
	Funcs(template.FuncMap{"rubyString": rubyString}).
	Parse(helperSource))

type (
	// LookupEnvFunc matches os.LookupEnv.
	LookupEnvFunc func(key string) (string, bool)

	// Settings mirrors the RSpec.configure options henchman controls. Nil
	// pointers and empty strings leave rspec-puppet's defaults untouched.
	Settings struct {
		ModulePath      string
		ManifestDir     string
		Parser          string
		StrictVariables *bool
		StringifyFacts  *bool
		TrustedNodeData *bool
		Ordering        string
	}
)

// FromEnv derives Settings for the fixtures directory from the environment.
func FromEnv(fixturesDir string, lookupEnv LookupEnvFunc) Settings {
	if lookupEnv == nil {
		lookupEnv = os.LookupEnv
	}
	get := func(key string) string {
		v, _ := lookupEnv(key)
		return v
	}

	s := Settings{
		ModulePath:  filepath.Join(fixturesDir, "modules"),
		ManifestDir: filepath.Join(fixturesDir, "manifests"),
	}
	if get(envFutureParser) == "yes" {
		s.Parser = "future"
	}
	if get(envStrictVariables) == "yes" {
		s.StrictVariables = boolPtr(true)
	}
	if get(envStringifyFacts) == "no" {
		s.StringifyFacts = boolPtr(false)
	}
	if get(envTrustedNodeData) == "yes" {
		s.TrustedNodeData = boolPtr(true)
	}
	if v := get(envOrdering); v != "" {
		s.Ordering = v
	}
	return s
}

// Render returns the Ruby helper configuring rspec-puppet.
func (s Settings) Render() (string, error) {
	var buf bytes.Buffer
	if err := helperTemplate.Execute(&buf, s); err != nil {
		return "", fmt.Errorf("failed to render spec helper: %w", err)
	}
	return buf.String(), nil
}

// Write renders the helper to path.
func (s Settings) Write(path string) error {
	content, err := s.Render()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write spec helper: %w", err)
	}
	return nil
}

func boolPtr(b bool) *bool { return &b }

// rubyString renders s as a single-quoted Ruby literal, which Ruby does not
// interpolate.
func rubyString(s string) string {
	return "'" + rubyEscaper.Replace(s) + "'"
}

var rubyEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)
