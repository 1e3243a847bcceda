// SPDX-License-Identifier: MPL-2.0

package tools

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/henchman-tools/henchman/internal/project"
	"github.com/henchman-tools/henchman/internal/shell"
)

type recorder struct {
	calls   []string
	scripts []string
	fail    map[string]error
}

func (r *recorder) Exec(_ context.Context, name string, args ...string) error {
	cmd := strings.Join(append([]string{name}, args...), " ")
	r.calls = append(r.calls, cmd)
	return r.fail[name]
}

func (r *recorder) Script(_ context.Context, script string) error {
	r.scripts = append(r.scripts, script)
	return nil
}

func touch(t *testing.T, dir string, files ...string) {
	t.Helper()
	for _, f := range files {
		path := filepath.Join(dir, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("# test\n"), 0o644))
	}
}

var defaultExclude = []string{"pkg/**/*", "vendor/**/*", "spec/**/*", "test/**/*"}

func TestProbe(t *testing.T) {
	t.Parallel()

	p := NewProber(func(file string) (string, error) {
		if file == "puppet-lint" {
			return "/usr/bin/puppet-lint", nil
		}
		return "", errors.New("executable file not found in $PATH")
	})

	lint := p.Probe("puppet-lint")
	assert.True(t, lint.Available())
	assert.Equal(t, "/usr/bin/puppet-lint", lint.Path)

	missing := p.Probe("metadata-json-lint")
	assert.False(t, missing.Available())

	err := missing.Missing("metadata validation")
	require.ErrorIs(t, err, ErrMissingOptionalDependency)
	assert.Equal(t, "Skipping metadata validation, metadata-json-lint missing", err.Error())
}

func TestDegraded_WarnsAndSucceeds(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := log.New(&buf)
	action := Degraded(logger, Tool{Name: "puppet-lint"}.Missing("lint validation"))

	require.NoError(t, action(context.Background()))
	assert.Contains(t, buf.String(), "Skipping lint validation, puppet-lint missing")
}

func TestDiscover_Excludes(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	touch(t, dir,
		"manifests/init.pp",
		"manifests/config/file.pp",
		"pkg/old/manifests/init.pp",
		"pkg/top.pp",
		"spec/fixtures/site.pp",
		"vendor/x/y.pp",
		"templates/a.erb",
	)

	files, err := Discover(dir, "**/*.pp", defaultExclude)
	require.NoError(t, err)
	assert.Equal(t, []string{"manifests/config/file.pp", "manifests/init.pp"}, files)
}

func TestExcluded_InvalidPattern(t *testing.T) {
	t.Parallel()

	_, err := Excluded("a.pp", []string{"[unterminated"})
	assert.Error(t, err)
}

func TestLint_Args(t *testing.T) {
	t.Parallel()

	opts := &LintOptions{
		FailOnWarnings: true,
		DisableChecks:  []string{"80chars", "documentation"},
		IgnorePaths:    []string{"pkg/**/*", "spec/**/*"},
	}
	l := &Lint{Binary: "puppet-lint", Options: opts}

	assert.Equal(t, []string{
		"--fail-on-warnings",
		"--no-80chars-check",
		"--no-documentation-check",
		"--ignore-paths", "pkg/**/*,spec/**/*",
		"manifests/init.pp",
	}, l.Args([]string{"manifests/init.pp"}))

	opts.Relative = true
	assert.Contains(t, l.Args(nil), "--relative")
}

func TestLint_Run(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	touch(t, dir, "manifests/init.pp", "spec/fixtures/site.pp")
	rec := &recorder{}
	l := &Lint{Binary: "puppet-lint", Dir: dir, Exec: rec, Options: &LintOptions{IgnorePaths: defaultExclude}}

	require.NoError(t, l.Run(context.Background()))
	require.Len(t, rec.calls, 1)
	assert.True(t, strings.HasSuffix(rec.calls[0], " manifests/init.pp"), rec.calls[0])
}

func TestLint_Run_NoManifests(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	l := &Lint{Binary: "puppet-lint", Dir: t.TempDir(), Exec: rec, Options: &LintOptions{}}

	require.NoError(t, l.Run(context.Background()))
	assert.Empty(t, rec.calls)
}

func TestSyntax_Manifests(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	touch(t, dir, "manifests/init.pp")

	tests := []struct {
		name   string
		future bool
		want   string
	}{
		{"current parser", false, "puppet parser validate manifests/init.pp"},
		{"future parser", true, "puppet parser validate --parser future manifests/init.pp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := &recorder{}
			s := &Syntax{Puppet: "puppet", Dir: dir, Exclude: defaultExclude, Runner: rec}
			require.NoError(t, s.Manifests(context.Background(), tt.future))
			assert.Equal(t, []string{tt.want}, rec.calls)
		})
	}
}

func TestSyntax_Templates(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	touch(t, dir, "templates/motd.erb", "templates/conf.epp", "spec/templates/x.erb")
	rec := &recorder{}
	s := &Syntax{Puppet: "puppet", ERB: "erb", Ruby: "ruby", Dir: dir, Exclude: defaultExclude, Runner: rec}

	require.NoError(t, s.Templates(context.Background(), false))
	assert.Equal(t, []string{"set -o pipefail; erb -P -x -T - templates/motd.erb | ruby -c >/dev/null"}, rec.scripts)
	assert.Empty(t, rec.calls)

	require.NoError(t, s.Templates(context.Background(), true))
	assert.Equal(t, []string{"puppet epp validate templates/conf.epp"}, rec.calls)
}

func TestSyntax_TemplatesFailWhenERBFails(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	touch(t, dir, "templates/broken.erb")
	s := &Syntax{
		ERB:    "henchman-test-missing-erb",
		Ruby:   "true",
		Dir:    dir,
		Runner: shell.NewRunner(dir, nil),
	}

	err := s.Templates(context.Background(), false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "templates/broken.erb")
}

func TestSyntax_Hiera(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	good := filepath.Join(dir, "spec", "fixtures", "hieradata", "test.yaml")
	require.NoError(t, os.MkdirAll(filepath.Dir(good), 0o755))
	require.NoError(t, os.WriteFile(good, []byte("---\nfoo::bar: 1\n---\nbaz: [1, 2]\n"), 0o644))

	s := &Syntax{Dir: dir, HieradataPaths: []string{"spec/fixtures/hieradata/test.yaml"}}
	require.NoError(t, s.Hiera(context.Background()))

	require.NoError(t, os.WriteFile(good, []byte("foo: [1, 2\n"), 0o644))
	err := s.Hiera(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "spec/fixtures/hieradata/test.yaml")
}

func TestSyntax_Hiera_NoFiles(t *testing.T) {
	t.Parallel()

	s := &Syntax{Dir: t.TempDir(), HieradataPaths: []string{"spec/fixtures/hieradata/test.yaml"}}
	assert.NoError(t, s.Hiera(context.Background()))
}

func TestMetadata_Run(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	rec := &recorder{}
	m := &Metadata{Binary: "metadata-json-lint", Layout: project.Layout{SourceDir: dir}, Exec: rec}

	require.NoError(t, m.Run(context.Background()))
	assert.Empty(t, rec.calls, "no metadata.json means nothing to lint")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "metadata.json"), []byte(`{"name":"acme-ntp"}`), 0o644))
	require.NoError(t, m.Run(context.Background()))
	assert.Equal(t, []string{"metadata-json-lint metadata.json"}, rec.calls)
}

func TestMetadata_StatErrorIsReturned(t *testing.T) {
	t.Parallel()

	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}
	dir := t.TempDir()
	locked := filepath.Join(dir, "locked")
	require.NoError(t, os.MkdirAll(locked, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(locked, "metadata.json"), []byte(`{}`), 0o644))
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	rec := &recorder{}
	m := &Metadata{Binary: "metadata-json-lint", Layout: project.Layout{SourceDir: locked}, Exec: rec}

	require.Error(t, m.Run(context.Background()))
	assert.Empty(t, rec.calls)
}

func TestRSpec_Args(t *testing.T) {
	t.Parallel()

	r := &RSpec{Binary: "rspec", Pattern: "spec/classes/**/*_spec.rb", Helper: "/m/test/fixtures/henchman_spec_helper.rb"}
	assert.Equal(t, []string{
		"--pattern", "spec/classes/**/*_spec.rb",
		"--require", "/m/test/fixtures/henchman_spec_helper.rb",
	}, r.Args())
}

func TestLibrarian_InstallFailureIsWarning(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	rec := &recorder{fail: map[string]error{"librarian-puppet": errors.New("exit status 1")}}
	l := &Librarian{Binary: "librarian-puppet", ModulesDir: "/m/test/fixtures/modules", Exec: rec, Logger: log.New(&buf)}

	require.NoError(t, l.Install(context.Background()))
	assert.Equal(t, []string{"librarian-puppet install --path /m/test/fixtures/modules --destructive"}, rec.calls)
	assert.Contains(t, buf.String(), "dependency install failed")
}
