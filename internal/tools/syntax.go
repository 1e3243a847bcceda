// SPDX-License-Identifier: MPL-2.0

package tools

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"github.com/henchman-tools/henchman/internal/shell"
)

const (
	erbPattern = "**/templates/**/*.erb"
	eppPattern = "**/templates/**/*.epp"
)

// Syntax validates manifests, templates and hieradata.
type Syntax struct {
	Puppet string
	ERB    string
	Ruby   string
	Dir    string
	// Exclude applies to manifests and templates.
	Exclude []string
	// HieradataPaths are the patterns of YAML files to validate.
	HieradataPaths []string
	Runner         ScriptRunner
}

// Manifests runs "puppet parser validate" over every manifest, with the
// future parser when future is set.
func (s *Syntax) Manifests(ctx context.Context, future bool) error {
	files, err := Discover(s.Dir, manifestPattern, s.Exclude)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return nil
	}
	args := []string{"parser", "validate"}
	if future {
		args = append(args, "--parser", "future")
	}
	return s.Runner.Exec(ctx, s.Puppet, append(args, files...)...)
}

// Templates checks ERB templates by compiling them to Ruby and running the
// result through "ruby -c". The pipeline fails when either stage fails. EPP templates are checked with "puppet epp
// validate" when epp is set; older Puppet releases cannot parse them.
func (s *Syntax) Templates(ctx context.Context, epp bool) error {
	erbFiles, err := Discover(s.Dir, erbPattern, s.Exclude)
	if err != nil {
		return err
	}

	var result *multierror.Error
	for _, f := range erbFiles {
		script := fmt.Sprintf("set -o pipefail; %s -P -x -T - %s | %s -c >/dev/null",
			shell.Quote(s.ERB), shell.Quote(f), shell.Quote(s.Ruby))
		if err := s.Runner.Script(ctx, script); err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", f, err))
		}
	}

	if epp {
		eppFiles, err := Discover(s.Dir, eppPattern, s.Exclude)
		if err != nil {
			return err
		}
		if len(eppFiles) > 0 {
			args := append([]string{"epp", "validate"}, eppFiles...)
			if err := s.Runner.Exec(ctx, s.Puppet, args...); err != nil {
				result = multierror.Append(result, err)
			}
		}
	}

	return result.ErrorOrNil()
}

// Hiera parses every file matched by HieradataPaths as YAML. Exclusions do
// not apply here.
func (s *Syntax) Hiera(context.Context) error {
	var result *multierror.Error
	fsys := os.DirFS(s.Dir)
	for _, pattern := range s.HieradataPaths {
		files, err := doublestar.Glob(fsys, filepath.ToSlash(pattern), doublestar.WithFilesOnly())
		if err != nil {
			return fmt.Errorf("invalid hieradata pattern %q: %w", pattern, err)
		}
		for _, f := range files {
			if err := checkYAML(filepath.Join(s.Dir, f)); err != nil {
				result = multierror.Append(result, fmt.Errorf("%s: %w", f, err))
			}
		}
	}
	return result.ErrorOrNil()
}

func checkYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	for {
		var doc any
		if err := dec.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}
