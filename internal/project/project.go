// SPDX-License-Identifier: MPL-2.0

// Package project describes the on-disk layout of the Puppet module under
// test and reads its metadata.json.
package project

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/henchman-tools/henchman/internal/issue"
)

// MetadataFile is the module metadata file name.
const MetadataFile = "metadata.json"

var (
	// ErrMetadataNotFound is returned when metadata.json is missing.
	ErrMetadataNotFound = errors.New("module metadata not found")
	// ErrInvalidMetadata is returned when metadata.json has no usable name.
	ErrInvalidMetadata = errors.New("invalid module metadata")
)

// Layout holds the paths derived from the module's source directory.
type Layout struct {
	SourceDir string
}

// NewLayout returns the layout rooted at dir, made absolute.
func NewLayout(dir string) (Layout, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return Layout{}, fmt.Errorf("failed to resolve %s: %w", dir, err)
	}
	return Layout{SourceDir: abs}, nil
}

// SpecDir is the directory rspec-puppet expects. It is a symlink to UnitDir
// while unit tests run.
func (l Layout) SpecDir() string { return filepath.Join(l.SourceDir, "spec") }

// UnitDir holds the unit tests.
func (l Layout) UnitDir() string { return filepath.Join(l.SourceDir, "test", "unit") }

// FixturesDir holds fixture modules and manifests.
func (l Layout) FixturesDir() string { return filepath.Join(l.SourceDir, "test", "fixtures") }

// ModulesDir holds dependency modules and the self symlink.
func (l Layout) ModulesDir() string { return filepath.Join(l.FixturesDir(), "modules") }

// ManifestsDir holds the placeholder site manifest.
func (l Layout) ManifestsDir() string { return filepath.Join(l.FixturesDir(), "manifests") }

// SiteManifest is the placeholder manifest rspec-puppet loads.
func (l Layout) SiteManifest() string { return filepath.Join(l.ManifestsDir(), "site.pp") }

// MetadataPath is the path of metadata.json.
func (l Layout) MetadataPath() string { return filepath.Join(l.SourceDir, MetadataFile) }

// MetadataExists reports whether metadata.json is present. Errors other than
// the file not existing are returned.
func (l Layout) MetadataExists() (bool, error) {
	info, err := os.Stat(l.MetadataPath())
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("failed to stat %s: %w", l.MetadataPath(), err)
	}
	return !info.IsDir(), nil
}

// ModuleName returns the short module name from metadata.json: the part of
// "author-module" after the first dash. It never returns an empty name.
func (l Layout) ModuleName() (string, error) {
	path := l.MetadataPath()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", issue.NewErrorContext().
			WithOperation("read module metadata").
			WithResource(path).
			WithSuggestion("Run henchman from the root of the Puppet module").
			WithSuggestion("Use --chdir to point at the module root").
			WithGuide(issue.MetadataNotFoundId).
			Wrap(fmt.Errorf("%w: unable to find %s, cannot continue", ErrMetadataNotFound, path)).
			BuildError()
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return ParseModuleName(data)
}

// ParseModuleName extracts the short module name from metadata.json content.
func ParseModuleName(data []byte) (string, error) {
	if !gjson.ValidBytes(data) {
		return "", fmt.Errorf("%w: %s is not valid JSON", ErrInvalidMetadata, MetadataFile)
	}
	name := gjson.GetBytes(data, "name")
	if name.Type != gjson.String || strings.TrimSpace(name.String()) == "" {
		return "", fmt.Errorf("%w: %s has no name", ErrInvalidMetadata, MetadataFile)
	}

	full := strings.TrimSpace(name.String())
	short := full
	if _, after, found := strings.Cut(full, "-"); found {
		short = after
	}
	if short == "" {
		return "", fmt.Errorf("%w: cannot derive module name from %q", ErrInvalidMetadata, full)
	}
	return short, nil
}
