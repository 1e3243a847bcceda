// SPDX-License-Identifier: MPL-2.0

package project

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/henchman-tools/henchman/internal/issue"
)

func TestParseModuleName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		json    string
		want    string
		wantErr bool
	}{
		{name: "author-module", json: `{"name": "puppetlabs-apache"}`, want: "apache"},
		{name: "dash in module", json: `{"name": "acme-web-server"}`, want: "web-server"},
		{name: "no author", json: `{"name": "ntp"}`, want: "ntp"},
		{name: "missing name", json: `{"version": "1.0.0"}`, wantErr: true},
		{name: "empty name", json: `{"name": ""}`, wantErr: true},
		{name: "trailing dash", json: `{"name": "acme-"}`, wantErr: true},
		{name: "non-string name", json: `{"name": 42}`, wantErr: true},
		{name: "invalid json", json: `{"name": `, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseModuleName([]byte(tt.json))
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidMetadata) {
					t.Fatalf("expected ErrInvalidMetadata, got %v (name %q)", err, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestModuleName_MissingMetadataFailsFast(t *testing.T) {
	t.Parallel()
	l, err := NewLayout(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	name, err := l.ModuleName()
	if name != "" {
		t.Errorf("expected empty name on error, got %q", name)
	}
	if !errors.Is(err, ErrMetadataNotFound) {
		t.Fatalf("expected ErrMetadataNotFound, got %v", err)
	}
	var ae *issue.ActionableError
	if !errors.As(err, &ae) || ae.Guide != issue.MetadataNotFoundId {
		t.Errorf("expected actionable error with metadata guide, got %v", err)
	}
}

func TestModuleName_FromFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, MetadataFile), []byte(`{"name":"example-henchman"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	l, err := NewLayout(dir)
	if err != nil {
		t.Fatal(err)
	}
	if ok, err := l.MetadataExists(); !ok || err != nil {
		t.Errorf("MetadataExists() = %v, %v", ok, err)
	}
	name, err := l.ModuleName()
	if err != nil || name != "henchman" {
		t.Errorf("ModuleName() = %q, %v", name, err)
	}
}

func TestLayoutPaths(t *testing.T) {
	t.Parallel()
	l := Layout{SourceDir: "/src/mod"}
	checks := map[string]string{
		l.SpecDir():      "/src/mod/spec",
		l.UnitDir():      "/src/mod/test/unit",
		l.ModulesDir():   "/src/mod/test/fixtures/modules",
		l.ManifestsDir(): "/src/mod/test/fixtures/manifests",
		l.SiteManifest(): "/src/mod/test/fixtures/manifests/site.pp",
	}
	for got, want := range checks {
		if filepath.ToSlash(got) != want {
			t.Errorf("got %q, want %q", got, want)
		}
	}
}
