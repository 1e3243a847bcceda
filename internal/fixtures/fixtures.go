// SPDX-License-Identifier: MPL-2.0

// Package fixtures manages the filesystem resources unit tests need: the
// spec -> test/unit symlink, the module's self symlink inside the fixture
// modules directory and a placeholder site manifest.
//
// Every resource is acquired if absent, verified to be of the expected type
// and released by the cleanup task. A path that exists but is not what
// henchman manages is never touched; the operation fails instead.
package fixtures

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ErrFilesystemConflict is the sentinel wrapped by FilesystemStateConflictError.
var ErrFilesystemConflict = errors.New("filesystem state conflict")

type (
	// FilesystemStateConflictError reports a managed path occupied by something
	// henchman did not create.
	FilesystemStateConflictError struct {
		Path string
		// Expected describes what henchman expected to find, e.g. "symlink".
		Expected string
	}

	// Resource is a filesystem entry with scoped lifetime.
	Resource interface {
		Acquire() error
		Release() error
	}

	// Symlink is a managed symbolic link at Path pointing to Target.
	Symlink struct {
		Path   string
		Target string
	}

	// Placeholder is a managed empty file at Path.
	Placeholder struct {
		Path string
	}
)

func (e *FilesystemStateConflictError) Error() string {
	return fmt.Sprintf("%s exists and is not a %s, cannot continue", e.Path, e.Expected)
}

// Unwrap returns ErrFilesystemConflict for errors.Is.
func (e *FilesystemStateConflictError) Unwrap() error { return ErrFilesystemConflict }

// Acquire replaces a stale symlink at Path, or creates the link if nothing is
// there. Anything else at Path is a conflict.
func (s Symlink) Acquire() error {
	info, err := os.Lstat(s.Path)
	switch {
	case err == nil && info.Mode()&fs.ModeSymlink != 0:
		if err := os.Remove(s.Path); err != nil {
			return fmt.Errorf("failed to remove stale symlink %s: %w", s.Path, err)
		}
	case err == nil:
		return &FilesystemStateConflictError{Path: s.Path, Expected: "symlink"}
	case !errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("failed to inspect %s: %w", s.Path, err)
	}

	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(s.Path), err)
	}
	if err := os.Symlink(s.Target, s.Path); err != nil {
		return fmt.Errorf("failed to link %s -> %s: %w", s.Path, s.Target, err)
	}
	return nil
}

// Release removes the symlink. A missing path is fine; a non-symlink is a conflict.
func (s Symlink) Release() error {
	info, err := os.Lstat(s.Path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil
	case err != nil:
		return fmt.Errorf("failed to inspect %s: %w", s.Path, err)
	case info.Mode()&fs.ModeSymlink == 0:
		return &FilesystemStateConflictError{Path: s.Path, Expected: "symlink"}
	}
	if err := os.Remove(s.Path); err != nil {
		return fmt.Errorf("failed to remove symlink %s: %w", s.Path, err)
	}
	return nil
}

// Acquire creates the parent directory and touches the file.
func (p Placeholder) Acquire() error {
	if err := os.MkdirAll(filepath.Dir(p.Path), 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(p.Path), err)
	}
	f, err := os.OpenFile(p.Path, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to touch %s: %w", p.Path, err)
	}
	return f.Close()
}

// Release removes the file only while it is still empty; user content stays.
func (p Placeholder) Release() error {
	info, err := os.Lstat(p.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to inspect %s: %w", p.Path, err)
	}
	if !info.Mode().IsRegular() || info.Size() != 0 {
		return nil
	}
	if err := os.Remove(p.Path); err != nil {
		return fmt.Errorf("failed to remove %s: %w", p.Path, err)
	}
	return nil
}

// CleanDir ensures dir exists and removes everything inside it.
func CleanDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", dir, err)
	}
	for _, entry := range entries {
		if err := os.RemoveAll(filepath.Join(dir, entry.Name())); err != nil {
			return fmt.Errorf("failed to remove %s: %w", entry.Name(), err)
		}
	}
	return nil
}

// AcquireAll acquires resources in order and stops at the first error.
func AcquireAll(resources ...Resource) error {
	for _, r := range resources {
		if err := r.Acquire(); err != nil {
			return err
		}
	}
	return nil
}

// ReleaseAll releases resources in order and stops at the first error, so a
// conflict aborts before later paths are touched.
func ReleaseAll(resources ...Resource) error {
	for _, r := range resources {
		if err := r.Release(); err != nil {
			return err
		}
	}
	return nil
}
