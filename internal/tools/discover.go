// SPDX-License-Identifier: MPL-2.0

package tools

import (
	"fmt"
	"os"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
)

// Discover returns the files under dir matching pattern, relative to dir and
// sorted, minus those matching any exclude pattern. Patterns use doublestar
// syntax, where "**/" also matches zero directories.
func Discover(dir, pattern string, exclude []string) ([]string, error) {
	matches, err := doublestar.Glob(os.DirFS(dir), pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}

	files := matches[:0]
	for _, m := range matches {
		excluded, err := Excluded(m, exclude)
		if err != nil {
			return nil, err
		}
		if !excluded {
			files = append(files, m)
		}
	}
	slices.Sort(files)
	return files, nil
}

// Excluded reports whether the slash-separated relative path matches one of
// the exclude patterns.
func Excluded(path string, exclude []string) (bool, error) {
	for _, pat := range exclude {
		matched, err := doublestar.Match(pat, path)
		if err != nil {
			return false, fmt.Errorf("invalid exclude pattern %q: %w", pat, err)
		}
		if matched {
			return true, nil
		}
	}
	return false, nil
}
