// SPDX-License-Identifier: MPL-2.0

package tools

import (
	"context"

	"github.com/henchman-tools/henchman/internal/project"
)

// Metadata validates metadata.json with metadata-json-lint.
type Metadata struct {
	Binary string
	Layout project.Layout
	Exec   Executor
}

// Run lints metadata.json. A module without one passes.
func (m *Metadata) Run(ctx context.Context) error {
	ok, err := m.Layout.MetadataExists()
	if err != nil || !ok {
		return err
	}
	return m.Exec.Exec(ctx, m.Binary, project.MetadataFile)
}
