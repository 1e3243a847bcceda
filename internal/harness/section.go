// SPDX-License-Identifier: MPL-2.0

package harness

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// ColorSection is the ANSI blue used for section titles.
const ColorSection = lipgloss.Color("4")

// sectionPrinter writes "==> <title>" banners. Colors are dropped when the
// writer is not a terminal.
type sectionPrinter struct {
	w     io.Writer
	style lipgloss.Style
}

func newSectionPrinter(w io.Writer) *sectionPrinter {
	r := lipgloss.NewRenderer(w)
	return &sectionPrinter{w: w, style: r.NewStyle().Foreground(ColorSection)}
}

// Print writes one banner line.
func (p *sectionPrinter) Print(title string) {
	fmt.Fprintf(p.w, "==> %s\n", p.style.Render(title))
}
