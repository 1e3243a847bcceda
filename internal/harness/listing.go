// SPDX-License-Identifier: MPL-2.0

package harness

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/henchman-tools/henchman/internal/taskgraph"
)

const commandName = "henchman"

// Usage returns how a task is invoked from the command line, e.g.
// "integration[destroy]".
func Usage(t *taskgraph.Task) string {
	if len(t.ArgNames) == 0 {
		return t.Name
	}
	return t.Name + "[" + strings.Join(t.ArgNames, ",") + "]"
}

// PrintTasks writes one line per task with its description. Tasks without a
// description are listed only when all is set.
func PrintTasks(w io.Writer, tasks []*taskgraph.Task, all bool) error {
	r := lipgloss.NewRenderer(w)
	nameStyle := r.NewStyle().Foreground(lipgloss.Color("#3B82F6"))
	descStyle := r.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	var shown []*taskgraph.Task
	width := 0
	for _, t := range tasks {
		if t.Description == "" && !all {
			continue
		}
		shown = append(shown, t)
		width = max(width, len(commandName)+1+len(Usage(t)))
	}

	for _, t := range shown {
		cmd := commandName + " " + Usage(t)
		pad := strings.Repeat(" ", width-len(cmd))
		line := nameStyle.Render(cmd) + pad
		if t.Description != "" {
			line += "  " + descStyle.Render("# "+t.Description)
		}
		if _, err := fmt.Fprintln(w, strings.TrimRight(line, " ")); err != nil {
			return err
		}
	}
	return nil
}

// PrintPlan writes the execution order of each task's prerequisite chain.
func PrintPlan(w io.Writer, g *taskgraph.Graph, names []string) error {
	for _, name := range names {
		order, err := g.Plan(name)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%s: %s\n", name, strings.Join(order, " -> ")); err != nil {
			return err
		}
	}
	return nil
}
