// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/gobwas/glob"
	"github.com/spf13/cobra"

	"github.com/henchman-tools/henchman/internal/harness"
	"github.com/henchman-tools/henchman/internal/taskgraph"
)

// newTasksCommand creates the `henchman tasks` command.
func newTasksCommand(app *App, flags *globalFlags) *cobra.Command {
	var (
		all   bool
		graph bool
	)

	tasksCmd := &cobra.Command{
		Use:   "tasks [pattern]",
		Short: "List tasks",
		Long: `List tasks and their descriptions.

The optional pattern filters task names. "*" matches within one namespace
level and "**" across levels, e.g. 'spec:*' or 'spec:**'.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := app.newHarness(cmd.Context(), flags)
			if err != nil {
				return app.fail(err, flags.verbose)
			}

			tasks := h.Graph().Tasks()
			if len(args) == 1 {
				tasks, err = filterTasks(tasks, args[0])
				if err != nil {
					return err
				}
			}

			if !graph {
				return harness.PrintTasks(app.stdout, tasks, all)
			}
			var names []string
			for _, t := range tasks {
				if all || t.Description != "" {
					names = append(names, t.Name)
				}
			}
			return harness.PrintPlan(app.stdout, h.Graph(), names)
		},
	}

	tasksCmd.Flags().BoolVarP(&all, "all", "A", false, "include tasks without a description")
	tasksCmd.Flags().BoolVarP(&graph, "graph", "G", false, "show the prerequisite execution order of each task")

	return tasksCmd
}

// filterTasks keeps the tasks whose names match pattern. ':' separates
// namespace levels.
func filterTasks(tasks []*taskgraph.Task, pattern string) ([]*taskgraph.Task, error) {
	g, err := glob.Compile(pattern, ':')
	if err != nil {
		return nil, fmt.Errorf("invalid task pattern %q: %w", pattern, err)
	}
	var out []*taskgraph.Task
	for _, t := range tasks {
		if g.Match(t.Name) {
			out = append(out, t)
		}
	}
	return out, nil
}
