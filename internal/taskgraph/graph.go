// SPDX-License-Identifier: MPL-2.0

package taskgraph

import (
	"context"
	"errors"
	"io"
	"slices"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/henchman-tools/henchman/internal/dag"
)

type (
	// Action is the body of a task or of one of its enhancements.
	Action func(ctx context.Context, call Call) error

	// TaskArgs holds the named arguments a task was invoked with.
	TaskArgs map[string]string

	// Task is a named node of the graph.
	Task struct {
		// Name is the fully namespaced name, e.g. "spec:unit:prep".
		Name string
		// Description is shown in task listings. Tasks without one are hidden
		// unless all tasks are requested.
		Description string
		// ArgNames are the names positional arguments are bound to.
		ArgNames []string

		prerequisites []string
		action        Action
		enhancements  []enhancement
	}

	// enhancement is an action appended after the primary action.
	enhancement struct {
		action Action
		// always marks enhancements that run even if the task already failed.
		always bool
	}

	// Graph is the task registry.
	Graph struct {
		tasks  map[string]*Task
		logger *log.Logger
	}

	// GraphOption configures a Graph.
	GraphOption func(*Graph)

	// RegisterOption configures a task at registration time.
	RegisterOption func(*Task)
)

// WithLogger sets the logger used for invoke/execute tracing at debug level.
func WithLogger(logger *log.Logger) GraphOption {
	return func(g *Graph) {
		g.logger = logger
	}
}

// WithDescription sets the task's listing description.
func WithDescription(desc string) RegisterOption {
	return func(t *Task) {
		t.Description = desc
	}
}

// WithArgs declares the names positional arguments bind to.
func WithArgs(names ...string) RegisterOption {
	return func(t *Task) {
		t.ArgNames = slices.Clone(names)
	}
}

// New creates an empty Graph.
func New(opts ...GraphOption) *Graph {
	g := &Graph{tasks: make(map[string]*Task)}
	for _, opt := range opts {
		opt(g)
	}
	if g.logger == nil {
		g.logger = log.New(io.Discard)
	}
	return g
}

// Register defines a task, or redefines an existing one. Redefinition
// replaces the primary action when action is non-nil, appends prerequisites
// that are not yet listed and keeps existing enhancements. Use Clear first
// when the previous definition must not survive.
func (g *Graph) Register(name string, prerequisites []string, action Action, opts ...RegisterOption) *Task {
	t, ok := g.tasks[name]
	if !ok {
		t = &Task{Name: name}
		g.tasks[name] = t
	}
	for _, p := range prerequisites {
		if !slices.Contains(t.prerequisites, p) {
			t.prerequisites = append(t.prerequisites, p)
		}
	}
	if action != nil {
		t.action = action
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Clear drops a task's prerequisites, action and enhancements. The task stays
// registered, so it can be redefined in place.
func (g *Graph) Clear(name string) error {
	t, ok := g.tasks[name]
	if !ok {
		return &TaskNotFoundError{Name: name}
	}
	t.prerequisites = nil
	t.action = nil
	t.enhancements = nil
	t.Description = ""
	t.ArgNames = nil
	return nil
}

// Enhance appends prerequisites to an existing task.
func (g *Graph) Enhance(name string, prerequisites ...string) error {
	t, ok := g.tasks[name]
	if !ok {
		return &TaskNotFoundError{Name: name}
	}
	for _, p := range prerequisites {
		if !slices.Contains(t.prerequisites, p) {
			t.prerequisites = append(t.prerequisites, p)
		}
	}
	return nil
}

// EnhanceAction appends a post-action to an existing task. Post-actions run
// after the primary action, in registration order, and are skipped once the
// task has failed.
func (g *Graph) EnhanceAction(name string, action Action) error {
	return g.appendEnhancement(name, enhancement{action: action})
}

// EnsureAction appends a post-action that runs even when the primary action
// or an earlier enhancement failed.
func (g *Graph) EnsureAction(name string, action Action) error {
	return g.appendEnhancement(name, enhancement{action: action, always: true})
}

func (g *Graph) appendEnhancement(name string, e enhancement) error {
	t, ok := g.tasks[name]
	if !ok {
		return &TaskNotFoundError{Name: name}
	}
	if e.action == nil {
		return nil
	}
	t.enhancements = append(t.enhancements, e)
	return nil
}

// Lookup returns the task registered under name.
func (g *Graph) Lookup(name string) (*Task, bool) {
	t, ok := g.tasks[name]
	return t, ok
}

// Tasks returns every registered task sorted by name.
func (g *Graph) Tasks() []*Task {
	tasks := make([]*Task, 0, len(g.tasks))
	for _, t := range g.tasks {
		tasks = append(tasks, t)
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].Name < tasks[j].Name })
	return tasks
}

// Prerequisites returns a copy of the task's prerequisite names.
func (t *Task) Prerequisites() []string {
	return slices.Clone(t.prerequisites)
}

// HasAction reports whether the task has a primary action.
func (t *Task) HasAction() bool {
	return t.action != nil
}

// Validate checks the static prerequisite edges reachable from roots (all
// tasks when roots is empty) for unknown names and cycles.
func (g *Graph) Validate(roots ...string) error {
	d := dag.New()
	for _, t := range g.Tasks() {
		d.AddNode(t.Name)
		for _, p := range t.prerequisites {
			if _, ok := g.tasks[p]; !ok {
				return &TaskNotFoundError{Name: p, RequiredBy: t.Name}
			}
			d.AddEdge(p, t.Name)
		}
	}

	graphs := []*dag.Graph{d}
	if len(roots) > 0 {
		graphs = graphs[:0]
		for _, root := range roots {
			sub := d.Subgraph(root)
			if sub == nil {
				return &TaskNotFoundError{Name: root}
			}
			graphs = append(graphs, sub)
		}
	}

	for _, sub := range graphs {
		if _, err := sub.TopologicalSort(); err != nil {
			var cycleErr *dag.CycleError
			if errors.As(err, &cycleErr) {
				return &PrerequisiteCycleError{Cycle: cycleErr.Cycle}
			}
			return err
		}
	}
	return nil
}

// Plan returns the order in which a run of name would execute tasks through
// their prerequisite edges. Tasks invoked from inside actions are not included.
func (g *Graph) Plan(name string) ([]string, error) {
	if err := g.Validate(name); err != nil {
		return nil, err
	}
	var order []string
	seen := make(map[string]bool)
	var visit func(string)
	visit = func(n string) {
		if seen[n] {
			return
		}
		seen[n] = true
		for _, p := range g.tasks[n].prerequisites {
			visit(p)
		}
		order = append(order, n)
	}
	visit(name)
	return order, nil
}

// Run invokes name in a fresh invocation. Positional args bind to the task's
// ArgNames.
func (g *Graph) Run(ctx context.Context, name string, args ...string) error {
	return g.NewInvocation().Invoke(ctx, name, args...)
}
