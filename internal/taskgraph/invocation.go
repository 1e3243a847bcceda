// SPDX-License-Identifier: MPL-2.0

package taskgraph

import (
	"context"
	"fmt"
	"slices"

	"github.com/hashicorp/go-multierror"
)

type (
	// Invocation is one run over the graph. It memoizes which tasks already
	// ran so that each task executes at most once per invocation.
	Invocation struct {
		graph    *Graph
		states   map[string]TaskState
		failures map[string]error
		executed []string
	}

	// Call is what an action sees of the invocation running it.
	Call struct {
		// Task is the task whose action or enhancement is running.
		Task *Task
		// Args are the named arguments bound for Task.
		Args TaskArgs

		inv   *Invocation
		stack []string
	}
)

// NewInvocation starts an invocation with an empty memo.
func (g *Graph) NewInvocation() *Invocation {
	return &Invocation{
		graph:    g,
		states:   make(map[string]TaskState),
		failures: make(map[string]error),
	}
}

// Invoke runs name and its prerequisites. Tasks that already finished in
// this invocation are not run again.
func (inv *Invocation) Invoke(ctx context.Context, name string, args ...string) error {
	t, ok := inv.graph.tasks[name]
	if !ok {
		return &TaskNotFoundError{Name: name}
	}
	return inv.invoke(ctx, name, bindArgs(t.ArgNames, args), nil, "")
}

// State returns the lifecycle state of name in this invocation.
func (inv *Invocation) State(name string) TaskState {
	return inv.states[name]
}

// Executed returns the tasks whose actions ran, in the order they started.
func (inv *Invocation) Executed() []string {
	return slices.Clone(inv.executed)
}

// Arg returns the named argument, or "" when it was not given.
func (c Call) Arg(name string) string {
	return c.Args[name]
}

// Invoke runs another task within the same invocation, sharing its memo.
func (c Call) Invoke(ctx context.Context, name string) error {
	return c.inv.invoke(ctx, name, c.Args, c.stack, c.Task.Name)
}

// InvokeTask returns an Action that invokes name in the running invocation.
func InvokeTask(name string) Action {
	return func(ctx context.Context, call Call) error {
		return call.Invoke(ctx, name)
	}
}

func (inv *Invocation) invoke(ctx context.Context, name string, args TaskArgs, stack []string, requiredBy string) error {
	t, ok := inv.graph.tasks[name]
	if !ok {
		return &TaskNotFoundError{Name: name, RequiredBy: requiredBy}
	}

	if idx := slices.Index(stack, name); idx >= 0 {
		cycle := append(slices.Clone(stack[idx:]), name)
		return &PrerequisiteCycleError{Cycle: cycle}
	}

	switch inv.states[name] {
	case StateDone:
		return nil
	case StateFailed:
		return inv.failures[name]
	}

	stack = append(slices.Clone(stack), name)
	scoped := scopeArgs(t.ArgNames, args)
	logger := inv.graph.logger.With("task", name)

	if err := inv.transition(name, StatePrerequisitesRunning); err != nil {
		return err
	}
	logger.Debug("invoke")

	if err := ctx.Err(); err != nil {
		return inv.fail(name, fmt.Errorf("task '%s' cancelled: %w", name, err))
	}

	for _, prereq := range t.prerequisites {
		if err := inv.invoke(ctx, prereq, scoped, stack, name); err != nil {
			return inv.fail(name, err)
		}
	}

	if err := inv.transition(name, StateActionRunning); err != nil {
		return err
	}
	inv.executed = append(inv.executed, name)
	call := Call{Task: t, Args: scoped, inv: inv, stack: stack}

	var result *multierror.Error
	if t.action != nil {
		logger.Debug("execute")
		if err := t.action(ctx, call); err != nil {
			result = multierror.Append(result, wrapTaskError(name, err))
		}
	}

	if err := inv.transition(name, StateEnhancementsRunning); err != nil {
		return err
	}
	result = runEnhancements(ctx, call, result)

	if err := flatten(result); err != nil {
		return inv.fail(name, err)
	}
	return inv.transition(name, StateDone)
}

// Execute runs name's action and enhancements within the invocation even if
// name already ran. Prerequisites are not invoked and the memo is not
// consulted or changed.
func (c Call) Execute(ctx context.Context, name string) error {
	t, ok := c.inv.graph.tasks[name]
	if !ok {
		return &TaskNotFoundError{Name: name, RequiredBy: c.Task.Name}
	}
	if idx := slices.Index(c.stack, name); idx >= 0 {
		return &PrerequisiteCycleError{Cycle: append(slices.Clone(c.stack[idx:]), name)}
	}

	c.inv.executed = append(c.inv.executed, name)
	call := Call{
		Task:  t,
		Args:  scopeArgs(t.ArgNames, c.Args),
		inv:   c.inv,
		stack: append(slices.Clone(c.stack), name),
	}
	c.inv.graph.logger.With("task", name).Debug("execute", "by", c.Task.Name)

	var result *multierror.Error
	if t.action != nil {
		if err := t.action(ctx, call); err != nil {
			result = multierror.Append(result, wrapTaskError(name, err))
		}
	}
	return flatten(runEnhancements(ctx, call, result))
}

// ExecuteTask returns an Action that runs name through Call.Execute.
func ExecuteTask(name string) Action {
	return func(ctx context.Context, call Call) error {
		return call.Execute(ctx, name)
	}
}

// runEnhancements runs call.Task's post-actions. Once result holds an error
// only ensure-actions run.
func runEnhancements(ctx context.Context, call Call, result *multierror.Error) *multierror.Error {
	for _, e := range call.Task.enhancements {
		if result.ErrorOrNil() != nil && !e.always {
			continue
		}
		if err := e.action(ctx, call); err != nil {
			result = multierror.Append(result, wrapTaskError(call.Task.Name, err))
		}
	}
	return result
}

// flatten unwraps a single accumulated error.
func flatten(result *multierror.Error) error {
	if result.ErrorOrNil() == nil {
		return nil
	}
	if len(result.Errors) == 1 {
		return result.Errors[0]
	}
	return result
}

func (inv *Invocation) transition(name string, to TaskState) error {
	from := inv.states[name]
	if !isAllowedTransition(from, to) {
		return fmt.Errorf("invalid transition for task '%s': %s -> %s", name, from, to)
	}
	inv.states[name] = to
	return nil
}

func (inv *Invocation) fail(name string, err error) error {
	if inv.states[name].IsRunning() {
		inv.states[name] = StateFailed
		inv.failures[name] = err
	}
	return err
}

// wrapTaskError attributes err to task unless a nested invocation already did.
func wrapTaskError(task string, err error) error {
	switch err.(type) {
	case *TaskError, *TaskNotFoundError, *PrerequisiteCycleError:
		return err
	}
	return &TaskError{Task: task, Err: err}
}

// bindArgs maps positional values onto names. Extra values are dropped.
func bindArgs(names, values []string) TaskArgs {
	args := make(TaskArgs, len(names))
	for i, name := range names {
		if i < len(values) {
			args[name] = values[i]
		}
	}
	return args
}

// scopeArgs keeps only the arguments a task declares.
func scopeArgs(names []string, args TaskArgs) TaskArgs {
	scoped := make(TaskArgs, len(names))
	for _, name := range names {
		if v, ok := args[name]; ok {
			scoped[name] = v
		}
	}
	return scoped
}
