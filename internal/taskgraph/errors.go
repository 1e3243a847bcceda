// SPDX-License-Identifier: MPL-2.0

package taskgraph

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTaskNotFound is the sentinel wrapped by TaskNotFoundError.
	ErrTaskNotFound = errors.New("task not found")
	// ErrPrerequisiteCycle is the sentinel wrapped by PrerequisiteCycleError.
	ErrPrerequisiteCycle = errors.New("prerequisite cycle")
	// ErrInvalidTaskSpec is returned by ParseTaskSpec for malformed input.
	ErrInvalidTaskSpec = errors.New("invalid task spec")
)

type (
	// TaskNotFoundError is returned when a task name is not registered.
	TaskNotFoundError struct {
		Name string
		// RequiredBy names the task that listed Name as a prerequisite, if any.
		RequiredBy string
	}

	// PrerequisiteCycleError is returned when a task transitively requires itself.
	PrerequisiteCycleError struct {
		// Cycle lists the path, starting and ending with the same task when the
		// cycle was found at run time.
		Cycle []string
	}

	// TaskError wraps a failure raised by a task's own action or enhancements.
	TaskError struct {
		Task string
		Err  error
	}
)

func (e *TaskNotFoundError) Error() string {
	if e.RequiredBy != "" {
		return fmt.Sprintf("don't know how to build task '%s' (required by '%s')", e.Name, e.RequiredBy)
	}
	return fmt.Sprintf("don't know how to build task '%s'", e.Name)
}

// Unwrap returns ErrTaskNotFound for errors.Is.
func (e *TaskNotFoundError) Unwrap() error { return ErrTaskNotFound }

func (e *PrerequisiteCycleError) Error() string {
	return fmt.Sprintf("circular dependency detected: %s", strings.Join(e.Cycle, " => "))
}

// Unwrap returns ErrPrerequisiteCycle for errors.Is.
func (e *PrerequisiteCycleError) Unwrap() error { return ErrPrerequisiteCycle }

func (e *TaskError) Error() string {
	return fmt.Sprintf("task '%s' failed: %v", e.Task, e.Err)
}

// Unwrap returns the action's error.
func (e *TaskError) Unwrap() error { return e.Err }
