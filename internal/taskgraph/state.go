// SPDX-License-Identifier: MPL-2.0

package taskgraph

import "fmt"

const (
	// StateUnresolved is the state of a task not yet reached in this invocation.
	StateUnresolved TaskState = iota
	// StatePrerequisitesRunning means the task's prerequisites are being invoked.
	StatePrerequisitesRunning
	// StateActionRunning means the task's primary action is executing.
	StateActionRunning
	// StateEnhancementsRunning means post-actions are executing.
	StateEnhancementsRunning
	// StateDone is terminal: the task and its enhancements succeeded.
	StateDone
	// StateFailed is terminal: a prerequisite, the action or an enhancement failed.
	StateFailed
)

// TaskState is the lifecycle position of a task within one invocation.
type TaskState int

func (s TaskState) String() string {
	switch s {
	case StateUnresolved:
		return "unresolved"
	case StatePrerequisitesRunning:
		return "prerequisites-running"
	case StateActionRunning:
		return "action-running"
	case StateEnhancementsRunning:
		return "enhancements-running"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("TaskState(%d)", int(s))
	}
}

// IsTerminal reports whether the state is Done or Failed.
func (s TaskState) IsTerminal() bool {
	return s == StateDone || s == StateFailed
}

// IsRunning reports whether the task is somewhere between resolution and completion.
func (s TaskState) IsRunning() bool {
	return s == StatePrerequisitesRunning || s == StateActionRunning || s == StateEnhancementsRunning
}

func isAllowedTransition(from, to TaskState) bool {
	switch from {
	case StateUnresolved:
		return to == StatePrerequisitesRunning
	case StatePrerequisitesRunning:
		return to == StateActionRunning || to == StateFailed
	case StateActionRunning:
		return to == StateEnhancementsRunning || to == StateFailed
	case StateEnhancementsRunning:
		return to == StateDone || to == StateFailed
	default:
		return false
	}
}
