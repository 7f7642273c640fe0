package core

import "time"

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	// TaskPending means the task has been admitted but not started.
	TaskPending TaskStatus = "pending"
	// TaskRunning means the task's work is in flight.
	TaskRunning TaskStatus = "running"
	// TaskCompleted is terminal with a stored result payload.
	TaskCompleted TaskStatus = "completed"
	// TaskFailed is terminal with a stored failure payload.
	TaskFailed TaskStatus = "failed"
	// TaskCancelled is terminal; the task's cancellation token fired.
	TaskCancelled TaskStatus = "cancelled"
)

// Terminal reports whether the status accepts no further transition.
func (s TaskStatus) Terminal() bool {
	return s == TaskCompleted || s == TaskFailed || s == TaskCancelled
}

// CanTransitionTo reports whether a status change is legal:
// pending -> running -> {completed, failed}, or any non-terminal -> cancelled.
func (s TaskStatus) CanTransitionTo(next TaskStatus) bool {
	if s.Terminal() {
		return false
	}
	switch next {
	case TaskRunning:
		return s == TaskPending
	case TaskCompleted, TaskFailed:
		return s == TaskRunning
	case TaskCancelled:
		return true
	default:
		return false
	}
}

// Task models a tool call whose result may not be ready within one
// request/response cycle. Its lifetime is independent of any session it may
// reference by id; the result payload is stored detached and retrievable once
// the task is terminal.
type Task struct {
	ID               string        `json:"id"`
	Status           TaskStatus    `json:"status"`
	Message          string        `json:"message,omitempty"`
	TTL              time.Duration `json:"ttl"`
	PollIntervalHint time.Duration `json:"poll_interval_hint"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// Clone returns a copy of the task safe for independent use.
func (t *Task) Clone() *Task {
	clone := *t
	return &clone
}

// TaskStore persists tasks and their detached result payloads. Any compliant
// implementation (in-memory, or a future persistent one) can be substituted.
//
// Contract:
//   - CreateTask admits a new task in TaskPending state
//   - UpdateTaskStatus enforces the transition table of TaskStatus
//   - StoreTaskResult sets a terminal completed/failed status exactly once
//   - GetTaskResult on a non-terminal task returns ErrResultNotReady,
//     distinct from ErrTaskNotFound
type TaskStore interface {
	CreateTask(ttl, pollIntervalHint time.Duration) (*Task, error)
	UpdateTaskStatus(taskID string, status TaskStatus, message string) error
	StoreTaskResult(taskID string, status TaskStatus, result any) error
	GetTask(taskID string) (*Task, error)
	GetTaskResult(taskID string) (any, error)
}
