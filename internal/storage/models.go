// Package storage implements the persistent SQLite store for tasks,
// workspaces, and operation logs. Timestamps are stored as Unix seconds
// in UTC; the database runs in write-ahead-log mode so readers do not
// block writers.
package storage

import "time"

// TaskStatus enumerates task lifecycle states.
type TaskStatus string

const (
	TaskQueued    TaskStatus = "queued"
	TaskRunning   TaskStatus = "running"
	TaskCompleted TaskStatus = "completed"
	TaskFailed    TaskStatus = "failed"
	TaskCancelled TaskStatus = "cancelled"
)

// IsTerminal reports whether the status permits no further transitions.
func (s TaskStatus) IsTerminal() bool {
	switch s {
	case TaskCompleted, TaskFailed, TaskCancelled:
		return true
	}
	return false
}

// Task is one asynchronous git operation tracked by the task manager.
type Task struct {
	ID            string
	Operation     string
	Status        TaskStatus
	WorkspacePath string
	Params        map[string]any
	Result        map[string]any
	ErrorMessage  string
	Progress      int
	Priority      int
	CreatedAt     time.Time
	StartedAt     *time.Time
	CompletedAt   *time.Time
}

// Duration returns elapsed run time, or zero if the task never started.
func (t *Task) Duration() time.Duration {
	if t.StartedAt == nil {
		return 0
	}
	end := time.Now()
	if t.CompletedAt != nil {
		end = *t.CompletedAt
	}
	return end.Sub(*t.StartedAt)
}

// Workspace is one allocated working directory under the workspace root.
type Workspace struct {
	ID             string
	Path           string
	SizeBytes      int64
	LastAccessedAt time.Time
	CreatedAt      time.Time
	Metadata       map[string]any
}

// OperationLog is one log line attached to a task or workspace.
type OperationLog struct {
	ID        int64
	TaskID    string // task id, or workspace id for synchronous operations
	Operation string
	Level     string
	Message   string
	Timestamp time.Time
}
