package task

import (
	"time"

	"github.com/pondworks/taskpool/id"
)

// Status represents the lifecycle state of a task.
type Status string

const (
	// StatusPending means the task is waiting to be picked up by a worker.
	StatusPending Status = "pending"
	// StatusRunning means a worker is currently executing the task.
	StatusRunning Status = "running"
	// StatusCompleted means the task finished successfully.
	StatusCompleted Status = "completed"
	// StatusFailed means the task failed and its retry budget is exhausted.
	StatusFailed Status = "failed"
	// StatusCancelled means the task was explicitly cancelled.
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether no further transition occurs from this status.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// Priority determines queue-selection order. Higher levels are dequeued
// first when multiple tasks are waiting; this is selection bias, not
// preemption.
type Priority int

const (
	PriorityLow      Priority = 1
	PriorityNormal   Priority = 2
	PriorityHigh     Priority = 3
	PriorityCritical Priority = 4
)

// Rank converts a priority level into its dequeue ordering key.
// Lower rank dequeues first.
func (p Priority) Rank() int {
	return 5 - int(p)
}

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	case PriorityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Task represents one schedulable, trackable unit of deferred work.
//
// A Task is created at submission and remains in the engine's registry
// for the process lifetime. It is mutated only by the worker currently
// responsible for it or by an explicit cancellation request.
type Task struct {
	ID          id.TaskID     `json:"id"`
	Name        string        `json:"name"`
	Work        Work          `json:"-"`
	Priority    Priority      `json:"priority"`
	Status      Status        `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	StartedAt   *time.Time    `json:"started_at,omitempty"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	Result      any           `json:"result,omitempty"`
	LastError   string        `json:"last_error,omitempty"`
	RetryCount  int           `json:"retry_count"`
	MaxRetries  int           `json:"max_retries"`
	Timeout     time.Duration `json:"timeout,omitempty"`
}

// Snapshot is an immutable point-in-time copy of a task's observable
// state, returned by status queries. It never aliases engine-owned
// memory, so callers may hold it indefinitely.
type Snapshot struct {
	ID          id.TaskID     `json:"id"`
	Name        string        `json:"name"`
	Priority    Priority      `json:"priority"`
	Status      Status        `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	StartedAt   *time.Time    `json:"started_at,omitempty"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	Result      any           `json:"result,omitempty"`
	LastError   string        `json:"last_error,omitempty"`
	RetryCount  int           `json:"retry_count"`
	MaxRetries  int           `json:"max_retries"`
	Timeout     time.Duration `json:"timeout,omitempty"`
}

// Snapshot returns an immutable copy of the task's observable state.
func (t *Task) Snapshot() Snapshot {
	s := Snapshot{
		ID:         t.ID,
		Name:       t.Name,
		Priority:   t.Priority,
		Status:     t.Status,
		CreatedAt:  t.CreatedAt,
		Result:     t.Result,
		LastError:  t.LastError,
		RetryCount: t.RetryCount,
		MaxRetries: t.MaxRetries,
		Timeout:    t.Timeout,
	}
	if t.StartedAt != nil {
		started := *t.StartedAt
		s.StartedAt = &started
	}
	if t.CompletedAt != nil {
		completed := *t.CompletedAt
		s.CompletedAt = &completed
	}
	return s
}
