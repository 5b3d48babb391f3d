// Package ext defines the extension system for taskpool.
// Extensions are notified of lifecycle events (task submitted, completed,
// failed, etc.) and can react to them — logging, metrics, tracing, etc.
//
// Each lifecycle hook is a separate interface so extensions opt in only
// to the events they care about. Hooks receive immutable snapshots: the
// live task record stays owned by the engine.
package ext

import (
	"context"
	"time"

	"github.com/pondworks/taskpool/task"
)

// Extension is the base interface all extensions must implement.
type Extension interface {
	// Name returns a unique human-readable name for the extension.
	Name() string
}

// ──────────────────────────────────────────────────
// Task lifecycle hooks
// ──────────────────────────────────────────────────

// TaskSubmitted is called after a task is accepted onto the queue.
type TaskSubmitted interface {
	OnTaskSubmitted(ctx context.Context, t task.Snapshot) error
}

// TaskStarted is called when a worker begins executing a task.
type TaskStarted interface {
	OnTaskStarted(ctx context.Context, t task.Snapshot) error
}

// TaskCompleted is called after a task finishes successfully.
type TaskCompleted interface {
	OnTaskCompleted(ctx context.Context, t task.Snapshot, elapsed time.Duration) error
}

// TaskFailed is called when a task fails terminally (retry budget
// exhausted).
type TaskFailed interface {
	OnTaskFailed(ctx context.Context, t task.Snapshot, err error) error
}

// TaskRetrying is called when a task fails but is re-queued for another
// attempt.
type TaskRetrying interface {
	OnTaskRetrying(ctx context.Context, t task.Snapshot, attempt int, delay time.Duration) error
}

// TaskCancelled is called when a task is cancelled, whether it was still
// pending or already running.
type TaskCancelled interface {
	OnTaskCancelled(ctx context.Context, t task.Snapshot) error
}

// ──────────────────────────────────────────────────
// Engine lifecycle hooks
// ──────────────────────────────────────────────────

// Shutdown is called during graceful shutdown.
type Shutdown interface {
	OnShutdown(ctx context.Context) error
}
