package audithook

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pondworks/taskpool/ext"
	"github.com/pondworks/taskpool/task"
)

// Compile-time interface checks.
var (
	_ ext.Extension     = (*Extension)(nil)
	_ ext.TaskSubmitted = (*Extension)(nil)
	_ ext.TaskStarted   = (*Extension)(nil)
	_ ext.TaskCompleted = (*Extension)(nil)
	_ ext.TaskFailed    = (*Extension)(nil)
	_ ext.TaskRetrying  = (*Extension)(nil)
	_ ext.TaskCancelled = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
// It is defined locally so that the audit_hook package carries no
// backend dependency — callers inject their concrete trail at wiring
// time.
type Recorder interface {
	// Record persists a fully-formed audit event.
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a backend-neutral representation of an audit event.
type AuditEvent struct {
	// What happened
	Action   string `json:"action"`
	Resource string `json:"resource"`
	Category string `json:"category"`

	// Details
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Severity constants.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Outcome constants.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Extension bridges taskpool lifecycle events to an audit trail
// backend. Each lifecycle hook emits a structured audit event through
// the [Recorder].
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided
// Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements ext.Extension.
func (e *Extension) Name() string { return "audit-hook" }

// OnTaskSubmitted implements ext.TaskSubmitted.
func (e *Extension) OnTaskSubmitted(ctx context.Context, t task.Snapshot) error {
	return e.record(ctx, ActionTaskSubmitted, SeverityInfo, OutcomeSuccess,
		t.ID.String(), nil,
		"task_name", t.Name,
		"priority", t.Priority.String(),
	)
}

// OnTaskStarted implements ext.TaskStarted.
func (e *Extension) OnTaskStarted(ctx context.Context, t task.Snapshot) error {
	return e.record(ctx, ActionTaskStarted, SeverityInfo, OutcomeSuccess,
		t.ID.String(), nil,
		"task_name", t.Name,
		"priority", t.Priority.String(),
		"retry_count", t.RetryCount,
	)
}

// OnTaskCompleted implements ext.TaskCompleted.
func (e *Extension) OnTaskCompleted(ctx context.Context, t task.Snapshot, elapsed time.Duration) error {
	return e.record(ctx, ActionTaskCompleted, SeverityInfo, OutcomeSuccess,
		t.ID.String(), nil,
		"task_name", t.Name,
		"elapsed_ms", elapsed.Milliseconds(),
	)
}

// OnTaskFailed implements ext.TaskFailed.
func (e *Extension) OnTaskFailed(ctx context.Context, t task.Snapshot, taskErr error) error {
	return e.record(ctx, ActionTaskFailed, SeverityCritical, OutcomeFailure,
		t.ID.String(), taskErr,
		"task_name", t.Name,
		"retry_count", t.RetryCount,
		"max_retries", t.MaxRetries,
	)
}

// OnTaskRetrying implements ext.TaskRetrying.
func (e *Extension) OnTaskRetrying(ctx context.Context, t task.Snapshot, attempt int, delay time.Duration) error {
	return e.record(ctx, ActionTaskRetrying, SeverityWarning, OutcomeFailure,
		t.ID.String(), nil,
		"task_name", t.Name,
		"attempt", attempt,
		"delay_ms", delay.Milliseconds(),
	)
}

// OnTaskCancelled implements ext.TaskCancelled.
func (e *Extension) OnTaskCancelled(ctx context.Context, t task.Snapshot) error {
	return e.record(ctx, ActionTaskCancelled, SeverityWarning, OutcomeFailure,
		t.ID.String(), nil,
		"task_name", t.Name,
	)
}

// record builds and sends an audit event if the action is enabled.
// The kvPairs argument is a list of key-value pairs added to Metadata.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resourceID string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   ResourceTask,
		Category:   CategoryTask,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
