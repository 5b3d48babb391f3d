package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/pondworks/taskpool/ext"
	"github.com/pondworks/taskpool/task"
)

// meterName is the instrumentation scope name for lifecycle metrics.
const meterName = "github.com/pondworks/taskpool/observability"

// Compile-time interface checks.
var (
	_ ext.Extension     = (*MetricsExtension)(nil)
	_ ext.TaskSubmitted = (*MetricsExtension)(nil)
	_ ext.TaskStarted   = (*MetricsExtension)(nil)
	_ ext.TaskCompleted = (*MetricsExtension)(nil)
	_ ext.TaskFailed    = (*MetricsExtension)(nil)
	_ ext.TaskRetrying  = (*MetricsExtension)(nil)
	_ ext.TaskCancelled = (*MetricsExtension)(nil)
)

// MetricsExtension records engine-wide lifecycle metrics via OpenTelemetry
// counters. Register it as an extension to automatically track submission
// rates, completion counts, failure rates, retry counts, and cancellations.
type MetricsExtension struct {
	taskSubmitted metric.Int64Counter
	taskStarted   metric.Int64Counter
	taskCompleted metric.Int64Counter
	taskFailed    metric.Int64Counter
	taskRetried   metric.Int64Counter
	taskCancelled metric.Int64Counter
}

// NewMetricsExtension creates a MetricsExtension using the global OTel
// MeterProvider. With no provider configured the counters are noops.
func NewMetricsExtension() *MetricsExtension {
	return NewMetricsExtensionWithMeter(otel.Meter(meterName))
}

// NewMetricsExtensionWithMeter creates a MetricsExtension with the
// provided meter. Use this variant to inject a MeterProvider for testing.
func NewMetricsExtensionWithMeter(meter metric.Meter) *MetricsExtension {
	m := &MetricsExtension{}

	// OTel guarantees a noop instrument on error, so creation errors are
	// safe to discard.
	m.taskSubmitted, _ = meter.Int64Counter("taskpool.task.submitted",
		metric.WithDescription("Total number of tasks submitted"))
	m.taskStarted, _ = meter.Int64Counter("taskpool.task.started",
		metric.WithDescription("Total number of task executions started"))
	m.taskCompleted, _ = meter.Int64Counter("taskpool.task.completed",
		metric.WithDescription("Total number of tasks completed successfully"))
	m.taskFailed, _ = meter.Int64Counter("taskpool.task.failed",
		metric.WithDescription("Total number of tasks failed terminally"))
	m.taskRetried, _ = meter.Int64Counter("taskpool.task.retried",
		metric.WithDescription("Total number of task retry re-queues"))
	m.taskCancelled, _ = meter.Int64Counter("taskpool.task.cancelled",
		metric.WithDescription("Total number of tasks cancelled"))

	return m
}

// Name implements ext.Extension.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnTaskSubmitted implements ext.TaskSubmitted.
func (m *MetricsExtension) OnTaskSubmitted(ctx context.Context, _ task.Snapshot) error {
	m.taskSubmitted.Add(ctx, 1)
	return nil
}

// OnTaskStarted implements ext.TaskStarted.
func (m *MetricsExtension) OnTaskStarted(ctx context.Context, _ task.Snapshot) error {
	m.taskStarted.Add(ctx, 1)
	return nil
}

// OnTaskCompleted implements ext.TaskCompleted.
func (m *MetricsExtension) OnTaskCompleted(ctx context.Context, _ task.Snapshot, _ time.Duration) error {
	m.taskCompleted.Add(ctx, 1)
	return nil
}

// OnTaskFailed implements ext.TaskFailed.
func (m *MetricsExtension) OnTaskFailed(ctx context.Context, _ task.Snapshot, _ error) error {
	m.taskFailed.Add(ctx, 1)
	return nil
}

// OnTaskRetrying implements ext.TaskRetrying.
func (m *MetricsExtension) OnTaskRetrying(ctx context.Context, _ task.Snapshot, _ int, _ time.Duration) error {
	m.taskRetried.Add(ctx, 1)
	return nil
}

// OnTaskCancelled implements ext.TaskCancelled.
func (m *MetricsExtension) OnTaskCancelled(ctx context.Context, _ task.Snapshot) error {
	m.taskCancelled.Add(ctx, 1)
	return nil
}
