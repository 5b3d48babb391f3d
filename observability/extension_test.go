package observability_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"go.opentelemetry.io/otel/metric/noop"

	"github.com/pondworks/taskpool/ext"
	"github.com/pondworks/taskpool/id"
	"github.com/pondworks/taskpool/observability"
	"github.com/pondworks/taskpool/task"
)

func newTestExtension() *observability.MetricsExtension {
	return observability.NewMetricsExtensionWithMeter(noop.NewMeterProvider().Meter("test"))
}

func newTestSnapshot() task.Snapshot {
	t := &task.Task{
		ID:       id.NewTaskID(),
		Name:     "send-email",
		Priority: task.PriorityNormal,
		Status:   task.StatusPending,
	}
	return t.Snapshot()
}

func TestMetricsExtension_Name(t *testing.T) {
	e := newTestExtension()
	if e.Name() != "observability-metrics" {
		t.Errorf("expected name %q, got %q", "observability-metrics", e.Name())
	}
}

// With a noop meter every hook must record without error.
func TestMetricsExtension_HooksReturnNil(t *testing.T) {
	e := newTestExtension()
	ctx := context.Background()
	s := newTestSnapshot()

	if err := e.OnTaskSubmitted(ctx, s); err != nil {
		t.Errorf("OnTaskSubmitted: %v", err)
	}
	if err := e.OnTaskStarted(ctx, s); err != nil {
		t.Errorf("OnTaskStarted: %v", err)
	}
	if err := e.OnTaskCompleted(ctx, s, 100*time.Millisecond); err != nil {
		t.Errorf("OnTaskCompleted: %v", err)
	}
	if err := e.OnTaskFailed(ctx, s, errors.New("boom")); err != nil {
		t.Errorf("OnTaskFailed: %v", err)
	}
	if err := e.OnTaskRetrying(ctx, s, 1, time.Second); err != nil {
		t.Errorf("OnTaskRetrying: %v", err)
	}
	if err := e.OnTaskCancelled(ctx, s); err != nil {
		t.Errorf("OnTaskCancelled: %v", err)
	}
}

func TestMetricsExtension_ViaRegistry(t *testing.T) {
	e := newTestExtension()
	reg := ext.NewRegistry(slog.Default())
	reg.Register(e)

	ctx := context.Background()
	s := newTestSnapshot()

	// Every emit must dispatch to the extension without panicking.
	reg.EmitTaskSubmitted(ctx, s)
	reg.EmitTaskStarted(ctx, s)
	reg.EmitTaskCompleted(ctx, s, 50*time.Millisecond)
	reg.EmitTaskFailed(ctx, s, errors.New("fail"))
	reg.EmitTaskRetrying(ctx, s, 1, time.Second)
	reg.EmitTaskCancelled(ctx, s)

	if len(reg.Extensions()) != 1 {
		t.Errorf("len(Extensions()) = %d, want 1", len(reg.Extensions()))
	}
}
