package middleware

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/pondworks/taskpool/task"
)

// tracerName is the instrumentation scope name for taskpool tracing.
const tracerName = "github.com/pondworks/taskpool"

// Tracing returns middleware that wraps task execution in an
// OpenTelemetry span. If no TracerProvider is configured globally, the
// default noop tracer is used and this middleware becomes a
// pass-through with zero overhead.
//
// Span attributes include: taskpool.task.id, taskpool.task.name,
// taskpool.priority, taskpool.retry_count. On error, the span status is
// set to codes.Error with the error message.
func Tracing() Middleware {
	tracer := otel.Tracer(tracerName)
	return TracingWithTracer(tracer)
}

// TracingWithTracer returns tracing middleware using the provided tracer.
// This variant allows injecting a specific TracerProvider for testing or
// when multiple providers are in use.
func TracingWithTracer(tracer trace.Tracer) Middleware {
	return func(ctx context.Context, t *task.Task, next Handler) (any, error) {
		ctx, span := tracer.Start(ctx, "taskpool.task.execute",
			trace.WithAttributes(
				attribute.String("taskpool.task.id", t.ID.String()),
				attribute.String("taskpool.task.name", t.Name),
				attribute.String("taskpool.priority", t.Priority.String()),
				attribute.Int("taskpool.retry_count", t.RetryCount),
			),
			trace.WithSpanKind(trace.SpanKindInternal),
		)
		defer span.End()

		result, err := next(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}

		return result, err
	}
}
