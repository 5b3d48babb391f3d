package engine

import (
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/pondworks/taskpool/backoff"
	"github.com/pondworks/taskpool/ext"
	"github.com/pondworks/taskpool/middleware"
)

// Option configures an Engine.
type Option func(*Engine)

// WithMaxWorkers sets the number of concurrent worker loops.
func WithMaxWorkers(n int) Option {
	return func(e *Engine) { e.cfg.MaxWorkers = n }
}

// WithMaxQueueSize bounds the pending queue. Submissions beyond this
// depth are rejected with ErrQueueFull.
func WithMaxQueueSize(n int) Option {
	return func(e *Engine) { e.cfg.MaxQueueSize = n }
}

// WithDefaultMaxRetries sets the retry budget for tasks submitted
// without an explicit one.
func WithDefaultMaxRetries(n int) Option {
	return func(e *Engine) { e.cfg.DefaultMaxRetries = n }
}

// WithDefaultTimeout sets the execution deadline for tasks submitted
// without an explicit one. Zero means no deadline.
func WithDefaultTimeout(d time.Duration) Option {
	return func(e *Engine) { e.cfg.DefaultTimeout = d }
}

// WithPollInterval bounds how long an idle worker waits before
// re-checking for work and the stop signal.
func WithPollInterval(d time.Duration) Option {
	return func(e *Engine) { e.cfg.PollInterval = d }
}

// WithShutdownTimeout sets how long Stop waits for running tasks to
// drain before cancelling them.
func WithShutdownTimeout(d time.Duration) Option {
	return func(e *Engine) { e.cfg.ShutdownTimeout = d }
}

// WithLogger sets the engine's structured logger.
// If not set, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithBackoff sets the retry backoff strategy for the engine.
// If not set, failed tasks are re-queued immediately; pass
// backoff.DefaultStrategy() to opt into exponential backoff with jitter.
func WithBackoff(b backoff.Strategy) Option {
	return func(e *Engine) { e.bo = b }
}

// WithMiddleware appends middleware to the engine's chain, inside the
// default stack (recover, tracing, metrics, logging, timeout).
func WithMiddleware(m middleware.Middleware) Option {
	return func(e *Engine) { e.userMws = append(e.userMws, m) }
}

// WithExtension registers an extension with the engine.
func WithExtension(x ext.Extension) Option {
	return func(e *Engine) { e.userExts = append(e.userExts, x) }
}

// WithRateLimit caps dispatch throughput at perSecond task starts per
// second with the given burst. Workers wait for a token before
// executing a dequeued task; queued tasks are unaffected.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(e *Engine) { e.limiter = rate.NewLimiter(rate.Limit(perSecond), burst) }
}

// WithTracerProvider sets a custom OTel TracerProvider for the engine.
// When set, the tracing middleware uses this provider instead of the
// global one.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(e *Engine) { e.tracerProvider = tp }
}

// WithMeterProvider sets a custom OTel MeterProvider for the engine.
// When set, both the metrics middleware and the observability extension
// use this provider instead of the global one.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(e *Engine) { e.meterProvider = mp }
}
