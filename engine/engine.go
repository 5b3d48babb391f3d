package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/pondworks/taskpool"
	"github.com/pondworks/taskpool/backoff"
	"github.com/pondworks/taskpool/ext"
	"github.com/pondworks/taskpool/id"
	mw "github.com/pondworks/taskpool/middleware"
	"github.com/pondworks/taskpool/observability"
	"github.com/pondworks/taskpool/queue"
	"github.com/pondworks/taskpool/task"
)

// handle tracks one running task: its cancel function, whether a
// cancellation was requested while it ran, and the stop channel of the
// worker generation that picked it up.
type handle struct {
	cancel          context.CancelFunc
	cancelRequested bool
	stop            <-chan struct{}
}

// Engine is the in-process task execution engine. It accepts units of
// work, schedules them by priority onto a bounded worker pool, and
// tracks every task for the process lifetime.
type Engine struct {
	cfg        taskpool.Config
	logger     *slog.Logger
	queue      *queue.Queue
	handlers   *task.Registry
	extensions *ext.Registry
	bo         backoff.Strategy
	chain      mw.Middleware
	limiter    *rate.Limiter

	// Option staging; consumed by New.
	userMws        []mw.Middleware
	userExts       []ext.Extension
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider

	// Task table. One mutex guards the map, the terminal id lists, the
	// running handles, and the lifetime counters, so status queries and
	// state transitions always observe a consistent record.
	tableMu     sync.Mutex
	tasks       map[string]*task.Task
	handles     map[string]*handle
	retryTimers map[string]*time.Timer
	completed   []id.TaskID
	failed      []id.TaskID
	submitted   int64
	done        int64
	failedN     int64
	cancelledN  int64

	// Worker pool lifecycle. A lazy restart during Stop's drain spawns
	// a fresh worker generation, so stopCh, baseCtx, and the WaitGroup
	// are all per-generation: Stop waits only on the generation it
	// captured.
	mu       sync.Mutex
	running  bool
	stopCh   chan struct{}
	baseCtx  context.Context
	baseStop context.CancelFunc
	wg       *sync.WaitGroup
}

// New creates an Engine with the given options.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		cfg:         taskpool.DefaultConfig(),
		logger:      slog.Default(),
		handlers:    task.NewRegistry(),
		tasks:       make(map[string]*task.Task),
		handles:     make(map[string]*handle),
		retryTimers: make(map[string]*time.Timer),
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.cfg.MaxWorkers < 1 {
		return nil, fmt.Errorf("taskpool: max workers must be positive, got %d", e.cfg.MaxWorkers)
	}
	if e.cfg.MaxQueueSize < 1 {
		return nil, fmt.Errorf("taskpool: max queue size must be positive, got %d", e.cfg.MaxQueueSize)
	}
	if e.cfg.DefaultMaxRetries < 0 {
		return nil, fmt.Errorf("taskpool: default max retries must be non-negative, got %d", e.cfg.DefaultMaxRetries)
	}
	if e.cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("taskpool: poll interval must be positive, got %s", e.cfg.PollInterval)
	}

	// Default backoff: re-queue failed tasks immediately.
	if e.bo == nil {
		e.bo = backoff.NewImmediate()
	}

	e.queue = queue.New(e.cfg.MaxQueueSize)

	// Register extensions: the observability counters first, then any
	// user-provided extensions in option order.
	e.extensions = ext.NewRegistry(e.logger)
	var obsExt *observability.MetricsExtension
	if e.meterProvider != nil {
		meter := e.meterProvider.Meter("github.com/pondworks/taskpool/observability")
		obsExt = observability.NewMetricsExtensionWithMeter(meter)
	} else {
		obsExt = observability.NewMetricsExtension()
	}
	e.extensions.Register(obsExt)
	for _, x := range e.userExts {
		e.extensions.Register(x)
	}
	e.userExts = nil

	// Build tracing middleware (custom provider or global).
	var tracingMw mw.Middleware
	if e.tracerProvider != nil {
		tracer := e.tracerProvider.Tracer("github.com/pondworks/taskpool")
		tracingMw = mw.TracingWithTracer(tracer)
	} else {
		tracingMw = mw.Tracing()
	}

	// Build metrics middleware (custom provider or global).
	var metricsMw mw.Middleware
	if e.meterProvider != nil {
		meter := e.meterProvider.Meter("github.com/pondworks/taskpool")
		metricsMw = mw.MetricsWithMeter(meter)
	} else {
		metricsMw = mw.Metrics()
	}

	// Default middleware stack: recover → tracing → metrics → logging → timeout,
	// with user middleware innermost (closest to the work).
	allMws := []mw.Middleware{
		mw.Recover(e.logger),
		tracingMw,
		metricsMw,
		mw.Logging(e.logger),
		mw.Timeout(e.logger),
	}
	allMws = append(allMws, e.userMws...)
	e.userMws = nil
	e.chain = mw.Chain(allMws...)

	return e, nil
}

// Register registers a typed task definition with the engine.
func Register[T any](eng *Engine, def *task.Definition[T]) {
	task.RegisterDefinition(eng.handlers, def)
}

// Submit accepts a unit of work for background execution and returns
// its task ID immediately. The first submission lazily starts the
// worker pool.
//
// Returns ErrQueueFull when the pending queue is at capacity; a
// rejected submission leaves no trace in the engine.
func (e *Engine) Submit(ctx context.Context, work task.Work, opts ...task.Option) (id.TaskID, error) {
	if work == nil {
		return id.Nil, taskpool.ErrNilWork
	}

	o := task.DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return e.submit(ctx, work, o)
}

// Enqueue creates a task from a registered definition and submits it
// with a typed payload. Definition options apply first, then opts.
func Enqueue[T any](ctx context.Context, eng *Engine, name string, payload T, opts ...task.Option) (id.TaskID, error) {
	handler, ok := eng.handlers.Get(name)
	if !ok {
		return id.Nil, fmt.Errorf("%w: %q", taskpool.ErrNoHandler, name)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return id.Nil, fmt.Errorf("marshal payload for task %q: %w", name, err)
	}

	o, _ := eng.handlers.Options(name)
	if o.Name == "" {
		o.Name = name
	}
	for _, opt := range opts {
		opt(&o)
	}

	work := task.Func(func(ctx context.Context) (any, error) {
		return handler(ctx, data)
	})
	return eng.submit(ctx, work, o)
}

// submit resolves option defaults, records the task, and pushes it onto
// the priority queue.
func (e *Engine) submit(ctx context.Context, work task.Work, o task.Options) (id.TaskID, error) {
	// Lazy start: the pool spins up on first submission.
	if err := e.Start(ctx); err != nil {
		return id.Nil, err
	}

	tid := id.NewTaskID()
	if o.Name == "" {
		o.Name = tid.String()
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = e.cfg.DefaultMaxRetries
	}
	if o.Timeout < 0 {
		o.Timeout = e.cfg.DefaultTimeout
	}

	now := time.Now().UTC()
	t := &task.Task{
		ID:         tid,
		Name:       o.Name,
		Work:       work,
		Priority:   o.Priority,
		Status:     task.StatusPending,
		CreatedAt:  now,
		MaxRetries: o.MaxRetries,
		Timeout:    o.Timeout,
	}

	e.tableMu.Lock()
	e.tasks[tid.String()] = t
	e.submitted++
	e.tableMu.Unlock()

	if err := e.queue.Push(t.Priority.Rank(), now, tid); err != nil {
		// Rejected submissions leave no trace.
		e.tableMu.Lock()
		delete(e.tasks, tid.String())
		e.submitted--
		e.tableMu.Unlock()
		return id.Nil, err
	}

	e.extensions.EmitTaskSubmitted(ctx, t.Snapshot())

	e.logger.Debug("task submitted",
		slog.String("task_id", tid.String()),
		slog.String("task_name", t.Name),
		slog.String("priority", t.Priority.String()),
	)
	return tid, nil
}

// Status returns an immutable snapshot of the task's observable state.
// Returns ErrTaskNotFound for unknown IDs. Querying a terminal task any
// number of times yields identical snapshots.
func (e *Engine) Status(tid id.TaskID) (task.Snapshot, error) {
	e.tableMu.Lock()
	defer e.tableMu.Unlock()

	t, ok := e.tasks[tid.String()]
	if !ok {
		return task.Snapshot{}, taskpool.ErrTaskNotFound
	}
	return t.Snapshot(), nil
}

// Cancel requests cancellation of a task. A pending task is marked
// cancelled immediately and never executes. For a running task the
// request is cooperative: its context is cancelled and the task ends
// cancelled only if its work returns an error afterwards. Returns false
// for unknown or already-terminal tasks.
func (e *Engine) Cancel(tid id.TaskID) bool {
	key := tid.String()

	e.tableMu.Lock()
	t, ok := e.tasks[key]
	if !ok {
		e.tableMu.Unlock()
		return false
	}

	switch t.Status {
	case task.StatusPending:
		now := time.Now().UTC()
		t.Status = task.StatusCancelled
		t.CompletedAt = &now
		e.cancelledN++
		if timer, waiting := e.retryTimers[key]; waiting {
			timer.Stop()
			delete(e.retryTimers, key)
		}
		snap := t.Snapshot()
		e.tableMu.Unlock()

		e.extensions.EmitTaskCancelled(context.Background(), snap)
		e.logger.Info("pending task cancelled", slog.String("task_id", key))
		return true

	case task.StatusRunning:
		h, active := e.handles[key]
		if !active {
			// Transition in flight; treat as uncancellable.
			e.tableMu.Unlock()
			return false
		}
		h.cancelRequested = true
		h.cancel()
		e.tableMu.Unlock()

		e.logger.Info("running task cancellation requested", slog.String("task_id", key))
		return true

	default:
		e.tableMu.Unlock()
		return false
	}
}

// Stats is a point-in-time summary of engine activity.
type Stats struct {
	QueueSize int   `json:"queue_size"`
	Running   int   `json:"running_tasks"`
	Submitted int64 `json:"submitted"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
	Cancelled int64 `json:"cancelled"`
	Workers   int   `json:"workers"`
	IsRunning bool  `json:"is_running"`
}

// Stats returns a point-in-time summary of engine activity. It never
// blocks on task execution.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	running := e.running
	e.mu.Unlock()

	e.tableMu.Lock()
	defer e.tableMu.Unlock()
	return Stats{
		QueueSize: e.queue.Len(),
		Running:   len(e.handles),
		Submitted: e.submitted,
		Completed: e.done,
		Failed:    e.failedN,
		Cancelled: e.cancelledN,
		Workers:   e.cfg.MaxWorkers,
		IsRunning: running,
	}
}

// CompletedTaskIDs returns the IDs of all tasks that completed
// successfully, in completion order.
func (e *Engine) CompletedTaskIDs() []id.TaskID {
	e.tableMu.Lock()
	defer e.tableMu.Unlock()
	out := make([]id.TaskID, len(e.completed))
	copy(out, e.completed)
	return out
}

// FailedTaskIDs returns the IDs of all tasks that failed terminally, in
// failure order.
func (e *Engine) FailedTaskIDs() []id.TaskID {
	e.tableMu.Lock()
	defer e.tableMu.Unlock()
	out := make([]id.TaskID, len(e.failed))
	copy(out, e.failed)
	return out
}

// Extensions returns the extension registry.
func (e *Engine) Extensions() *ext.Registry { return e.extensions }

// Registry returns the named task definition registry.
func (e *Engine) Registry() *task.Registry { return e.handlers }

// Start launches the worker loops. It is idempotent and returns
// immediately; Submit calls it lazily, so explicit starts are optional.
func (e *Engine) Start(_ context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running {
		return nil
	}
	e.running = true
	e.stopCh = make(chan struct{})
	e.baseCtx, e.baseStop = context.WithCancel(context.Background())
	e.wg = &sync.WaitGroup{}

	e.logger.Info("engine starting",
		slog.Int("workers", e.cfg.MaxWorkers),
		slog.Int("queue_capacity", e.cfg.MaxQueueSize),
	)

	for range e.cfg.MaxWorkers {
		e.wg.Add(1)
		go e.workerLoop(id.NewWorkerID(), e.stopCh, e.baseCtx, e.wg)
	}
	return nil
}

// Stop shuts the engine down. Running tasks are given up to
// ShutdownTimeout (or the context deadline, whichever fires first) to
// finish, then their contexts are cancelled; work that observes the
// cancellation ends in the cancelled state. Pending tasks stay pending.
func (e *Engine) Stop(ctx context.Context) error {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return nil
	}
	e.running = false
	stopCh := e.stopCh
	baseStop := e.baseStop
	wg := e.wg
	e.mu.Unlock()

	e.logger.Info("engine stopping")

	// Pending retry re-queues are abandoned; their tasks stay pending.
	e.tableMu.Lock()
	for key, timer := range e.retryTimers {
		timer.Stop()
		delete(e.retryTimers, key)
	}
	e.tableMu.Unlock()

	close(stopCh)

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	drain := e.cfg.ShutdownTimeout
	timer := time.NewTimer(drain)
	defer timer.Stop()

	select {
	case <-done:
		e.logger.Info("engine stopped gracefully")
	case <-timer.C:
		e.logger.Warn("engine shutdown timed out, cancelling running tasks")
		e.cancelRunning(stopCh)
		baseStop()
		wg.Wait()
	case <-ctx.Done():
		e.logger.Warn("engine shutdown context expired, cancelling running tasks")
		e.cancelRunning(stopCh)
		baseStop()
		wg.Wait()
	}

	baseStop()
	e.extensions.EmitShutdown(context.WithoutCancel(ctx))
	return nil
}

// cancelRunning requests cancellation of every task still running on
// the given worker generation. Tasks picked up by a newer generation
// (lazy restart during the drain) are left alone.
func (e *Engine) cancelRunning(stopCh <-chan struct{}) {
	e.tableMu.Lock()
	defer e.tableMu.Unlock()
	for key, h := range e.handles {
		if h.stop != stopCh {
			continue
		}
		e.logger.Warn("cancelling running task", slog.String("task_id", key))
		h.cancelRequested = true
		h.cancel()
	}
}
