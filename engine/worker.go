package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pondworks/taskpool"
	"github.com/pondworks/taskpool/id"
	"github.com/pondworks/taskpool/queue"
	"github.com/pondworks/taskpool/task"
)

// workerLoop is run by each worker goroutine. It pops ready entries off
// the priority queue and executes them; when the queue is empty it does
// a bounded wait on the wake-up channel, the stop signal, and a poll
// tick, so shutdown latency is at most PollInterval.
func (e *Engine) workerLoop(wid id.WorkerID, stopCh <-chan struct{}, baseCtx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	for {
		select {
		case <-stopCh:
			return
		default:
		}

		entry, ok := e.queue.Pop()
		if !ok {
			select {
			case <-stopCh:
				return
			case <-e.queue.Wake():
			case <-time.After(e.cfg.PollInterval):
			}
			continue
		}

		if e.limiter != nil {
			if err := e.limiter.Wait(baseCtx); err != nil {
				// Shutting down; return the entry so the task stays
				// reachable on restart. If the queue is full the task
				// fails terminally rather than dangling in pending
				// with no queue entry.
				e.requeue(entry.TaskID, entry.Rank)
				return
			}
		}

		e.execute(wid, entry, stopCh)
	}
}

// execute transitions a dequeued task to running and runs it through
// the middleware chain. Entries whose task is no longer pending
// (cancelled while queued, or a stale retry reference) are skipped.
func (e *Engine) execute(wid id.WorkerID, entry queue.Entry, stopCh <-chan struct{}) {
	key := entry.TaskID.String()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	e.tableMu.Lock()
	t, ok := e.tasks[key]
	if !ok || t.Status != task.StatusPending {
		e.tableMu.Unlock()
		return
	}
	now := time.Now().UTC()
	t.Status = task.StatusRunning
	t.StartedAt = &now
	h := &handle{cancel: cancel, stop: stopCh}
	e.handles[key] = h
	snap := t.Snapshot()
	e.tableMu.Unlock()

	e.extensions.EmitTaskStarted(ctx, snap)
	e.logger.Debug("task picked up",
		slog.String("task_id", key),
		slog.String("worker_id", wid.String()),
	)

	terminal := func(ctx context.Context) (any, error) {
		return t.Work.Execute(ctx)
	}

	start := time.Now()
	result, err := e.chain(ctx, t, terminal)
	elapsed := time.Since(start)

	e.finish(t, h, result, err, elapsed)
}

// finish applies the execution outcome to the task record. Handle
// removal, the state transition, and counter updates happen in one
// critical section so status queries never observe a half-applied
// outcome.
func (e *Engine) finish(t *task.Task, h *handle, result any, execErr error, elapsed time.Duration) {
	key := t.ID.String()
	ctx := context.Background()

	e.tableMu.Lock()
	delete(e.handles, key)
	now := time.Now().UTC()

	switch {
	case execErr == nil:
		// A cancellation request that raced with success still counts as
		// success: the work ran to completion and its result is real.
		t.Status = task.StatusCompleted
		t.Result = result
		t.CompletedAt = &now
		e.completed = append(e.completed, t.ID)
		e.done++
		snap := t.Snapshot()
		e.tableMu.Unlock()

		e.extensions.EmitTaskCompleted(ctx, snap, elapsed)

	case h.cancelRequested:
		t.Status = task.StatusCancelled
		t.LastError = execErr.Error()
		t.CompletedAt = &now
		e.cancelledN++
		snap := t.Snapshot()
		e.tableMu.Unlock()

		e.extensions.EmitTaskCancelled(ctx, snap)
		e.logger.Info("running task cancelled",
			slog.String("task_id", key),
			slog.String("task_name", t.Name),
		)

	case t.RetryCount < t.MaxRetries:
		t.RetryCount++
		t.LastError = execErr.Error()
		t.Status = task.StatusPending
		t.StartedAt = nil
		attempt := t.RetryCount
		delay := e.bo.Delay(attempt)
		rank := t.Priority.Rank()
		tid := t.ID
		if delay > 0 {
			timer := time.AfterFunc(delay, func() {
				e.tableMu.Lock()
				delete(e.retryTimers, key)
				e.tableMu.Unlock()
				e.requeue(tid, rank)
			})
			e.retryTimers[key] = timer
		}
		snap := t.Snapshot()
		e.tableMu.Unlock()

		if delay <= 0 {
			e.requeue(tid, rank)
		}
		e.extensions.EmitTaskRetrying(ctx, snap, attempt, delay)
		e.logger.Info("task scheduled for retry",
			slog.String("task_id", key),
			slog.String("task_name", t.Name),
			slog.Int("attempt", attempt),
			slog.Int("max_retries", t.MaxRetries),
			slog.Duration("delay", delay),
		)

	default:
		t.Status = task.StatusFailed
		t.LastError = execErr.Error()
		t.CompletedAt = &now
		e.failed = append(e.failed, t.ID)
		e.failedN++
		snap := t.Snapshot()
		e.tableMu.Unlock()

		e.extensions.EmitTaskFailed(ctx, snap, fmt.Errorf("%w: %v", taskpool.ErrMaxRetriesExceeded, execErr))
		e.logger.Warn("task failed after exhausting retries",
			slog.String("task_id", key),
			slog.String("task_name", t.Name),
			slog.Int("retry_count", snap.RetryCount),
			slog.String("error", execErr.Error()),
		)
	}
}

// requeue returns a retrying task to the queue with a fresh enqueue
// time, so it rejoins the back of its priority level.
func (e *Engine) requeue(tid id.TaskID, rank int) {
	if err := e.queue.Push(rank, time.Now().UTC(), tid); err == nil {
		return
	}

	// Queue at capacity: the retry cannot be scheduled, so the task
	// fails terminally rather than dangling in pending forever.
	key := tid.String()
	e.tableMu.Lock()
	t, ok := e.tasks[key]
	if !ok || t.Status != task.StatusPending {
		e.tableMu.Unlock()
		return
	}
	now := time.Now().UTC()
	t.Status = task.StatusFailed
	t.LastError = taskpool.ErrQueueFull.Error()
	t.CompletedAt = &now
	e.failed = append(e.failed, t.ID)
	e.failedN++
	snap := t.Snapshot()
	e.tableMu.Unlock()

	e.extensions.EmitTaskFailed(context.Background(), snap, taskpool.ErrQueueFull)
	e.logger.Error("retry re-queue rejected, task failed",
		slog.String("task_id", key),
		slog.String("task_name", snap.Name),
	)
}
