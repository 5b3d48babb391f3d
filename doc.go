// Package taskpool provides an in-process, priority-based background task
// execution engine for Go. Producers submit units of work for out-of-band
// execution by a bounded worker pool; completion state is polled later via
// status and stats queries.
//
// Taskpool is a library, not a service. There is no wire protocol and no
// durable store: tasks live in process memory for the lifetime of the
// engine, and nothing survives a restart.
//
// # Quick Start
//
//	eng, err := engine.New(
//	    engine.WithMaxWorkers(5),
//	    engine.WithMaxQueueSize(1000),
//	)
//	taskID, err := eng.Submit(ctx, task.Func(func(ctx context.Context) (any, error) {
//	    return recomputeEmbeddings(ctx, memoID)
//	}), task.WithPriority(task.PriorityHigh))
//
// # Ordering contract
//
// Priority is queue-selection bias, not preemption. Within one priority
// level dequeue order is FIFO; across levels a higher-priority task is
// preferentially selected when multiple entries are ready. A long-running
// lower-priority task that has already been dispatched is never
// interrupted for a newly arrived higher-priority one.
//
// # Cancellation contract
//
// Cancellation is cooperative. Running work receives a context that is
// cancelled on request; the work must observe ctx.Done() at its own
// suspension points to stop promptly. Work that never checks its context
// cannot be cancelled before it returns.
//
// All entity IDs use TypeID — type-prefixed, K-sortable, UUIDv7-based
// identifiers.
package taskpool
