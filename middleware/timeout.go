package middleware

import (
	"context"
	"log/slog"

	"github.com/pondworks/taskpool/task"
)

// Timeout returns middleware that enforces a per-task execution deadline.
// If the task has a positive Timeout, a context.WithTimeout wraps the
// work. Deadline expiry surfaces as an ordinary execution failure
// (context.DeadlineExceeded) and flows into the retry policy; it is not
// a cancellation.
func Timeout(logger *slog.Logger) Middleware {
	return func(ctx context.Context, t *task.Task, next Handler) (any, error) {
		if t.Timeout > 0 {
			logger.Debug("task timeout set",
				slog.String("task_id", t.ID.String()),
				slog.Duration("timeout", t.Timeout),
			)
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, t.Timeout)
			defer cancel()
		}
		return next(ctx)
	}
}
