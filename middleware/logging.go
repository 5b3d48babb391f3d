package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/pondworks/taskpool/task"
)

// Logging returns middleware that logs execution start and completion.
func Logging(logger *slog.Logger) Middleware {
	return func(ctx context.Context, t *task.Task, next Handler) (any, error) {
		logger.Info("task started",
			slog.String("task_name", t.Name),
			slog.String("task_id", t.ID.String()),
			slog.String("priority", t.Priority.String()),
		)

		start := time.Now()
		result, err := next(ctx)
		elapsed := time.Since(start)

		if err != nil {
			logger.Error("task failed",
				slog.String("task_name", t.Name),
				slog.String("task_id", t.ID.String()),
				slog.Duration("elapsed", elapsed),
				slog.String("error", err.Error()),
			)
		} else {
			logger.Info("task completed",
				slog.String("task_name", t.Name),
				slog.String("task_id", t.ID.String()),
				slog.Duration("elapsed", elapsed),
			)
		}

		return result, err
	}
}
