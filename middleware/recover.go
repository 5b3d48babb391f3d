package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/pondworks/taskpool/task"
)

// Recover returns middleware that recovers from panics in the work.
// Panics are converted to errors and logged with a stack trace, so one
// misbehaving task never takes down a worker loop.
func Recover(logger *slog.Logger) Middleware {
	return func(ctx context.Context, t *task.Task, next Handler) (result any, retErr error) {
		defer func() {
			if r := recover(); r != nil {
				stack := string(debug.Stack())
				logger.Error("task work panicked",
					slog.String("task_name", t.Name),
					slog.String("task_id", t.ID.String()),
					slog.Any("panic", r),
					slog.String("stack", stack),
				)
				result = nil
				retErr = fmt.Errorf("panic in task %s: %v", t.Name, r)
			}
		}()
		return next(ctx)
	}
}
