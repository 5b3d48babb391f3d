package task

import "context"

// Work is the unit of deferred execution captured at submission time.
//
// Implementations must be retry-safe: the engine may invoke Execute more
// than once for the same logical submission. Work that wants to be
// promptly cancellable must observe ctx.Done() at its own suspension
// points; cancellation is cooperative, never pre-emptive.
type Work interface {
	// Execute runs the work and returns its result, if any.
	Execute(ctx context.Context) (any, error)
}

// Func adapts a plain function to the Work interface.
type Func func(ctx context.Context) (any, error)

// Execute implements Work.
func (f Func) Execute(ctx context.Context) (any, error) {
	return f(ctx)
}
