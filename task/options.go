package task

import "time"

// Options configures per-task behavior such as name, priority, retry
// budget, and timeout.
type Options struct {
	// Name is a human-readable label for the task. If empty, the engine
	// generates one from the submission.
	Name string

	// Priority determines queue-selection order. Higher levels are
	// dequeued first.
	Priority Priority

	// MaxRetries is the number of re-executions allowed after the first
	// failed attempt. Negative means "use the engine default".
	MaxRetries int

	// Timeout is the maximum duration one execution attempt may run.
	// Zero means no deadline; negative means "use the engine default".
	Timeout time.Duration
}

// DefaultOptions returns Options that defer retry budget and timeout to
// the engine configuration.
func DefaultOptions() Options {
	return Options{
		Priority:   PriorityNormal,
		MaxRetries: -1,
		Timeout:    -1,
	}
}

// Option is a functional option for configuring a task submission.
type Option func(*Options)

// WithName sets a human-readable name for the task.
func WithName(name string) Option {
	return func(o *Options) {
		o.Name = name
	}
}

// WithPriority sets the task priority.
func WithPriority(p Priority) Option {
	return func(o *Options) {
		o.Priority = p
	}
}

// WithMaxRetries sets the number of re-executions allowed after the
// first failed attempt.
func WithMaxRetries(n int) Option {
	return func(o *Options) {
		o.MaxRetries = n
	}
}

// WithTimeout sets the maximum duration for one execution attempt.
// Exceeding it counts as an execution failure, subject to the retry
// policy, not as a cancellation.
func WithTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.Timeout = d
	}
}
