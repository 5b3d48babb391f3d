package taskpool

import "time"

// Config holds configuration for the Engine.
type Config struct {
	// MaxWorkers is the number of concurrent worker loops.
	MaxWorkers int

	// MaxQueueSize bounds the pending queue. Submissions beyond this
	// depth are rejected with ErrQueueFull.
	MaxQueueSize int

	// DefaultMaxRetries applies to tasks submitted without an explicit
	// retry budget.
	DefaultMaxRetries int

	// DefaultTimeout applies to tasks submitted without an explicit
	// timeout. Zero means no deadline.
	DefaultTimeout time.Duration

	// PollInterval bounds how long an idle worker waits before
	// re-checking the running flag. Shutdown latency is at most this.
	PollInterval time.Duration

	// ShutdownTimeout is the maximum time Stop waits for running tasks
	// to drain before cancelling them.
	ShutdownTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxWorkers:        5,
		MaxQueueSize:      1000,
		DefaultMaxRetries: 3,
		DefaultTimeout:    0,
		PollInterval:      time.Second,
		ShutdownTimeout:   30 * time.Second,
	}
}
