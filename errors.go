package taskpool

import "errors"

var (
	// Backpressure errors.
	ErrQueueFull = errors.New("taskpool: queue full")

	// Not found errors.
	ErrTaskNotFound = errors.New("taskpool: task not found")

	// State errors.
	ErrMaxRetriesExceeded = errors.New("taskpool: max retries exceeded")

	// Submission errors.
	ErrNilWork   = errors.New("taskpool: nil work")
	ErrNoHandler = errors.New("taskpool: no handler registered")
)
