// Package backoff computes the delay between a failed task attempt and
// its retry. Strategies hold no mutable state, so a single value may be
// shared across workers.
package backoff

import (
	"math/rand/v2"
	"time"
)

// Strategy computes the delay before a retry attempt. Attempts are
// 1-indexed: attempt 1 is the first retry after the initial failure.
type Strategy interface {
	Delay(attempt int) time.Duration
}

// Func adapts an ordinary function to a Strategy.
type Func func(attempt int) time.Duration

// Delay calls f.
func (f Func) Delay(attempt int) time.Duration { return f(attempt) }

// NewImmediate returns a strategy that re-queues failed tasks with no
// delay. Under sustained failure this can monopolize a worker in a
// tight retry loop; callers that need pacing should pick one of the
// delaying strategies instead.
func NewImmediate() Strategy {
	return Func(func(int) time.Duration { return 0 })
}

// NewConstant returns a strategy with the same delay on every attempt.
func NewConstant(interval time.Duration) Strategy {
	return Func(func(int) time.Duration { return interval })
}

// NewLinear returns a strategy whose delay grows by step per attempt:
// step, 2*step, 3*step, and so on, bounded by maxDelay.
func NewLinear(step, maxDelay time.Duration) Strategy {
	return Func(func(attempt int) time.Duration {
		return bound(step*time.Duration(attempt), maxDelay)
	})
}

// NewExponential returns a strategy whose delay doubles on every
// attempt, starting from initial and bounded by maxDelay.
func NewExponential(initial, maxDelay time.Duration) Strategy {
	return Func(func(attempt int) time.Duration {
		d := initial
		for i := 1; i < attempt; i++ {
			d *= 2
			// Stop doubling once past the bound (or on overflow).
			if d < 0 || (maxDelay > 0 && d >= maxDelay) {
				return bound(d, maxDelay)
			}
		}
		return bound(d, maxDelay)
	})
}

// WithJitter wraps a strategy with full jitter: each delay becomes a
// uniformly random duration in [0, base.Delay(attempt)). Spreading the
// delays out keeps simultaneous failures from retrying in lockstep.
func WithJitter(base Strategy) Strategy {
	return Func(func(attempt int) time.Duration {
		d := base.Delay(attempt)
		if d <= 0 {
			return 0
		}
		return rand.N(d) //nolint:gosec // jitter intentionally uses non-crypto rand
	})
}

// NewExponentialWithJitter composes WithJitter over NewExponential.
func NewExponentialWithJitter(initial, maxDelay time.Duration) Strategy {
	return WithJitter(NewExponential(initial, maxDelay))
}

// DefaultStrategy returns the recommended backoff for retry pacing:
// exponential with full jitter, 1s initial and 1m cap.
//
// Note the engine defaults to NewImmediate instead, preserving the
// fast-retry behavior some producers depend on; pass this strategy via
// the engine's WithBackoff option to opt into paced retries.
func DefaultStrategy() Strategy {
	return NewExponentialWithJitter(1*time.Second, 1*time.Minute)
}

// bound clamps d to maxDelay when a positive bound is set. A negative d
// means the doubling overflowed, which also resolves to the bound.
func bound(d, maxDelay time.Duration) time.Duration {
	if maxDelay > 0 && (d < 0 || d > maxDelay) {
		return maxDelay
	}
	if d < 0 {
		return 0
	}
	return d
}
