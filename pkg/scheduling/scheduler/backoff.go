package scheduler

import (
	"time"
)

// Backoff retries a failing action with exponential delay.
type Backoff struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration

	// OnFailure, when set, receives the last error once all attempts failed.
	OnFailure func(err error)
}

// Action adapts fn into a body that can be scheduled. The retries run on
// the worker that picked the task up.
func (b Backoff) Action(fn func() error) func() {
	return func() {
		if err := b.Run(fn); err != nil && b.OnFailure != nil {
			b.OnFailure(err)
		}
	}
}

// Run calls fn until it succeeds or MaxRetries retries have failed, and
// returns the last error.
func (b Backoff) Run(fn func() error) error {
	var lastErr error
	delay := b.InitialDelay

	for attempt := 0; attempt <= b.MaxRetries; attempt++ {
		if attempt > 0 && delay > 0 {
			time.Sleep(delay)
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		// Double delay for next attempt
		delay *= 2
		if b.MaxDelay > 0 && delay > b.MaxDelay {
			delay = b.MaxDelay
		}
	}

	return lastErr
}
