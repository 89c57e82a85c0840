package retry

import (
	"context"
	"time"
)

// BackoffStrategy picks the pause that follows a failed attempt.
// Attempts are numbered from 1.
type BackoffStrategy interface {
	NextDelay(attempt int) time.Duration
}

// BackoffFunc adapts a plain function to BackoffStrategy
type BackoffFunc func(attempt int) time.Duration

// NextDelay calls f
func (f BackoffFunc) NextDelay(attempt int) time.Duration { return f(attempt) }

// ConstantBackoff pauses for the same Delay after every failure
type ConstantBackoff struct {
	Delay time.Duration
}

// NextDelay returns Delay for any real attempt and zero before the first
func (cb *ConstantBackoff) NextDelay(attempt int) time.Duration {
	if attempt < 1 {
		return 0
	}
	return cb.Delay
}

// Wait blocks for d. It returns early with the context error when ctx ends
// first; a non-positive d only reports the context state.
func Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	select {
	case <-ctx.Done():
		t.Stop()
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
