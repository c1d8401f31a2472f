package httputil

import (
	"context"
	"errors"
	"time"
)

// RetryableError marks a failure as transient so that a [Backoff] tries again.
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Backoff retries transient failures with doubling delays.
type Backoff struct {
	Attempts int
	Delay    time.Duration
	// MaxDelay caps a single wait; zero means uncapped.
	MaxDelay time.Duration
}

// Do runs fn until it succeeds, returns an error not wrapped in
// [RetryableError], or the attempts are used up. The last error is returned.
func (b Backoff) Do(ctx context.Context, fn func() error) error {
	delay := b.Delay
	var err error
	for attempt := 1; ; attempt++ {
		if err = fn(); err == nil || !isRetryable(err) || attempt >= b.Attempts {
			return err
		}
		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
		if delay *= 2; b.MaxDelay > 0 && delay > b.MaxDelay {
			delay = b.MaxDelay
		}
	}
}

// Retry runs fn with a [Backoff] of the given attempts and initial delay.
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	return Backoff{Attempts: attempts, Delay: delay}.Do(ctx, fn)
}

// RetryWithBackoff retries three times starting at one second.
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	return Retry(ctx, 3, time.Second, fn)
}

func isRetryable(err error) bool {
	return errors.As(err, new(*RetryableError))
}
