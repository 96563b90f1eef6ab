// Package retry is a parameterized bounded-retry helper: attempts, a backoff
// schedule and the operation itself, with no I/O of its own.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"medrec/internal/common"
)

// BackoffFunc returns the delay to wait after the given zero-based attempt.
type BackoffFunc func(attempt int) time.Duration

// Exponential doubles the base delay per attempt.
func Exponential(base time.Duration) BackoffFunc {
	return func(attempt int) time.Duration {
		return base << attempt
	}
}

// ExponentialJitter doubles the base delay per attempt and randomizes each
// wait so concurrent publishers do not retry in lockstep.
func ExponentialJitter(base time.Duration) BackoffFunc {
	return func(attempt int) time.Duration {
		return common.NextBackoffWithJitter(base, attempt)
	}
}

// Constant waits the same delay between attempts.
func Constant(d time.Duration) BackoffFunc {
	return func(int) time.Duration {
		return d
	}
}

// Do runs op up to attempts times, waiting backoff(attempt) between tries.
// It stops early when ctx is cancelled or op returns a Permanent error.
func Do(ctx context.Context, attempts int, backoff BackoffFunc, op func(ctx context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}

		var perm *PermanentError
		if errors.As(lastErr, &perm) {
			return perm.Err
		}

		if attempt == attempts-1 {
			break
		}

		if err := common.SleepCtx(ctx, backoff(attempt)); err != nil {
			return err
		}
	}

	return fmt.Errorf("after %d attempts: %w", attempts, lastErr)
}

// PermanentError wraps an error that must not be retried.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent marks err as non-retryable for Do.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}
