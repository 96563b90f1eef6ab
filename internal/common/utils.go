package common

import (
	"context"
	"math/rand"
	"time"
)

const Version = "1.0.0"

// NextBackoffWithJitter doubles base per attempt, capped at 30m, and
// randomizes within [d/2, d) to avoid synchronized retries.
func NextBackoffWithJitter(base time.Duration, attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if base <= 0 {
		base = time.Second
	}

	d := base << attempt

	limit := 30 * time.Minute
	if d > limit || d <= 0 {
		d = limit
	}
	if d < 2 {
		return d
	}

	jitter := time.Duration(rand.Int63n(int64(d / 2)))

	return d/2 + jitter
}

func SleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer func() {
		if !t.Stop() {
			select {
			case <-t.C:
			default:
			}
		}
	}()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
