package common

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNextBackoffWithJitterStaysWithinBounds(t *testing.T) {
	base := 100 * time.Millisecond
	for attempt := 0; attempt < 6; attempt++ {
		d := base << attempt
		for i := 0; i < 20; i++ {
			got := NextBackoffWithJitter(base, attempt)
			if got < d/2 || got >= d {
				t.Fatalf("attempt %d: %v outside [%v, %v)", attempt, got, d/2, d)
			}
		}
	}
}

func TestNextBackoffWithJitterCaps(t *testing.T) {
	limit := 30 * time.Minute
	for _, attempt := range []int{30, 62, 100} {
		got := NextBackoffWithJitter(time.Second, attempt)
		if got < limit/2 || got >= limit {
			t.Fatalf("attempt %d: %v outside capped [%v, %v)", attempt, got, limit/2, limit)
		}
	}
}

func TestNextBackoffWithJitterDefaults(t *testing.T) {
	// negative attempt counts as the first, zero base as 1s
	got := NextBackoffWithJitter(0, -3)
	if got < 500*time.Millisecond || got >= time.Second {
		t.Fatalf("got %v, want within [500ms, 1s)", got)
	}
}

func TestSleepCtxReturnsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := SleepCtx(ctx, time.Minute); !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
}

func TestSleepCtxZeroDuration(t *testing.T) {
	if err := SleepCtx(context.Background(), 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
