package retry

import (
	"context"
	"math/rand/v2"
	"time"
)

const DefaultAttempts = 3

// Backoff returns a duration for attempt n (0-indexed) with jitter.
func Backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * time.Second
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	jitter := time.Duration(rand.Int64N(int64(base) / 2))
	return base + jitter
}

// Do runs op up to attempts times, sleeping Backoff between failures.
// It returns nil on the first success, the last error once attempts are
// exhausted, or the context error if the caller gives up mid-wait.
func Do(ctx context.Context, attempts int, op func() error) error {
	if attempts <= 0 {
		attempts = DefaultAttempts
	}

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if err = op(); err == nil {
			return nil
		}
		if attempt == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(Backoff(attempt)):
		}
	}
	return err
}
