// Package throttle paces sequential provider calls with a fixed-interval
// token bucket so rate-limit policy lives outside business logic.
package throttle

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

type Throttle struct {
	limiter *rate.Limiter
}

// New returns a throttle that admits one call per interval with a burst of
// one, so the first call passes immediately and subsequent calls are spaced.
func New(interval time.Duration) *Throttle {
	if interval <= 0 {
		return &Throttle{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	return &Throttle{limiter: rate.NewLimiter(rate.Every(interval), 1)}
}

// Wait blocks until the next call is admitted or the context is done.
func (t *Throttle) Wait(ctx context.Context) error {
	return t.limiter.Wait(ctx)
}
