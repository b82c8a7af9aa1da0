package crawl

import (
	"context"

	"github.com/fwojciec/rangegrab"
	"golang.org/x/time/rate"
)

var _ rangegrab.AttemptLimiter = (*AttemptLimiter)(nil)

// AttemptLimiter caps how often fetch attempts start, shared by every
// machine a process runs. A burst of 1 means no bursting.
type AttemptLimiter struct {
	limiter *rate.Limiter
}

// NewAttemptLimiter returns a limiter admitting rps attempts per second.
// A non-positive rps disables limiting.
func NewAttemptLimiter(rps float64) *AttemptLimiter {
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	return &AttemptLimiter{limiter: rate.NewLimiter(limit, 1)}
}

// Wait blocks until an attempt may start or ctx is done.
func (l *AttemptLimiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}
