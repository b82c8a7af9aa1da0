package mock

import (
	"context"

	"github.com/fwojciec/rangegrab"
)

var _ rangegrab.Fetcher = (*Fetcher)(nil)

// Fetcher is a mock implementation of rangegrab.Fetcher.
type Fetcher struct {
	FetchFn func(ctx context.Context, target string, paths rangegrab.FetchPaths) (int, error)
}

func (f *Fetcher) Fetch(ctx context.Context, target string, paths rangegrab.FetchPaths) (int, error) {
	return f.FetchFn(ctx, target, paths)
}

var _ rangegrab.AttemptLimiter = (*AttemptLimiter)(nil)

// AttemptLimiter is a mock implementation of rangegrab.AttemptLimiter.
type AttemptLimiter struct {
	WaitFn func(ctx context.Context) error
}

func (l *AttemptLimiter) Wait(ctx context.Context) error {
	return l.WaitFn(ctx)
}
