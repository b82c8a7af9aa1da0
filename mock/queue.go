package mock

import (
	"context"
	"io"
)

// Queue is a mock of the admin side of an item queue.
type Queue struct {
	EnqueueFn    func(ctx context.Context, r io.Reader) (int, error)
	DoneItemsFn  func(ctx context.Context, emit func(string) error) error
	LogEntriesFn func(ctx context.Context, scrubUser bool, emit func([]byte) error) error
}

func (q *Queue) Enqueue(ctx context.Context, r io.Reader) (int, error) {
	return q.EnqueueFn(ctx, r)
}

func (q *Queue) DoneItems(ctx context.Context, emit func(string) error) error {
	return q.DoneItemsFn(ctx, emit)
}

func (q *Queue) LogEntries(ctx context.Context, scrubUser bool, emit func([]byte) error) error {
	return q.LogEntriesFn(ctx, scrubUser, emit)
}
