package mock

import (
	"context"

	"github.com/fwojciec/rangegrab"
)

var _ rangegrab.Tracker = (*Tracker)(nil)

// Tracker is a mock implementation of rangegrab.Tracker.
type Tracker struct {
	RequestBatchFn func(ctx context.Context) (string, error)
	UploadTargetFn func(ctx context.Context, batch string) (rangegrab.UploadTarget, error)
	DoneFn         func(ctx context.Context, report *rangegrab.Report) error
	FailFn         func(ctx context.Context, report *rangegrab.Report) error
}

func (t *Tracker) RequestBatch(ctx context.Context) (string, error) {
	return t.RequestBatchFn(ctx)
}

func (t *Tracker) UploadTarget(ctx context.Context, batch string) (rangegrab.UploadTarget, error) {
	return t.UploadTargetFn(ctx, batch)
}

func (t *Tracker) Done(ctx context.Context, report *rangegrab.Report) error {
	return t.DoneFn(ctx, report)
}

func (t *Tracker) Fail(ctx context.Context, report *rangegrab.Report) error {
	return t.FailFn(ctx, report)
}

var _ rangegrab.Uploader = (*Uploader)(nil)

// Uploader is a mock implementation of rangegrab.Uploader.
type Uploader struct {
	UploadFn func(ctx context.Context, target rangegrab.UploadTarget, files []string) error
}

func (u *Uploader) Upload(ctx context.Context, target rangegrab.UploadTarget, files []string) error {
	return u.UploadFn(ctx, target, files)
}
