package prometheus

import (
	"context"
	"time"

	"github.com/fwojciec/rangegrab"
)

var (
	_ rangegrab.Fetcher  = (*Fetcher)(nil)
	_ rangegrab.Tracker  = (*Tracker)(nil)
	_ rangegrab.Uploader = (*Uploader)(nil)
)

// Fetcher counts fetch attempts by exit class.
type Fetcher struct {
	next    rangegrab.Fetcher
	exit    rangegrab.ExitPolicy
	metrics *Metrics
}

// NewFetcher wraps next.
func NewFetcher(next rangegrab.Fetcher, exit rangegrab.ExitPolicy, m *Metrics) *Fetcher {
	return &Fetcher{next: next, exit: exit, metrics: m}
}

// Fetch delegates to the wrapped fetcher. An error counts as generic.
func (f *Fetcher) Fetch(ctx context.Context, target string, paths rangegrab.FetchPaths) (int, error) {
	begin := time.Now()
	status, err := f.next.Fetch(ctx, target, paths)
	f.metrics.FetchLatency.Observe(time.Since(begin).Seconds())

	class := rangegrab.ClassGeneric
	if err == nil {
		class = f.exit.Classify(status)
	}
	f.metrics.Attempts.WithLabelValues(class.String()).Inc()
	return status, err
}

// Tracker counts batch outcomes and completed bytes.
type Tracker struct {
	next    rangegrab.Tracker
	metrics *Metrics
}

// NewTracker wraps next.
func NewTracker(next rangegrab.Tracker, m *Metrics) *Tracker {
	return &Tracker{next: next, metrics: m}
}

func (t *Tracker) RequestBatch(ctx context.Context) (string, error) {
	return t.next.RequestBatch(ctx)
}

func (t *Tracker) UploadTarget(ctx context.Context, batch string) (rangegrab.UploadTarget, error) {
	return t.next.UploadTarget(ctx, batch)
}

// Done delegates and, once accepted, counts the batch and its bytes.
func (t *Tracker) Done(ctx context.Context, report *rangegrab.Report) error {
	if err := t.next.Done(ctx, report); err != nil {
		return err
	}
	t.metrics.Batches.WithLabelValues(string(rangegrab.ReportDone)).Inc()
	t.metrics.Bytes.Add(float64(report.Bytes))
	return nil
}

// Fail delegates and counts the failed batch.
func (t *Tracker) Fail(ctx context.Context, report *rangegrab.Report) error {
	err := t.next.Fail(ctx, report)
	t.metrics.Batches.WithLabelValues(string(rangegrab.ReportFailed)).Inc()
	return err
}

// Uploader counts upload results.
type Uploader struct {
	next    rangegrab.Uploader
	metrics *Metrics
}

// NewUploader wraps next.
func NewUploader(next rangegrab.Uploader, m *Metrics) *Uploader {
	return &Uploader{next: next, metrics: m}
}

func (u *Uploader) Upload(ctx context.Context, target rangegrab.UploadTarget, files []string) error {
	err := u.next.Upload(ctx, target, files)
	u.metrics.Uploads.WithLabelValues(result(err)).Inc()
	return err
}
