package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/rangegrab"
)

// Ensure LoggingTracker implements rangegrab.Tracker.
var _ rangegrab.Tracker = (*LoggingTracker)(nil)

// LoggingTracker wraps a Tracker with logging of every exchange.
type LoggingTracker struct {
	next   rangegrab.Tracker
	logger *slog.Logger
}

// NewLoggingTracker creates a new LoggingTracker.
func NewLoggingTracker(next rangegrab.Tracker, logger *slog.Logger) *LoggingTracker {
	return &LoggingTracker{next: next, logger: logger}
}

// RequestBatch delegates to the wrapped tracker and logs the batch name.
func (t *LoggingTracker) RequestBatch(ctx context.Context) (name string, err error) {
	defer func(begin time.Time) {
		if rangegrab.ErrorCode(err) == rangegrab.ENOTFOUND {
			t.logger.Info("no work", "duration", time.Since(begin))
			return
		}
		t.logger.Info("request batch",
			"batch", name,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return t.next.RequestBatch(ctx)
}

// UploadTarget delegates to the wrapped tracker.
func (t *LoggingTracker) UploadTarget(ctx context.Context, batch string) (target rangegrab.UploadTarget, err error) {
	defer func(begin time.Time) {
		t.logger.Debug("upload target",
			"batch", batch,
			"url", target.URL,
			"prefix", target.Prefix,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return t.next.UploadTarget(ctx, batch)
}

// Done delegates to the wrapped tracker and logs the report summary.
func (t *LoggingTracker) Done(ctx context.Context, report *rangegrab.Report) (err error) {
	defer func(begin time.Time) {
		t.logger.Info("batch done",
			"batch", report.Batch,
			"items", len(report.Items),
			"bytes", report.Bytes,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return t.next.Done(ctx, report)
}

// Fail delegates to the wrapped tracker and logs the failure cause.
func (t *LoggingTracker) Fail(ctx context.Context, report *rangegrab.Report) (err error) {
	defer func(begin time.Time) {
		t.logger.Warn("batch failed",
			"batch", report.Batch,
			"cause", report.Error,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return t.next.Fail(ctx, report)
}
