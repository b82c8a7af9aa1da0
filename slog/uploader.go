package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/rangegrab"
)

// Ensure LoggingUploader implements rangegrab.Uploader.
var _ rangegrab.Uploader = (*LoggingUploader)(nil)

// LoggingUploader wraps an Uploader with logging.
type LoggingUploader struct {
	next   rangegrab.Uploader
	logger *slog.Logger
}

// NewLoggingUploader creates a new LoggingUploader.
func NewLoggingUploader(next rangegrab.Uploader, logger *slog.Logger) *LoggingUploader {
	return &LoggingUploader{next: next, logger: logger}
}

// Upload delegates to the wrapped uploader and logs the file count.
func (u *LoggingUploader) Upload(ctx context.Context, target rangegrab.UploadTarget, files []string) (err error) {
	defer func(begin time.Time) {
		u.logger.Info("upload",
			"url", target.URL,
			"prefix", target.Prefix,
			"files", len(files),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return u.next.Upload(ctx, target, files)
}
