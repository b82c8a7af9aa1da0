// Package slog provides logging decorators for rangegrab services.
package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/rangegrab"
)

// Ensure LoggingFetcher implements rangegrab.Fetcher.
var _ rangegrab.Fetcher = (*LoggingFetcher)(nil)

// LoggingFetcher wraps a Fetcher with per-attempt logging.
type LoggingFetcher struct {
	next   rangegrab.Fetcher
	logger *slog.Logger
	exit   rangegrab.ExitPolicy
}

// NewLoggingFetcher creates a new LoggingFetcher. The exit policy only
// labels the logged status; classification stays with the caller.
func NewLoggingFetcher(next rangegrab.Fetcher, exit rangegrab.ExitPolicy, logger *slog.Logger) *LoggingFetcher {
	return &LoggingFetcher{next: next, exit: exit, logger: logger}
}

// Fetch delegates to the wrapped fetcher and logs the attempt.
func (f *LoggingFetcher) Fetch(ctx context.Context, target string, paths rangegrab.FetchPaths) (status int, err error) {
	defer func(begin time.Time) {
		level := slog.LevelInfo
		if err != nil {
			level = slog.LevelWarn
		}
		f.logger.Log(ctx, level, "fetch",
			"target", target,
			"status", status,
			"class", f.exit.Classify(status).String(),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return f.next.Fetch(ctx, target, paths)
}
