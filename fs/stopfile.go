package fs

import (
	"context"
	"os"
	"time"
)

// DefaultStopInterval is how often a StopFile is polled.
const DefaultStopInterval = 2 * time.Second

// StopFile is an operator-created file that asks a long-running process to
// stop. Only a file modified after Since counts, so a stale file from an
// earlier run is ignored.
type StopFile struct {
	Path     string
	Since    time.Time
	Interval time.Duration
}

// Requested reports whether the stop file exists and is newer than Since.
func (f StopFile) Requested() bool {
	info, err := os.Stat(f.Path)
	if err != nil {
		return false
	}
	return info.ModTime().After(f.Since)
}

// Watch polls the stop file until it is requested, then calls stop. It
// returns when ctx is done or after stop was called.
func (f StopFile) Watch(ctx context.Context, stop func()) error {
	interval := f.Interval
	if interval <= 0 {
		interval = DefaultStopInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if f.Requested() {
			stop()
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
