package rangegrab

import "context"

// FetchPaths are the files the fetch tool writes for one target.
type FetchPaths struct {
	// Log receives the tool's own log output.
	Log string
	// Archive is the archive artifact path, including its extension.
	Archive string
}

// Fetcher retrieves one target with the external fetch tool.
type Fetcher interface {
	// Fetch runs the tool for target and returns its exit status.
	// A non-nil error means the tool could not be run at all; the exit
	// status is then meaningless. Timeouts inside the fetch are the tool's
	// responsibility.
	Fetch(ctx context.Context, target string, paths FetchPaths) (status int, err error)
}

// AttemptLimiter caps the rate of fetch attempts.
type AttemptLimiter interface {
	// Wait blocks until another attempt is allowed.
	// Returns an error if the context is canceled.
	Wait(ctx context.Context) error
}
