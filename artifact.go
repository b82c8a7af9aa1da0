package rangegrab

import "context"

// Artifact is an archive file committed to permanent local storage.
type Artifact struct {
	Path     string
	Bytes    int64
	Checksum string
}

// ArtifactStore keeps finished archives until they are uploaded.
type ArtifactStore interface {
	// Store moves the file at path into the store.
	// Returns ENOTFOUND if the file does not exist.
	Store(ctx context.Context, path string) (Artifact, error)

	// Remove deletes a stored artifact. Removing a missing artifact is not an error.
	Remove(ctx context.Context, path string) error
}
