package mock

import (
	"context"

	"github.com/fwojciec/rangegrab"
)

var _ rangegrab.ArtifactStore = (*ArtifactStore)(nil)

// ArtifactStore is a mock implementation of rangegrab.ArtifactStore.
type ArtifactStore struct {
	StoreFn  func(ctx context.Context, path string) (rangegrab.Artifact, error)
	RemoveFn func(ctx context.Context, path string) error
}

func (s *ArtifactStore) Store(ctx context.Context, path string) (rangegrab.Artifact, error) {
	return s.StoreFn(ctx, path)
}

func (s *ArtifactStore) Remove(ctx context.Context, path string) error {
	return s.RemoveFn(ctx, path)
}
