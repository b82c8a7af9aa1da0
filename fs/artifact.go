// Package fs provides file-based storage for archives, exclusion lists,
// and the small state files the queueing tools keep between runs.
package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/rangegrab"
)

// Ensure ArtifactStore implements rangegrab.ArtifactStore at compile time.
var _ rangegrab.ArtifactStore = (*ArtifactStore)(nil)

// ArtifactStore moves finished archives out of per-batch work directories
// into a permanent directory, where they wait for upload.
type ArtifactStore struct {
	dir string
}

// NewArtifactStore creates a new ArtifactStore rooted at dir.
func NewArtifactStore(dir string) *ArtifactStore {
	return &ArtifactStore{dir: dir}
}

// Dir returns the directory artifacts are stored in.
func (s *ArtifactStore) Dir() string { return s.dir }

// Store moves the file at path into the store, keeping its base name.
func (s *ArtifactStore) Store(ctx context.Context, path string) (rangegrab.Artifact, error) {
	return s.StoreAs(ctx, path, filepath.Base(path))
}

// StoreAs moves the file at path into the store under name.
func (s *ArtifactStore) StoreAs(ctx context.Context, path, name string) (rangegrab.Artifact, error) {
	if err := ctx.Err(); err != nil {
		return rangegrab.Artifact{}, err
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return rangegrab.Artifact{}, rangegrab.Errorf(rangegrab.ENOTFOUND, "artifact %s does not exist", path)
	} else if err != nil {
		return rangegrab.Artifact{}, err
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return rangegrab.Artifact{}, err
	}

	dst := filepath.Join(s.dir, name)
	if err := move(path, dst); err != nil {
		return rangegrab.Artifact{}, fmt.Errorf("store %s: %w", path, err)
	}

	sum, size, err := Checksum(dst)
	if err != nil {
		return rangegrab.Artifact{}, err
	}
	return rangegrab.Artifact{Path: dst, Bytes: size, Checksum: sum}, nil
}

// Remove deletes a stored artifact.
func (s *ArtifactStore) Remove(_ context.Context, path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Checksum returns the xxhash64 of the file at path as 16 hex digits, along
// with the number of bytes read.
func Checksum(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	h := xxhash.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return "", 0, err
	}
	return fmt.Sprintf("%016x", h.Sum64()), n, nil
}

// move renames src to dst, falling back to copy and delete when the two
// are on different filesystems.
func move(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp := dst + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(tmp)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, dst); err != nil {
		return err
	}
	return os.Remove(src)
}
