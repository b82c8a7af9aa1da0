package fs_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/fwojciec/rangegrab"
	"github.com/fwojciec/rangegrab/fs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Story: Artifact Storage
// Finished archives leave the work directory for the data directory

func TestArtifactStore_StoreMovesFileIntoDataDir(t *testing.T) {
	t.Parallel()

	// Given an archive in a work directory
	work := t.TempDir()
	src := filepath.Join(work, "puush-A-20240102-030405.warc.gz")
	require.NoError(t, os.WriteFile(src, []byte("warc"), 0644))
	store := fs.NewArtifactStore(filepath.Join(t.TempDir(), "data"))

	// When I store it
	art, err := store.Store(context.Background(), src)

	// Then it lives in the data directory under the same name
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(store.Dir(), "puush-A-20240102-030405.warc.gz"), art.Path)
	content, err := os.ReadFile(art.Path)
	require.NoError(t, err)
	assert.Equal(t, "warc", string(content))

	// And the work copy is gone
	_, err = os.Stat(src)
	assert.True(t, os.IsNotExist(err))

	// And size and checksum are reported
	assert.Equal(t, int64(4), art.Bytes)
	assert.Len(t, art.Checksum, 16)
}

func TestArtifactStore_StoreAsRenames(t *testing.T) {
	t.Parallel()

	src := filepath.Join(t.TempDir(), "A.log")
	require.NoError(t, os.WriteFile(src, []byte("log"), 0644))
	store := fs.NewArtifactStore(t.TempDir())

	art, err := store.StoreAs(context.Background(), src, "wget-1700000000-A.log")

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(store.Dir(), "wget-1700000000-A.log"), art.Path)
}

func TestArtifactStore_StoreMissingFile(t *testing.T) {
	t.Parallel()

	store := fs.NewArtifactStore(t.TempDir())

	_, err := store.Store(context.Background(), filepath.Join(t.TempDir(), "missing.warc.gz"))

	assert.Equal(t, rangegrab.ENOTFOUND, rangegrab.ErrorCode(err))
}

func TestArtifactStore_Remove(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "a.warc.gz")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	store := fs.NewArtifactStore(dir)

	require.NoError(t, store.Remove(context.Background(), path))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// Removing again is not an error
	assert.NoError(t, store.Remove(context.Background(), path))
}

func TestChecksum(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a := filepath.Join(dir, "a")
	b := filepath.Join(dir, "b")
	c := filepath.Join(dir, "c")
	require.NoError(t, os.WriteFile(a, []byte("same"), 0644))
	require.NoError(t, os.WriteFile(b, []byte("same"), 0644))
	require.NoError(t, os.WriteFile(c, []byte("different"), 0644))

	sumA, n, err := fs.Checksum(a)
	require.NoError(t, err)
	sumB, _, err := fs.Checksum(b)
	require.NoError(t, err)
	sumC, _, err := fs.Checksum(c)
	require.NoError(t, err)

	assert.Equal(t, int64(4), n)
	assert.Equal(t, sumA, sumB)
	assert.NotEqual(t, sumA, sumC)
}
