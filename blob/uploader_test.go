package blob_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/fwojciec/rangegrab"
	rangegrabblob "github.com/fwojciec/rangegrab/blob"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/memblob"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestUploader_Upload(t *testing.T) {
	t.Parallel()

	t.Run("writes every file under the target prefix", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		bucket, err := blob.OpenBucket(ctx, "mem://")
		require.NoError(t, err)
		u := rangegrabblob.NewUploader("mem://", rangegrabblob.WithBucket("mem://", bucket))
		defer u.Close()

		files := []string{
			writeTemp(t, "puush-A-1.warc.gz", "a"),
			writeTemp(t, "puush-C-1.warc.gz", "c"),
			writeTemp(t, "puush-D-1.warc.gz", "d"),
		}

		err = u.Upload(ctx, rangegrab.UploadTarget{Prefix: "puush/tester/"}, files)

		require.NoError(t, err)
		for name, want := range map[string]string{"A": "a", "C": "c", "D": "d"} {
			data, err := bucket.ReadAll(ctx, "puush/tester/puush-"+name+"-1.warc.gz")
			require.NoError(t, err)
			assert.Equal(t, want, string(data))
		}
	})

	t.Run("leaves nothing behind when one file fails", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		bucket, err := blob.OpenBucket(ctx, "mem://")
		require.NoError(t, err)
		u := rangegrabblob.NewUploader("mem://", rangegrabblob.WithBucket("mem://", bucket), rangegrabblob.WithConcurrency(1))
		defer u.Close()

		good := writeTemp(t, "good.warc.gz", "ok")
		missing := filepath.Join(t.TempDir(), "missing.warc.gz")

		err = u.Upload(ctx, rangegrab.UploadTarget{}, []string{good, missing})

		require.Error(t, err)
		exists, err := bucket.Exists(ctx, "good.warc.gz")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("opens the bucket named by the target", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		u := rangegrabblob.NewUploader("mem://")
		defer u.Close()

		err := u.Upload(context.Background(), rangegrab.UploadTarget{URL: "file://" + dir, Prefix: "batch/"}, []string{writeTemp(t, "a.warc.gz", "x")})

		require.NoError(t, err)
		data, err := os.ReadFile(filepath.Join(dir, "batch", "a.warc.gz"))
		require.NoError(t, err)
		assert.Equal(t, "x", string(data))
	})

	t.Run("rejects a target when no bucket is configured", func(t *testing.T) {
		t.Parallel()

		u := rangegrabblob.NewUploader("")

		err := u.Upload(context.Background(), rangegrab.UploadTarget{}, nil)

		assert.Equal(t, rangegrab.EINVALID, rangegrab.ErrorCode(err))
	})
}

func TestKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "p/x.warc.gz", rangegrabblob.Key(rangegrab.UploadTarget{Prefix: "p/"}, "/data/x.warc.gz"))
}
