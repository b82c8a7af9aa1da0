// Package blob delivers batch artifacts to object storage through
// gocloud.dev/blob. Bucket URLs select the provider: s3://, gs://, file://
// or mem://.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/fwojciec/rangegrab"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"
	"gocloud.dev/gcerrors"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is how many files of a batch upload at once.
const DefaultConcurrency = 4

// Ensure Uploader implements rangegrab.Uploader at compile time.
var _ rangegrab.Uploader = (*Uploader)(nil)

// Uploader writes files to buckets, opening each bucket URL once. An upload
// is all or nothing: if any file fails, the files already written are
// deleted again.
type Uploader struct {
	defaultURL  string
	concurrency int

	mu      sync.Mutex
	buckets map[string]*blob.Bucket
}

// Option configures an Uploader.
type Option func(*Uploader)

// WithConcurrency sets how many files upload at once.
func WithConcurrency(n int) Option {
	return func(u *Uploader) {
		if n > 0 {
			u.concurrency = n
		}
	}
}

// WithBucket registers an already opened bucket for url. The Uploader takes
// ownership and closes it on Close.
func WithBucket(url string, b *blob.Bucket) Option {
	return func(u *Uploader) {
		u.buckets[url] = b
	}
}

// NewUploader creates an Uploader that writes to defaultURL whenever a
// target names no bucket.
func NewUploader(defaultURL string, opts ...Option) *Uploader {
	u := &Uploader{
		defaultURL:  defaultURL,
		concurrency: DefaultConcurrency,
		buckets:     make(map[string]*blob.Bucket),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Upload writes files under target.Prefix, keyed by base name.
func (u *Uploader) Upload(ctx context.Context, target rangegrab.UploadTarget, files []string) error {
	bucket, err := u.bucket(ctx, target.URL)
	if err != nil {
		return err
	}

	written := make([]bool, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.concurrency)
	for i, path := range files {
		g.Go(func() error {
			if err := writeFile(gctx, bucket, Key(target, path), path); err != nil {
				return fmt.Errorf("upload %s: %w", filepath.Base(path), err)
			}
			written[i] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		cleanup := context.WithoutCancel(ctx)
		for i, ok := range written {
			if !ok {
				continue
			}
			if derr := bucket.Delete(cleanup, Key(target, files[i])); derr != nil && gcerrors.Code(derr) != gcerrors.NotFound {
				err = errors.Join(err, derr)
			}
		}
		return err
	}
	return nil
}

// Key returns the object key of path under target.
func Key(target rangegrab.UploadTarget, path string) string {
	return target.Prefix + filepath.Base(path)
}

// Close closes every bucket the Uploader opened.
func (u *Uploader) Close() error {
	u.mu.Lock()
	defer u.mu.Unlock()

	var errs []error
	for url, b := range u.buckets {
		if err := b.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", url, err))
		}
		delete(u.buckets, url)
	}
	return errors.Join(errs...)
}

func (u *Uploader) bucket(ctx context.Context, url string) (*blob.Bucket, error) {
	if url == "" {
		url = u.defaultURL
	}
	if url == "" {
		return nil, rangegrab.Errorf(rangegrab.EINVALID, "no bucket configured")
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	if b, ok := u.buckets[url]; ok {
		return b, nil
	}
	b, err := blob.OpenBucket(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("open bucket: %w", err)
	}
	u.buckets[url] = b
	return b, nil
}

// writeFile copies the file at path to key. A failed copy aborts the write
// so no partial object is left behind.
func writeFile(ctx context.Context, bucket *blob.Bucket, key, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	wctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w, err := bucket.NewWriter(wctx, key, &blob.WriterOptions{ContentType: "application/warc"})
	if err != nil {
		return fmt.Errorf("create writer: %w", err)
	}
	if _, err := io.Copy(w, f); err != nil {
		cancel()
		_ = w.Close()
		return fmt.Errorf("write: %w", err)
	}
	return w.Close()
}
