package slog_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/fwojciec/rangegrab"
	"github.com/fwojciec/rangegrab/mock"
	rgslog "github.com/fwojciec/rangegrab/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingFetcher_Fetch(t *testing.T) {
	t.Parallel()

	t.Run("logs exit status with its class", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.Fetcher{
			FetchFn: func(ctx context.Context, target string, paths rangegrab.FetchPaths) (int, error) {
				return 102, nil
			},
		}

		fetcher := rgslog.NewLoggingFetcher(inner, rangegrab.DefaultExitPolicy, logger)
		status, err := fetcher.Fetch(context.Background(), "abc", rangegrab.FetchPaths{})

		require.NoError(t, err)
		assert.Equal(t, 102, status)
		output := buf.String()
		assert.Contains(t, output, "msg=fetch")
		assert.Contains(t, output, "target=abc")
		assert.Contains(t, output, "status=102")
		assert.Contains(t, output, "class=transient")
		assert.Contains(t, output, "duration=")
	})

	t.Run("logs error at warn level", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.Fetcher{
			FetchFn: func(ctx context.Context, target string, paths rangegrab.FetchPaths) (int, error) {
				return -1, errors.New("exec failed")
			},
		}

		fetcher := rgslog.NewLoggingFetcher(inner, rangegrab.DefaultExitPolicy, logger)
		_, err := fetcher.Fetch(context.Background(), "abc", rangegrab.FetchPaths{})

		require.Error(t, err)
		output := buf.String()
		assert.Contains(t, output, "level=WARN")
		assert.Contains(t, output, "err=\"exec failed\"")
	})

	t.Run("passes paths through", func(t *testing.T) {
		t.Parallel()

		var got rangegrab.FetchPaths
		inner := &mock.Fetcher{
			FetchFn: func(ctx context.Context, target string, paths rangegrab.FetchPaths) (int, error) {
				got = paths
				return 0, nil
			},
		}
		want := rangegrab.FetchPaths{Log: "a.log", Archive: "a.warc.gz"}

		fetcher := rgslog.NewLoggingFetcher(inner, rangegrab.DefaultExitPolicy, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
		_, err := fetcher.Fetch(context.Background(), "a", want)

		require.NoError(t, err)
		assert.Equal(t, want, got)
	})
}
