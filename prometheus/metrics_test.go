package prometheus_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fwojciec/rangegrab"
	"github.com/fwojciec/rangegrab/mock"
	rgprom "github.com/fwojciec/rangegrab/prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMetrics(t *testing.T) (*rgprom.Metrics, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	return rgprom.NewMetrics(reg), reg
}

func TestFetcher_Fetch(t *testing.T) {
	t.Parallel()

	t.Run("counts attempts by exit class", func(t *testing.T) {
		t.Parallel()

		m, _ := newMetrics(t)
		statuses := []int{0, 100, 102, 102, 8}
		i := 0
		inner := &mock.Fetcher{
			FetchFn: func(ctx context.Context, target string, paths rangegrab.FetchPaths) (int, error) {
				s := statuses[i]
				i++
				return s, nil
			},
		}
		f := rgprom.NewFetcher(inner, rangegrab.DefaultExitPolicy, m)

		for range statuses {
			_, err := f.Fetch(context.Background(), "a", rangegrab.FetchPaths{})
			require.NoError(t, err)
		}

		assert.InDelta(t, 1, testutil.ToFloat64(m.Attempts.WithLabelValues("success")), 0)
		assert.InDelta(t, 1, testutil.ToFloat64(m.Attempts.WithLabelValues("skip")), 0)
		assert.InDelta(t, 2, testutil.ToFloat64(m.Attempts.WithLabelValues("transient")), 0)
		assert.InDelta(t, 1, testutil.ToFloat64(m.Attempts.WithLabelValues("generic")), 0)
	})

	t.Run("counts fetcher error as generic", func(t *testing.T) {
		t.Parallel()

		m, _ := newMetrics(t)
		inner := &mock.Fetcher{
			FetchFn: func(ctx context.Context, target string, paths rangegrab.FetchPaths) (int, error) {
				return 0, errors.New("exec failed")
			},
		}

		_, err := rgprom.NewFetcher(inner, rangegrab.DefaultExitPolicy, m).Fetch(context.Background(), "a", rangegrab.FetchPaths{})

		require.Error(t, err)
		assert.InDelta(t, 1, testutil.ToFloat64(m.Attempts.WithLabelValues("generic")), 0)
		assert.InDelta(t, 0, testutil.ToFloat64(m.Attempts.WithLabelValues("success")), 0)
	})
}

func TestTracker(t *testing.T) {
	t.Parallel()

	t.Run("counts accepted done reports with bytes", func(t *testing.T) {
		t.Parallel()

		m, _ := newMetrics(t)
		inner := &mock.Tracker{
			DoneFn: func(ctx context.Context, report *rangegrab.Report) error { return nil },
		}

		err := rgprom.NewTracker(inner, m).Done(context.Background(), &rangegrab.Report{Bytes: 300})

		require.NoError(t, err)
		assert.InDelta(t, 1, testutil.ToFloat64(m.Batches.WithLabelValues("done")), 0)
		assert.InDelta(t, 300, testutil.ToFloat64(m.Bytes), 0)
	})

	t.Run("does not count rejected done reports", func(t *testing.T) {
		t.Parallel()

		m, _ := newMetrics(t)
		inner := &mock.Tracker{
			DoneFn: func(ctx context.Context, report *rangegrab.Report) error { return errors.New("rejected") },
		}

		err := rgprom.NewTracker(inner, m).Done(context.Background(), &rangegrab.Report{Bytes: 300})

		require.Error(t, err)
		assert.InDelta(t, 0, testutil.ToFloat64(m.Bytes), 0)
	})

	t.Run("counts failed batches", func(t *testing.T) {
		t.Parallel()

		m, _ := newMetrics(t)
		inner := &mock.Tracker{
			FailFn: func(ctx context.Context, report *rangegrab.Report) error { return nil },
		}

		require.NoError(t, rgprom.NewTracker(inner, m).Fail(context.Background(), &rangegrab.Report{}))

		assert.InDelta(t, 1, testutil.ToFloat64(m.Batches.WithLabelValues("failed")), 0)
	})
}

func TestUploader_Upload(t *testing.T) {
	t.Parallel()

	t.Run("counts results", func(t *testing.T) {
		t.Parallel()

		m, _ := newMetrics(t)
		calls := 0
		inner := &mock.Uploader{
			UploadFn: func(ctx context.Context, target rangegrab.UploadTarget, files []string) error {
				calls++
				if calls == 2 {
					return errors.New("bucket gone")
				}
				return nil
			},
		}
		u := rgprom.NewUploader(inner, m)

		require.NoError(t, u.Upload(context.Background(), rangegrab.UploadTarget{}, nil))
		require.Error(t, u.Upload(context.Background(), rangegrab.UploadTarget{}, nil))

		assert.InDelta(t, 1, testutil.ToFloat64(m.Uploads.WithLabelValues("ok")), 0)
		assert.InDelta(t, 1, testutil.ToFloat64(m.Uploads.WithLabelValues("error")), 0)
	})
}

func TestHandler(t *testing.T) {
	t.Parallel()

	t.Run("exposes registered metrics", func(t *testing.T) {
		t.Parallel()

		m, reg := newMetrics(t)
		m.Bytes.Add(5)
		srv := httptest.NewServer(rgprom.Handler(reg))
		defer srv.Close()

		resp, err := http.Get(srv.URL)
		require.NoError(t, err)
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, string(body), "rangegrab_archive_bytes_total 5")
	})
}
