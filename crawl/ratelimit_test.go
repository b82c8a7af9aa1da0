package crawl_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fwojciec/rangegrab"
	"github.com/fwojciec/rangegrab/crawl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttemptLimiter(t *testing.T) {
	t.Parallel()

	t.Run("implements rangegrab.AttemptLimiter interface", func(t *testing.T) {
		t.Parallel()
		var _ rangegrab.AttemptLimiter = crawl.NewAttemptLimiter(1)
	})

	t.Run("allows immediate first attempt", func(t *testing.T) {
		t.Parallel()

		limiter := crawl.NewAttemptLimiter(10)

		start := time.Now()
		err := limiter.Wait(context.Background())

		require.NoError(t, err)
		assert.Less(t, time.Since(start), 50*time.Millisecond)
	})

	t.Run("spaces out consecutive attempts", func(t *testing.T) {
		t.Parallel()

		limiter := crawl.NewAttemptLimiter(10) // 100ms apart

		require.NoError(t, limiter.Wait(context.Background()))

		start := time.Now()
		err := limiter.Wait(context.Background())

		require.NoError(t, err)
		assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
	})

	t.Run("non-positive rate never waits", func(t *testing.T) {
		t.Parallel()

		limiter := crawl.NewAttemptLimiter(0)

		start := time.Now()
		for range 100 {
			require.NoError(t, limiter.Wait(context.Background()))
		}
		assert.Less(t, time.Since(start), 50*time.Millisecond)
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		t.Parallel()

		limiter := crawl.NewAttemptLimiter(1)
		require.NoError(t, limiter.Wait(context.Background()))

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		assert.Error(t, limiter.Wait(ctx))
	})

	t.Run("concurrent waiters all complete", func(t *testing.T) {
		t.Parallel()

		limiter := crawl.NewAttemptLimiter(100)

		var wg sync.WaitGroup
		var completed atomic.Int32
		for range 5 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if limiter.Wait(context.Background()) == nil {
					completed.Add(1)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(5), completed.Load())
	})
}
