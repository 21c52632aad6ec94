package http_test

import (
	"sync"
	"testing"
	"time"

	mvhttp "github.com/fwojciec/metaverify/http"
	"github.com/stretchr/testify/assert"
)

func TestClientLimiter_Allow(t *testing.T) {
	t.Parallel()

	t.Run("allows burst then rejects", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		limiter := mvhttp.NewClientLimiter(1, 2)
		limiter.SetNow(func() time.Time { return now })

		assert.True(t, limiter.Allow("10.0.0.1"))
		assert.True(t, limiter.Allow("10.0.0.1"))
		assert.False(t, limiter.Allow("10.0.0.1"))
	})

	t.Run("refills over time", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		limiter := mvhttp.NewClientLimiter(1, 1)
		limiter.SetNow(func() time.Time { return now })

		assert.True(t, limiter.Allow("10.0.0.1"))
		assert.False(t, limiter.Allow("10.0.0.1"))

		now = now.Add(time.Second)
		assert.True(t, limiter.Allow("10.0.0.1"))
	})

	t.Run("tracks clients independently", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		limiter := mvhttp.NewClientLimiter(1, 1)
		limiter.SetNow(func() time.Time { return now })

		assert.True(t, limiter.Allow("10.0.0.1"))
		assert.True(t, limiter.Allow("10.0.0.2"))
		assert.False(t, limiter.Allow("10.0.0.1"))
	})

	t.Run("drops idle clients", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		limiter := mvhttp.NewClientLimiter(1, 1)
		limiter.SetNow(func() time.Time { return now })

		limiter.Allow("10.0.0.1")
		limiter.Allow("10.0.0.2")
		assert.Equal(t, 2, limiter.Len())

		now = now.Add(time.Hour)
		limiter.Allow("10.0.0.3")
		assert.Equal(t, 1, limiter.Len())
	})

	t.Run("evicts the least recently seen client when full", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		limiter := mvhttp.NewClientLimiter(0.001, 1)
		limiter.SetMaxClients(2)
		limiter.SetNow(func() time.Time {
			now = now.Add(time.Second)
			return now
		})

		assert.True(t, limiter.Allow("a"))
		assert.True(t, limiter.Allow("b"))
		assert.True(t, limiter.Allow("c"), "a is evicted")
		assert.Equal(t, 2, limiter.Len())

		assert.False(t, limiter.Allow("b"), "b keeps its empty bucket")
		assert.True(t, limiter.Allow("a"), "a starts over, c is evicted")
		assert.Equal(t, 2, limiter.Len())
		assert.False(t, limiter.Allow("b"))
	})

	t.Run("is safe for concurrent use", func(t *testing.T) {
		t.Parallel()

		limiter := mvhttp.NewClientLimiter(1000, 10)

		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				limiter.Allow("10.0.0.1")
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, limiter.Len())
	})
}
