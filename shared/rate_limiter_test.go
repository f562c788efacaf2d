package shared

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterEnforcesMinimumDelay(t *testing.T) {
	limiter := NewRequestRateLimiter(50 * time.Millisecond)

	start := time.Now()
	limiter.Wait()
	limiter.Wait()
	limiter.Wait()

	// Three calls against a fresh limiter must cover three spacing intervals,
	// since construction counts as the first request timestamp.
	assert.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)
	assert.Equal(t, int64(3), limiter.RequestCount())
}

func TestRateLimiterZeroDelayNeverBlocks(t *testing.T) {
	limiter := NewRequestRateLimiter(0)

	start := time.Now()
	for i := 0; i < 100; i++ {
		limiter.Wait()
	}

	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, int64(100), limiter.RequestCount())
}

func TestRateLimiterSerializesConcurrentCallers(t *testing.T) {
	limiter := NewRequestRateLimiter(20 * time.Millisecond)

	var waitGroup sync.WaitGroup
	start := time.Now()
	for i := 0; i < 4; i++ {
		waitGroup.Add(1)
		go func() {
			defer waitGroup.Done()
			limiter.Wait()
		}()
	}
	waitGroup.Wait()

	assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
	assert.Equal(t, int64(4), limiter.RequestCount())
}

func TestRateLimiterReset(t *testing.T) {
	limiter := NewRequestRateLimiter(0)
	limiter.Wait()
	limiter.Wait()

	before := limiter.LastRequestTime()
	limiter.Reset()

	assert.Equal(t, int64(0), limiter.RequestCount())
	assert.False(t, limiter.LastRequestTime().Before(before))
}
