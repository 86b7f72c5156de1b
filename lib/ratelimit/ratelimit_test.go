package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExactlyLimitRequestsSucceed(t *testing.T) {
	limiter := New(10, 0, time.Minute)

	allowed := 0
	for i := 0; i < 25; i++ {
		if ok, _ := limiter.Allow("caller"); ok {
			allowed++
		}
	}
	assert.Equal(t, 10, allowed)
}

func TestBurstHeadroom(t *testing.T) {
	limiter := New(10, 5, time.Minute)

	allowed := 0
	for i := 0; i < 25; i++ {
		if ok, _ := limiter.Allow("caller"); ok {
			allowed++
		}
	}
	assert.Equal(t, 15, allowed)
}

func TestCallersAreIndependent(t *testing.T) {
	limiter := New(1, 0, time.Minute)

	ok, _ := limiter.Allow("alice")
	assert.True(t, ok)
	ok, _ = limiter.Allow("bob")
	assert.True(t, ok)
	ok, _ = limiter.Allow("alice")
	assert.False(t, ok)
}

func TestRetryAfterHint(t *testing.T) {
	base := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)
	now := base
	limiter := New(1, 0, time.Minute)
	limiter.SetClock(func() time.Time { return now })

	ok, _ := limiter.Allow("caller")
	assert.True(t, ok)

	now = base.Add(20 * time.Second)
	ok, retryAfter := limiter.Allow("caller")
	assert.False(t, ok)
	// oldest request at t0, window 60s, now t0+20s
	assert.Equal(t, 40*time.Second, retryAfter)
}

func TestWindowSlides(t *testing.T) {
	base := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)
	now := base
	limiter := New(2, 0, time.Minute)
	limiter.SetClock(func() time.Time { return now })

	limiter.Allow("caller")
	limiter.Allow("caller")
	ok, _ := limiter.Allow("caller")
	assert.False(t, ok)

	now = base.Add(61 * time.Second)
	ok, _ = limiter.Allow("caller")
	assert.True(t, ok)
}

func TestZeroCapacityDeniesEverything(t *testing.T) {
	limiter := New(0, 0, time.Minute)

	ok, retryAfter := limiter.Allow("caller")
	assert.False(t, ok)
	assert.Equal(t, time.Minute, retryAfter)

	// stays closed on repeat calls
	ok, _ = limiter.Allow("caller")
	assert.False(t, ok)
}

func TestConcurrentCounting(t *testing.T) {
	limiter := New(50, 0, time.Minute)

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := limiter.Allow("caller"); ok {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	// no double counting and no lost counts under concurrency
	assert.Equal(t, 50, allowed)
}
