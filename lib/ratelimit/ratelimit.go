package ratelimit

import (
	"sync"
	"time"
)

// Limiter is a per-caller sliding-window rate limiter. A caller may issue up
// to limit+burst requests inside a window; the burst headroom absorbs short
// spikes above the steady rate. Windows are evicted lazily on access.
type Limiter struct {
	mu      sync.Mutex
	limit   int
	burst   int
	window  time.Duration
	windows map[string][]time.Time
	now     func() time.Time
}

func New(limit, burst int, window time.Duration) *Limiter {
	return &Limiter{
		limit:   limit,
		burst:   burst,
		window:  window,
		windows: make(map[string][]time.Time),
		now:     time.Now,
	}
}

// Allow records a request for the caller key and reports whether it is within
// the window. When denied, retryAfter is the time until the oldest request in
// the window falls out of it.
func (l *Limiter) Allow(key string) (ok bool, retryAfter time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)

	kept := l.windows[key][:0]
	for _, ts := range l.windows[key] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= l.limit+l.burst {
		l.windows[key] = kept
		// zero capacity denies everything, there is no slot to wait for
		if len(kept) == 0 {
			return false, l.window
		}
		return false, kept[0].Add(l.window).Sub(now)
	}

	l.windows[key] = append(kept, now)
	return true, 0
}

// Reset drops the window for a caller key. Used by tests.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, key)
}

// SetClock overrides the time source. Used by tests.
func (l *Limiter) SetClock(now func() time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
}
