package ratelimit

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrRateLimited indicates the call budget of a key is exhausted for
// the current window. The condition is transient; callers may retry
// once the window rolls over.
var ErrRateLimited = errors.New("rate limited")

// Limiter is a call budget shared by the outbound clients. Allow must
// be consulted before any network I/O so that an exhausted budget
// never produces a request.
type Limiter interface {
	// Allow consumes one call from the budget of key. Returns
	// ErrRateLimited (wrapped with the key and retry hint) when the
	// budget for the current window is spent.
	Allow(key string) error
}

// FixedWindow is a count-based fixed-window limiter. Each key gets its
// own window of at most limit calls per period. Windows are aligned to
// the first call, not to wall-clock boundaries.
type FixedWindow struct {
	limit  int
	period time.Duration
	now    func() time.Time

	mu      sync.Mutex
	windows map[string]*window
}

type window struct {
	start time.Time
	count int
}

// NewFixedWindow builds a limiter allowing limit calls per period for
// each key. The clock defaults to time.Now and is injectable for tests.
func NewFixedWindow(limit int, period time.Duration) *FixedWindow {
	return &FixedWindow{
		limit:   limit,
		period:  period,
		now:     time.Now,
		windows: make(map[string]*window),
	}
}

// WithClock replaces the limiter's clock. Intended for tests.
func (l *FixedWindow) WithClock(now func() time.Time) *FixedWindow {
	l.now = now
	return l
}

// Allow implements Limiter.
func (l *FixedWindow) Allow(key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[key]
	if !ok || now.Sub(w.start) >= l.period {
		l.windows[key] = &window{start: now, count: 1}
		return nil
	}

	if w.count >= l.limit {
		retryIn := l.period - now.Sub(w.start)
		return fmt.Errorf("%w: %s exhausted %d calls, retry in %s", ErrRateLimited, key, l.limit, retryIn.Round(time.Millisecond))
	}

	w.count++
	return nil
}

// Remaining reports the unused budget of key in the current window.
func (l *FixedWindow) Remaining(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || l.now().Sub(w.start) >= l.period {
		return l.limit
	}
	return l.limit - w.count
}

var _ Limiter = (*FixedWindow)(nil)
