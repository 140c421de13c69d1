package llm

import (
	"context"
	"sync"
	"time"
)

const (
	// DefaultMaxRequests is the admission budget used when a provider's
	// configuration leaves the rate limit unset.
	DefaultMaxRequests = 50
	// DefaultWindow is the rolling window paired with DefaultMaxRequests.
	DefaultWindow = time.Minute
)

// Limiter is a sliding-window request governor: at most maxRequests calls may
// proceed per rolling window. Acquire blocks the caller until admission is
// safe rather than rejecting.
//
// Each provider client owns its own Limiter instance; the timestamp window is
// in-memory only and is not persisted across restarts.
type Limiter struct {
	mu          sync.Mutex
	maxRequests int
	window      time.Duration
	// recent request instants, oldest first; entries older than the window
	// are purged before every admission check
	stamps []time.Time
}

// NewLimiter creates a Limiter admitting maxRequests per window.
// Zero values select the defaults.
func NewLimiter(maxRequests int, window time.Duration) *Limiter {
	if maxRequests <= 0 {
		maxRequests = DefaultMaxRequests
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Limiter{
		maxRequests: maxRequests,
		window:      window,
		stamps:      make([]time.Time, 0, maxRequests),
	}
}

// Acquire blocks until the caller may proceed, then records the admission.
// The purge-then-append sequence runs under the mutex so concurrent callers
// are linearized: two callers can never both observe "under limit" when
// admitting both would breach it. Returns the context error on cancellation.
func (l *Limiter) Acquire(ctx context.Context) error {
	for {
		l.mu.Lock()
		now := time.Now()
		l.purge(now)
		if len(l.stamps) < l.maxRequests {
			l.stamps = append(l.stamps, now)
			l.mu.Unlock()
			return nil
		}
		wait := l.stamps[0].Add(l.window).Sub(now)
		l.mu.Unlock()

		if wait <= 0 {
			continue
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
			// Re-check under the lock: another waiter may have been admitted
			// in the meantime.
		}
	}
}

// purge drops timestamps older than the window. Caller must hold l.mu.
func (l *Limiter) purge(now time.Time) {
	cutoff := now.Add(-l.window)
	i := 0
	for i < len(l.stamps) && !l.stamps[i].After(cutoff) {
		i++
	}
	if i > 0 {
		l.stamps = append(l.stamps[:0], l.stamps[i:]...)
	}
}
