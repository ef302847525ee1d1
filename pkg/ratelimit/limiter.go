// Package ratelimit bounds the rate of outbound VNDB calls with a sliding
// window.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/pario-ai/vndb-mcp/pkg/clock"
)

// Window is the length of the sliding window.
const Window = time.Minute

// DefaultRequestsPerMinute is used when no limit is configured.
const DefaultRequestsPerMinute = 60

// Stats reports how often callers had to wait.
type Stats struct {
	Acquired  int64
	Waits     int64
	WaitTotal time.Duration
}

// Limiter admits at most requestsPerMinute calls in any trailing Window.
type Limiter struct {
	limit int
	clock clock.Clock

	mu     sync.Mutex
	window []time.Time
	stats  Stats
}

// New creates a Limiter. A non-positive limit uses DefaultRequestsPerMinute.
func New(requestsPerMinute int, clk clock.Clock) *Limiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = DefaultRequestsPerMinute
	}
	if clk == nil {
		clk = clock.Real{}
	}
	return &Limiter{
		limit:  requestsPerMinute,
		clock:  clk,
		window: make([]time.Time, 0, requestsPerMinute),
	}
}

// Acquire blocks until a call is permitted, then records it. It only fails
// when ctx is done while waiting.
func (l *Limiter) Acquire(ctx context.Context) error {
	for {
		l.mu.Lock()
		now := l.clock.Now()
		l.pruneLocked(now)
		if len(l.window) < l.limit {
			l.window = append(l.window, now)
			l.stats.Acquired++
			l.mu.Unlock()
			return nil
		}
		wait := Window - now.Sub(l.window[0])
		if wait <= 0 {
			// The oldest call is exactly on the boundary.
			l.window = append(l.window[1:], now)
			l.stats.Acquired++
			l.mu.Unlock()
			return nil
		}
		l.stats.Waits++
		l.stats.WaitTotal += wait
		l.mu.Unlock()

		if err := l.clock.Sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// InWindow returns the number of calls recorded in the current window.
func (l *Limiter) InWindow() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pruneLocked(l.clock.Now())
	return len(l.window)
}

// Stats returns a snapshot of the limiter counters.
func (l *Limiter) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stats
}

// Limit returns the configured requests per minute.
func (l *Limiter) Limit() int { return l.limit }

// pruneLocked drops timestamps that have left the window. The window is
// sorted because timestamps are appended in clock order.
func (l *Limiter) pruneLocked(now time.Time) {
	i := 0
	for i < len(l.window) && now.Sub(l.window[i]) >= Window {
		i++
	}
	if i > 0 {
		l.window = append(l.window[:0], l.window[i:]...)
	}
}
