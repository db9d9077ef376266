// Package ratelimit bounds outbound market-data calls to a fixed budget
// per rolling time window, shared across all monitored trades.
package ratelimit

import (
	"sync"
	"time"
)

// SlidingWindow is a cooperative admission counter. A denial never blocks
// or queues the caller; the owning trade simply defers its next evaluation
// to the following tick.
type SlidingWindow struct {
	mu       sync.Mutex
	max      int
	window   time.Duration
	requests []time.Time
	now      func() time.Time // injection point for tests
}

// NewSlidingWindow creates a limiter admitting at most max calls within any
// rolling window.
func NewSlidingWindow(max int, window time.Duration) *SlidingWindow {
	return &SlidingWindow{
		max:      max,
		window:   window,
		requests: make([]time.Time, 0, max),
		now:      time.Now,
	}
}

// TryAcquire reports whether a call is currently admissible. It does not
// consume a budget slot; callers that proceed must follow up with Record.
func (l *SlidingWindow) TryAcquire() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prune(l.now())
	return len(l.requests) < l.max
}

// Record consumes a budget slot by appending the current timestamp.
func (l *SlidingWindow) Record() {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	l.prune(now)
	l.requests = append(l.requests, now)
}

// prune drops timestamps older than the window. Caller must hold mu.
func (l *SlidingWindow) prune(now time.Time) {
	cutoff := now.Add(-l.window)
	i := 0
	for i < len(l.requests) && !l.requests[i].After(cutoff) {
		i++
	}
	if i > 0 {
		l.requests = l.requests[i:]
	}
}
