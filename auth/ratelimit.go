package auth

import (
	"sync"
	"time"
)

// RateLimiter is a fixed-window counter per key. State lives only as long as
// the instance.
type RateLimiter struct {
	mu      sync.Mutex
	entries map[string]*rateEntry
	now     func() time.Time
}

type rateEntry struct {
	count   int
	resetAt time.Time
}

func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		entries: make(map[string]*rateEntry),
		now:     time.Now,
	}
}

// SetClock replaces the time source.
func (r *RateLimiter) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

// Allow counts one attempt for key. The first attempt, or the first one after
// the window closed, opens a new window; further attempts are denied once max
// have been counted.
func (r *RateLimiter) Allow(key string, max int, window time.Duration) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	e, ok := r.entries[key]
	if !ok || now.After(e.resetAt) {
		r.entries[key] = &rateEntry{count: 1, resetAt: now.Add(window)}
		return true
	}
	if e.count >= max {
		return false
	}
	e.count++
	return true
}

// Reset forgets every key.
func (r *RateLimiter) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = make(map[string]*rateEntry)
}
