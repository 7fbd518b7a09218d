// Package ratelimit bounds how many commands a user may issue within a
// fixed time window. Windows are independent per user; there is no global
// cap. A denied request does not consume quota.
package ratelimit

import (
	"sync"
	"time"
)

const (
	DefaultMaxRequests = 5
	DefaultWindow      = 60 * time.Second

	// maxEntries bounds the tracking table; exceeding it triggers a sweep
	// of expired windows before the next entry is created.
	maxEntries = 10000
)

type window struct {
	count int
	start time.Time
}

// Limiter is a fixed-window per-user rate limiter. The window resets as a
// whole when it elapses, which allows up to 2x the quota across a window
// boundary; that approximation is accepted.
type Limiter struct {
	mu          sync.Mutex
	maxRequests int
	window      time.Duration
	users       map[int64]*window
}

// New returns a limiter allowing maxRequests per user per window.
// Non-positive arguments fall back to the defaults.
func New(maxRequests int, windowLen time.Duration) *Limiter {
	if maxRequests <= 0 {
		maxRequests = DefaultMaxRequests
	}
	if windowLen <= 0 {
		windowLen = DefaultWindow
	}
	return &Limiter{
		maxRequests: maxRequests,
		window:      windowLen,
		users:       make(map[int64]*window),
	}
}

// Allow reports whether a request from userID at time now is within quota.
// On true, the user's counter is incremented (creating or resetting the
// window first if needed). On false, state is left untouched.
func (l *Limiter) Allow(userID int64, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.users[userID]
	if !ok {
		if len(l.users) >= maxEntries {
			l.sweep(now)
		}
		l.users[userID] = &window{count: 1, start: now}
		return true
	}

	if now.Sub(w.start) >= l.window {
		w.count = 1
		w.start = now
		return true
	}

	if w.count < l.maxRequests {
		w.count++
		return true
	}

	return false
}

// Remaining returns how many requests userID has left in its current window.
func (l *Limiter) Remaining(userID int64, now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.users[userID]
	if !ok || now.Sub(w.start) >= l.window {
		return l.maxRequests
	}
	remaining := l.maxRequests - w.count
	if remaining < 0 {
		return 0
	}
	return remaining
}

// ResetAfter returns how long until userID's window expires, or zero if the
// user has no active window.
func (l *Limiter) ResetAfter(userID int64, now time.Time) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.users[userID]
	if !ok {
		return 0
	}
	elapsed := now.Sub(w.start)
	if elapsed >= l.window {
		return 0
	}
	return l.window - elapsed
}

// Reset clears the window for a single user.
func (l *Limiter) Reset(userID int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.users, userID)
}

// sweep drops expired windows. Caller holds the lock.
func (l *Limiter) sweep(now time.Time) {
	for id, w := range l.users {
		if now.Sub(w.start) >= l.window {
			delete(l.users, id)
		}
	}
}
