// Signalmesh - Webhook Trade Signal Fan-Out Across Decentralized Exchanges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signalmesh

// Package ratelimit implements per-token sliding window rate limiting for
// webhook signals. Each key keeps the exact timestamps of its accepted
// requests, so a rejection can report precisely when the oldest request
// leaves the window and capacity frees up.
//
// Complexity:
//   - Allow: O(n) where n = requests in the window (bounded by the limit)
//   - Memory: O(limit) per active key
package ratelimit

import (
	"sync"
	"time"
)

// Decision carries the outcome of a rate limit check.
type Decision struct {
	// Allowed reports whether the request may proceed.
	Allowed bool

	// Remaining is the number of additional requests the key may make
	// within the current window.
	Remaining int

	// RetryAfter is how long until the oldest in-window request expires
	// and capacity frees up. Zero when the request is allowed.
	RetryAfter time.Duration
}

// keyWindow holds the accepted-request timestamps for one key, ascending.
type keyWindow struct {
	mu     sync.Mutex
	stamps []time.Time
}

// prune drops timestamps that have left the window. Must be called with lock held.
func (w *keyWindow) prune(now time.Time, window time.Duration) {
	cutoff := 0
	for cutoff < len(w.stamps) && !now.Before(w.stamps[cutoff].Add(window)) {
		cutoff++
	}
	if cutoff > 0 {
		w.stamps = append(w.stamps[:0], w.stamps[cutoff:]...)
	}
}

// Limiter tracks request timestamps per key within a sliding window.
// Rejected requests do not consume quota: only accepted requests are recorded.
type Limiter struct {
	mu      sync.RWMutex
	windows map[string]*keyWindow
	window  time.Duration
	limit   int
	maxKeys int // maximum number of tracked keys (0 = unlimited)
}

// New creates a limiter allowing limit requests per key within window.
func New(window time.Duration, limit, maxKeys int) *Limiter {
	if limit <= 0 {
		limit = 1
	}
	if window <= 0 {
		window = time.Minute
	}

	return &Limiter{
		windows: make(map[string]*keyWindow),
		window:  window,
		limit:   limit,
		maxKeys: maxKeys,
	}
}

// Allow checks and records a request for the given key.
func (l *Limiter) Allow(key string) Decision {
	w := l.getOrCreate(key)

	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now()
	w.prune(now, l.window)

	if len(w.stamps) >= l.limit {
		return Decision{
			Allowed:    false,
			Remaining:  0,
			RetryAfter: w.stamps[0].Add(l.window).Sub(now),
		}
	}

	w.stamps = append(w.stamps, now)
	return Decision{
		Allowed:   true,
		Remaining: l.limit - len(w.stamps),
	}
}

// Count returns the number of in-window requests for the given key.
func (l *Limiter) Count(key string) int {
	l.mu.RLock()
	w, exists := l.windows[key]
	l.mu.RUnlock()

	if !exists {
		return 0
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.prune(time.Now(), l.window)
	return len(w.stamps)
}

// Reset clears the window for the given key.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, key)
}

// Len returns the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.windows)
}

// CleanupInactive removes keys with no in-window requests.
// Returns the number of keys removed.
func (l *Limiter) CleanupInactive() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	now := time.Now()
	for key, w := range l.windows {
		w.mu.Lock()
		w.prune(now, l.window)
		empty := len(w.stamps) == 0
		w.mu.Unlock()

		if empty {
			delete(l.windows, key)
			removed++
		}
	}
	return removed
}

// getOrCreate returns the window for key, creating it if needed.
func (l *Limiter) getOrCreate(key string) *keyWindow {
	l.mu.RLock()
	w, exists := l.windows[key]
	l.mu.RUnlock()
	if exists {
		return w
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Re-check under the write lock
	if w, exists = l.windows[key]; exists {
		return w
	}

	if l.maxKeys > 0 && len(l.windows) >= l.maxKeys {
		l.evictOldest()
	}

	w = &keyWindow{}
	l.windows[key] = w
	return w
}

// evictOldest removes a random window when at capacity.
// Must be called with lock held.
func (l *Limiter) evictOldest() {
	for key := range l.windows {
		delete(l.windows, key)
		return
	}
}

// StartCleanupRoutine starts a background routine that periodically removes
// inactive keys. Returns a channel to stop the routine.
func StartCleanupRoutine(l *Limiter, interval time.Duration) chan struct{} {
	done := make(chan struct{})

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				l.CleanupInactive()
			case <-done:
				return
			}
		}
	}()

	return done
}
