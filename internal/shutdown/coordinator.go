// Signalmesh - Webhook Trade Signal Fan-Out Across Decentralized Exchanges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signalmesh

// Package shutdown coordinates graceful drain of in-flight signal dispatches.
//
// The webhook handler brackets each dispatch with Track/release; main flips
// the coordinator into draining mode on SIGTERM and waits for the in-flight
// set to empty before tearing down adapters and persistence. New webhooks
// arriving while draining are rejected at admission (503), so the in-flight
// set only shrinks once Initiate has been called.
package shutdown

import (
	"sort"
	"sync"
	"time"

	"github.com/tomtom215/signalmesh/internal/logging"
)

// DefaultGracePeriod bounds AwaitCompletion when the caller passes a
// non-positive grace.
const DefaultGracePeriod = 30 * time.Second

// Coordinator tracks in-flight dispatches by signal fingerprint.
// All methods are safe for concurrent use.
type Coordinator struct {
	mu       sync.Mutex
	draining bool
	inflight map[string]int
	total    int
	idleCh   chan struct{}
}

// NewCoordinator creates an idle, non-draining coordinator.
func NewCoordinator() *Coordinator {
	return &Coordinator{
		inflight: make(map[string]int),
	}
}

// Initiate flips the coordinator into draining mode. Idempotent.
func (c *Coordinator) Initiate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.draining {
		c.draining = true
		logging.Info().Int("in_flight", c.total).Msg("Shutdown initiated, draining in-flight dispatches")
	}
}

// Draining reports whether shutdown has been initiated.
func (c *Coordinator) Draining() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draining
}

// Track registers one in-flight dispatch and returns its release func.
// Callers must invoke release on every exit path; deferring it immediately
// after Track covers panics too. Release is idempotent.
//
// Admission control is the caller's job: Track itself accepts work even
// while draining, so the handler's draining check must come first.
func (c *Coordinator) Track(fingerprint string) func() {
	c.mu.Lock()
	c.inflight[fingerprint]++
	c.total++
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.release(fingerprint)
		})
	}
}

// release removes one dispatch and wakes waiters when the set empties.
func (c *Coordinator) release(fingerprint string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n, ok := c.inflight[fingerprint]; ok {
		if n <= 1 {
			delete(c.inflight, fingerprint)
		} else {
			c.inflight[fingerprint] = n - 1
		}
		c.total--
	}
	if c.total == 0 && c.idleCh != nil {
		close(c.idleCh)
		c.idleCh = nil
	}
}

// AwaitCompletion blocks until the in-flight set empties or the grace period
// expires. Returns true when the set emptied in time. A non-positive grace
// uses DefaultGracePeriod.
func (c *Coordinator) AwaitCompletion(grace time.Duration) bool {
	if grace <= 0 {
		grace = DefaultGracePeriod
	}

	c.mu.Lock()
	if c.total == 0 {
		c.mu.Unlock()
		return true
	}
	if c.idleCh == nil {
		c.idleCh = make(chan struct{})
	}
	ch := c.idleCh
	c.mu.Unlock()

	timer := time.NewTimer(grace)
	defer timer.Stop()

	select {
	case <-ch:
		return true
	case <-timer.C:
		logging.Warn().
			Int("in_flight", c.InFlightCount()).
			Strs("fingerprints", c.InFlightIDs()).
			Dur("grace", grace).
			Msg("Shutdown grace period expired with dispatches still in flight")
		return false
	}
}

// InFlightCount returns the number of tracked dispatches. A fingerprint
// tracked twice counts twice.
func (c *Coordinator) InFlightCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total
}

// InFlightIDs returns the distinct in-flight fingerprints, sorted.
func (c *Coordinator) InFlightIDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	ids := make([]string, 0, len(c.inflight))
	for fp := range c.inflight {
		ids = append(ids, fp)
	}
	sort.Strings(ids)
	return ids
}
