// Signalmesh - Webhook Trade Signal Fan-Out Across Decentralized Exchanges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signalmesh

package authz

import (
	"sync"
	"time"
)

// maxCachedDecisions bounds the decision cache. Subjects are roles plus
// per-user token identities, so the working set is small; the cap guards
// against a flood of unique token subjects growing the map without limit.
const maxCachedDecisions = 4096

// decisionKey identifies one (subject, resource, action) authorization check.
type decisionKey struct {
	subject string
	object  string
	action  string
}

type decision struct {
	allowed bool
	expires int64 // unix nanoseconds
}

// enforcementCache memoizes casbin decisions so hot operator endpoints do
// not re-run policy matching on every request.
type enforcementCache struct {
	ttl      time.Duration
	mu       sync.RWMutex
	items    map[decisionKey]decision
	stopChan chan struct{}
	stopOnce sync.Once
}

func newEnforcementCache(ttl time.Duration) *enforcementCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	c := &enforcementCache{
		ttl:      ttl,
		items:    make(map[decisionKey]decision),
		stopChan: make(chan struct{}),
	}
	go c.janitor()
	return c
}

// get returns the cached decision and whether a live entry was found.
func (c *enforcementCache) get(subject, object, action string) (bool, bool) {
	c.mu.RLock()
	d, ok := c.items[decisionKey{subject, object, action}]
	c.mu.RUnlock()

	if !ok || time.Now().UnixNano() > d.expires {
		return false, false
	}
	return d.allowed, true
}

func (c *enforcementCache) set(subject, object, action string, allowed bool) {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.items) >= maxCachedDecisions {
		c.evictLocked(now)
	}
	c.items[decisionKey{subject, object, action}] = decision{
		allowed: allowed,
		expires: now.Add(c.ttl).UnixNano(),
	}
}

// evictLocked frees space when the cache is full. Expired entries go first;
// if none have expired, one arbitrary entry is dropped so the insert can
// proceed. Callers must hold the write lock.
func (c *enforcementCache) evictLocked(now time.Time) {
	cutoff := now.UnixNano()
	evicted := false
	for k, d := range c.items {
		if cutoff > d.expires {
			delete(c.items, k)
			evicted = true
		}
	}
	if !evicted {
		for k := range c.items {
			delete(c.items, k)
			break
		}
	}
}

// invalidateUser drops every cached decision for one subject, typically
// after a role change.
func (c *enforcementCache) invalidateUser(subject string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for k := range c.items {
		if k.subject == subject {
			delete(c.items, k)
		}
	}
}

// clear drops all cached decisions, typically after a policy reload.
func (c *enforcementCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[decisionKey]decision)
}

// janitor sweeps expired entries at half the TTL so stale negative
// decisions do not linger at full size between inserts.
func (c *enforcementCache) janitor() {
	interval := c.ttl / 2
	if interval < 30*time.Second {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopChan:
			return
		case <-ticker.C:
			cutoff := time.Now().UnixNano()
			c.mu.Lock()
			for k, d := range c.items {
				if cutoff > d.expires {
					delete(c.items, k)
				}
			}
			c.mu.Unlock()
		}
	}
}

// stop terminates the janitor goroutine. Safe to call multiple times.
func (c *enforcementCache) stop() {
	c.stopOnce.Do(func() {
		close(c.stopChan)
	})
}
