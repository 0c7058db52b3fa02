// Signalmesh - Webhook Trade Signal Fan-Out Across Decentralized Exchanges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signalmesh

// Package dedup implements sliding-window duplicate suppression for signal
// fingerprints. A fingerprint accepted at time T suppresses identical
// fingerprints until T+window; duplicates never extend the window.
//
// Two backends are provided: an in-memory tracker (window lost on restart)
// and a BadgerDB-backed tracker whose TTL entries survive restarts, so a
// crash-loop cannot double-execute the same signal.
package dedup

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tomtom215/signalmesh/internal/logging"
)

// Dedup Tracking Metrics
var (
	// DedupOperationsTotal counts tracker operations.
	DedupOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dedup_operations_total",
			Help: "Total number of dedup tracker operations",
		},
		[]string{"operation", "outcome"}, // operation: check, store, cleanup; outcome: success, failure, duplicate
	)

	// DedupDuplicatesTotal counts suppressed duplicate signals.
	DedupDuplicatesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dedup_duplicates_suppressed_total",
			Help: "Total number of duplicate signals suppressed within the dedup window",
		},
	)

	// DedupTrackedFingerprints tracks the current number of fingerprints in the store.
	DedupTrackedFingerprints = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dedup_tracked_fingerprints",
			Help: "Current number of fingerprints stored for duplicate suppression",
		},
	)

	// DedupCleanedUpTotal counts fingerprints removed during cleanup.
	DedupCleanedUpTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dedup_cleaned_up_total",
			Help: "Total number of expired fingerprints cleaned up",
		},
	)
)

// ErrTrackerClosed indicates the tracker has been closed.
var ErrTrackerClosed = errors.New("dedup tracker is closed")

// SeenEntry represents a stored fingerprint record.
type SeenEntry struct {
	// Fingerprint is the canonical signal fingerprint (16 hex chars).
	Fingerprint string `json:"fingerprint"`

	// UserID identifies the webhook caller, when per-user tokens are in use.
	UserID string `json:"user_id,omitempty"`

	// FirstSeen is when this fingerprint was first accepted.
	FirstSeen time.Time `json:"first_seen"`

	// ExpiresAt is when suppression for this fingerprint ends.
	ExpiresAt time.Time `json:"expires_at"`
}

// Tracker defines the interface for fingerprint dedup stores.
type Tracker interface {
	// CheckAndStore atomically checks whether a fingerprint is inside its
	// suppression window and stores it if not. Returns true when this is the
	// first sighting (the signal should proceed), false when it is a
	// duplicate. The entry expires after the given TTL.
	CheckAndStore(ctx context.Context, entry *SeenEntry, ttl time.Duration) (bool, error)

	// IsSeen checks whether a fingerprint is inside its suppression window
	// without storing it.
	IsSeen(ctx context.Context, fingerprint string) (bool, error)

	// CleanupExpired removes all expired fingerprint entries.
	// Returns the number of entries removed.
	CleanupExpired(ctx context.Context) (int, error)

	// Size returns the approximate number of entries in the store.
	Size(ctx context.Context) (int, error)

	// Close closes the tracker and releases resources.
	Close() error
}

// MemoryTracker is an in-memory fingerprint tracker.
// The suppression window is lost on restart.
type MemoryTracker struct {
	mu      sync.RWMutex
	entries map[string]*SeenEntry
	closed  bool
}

// NewMemoryTracker creates a new in-memory fingerprint tracker.
func NewMemoryTracker() *MemoryTracker {
	return &MemoryTracker{
		entries: make(map[string]*SeenEntry),
	}
}

// CheckAndStore atomically checks and stores a fingerprint.
func (t *MemoryTracker) CheckAndStore(ctx context.Context, entry *SeenEntry, ttl time.Duration) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		DedupOperationsTotal.WithLabelValues("check", "failure").Inc()
		return false, ErrTrackerClosed
	}

	// Check if already inside the suppression window
	if existing, ok := t.entries[entry.Fingerprint]; ok {
		if time.Now().Before(existing.ExpiresAt) {
			DedupOperationsTotal.WithLabelValues("check", "duplicate").Inc()
			DedupDuplicatesTotal.Inc()
			logging.Debug().
				Str("fingerprint", entry.Fingerprint).
				Time("first_seen", existing.FirstSeen).
				Msg("Duplicate signal suppressed")
			return false, nil
		}
		// Window expired, fingerprint can be accepted again
	}

	entry.FirstSeen = time.Now()
	entry.ExpiresAt = time.Now().Add(ttl)
	t.entries[entry.Fingerprint] = entry

	DedupOperationsTotal.WithLabelValues("store", "success").Inc()
	DedupTrackedFingerprints.Set(float64(len(t.entries)))

	return true, nil
}

// IsSeen checks whether a fingerprint is inside its suppression window.
func (t *MemoryTracker) IsSeen(ctx context.Context, fingerprint string) (bool, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.closed {
		return false, ErrTrackerClosed
	}

	entry, ok := t.entries[fingerprint]
	if !ok {
		return false, nil
	}

	if time.Now().After(entry.ExpiresAt) {
		return false, nil
	}

	return true, nil
}

// CleanupExpired removes expired entries.
func (t *MemoryTracker) CleanupExpired(ctx context.Context) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return 0, ErrTrackerClosed
	}

	count := 0
	now := time.Now()
	for fp, entry := range t.entries {
		if now.After(entry.ExpiresAt) {
			delete(t.entries, fp)
			count++
		}
	}

	DedupOperationsTotal.WithLabelValues("cleanup", "success").Inc()
	DedupCleanedUpTotal.Add(float64(count))
	DedupTrackedFingerprints.Set(float64(len(t.entries)))

	return count, nil
}

// Size returns the number of entries.
func (t *MemoryTracker) Size(ctx context.Context) (int, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.closed {
		return 0, ErrTrackerClosed
	}

	return len(t.entries), nil
}

// Close closes the tracker.
func (t *MemoryTracker) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	t.entries = nil
	return nil
}

// BadgerTracker is a BadgerDB-backed fingerprint tracker for production use.
// TTL entries survive restarts, so the suppression window does too.
type BadgerTracker struct {
	db     *badger.DB
	prefix []byte
	ownsDB bool
	closed bool
	mu     sync.RWMutex
}

// NewBadgerTracker creates a new BadgerDB-backed fingerprint tracker.
//
// Parameters:
//   - db: BadgerDB instance (may be shared with other components)
//   - prefix: Key prefix for fingerprint entries (default: "fp:")
func NewBadgerTracker(db *badger.DB, prefix string) *BadgerTracker {
	if prefix == "" {
		prefix = "fp:"
	}
	return &BadgerTracker{
		db:     db,
		prefix: []byte(prefix),
	}
}

// makeKey creates a BadgerDB key for a fingerprint.
func (t *BadgerTracker) makeKey(fingerprint string) []byte {
	return append(append([]byte{}, t.prefix...), []byte(fingerprint)...)
}

// CheckAndStore atomically checks and stores a fingerprint.
func (t *BadgerTracker) CheckAndStore(ctx context.Context, entry *SeenEntry, ttl time.Duration) (bool, error) {
	t.mu.RLock()
	if t.closed {
		t.mu.RUnlock()
		DedupOperationsTotal.WithLabelValues("check", "failure").Inc()
		return false, ErrTrackerClosed
	}
	t.mu.RUnlock()

	key := t.makeKey(entry.Fingerprint)
	firstSeen := false

	err := t.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err == nil {
			// Entry exists; Badger served it, so its TTL has not lapsed.
			// Double-check our own expiry stamp in case of clock drift.
			var existing SeenEntry
			if valErr := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &existing)
			}); valErr == nil {
				if time.Now().Before(existing.ExpiresAt) {
					DedupOperationsTotal.WithLabelValues("check", "duplicate").Inc()
					DedupDuplicatesTotal.Inc()
					logging.Debug().
						Str("fingerprint", entry.Fingerprint).
						Time("first_seen", existing.FirstSeen).
						Msg("Duplicate signal suppressed")
					return nil
				}
			}
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		entry.FirstSeen = time.Now()
		entry.ExpiresAt = time.Now().Add(ttl)

		data, err := json.Marshal(entry)
		if err != nil {
			return err
		}

		firstSeen = true
		e := badger.NewEntry(key, data).WithTTL(ttl)
		return txn.SetEntry(e)
	})

	if err != nil {
		DedupOperationsTotal.WithLabelValues("store", "failure").Inc()
		return false, err
	}

	if firstSeen {
		DedupOperationsTotal.WithLabelValues("store", "success").Inc()
	}
	return firstSeen, nil
}

// IsSeen checks whether a fingerprint is inside its suppression window.
func (t *BadgerTracker) IsSeen(ctx context.Context, fingerprint string) (bool, error) {
	t.mu.RLock()
	if t.closed {
		t.mu.RUnlock()
		return false, ErrTrackerClosed
	}
	t.mu.RUnlock()

	key := t.makeKey(fingerprint)
	var seen bool

	err := t.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			seen = false
			return nil
		}
		if err != nil {
			return err
		}

		var entry SeenEntry
		return item.Value(func(val []byte) error {
			if err := json.Unmarshal(val, &entry); err != nil {
				return err
			}
			seen = time.Now().Before(entry.ExpiresAt)
			return nil
		})
	})

	return seen, err
}

// CleanupExpired removes expired entries.
// Note: BadgerDB expires TTL entries automatically; this forces reclamation.
func (t *BadgerTracker) CleanupExpired(ctx context.Context) (int, error) {
	t.mu.RLock()
	if t.closed {
		t.mu.RUnlock()
		return 0, ErrTrackerClosed
	}
	t.mu.RUnlock()

	count := 0
	now := time.Now()

	err := t.db.Update(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = t.prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		var keysToDelete [][]byte

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			var entry SeenEntry
			err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			})
			if err != nil {
				continue
			}

			if now.After(entry.ExpiresAt) {
				key := make([]byte, len(item.Key()))
				copy(key, item.Key())
				keysToDelete = append(keysToDelete, key)
			}
		}

		for _, key := range keysToDelete {
			if err := txn.Delete(key); err != nil {
				return err
			}
			count++
		}

		return nil
	})

	if err != nil {
		DedupOperationsTotal.WithLabelValues("cleanup", "failure").Inc()
		return count, err
	}

	DedupOperationsTotal.WithLabelValues("cleanup", "success").Inc()
	DedupCleanedUpTotal.Add(float64(count))

	return count, nil
}

// Size returns the approximate number of entries.
func (t *BadgerTracker) Size(ctx context.Context) (int, error) {
	t.mu.RLock()
	if t.closed {
		t.mu.RUnlock()
		return 0, ErrTrackerClosed
	}
	t.mu.RUnlock()

	count := 0
	err := t.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = t.prefix
		opts.PrefetchValues = false // We only need to count keys
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})

	DedupTrackedFingerprints.Set(float64(count))
	return count, err
}

// Close closes the tracker, and the underlying DB when this tracker owns it.
func (t *BadgerTracker) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	if t.ownsDB {
		return t.db.Close()
	}
	return nil
}

// Open creates a Tracker for the given backend ("memory" or "badger").
// The badger backend opens and owns its database at path.
func Open(backend, path string) (Tracker, error) {
	switch backend {
	case "badger":
		opts := badger.DefaultOptions(path)
		opts.Logger = nil // zerolog is the process logger, badger's own output is noise
		db, err := badger.Open(opts)
		if err != nil {
			return nil, fmt.Errorf("failed to open badger dedup store at %s: %w", path, err)
		}
		tracker := NewBadgerTracker(db, "fp:")
		tracker.ownsDB = true
		return tracker, nil
	case "memory", "":
		return NewMemoryTracker(), nil
	default:
		return nil, fmt.Errorf("unknown dedup backend: %s", backend)
	}
}

// StartCleanupRoutine starts a background routine to periodically clean up
// expired fingerprints. Returns a channel to stop the routine.
func StartCleanupRoutine(tracker Tracker, interval time.Duration) chan struct{} {
	done := make(chan struct{})

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				count, err := tracker.CleanupExpired(ctx)
				cancel()

				if err != nil {
					logging.Error().Err(err).Msg("Dedup cleanup failed")
				} else if count > 0 {
					logging.Debug().Int("count", count).Msg("Dedup cleanup completed")
				}

			case <-done:
				return
			}
		}
	}()

	return done
}
