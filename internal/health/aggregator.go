// Signalmesh - Webhook Trade Signal Fan-Out Across Decentralized Exchanges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signalmesh

package health

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tomtom215/signalmesh/internal/dex"
	"github.com/tomtom215/signalmesh/internal/models"
)

// errorWindow is the span of the rolling per-adapter probe-failure count.
const errorWindow = 5 * time.Minute

// Aggregator builds the on-demand composite health view served by the public
// health endpoint. Every call probes all registered adapters in parallel; a
// probe that panics is wrapped as an offline sample rather than taking down
// the endpoint.
//
// The aggregator also keeps a rolling 5-minute failure count per adapter.
// The count is informational: it rides along in the composite view but plays
// no part in the aggregation rule.
type Aggregator struct {
	registry  *dex.Registry
	timeout   time.Duration
	testMode  bool
	startedAt time.Time

	mu          sync.Mutex
	failures    map[string][]time.Time
	lastSuccess map[string]time.Time
}

// AggregatorConfig holds aggregator tuning.
type AggregatorConfig struct {
	// ProbeTimeout bounds each adapter probe. Non-positive falls back
	// to 10s.
	ProbeTimeout time.Duration

	// TestMode is surfaced verbatim in the composite view.
	TestMode bool
}

// NewAggregator creates an aggregator over the adapter registry.
func NewAggregator(registry *dex.Registry, cfg AggregatorConfig) *Aggregator {
	timeout := cfg.ProbeTimeout
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	return &Aggregator{
		registry:    registry,
		timeout:     timeout,
		testMode:    cfg.TestMode,
		startedAt:   time.Now().UTC(),
		failures:    make(map[string][]time.Time),
		lastSuccess: make(map[string]time.Time),
	}
}

// Snapshot probes every registered adapter in parallel and returns the
// composite view. Aggregation rule: all healthy (or no adapters) is healthy,
// all offline is offline, any mix is degraded.
func (a *Aggregator) Snapshot(ctx context.Context) models.CompositeHealth {
	adapters := a.registry.All()
	composite := models.CompositeHealth{
		TestMode:      a.testMode,
		UptimeSeconds: int64(time.Since(a.startedAt).Seconds()),
		DEXStatus:     make(map[string]models.AdapterHealth, len(adapters)),
		Timestamp:     time.Now().UTC(),
	}
	if len(adapters) == 0 {
		composite.Status = models.HealthHealthy
		return composite
	}

	type probeResult struct {
		id     string
		sample models.HealthSample
	}
	results := make(chan probeResult, len(adapters))
	for _, adapter := range adapters {
		go func(adapter dex.Adapter) {
			results <- probeResult{adapter.ID(), a.probe(ctx, adapter)}
		}(adapter)
	}

	healthy, offline := 0, 0
	for range adapters {
		r := <-results
		entry := a.record(r.id, r.sample)
		composite.DEXStatus[r.id] = entry
		switch entry.Status {
		case models.HealthHealthy:
			healthy++
		case models.HealthOffline:
			offline++
		}
	}

	switch {
	case healthy == len(adapters):
		composite.Status = models.HealthHealthy
	case offline == len(adapters):
		composite.Status = models.HealthOffline
	default:
		composite.Status = models.HealthDegraded
	}
	return composite
}

// probe runs one bounded adapter probe, converting a panic into an offline
// sample.
func (a *Aggregator) probe(ctx context.Context, adapter dex.Adapter) (sample models.HealthSample) {
	defer func() {
		if r := recover(); r != nil {
			sample = models.HealthSample{
				Status:       models.HealthOffline,
				ObservedAt:   time.Now().UTC(),
				ErrorMessage: fmt.Sprintf("probe panic: %v", r),
			}
		}
	}()

	probeCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	return adapter.HealthProbe(probeCtx)
}

// record folds one sample into the rolling failure window and returns the
// per-adapter health entry.
func (a *Aggregator) record(id string, sample models.HealthSample) models.AdapterHealth {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := time.Now().UTC()
	if sample.Status == models.HealthHealthy {
		delete(a.failures, id)
		a.lastSuccess[id] = now
	} else {
		a.failures[id] = append(pruneBefore(a.failures[id], now.Add(-errorWindow)), now)
	}

	entry := models.AdapterHealth{
		Status:     sample.Status,
		LatencyMS:  sample.LatencyMS,
		ErrorCount: int64(len(a.failures[id])),
	}
	if sample.ErrorMessage != "" {
		msg := sample.ErrorMessage
		entry.ErrorMessage = &msg
	}
	if last, ok := a.lastSuccess[id]; ok {
		t := last
		entry.LastSuccessful = &t
	}
	return entry
}

// pruneBefore drops timestamps older than cutoff, in place.
func pruneBefore(stamps []time.Time, cutoff time.Time) []time.Time {
	kept := stamps[:0]
	for _, s := range stamps {
		if s.After(cutoff) {
			kept = append(kept, s)
		}
	}
	return kept
}
