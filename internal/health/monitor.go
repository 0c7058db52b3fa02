// Signalmesh - Webhook Trade Signal Fan-Out Across Decentralized Exchanges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signalmesh

// Package health watches DEX adapter liveness from two angles.
//
// The Aggregator is synchronous: the public health endpoint calls it and it
// probes every adapter in parallel for an instant composite view.
//
// The Monitor is a background loop off the request path. It probes on a
// fixed cadence, tracks consecutive failures per adapter, drives the
// healthy/degraded/offline state machine with transition alerts, and
// schedules exponential-backoff reconnection when an adapter goes offline.
// The loop is supervised; it catches everything so the scheduler is never
// lost to a misbehaving adapter.
package health

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/tomtom215/signalmesh/internal/alerts"
	"github.com/tomtom215/signalmesh/internal/dex"
	"github.com/tomtom215/signalmesh/internal/logging"
	"github.com/tomtom215/signalmesh/internal/metrics"
	"github.com/tomtom215/signalmesh/internal/models"
)

// Monitor defaults.
const (
	DefaultCheckInterval        = 30 * time.Second
	DefaultProbeTimeout         = 10 * time.Second
	DefaultMaxFailures          = 3
	DefaultMaxBackoff           = 30 * time.Second
	DefaultReconnectMaxAttempts = 10

	reconnectBackoffBase = time.Second
)

// AlertSink is the transition-alert surface. Satisfied by
// *alerts.Dispatcher.
type AlertSink interface {
	Send(ctx context.Context, alert alerts.Alert)
}

// ErrorLog is the async error-log surface. Satisfied by
// *store.ErrorRecorder.
type ErrorLog interface {
	Record(level models.ErrorLevel, category models.ErrorCode, message, contextBlob string)
}

// MonitorConfig holds monitor tuning. Zero values fall back to the package
// defaults.
type MonitorConfig struct {
	CheckInterval        time.Duration
	ProbeTimeout         time.Duration
	MaxFailures          int
	MaxBackoff           time.Duration
	ReconnectMaxAttempts int
}

// adapterState is the monitor's view of one adapter. Guarded by Monitor.mu.
type adapterState struct {
	failures     int
	status       models.HealthStatus
	reconnecting bool
}

// Monitor is the background adapter health loop.
type Monitor struct {
	registry  *dex.Registry
	alertSink AlertSink
	errorLog  ErrorLog

	interval      time.Duration
	probeTimeout  time.Duration
	maxFailures   int
	maxBackoff    time.Duration
	maxReconnects int
	backoffBase   time.Duration

	mu     sync.Mutex
	states map[string]*adapterState

	randMu sync.Mutex
	//nolint:gosec // G404: weak random is fine for backoff jitter
	rng *rand.Rand

	reconnects sync.WaitGroup
}

// NewMonitor creates a monitor. alertSink and errorLog may be nil; alerts
// and reconnect-exhaustion records are then dropped silently.
func NewMonitor(registry *dex.Registry, alertSink AlertSink, errorLog ErrorLog, cfg MonitorConfig) *Monitor {
	interval := cfg.CheckInterval
	if interval <= 0 {
		interval = DefaultCheckInterval
	}
	probeTimeout := cfg.ProbeTimeout
	if probeTimeout <= 0 {
		probeTimeout = DefaultProbeTimeout
	}
	maxFailures := cfg.MaxFailures
	if maxFailures <= 0 {
		maxFailures = DefaultMaxFailures
	}
	maxBackoff := cfg.MaxBackoff
	if maxBackoff <= 0 {
		maxBackoff = DefaultMaxBackoff
	}
	maxReconnects := cfg.ReconnectMaxAttempts
	if maxReconnects <= 0 {
		maxReconnects = DefaultReconnectMaxAttempts
	}
	return &Monitor{
		registry:      registry,
		alertSink:     alertSink,
		errorLog:      errorLog,
		interval:      interval,
		probeTimeout:  probeTimeout,
		maxFailures:   maxFailures,
		maxBackoff:    maxBackoff,
		maxReconnects: maxReconnects,
		backoffBase:   reconnectBackoffBase,
		states:        make(map[string]*adapterState),
		//nolint:gosec // G404: weak random is fine for backoff jitter
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Run probes on the configured cadence until the context is cancelled.
// Suture-compatible; state survives a restart because it lives on the
// monitor, not the loop.
func (m *Monitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.runCycle(ctx)
	for {
		select {
		case <-ctx.Done():
			m.reconnects.Wait()
			return ctx.Err()
		case <-ticker.C:
			m.runCycle(ctx)
		}
	}
}

// String names the monitor in the supervision tree.
func (m *Monitor) String() string {
	return "health-monitor"
}

// StatusOf reports the monitor's view of one adapter: its state, the
// consecutive failure count, and whether a reconnect is in flight.
func (m *Monitor) StatusOf(id string) (models.HealthStatus, int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.states[id]
	if !ok {
		return models.HealthHealthy, 0, false
	}
	return st.status, st.failures, st.reconnecting
}

// runCycle probes every adapter concurrently, skipping those mid-reconnect.
// Nothing escapes: a panic is logged and the next tick still happens.
func (m *Monitor) runCycle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error().Interface("panic", r).Msg("Health check cycle panicked")
			if m.errorLog != nil {
				m.errorLog.Record(models.LevelError, models.CodeHealthCheckFailed,
					fmt.Sprintf("health check cycle panicked: %v", r), "")
			}
		}
	}()

	var wg sync.WaitGroup
	for _, adapter := range m.registry.All() {
		if m.isReconnecting(adapter.ID()) {
			continue
		}
		wg.Add(1)
		go func(adapter dex.Adapter) {
			defer wg.Done()
			m.probeOne(ctx, adapter)
		}(adapter)
	}
	wg.Wait()
}

// probeOne runs one bounded probe and feeds the state machine.
func (m *Monitor) probeOne(ctx context.Context, adapter dex.Adapter) {
	start := time.Now()
	sample := m.boundedProbe(ctx, adapter)
	success := sample.Status == models.HealthHealthy
	metrics.RecordHealthProbe(adapter.ID(), success, time.Since(start))

	if success {
		m.handleSuccess(ctx, adapter)
	} else {
		m.handleFailure(ctx, adapter, sample.ErrorMessage)
	}
}

// boundedProbe bounds the probe by the configured timeout even against an
// adapter that ignores its context, and converts a probe panic into an
// offline sample.
func (m *Monitor) boundedProbe(ctx context.Context, adapter dex.Adapter) models.HealthSample {
	probeCtx, cancel := context.WithTimeout(ctx, m.probeTimeout)
	defer cancel()

	samples := make(chan models.HealthSample, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				samples <- models.HealthSample{
					Status:       models.HealthOffline,
					ObservedAt:   time.Now().UTC(),
					ErrorMessage: fmt.Sprintf("probe panic: %v", r),
				}
			}
		}()
		samples <- adapter.HealthProbe(probeCtx)
	}()

	select {
	case s := <-samples:
		return s
	case <-probeCtx.Done():
		return models.HealthSample{
			Status:       models.HealthOffline,
			ObservedAt:   time.Now().UTC(),
			ErrorMessage: "health probe timed out",
		}
	}
}

// handleSuccess resets the failure counter and emits a recovery alert when
// the adapter was previously degraded or offline.
//
// A probe can reach the venue while the adapter holds no session: the
// reconnect budget may have run out while the venue was down, or the initial
// connect may have failed. The venue answering again is the signal to re-arm
// reconnection, so that case schedules a fresh connect instead of flipping
// the status.
func (m *Monitor) handleSuccess(ctx context.Context, adapter dex.Adapter) {
	id := adapter.ID()
	connected := adapter.IsConnected()

	m.mu.Lock()
	st := m.stateFor(id)
	prev := st.status
	if !connected {
		schedule := !st.reconnecting
		if schedule {
			st.reconnecting = true
		}
		m.mu.Unlock()

		if schedule {
			logging.Info().Str("dex", id).Msg("Venue reachable but adapter disconnected, scheduling reconnect")
			m.reconnects.Add(1)
			go func() {
				defer m.reconnects.Done()
				m.reconnect(ctx, adapter)
			}()
		}
		return
	}
	st.failures = 0
	st.status = models.HealthHealthy
	m.mu.Unlock()

	metrics.SetAdapterStatus(id, metrics.StatusHealthy)

	if prev == models.HealthDegraded || prev == models.HealthOffline {
		logging.Info().
			Str("dex", id).
			Str("previous_status", string(prev)).
			Msg("Adapter recovered")
		m.send(ctx, alerts.New(alerts.CategoryAdapterRecovered, alerts.SeverityInfo, id,
			fmt.Sprintf("adapter %s recovered", id)).
			WithDetail("previous_status", string(prev)))
	}
}

// handleFailure advances the failure counter, applies the threshold rule,
// emits a transition alert on change, and schedules reconnection on the
// transition into offline.
func (m *Monitor) handleFailure(ctx context.Context, adapter dex.Adapter, errMsg string) {
	id := adapter.ID()

	m.mu.Lock()
	st := m.stateFor(id)
	st.failures++
	failures := st.failures
	prev := st.status

	next := models.HealthDegraded
	if failures >= m.maxFailures {
		next = models.HealthOffline
	}
	st.status = next

	schedule := next == models.HealthOffline && prev != models.HealthOffline && !st.reconnecting
	if schedule {
		st.reconnecting = true
	}
	m.mu.Unlock()

	if next == models.HealthOffline {
		metrics.SetAdapterStatus(id, metrics.StatusOffline)
	} else {
		metrics.SetAdapterStatus(id, metrics.StatusDegraded)
	}

	if next != prev {
		m.alertTransition(ctx, id, next, failures, errMsg)
	}

	if schedule {
		m.reconnects.Add(1)
		go func() {
			defer m.reconnects.Done()
			m.reconnect(ctx, adapter)
		}()
	}
}

// alertTransition logs and emits one state-change alert.
func (m *Monitor) alertTransition(ctx context.Context, id string, next models.HealthStatus, failures int, errMsg string) {
	if next == models.HealthOffline {
		logging.Error().
			Str("dex", id).
			Int("consecutive_failures", failures).
			Str("error", errMsg).
			Msg("Adapter offline")
		m.send(ctx, alerts.New(alerts.CategoryAdapterOffline, alerts.SeverityCritical, id,
			fmt.Sprintf("adapter %s offline after %d consecutive probe failures", id, failures)).
			WithDetail("consecutive_failures", failures).
			WithDetail("error", errMsg))
		return
	}
	logging.Warn().
		Str("dex", id).
		Int("consecutive_failures", failures).
		Str("error", errMsg).
		Msg("Adapter degraded")
	m.send(ctx, alerts.New(alerts.CategoryAdapterDegraded, alerts.SeverityWarning, id,
		fmt.Sprintf("adapter %s degraded (%d consecutive probe failures)", id, failures)).
		WithDetail("consecutive_failures", failures).
		WithDetail("error", errMsg))
}

// reconnect runs the backoff reconnection loop for one offline adapter. At
// most one runs per adapter; the reconnecting flag is cleared on every exit
// path. The final error is logged, never propagated.
func (m *Monitor) reconnect(ctx context.Context, adapter dex.Adapter) {
	id := adapter.ID()
	defer func() {
		if r := recover(); r != nil {
			logging.Error().Str("dex", id).Interface("panic", r).Msg("Reconnect panicked")
		}
		m.setReconnecting(id, false)
	}()

	for attempt := 1; attempt <= m.maxReconnects; attempt++ {
		if ctx.Err() != nil {
			return
		}

		err := m.attemptReconnect(ctx, adapter)
		if err == nil {
			metrics.RecordReconnectAttempt(id, "success")
			logging.Info().Str("dex", id).Int("attempt", attempt).Msg("Adapter reconnected")
			// Status stays offline here: the next monitor cycle verifies
			// the connection and emits the recovery alert.
			return
		}
		metrics.RecordReconnectAttempt(id, "failure")
		logging.Warn().
			Str("dex", id).
			Int("attempt", attempt).
			Int("max_attempts", m.maxReconnects).
			Err(err).
			Msg("Reconnect attempt failed")

		if attempt == m.maxReconnects {
			m.reconnectExhausted(ctx, id, err)
			return
		}

		select {
		case <-time.After(m.backoffDelay(attempt)):
		case <-ctx.Done():
			return
		}
	}
}

// attemptReconnect performs one disconnect, connect, verification-probe
// sequence. A disconnect error does not abort the attempt; the adapter may
// already be torn down.
func (m *Monitor) attemptReconnect(ctx context.Context, adapter dex.Adapter) error {
	discCtx, cancel := context.WithTimeout(ctx, m.probeTimeout)
	if err := adapter.Disconnect(discCtx); err != nil {
		logging.Debug().Str("dex", adapter.ID()).Err(err).Msg("Disconnect before reconnect failed")
	}
	cancel()

	connCtx, cancel := context.WithTimeout(ctx, m.probeTimeout)
	err := adapter.Connect(connCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	sample := m.boundedProbe(ctx, adapter)
	if sample.Status != models.HealthHealthy {
		return fmt.Errorf("verification probe returned %s: %s", sample.Status, sample.ErrorMessage)
	}
	return nil
}

// reconnectExhausted records the give-up: error log entry plus a critical
// alert. The adapter stays offline until a later cycle or operator action
// brings it back.
func (m *Monitor) reconnectExhausted(ctx context.Context, id string, lastErr error) {
	logging.Error().
		Str("dex", id).
		Int("attempts", m.maxReconnects).
		Err(lastErr).
		Msg("Reconnect attempts exhausted")
	if m.errorLog != nil {
		m.errorLog.Record(models.LevelError, models.CodeDEXConnectionFailed,
			fmt.Sprintf("adapter %s still offline after %d reconnect attempts: %v", id, m.maxReconnects, lastErr), "")
	}
	m.send(ctx, alerts.New(alerts.CategoryReconnectFailed, alerts.SeverityCritical, id,
		fmt.Sprintf("adapter %s reconnection gave up after %d attempts", id, m.maxReconnects)).
		WithDetail("attempts", m.maxReconnects).
		WithDetail("last_error", lastErr.Error()))
}

// backoffDelay computes min(base * 2^(attempt-1), cap) with uniform jitter
// in [0.8, 1.2].
func (m *Monitor) backoffDelay(attempt int) time.Duration {
	delay := m.backoffBase << (attempt - 1)
	if delay <= 0 || delay > m.maxBackoff {
		delay = m.maxBackoff
	}

	m.randMu.Lock()
	jitter := 0.8 + 0.4*m.rng.Float64()
	m.randMu.Unlock()

	return time.Duration(float64(delay) * jitter)
}

// stateFor returns the tracked state for id, creating the initial
// (healthy, zero failures) entry on first sight. Caller holds mu.
func (m *Monitor) stateFor(id string) *adapterState {
	st, ok := m.states[id]
	if !ok {
		st = &adapterState{status: models.HealthHealthy}
		m.states[id] = st
	}
	return st
}

func (m *Monitor) isReconnecting(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.states[id]
	return ok && st.reconnecting
}

func (m *Monitor) setReconnecting(id string, v bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stateFor(id).reconnecting = v
}

// send forwards one alert when a sink is configured.
func (m *Monitor) send(ctx context.Context, alert alerts.Alert) {
	if m.alertSink == nil {
		return
	}
	m.alertSink.Send(ctx, alert)
}
