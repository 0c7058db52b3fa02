// Signalmesh - Webhook Trade Signal Fan-Out Across Decentralized Exchanges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signalmesh

package alerts

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/tomtom215/signalmesh/internal/logging"
	"github.com/tomtom215/signalmesh/internal/metrics"
	"github.com/tomtom215/signalmesh/internal/models"
)

// ErrorLog is the async error-log surface the dispatcher reports delivery
// failures through. Satisfied by *store.ErrorRecorder.
type ErrorLog interface {
	Record(level models.ErrorLevel, category models.ErrorCode, message, contextBlob string)
}

// DispatcherConfig holds dispatcher tuning.
type DispatcherConfig struct {
	// QueueSize bounds the in-memory alert backlog. Non-positive falls
	// back to 256.
	QueueSize int

	// ThrottlePerMinute caps deliveries per category per minute.
	// Non-positive disables throttling.
	ThrottlePerMinute int

	// DeliveryTimeout bounds one sink delivery. Non-positive falls back
	// to 5s.
	DeliveryTimeout time.Duration
}

// Dispatcher queues alerts and relays them to every configured sink from a
// single background worker. Send is non-blocking on all paths: a throttled
// category or a full queue drops the alert (counted, logged at debug) rather
// than stalling the health monitor or the request path.
type Dispatcher struct {
	sinks    []Sink
	queue    chan Alert
	errorLog ErrorLog
	timeout  time.Duration

	perMinute int
	mu        sync.Mutex
	limiters  map[Category]*rate.Limiter
}

// NewDispatcher creates a dispatcher over the given sinks. errorLog may be
// nil; delivery failures are then only visible in the process log.
func NewDispatcher(cfg DispatcherConfig, errorLog ErrorLog, sinks ...Sink) *Dispatcher {
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 256
	}
	timeout := cfg.DeliveryTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Dispatcher{
		sinks:     sinks,
		queue:     make(chan Alert, queueSize),
		errorLog:  errorLog,
		timeout:   timeout,
		perMinute: cfg.ThrottlePerMinute,
		limiters:  make(map[Category]*rate.Limiter),
	}
}

// Send enqueues one alert for delivery. Fire-and-forget: it never blocks and
// never reports failure to the caller.
func (d *Dispatcher) Send(_ context.Context, alert Alert) {
	if !d.allow(alert.Category) {
		metrics.RecordAlertDropped("throttled")
		logging.Debug().
			Str("category", string(alert.Category)).
			Str("dex", alert.DEX).
			Msg("Alert throttled")
		return
	}

	select {
	case d.queue <- alert:
	default:
		metrics.RecordAlertDropped("queue_full")
		logging.Warn().
			Str("category", string(alert.Category)).
			Str("dex", alert.DEX).
			Msg("Alert queue full, alert dropped")
	}
}

// allow consults the per-category limiter, creating it on first use.
func (d *Dispatcher) allow(category Category) bool {
	if d.perMinute <= 0 {
		return true
	}
	d.mu.Lock()
	limiter, ok := d.limiters[category]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(d.perMinute)), d.perMinute)
		d.limiters[category] = limiter
	}
	d.mu.Unlock()
	return limiter.Allow()
}

// Run relays queued alerts until the context is cancelled. It is
// suture-compatible: queued alerts survive a worker restart because the
// queue lives on the dispatcher, not the worker.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			d.drain()
			return ctx.Err()
		case alert := <-d.queue:
			d.deliver(ctx, alert)
		}
	}
}

// drain makes one best-effort pass over alerts still queued at shutdown.
func (d *Dispatcher) drain() {
	for {
		select {
		case alert := <-d.queue:
			d.deliver(context.Background(), alert)
		default:
			return
		}
	}
}

// deliver pushes one alert to every sink. Sink failures are independent.
func (d *Dispatcher) deliver(ctx context.Context, alert Alert) {
	for _, sink := range d.sinks {
		deliverCtx, cancel := context.WithTimeout(ctx, d.timeout)
		err := sink.Deliver(deliverCtx, alert)
		cancel()

		if err != nil {
			logging.Error().
				Str("sink", sink.Name()).
				Str("category", string(alert.Category)).
				Err(err).
				Msg("Alert delivery failed")
			if d.errorLog != nil {
				d.errorLog.Record(models.LevelError, models.CodeAlertSendFailed,
					fmt.Sprintf("sink %s failed to deliver %s alert: %v", sink.Name(), alert.Category, err), "")
			}
			continue
		}
		metrics.RecordAlertSent(string(alert.Severity), sink.Name())
	}
}

// Close closes every sink. Call after Run has returned.
func (d *Dispatcher) Close() error {
	var firstErr error
	for _, sink := range d.sinks {
		if err := sink.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// String names the dispatcher in the supervision tree.
func (d *Dispatcher) String() string {
	return "alert-relay"
}
