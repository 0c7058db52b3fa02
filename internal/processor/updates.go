// Signalmesh - Webhook Trade Signal Fan-Out Across Decentralized Exchanges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signalmesh

package processor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tomtom215/signalmesh/internal/alerts"
	"github.com/tomtom215/signalmesh/internal/logging"
	"github.com/tomtom215/signalmesh/internal/metrics"
	"github.com/tomtom215/signalmesh/internal/models"
)

// AlertSink is the terminal-order alert surface. Satisfied by
// *alerts.Dispatcher.
type AlertSink interface {
	Send(ctx context.Context, alert alerts.Alert)
}

const (
	// DefaultUpdateQueueSize bounds updates waiting for the relay worker.
	DefaultUpdateQueueSize = 256

	// maxTrackedOrders caps the external-order-id index. Orders resolve in
	// minutes; the cap only matters if an exchange stops emitting terminal
	// events.
	maxTrackedOrders = 10000

	// orderRefTTL is how long an unresolved order stays in the index before
	// eviction may reclaim it.
	orderRefTTL = time.Hour
)

// orderRef ties an exchange order id back to the signal that produced it.
type orderRef struct {
	fingerprint string
	adapterID   string
	trackedAt   time.Time
}

// UpdateRelay turns adapter push streams into execution refinement records.
//
// Dispatch remembers each acknowledged external order id via Track; when the
// exchange later pushes fill progress for that id, the relay appends an
// execution record with the refined status (the partial-fill audit trail)
// and raises an alert once the order reaches a terminal state.
//
// Accept is the adapter-facing sink and never blocks; a single worker
// started by Run owns all record writes. Updates for ids the relay is not
// tracking, such as orders from a previous process run, are counted and
// dropped.
type UpdateRelay struct {
	executions ExecutionLog
	errorLog   ErrorLog
	alerts     AlertSink
	testMode   bool

	mu     sync.Mutex
	orders map[string]orderRef

	queue chan models.OrderUpdate
}

// UpdateRelayConfig holds relay tuning.
type UpdateRelayConfig struct {
	// QueueSize bounds the pending-update queue. Non-positive falls back
	// to DefaultUpdateQueueSize.
	QueueSize int

	// TestMode marks refinement blobs with is_test_mode, matching the
	// dispatch-time records.
	TestMode bool
}

// NewUpdateRelay creates a relay. errorLog and alertSink may be nil.
func NewUpdateRelay(executions ExecutionLog, errorLog ErrorLog, alertSink AlertSink, cfg UpdateRelayConfig) *UpdateRelay {
	size := cfg.QueueSize
	if size <= 0 {
		size = DefaultUpdateQueueSize
	}
	return &UpdateRelay{
		executions: executions,
		errorLog:   errorLog,
		alerts:     alertSink,
		testMode:   cfg.TestMode,
		orders:     make(map[string]orderRef),
		queue:      make(chan models.OrderUpdate, size),
	}
}

// Track remembers which signal an acknowledged exchange order belongs to.
// Called by the processor after a successful submit; ids the exchange never
// assigned (empty) are ignored.
func (r *UpdateRelay) Track(externalOrderID, fingerprint, adapterID string) {
	if externalOrderID == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.orders) >= maxTrackedOrders {
		r.evictLocked()
	}
	r.orders[externalOrderID] = orderRef{
		fingerprint: fingerprint,
		adapterID:   adapterID,
		trackedAt:   time.Now(),
	}
}

// evictLocked reclaims index space: expired refs first, otherwise the
// oldest ref. Callers must hold the lock.
func (r *UpdateRelay) evictLocked() {
	cutoff := time.Now().Add(-orderRefTTL)
	evicted := false
	for id, ref := range r.orders {
		if ref.trackedAt.Before(cutoff) {
			delete(r.orders, id)
			evicted = true
		}
	}
	if evicted {
		return
	}

	var oldestID string
	var oldestAt time.Time
	for id, ref := range r.orders {
		if oldestID == "" || ref.trackedAt.Before(oldestAt) {
			oldestID, oldestAt = id, ref.trackedAt
		}
	}
	delete(r.orders, oldestID)
}

// Accept enqueues one push update. It satisfies dex.UpdateSink and never
// blocks: when the queue is full the update is dropped and counted, because
// stalling an adapter's read loop is worse than losing a refinement record.
func (r *UpdateRelay) Accept(update models.OrderUpdate) {
	select {
	case r.queue <- update:
	default:
		metrics.RecordOrderUpdate(update.AdapterID, "dropped")
		logging.Warn().
			Str("dex", update.AdapterID).
			Str("order", update.ExternalOrderID).
			Msg("Order update queue full, dropping update")
	}
}

// Run consumes the queue until ctx is done. Pending updates at shutdown are
// dropped; refinements are best-effort by design.
func (r *UpdateRelay) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update := <-r.queue:
			r.process(ctx, update)
		}
	}
}

// String implements fmt.Stringer for supervisor logs.
func (r *UpdateRelay) String() string {
	return "order-update-relay"
}

func (r *UpdateRelay) process(ctx context.Context, update models.OrderUpdate) {
	r.mu.Lock()
	ref, ok := r.orders[update.ExternalOrderID]
	if ok && update.Terminal() {
		delete(r.orders, update.ExternalOrderID)
	}
	r.mu.Unlock()

	if !ok {
		metrics.RecordOrderUpdate(update.AdapterID, "unknown_order")
		logging.Debug().
			Str("dex", update.AdapterID).
			Str("order", update.ExternalOrderID).
			Str("state", string(update.State)).
			Msg("Update for untracked order, dropping")
		return
	}

	status, refines := refinementStatus(update.State)
	if refines {
		r.record(ctx, ref, update, status)
	}
	if update.Terminal() {
		r.alertTerminal(ctx, ref, update)
	}
}

// record appends one refinement execution row. The store's partial
// coercion still applies: a cancel after a partial fill lands as partial.
func (r *UpdateRelay) record(ctx context.Context, ref orderRef, update models.OrderUpdate, status models.ExecutionStatus) {
	blob := models.ResultBlob{
		ExternalOrderID: update.ExternalOrderID,
		FilledAmount:    update.FilledAmount,
		RemainingAmount: update.RemainingAmount,
		IsTestMode:      r.testMode,
	}
	if update.State == models.OrderCancelled || update.State == models.OrderRejected {
		blob.ErrorMessage = "order " + string(update.State)
	}

	_, err := r.executions.RecordExecution(ctx, ref.fingerprint, ref.adapterID, update.ExternalOrderID, status, marshalBlob(blob), nil)
	if err != nil {
		metrics.RecordOrderUpdate(update.AdapterID, "error")
		logging.Error().
			Str("signal", ref.fingerprint).
			Str("dex", ref.adapterID).
			Str("order", update.ExternalOrderID).
			Err(err).
			Msg("Failed to record order update")
		if r.errorLog != nil {
			r.errorLog.Record(models.LevelError, models.CodeDatabaseError,
				fmt.Sprintf("failed to record update for order %s on %s: %v", update.ExternalOrderID, ref.adapterID, err), "")
		}
		return
	}
	metrics.RecordOrderUpdate(update.AdapterID, "recorded")
}

// alertTerminal raises the order_terminal alert: informational for a full
// fill, warning for a cancel or rejection.
func (r *UpdateRelay) alertTerminal(ctx context.Context, ref orderRef, update models.OrderUpdate) {
	if r.alerts == nil {
		return
	}

	severity := alerts.SeverityInfo
	if update.State != models.OrderFilled {
		severity = alerts.SeverityWarning
	}

	alert := alerts.New(alerts.CategoryOrderTerminal, severity, update.AdapterID,
		fmt.Sprintf("Order %s reached terminal state %s", update.ExternalOrderID, update.State)).
		WithDetail("signal", ref.fingerprint).
		WithDetail("state", string(update.State)).
		WithDetail("filled_amount", update.FilledAmount.String()).
		WithDetail("remaining_amount", update.RemainingAmount.String())
	r.alerts.Send(ctx, alert)
}

// refinementStatus maps a push state to the execution status recorded for
// it. Open acks repeat what dispatch already recorded and are skipped.
func refinementStatus(state models.OrderState) (models.ExecutionStatus, bool) {
	switch state {
	case models.OrderFilled:
		return models.ExecutionFilled, true
	case models.OrderPartialFilled:
		return models.ExecutionPartial, true
	case models.OrderCancelled, models.OrderRejected:
		return models.ExecutionFailed, true
	default:
		return "", false
	}
}

// TrackedOrders reports how many unresolved orders the relay is indexing.
func (r *UpdateRelay) TrackedOrders() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.orders)
}
