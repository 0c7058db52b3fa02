// Signalmesh - Webhook Trade Signal Fan-Out Across Decentralized Exchanges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signalmesh

package dex

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/signalmesh/internal/logging"
	"github.com/tomtom215/signalmesh/internal/metrics"
	"github.com/tomtom215/signalmesh/internal/models"
)

// BreakerAdapter decorates an Adapter with a circuit breaker around its
// order operations, so a venue that is down fails submissions fast instead
// of eating the fan-out deadline on every signal.
//
// Only SubmitOrder, OrderStatus, CancelOrder, and Position go through the
// breaker. Lifecycle calls and HealthProbe bypass it: the health monitor
// must always see the real venue, and its probes are what drive recovery.
//
// Venue rejections count as breaker successes. A rejection means the venue
// is alive and answering; only infrastructure failures (timeout, connection,
// signature) should open the circuit.
//
// DETERMINISM NOTE: the breaker uses real time (via sony/gobreaker) for its
// interval and timeout bookkeeping. Tests that need exact timing should
// exercise the wrapped adapter directly.
type BreakerAdapter struct {
	inner Adapter
	cb    *gobreaker.CircuitBreaker[any]
	name  string
}

// WrapWithBreaker decorates inner with a circuit breaker.
//
// Breaker configuration:
//   - Max 3 concurrent requests in half-open state
//   - 1 minute measurement window
//   - 30 second open period, matching the health probe cadence
//   - Opens at a 60% failure rate over at least 5 requests
func WrapWithBreaker(inner Adapter) *BreakerAdapter {
	name := inner.ID()

	metrics.CircuitBreakerState.WithLabelValues(name).Set(0) // 0 = closed

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= 0.6
			if shouldTrip {
				logging.Warn().
					Str("dex", name).
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", failureRatio*100).
					Msg("[CIRCUIT BREAKER] Opening circuit")
			}
			return shouldTrip
		},

		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var ae *AdapterError
			if errors.As(err, &ae) {
				return ae.Kind == FailureRejection
			}
			return false
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)

			logging.Info().
				Str("dex", name).
				Str("from", fromStr).
				Str("to", toStr).
				Msg("[CIRCUIT BREAKER] State transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},
	})

	return &BreakerAdapter{inner: inner, cb: cb, name: name}
}

// execute runs fn through the breaker, translating breaker rejections into
// retryable connection errors so callers see one failure taxonomy.
func (b *BreakerAdapter) execute(fn func() (any, error)) (any, error) {
	result, err := b.cb.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			logging.Warn().Str("dex", b.name).Err(err).Msg("[CIRCUIT BREAKER] Request rejected")
			return nil, NewConnectionError(b.name, "circuit open", err)
		}
		return nil, err
	}
	return result, nil
}

// castResult safely type-casts a breaker result with error checking.
func castResult[T any](result any, err error) (*T, error) {
	if err != nil {
		return nil, err
	}
	typed, ok := result.(*T)
	if !ok {
		return nil, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// ID returns the wrapped adapter's ID.
func (b *BreakerAdapter) ID() string { return b.inner.ID() }

// Connect passes through; connection attempts must not be gated by a
// breaker that those same attempts are supposed to reset.
func (b *BreakerAdapter) Connect(ctx context.Context) error { return b.inner.Connect(ctx) }

// Disconnect passes through.
func (b *BreakerAdapter) Disconnect(ctx context.Context) error { return b.inner.Disconnect(ctx) }

// IsConnected passes through.
func (b *BreakerAdapter) IsConnected() bool { return b.inner.IsConnected() }

// SubmitOrder submits through the breaker.
func (b *BreakerAdapter) SubmitOrder(ctx context.Context, req models.OrderRequest) (*models.SubmissionResult, error) {
	return castResult[models.SubmissionResult](b.execute(func() (any, error) {
		return b.inner.SubmitOrder(ctx, req)
	}))
}

// OrderStatus queries through the breaker.
func (b *BreakerAdapter) OrderStatus(ctx context.Context, externalOrderID string) (*models.OrderStatusInfo, error) {
	return castResult[models.OrderStatusInfo](b.execute(func() (any, error) {
		return b.inner.OrderStatus(ctx, externalOrderID)
	}))
}

// CancelOrder cancels through the breaker.
func (b *BreakerAdapter) CancelOrder(ctx context.Context, externalOrderID string) error {
	_, err := b.execute(func() (any, error) {
		return nil, b.inner.CancelOrder(ctx, externalOrderID)
	})
	return err
}

// Position queries through the breaker. A flat position is (nil, nil) from
// the inner adapter, which the breaker treats as success.
func (b *BreakerAdapter) Position(ctx context.Context, symbol string) (*models.Position, error) {
	result, err := b.execute(func() (any, error) {
		return b.inner.Position(ctx, symbol)
	})
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, nil
	}
	pos, ok := result.(*models.Position)
	if !ok {
		return nil, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return pos, nil
}

// HealthProbe bypasses the breaker so the monitor observes the real venue.
func (b *BreakerAdapter) HealthProbe(ctx context.Context) models.HealthSample {
	return b.inner.HealthProbe(ctx)
}

// SubscribeUpdates delegates to the wrapped adapter's stream capability,
// falling back to the package no-op when it has none. Stream setup is
// connection lifecycle, not a request path, so it bypasses the breaker.
func (b *BreakerAdapter) SubscribeUpdates(ctx context.Context, sink UpdateSink) (Subscription, error) {
	return SubscribeUpdates(ctx, b.inner, sink)
}

// State returns the current breaker state for diagnostics.
func (b *BreakerAdapter) State() gobreaker.State { return b.cb.State() }
