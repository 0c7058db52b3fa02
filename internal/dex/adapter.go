// Signalmesh - Webhook Trade Signal Fan-Out Across Decentralized Exchanges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signalmesh

/*
Package dex defines the exchange adapter contract and its implementations.

An Adapter is the unit the processor fans out to: one adapter per venue,
each owning its own connection lifecycle, credentials, and wire protocol.
Implementations in this package:

  - MockDEX: in-process adapter with configurable latency and failure rate,
    used for test mode and local development
  - HyperliquidDEX: REST + WebSocket adapter for the Hyperliquid perpetuals
    exchange, with EIP-712 agent-wallet request signing
  - BreakerAdapter: circuit-breaker decorator wrapping any Adapter

All adapter failures are expressed as *AdapterError carrying a stable error
code; see errors.go for the taxonomy and classification rules.
*/
package dex

import (
	"context"
	"sync/atomic"

	"github.com/tomtom215/signalmesh/internal/models"
)

// Adapter is the venue-facing contract the processor dispatches against.
//
// Lifecycle: Connect and Disconnect are idempotent. Disconnect must release
// resources even when the preceding Connect failed partway. Implementations
// run a heartbeat goroutine while connected; Disconnect guarantees it is
// cancelled before returning.
//
// SubmitOrder is ack-level, not fill-level: a nil error means the venue
// acknowledged receipt, and the returned SubmissionResult reports whatever
// fill state the acknowledgement carried. Fill reconciliation happens later
// through OrderStatus polls or the optional update stream.
//
// HealthProbe never returns an error; failures are expressed in the sample
// itself so the monitor has one uniform shape to aggregate.
//
// Thread safety: all methods are safe for concurrent use.
type Adapter interface {
	ID() string
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	IsConnected() bool
	SubmitOrder(ctx context.Context, req models.OrderRequest) (*models.SubmissionResult, error)
	OrderStatus(ctx context.Context, externalOrderID string) (*models.OrderStatusInfo, error)
	CancelOrder(ctx context.Context, externalOrderID string) error
	Position(ctx context.Context, symbol string) (*models.Position, error)
	HealthProbe(ctx context.Context) models.HealthSample
}

// UpdateSink receives push-stream order events. Sinks must be fast and must
// not block; slow consumers stall the adapter's read loop.
type UpdateSink func(models.OrderUpdate)

// Subscription is a handle on an active update stream. Close is idempotent.
type Subscription interface {
	Close() error
}

// UpdateStreamer is the optional capability for adapters that can push
// order updates. Adapters without it are served by the no-op default in
// SubscribeUpdates.
type UpdateStreamer interface {
	SubscribeUpdates(ctx context.Context, sink UpdateSink) (Subscription, error)
}

// SubscribeUpdates subscribes sink to a's order-update stream when a
// supports streaming, and returns an inert subscription otherwise. Callers
// never need to care which case they got.
func SubscribeUpdates(ctx context.Context, a Adapter, sink UpdateSink) (Subscription, error) {
	if s, ok := a.(UpdateStreamer); ok {
		return s.SubscribeUpdates(ctx, sink)
	}
	return noopSubscription{}, nil
}

type noopSubscription struct{}

func (noopSubscription) Close() error { return nil }

// ConnState is an adapter connection lifecycle state.
type ConnState int32

// Connection states. The only legal transitions are
// disconnected -> connecting -> connected and any state -> disconnected.
const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateConnected
)

// String returns the lowercase state name for logs.
func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// connState tracks the connection lifecycle with atomic transitions so
// concurrent Connect/Disconnect calls stay idempotent without a lock.
type connState struct {
	v atomic.Int32
}

// begin attempts the disconnected -> connecting transition. It returns false
// when a connect is already in flight or the adapter is already connected,
// which is how Connect achieves idempotence.
func (c *connState) begin() bool {
	return c.v.CompareAndSwap(int32(StateDisconnected), int32(StateConnecting))
}

// succeed completes a connect attempt: connecting -> connected.
func (c *connState) succeed() {
	c.v.Store(int32(StateConnected))
}

// fail aborts a connect attempt: connecting -> disconnected.
func (c *connState) fail() {
	c.v.Store(int32(StateDisconnected))
}

// disconnect forces the state to disconnected from anywhere.
func (c *connState) disconnect() {
	c.v.Store(int32(StateDisconnected))
}

func (c *connState) state() ConnState {
	return ConnState(c.v.Load())
}

func (c *connState) connected() bool {
	return c.state() == StateConnected
}
