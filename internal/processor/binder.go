// Signalmesh - Webhook Trade Signal Fan-Out Across Decentralized Exchanges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signalmesh

package processor

import (
	"context"
	"time"

	"github.com/tomtom215/signalmesh/internal/dex"
	"github.com/tomtom215/signalmesh/internal/logging"
)

// DefaultRebindInterval is how often the binder re-checks subscriptions.
const DefaultRebindInterval = 30 * time.Second

// liveness is the optional capability a subscription exposes when it can
// detect that its underlying stream was replaced, as happens when the health
// monitor reconnects an adapter. Subscriptions without it are assumed alive
// until the binder is stopped.
type liveness interface {
	Alive() bool
}

// StreamBinder keeps one order-update subscription attached to every
// connected adapter.
//
// Subscriptions do not survive an adapter reconnect: the monitor's
// disconnect/connect cycle replaces the stream underneath them. Rather than
// threading a resubscribe hook through the monitor, the binder sweeps on a
// fixed cadence, closing subscriptions that report dead and attaching fresh
// ones to connected adapters that have none. Adapters without the streaming
// capability get the inert subscription and cost nothing.
type StreamBinder struct {
	registry *dex.Registry
	sink     dex.UpdateSink
	interval time.Duration

	subs map[string]dex.Subscription
}

// NewStreamBinder creates a binder delivering updates to sink. A
// non-positive interval falls back to DefaultRebindInterval.
func NewStreamBinder(registry *dex.Registry, sink dex.UpdateSink, interval time.Duration) *StreamBinder {
	if interval <= 0 {
		interval = DefaultRebindInterval
	}
	return &StreamBinder{
		registry: registry,
		sink:     sink,
		interval: interval,
		subs:     make(map[string]dex.Subscription),
	}
}

// Run sweeps until ctx is done, then closes every subscription it holds.
// Suture-compatible; only this loop touches the subscription map.
func (b *StreamBinder) Run(ctx context.Context) error {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	b.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			b.closeAll()
			return ctx.Err()
		case <-ticker.C:
			b.sweep(ctx)
		}
	}
}

// String names the binder in the supervision tree.
func (b *StreamBinder) String() string {
	return "order-stream-binder"
}

// sweep reconciles the subscription map against the registry once.
func (b *StreamBinder) sweep(ctx context.Context) {
	for _, adapter := range b.registry.All() {
		id := adapter.ID()

		if sub, ok := b.subs[id]; ok {
			if l, checkable := sub.(liveness); !checkable || l.Alive() {
				continue
			}
			_ = sub.Close()
			delete(b.subs, id)
			logging.Debug().Str("dex", id).Msg("Order update subscription went stale, rebinding")
		}

		if !adapter.IsConnected() {
			continue
		}

		sub, err := dex.SubscribeUpdates(ctx, adapter, b.sink)
		if err != nil {
			logging.Warn().Str("dex", id).Err(err).Msg("Order update subscribe failed, will retry")
			continue
		}
		b.subs[id] = sub
	}
}

func (b *StreamBinder) closeAll() {
	for id, sub := range b.subs {
		if err := sub.Close(); err != nil {
			logging.Warn().Str("dex", id).Err(err).Msg("Error closing order update subscription")
		}
		delete(b.subs, id)
	}
}
