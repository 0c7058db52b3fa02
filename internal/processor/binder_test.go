// Signalmesh - Webhook Trade Signal Fan-Out Across Decentralized Exchanges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signalmesh

package processor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tomtom215/signalmesh/internal/dex"
	"github.com/tomtom215/signalmesh/internal/models"
)

// streamingAdapter is a fakeAdapter with the UpdateStreamer capability.
// Every SubscribeUpdates call hands out a fresh fakeSubscription whose
// liveness the test controls.
type streamingAdapter struct {
	fakeAdapter

	mu         sync.Mutex
	subscribes int
	current    *fakeSubscription
	lastSink   dex.UpdateSink
}

func (s *streamingAdapter) SubscribeUpdates(_ context.Context, sink dex.UpdateSink) (dex.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribes++
	s.current = &fakeSubscription{alive: true}
	s.lastSink = sink
	return s.current, nil
}

func (s *streamingAdapter) subscribeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subscribes
}

func (s *streamingAdapter) killStream() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil {
		s.current.kill()
	}
}

func (s *streamingAdapter) push(update models.OrderUpdate) {
	s.mu.Lock()
	sink := s.lastSink
	s.mu.Unlock()
	if sink != nil {
		sink(update)
	}
}

type fakeSubscription struct {
	mu     sync.Mutex
	alive  bool
	closed bool
}

func (f *fakeSubscription) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	f.alive = false
	return nil
}

func (f *fakeSubscription) Alive() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.alive
}

func (f *fakeSubscription) kill() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alive = false
}

func (f *fakeSubscription) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func TestStreamBinderSubscribesConnectedAdapters(t *testing.T) {
	streaming := &streamingAdapter{fakeAdapter: fakeAdapter{id: "stream-a", connected: true}}
	offline := &streamingAdapter{fakeAdapter: fakeAdapter{id: "stream-b", connected: false}}
	plain := &fakeAdapter{id: "plain", connected: true}
	registry := registryWith(t, streaming, offline, plain)

	var mu sync.Mutex
	var got []models.OrderUpdate
	binder := NewStreamBinder(registry, func(u models.OrderUpdate) {
		mu.Lock()
		got = append(got, u)
		mu.Unlock()
	}, time.Minute)

	binder.sweep(context.Background())

	if n := streaming.subscribeCount(); n != 1 {
		t.Errorf("connected streaming adapter subscribed %d times, want 1", n)
	}
	if n := offline.subscribeCount(); n != 0 {
		t.Errorf("disconnected adapter subscribed %d times, want 0", n)
	}

	streaming.push(models.OrderUpdate{
		AdapterID:       "stream-a",
		ExternalOrderID: "ord-1",
		State:           models.OrderFilled,
		FilledAmount:    decimal.RequireFromString("0.5"),
		RemainingAmount: decimal.Zero,
	})
	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 || got[0].ExternalOrderID != "ord-1" {
		t.Errorf("sink received %v, want the pushed ord-1 update", got)
	}
}

func TestStreamBinderDoesNotResubscribeLiveStream(t *testing.T) {
	adapter := &streamingAdapter{fakeAdapter: fakeAdapter{id: "stream-a", connected: true}}
	registry := registryWith(t, adapter)
	binder := NewStreamBinder(registry, func(models.OrderUpdate) {}, time.Minute)

	ctx := context.Background()
	binder.sweep(ctx)
	binder.sweep(ctx)
	binder.sweep(ctx)

	if n := adapter.subscribeCount(); n != 1 {
		t.Errorf("live subscription was replaced: %d subscribes, want 1", n)
	}
}

func TestStreamBinderRebindsDeadSubscription(t *testing.T) {
	adapter := &streamingAdapter{fakeAdapter: fakeAdapter{id: "stream-a", connected: true}}
	registry := registryWith(t, adapter)
	binder := NewStreamBinder(registry, func(models.OrderUpdate) {}, time.Minute)

	ctx := context.Background()
	binder.sweep(ctx)
	first := adapter.current

	// Simulate a monitor reconnect orphaning the stream.
	adapter.killStream()
	binder.sweep(ctx)

	if n := adapter.subscribeCount(); n != 2 {
		t.Errorf("dead subscription not rebound: %d subscribes, want 2", n)
	}
	if !first.isClosed() {
		t.Error("stale subscription was not closed before rebinding")
	}
}

func TestStreamBinderSubscribesOnceAdapterConnects(t *testing.T) {
	adapter := &streamingAdapter{fakeAdapter: fakeAdapter{id: "stream-a", connected: false}}
	registry := registryWith(t, adapter)
	binder := NewStreamBinder(registry, func(models.OrderUpdate) {}, time.Minute)

	ctx := context.Background()
	binder.sweep(ctx)
	if n := adapter.subscribeCount(); n != 0 {
		t.Fatalf("subscribed to a disconnected adapter: %d subscribes", n)
	}

	adapter.connected = true
	binder.sweep(ctx)
	if n := adapter.subscribeCount(); n != 1 {
		t.Errorf("adapter not subscribed after connecting: %d subscribes, want 1", n)
	}
}

func TestStreamBinderClosesSubscriptionsOnShutdown(t *testing.T) {
	adapter := &streamingAdapter{fakeAdapter: fakeAdapter{id: "stream-a", connected: true}}
	registry := registryWith(t, adapter)
	binder := NewStreamBinder(registry, func(models.OrderUpdate) {}, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- binder.Run(ctx) }()

	// Wait for the initial sweep to attach.
	deadline := time.After(2 * time.Second)
	for adapter.subscribeCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("binder never subscribed")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}

	if !adapter.current.isClosed() {
		t.Error("subscription not closed on shutdown")
	}
}
