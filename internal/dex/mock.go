// Signalmesh - Webhook Trade Signal Fan-Out Across Decentralized Exchanges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signalmesh

package dex

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tomtom215/signalmesh/internal/models"
)

// MockDEX is an in-process venue used for test mode and local development.
// Orders fill instantly and in full; a configurable failure rate injects
// venue rejections and a configurable latency is applied to every order and
// probe call, so timeout behaviour can be exercised end to end.
//
// The mock keeps real per-symbol net positions and an order book of past
// submissions, so OrderStatus, CancelOrder, and Position behave like a
// stateful venue rather than canned stubs. It also implements the
// UpdateStreamer capability and pushes a terminal fill update after every
// accepted order.
type MockDEX struct {
	id       string
	failRate float64
	latency  time.Duration

	state connState

	randMu sync.Mutex
	//nolint:gosec // G404: weak random is fine for injected test failures
	rng *rand.Rand

	mu        sync.Mutex
	orders    map[string]*models.OrderStatusInfo
	positions map[string]decimal.Decimal
	sinks     map[int]UpdateSink
	nextSink  int
}

// NewMockDEX creates a mock venue. failRate is the probability in [0, 1]
// that a submission is rejected; latency is applied to submissions and
// health probes.
func NewMockDEX(id string, failRate float64, latency time.Duration) *MockDEX {
	if failRate < 0 {
		failRate = 0
	}
	if failRate > 1 {
		failRate = 1
	}
	return &MockDEX{
		id:       id,
		failRate: failRate,
		latency:  latency,
		//nolint:gosec // G404: weak random is fine for injected test failures
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		orders:    make(map[string]*models.OrderStatusInfo),
		positions: make(map[string]decimal.Decimal),
		sinks:     make(map[int]UpdateSink),
	}
}

// ID returns the configured adapter ID.
func (m *MockDEX) ID() string { return m.id }

// Connect is idempotent and never fails unless ctx is already done.
func (m *MockDEX) Connect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return NewConnectionError(m.id, "connect cancelled", err)
	}
	if !m.state.begin() {
		return nil
	}
	m.state.succeed()
	return nil
}

// Disconnect is idempotent.
func (m *MockDEX) Disconnect(_ context.Context) error {
	m.state.disconnect()
	return nil
}

// IsConnected reports the connection state.
func (m *MockDEX) IsConnected() bool { return m.state.connected() }

// SubmitOrder fills the order instantly and in full, unless the failure
// roll rejects it or the configured latency outlives ctx.
func (m *MockDEX) SubmitOrder(ctx context.Context, req models.OrderRequest) (*models.SubmissionResult, error) {
	if !m.state.connected() {
		return nil, NewConnectionError(m.id, "submit refused", ErrNotConnected)
	}
	if err := m.wait(ctx); err != nil {
		return nil, NewTimeoutError(m.id, "submit timed out", err)
	}
	if m.roll() {
		return nil, NewRejectionError(m.id, models.CodeDEXRejected, "mock venue rejected order")
	}

	now := time.Now().UTC()
	oid := "mock-" + uuid.NewString()

	info := &models.OrderStatusInfo{
		ExternalOrderID: oid,
		Symbol:          req.Symbol,
		State:           models.OrderFilled,
		FilledAmount:    req.Size,
		RemainingAmount: decimal.Zero,
		UpdatedAt:       now,
	}

	delta := req.Size
	if req.Side == models.SideSell {
		delta = req.Size.Neg()
	}

	m.mu.Lock()
	m.orders[oid] = info
	m.positions[req.Symbol] = m.positions[req.Symbol].Add(delta)
	m.mu.Unlock()

	go m.publish(models.OrderUpdate{
		AdapterID:       m.id,
		ExternalOrderID: oid,
		Symbol:          req.Symbol,
		State:           models.OrderFilled,
		FilledAmount:    req.Size,
		RemainingAmount: decimal.Zero,
		OccurredAt:      now,
	})

	return &models.SubmissionResult{
		ExternalOrderID: oid,
		Status:          models.SubmissionFilled,
		SubmittedAt:     now,
		FilledAmount:    req.Size,
		RemainingAmount: decimal.Zero,
		RawResponse:     fmt.Sprintf(`{"venue":%q,"oid":%q,"status":"filled"}`, m.id, oid),
	}, nil
}

// OrderStatus returns the recorded state of a past submission.
func (m *MockDEX) OrderStatus(_ context.Context, externalOrderID string) (*models.OrderStatusInfo, error) {
	if !m.state.connected() {
		return nil, NewConnectionError(m.id, "status refused", ErrNotConnected)
	}

	m.mu.Lock()
	info, ok := m.orders[externalOrderID]
	m.mu.Unlock()

	if !ok {
		return nil, NewRejectionError(m.id, models.CodeOrderNotFound, fmt.Sprintf("unknown order %s", externalOrderID))
	}
	cp := *info
	return &cp, nil
}

// CancelOrder always fails for known orders because the mock fills
// instantly; only the error code distinguishes known from unknown.
func (m *MockDEX) CancelOrder(_ context.Context, externalOrderID string) error {
	if !m.state.connected() {
		return NewConnectionError(m.id, "cancel refused", ErrNotConnected)
	}

	m.mu.Lock()
	_, ok := m.orders[externalOrderID]
	m.mu.Unlock()

	if !ok {
		return NewRejectionError(m.id, models.CodeOrderNotFound, fmt.Sprintf("unknown order %s", externalOrderID))
	}
	return NewRejectionError(m.id, models.CodeDEXRejected, "order already in terminal state")
}

// Position returns the net position accumulated from fills, or nil when
// flat. The mock has no order book, so entry price is reported as zero.
func (m *MockDEX) Position(_ context.Context, symbol string) (*models.Position, error) {
	if !m.state.connected() {
		return nil, NewConnectionError(m.id, "position refused", ErrNotConnected)
	}

	m.mu.Lock()
	size, ok := m.positions[symbol]
	m.mu.Unlock()

	if !ok || size.IsZero() {
		return nil, nil
	}
	return &models.Position{
		Symbol:     symbol,
		Size:       size,
		EntryPrice: decimal.Zero,
		ObservedAt: time.Now().UTC(),
	}, nil
}

// HealthProbe reports healthy after the configured latency elapses, offline
// when disconnected or when ctx expires first.
func (m *MockDEX) HealthProbe(ctx context.Context) models.HealthSample {
	start := time.Now()
	if !m.state.connected() {
		return models.HealthSample{
			Status:       models.HealthOffline,
			ObservedAt:   start.UTC(),
			ErrorMessage: "not connected",
		}
	}
	if err := m.wait(ctx); err != nil {
		return models.HealthSample{
			Status:       models.HealthOffline,
			LatencyMS:    time.Since(start).Milliseconds(),
			ObservedAt:   time.Now().UTC(),
			ErrorMessage: fmt.Sprintf("probe aborted: %v", err),
		}
	}
	return models.HealthSample{
		Status:     models.HealthHealthy,
		LatencyMS:  time.Since(start).Milliseconds(),
		ObservedAt: time.Now().UTC(),
	}
}

// SubscribeUpdates registers a sink for fill updates. Closing the
// subscription unregisters it; updates already in flight may still arrive.
func (m *MockDEX) SubscribeUpdates(_ context.Context, sink UpdateSink) (Subscription, error) {
	if !m.state.connected() {
		return nil, NewConnectionError(m.id, "subscribe refused", ErrNotConnected)
	}

	m.mu.Lock()
	id := m.nextSink
	m.nextSink++
	m.sinks[id] = sink
	m.mu.Unlock()

	return &mockSubscription{dex: m, id: id}, nil
}

type mockSubscription struct {
	dex  *MockDEX
	id   int
	once sync.Once
}

func (s *mockSubscription) Close() error {
	s.once.Do(func() {
		s.dex.mu.Lock()
		delete(s.dex.sinks, s.id)
		s.dex.mu.Unlock()
	})
	return nil
}

func (m *MockDEX) publish(u models.OrderUpdate) {
	m.mu.Lock()
	sinks := make([]UpdateSink, 0, len(m.sinks))
	for _, s := range m.sinks {
		sinks = append(sinks, s)
	}
	m.mu.Unlock()

	for _, s := range sinks {
		s(u)
	}
}

// wait applies the configured latency, aborting early if ctx expires.
func (m *MockDEX) wait(ctx context.Context) error {
	if m.latency <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(m.latency)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// roll returns true when the failure rate fires.
func (m *MockDEX) roll() bool {
	if m.failRate <= 0 {
		return false
	}
	if m.failRate >= 1 {
		return true
	}
	m.randMu.Lock()
	defer m.randMu.Unlock()
	return m.rng.Float64() < m.failRate
}
