// Signalmesh - Webhook Trade Signal Fan-Out Across Decentralized Exchanges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signalmesh

package health

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/signalmesh/internal/dex"
	"github.com/tomtom215/signalmesh/internal/models"
)

// probeAdapter is a scriptable dex.Adapter for health tests. Only the probe
// and connection paths do anything; order methods are inert.
type probeAdapter struct {
	id string

	mu                  sync.Mutex
	status              models.HealthStatus
	errMsg              string
	panicProbe          bool
	ignoreCtx           bool // block past the probe deadline without honoring ctx
	connectErr          error
	healthyAfterConnect bool // successful Connect flips the probe status
	probes              int
	connects            int
	disconnects         int
	connected           bool
}

func newProbeAdapter(id string, status models.HealthStatus) *probeAdapter {
	return &probeAdapter{id: id, status: status, connected: true}
}

func (p *probeAdapter) ID() string { return p.id }

func (p *probeAdapter) Connect(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.connects++
	if p.connectErr != nil {
		return p.connectErr
	}
	p.connected = true
	if p.healthyAfterConnect {
		p.status = models.HealthHealthy
		p.errMsg = ""
	}
	return nil
}

func (p *probeAdapter) Disconnect(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.disconnects++
	p.connected = false
	return nil
}

func (p *probeAdapter) IsConnected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connected
}

func (p *probeAdapter) HealthProbe(ctx context.Context) models.HealthSample {
	p.mu.Lock()
	p.probes++
	status := p.status
	errMsg := p.errMsg
	panicProbe := p.panicProbe
	ignoreCtx := p.ignoreCtx
	p.mu.Unlock()

	if panicProbe {
		panic("probe exploded")
	}
	if ignoreCtx {
		// Deliberately overruns any sane test deadline.
		time.Sleep(5 * time.Second)
	}
	_ = ctx
	return models.HealthSample{
		Status:       status,
		LatencyMS:    1,
		ObservedAt:   time.Now().UTC(),
		ErrorMessage: errMsg,
	}
}

func (p *probeAdapter) setStatus(status models.HealthStatus, errMsg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status = status
	p.errMsg = errMsg
}

func (p *probeAdapter) probeCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.probes
}

func (p *probeAdapter) connectCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connects
}

func (p *probeAdapter) SubmitOrder(_ context.Context, _ models.OrderRequest) (*models.SubmissionResult, error) {
	return nil, errors.New("not implemented")
}

func (p *probeAdapter) OrderStatus(_ context.Context, _ string) (*models.OrderStatusInfo, error) {
	return nil, errors.New("not implemented")
}

func (p *probeAdapter) CancelOrder(_ context.Context, _ string) error { return nil }

func (p *probeAdapter) Position(_ context.Context, _ string) (*models.Position, error) {
	return nil, errors.New("not implemented")
}

func registryWith(t *testing.T, adapters ...dex.Adapter) *dex.Registry {
	t.Helper()
	registry := dex.NewRegistry()
	for _, a := range adapters {
		if err := registry.Register(a); err != nil {
			t.Fatalf("Register(%s) failed: %v", a.ID(), err)
		}
	}
	return registry
}

func TestAggregatorSnapshot(t *testing.T) {
	tests := []struct {
		name     string
		statuses []models.HealthStatus
		want     models.HealthStatus
	}{
		{"no adapters is healthy", nil, models.HealthHealthy},
		{"all healthy", []models.HealthStatus{models.HealthHealthy, models.HealthHealthy}, models.HealthHealthy},
		{"all offline", []models.HealthStatus{models.HealthOffline, models.HealthOffline}, models.HealthOffline},
		{"mixed is degraded", []models.HealthStatus{models.HealthHealthy, models.HealthOffline}, models.HealthDegraded},
		{"single degraded is degraded", []models.HealthStatus{models.HealthDegraded}, models.HealthDegraded},
		{"degraded and offline is degraded", []models.HealthStatus{models.HealthDegraded, models.HealthOffline}, models.HealthDegraded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapters := make([]dex.Adapter, 0, len(tt.statuses))
			for i, status := range tt.statuses {
				adapters = append(adapters, newProbeAdapter(adapterID(i), status))
			}
			agg := NewAggregator(registryWith(t, adapters...), AggregatorConfig{})

			composite := agg.Snapshot(context.Background())

			if composite.Status != tt.want {
				t.Errorf("composite status = %s, want %s", composite.Status, tt.want)
			}
			if len(composite.DEXStatus) != len(tt.statuses) {
				t.Errorf("DEXStatus has %d entries, want %d", len(composite.DEXStatus), len(tt.statuses))
			}
			for i, status := range tt.statuses {
				entry, ok := composite.DEXStatus[adapterID(i)]
				if !ok {
					t.Fatalf("DEXStatus missing entry for %s", adapterID(i))
				}
				if entry.Status != status {
					t.Errorf("adapter %s status = %s, want %s", adapterID(i), entry.Status, status)
				}
			}
			if composite.Timestamp.IsZero() {
				t.Error("composite timestamp not set")
			}
		})
	}
}

func adapterID(i int) string {
	return "dex-" + string(rune('a'+i))
}

func TestAggregatorTestModePassthrough(t *testing.T) {
	agg := NewAggregator(registryWith(t), AggregatorConfig{TestMode: true})
	if got := agg.Snapshot(context.Background()); !got.TestMode {
		t.Error("TestMode not surfaced in composite view")
	}
}

func TestAggregatorProbePanic(t *testing.T) {
	panicky := newProbeAdapter("panicky", models.HealthHealthy)
	panicky.panicProbe = true
	steady := newProbeAdapter("steady", models.HealthHealthy)
	agg := NewAggregator(registryWith(t, panicky, steady), AggregatorConfig{})

	composite := agg.Snapshot(context.Background())

	if composite.Status != models.HealthDegraded {
		t.Errorf("composite status = %s, want %s", composite.Status, models.HealthDegraded)
	}
	entry := composite.DEXStatus["panicky"]
	if entry.Status != models.HealthOffline {
		t.Errorf("panicking adapter status = %s, want %s", entry.Status, models.HealthOffline)
	}
	if entry.ErrorMessage == nil || !strings.Contains(*entry.ErrorMessage, "probe panic") {
		t.Errorf("panicking adapter error message = %v, want probe panic wrap", entry.ErrorMessage)
	}
	if composite.DEXStatus["steady"].Status != models.HealthHealthy {
		t.Error("healthy adapter dragged down by sibling panic")
	}
}

func TestAggregatorFailureWindow(t *testing.T) {
	adapter := newProbeAdapter("flappy", models.HealthOffline)
	adapter.errMsg = "connection refused"
	agg := NewAggregator(registryWith(t, adapter), AggregatorConfig{})
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		composite := agg.Snapshot(ctx)
		entry := composite.DEXStatus["flappy"]
		if entry.ErrorCount != int64(i) {
			t.Errorf("after %d failed probes ErrorCount = %d, want %d", i, entry.ErrorCount, i)
		}
		if entry.ErrorMessage == nil || *entry.ErrorMessage != "connection refused" {
			t.Errorf("ErrorMessage = %v, want connection refused", entry.ErrorMessage)
		}
		if entry.LastSuccessful != nil {
			t.Error("LastSuccessful set before any successful probe")
		}
	}

	// A healthy probe clears the failure count and stamps the success time.
	adapter.setStatus(models.HealthHealthy, "")
	entry := agg.Snapshot(ctx).DEXStatus["flappy"]
	if entry.ErrorCount != 0 {
		t.Errorf("ErrorCount after recovery = %d, want 0", entry.ErrorCount)
	}
	if entry.LastSuccessful == nil {
		t.Error("LastSuccessful not set after successful probe")
	}

	// The next failure starts the window over at one.
	adapter.setStatus(models.HealthOffline, "gone again")
	entry = agg.Snapshot(ctx).DEXStatus["flappy"]
	if entry.ErrorCount != 1 {
		t.Errorf("ErrorCount after fresh failure = %d, want 1", entry.ErrorCount)
	}
	if entry.LastSuccessful == nil {
		t.Error("LastSuccessful lost after later failure")
	}
}

func TestAggregatorUptime(t *testing.T) {
	agg := NewAggregator(registryWith(t), AggregatorConfig{})
	agg.startedAt = time.Now().UTC().Add(-90 * time.Second)

	got := agg.Snapshot(context.Background()).UptimeSeconds
	if got < 90 || got > 95 {
		t.Errorf("UptimeSeconds = %d, want about 90", got)
	}
}
