// Signalmesh - Webhook Trade Signal Fan-Out Across Decentralized Exchanges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signalmesh

package processor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"github.com/tomtom215/signalmesh/internal/dex"
	"github.com/tomtom215/signalmesh/internal/models"
)

// fakeAdapter is a scriptable adapter for dispatch tests. Its behavior is
// set per test: fixed delay, forced error, or a panic mid-submit.
type fakeAdapter struct {
	id        string
	connected bool
	delay     time.Duration
	err       error
	panicMsg  string

	mu      sync.Mutex
	submits int
}

func (f *fakeAdapter) ID() string                                    { return f.id }
func (f *fakeAdapter) Connect(_ context.Context) error               { f.connected = true; return nil }
func (f *fakeAdapter) Disconnect(_ context.Context) error            { f.connected = false; return nil }
func (f *fakeAdapter) IsConnected() bool                             { return f.connected }
func (f *fakeAdapter) CancelOrder(_ context.Context, _ string) error { return nil }

func (f *fakeAdapter) SubmitOrder(ctx context.Context, req models.OrderRequest) (*models.SubmissionResult, error) {
	f.mu.Lock()
	f.submits++
	f.mu.Unlock()

	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &models.SubmissionResult{
		ExternalOrderID: f.id + "-order-1",
		Status:          models.SubmissionFilled,
		SubmittedAt:     time.Now().UTC(),
		FilledAmount:    req.Size,
		RemainingAmount: decimal.Zero,
	}, nil
}

func (f *fakeAdapter) OrderStatus(_ context.Context, _ string) (*models.OrderStatusInfo, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeAdapter) Position(_ context.Context, _ string) (*models.Position, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeAdapter) HealthProbe(_ context.Context) models.HealthSample {
	return models.HealthSample{Status: models.HealthHealthy, ObservedAt: time.Now().UTC()}
}

func (f *fakeAdapter) submitCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submits
}

// recordingLog captures execution-record writes for assertions.
type recordingLog struct {
	mu      sync.Mutex
	records []recordedExecution
	err     error
}

type recordedExecution struct {
	fingerprint string
	adapterID   string
	orderID     string
	status      models.ExecutionStatus
	blob        string
}

func (l *recordingLog) RecordExecution(_ context.Context, fingerprint, adapterID, externalOrderID string, status models.ExecutionStatus, resultBlob string, _ *int64) (*models.ExecutionRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	l.records = append(l.records, recordedExecution{
		fingerprint: fingerprint,
		adapterID:   adapterID,
		orderID:     externalOrderID,
		status:      status,
		blob:        resultBlob,
	})
	return &models.ExecutionRecord{SignalFingerprint: fingerprint, AdapterID: adapterID, Status: status}, nil
}

func (l *recordingLog) byAdapter() map[string]recordedExecution {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]recordedExecution, len(l.records))
	for _, r := range l.records {
		out[r.adapterID] = r
	}
	return out
}

func registryWith(t *testing.T, adapters ...dex.Adapter) *dex.Registry {
	t.Helper()
	reg := dex.NewRegistry()
	for _, a := range adapters {
		if err := reg.Register(a); err != nil {
			t.Fatalf("Register(%s) failed: %v", a.ID(), err)
		}
	}
	return reg
}

func testPayload() models.SignalPayload {
	return models.SignalPayload{
		Symbol: "ETH-USD",
		Side:   models.SideBuy,
		Size:   decimal.RequireFromString("1.5"),
	}
}

func TestProcess_AllAdaptersSucceed(t *testing.T) {
	a := &fakeAdapter{id: "mock-a", connected: true}
	b := &fakeAdapter{id: "mock-b", connected: true}
	log := &recordingLog{}
	p := New(registryWith(t, a, b), log, nil, Config{})

	resp := p.Process(context.Background(), testPayload(), "fp-success")

	if resp.OverallStatus != models.OverallSuccess {
		t.Errorf("Expected overall success, got %s", resp.OverallStatus)
	}
	if resp.TotalDEXCount != 2 || resp.SuccessfulCount != 2 || resp.FailedCount != 0 {
		t.Errorf("Unexpected counts: total=%d successful=%d failed=%d",
			resp.TotalDEXCount, resp.SuccessfulCount, resp.FailedCount)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(resp.Results))
	}
	for _, r := range resp.Results {
		if r.Status != models.ResultFilled {
			t.Errorf("Adapter %s: expected filled, got %s", r.DEXID, r.Status)
		}
		if r.OrderID == nil || *r.OrderID == "" {
			t.Errorf("Adapter %s: expected an order ID", r.DEXID)
		}
	}
}

func TestProcess_MixedOutcomesArePartial(t *testing.T) {
	good := &fakeAdapter{id: "mock-good", connected: true}
	bad := &fakeAdapter{id: "mock-bad", connected: true, err: errors.New("venue rejected order")}
	log := &recordingLog{}
	p := New(registryWith(t, good, bad), log, nil, Config{})

	resp := p.Process(context.Background(), testPayload(), "fp-mixed")

	if resp.OverallStatus != models.OverallPartial {
		t.Errorf("Expected overall partial, got %s", resp.OverallStatus)
	}
	if resp.SuccessfulCount != 1 || resp.FailedCount != 1 {
		t.Errorf("Expected 1/1 split, got successful=%d failed=%d", resp.SuccessfulCount, resp.FailedCount)
	}

	var failed *models.AdapterResult
	for i := range resp.Results {
		if resp.Results[i].DEXID == "mock-bad" {
			failed = &resp.Results[i]
		}
	}
	if failed == nil {
		t.Fatal("Missing result for mock-bad")
	}
	if failed.Status != models.ResultError {
		t.Errorf("Expected error status, got %s", failed.Status)
	}
	if failed.OrderID != nil {
		t.Errorf("Expected nil order ID on failure, got %v", *failed.OrderID)
	}
	if failed.ErrorMessage == "" {
		t.Error("Expected error message on failed result")
	}
}

func TestProcess_AllAdaptersFail(t *testing.T) {
	a := &fakeAdapter{id: "mock-a", connected: true, err: errors.New("down")}
	b := &fakeAdapter{id: "mock-b", connected: true, err: errors.New("down")}
	p := New(registryWith(t, a, b), &recordingLog{}, nil, Config{})

	resp := p.Process(context.Background(), testPayload(), "fp-allfail")

	if resp.OverallStatus != models.OverallFailed {
		t.Errorf("Expected overall failed, got %s", resp.OverallStatus)
	}
	if resp.SuccessfulCount != 0 || resp.FailedCount != 2 {
		t.Errorf("Expected 0/2 split, got successful=%d failed=%d", resp.SuccessfulCount, resp.FailedCount)
	}
}

func TestProcess_NoActiveAdapters(t *testing.T) {
	disconnected := &fakeAdapter{id: "mock-a", connected: false}
	p := New(registryWith(t, disconnected), &recordingLog{}, nil, Config{})

	resp := p.Process(context.Background(), testPayload(), "fp-none")

	if resp.OverallStatus != models.OverallFailed {
		t.Errorf("Expected overall failed, got %s", resp.OverallStatus)
	}
	if len(resp.Results) != 0 {
		t.Errorf("Expected empty results, got %d", len(resp.Results))
	}
	if disconnected.submitCount() != 0 {
		t.Error("Disconnected adapter must not receive a submit")
	}
}

func TestProcess_SkipsDisconnectedAdapters(t *testing.T) {
	online := &fakeAdapter{id: "mock-on", connected: true}
	offline := &fakeAdapter{id: "mock-off", connected: false}
	p := New(registryWith(t, online, offline), &recordingLog{}, nil, Config{})

	resp := p.Process(context.Background(), testPayload(), "fp-skip")

	if resp.TotalDEXCount != 1 {
		t.Errorf("Expected 1 active adapter, got %d", resp.TotalDEXCount)
	}
	if offline.submitCount() != 0 {
		t.Error("Offline adapter must not receive a submit")
	}
	if online.submitCount() != 1 {
		t.Errorf("Online adapter should receive exactly 1 submit, got %d", online.submitCount())
	}
}

// Fan-out must run adapters concurrently: three adapters sleeping 150ms each
// complete in roughly one sleep, not three.
func TestProcess_DispatchesInParallel(t *testing.T) {
	delay := 150 * time.Millisecond
	adapters := []dex.Adapter{
		&fakeAdapter{id: "mock-a", connected: true, delay: delay},
		&fakeAdapter{id: "mock-b", connected: true, delay: delay},
		&fakeAdapter{id: "mock-c", connected: true, delay: delay},
	}
	p := New(registryWith(t, adapters...), &recordingLog{}, nil, Config{})

	start := time.Now()
	resp := p.Process(context.Background(), testPayload(), "fp-parallel")
	elapsed := time.Since(start)

	if resp.OverallStatus != models.OverallSuccess {
		t.Fatalf("Expected overall success, got %s", resp.OverallStatus)
	}
	// Sequential would take 450ms+. Allow generous scheduling headroom.
	if elapsed > 2*delay {
		t.Errorf("Fan-out took %v, expected concurrent dispatch near %v", elapsed, delay)
	}
}

func TestProcess_PanickingAdapterIsIsolated(t *testing.T) {
	stable := &fakeAdapter{id: "mock-stable", connected: true}
	bomb := &fakeAdapter{id: "mock-bomb", connected: true, panicMsg: "boom"}
	log := &recordingLog{}
	p := New(registryWith(t, stable, bomb), log, nil, Config{})

	resp := p.Process(context.Background(), testPayload(), "fp-panic")

	if resp.OverallStatus != models.OverallPartial {
		t.Errorf("Expected overall partial, got %s", resp.OverallStatus)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("Expected 2 results despite panic, got %d", len(resp.Results))
	}

	records := log.byAdapter()
	if r, ok := records["mock-bomb"]; !ok {
		t.Error("Expected an execution record for the panicking adapter")
	} else if r.status != models.ExecutionFailed {
		t.Errorf("Expected failed record for panicking adapter, got %s", r.status)
	}
	if r, ok := records["mock-stable"]; !ok {
		t.Error("Expected an execution record for the stable adapter")
	} else if r.status != models.ExecutionFilled {
		t.Errorf("Expected filled record for stable adapter, got %s", r.status)
	}
}

func TestProcess_DeadlineExpiryFailsWholeFanOut(t *testing.T) {
	fast := &fakeAdapter{id: "mock-fast", connected: true}
	slow := &fakeAdapter{id: "mock-slow", connected: true, delay: 5 * time.Second}
	p := New(registryWith(t, fast, slow), &recordingLog{}, nil, Config{
		DispatchTimeout: 100 * time.Millisecond,
	})

	start := time.Now()
	resp := p.Process(context.Background(), testPayload(), "fp-deadline")
	elapsed := time.Since(start)

	if elapsed > 2*time.Second {
		t.Fatalf("Process blocked %v past its deadline", elapsed)
	}
	if resp.OverallStatus != models.OverallFailed {
		t.Errorf("Expected overall failed on deadline expiry, got %s", resp.OverallStatus)
	}
	// No partial merge: the fast adapter's completed outcome is not
	// reported once the deadline fired.
	if len(resp.Results) != 0 {
		t.Errorf("Expected no results on deadline expiry, got %d", len(resp.Results))
	}
	if resp.FailedCount != 2 {
		t.Errorf("Expected failed count to cover all active adapters, got %d", resp.FailedCount)
	}
}

func TestProcess_WritesOneRecordPerAdapter(t *testing.T) {
	a := &fakeAdapter{id: "mock-a", connected: true}
	b := &fakeAdapter{id: "mock-b", connected: true, err: errors.New("rejected")}
	log := &recordingLog{}
	p := New(registryWith(t, a, b), log, nil, Config{})

	p.Process(context.Background(), testPayload(), "fp-records")

	records := log.byAdapter()
	if len(records) != 2 {
		t.Fatalf("Expected 2 execution records, got %d", len(records))
	}
	if records["mock-a"].status != models.ExecutionFilled {
		t.Errorf("mock-a: expected filled, got %s", records["mock-a"].status)
	}
	if records["mock-b"].status != models.ExecutionFailed {
		t.Errorf("mock-b: expected failed, got %s", records["mock-b"].status)
	}
	for id, r := range records {
		if r.fingerprint != "fp-records" {
			t.Errorf("%s: expected fingerprint fp-records, got %s", id, r.fingerprint)
		}
		if r.blob == "" {
			t.Errorf("%s: expected a result blob", id)
		}
	}
}

func TestProcess_RecordWriteFailureDoesNotFailResponse(t *testing.T) {
	a := &fakeAdapter{id: "mock-a", connected: true}
	log := &recordingLog{err: errors.New("disk full")}
	p := New(registryWith(t, a), log, nil, Config{})

	resp := p.Process(context.Background(), testPayload(), "fp-diskfull")

	// The trade happened; a logging failure must not turn the response
	// into a dispatch failure.
	if resp.OverallStatus != models.OverallSuccess {
		t.Errorf("Expected overall success despite record failure, got %s", resp.OverallStatus)
	}
}

func TestProcess_TestModeMarksBlobs(t *testing.T) {
	a := &fakeAdapter{id: "mock-a", connected: true}
	log := &recordingLog{}
	p := New(registryWith(t, a), log, nil, Config{TestMode: true})

	p.Process(context.Background(), testPayload(), "fp-testmode")

	records := log.byAdapter()
	r, ok := records["mock-a"]
	if !ok {
		t.Fatal("Expected an execution record")
	}
	var blob models.ResultBlob
	if err := json.Unmarshal([]byte(r.blob), &blob); err != nil {
		t.Fatalf("Blob did not parse: %v", err)
	}
	if !blob.IsTestMode {
		t.Error("Expected is_test_mode in the result blob")
	}
}

func TestOverallStatus(t *testing.T) {
	tests := []struct {
		name       string
		successful int
		failed     int
		want       models.OverallStatus
	}{
		{"all succeeded", 3, 0, models.OverallSuccess},
		{"all failed", 0, 3, models.OverallFailed},
		{"mixed", 2, 1, models.OverallPartial},
		{"none", 0, 0, models.OverallFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := overallStatus(tt.successful, tt.failed); got != tt.want {
				t.Errorf("overallStatus(%d, %d) = %s, want %s", tt.successful, tt.failed, got, tt.want)
			}
		})
	}
}
