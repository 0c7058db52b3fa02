// Signalmesh - Webhook Trade Signal Fan-Out Across Decentralized Exchanges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signalmesh

package api

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"github.com/tomtom215/signalmesh/internal/models"
	"github.com/tomtom215/signalmesh/internal/store"
)

// apiEnvelope mirrors models.APIResponse with raw data for typed re-decode.
type apiEnvelope struct {
	Status   string           `json:"status"`
	Data     json.RawMessage  `json:"data"`
	Metadata models.Metadata  `json:"metadata"`
	Error    *models.APIError `json:"error"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) apiEnvelope {
	t.Helper()
	var env apiEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("Failed to decode API envelope: %v (body: %s)", err, w.Body.String())
	}
	return env
}

// seedOperatorData loads three signals, five executions, and three error-log
// entries. Execution rows are spaced in time so ordering is observable.
func seedOperatorData(t *testing.T, db *store.DB) []string {
	t.Helper()
	ctx := context.Background()

	fingerprints := make([]string, 0, 3)
	for i, sym := range []string{"ETH-PERP", "BTC-PERP", "SOL-PERP"} {
		payload := models.SignalPayload{
			Symbol: sym,
			Side:   models.SideBuy,
			Size:   decimal.RequireFromString("1"),
		}
		fp := fmt.Sprintf("op-fp-%d", i+1)
		if err := db.SaveSignal(ctx, &models.Signal{
			Fingerprint: fp,
			Payload:     payload.CanonicalJSON(),
			ReceivedAt:  time.Now().UTC(),
		}); err != nil {
			t.Fatalf("SaveSignal(%s) failed: %v", fp, err)
		}
		fingerprints = append(fingerprints, fp)
	}

	latency := int64(12)
	executions := []struct {
		fingerprint string
		adapter     string
		orderID     string
		status      models.ExecutionStatus
	}{
		{"op-fp-1", "mock-a", "ord-1", models.ExecutionFilled},
		{"op-fp-1", "mock-b", "ord-2", models.ExecutionFilled},
		{"op-fp-2", "mock-a", "", models.ExecutionFailed},
		{"op-fp-2", "mock-b", "ord-3", models.ExecutionPartial},
		{"op-fp-3", "mock-b", "ord-4", models.ExecutionFilled},
	}
	for _, e := range executions {
		if _, err := db.RecordExecution(ctx, e.fingerprint, e.adapter, e.orderID, e.status, `{"seed":true}`, &latency); err != nil {
			t.Fatalf("RecordExecution(%s/%s) failed: %v", e.fingerprint, e.adapter, err)
		}
		time.Sleep(2 * time.Millisecond)
	}

	errorEntries := []models.ErrorEntry{
		{Level: models.LevelError, Category: models.CodeDEXTimeout, Message: "probe timed out"},
		{Level: models.LevelWarning, Category: models.CodeInvalidSignal, Message: "bad payload"},
		{Level: models.LevelWarning, Category: models.CodeInvalidSignal, Message: "another bad payload"},
	}
	for i := range errorEntries {
		if err := db.InsertError(ctx, &errorEntries[i]); err != nil {
			t.Fatalf("InsertError failed: %v", err)
		}
	}

	return fingerprints
}

func getOperator(h *Handler, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	switch {
	case strings.HasPrefix(target, "/api/v1/errors"):
		h.Errors(w, req)
	case strings.HasPrefix(target, "/api/v1/stats"):
		h.Stats(w, req)
	default:
		h.Executions(w, req)
	}
	return w
}

func TestExecutions_ListsNewestFirst(t *testing.T) {
	env := newWebhookEnv(t, webhookEnvOptions{noAdapters: true})
	seedOperatorData(t, env.db)

	w := getOperator(env.handler, "/api/v1/executions")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d (body: %s)", w.Code, w.Body.String())
	}

	envlp := decodeEnvelope(t, w)
	if envlp.Status != "success" {
		t.Errorf("Expected success envelope, got %q", envlp.Status)
	}
	var records []models.ExecutionRecord
	if err := json.Unmarshal(envlp.Data, &records); err != nil {
		t.Fatalf("Failed to decode execution records: %v", err)
	}
	if len(records) != 5 {
		t.Fatalf("Expected 5 execution rows, got %d", len(records))
	}
	for i := 0; i < len(records)-1; i++ {
		if records[i].CreatedAt.Before(records[i+1].CreatedAt) {
			t.Errorf("Rows out of order: index %d (%v) older than index %d (%v)",
				i, records[i].CreatedAt, i+1, records[i+1].CreatedAt)
		}
	}
}

func TestExecutions_Filters(t *testing.T) {
	env := newWebhookEnv(t, webhookEnvOptions{noAdapters: true})
	seedOperatorData(t, env.db)

	t.Run("by adapter", func(t *testing.T) {
		w := getOperator(env.handler, "/api/v1/executions?adapter=mock-a")
		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", w.Code)
		}
		var records []models.ExecutionRecord
		if err := json.Unmarshal(decodeEnvelope(t, w).Data, &records); err != nil {
			t.Fatalf("Failed to decode: %v", err)
		}
		if len(records) != 2 {
			t.Fatalf("Expected 2 mock-a rows, got %d", len(records))
		}
		for _, r := range records {
			if r.AdapterID != "mock-a" {
				t.Errorf("Expected adapter mock-a, got %s", r.AdapterID)
			}
		}
	})

	t.Run("by status", func(t *testing.T) {
		w := getOperator(env.handler, "/api/v1/executions?status=failed")
		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", w.Code)
		}
		var records []models.ExecutionRecord
		if err := json.Unmarshal(decodeEnvelope(t, w).Data, &records); err != nil {
			t.Fatalf("Failed to decode: %v", err)
		}
		if len(records) != 1 {
			t.Fatalf("Expected 1 failed row, got %d", len(records))
		}
		if records[0].SignalFingerprint != "op-fp-2" {
			t.Errorf("Expected op-fp-2, got %s", records[0].SignalFingerprint)
		}
	})

	t.Run("combined", func(t *testing.T) {
		w := getOperator(env.handler, "/api/v1/executions?adapter=mock-b&status=filled")
		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", w.Code)
		}
		var records []models.ExecutionRecord
		if err := json.Unmarshal(decodeEnvelope(t, w).Data, &records); err != nil {
			t.Fatalf("Failed to decode: %v", err)
		}
		if len(records) != 2 {
			t.Errorf("Expected 2 filled mock-b rows, got %d", len(records))
		}
	})
}

func TestExecutions_Pagination(t *testing.T) {
	env := newWebhookEnv(t, webhookEnvOptions{noAdapters: true})
	seedOperatorData(t, env.db)

	w := getOperator(env.handler, "/api/v1/executions?limit=2")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var page1 []models.ExecutionRecord
	if err := json.Unmarshal(decodeEnvelope(t, w).Data, &page1); err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if len(page1) != 2 {
		t.Fatalf("Expected page of 2, got %d", len(page1))
	}

	w = getOperator(env.handler, "/api/v1/executions?limit=2&offset=4")
	var page3 []models.ExecutionRecord
	if err := json.Unmarshal(decodeEnvelope(t, w).Data, &page3); err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if len(page3) != 1 {
		t.Errorf("Expected final page of 1, got %d", len(page3))
	}

	// Oversized limits clamp to the configured maximum instead of failing
	// validation.
	w = getOperator(env.handler, "/api/v1/executions?limit=99999")
	if w.Code != http.StatusOK {
		t.Errorf("Expected clamped limit to succeed, got %d", w.Code)
	}
}

func TestExecutions_Validation(t *testing.T) {
	env := newWebhookEnv(t, webhookEnvOptions{noAdapters: true})

	tests := []struct {
		name   string
		target string
	}{
		{"unknown status", "/api/v1/executions?status=bogus"},
		{"negative offset", "/api/v1/executions?offset=-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := getOperator(env.handler, tt.target)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("Expected status 400, got %d (body: %s)", w.Code, w.Body.String())
			}
			envlp := decodeEnvelope(t, w)
			if envlp.Status != "error" || envlp.Error == nil {
				t.Errorf("Expected error envelope, got %+v", envlp)
			}
		})
	}
}

func TestOperator_StoreUnavailable(t *testing.T) {
	env := newWebhookEnv(t, webhookEnvOptions{noAdapters: true, noStore: true})

	for _, target := range []string{"/api/v1/executions", "/api/v1/errors", "/api/v1/stats"} {
		w := getOperator(env.handler, target)
		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("%s: expected status 503, got %d", target, w.Code)
		}
		envlp := decodeEnvelope(t, w)
		if envlp.Error == nil || envlp.Error.Code != string(models.CodeDatabaseError) {
			t.Errorf("%s: expected DATABASE_ERROR envelope, got %+v", target, envlp.Error)
		}
	}
}

func TestErrors_FilterByLevel(t *testing.T) {
	env := newWebhookEnv(t, webhookEnvOptions{noAdapters: true})
	seedOperatorData(t, env.db)

	w := getOperator(env.handler, "/api/v1/errors?level=warning")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d (body: %s)", w.Code, w.Body.String())
	}
	var entries []models.ErrorEntry
	if err := json.Unmarshal(decodeEnvelope(t, w).Data, &entries); err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 warning entries, got %d", len(entries))
	}
	for _, e := range entries {
		if e.Level != models.LevelWarning {
			t.Errorf("Expected warning level, got %s", e.Level)
		}
	}

	w = getOperator(env.handler, "/api/v1/errors?level=bogus")
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for unknown level, got %d", w.Code)
	}
}

func TestErrors_FilterByCategory(t *testing.T) {
	env := newWebhookEnv(t, webhookEnvOptions{noAdapters: true})
	seedOperatorData(t, env.db)

	w := getOperator(env.handler, "/api/v1/errors?category=DEX_TIMEOUT")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var entries []models.ErrorEntry
	if err := json.Unmarshal(decodeEnvelope(t, w).Data, &entries); err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Expected 1 DEX_TIMEOUT entry, got %d", len(entries))
	}
	if entries[0].Message != "probe timed out" {
		t.Errorf("Unexpected entry: %+v", entries[0])
	}
}

func TestSignalDetail(t *testing.T) {
	env := newWebhookEnv(t, webhookEnvOptions{noAdapters: true})
	seedOperatorData(t, env.db)

	t.Run("found", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/signals/op-fp-1", nil)
		req.SetPathValue("fingerprint", "op-fp-1")
		w := httptest.NewRecorder()
		env.handler.SignalDetail(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d (body: %s)", w.Code, w.Body.String())
		}
		var detail SignalDetailResponse
		if err := json.Unmarshal(decodeEnvelope(t, w).Data, &detail); err != nil {
			t.Fatalf("Failed to decode: %v", err)
		}
		if detail.Signal == nil || detail.Signal.Fingerprint != "op-fp-1" {
			t.Fatalf("Expected signal op-fp-1, got %+v", detail.Signal)
		}
		if len(detail.Executions) != 2 {
			t.Errorf("Expected 2 executions, got %d", len(detail.Executions))
		}
	})

	t.Run("not found", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/signals/no-such-fp", nil)
		req.SetPathValue("fingerprint", "no-such-fp")
		w := httptest.NewRecorder()
		env.handler.SignalDetail(w, req)

		if w.Code != http.StatusNotFound {
			t.Fatalf("Expected status 404, got %d", w.Code)
		}
		envlp := decodeEnvelope(t, w)
		if envlp.Error == nil || envlp.Error.Code != "NOT_FOUND" {
			t.Errorf("Expected NOT_FOUND envelope, got %+v", envlp.Error)
		}
	})

	t.Run("missing fingerprint", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/signals/", nil)
		w := httptest.NewRecorder()
		env.handler.SignalDetail(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", w.Code)
		}
	})
}

func TestStats_Snapshot(t *testing.T) {
	env := newWebhookEnv(t, webhookEnvOptions{noAdapters: true})
	seedOperatorData(t, env.db)

	w := getOperator(env.handler, "/api/v1/stats")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d (body: %s)", w.Code, w.Body.String())
	}

	var stats struct {
		Signals            int64            `json:"signals"`
		Executions         int64            `json:"executions"`
		ExecutionsByStatus map[string]int64 `json:"executions_by_status"`
		ErrorsByLevel      map[string]int64 `json:"errors_by_level"`
		UptimeSeconds      int64            `json:"uptime_seconds"`
	}
	if err := json.Unmarshal(decodeEnvelope(t, w).Data, &stats); err != nil {
		t.Fatalf("Failed to decode stats: %v", err)
	}

	if stats.Signals != 3 {
		t.Errorf("Expected 3 signals, got %d", stats.Signals)
	}
	if stats.Executions != 5 {
		t.Errorf("Expected 5 executions, got %d", stats.Executions)
	}
	if stats.ExecutionsByStatus["filled"] != 3 {
		t.Errorf("Expected 3 filled, got %d", stats.ExecutionsByStatus["filled"])
	}
	if stats.ExecutionsByStatus["failed"] != 1 {
		t.Errorf("Expected 1 failed, got %d", stats.ExecutionsByStatus["failed"])
	}
	if stats.ErrorsByLevel["warning"] != 2 {
		t.Errorf("Expected 2 warnings, got %d", stats.ErrorsByLevel["warning"])
	}
	if stats.UptimeSeconds < 0 {
		t.Errorf("Expected non-negative uptime, got %d", stats.UptimeSeconds)
	}
}
