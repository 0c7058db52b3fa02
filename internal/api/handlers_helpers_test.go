// Signalmesh - Webhook Trade Signal Fan-Out Across Decentralized Exchanges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signalmesh

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/signalmesh/internal/config"
	"github.com/tomtom215/signalmesh/internal/models"
)

func TestGenerateETag(t *testing.T) {
	t.Parallel()

	a := generateETag([]byte(`{"status":"success"}`))
	b := generateETag([]byte(`{"status":"success"}`))
	c := generateETag([]byte(`{"status":"error"}`))

	if a == "" {
		t.Fatal("Expected a non-empty ETag")
	}
	if a != b {
		t.Errorf("Same data produced different ETags: %s vs %s", a, b)
	}
	if a == c {
		t.Errorf("Different data produced the same ETag: %s", a)
	}
}

func TestRespondJSON_Headers(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status:   "success",
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
	})

	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected application/json, got %q", ct)
	}
	// Operator responses are authenticated; they must never land in a
	// shared cache.
	if cc := w.Header().Get("Cache-Control"); cc != "no-store" {
		t.Errorf("Expected Cache-Control no-store, got %q", cc)
	}
	if w.Header().Get("ETag") == "" {
		t.Error("Expected an ETag header")
	}
}

func TestRespondError_Envelope(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	respondError(w, http.StatusBadRequest, "INVALID_SIGNAL", "bad input", nil)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", w.Code)
	}
	var resp models.APIResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if resp.Status != "error" {
		t.Errorf("Expected error status, got %q", resp.Status)
	}
	if resp.Error == nil || resp.Error.Code != "INVALID_SIGNAL" || resp.Error.Message != "bad input" {
		t.Errorf("Unexpected error block: %+v", resp.Error)
	}
	if resp.Metadata.Timestamp.IsZero() {
		t.Error("Expected a metadata timestamp")
	}
}

func TestRespondWebhookError_Envelope(t *testing.T) {
	t.Parallel()

	fp := "fp-123"
	w := httptest.NewRecorder()
	respondWebhookError(w, http.StatusTooManyRequests, models.CodeRateLimited, "Rate limit exceeded", &fp)

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("Expected status 429, got %d", w.Code)
	}
	var werr models.WebhookError
	if err := json.Unmarshal(w.Body.Bytes(), &werr); err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if werr.Code != models.CodeRateLimited {
		t.Errorf("Expected RATE_LIMITED, got %s", werr.Code)
	}
	if werr.Error != "Rate limit exceeded" {
		t.Errorf("Unexpected message: %q", werr.Error)
	}
	if werr.SignalID == nil || *werr.SignalID != fp {
		t.Errorf("Expected signal_id %s, got %v", fp, werr.SignalID)
	}
	if werr.Timestamp.IsZero() {
		t.Error("Expected a timestamp")
	}
}

func TestGetIntParam(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		query    string
		key      string
		fallback int
		expected int
	}{
		{"present", "limit=42", "limit", 10, 42},
		{"missing", "", "limit", 10, 10},
		{"not a number", "limit=abc", "limit", 10, 10},
		{"negative passes through", "offset=-3", "offset", 0, -3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil)
			if got := getIntParam(req, tt.key, tt.fallback); got != tt.expected {
				t.Errorf("getIntParam(%q) = %d, want %d", tt.query, got, tt.expected)
			}
		})
	}
}

func TestPageSize(t *testing.T) {
	t.Parallel()

	h := &Handler{config: &config.Config{
		API: config.APIConfig{DefaultPageSize: 20, MaxPageSize: 100},
	}}

	tests := []struct {
		name     string
		query    string
		expected int
	}{
		{"missing uses default", "", 20},
		{"explicit within bounds", "limit=50", 50},
		{"zero uses default", "limit=0", 20},
		{"negative uses default", "limit=-5", 20},
		{"oversized clamps to max", "limit=5000", 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil)
			if got := h.pageSize(req); got != tt.expected {
				t.Errorf("pageSize(%q) = %d, want %d", tt.query, got, tt.expected)
			}
		})
	}

	t.Run("nil config falls back to built-ins", func(t *testing.T) {
		bare := &Handler{}
		req := httptest.NewRequest(http.MethodGet, "/?limit=500", nil)
		if got := bare.pageSize(req); got != 100 {
			t.Errorf("pageSize with nil config = %d, want 100", got)
		}
	})
}

func TestRetryAfterSeconds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		d        time.Duration
		expected int
	}{
		{"zero floors to one", 0, 1},
		{"negative floors to one", -time.Second, 1},
		{"sub-second rounds up", 300 * time.Millisecond, 1},
		{"exact seconds", 5 * time.Second, 5},
		{"fractional rounds up", 5*time.Second + time.Millisecond, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := retryAfterSeconds(tt.d); got != tt.expected {
				t.Errorf("retryAfterSeconds(%v) = %d, want %d", tt.d, got, tt.expected)
			}
		})
	}
}

func TestValidateRequest(t *testing.T) {
	t.Parallel()

	valid := ExecutionsRequest{Limit: 10, Offset: 0, Status: "filled"}
	if apiErr := validateRequest(&valid); apiErr != nil {
		t.Errorf("Expected valid request, got %+v", apiErr)
	}

	invalid := ExecutionsRequest{Limit: 10, Offset: 0, Status: "bogus"}
	apiErr := validateRequest(&invalid)
	if apiErr == nil {
		t.Fatal("Expected validation error for unknown status")
	}
	if apiErr.Code == "" || apiErr.Message == "" {
		t.Errorf("Expected populated error, got %+v", apiErr)
	}
}
