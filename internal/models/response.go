// Signalmesh - Webhook Trade Signal Fan-Out Across Decentralized Exchanges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signalmesh

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OverallStatus summarizes a whole fan-out: success when every adapter
// outcome landed in {filled, partial}, failed when none did, partial for any
// mix.
type OverallStatus string

// Fan-out summaries.
const (
	OverallSuccess OverallStatus = "success"
	OverallPartial OverallStatus = "partial"
	OverallFailed  OverallStatus = "failed"
)

// Per-adapter outcome surfaced in the response. The processor reports the
// submission outcome only; partial-fill refinement happens later in the
// execution log, never here.
const (
	ResultFilled = "filled"
	ResultError  = "error"
)

// AdapterResult is one adapter's slice of a ProcessingResponse.
type AdapterResult struct {
	DEXID        string          `json:"dex_id"`
	Status       string          `json:"status"`
	OrderID      *string         `json:"order_id"`
	FilledAmount decimal.Decimal `json:"filled_amount"`
	ErrorMessage string          `json:"error_message,omitempty"`
	LatencyMS    int64           `json:"latency_ms"`
}

// ProcessingResponse is the 200-body for a dispatched signal and the return
// value of the signal processor. TotalDEXCount is the number of adapters that
// were active when dispatch began; Results always marshals as an array, never
// null.
//
// Example:
//
//	{
//	  "signal_id": "9f2c1a77b3e4d512",
//	  "overall_status": "partial",
//	  "results": [
//	    {"dex_id": "mock-a", "status": "filled", "order_id": "ord-1", "filled_amount": "0.5", "latency_ms": 84},
//	    {"dex_id": "hyperliquid", "status": "error", "order_id": null, "filled_amount": "0", "error_message": "connect: refused", "latency_ms": 12}
//	  ],
//	  "total_dex_count": 2,
//	  "successful_count": 1,
//	  "failed_count": 1,
//	  "total_latency_ms": 91,
//	  "timestamp": "2026-08-24T12:34:56Z"
//	}
type ProcessingResponse struct {
	SignalID        string          `json:"signal_id"`
	OverallStatus   OverallStatus   `json:"overall_status"`
	Results         []AdapterResult `json:"results"`
	TotalDEXCount   int             `json:"total_dex_count"`
	SuccessfulCount int             `json:"successful_count"`
	FailedCount     int             `json:"failed_count"`
	TotalLatencyMS  int64           `json:"total_latency_ms"`
	Timestamp       time.Time       `json:"timestamp"`
}

// NewDuplicateEcho builds the idempotent response for a signal whose
// fingerprint was already accepted within the dedup window: success with no
// results and a zero adapter count. Duplicates consume no rate budget and
// trigger no dispatch.
func NewDuplicateEcho(fingerprint string, now time.Time) *ProcessingResponse {
	return &ProcessingResponse{
		SignalID:      fingerprint,
		OverallStatus: OverallSuccess,
		Results:       []AdapterResult{},
		Timestamp:     now,
	}
}

// NewFailedResponse builds an empty failed response: used when no adapter is
// active and when the dispatch path fails unexpectedly.
func NewFailedResponse(fingerprint string, now time.Time) *ProcessingResponse {
	return &ProcessingResponse{
		SignalID:      fingerprint,
		OverallStatus: OverallFailed,
		Results:       []AdapterResult{},
		Timestamp:     now,
	}
}

// DryRunEntry is one would-have-executed line of a test-mode response.
type DryRunEntry struct {
	DEX             string          `json:"dex"`
	Symbol          string          `json:"symbol"`
	Side            Side            `json:"side"`
	Size            decimal.Decimal `json:"size"`
	SimulatedResult string          `json:"simulated_result"`
}

// DryRunResponse is the 200-body returned while the global test-mode flag is
// set. Status is always "dry_run". Execution records written during test
// mode carry is_test_mode in their blobs so audits can exclude them.
type DryRunResponse struct {
	Status            string        `json:"status"`
	SignalID          string        `json:"signal_id"`
	Message           string        `json:"message"`
	WouldHaveExecuted []DryRunEntry `json:"would_have_executed"`
	Timestamp         time.Time     `json:"timestamp"`
}

// WebhookError is the uniform 4xx/5xx body of the webhook endpoint. SignalID
// is null when rejection happened before a fingerprint existed.
type WebhookError struct {
	Error     string    `json:"error"`
	Code      ErrorCode `json:"code"`
	SignalID  *string   `json:"signal_id"`
	DEX       *string   `json:"dex"`
	Timestamp time.Time `json:"timestamp"`
}

// APIResponse is the standardized envelope of the operator API (not the
// webhook endpoint, which has its own contract above).
//
// Status is "success" or "error"; Error is populated only for the latter.
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata carries response observability fields.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
}

// APIError is the structured error detail of an operator API response.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
