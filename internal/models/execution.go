// Signalmesh - Webhook Trade Signal Fan-Out Across Decentralized Exchanges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signalmesh

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExecutionStatus classifies one (signal, adapter) dispatch attempt.
type ExecutionStatus string

// Execution statuses. "partial" is never supplied by callers; the execution
// log coerces it from the result blob at record time (filled > 0 and
// remaining > 0).
const (
	ExecutionPending ExecutionStatus = "pending"
	ExecutionFilled  ExecutionStatus = "filled"
	ExecutionPartial ExecutionStatus = "partial"
	ExecutionFailed  ExecutionStatus = "failed"
)

// Valid reports whether s is a known execution status.
func (s ExecutionStatus) Valid() bool {
	switch s {
	case ExecutionPending, ExecutionFilled, ExecutionPartial, ExecutionFailed:
		return true
	}
	return false
}

// ExecutionRecord is one persisted row per (signal, adapter) attempt. A
// signal dispatched to N adapters yields N records, written independently;
// persistence failure of one record never blocks the others.
type ExecutionRecord struct {
	ID                string          `json:"id"`
	SignalFingerprint string          `json:"signal_fingerprint"`
	AdapterID         string          `json:"adapter_id"`
	ExternalOrderID   *string         `json:"external_order_id,omitempty"`
	Status            ExecutionStatus `json:"status"`
	ResultBlob        string          `json:"result_blob"`
	LatencyMS         *int64          `json:"latency_ms,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
}

// ResultBlob is the serialized adapter response stored inside an execution
// record. It is opaque to callers except for the fields the execution log
// inspects for partial-fill classification and the audit filters inspect for
// test-mode exclusion.
type ResultBlob struct {
	ExternalOrderID string          `json:"external_order_id,omitempty"`
	FilledAmount    decimal.Decimal `json:"filled_amount"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
	ErrorMessage    string          `json:"error_message,omitempty"`
	IsTestMode      bool            `json:"is_test_mode,omitempty"`
	Raw             string          `json:"raw,omitempty"`
}

// IndicatesPartial reports whether the blob describes a partial fill: some of
// the requested size filled and some remains. This numeric condition alone
// decides the "partial" status, regardless of the adapter-reported outcome.
func (b ResultBlob) IndicatesPartial() bool {
	return b.FilledAmount.IsPositive() && b.RemainingAmount.IsPositive()
}
