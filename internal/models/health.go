// Signalmesh - Webhook Trade Signal Fan-Out Across Decentralized Exchanges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signalmesh

package models

import "time"

// HealthStatus is the monitor-assigned state of one adapter, or the
// aggregate of all of them.
type HealthStatus string

// Health states. Transitions are driven by consecutive probe failures:
// healthy on success, degraded below the failure threshold, offline at or
// above it.
const (
	HealthHealthy  HealthStatus = "healthy"
	HealthDegraded HealthStatus = "degraded"
	HealthOffline  HealthStatus = "offline"
)

// HealthSample is the result of one health probe against one adapter.
type HealthSample struct {
	Status       HealthStatus `json:"status"`
	LatencyMS    int64        `json:"latency_ms"`
	ObservedAt   time.Time    `json:"observed_at"`
	ErrorMessage string       `json:"error_message,omitempty"`
}

// AdapterHealth is the per-adapter slice of the composite health view.
// ErrorCount is a rolling 5-minute probe-failure count; it is informational
// and plays no part in the aggregation rule.
type AdapterHealth struct {
	Status         HealthStatus `json:"status"`
	LatencyMS      int64        `json:"latency_ms"`
	ErrorCount     int64        `json:"error_count"`
	ErrorMessage   *string      `json:"error_message"`
	LastSuccessful *time.Time   `json:"last_successful"`
}

// CompositeHealth is the public health endpoint body.
//
// Aggregation: all adapters healthy (or none configured) -> healthy; all
// offline -> offline; any mix -> degraded.
type CompositeHealth struct {
	Status        HealthStatus             `json:"status"`
	TestMode      bool                     `json:"test_mode"`
	UptimeSeconds int64                    `json:"uptime_seconds"`
	DEXStatus     map[string]AdapterHealth `json:"dex_status"`
	Timestamp     time.Time                `json:"timestamp"`
}
