// Signalmesh - Webhook Trade Signal Fan-Out Across Decentralized Exchanges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signalmesh

// Package alerts delivers operational alerts (adapter transitions, dispatch
// failures, terminal order states) to one or more sinks.
//
// Delivery is fire-and-forget: Send never blocks the caller and never
// returns an error. Alerts are always written to the structured log; when
// NATS delivery is enabled they are additionally published to JetStream so
// external consumers can subscribe. A per-category throttle suppresses alert
// storms (a flapping adapter emits two transitions per flap, not an unbounded
// stream).
package alerts

import (
	"time"

	"github.com/google/uuid"
)

// Category identifies what kind of event an alert describes. Categories are
// stable strings: they are throttle keys, NATS subject suffixes, and consumer
// filter values.
type Category string

// Alert categories.
const (
	CategoryAdapterOffline   Category = "adapter_offline"
	CategoryAdapterDegraded  Category = "adapter_degraded"
	CategoryAdapterRecovered Category = "adapter_recovered"
	CategoryReconnectFailed  Category = "reconnect_failed"
	CategoryDispatchFailed   Category = "dispatch_failed"
	CategoryOrderTerminal    Category = "order_terminal"
)

// Severity grades an alert for consumers that page on some categories and
// merely chart others.
type Severity string

// Alert severities.
const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Alert is one operational event. Details carries category-specific fields
// (adapter id, failure counts, error text) and must be JSON-serializable.
type Alert struct {
	ID        string                 `json:"id"`
	Category  Category               `json:"category"`
	Severity  Severity               `json:"severity"`
	DEX       string                 `json:"dex,omitempty"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// New builds an alert with a fresh event id and UTC timestamp.
func New(category Category, severity Severity, dexID, message string) Alert {
	return Alert{
		ID:        uuid.New().String(),
		Category:  category,
		Severity:  severity,
		DEX:       dexID,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
}

// WithDetail returns a copy of the alert with one detail field set.
func (a Alert) WithDetail(key string, value interface{}) Alert {
	details := make(map[string]interface{}, len(a.Details)+1)
	for k, v := range a.Details {
		details[k] = v
	}
	details[key] = value
	a.Details = details
	return a
}
