// Signalmesh - Webhook Trade Signal Fan-Out Across Decentralized Exchanges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signalmesh

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderRequest is the adapter-facing view of a signal: what to trade, which
// way, and how much. Size is always positive; direction lives in Side.
type OrderRequest struct {
	Symbol string          `json:"symbol"`
	Side   Side            `json:"side"`
	Size   decimal.Decimal `json:"size"`
}

// SubmissionStatus is the exchange acknowledgement state of a submitted
// order. Submission is ack-level: an order can be "submitted" long before it
// fills, and fills are reconciled later from status polls or push updates.
type SubmissionStatus string

// Submission statuses.
const (
	SubmissionSubmitted SubmissionStatus = "submitted"
	SubmissionFilled    SubmissionStatus = "filled"
	SubmissionPartial   SubmissionStatus = "partial"
	SubmissionRejected  SubmissionStatus = "rejected"
)

// SubmissionResult is what an adapter returns once the exchange acknowledges
// receipt of an order. FilledAmount is whatever the acknowledgement reported
// (often zero for resting orders); RawResponse preserves the exchange body
// for the audit blob.
type SubmissionResult struct {
	ExternalOrderID string           `json:"external_order_id"`
	Status          SubmissionStatus `json:"status"`
	SubmittedAt     time.Time        `json:"submitted_at"`
	FilledAmount    decimal.Decimal  `json:"filled_amount"`
	RemainingAmount decimal.Decimal  `json:"remaining_amount"`
	RawResponse     string           `json:"raw_response,omitempty"`
}

// OrderState is the lifecycle state reported by an order-status query or a
// push update.
type OrderState string

// Order lifecycle states.
const (
	OrderOpen          OrderState = "open"
	OrderPartialFilled OrderState = "partial_filled"
	OrderFilled        OrderState = "filled"
	OrderCancelled     OrderState = "cancelled"
	OrderRejected      OrderState = "rejected"
)

// OrderStatusInfo is the point-in-time view of one exchange order.
type OrderStatusInfo struct {
	ExternalOrderID string          `json:"external_order_id"`
	Symbol          string          `json:"symbol,omitempty"`
	State           OrderState      `json:"state"`
	FilledAmount    decimal.Decimal `json:"filled_amount"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// Position is an open position on one symbol as reported by an adapter.
// Size is signed from the exchange's perspective: positive long, negative
// short.
type Position struct {
	Symbol     string          `json:"symbol"`
	Size       decimal.Decimal `json:"size"`
	EntryPrice decimal.Decimal `json:"entry_price"`
	MarkPrice  decimal.Decimal `json:"mark_price,omitempty"`
	ObservedAt time.Time       `json:"observed_at"`
}

// OrderUpdate is one push-stream event delivered to a subscription sink by
// adapters that support the optional updates capability.
type OrderUpdate struct {
	AdapterID       string          `json:"adapter_id"`
	ExternalOrderID string          `json:"external_order_id"`
	Symbol          string          `json:"symbol,omitempty"`
	State           OrderState      `json:"state"`
	FilledAmount    decimal.Decimal `json:"filled_amount"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
	OccurredAt      time.Time       `json:"occurred_at"`
}

// Terminal reports whether the update describes a state with no further
// transitions (fully filled, cancelled, or rejected).
func (u OrderUpdate) Terminal() bool {
	switch u.State {
	case OrderFilled, OrderCancelled, OrderRejected:
		return true
	}
	return false
}
