// Signalmesh - Webhook Trade Signal Fan-Out Across Decentralized Exchanges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signalmesh

package models

import (
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

// Side is the trade direction carried by a signal.
type Side string

// Trade directions accepted by the webhook schema.
const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Valid reports whether s is one of the two accepted directions.
func (s Side) Valid() bool {
	return s == SideBuy || s == SideSell
}

// SignalPayload is the validated webhook triple.
//
// Validation rules (enforced at ingress, not here):
//   - Symbol: non-empty after whitespace trim
//   - Side: "buy" or "sell" (lowercased)
//   - Size: positive decimal (zero, negative, and non-numeric rejected)
//
// Size accepts both JSON numbers and numeric strings on the wire;
// decimal.Decimal unmarshals either form without precision loss.
type SignalPayload struct {
	Symbol string          `json:"symbol" validate:"required,notblank"`
	Side   Side            `json:"side" validate:"required,tradeside"`
	Size   decimal.Decimal `json:"size" validate:"posdecimal"`
}

// Normalize returns a copy with the canonical field forms used for
// fingerprinting and persistence: symbol trimmed, side lowercased.
// Size is already canonical (decimal carries no representation noise).
func (p SignalPayload) Normalize() SignalPayload {
	return SignalPayload{
		Symbol: strings.TrimSpace(p.Symbol),
		Side:   Side(strings.ToLower(string(p.Side))),
		Size:   p.Size,
	}
}

// CanonicalJSON renders the payload with alphabetical keys and the size as a
// canonical decimal string (no exponent, no trailing zeros). Two payloads that
// differ only in whitespace, key order, or numeric representation produce the
// same canonical form.
func (p SignalPayload) CanonicalJSON() string {
	n := p.Normalize()
	// Side and size are constrained forms; the symbol is free text and
	// must be escaped like any JSON string. Marshalling a string cannot
	// fail.
	symbol, _ := json.Marshal(n.Symbol)
	var b strings.Builder
	b.Grow(48 + len(symbol))
	b.WriteString(`{"side":"`)
	b.WriteString(string(n.Side))
	b.WriteString(`","size":"`)
	b.WriteString(n.Size.String())
	b.WriteString(`","symbol":`)
	b.Write(symbol)
	b.WriteString(`}`)
	return b.String()
}

// Signal is the persisted append-only row for one received webhook.
//
// Fingerprint is unique in the store; a second insert with the same
// fingerprint fails. The ingress path detects duplicates before attempting
// the insert, so store uniqueness is defense in depth, not the primary gate.
type Signal struct {
	Fingerprint string    `json:"fingerprint"`
	Payload     string    `json:"payload"`
	UserID      string    `json:"user_id,omitempty"`
	ReceivedAt  time.Time `json:"received_at"`
	Processed   bool      `json:"processed"`
}
