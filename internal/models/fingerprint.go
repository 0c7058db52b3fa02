// Signalmesh - Webhook Trade Signal Fan-Out Across Decentralized Exchanges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signalmesh

package models

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// fingerprintHexLen is the number of lowercase hex characters kept from the
// SHA-256 digest. 64 bits of identifier is ample for the dedup window and
// keeps operator-facing ids short.
const fingerprintHexLen = 16

// minuteStampLayout renders a UTC instant truncated to the minute in ISO
// form without a timezone suffix, seconds always present ("2026-08-24T12:34:00").
const minuteStampLayout = "2006-01-02T15:04:05"

// Fingerprint derives the deduplication identifier for a payload received at
// the given instant.
//
// The input is the canonical JSON of the payload, a ":" separator, and the
// UTC receive time truncated to the minute. Identical payloads arriving in
// the same UTC minute therefore share a fingerprint; arriving in different
// minutes they do not. The minute boundary, not a rolling 60 s, is the
// deduplication granularity.
func Fingerprint(p SignalPayload, at time.Time) string {
	stamp := at.UTC().Truncate(time.Minute).Format(minuteStampLayout)
	sum := sha256.Sum256([]byte(p.CanonicalJSON() + ":" + stamp))
	return hex.EncodeToString(sum[:])[:fingerprintHexLen]
}
