// Signalmesh - Webhook Trade Signal Fan-Out Across Decentralized Exchanges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signalmesh

// Package auth provides the two token surfaces Signalmesh owns: the shared
// system webhook token (constant-time compare) and optional per-user webhook
// tokens (HS256 JWTs signed with an HKDF-derived key).
//
// User and wallet registration, session issuance, and webhook-URL minting are
// collaborator territory; the only contract this package exports for them is
// TokenVerifier, which maps a presented token to a user id.
package auth
