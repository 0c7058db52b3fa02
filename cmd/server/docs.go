// Signalmesh - Webhook Trade Signal Fan-Out Across Decentralized Exchanges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signalmesh

// Package main provides the Signalmesh HTTP server
//
// Signalmesh receives trade signals over a single authenticated webhook and
// fans them out in parallel to every connected decentralized exchange.
//
// @title Signalmesh API
// @version 1.0
// @description Webhook trade-signal fan-out across decentralized exchanges
// @description
// @description ## Ingress
// @description
// @description - **Single Webhook**: One `POST /webhook` accepts a `{symbol, side, size}` signal and dispatches it to all connected DEX adapters in parallel
// @description - **Idempotent Dedup**: Duplicate signals inside the suppression window return the original result instead of re-executing
// @description - **Rate Limiting**: Sliding-window limit per client; rejected requests carry a `Retry-After` header
// @description - **Test Mode**: Dry-run envelope describing what would have executed, with no live orders placed
// @description
// @description ## Authentication
// @description
// @description The webhook accepts either the shared system token (`X-Webhook-Token` header)
// @description or a per-user JWT carried in the `token` query parameter or URL path.
// @description Operator endpoints accept the same tokens via `Authorization: Bearer` and are
// @description additionally gated by role-based access control.
// @description
// @description ## Error Responses
// @description
// @description Webhook errors use this format:
// @description ```json
// @description {
// @description   "error": "Human-readable error message",
// @description   "code": "INVALID_SIGNAL",
// @description   "signal_id": null,
// @description   "dex": null,
// @description   "timestamp": "2026-08-24T12:34:56Z"
// @description }
// @description ```
// @description
// @description Stable error codes: `INVALID_SIGNAL`, `INVALID_TOKEN`, `RATE_LIMITED`,
// @description `SERVICE_UNAVAILABLE`, `DEX_TIMEOUT`, `DEX_CONNECTION_FAILED`, `DEX_REJECTED`,
// @description `INSUFFICIENT_FUNDS`, `NONCE_ERROR`, `ORDER_NOT_FOUND`, `EXECUTION_FAILED`, `PARTIAL_FILL`.
//
// @contact.name GitHub Repository
// @contact.url https://github.com/tomtom215/signalmesh/issues
//
// @license.name AGPL-3.0-or-later
// @license.url https://www.gnu.org/licenses/agpl-3.0.html
//
// @host localhost:8080
// @BasePath /
// @schemes http https
//
// @securityDefinitions.apikey WebhookToken
// @in header
// @name X-Webhook-Token
// @description Shared system token. Operator endpoints also accept it as "Authorization: Bearer <token>".
//
// @tag.name Webhook
// @tag.description Signal ingress endpoints: authenticated webhook with dedup, rate limiting, and parallel DEX fan-out
//
// @tag.name Core
// @tag.description Health endpoints: composite adapter health and process liveness
//
// @tag.name Operator
// @tag.description Operator read API for execution records, error logs, signal lookups, and statistics
package main
