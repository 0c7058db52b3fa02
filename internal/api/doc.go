// Signalmesh - Webhook Trade Signal Fan-Out Across Decentralized Exchanges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signalmesh

// Package api is the HTTP surface of signalmesh: the webhook ingress that
// feeds the signal processor, the public health endpoints, and the
// authenticated operator API over the persistent store.
//
// Routing uses Chi with production middleware from its ecosystem
// (go-chi/cors, go-chi/httprate). The webhook route deliberately carries no
// httprate guard: its gate order (draining, auth, dedup, per-key rate limit)
// is handled inside the handler so a duplicate can never burn rate budget
// and an unauthenticated caller can never learn limiter state.
//
// Handlers are split across files:
//   - handlers.go: Handler struct and constructor
//   - handlers_helpers.go: response envelopes and param parsing
//   - handlers_webhook.go: signal ingress (query token, header token, path token)
//   - handlers_health.go: composite health and liveness
//   - handlers_operator.go: executions, errors, signal detail, stats
//   - chi_middleware.go: middleware factories and operator authentication
//   - chi_router.go: route wiring
package api
