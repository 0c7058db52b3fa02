// Signalmesh - Webhook Trade Signal Fan-Out Across Decentralized Exchanges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signalmesh

/*
Package middleware provides HTTP middleware components for the application.

This package implements infrastructure middleware for request ID tracking,
Prometheus metrics instrumentation, gzip compression, and in-process latency
percentile tracking. The webhook-specific concerns (token authentication,
per-token rate limiting) live in the api package next to the handlers that
use them; this package holds only the concerns shared by every route.

Key Components:

  - Request ID: UUID-based request tracking for distributed tracing, bound
    into the zerolog context so every log line of a request carries its id
  - Prometheus Metrics: HTTP request/response instrumentation
  - Compression: Gzip compression for operator API responses
  - Performance Monitor: request latency tracking with percentile
    calculations, surfaced by the stats endpoint

All middleware uses the http.HandlerFunc chaining style; the api package's
router bridges these into chi's http.Handler middleware shape.
*/
package middleware
