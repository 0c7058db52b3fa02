// Signalmesh - Webhook Trade Signal Fan-Out Across Decentralized Exchanges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signalmesh

/*
Package models defines data structures for the Signalmesh application.

This package contains all data models used throughout the application: the
signal payload and its canonical fingerprint, persisted rows (signals,
executions, error log), adapter-facing order types, the HTTP response
envelopes, and the stable error-code vocabulary. It is the single source of
truth for data structure definitions; no other package declares wire shapes.

Key Components:

  - SignalPayload: the validated webhook triple (symbol, side, size)
  - Signal: persisted append-only row keyed by fingerprint
  - ExecutionRecord: one row per (signal, adapter) dispatch attempt
  - ErrorEntry: structured error-log row with 90-day retention
  - ProcessingResponse / AdapterResult: fan-out outcome envelope
  - OrderRequest / SubmissionResult / Position: adapter contract types
  - HealthSample / CompositeHealth: probe and aggregate health views
  - APIResponse / APIError: operator API envelope

Numeric Semantics:

Order sizes and fill amounts are arbitrary-precision decimals
(shopspring/decimal) end to end. Binary floats never cross the ingress
boundary; canonical string form carries no exponent and no trailing zeros.

Thread Safety:

All models are plain data. They are safe for concurrent reads and are never
mutated after construction.

See Also:

  - internal/store: persistence of Signal, ExecutionRecord, ErrorEntry
  - internal/processor: fills ProcessingResponse
  - internal/dex: consumes OrderRequest, produces SubmissionResult
*/
package models
