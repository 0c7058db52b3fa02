// Signalmesh - Webhook Trade Signal Fan-Out Across Decentralized Exchanges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signalmesh

/*
Package services provides suture.Service wrappers for Signalmesh components.

This package adapts existing application components to the suture v4
supervision model, translating their lifecycle patterns (Run loops,
stop-channel routines, ListenAndServe) into suture's context-aware Serve
pattern.

# Available Services

HTTP Server (HTTPServerService):
  - Wraps *http.Server with graceful shutdown
  - Converts the ListenAndServe pattern to Serve
  - Configurable shutdown timeout for draining connections

Run-Loop Components (RunnerService):
  - Wraps anything with a blocking Run(ctx) error loop
  - Used for the adapter health monitor, retention sweeper, and alert relay
  - Component state lives on the component, so restarts resume cleanly

Cleanup Loops (JanitorService):
  - Wraps stop-channel cleanup routines
  - Used for the dedup and rate-limit janitors

# Design Notes

The wrappers define their own narrow interfaces (HTTPServer, Runner,
CleanupStarter) rather than importing the wrapped packages. This keeps the
dependency arrow pointing from main into both sides and makes every wrapper
testable with a few-line mock.

Errors returned from Serve trigger a supervised restart; ctx.Err() returned
after cancellation signals a clean stop.
*/
package services
