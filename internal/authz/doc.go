// Signalmesh - Webhook Trade Signal Fan-Out Across Decentralized Exchanges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signalmesh

// Package authz provides authorization for the operator API using Casbin.
// It implements RBAC with path-based permissions, an embedded default
// model/policy, and decision caching.
//
// The webhook ingress endpoint never passes through this package; its
// authentication is token-based and its authorization is implicit (a valid
// token may submit signals, nothing else).
package authz
