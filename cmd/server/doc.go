// Signalmesh - Webhook Trade Signal Fan-Out Across Decentralized Exchanges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signalmesh

/*
Package main is the entry point for the Signalmesh server application.

Signalmesh is a self-hosted webhook relay for trade signals. A single
authenticated POST /webhook accepts a {symbol, side, size} signal, validates
and deduplicates it, and fans it out in parallel to every connected
decentralized exchange. Every execution attempt lands in an append-only
DuckDB store exposed through an operator read API.

# Application Architecture

The server implements a layered architecture with Suture v4 process supervision:

	RootSupervisor ("signalmesh")
	├── DataSupervisor ("data-layer")
	│   ├── Retention sweeper (prunes rows past RETENTION_DAYS)
	│   ├── Dedup janitor (expires old fingerprints)
	│   └── Rate-limit janitor (drops inactive client windows)
	├── MonitorSupervisor ("monitor-layer")
	│   ├── Health monitor (probes adapters, reconnects with backoff)
	│   └── Alert relay (delivers alerts to NATS JetStream and the log)
	└── APISupervisor ("api-layer")
	    └── HTTP Server (webhook, health, and operator endpoints)

Component initialization order:

 1. Configuration: Koanf v2 with environment variables and config files
 2. Logging: zerolog with JSON/console output modes
 3. Store: DuckDB append-only tables for signals, executions, errors
 4. Dedup: In-memory or BadgerDB fingerprint tracker plus rate limiter
 5. Adapters: DEX registry (Hyperliquid, mock adapters) with initial connects
 6. Alerts: NATS JetStream sink (optional embedded server) and log sink
 7. Processor: Parallel fan-out with per-adapter circuit breakers
 8. Auth: Shared system token, optional per-user JWT tokens, casbin RBAC
 9. Supervisor Tree: Suture v4 process supervision
 10. HTTP Server: Chi router with middleware stack

# Configuration

Configuration is loaded via Koanf v2 with layered sources (highest priority wins):

	Priority: Environment variables > Config file > Defaults

Core environment variables:

	# Server
	SERVER_PORT=8080             # HTTP server port
	LOG_LEVEL=info               # trace, debug, info, warn, error
	LOG_FORMAT=json              # json or console

	# Webhook authentication
	WEBHOOK_TOKEN=<32+ chars>    # Shared system token (required unless TEST_MODE=true)
	USER_TOKEN_SECRET=<secret>   # Optional: enables per-user JWT webhook tokens
	TEST_MODE=false              # Dry-run mode: validate and record, never execute

	# Persistence
	DB_PATH=signalmesh.db        # DuckDB store path
	RETENTION_DAYS=90            # Prune executions and errors older than this
	DEDUP_BACKEND=memory         # memory or badger
	DEDUP_BADGER_PATH=dedup/     # BadgerDB directory (badger backend only)
	DEDUP_WINDOW_SECONDS=300     # Fingerprint suppression window

	# DEX adapters (enable one or more)
	HYPERLIQUID_ENABLED=false
	HYPERLIQUID_API_URL=https://api.hyperliquid.xyz
	HYPERLIQUID_PRIVATE_KEY=<hex key>

	MOCK_DEX_ENABLED=false
	MOCK_DEX_IDS=mock-1,mock-2
	MOCK_DEX_FAIL_RATE=0.0

	# Alerts (optional NATS JetStream relay)
	ALERTS_ENABLED=false
	ALERTS_URL=nats://localhost:4222
	ALERTS_EMBEDDED_SERVER=false # Run an embedded NATS server instead

# Test Mode

With TEST_MODE=true the full ingress pipeline runs (authentication,
validation, dedup, rate limiting, persistence) but dispatch is replaced by a
dry-run envelope describing what would have executed:

	export TEST_MODE=true
	export MOCK_DEX_ENABLED=true MOCK_DEX_IDS=mock-1
	./signalmesh

# Signal Handling

The server handles graceful shutdown on SIGINT and SIGTERM:

 1. New webhook requests are rejected with 503 immediately
 2. In-flight dispatches get SHUTDOWN_GRACE_PERIOD_SECONDS to finish
 3. The supervisor stops the HTTP server, monitor, and janitors
 4. DEX adapters are disconnected (5s timeout each)
 5. Error recorder, dedup tracker, and store are flushed and closed
 6. Reports any services that failed to stop

# Usage Examples

Development (mock adapters, dry run):

	export TEST_MODE=true
	export MOCK_DEX_ENABLED=true MOCK_DEX_IDS=mock-1,mock-2
	go run ./cmd/server

Production (Hyperliquid):

	export WEBHOOK_TOKEN=$(openssl rand -hex 32)
	export HYPERLIQUID_ENABLED=true
	export HYPERLIQUID_PRIVATE_KEY=<hex key>
	export DEDUP_BACKEND=badger DEDUP_BADGER_PATH=/data/dedup
	./signalmesh

Sending a signal:

	curl -X POST http://localhost:8080/webhook \
	  -H "X-Webhook-Token: $WEBHOOK_TOKEN" \
	  -H "Content-Type: application/json" \
	  -d '{"symbol": "ETH-USD", "side": "buy", "size": "0.25"}'

# API Documentation

Swagger documentation is available at /swagger/index.html when the server
is running. Endpoints are organized into categories:

  - Webhook: POST /webhook and POST /webhook/{token} signal ingress
  - Core: GET /health (composite) and GET /healthz (liveness)
  - Operator: executions, errors, signal lookups, statistics
  - Observability: GET /metrics (Prometheus)

# See Also

  - internal/config: Configuration management
  - internal/supervisor: Process supervision
  - internal/api: HTTP handlers and routing
  - internal/processor: Parallel fan-out dispatch
  - internal/dex: DEX adapter implementations
*/
package main
