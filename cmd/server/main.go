// Signalmesh - Webhook Trade Signal Fan-Out Across Decentralized Exchanges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signalmesh

// Package main is the entry point for the Signalmesh server application.
//
// Signalmesh receives trade signals over an authenticated webhook, validates
// and deduplicates them, and fans each signal out to every connected DEX
// adapter in parallel. Every execution attempt is recorded in an append-only
// DuckDB store and exposed through an operator read API.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: Load settings from environment variables and config files (Koanf v2)
//  2. Store: DuckDB append-only store for signals, executions, and the error log
//  3. Dedup: Fingerprint tracker (in-memory or BadgerDB) and sliding-window rate limiter
//  4. Adapters: DEX adapter registry (Hyperliquid, mock adapters for test mode)
//  5. Alerts: NATS JetStream alert relay (optional embedded server) plus log sink
//  6. Processor: Parallel fan-out dispatcher with per-adapter circuit breakers
//  7. Health: Composite aggregator and background monitor with reconnect backoff
//  8. Auth: Shared system token and optional per-user JWT webhook tokens
//  9. Supervisor Tree: Suture v4 process supervision
//  10. HTTP Server: Chi router with webhook, health, and operator endpoints
//
// # Signal Handling
//
// The server handles graceful shutdown on SIGINT and SIGTERM:
//   - New webhook requests are rejected with 503 immediately
//   - In-flight dispatches get a grace period to finish
//   - The supervisor tree stops the HTTP server, monitor, and janitors
//   - DEX adapters are disconnected and persistent stores are flushed
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/tomtom215/signalmesh/docs" // Import generated swagger docs
	"github.com/tomtom215/signalmesh/internal/alerts"
	"github.com/tomtom215/signalmesh/internal/api"
	"github.com/tomtom215/signalmesh/internal/auth"
	"github.com/tomtom215/signalmesh/internal/authz"
	"github.com/tomtom215/signalmesh/internal/config"
	"github.com/tomtom215/signalmesh/internal/dedup"
	"github.com/tomtom215/signalmesh/internal/dex"
	"github.com/tomtom215/signalmesh/internal/health"
	"github.com/tomtom215/signalmesh/internal/logging"
	"github.com/tomtom215/signalmesh/internal/processor"
	"github.com/tomtom215/signalmesh/internal/ratelimit"
	"github.com/tomtom215/signalmesh/internal/shutdown"
	"github.com/tomtom215/signalmesh/internal/store"
	"github.com/tomtom215/signalmesh/internal/supervisor"
	"github.com/tomtom215/signalmesh/internal/supervisor/services"
)

const (
	// idleTimeout bounds keep-alive connections on the HTTP server.
	idleTimeout = 60 * time.Second

	// janitorInterval is how often the dedup and rate-limit janitors sweep
	// expired entries.
	janitorInterval = 5 * time.Minute

	// sweepInterval is how often the retention sweeper prunes old rows.
	sweepInterval = 24 * time.Hour

	// connectTimeout bounds the initial connection attempt per adapter.
	// Failures are non-fatal: the health monitor reconnects in the background.
	connectTimeout = 10 * time.Second

	// disconnectTimeout bounds the shutdown disconnect per adapter.
	disconnectTimeout = 5 * time.Second

	// maxRateLimitKeys caps the number of distinct client keys the rate
	// limiter tracks before evicting the least-recently-seen window.
	maxRateLimitKeys = 10000
)

//nolint:gocyclo // Main initialization function with sequential setup steps
func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		// Use default logger for config errors (config not yet available)
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize zerolog with configuration
	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().Msg("Starting Signalmesh with supervisor tree")

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Str("dedup_backend", cfg.Dedup.Backend).
		Bool("test_mode", cfg.Webhook.TestMode).
		Bool("alerts_enabled", cfg.Alerts.Enabled).
		Msg("Configuration loaded")

	if cfg.Webhook.TestMode {
		logging.Warn().Msg("TEST_MODE is enabled: signals are validated and recorded but no live orders are placed")
	}

	// Initialize the DuckDB store for signals, executions, and the error log
	db, err := store.Open(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open store")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing store")
		}
	}()
	logging.Info().Msg("Store initialized successfully")

	// Async error recorder: hot-path components enqueue, one writer persists.
	// Closed via defer so the buffer is flushed after the supervisor stops.
	recorder := store.NewErrorRecorder(db, store.DefaultRecorderConfig())
	defer func() {
		if err := recorder.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing error recorder")
		}
	}()

	// Fingerprint dedup tracker: in-memory by default, BadgerDB when the
	// suppression window must survive restarts
	tracker, err := dedup.Open(cfg.Dedup.Backend, cfg.Dedup.BadgerPath)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open dedup tracker")
	}
	defer func() {
		if err := tracker.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing dedup tracker")
		}
	}()
	if cfg.Dedup.Backend == "badger" {
		logging.Info().Str("path", cfg.Dedup.BadgerPath).Msg("Persistent dedup backend enabled (BadgerDB)")
	}

	limiter := ratelimit.New(cfg.RateLimit.Window(), cfg.RateLimit.MaxRequests, maxRateLimitKeys)

	// Build the DEX adapter registry. Config validation guarantees at least
	// one adapter is enabled.
	registry := dex.NewRegistry()
	if cfg.MockDEX.Enabled {
		for _, id := range cfg.MockDEX.IDs {
			mock := dex.NewMockDEX(id, cfg.MockDEX.FailRate, time.Duration(cfg.MockDEX.LatencyMS)*time.Millisecond)
			if err := registry.Register(mock); err != nil {
				logging.Fatal().Err(err).Str("dex", id).Msg("Failed to register mock adapter")
			}
		}
		logging.Info().
			Int("count", len(cfg.MockDEX.IDs)).
			Float64("fail_rate", cfg.MockDEX.FailRate).
			Msg("Mock adapters registered")
	}
	if cfg.Hyperliquid.Enabled {
		hl, err := dex.NewHyperliquid(&cfg.Hyperliquid)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to initialize Hyperliquid adapter")
		}
		if err := registry.Register(hl); err != nil {
			logging.Fatal().Err(err).Msg("Failed to register Hyperliquid adapter")
		}
		logging.Info().Str("api_url", cfg.Hyperliquid.APIURL).Msg("Hyperliquid adapter registered")
	}

	// Initial connection attempts. A failure here is not fatal: the adapter
	// stays registered as offline and the health monitor reconnects it.
	for _, adapter := range registry.All() {
		cctx, ccancel := context.WithTimeout(context.Background(), connectTimeout)
		if err := adapter.Connect(cctx); err != nil {
			logging.Warn().Err(err).Str("dex", adapter.ID()).Msg("Initial connect failed, health monitor will retry")
		} else {
			logging.Info().Str("dex", adapter.ID()).Msg("Adapter connected")
		}
		ccancel()
	}

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Create structured logger for supervisor using our slog adapter
	// This bridges zerolog to slog for sutureslog compatibility
	slogLogger := logging.NewSlogLogger()

	// Create supervisor tree
	tree, err := supervisor.NewSupervisorTree(slogLogger, supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	// Alert pipeline: the log sink is always on; NATS JetStream is added when
	// enabled, against either an external server or the embedded one.
	sinks := []alerts.Sink{alerts.NewLogSink()}
	if cfg.Alerts.Enabled {
		natsURL := cfg.Alerts.URL
		if cfg.Alerts.EmbeddedServer {
			embedded, err := alerts.NewEmbeddedServer(alerts.EmbeddedServerConfig{
				StoreDir: cfg.Alerts.StoreDir,
			})
			if err != nil {
				logging.Fatal().Err(err).Msg("Failed to start embedded NATS server")
			}
			defer func() {
				sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer scancel()
				if err := embedded.Shutdown(sctx); err != nil {
					logging.Error().Err(err).Msg("Error stopping embedded NATS server")
				}
			}()
			natsURL = embedded.ClientURL()
			logging.Info().Str("url", natsURL).Msg("Embedded NATS server started")
		}
		natsSink, err := alerts.NewNATSSink(ctx, alerts.NATSSinkConfig{
			URL:     natsURL,
			Subject: cfg.Alerts.Subject,
		})
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to connect NATS alert sink")
		}
		sinks = append(sinks, natsSink)
		logging.Info().Str("url", natsURL).Str("subject", cfg.Alerts.Subject).Msg("NATS alert sink connected")
	}
	dispatcher := alerts.NewDispatcher(alerts.DispatcherConfig{
		ThrottlePerMinute: cfg.Alerts.ThrottlePerMinute,
	}, recorder, sinks...)
	defer func() {
		if err := dispatcher.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing alert dispatcher")
		}
	}()

	// Order-update relay: push-stream fills become execution refinement
	// records; the binder keeps a subscription attached to every connected
	// adapter, rebinding after monitor-driven reconnects.
	relay := processor.NewUpdateRelay(db, recorder, dispatcher, processor.UpdateRelayConfig{
		TestMode: cfg.Webhook.TestMode,
	})
	binder := processor.NewStreamBinder(registry, relay.Accept, cfg.Health.CheckInterval())

	// Fan-out processor and health monitoring
	proc := processor.New(registry, db, recorder, processor.Config{
		DispatchTimeout: cfg.Dispatch.Timeout(),
		TestMode:        cfg.Webhook.TestMode,
		Updates:         relay,
	})
	aggregator := health.NewAggregator(registry, health.AggregatorConfig{
		ProbeTimeout: cfg.Health.ProbeTimeout(),
		TestMode:     cfg.Webhook.TestMode,
	})
	monitor := health.NewMonitor(registry, dispatcher, recorder, health.MonitorConfig{
		CheckInterval:        cfg.Health.CheckInterval(),
		ProbeTimeout:         cfg.Health.ProbeTimeout(),
		MaxFailures:          cfg.Health.MaxFailures,
		MaxBackoff:           cfg.Health.MaxBackoff(),
		ReconnectMaxAttempts: cfg.Health.ReconnectMaxAttempts,
	})

	// Drain coordinator: webhook ingress checks Draining() and tracks every
	// dispatch so shutdown can wait for in-flight work
	coordinator := shutdown.NewCoordinator()

	// Webhook authentication: shared system token plus optional per-user
	// JWT tokens derived from the master secret
	var systemToken *auth.SystemToken
	if cfg.Webhook.Token != "" {
		systemToken, err = auth.NewSystemToken(cfg.Webhook.Token)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to initialize system token")
		}
	} else {
		// Config validation only allows an empty token in test mode
		logging.Warn().Msg("No webhook token configured: ingress runs unauthenticated (test mode only)")
	}
	var userTokens *auth.UserTokens
	if cfg.Auth.UserTokenSecret != "" {
		userTokens, err = auth.NewUserTokens(cfg.Auth.UserTokenSecret)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to initialize per-user tokens")
		}
		logging.Info().Msg("Per-user webhook tokens enabled")
	}

	// Operator API authorization (casbin RBAC over bearer roles)
	enforcer, err := authz.NewEnforcer(authz.DefaultEnforcerConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize authorization enforcer")
	}
	authzMiddleware := authz.NewMiddleware(enforcer)

	deps := api.Deps{
		Config:      cfg,
		Store:       db,
		Dedup:       tracker,
		Limiter:     limiter,
		Processor:   proc,
		Registry:    registry,
		Health:      aggregator,
		Coordinator: coordinator,
		SystemToken: systemToken,
		ErrorLog:    recorder,
	}
	if userTokens != nil {
		// Assigned conditionally so a disabled verifier stays a nil
		// interface, not an interface holding a nil pointer
		deps.UserTokens = userTokens
	}
	handler := api.NewHandler(deps)
	router := api.NewRouter(handler, authzMiddleware)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.SetupChi(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  idleTimeout,
	}

	// === ADD SERVICES TO SUPERVISOR TREE ===

	// Data layer services
	sweeper := store.NewSweeper(db, cfg.Database.RetentionDays, cfg.Database.ExecutionRetentionDays, sweepInterval)
	tree.AddDataService(services.NewRunnerService("retention-sweeper", sweeper))
	tree.AddDataService(services.NewJanitorService("dedup-janitor", func() chan struct{} {
		return dedup.StartCleanupRoutine(tracker, janitorInterval)
	}))
	tree.AddDataService(services.NewJanitorService("ratelimit-janitor", func() chan struct{} {
		return ratelimit.StartCleanupRoutine(limiter, janitorInterval)
	}))
	logging.Info().Int("retention_days", cfg.Database.RetentionDays).Msg("Retention sweeper and janitors added to supervisor tree")

	// Monitor layer services
	tree.AddMonitorService(services.NewRunnerService("health-monitor", monitor))
	tree.AddMonitorService(services.NewRunnerService("alert-relay", dispatcher))
	tree.AddMonitorService(services.NewRunnerService("order-update-relay", relay))
	tree.AddMonitorService(services.NewRunnerService("order-stream-binder", binder))
	logging.Info().Msg("Health monitor, alert relay, and order update services added to supervisor tree")

	// API layer services
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	// === START SUPERVISOR TREE ===

	// Setup signal handling. The drain runs before the tree is canceled:
	// ingress flips to 503 immediately, in-flight dispatches get the grace
	// period, then the supervisor tears everything down.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal, draining")
		coordinator.Initiate()
		if completed := coordinator.AwaitCompletion(cfg.Shutdown.GracePeriod()); !completed {
			logging.Warn().
				Int("in_flight", coordinator.InFlightCount()).
				Strs("fingerprints", coordinator.InFlightIDs()).
				Msg("Grace period expired with dispatches still in flight")
		}
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	// Wait for supervisor to finish (either from signal or error)
	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	// Wait for the error channel to close (supervisor finished)
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	// Report any services that failed to stop within timeout
	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	// Disconnect adapters after the processor has stopped dispatching
	for _, adapter := range registry.All() {
		if !adapter.IsConnected() {
			continue
		}
		dctx, dcancel := context.WithTimeout(context.Background(), disconnectTimeout)
		if err := adapter.Disconnect(dctx); err != nil {
			logging.Warn().Err(err).Str("dex", adapter.ID()).Msg("Adapter disconnect failed")
		} else {
			logging.Info().Str("dex", adapter.ID()).Msg("Adapter disconnected")
		}
		dcancel()
	}

	logging.Info().Msg("Signalmesh stopped gracefully")
}
