// Signalmesh - Webhook Trade Signal Fan-Out Across Decentralized Exchanges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signalmesh

/*
Package supervisor provides process supervision for Signalmesh using suture v4.

This package implements a hierarchical supervisor tree that manages the
lifecycle of all long-running services in the application. It provides
Erlang/OTP-style supervision with automatic restart, failure isolation, and
graceful shutdown.

# Overview

The supervisor tree organizes services into three layers for failure
isolation:

	RootSupervisor ("signalmesh")
	├── DataSupervisor ("data-layer")
	│   ├── RunnerService (retention sweeper)
	│   ├── JanitorService (dedup cleanup)
	│   └── JanitorService (rate-limit cleanup)
	├── MonitorSupervisor ("monitor-layer")
	│   ├── RunnerService (adapter health monitor)
	│   └── RunnerService (alert relay)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

This hierarchy ensures that:
  - A crash in health probing doesn't affect webhook intake
  - A janitor failure doesn't impact API availability
  - Each layer can restart independently

# Failure Handling

The supervisor uses a failure counter with exponential decay:

 1. Each service failure increments the counter
 2. Counter decays exponentially over time (FailureDecay seconds)
 3. When counter exceeds FailureThreshold, supervisor enters backoff
 4. During backoff, restarts are delayed by FailureBackoff duration

Default values match suture's production-ready defaults: threshold 5,
decay 30s, backoff 15s, shutdown timeout 10s.

# Usage

Basic setup in main:

	slogger := logging.NewSlogLogger()
	tree, err := supervisor.NewSupervisorTree(slogger, supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}

	tree.AddDataService(services.NewRunnerService("retention-sweeper", sweeper))
	tree.AddMonitorService(services.NewRunnerService("health-monitor", monitor))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))

	errCh := tree.ServeBackground(ctx)
	// ... wait for shutdown signal ...
	if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
	    log.Error().Err(err).Msg("supervisor stopped")
	}

# Service Interface

All services must implement suture.Service:

	type Service interface {
	    Serve(ctx context.Context) error
	}

Return behavior:
  - Return nil: service stopped cleanly, will not be restarted
  - Return error: service crashed, will be restarted
  - Context canceled: shutdown requested, return promptly

# What Is NOT Supervised

DuckDB is intentionally not supervised: it is an embedded library, not a
long-running service, and a crash inside it would require a process restart
anyway. The same goes for the Badger dedup store, which is owned by the
dedup tracker and closed by main.

The async error recorder (store.ErrorRecorder) starts its writer goroutine
at construction and is flushed by Close during shutdown; restarting it would
drop its buffered queue, so it stays outside the tree.

Request draining during shutdown is the shutdown.Coordinator's job, not the
tree's: main initiates the drain, waits for in-flight webhooks, and only
then cancels the tree context.

# Debugging Shutdown Issues

If services don't stop within the timeout:

	report, _ := tree.UnstoppedServiceReport()
	for _, svc := range report {
	    log.Warn().Str("service", svc.Name).Msg("service did not stop")
	}

Common causes are goroutines not respecting context cancellation and
blocked network I/O without deadlines.

# See Also

  - internal/supervisor/services: service wrappers
  - github.com/thejerf/suture/v4: underlying library
*/
package supervisor
