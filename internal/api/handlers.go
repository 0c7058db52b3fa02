// Signalmesh - Webhook Trade Signal Fan-Out Across Decentralized Exchanges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signalmesh

package api

import (
	"time"

	"github.com/tomtom215/signalmesh/internal/auth"
	"github.com/tomtom215/signalmesh/internal/config"
	"github.com/tomtom215/signalmesh/internal/dedup"
	"github.com/tomtom215/signalmesh/internal/dex"
	"github.com/tomtom215/signalmesh/internal/health"
	"github.com/tomtom215/signalmesh/internal/middleware"
	"github.com/tomtom215/signalmesh/internal/models"
	"github.com/tomtom215/signalmesh/internal/processor"
	"github.com/tomtom215/signalmesh/internal/ratelimit"
	"github.com/tomtom215/signalmesh/internal/shutdown"
	"github.com/tomtom215/signalmesh/internal/store"
)

// ErrorLog is the asynchronous error-log sink the handlers record rejected
// payloads and dispatch faults through. Satisfied by store.ErrorRecorder.
// Record must never block the request path.
type ErrorLog interface {
	Record(level models.ErrorLevel, category models.ErrorCode, message, contextBlob string)
}

// Deps bundles everything the HTTP layer consumes. All fields are injected
// from main; nil fields degrade the matching endpoints (a nil Store turns
// operator reads into 503s) rather than panicking, which keeps focused tests
// cheap to set up.
type Deps struct {
	Config      *config.Config
	Store       *store.DB
	Dedup       dedup.Tracker
	Limiter     *ratelimit.Limiter
	Processor   *processor.Processor
	Registry    *dex.Registry
	Health      *health.Aggregator
	Coordinator *shutdown.Coordinator
	SystemToken *auth.SystemToken
	UserTokens  auth.TokenVerifier
	ErrorLog    ErrorLog
}

// Handler contains dependencies for the HTTP handlers.
//
// Handler methods are split across multiple files:
//   - handlers_webhook.go: signal ingress (3 methods)
//   - handlers_health.go: health endpoints (2 methods)
//   - handlers_operator.go: operator read API (4 methods)
type Handler struct {
	config      *config.Config
	store       *store.DB
	dedup       dedup.Tracker
	limiter     *ratelimit.Limiter
	processor   *processor.Processor
	registry    *dex.Registry
	health      *health.Aggregator
	coordinator *shutdown.Coordinator
	systemToken *auth.SystemToken
	userTokens  auth.TokenVerifier
	errorLog    ErrorLog
	perfMon     *middleware.PerformanceMonitor
	startTime   time.Time
}

// NewHandler creates the HTTP handler set.
//
// The handler initializes with a performance monitor tracking the last 1000
// operator requests and a start time for uptime reporting.
func NewHandler(deps Deps) *Handler {
	return &Handler{
		config:      deps.Config,
		store:       deps.Store,
		dedup:       deps.Dedup,
		limiter:     deps.Limiter,
		processor:   deps.Processor,
		registry:    deps.Registry,
		health:      deps.Health,
		coordinator: deps.Coordinator,
		systemToken: deps.SystemToken,
		userTokens:  deps.UserTokens,
		errorLog:    deps.ErrorLog,
		perfMon:     middleware.NewPerformanceMonitor(1000),
		startTime:   time.Now(),
	}
}

// PerformanceMonitor exposes the request-latency monitor so the router can
// mount it as middleware on the operator routes.
func (h *Handler) PerformanceMonitor() *middleware.PerformanceMonitor {
	return h.perfMon
}
