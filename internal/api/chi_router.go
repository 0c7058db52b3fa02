// Signalmesh - Webhook Trade Signal Fan-Out Across Decentralized Exchanges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signalmesh

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/tomtom215/signalmesh/internal/authz"
	"github.com/tomtom215/signalmesh/internal/middleware"
)

// chiMiddleware adapts http.HandlerFunc middleware to Chi's func(http.Handler) http.Handler.
// This allows our existing middleware to work with Chi's r.Use().
func chiMiddleware(mw func(http.HandlerFunc) http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return mw(next.ServeHTTP)
	}
}

// Router wires the handler set into Chi routes.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
	authz         *authz.Middleware
}

// NewRouter creates a new router. The Chi middleware stack is derived from
// the handler's configuration; a nil authorization middleware skips RBAC
// enforcement (authentication still applies).
func NewRouter(handler *Handler, authzMiddleware *authz.Middleware) *Router {
	mwConfig := DefaultChiMiddlewareConfig()
	if handler.config != nil {
		mwConfig.CORSAllowedOrigins = handler.config.API.CORSOrigins
		if handler.config.API.RateLimitPerMinute > 0 {
			mwConfig.RateLimitRequests = handler.config.API.RateLimitPerMinute
		}
	}

	return &Router{
		handler:       handler,
		chiMiddleware: NewChiMiddleware(mwConfig),
		authz:         authzMiddleware,
	}
}

// SetupChi configures all HTTP routes using Chi router.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	// ========================
	// Global Middleware Stack
	// ========================
	r.Use(RequestIDWithLogging())      // Add X-Request-ID header with logging context
	r.Use(chimiddleware.RealIP)        // Extract real IP from X-Forwarded-For
	r.Use(chimiddleware.Recoverer)     // Recover from panics
	r.Use(router.chiMiddleware.CORS()) // CORS must be global to handle OPTIONS preflight

	// ========================
	// Webhook Ingress
	// ========================
	// No httprate guard here: the handler owns the gate order (draining,
	// auth, dedup, per-key rate limit) and an IP limiter in front would
	// move 429s ahead of authentication.
	r.Route("/webhook", func(r chi.Router) {
		r.Use(chiMiddleware(middleware.PrometheusMetrics))
		r.Use(chiPathValue) // Bridge Chi URL params to r.PathValue()

		r.Post("/", router.handler.Webhook)
		r.Post("/{token}", router.handler.WebhookPathToken)
	})

	// ========================
	// Health Endpoints
	// ========================
	// Permissive rate limiting (1000/min): allows frequent monitoring
	// while preventing abuse.
	r.Group(func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitHealth())
		r.Use(APISecurityHeaders())

		r.Get("/health", router.handler.Health)
		r.Get("/healthz", router.handler.HealthLive)
	})

	// ========================
	// Operator API
	// ========================
	// System token grants admin; per-user tokens are viewers. The Casbin
	// enforcer decides per-path access on top of authentication.
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(chiMiddleware(middleware.PrometheusMetrics))
		r.Use(chiMiddleware(router.handler.perfMon.Middleware))
		r.Use(chiMiddleware(middleware.Compression))
		r.Use(chiMiddleware(router.handler.Authenticate))
		if router.authz != nil {
			r.Use(chiMiddleware(router.authz.AuthorizeRequest))
		}
		r.Use(chiPathValue) // Bridge Chi URL params to r.PathValue()

		r.Get("/executions", router.handler.Executions)
		r.Get("/errors", router.handler.Errors)
		r.Get("/signals/{fingerprint}", router.handler.SignalDetail)
		r.Get("/stats", router.handler.Stats)
	})

	// ========================
	// Observability
	// ========================
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("list"),
		httpSwagger.DomID("swagger-ui"),
	))

	return r
}

// chiPathValue middleware injects Chi URL params into the request so handlers
// using r.PathValue() continue to work. This bridges Chi's chi.URLParam()
// with Go 1.22+'s r.PathValue().
func chiPathValue(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rctx := chi.RouteContext(r.Context())
		if rctx != nil {
			for i, key := range rctx.URLParams.Keys {
				if i < len(rctx.URLParams.Values) {
					r.SetPathValue(key, rctx.URLParams.Values[i])
				}
			}
		}
		next.ServeHTTP(w, r)
	})
}
