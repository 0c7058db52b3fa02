// Signalmesh - Webhook Trade Signal Fan-Out Across Decentralized Exchanges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signalmesh

// Package metrics provides Prometheus instrumentation for the signal pipeline:
// webhook ingestion outcomes, dispatch fan-out latency and results, DEX adapter
// health, circuit breaker state, database query performance, and alert delivery.
// All collectors are registered with the default registry via promauto and
// exposed on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Signal Ingestion Metrics
	SignalsReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signals_received_total",
			Help: "Total number of webhook signals received, by outcome",
		},
		[]string{"outcome"}, // "accepted", "duplicate", "rate_limited", "invalid", "unauthorized", "unavailable"
	)

	SignalProcessingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "signal_processing_duration_seconds",
			Help:    "End-to-end webhook signal processing duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	SignalsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "signals_in_flight",
			Help: "Current number of signals being processed",
		},
	)

	RateLimitRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_rejections_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"scope"}, // "webhook", "api"
	)

	// Dispatch Metrics
	DispatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dispatch_duration_seconds",
			Help:    "Per-adapter order submission duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"dex"},
	)

	DispatchResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_results_total",
			Help: "Total number of per-adapter dispatch outcomes",
		},
		[]string{"dex", "result"}, // result: "filled", "partial", "rejected", "timeout", "error"
	)

	DispatchTimeouts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dispatch_deadline_expirations_total",
			Help: "Total number of fan-outs that hit the dispatch deadline before all adapters responded",
		},
	)

	OrderUpdates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "order_updates_total",
			Help: "Total number of push-stream order updates, by disposition",
		},
		[]string{"dex", "disposition"}, // "recorded", "unknown_order", "dropped", "error"
	)

	SignalsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signals_dispatched_total",
			Help: "Total number of completed fan-outs, by overall status",
		},
		[]string{"overall_status"}, // "success", "partial", "failed"
	)

	// DEX Adapter Metrics
	DEXErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dex_errors_total",
			Help: "Total number of DEX adapter errors, by stable error code",
		},
		[]string{"dex", "code"},
	)

	AdapterStatus = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dex_adapter_status",
			Help: "Current adapter health status (0=offline, 1=degraded, 2=healthy)",
		},
		[]string{"dex"},
	)

	// Health Monitor Metrics
	HealthProbes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "health_probes_total",
			Help: "Total number of adapter health probes, by result",
		},
		[]string{"dex", "result"}, // "success", "failure"
	)

	HealthProbeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "health_probe_duration_seconds",
			Help:    "Adapter health probe duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"dex"},
	)

	ReconnectAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adapter_reconnect_attempts_total",
			Help: "Total number of adapter reconnection attempts, by result",
		},
		[]string{"dex", "result"}, // "success", "failure", "exhausted"
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table"},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// Alert Delivery Metrics
	AlertsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alerts_sent_total",
			Help: "Total number of alerts delivered, by severity and sink",
		},
		[]string{"severity", "sink"}, // sink: "log", "nats"
	)

	AlertsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alerts_dropped_total",
			Help: "Total number of alerts dropped, by reason",
		},
		[]string{"reason"}, // "throttled", "publish_failed", "queue_full"
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)

	AppUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)
)

// Adapter status gauge values
const (
	StatusOffline  = 0
	StatusDegraded = 1
	StatusHealthy  = 2
)

// RecordSignalReceived records a webhook signal by pipeline outcome
func RecordSignalReceived(outcome string) {
	SignalsReceived.WithLabelValues(outcome).Inc()
}

// RecordSignalProcessing records end-to-end signal processing duration
func RecordSignalProcessing(duration time.Duration) {
	SignalProcessingDuration.Observe(duration.Seconds())
}

// TrackSignalInFlight tracks signals currently being processed
func TrackSignalInFlight(inc bool) {
	if inc {
		SignalsInFlight.Inc()
	} else {
		SignalsInFlight.Dec()
	}
}

// RecordRateLimitRejection records a rate limit rejection for the given scope
func RecordRateLimitRejection(scope string) {
	RateLimitRejections.WithLabelValues(scope).Inc()
}

// RecordDispatch records a single adapter's dispatch outcome and latency
func RecordDispatch(dex, result string, duration time.Duration) {
	DispatchDuration.WithLabelValues(dex).Observe(duration.Seconds())
	DispatchResults.WithLabelValues(dex, result).Inc()
}

// RecordFanOut records a completed fan-out by overall status
func RecordFanOut(overallStatus string) {
	SignalsDispatched.WithLabelValues(overallStatus).Inc()
}

// RecordOrderUpdate records one push-stream order update disposition
func RecordOrderUpdate(dex, disposition string) {
	OrderUpdates.WithLabelValues(dex, disposition).Inc()
}

// RecordDEXError records a DEX adapter error by stable error code
func RecordDEXError(dex, code string) {
	DEXErrors.WithLabelValues(dex, code).Inc()
}

// SetAdapterStatus updates an adapter's health status gauge
func SetAdapterStatus(dex string, status float64) {
	AdapterStatus.WithLabelValues(dex).Set(status)
}

// RecordHealthProbe records a health probe result and latency
func RecordHealthProbe(dex string, success bool, duration time.Duration) {
	result := "success"
	if !success {
		result = "failure"
	}
	HealthProbes.WithLabelValues(dex, result).Inc()
	HealthProbeDuration.WithLabelValues(dex).Observe(duration.Seconds())
}

// RecordReconnectAttempt records an adapter reconnection attempt
func RecordReconnectAttempt(dex, result string) {
	ReconnectAttempts.WithLabelValues(dex, result).Inc()
}

// RecordDBQuery records a database query metric
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, table).Inc()
	}
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordAlertSent records an alert delivered to a sink
func RecordAlertSent(severity, sink string) {
	AlertsSent.WithLabelValues(severity, sink).Inc()
}

// RecordAlertDropped records an alert that was not delivered
func RecordAlertDropped(reason string) {
	AlertsDropped.WithLabelValues(reason).Inc()
}
