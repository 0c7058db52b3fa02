// Signalmesh - Webhook Trade Signal Fan-Out Across Decentralized Exchanges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signalmesh

package config

import (
	"time"
)

// Config holds all application configuration loaded from environment variables and config files.
// Provides centralized configuration management for all application components: the webhook
// ingestion surface, signal deduplication, per-token rate limiting, DEX adapters, dispatch,
// health monitoring, persistence, alerting, and logging.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: Built-in sensible defaults for all optional settings
//  2. Config File: Optional YAML config file (config.yaml) for persistent settings
//  3. Environment Variables: Override any setting via environment variables
//
// Example - Load configuration from environment:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal("Failed to load config:", err)
//	}
//	// cfg.Webhook.Token, cfg.Database.Path, etc. are now populated
//
// Thread Safety:
// Config is immutable after Load() and safe for concurrent read access from multiple goroutines.
type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Webhook     WebhookConfig     `koanf:"webhook"`
	Auth        AuthConfig        `koanf:"auth"`
	Database    DatabaseConfig    `koanf:"database"`
	Dedup       DedupConfig       `koanf:"dedup"`
	RateLimit   RateLimitConfig   `koanf:"rate_limit"`
	Dispatch    DispatchConfig    `koanf:"dispatch"`
	Health      HealthConfig      `koanf:"health"`
	Shutdown    ShutdownConfig    `koanf:"shutdown"`
	Alerts      AlertsConfig      `koanf:"alerts"`
	Hyperliquid HyperliquidConfig `koanf:"hyperliquid"`
	MockDEX     MockDEXConfig     `koanf:"mock_dex"`
	API         APIConfig         `koanf:"api"`
	Logging     LoggingConfig     `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
//
// Environment Variables:
//   - SERVER_HOST: Bind address (default: 0.0.0.0). APP_HOST is accepted as a legacy alias.
//   - SERVER_PORT: Listen port (default: 8080)
//   - SERVER_TIMEOUT: Read/write timeout for HTTP handlers (default: 35s)
//   - ENVIRONMENT: "development" or "production" (default: development)
type ServerConfig struct {
	Host        string        `koanf:"host"`
	Port        int           `koanf:"port"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"`
}

// WebhookConfig holds the ingestion surface settings.
//
// WEBHOOK_TOKEN is the shared secret the charting platform presents on every
// request. It is required unless TEST_MODE=true; startup fails without it so a
// misconfigured deployment can never silently accept unauthenticated signals.
// In test mode signals are validated and persisted but orders are simulated,
// never submitted to any venue.
type WebhookConfig struct {
	Token    string `koanf:"token"`
	TestMode bool   `koanf:"test_mode"`
}

// AuthConfig holds optional per-user webhook token settings.
//
// When USER_TOKEN_SECRET is set, the service additionally accepts per-user JWT
// tokens on /webhook/{token}. Signing keys are derived from the secret with
// HKDF so the secret itself never signs tokens directly.
type AuthConfig struct {
	UserTokenSecret string `koanf:"user_token_secret"`
}

// DatabaseConfig holds DuckDB settings for signal and execution persistence.
//
// Environment Variables:
//   - DATABASE_URL: Database file path (default: data/signalmesh.db). DUCKDB_PATH is a legacy alias.
//   - DATABASE_MAX_MEMORY: DuckDB memory limit (default: 1GB)
//   - DATABASE_RETENTION_DAYS: Days to retain error-log rows (default: 90)
//   - DATABASE_EXECUTION_RETENTION_DAYS: Days to retain execution rows (default: follow DATABASE_RETENTION_DAYS)
type DatabaseConfig struct {
	Path                   string `koanf:"path"`
	MaxMemory              string `koanf:"max_memory"`
	Threads                int    `koanf:"threads"`
	RetentionDays          int    `koanf:"retention_days"`
	ExecutionRetentionDays int    `koanf:"execution_retention_days"`
}

// DedupConfig holds duplicate-signal suppression settings.
//
// Backend selects the fingerprint tracker implementation: "memory" keeps the
// sliding window in-process and loses it on restart, "badger" persists seen
// fingerprints with TTLs so duplicates are still suppressed across restarts.
type DedupConfig struct {
	WindowSeconds int    `koanf:"window_seconds"`
	Backend       string `koanf:"backend"`
	BadgerPath    string `koanf:"badger_path"`
}

// Window returns the dedup window as a duration.
func (c DedupConfig) Window() time.Duration {
	return time.Duration(c.WindowSeconds) * time.Second
}

// RateLimitConfig holds per-token webhook rate limiting settings.
// MaxRequests signals are accepted per token within each sliding WindowSeconds window.
type RateLimitConfig struct {
	WindowSeconds int `koanf:"window_seconds"`
	MaxRequests   int `koanf:"max_requests"`
}

// Window returns the rate limit window as a duration.
func (c RateLimitConfig) Window() time.Duration {
	return time.Duration(c.WindowSeconds) * time.Second
}

// DispatchConfig holds parallel fan-out settings.
// TimeoutSeconds bounds the wait for all adapters on a single signal; adapters
// that have not responded by then are recorded as timed out.
type DispatchConfig struct {
	TimeoutSeconds int `koanf:"timeout_seconds"`
}

// Timeout returns the dispatch deadline as a duration.
func (c DispatchConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// HealthConfig holds the background DEX health monitor settings.
//
// Environment Variables:
//   - HEALTH_CHECK_INTERVAL_SECONDS: Probe cadence (default: 30)
//   - HEALTH_PROBE_TIMEOUT_SECONDS: Per-probe deadline (default: 10)
//   - HEALTH_MAX_FAILURES: Consecutive failures before an adapter is offline (default: 3)
//   - HEALTH_MAX_BACKOFF_SECONDS: Reconnection backoff cap (default: 30)
//   - HEALTH_RECONNECT_MAX_ATTEMPTS: Reconnection attempts per offline transition (default: 10)
type HealthConfig struct {
	CheckIntervalSeconds int `koanf:"check_interval_seconds"`
	ProbeTimeoutSeconds  int `koanf:"probe_timeout_seconds"`
	MaxFailures          int `koanf:"max_failures"`
	MaxBackoffSeconds    int `koanf:"max_backoff_seconds"`
	ReconnectMaxAttempts int `koanf:"reconnect_max_attempts"`
}

// CheckInterval returns the probe cadence as a duration.
func (c HealthConfig) CheckInterval() time.Duration {
	return time.Duration(c.CheckIntervalSeconds) * time.Second
}

// ProbeTimeout returns the per-probe deadline as a duration.
func (c HealthConfig) ProbeTimeout() time.Duration {
	return time.Duration(c.ProbeTimeoutSeconds) * time.Second
}

// MaxBackoff returns the reconnection backoff cap as a duration.
func (c HealthConfig) MaxBackoff() time.Duration {
	return time.Duration(c.MaxBackoffSeconds) * time.Second
}

// ShutdownConfig holds graceful shutdown settings. GracePeriodSeconds bounds
// the wait for in-flight signal processing before the process exits anyway.
type ShutdownConfig struct {
	GracePeriodSeconds int `koanf:"grace_period_seconds"`
}

// GracePeriod returns the shutdown grace period as a duration.
func (c ShutdownConfig) GracePeriod() time.Duration {
	return time.Duration(c.GracePeriodSeconds) * time.Second
}

// AlertsConfig holds operational alert delivery settings.
//
// Alerts (adapter offline/recovered, dispatch failures) are always written to
// the structured log. When Enabled, they are additionally published to NATS
// JetStream so external consumers can subscribe. EmbeddedServer runs an
// in-process NATS server for single-binary deployments.
type AlertsConfig struct {
	Enabled           bool   `koanf:"enabled"`
	URL               string `koanf:"url"`
	EmbeddedServer    bool   `koanf:"embedded_server"`
	StoreDir          string `koanf:"store_dir"`
	Subject           string `koanf:"subject"`
	ThrottlePerMinute int    `koanf:"throttle_per_minute"`
}

// HyperliquidConfig holds the Hyperliquid perpetuals adapter settings.
//
// PrivateKey is the hex-encoded secp256k1 key used to sign exchange actions.
// VaultAddress is optional; when set, orders are placed on behalf of the vault.
type HyperliquidConfig struct {
	Enabled      bool   `koanf:"enabled"`
	APIURL       string `koanf:"api_url"`
	WSURL        string `koanf:"ws_url"`
	PrivateKey   string `koanf:"private_key"`
	VaultAddress string `koanf:"vault_address"`
}

// MockDEXConfig holds the simulated adapter settings used for test mode and
// local development. Each entry in IDs registers one independent mock adapter.
type MockDEXConfig struct {
	Enabled   bool     `koanf:"enabled"`
	IDs       []string `koanf:"ids"`
	FailRate  float64  `koanf:"fail_rate"`
	LatencyMS int      `koanf:"latency_ms"`
}

// APIConfig holds operator API settings (pagination, CORS, HTTP rate limiting).
type APIConfig struct {
	DefaultPageSize    int      `koanf:"default_page_size"`
	MaxPageSize        int      `koanf:"max_page_size"`
	CORSOrigins        []string `koanf:"cors_origins"`
	RateLimitPerMinute int      `koanf:"rate_limit_per_minute"`
}

// LoggingConfig holds logging settings.
//
// Environment Variables:
//   - LOG_LEVEL: trace, debug, info, warn, error (default: info)
//   - LOG_FORMAT: json or console (default: json)
//   - LOG_CALLER: Include caller file:line in log entries (default: false)
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Load loads, layers, and validates the full application configuration.
// It is the single entry point used by cmd/server.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
