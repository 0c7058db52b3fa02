// Signalmesh - Webhook Trade Signal Fan-Out Across Decentralized Exchanges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signalmesh

package config

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// Validate checks that required configuration is present and valid.
// Any error here is fatal at startup: the service refuses to run on a
// configuration that could drop, duplicate, or misroute live trade signals.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateWebhook,
		c.validateAuth,
		c.validateDatabase,
		c.validateDedup,
		c.validateRateLimit,
		c.validateDispatch,
		c.validateHealth,
		c.validateShutdown,
		c.validateAlerts,
		c.validateHyperliquid,
		c.validateAdapters,
		c.validateAPI,
	}

	for _, validate := range validators {
		if err := validate(); err != nil {
			return err
		}
	}

	return c.validateLogging()
}

// validateServer validates HTTP server configuration
func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT must be between 1 and 65535")
	}
	if c.Server.Timeout < time.Second {
		return fmt.Errorf("SERVER_TIMEOUT must be at least 1s")
	}
	return nil
}

// validateWebhook validates the webhook authentication token.
// The token is mandatory outside test mode: without it every request would be
// rejected, and silently starting in that state hides a broken deployment.
func (c *Config) validateWebhook() error {
	if c.Webhook.Token == "" {
		if c.Webhook.TestMode {
			return nil // Test mode may run unauthenticated against mock adapters
		}
		return fmt.Errorf("WEBHOOK_TOKEN is required (set TEST_MODE=true to run without it)")
	}

	if len(c.Webhook.Token) < minWebhookTokenLen {
		return fmt.Errorf("WEBHOOK_TOKEN must be at least %d characters", minWebhookTokenLen)
	}
	if containsPlaceholder(c.Webhook.Token) {
		return fmt.Errorf("WEBHOOK_TOKEN contains a placeholder value - generate a secure token with: openssl rand -hex 32")
	}
	return nil
}

// validateAuth validates per-user token configuration (only if enabled)
func (c *Config) validateAuth() error {
	if c.Auth.UserTokenSecret == "" {
		return nil // Per-user tokens are optional
	}

	if len(c.Auth.UserTokenSecret) < minUserTokenSecretLen {
		return fmt.Errorf("USER_TOKEN_SECRET must be at least %d characters for security", minUserTokenSecretLen)
	}
	if containsPlaceholder(c.Auth.UserTokenSecret) {
		return fmt.Errorf("USER_TOKEN_SECRET contains a placeholder value - generate a secure secret with: openssl rand -base64 32")
	}
	return nil
}

// validateDatabase validates persistence configuration
func (c *Config) validateDatabase() error {
	if c.Database.Path == "" {
		return fmt.Errorf("DATABASE_URL must not be empty")
	}
	if c.Database.RetentionDays < 1 || c.Database.RetentionDays > 3650 {
		return fmt.Errorf("DATABASE_RETENTION_DAYS must be between 1 and 3650")
	}
	// Zero means executions follow the error-log horizon.
	if c.Database.ExecutionRetentionDays != 0 &&
		(c.Database.ExecutionRetentionDays < 1 || c.Database.ExecutionRetentionDays > 3650) {
		return fmt.Errorf("DATABASE_EXECUTION_RETENTION_DAYS must be 0 or between 1 and 3650")
	}
	return nil
}

// validDedupBackends defines the allowed dedup tracker backends
var validDedupBackends = map[string]bool{
	"memory": true,
	"badger": true,
}

// validateDedup validates duplicate-suppression configuration
func (c *Config) validateDedup() error {
	if c.Dedup.WindowSeconds < 1 || c.Dedup.WindowSeconds > 3600 {
		return fmt.Errorf("DEDUP_WINDOW_SECONDS must be between 1 and 3600")
	}
	if !validDedupBackends[c.Dedup.Backend] {
		return fmt.Errorf("DEDUP_BACKEND must be one of: memory, badger")
	}
	if c.Dedup.Backend == "badger" && c.Dedup.BadgerPath == "" {
		return fmt.Errorf("DEDUP_BADGER_PATH is required when DEDUP_BACKEND=badger")
	}
	return nil
}

// Rate limit bounds
const (
	minRateLimitRequests = 1
	maxRateLimitRequests = 100000
)

// validateRateLimit validates per-token rate limiting configuration
func (c *Config) validateRateLimit() error {
	if c.RateLimit.MaxRequests < minRateLimitRequests || c.RateLimit.MaxRequests > maxRateLimitRequests {
		return fmt.Errorf("RATE_LIMIT_MAX_REQUESTS must be between %d and %d", minRateLimitRequests, maxRateLimitRequests)
	}
	if c.RateLimit.WindowSeconds < 1 || c.RateLimit.WindowSeconds > 3600 {
		return fmt.Errorf("RATE_LIMIT_WINDOW_SECONDS must be between 1 and 3600")
	}
	return nil
}

// validateDispatch validates fan-out configuration
func (c *Config) validateDispatch() error {
	if c.Dispatch.TimeoutSeconds < 1 || c.Dispatch.TimeoutSeconds > 300 {
		return fmt.Errorf("DISPATCH_TIMEOUT_SECONDS must be between 1 and 300")
	}
	return nil
}

// validateHealth validates health monitor configuration
func (c *Config) validateHealth() error {
	if c.Health.CheckIntervalSeconds < 5 || c.Health.CheckIntervalSeconds > 3600 {
		return fmt.Errorf("HEALTH_CHECK_INTERVAL_SECONDS must be between 5 and 3600")
	}
	if c.Health.ProbeTimeoutSeconds < 1 || c.Health.ProbeTimeoutSeconds > c.Health.CheckIntervalSeconds {
		return fmt.Errorf("HEALTH_PROBE_TIMEOUT_SECONDS must be between 1 and HEALTH_CHECK_INTERVAL_SECONDS")
	}
	if c.Health.MaxFailures < 1 || c.Health.MaxFailures > 10 {
		return fmt.Errorf("HEALTH_MAX_FAILURES must be between 1 and 10")
	}
	if c.Health.MaxBackoffSeconds < 1 || c.Health.MaxBackoffSeconds > 600 {
		return fmt.Errorf("HEALTH_MAX_BACKOFF_SECONDS must be between 1 and 600")
	}
	if c.Health.ReconnectMaxAttempts < 1 || c.Health.ReconnectMaxAttempts > 100 {
		return fmt.Errorf("HEALTH_RECONNECT_MAX_ATTEMPTS must be between 1 and 100")
	}
	return nil
}

// validateShutdown validates graceful shutdown configuration
func (c *Config) validateShutdown() error {
	if c.Shutdown.GracePeriodSeconds < 1 || c.Shutdown.GracePeriodSeconds > 600 {
		return fmt.Errorf("SHUTDOWN_GRACE_PERIOD_SECONDS must be between 1 and 600")
	}
	return nil
}

// validateAlerts validates alert delivery configuration (only if enabled)
func (c *Config) validateAlerts() error {
	if !c.Alerts.Enabled {
		return nil
	}

	if err := validateNATSURL(c.Alerts.URL); err != nil {
		return fmt.Errorf("NATS_URL is invalid: %w", err)
	}
	if c.Alerts.Subject == "" {
		return fmt.Errorf("ALERTS_SUBJECT must not be empty when ALERTS_ENABLED=true")
	}
	if c.Alerts.ThrottlePerMinute < 1 || c.Alerts.ThrottlePerMinute > 600 {
		return fmt.Errorf("ALERTS_THROTTLE_PER_MINUTE must be between 1 and 600")
	}
	if c.Alerts.EmbeddedServer && c.Alerts.StoreDir == "" {
		return fmt.Errorf("NATS_STORE_DIR is required when NATS_EMBEDDED=true")
	}
	return nil
}

// validateHyperliquid validates the Hyperliquid adapter configuration (only if enabled)
func (c *Config) validateHyperliquid() error {
	if !c.Hyperliquid.Enabled {
		return nil
	}

	// Test mode promises callers that no live orders are placed. A live
	// venue in the registry would break that promise the moment a dry run
	// dispatched, so the combination is rejected at startup.
	if c.Webhook.TestMode {
		return fmt.Errorf("HYPERLIQUID_ENABLED must be false when TEST_MODE=true: dry runs must never reach a live venue")
	}

	if err := validateHTTPURL(c.Hyperliquid.APIURL, "HYPERLIQUID_API_URL"); err != nil {
		return fmt.Errorf("HYPERLIQUID_API_URL is invalid: %w", err)
	}
	if err := c.validateHyperliquidKey(); err != nil {
		return err
	}
	return c.validateHyperliquidVault()
}

// validateHyperliquidKey validates the signing key.
// Accepts 64 hex characters with an optional 0x prefix.
func (c *Config) validateHyperliquidKey() error {
	key := strings.TrimPrefix(c.Hyperliquid.PrivateKey, "0x")
	if key == "" {
		return fmt.Errorf("HYPERLIQUID_PRIVATE_KEY is required when HYPERLIQUID_ENABLED=true")
	}
	if len(key) != 64 {
		return fmt.Errorf("HYPERLIQUID_PRIVATE_KEY must be 64 hex characters (32 bytes)")
	}
	if _, err := hex.DecodeString(key); err != nil {
		return fmt.Errorf("HYPERLIQUID_PRIVATE_KEY is not valid hex: %w", err)
	}
	return nil
}

// validateHyperliquidVault validates the optional vault address
func (c *Config) validateHyperliquidVault() error {
	addr := c.Hyperliquid.VaultAddress
	if addr == "" {
		return nil
	}
	if !strings.HasPrefix(addr, "0x") || len(addr) != 42 {
		return fmt.Errorf("HYPERLIQUID_VAULT_ADDRESS must be a 0x-prefixed 20-byte address")
	}
	if _, err := hex.DecodeString(addr[2:]); err != nil {
		return fmt.Errorf("HYPERLIQUID_VAULT_ADDRESS is not valid hex: %w", err)
	}
	return nil
}

// validateAdapters ensures at least one execution venue is configured.
// A service with zero adapters would accept and persist signals it can never
// execute, so that state is rejected at startup rather than discovered at 3am.
func (c *Config) validateAdapters() error {
	if c.Hyperliquid.Enabled || c.MockDEX.Enabled {
		return nil
	}
	return fmt.Errorf("at least one DEX adapter must be enabled (HYPERLIQUID_ENABLED or MOCK_DEX_ENABLED)")
}

// validateAPI validates operator API configuration
func (c *Config) validateAPI() error {
	if c.API.DefaultPageSize < 1 || c.API.DefaultPageSize > c.API.MaxPageSize {
		return fmt.Errorf("API_DEFAULT_PAGE_SIZE must be between 1 and API_MAX_PAGE_SIZE")
	}
	if c.API.MaxPageSize < 1 || c.API.MaxPageSize > 1000 {
		return fmt.Errorf("API_MAX_PAGE_SIZE must be between 1 and 1000")
	}
	if c.API.RateLimitPerMinute < 1 {
		return fmt.Errorf("API_RATE_LIMIT_PER_MINUTE must be at least 1")
	}
	return nil
}

// IsProduction returns true if the application is running in production mode.
// Production mode is determined by the ENVIRONMENT environment variable.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.Server.Environment)
	return env == "production" || env == "prod"
}

// IsDevelopment returns true if the application is running in development mode.
func (c *Config) IsDevelopment() bool {
	env := strings.ToLower(c.Server.Environment)
	return env == "" || env == "development" || env == "dev"
}

// validLogLevels defines the allowed log levels
var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validLogFormats defines the allowed log formats
var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

// validateLogging validates logging configuration
func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}

// Secret length floors
const (
	minWebhookTokenLen    = 16
	minUserTokenSecretLen = 32
)

// placeholderPatterns defines common placeholder patterns that indicate
// the user forgot to set a real value. This prevents accidental deployment
// with insecure default credentials.
var placeholderPatterns = []string{
	"REPLACE",
	"CHANGEME",
	"CHANGE_ME",
	"YOUR_SECRET",
	"YOUR_TOKEN",
	"PLACEHOLDER",
	"EXAMPLE",
}

// containsPlaceholder checks if a value contains common placeholder patterns
func containsPlaceholder(value string) bool {
	upperValue := strings.ToUpper(value)
	for _, pattern := range placeholderPatterns {
		if strings.Contains(upperValue, pattern) {
			return true
		}
	}
	return false
}
