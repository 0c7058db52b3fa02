// Signalmesh - Webhook Trade Signal Fan-Out Across Decentralized Exchanges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signalmesh

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/signalmesh/config.yaml",
	"/etc/signalmesh/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all sensible default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8080,
			Timeout:     35 * time.Second, // Must outlast the 30s dispatch deadline
			Environment: "development",
		},
		Webhook: WebhookConfig{
			Token:    "",
			TestMode: false,
		},
		Auth: AuthConfig{
			UserTokenSecret: "", // Per-user JWT tokens disabled unless set
		},
		Database: DatabaseConfig{
			Path:                   "data/signalmesh.db",
			MaxMemory:              "1GB",
			Threads:                0, // 0 = use runtime.NumCPU()
			RetentionDays:          90,
			ExecutionRetentionDays: 0, // 0 = follow retention_days
		},
		Dedup: DedupConfig{
			WindowSeconds: 60,
			Backend:       "memory",
			BadgerPath:    "data/dedup",
		},
		RateLimit: RateLimitConfig{
			WindowSeconds: 60,
			MaxRequests:   10,
		},
		Dispatch: DispatchConfig{
			TimeoutSeconds: 30,
		},
		Health: HealthConfig{
			CheckIntervalSeconds: 30,
			ProbeTimeoutSeconds:  10,
			MaxFailures:          3,
			MaxBackoffSeconds:    30,
			ReconnectMaxAttempts: 10,
		},
		Shutdown: ShutdownConfig{
			GracePeriodSeconds: 30,
		},
		Alerts: AlertsConfig{
			Enabled:           false, // Log-only alerting by default - opt-in NATS delivery
			URL:               "nats://127.0.0.1:4222",
			EmbeddedServer:    false,
			StoreDir:          "data/nats/jetstream",
			Subject:           "signalmesh.alerts",
			ThrottlePerMinute: 30,
		},
		Hyperliquid: HyperliquidConfig{
			Enabled:      false,
			APIURL:       "https://api.hyperliquid.xyz",
			WSURL:        "wss://api.hyperliquid.xyz/ws",
			PrivateKey:   "",
			VaultAddress: "",
		},
		MockDEX: MockDEXConfig{
			Enabled:   true, // Safe default - no real venue is touched without explicit config
			IDs:       []string{"mock-dex"},
			FailRate:  0.0,
			LatencyMS: 50,
		},
		API: APIConfig{
			DefaultPageSize:    20,
			MaxPageSize:        100,
			CORSOrigins:        []string{"*"},
			RateLimitPerMinute: 120,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in sensible defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any setting
//
// This function is the preferred way to load configuration and provides:
//   - Type-safe configuration unmarshaling
//   - Clear precedence: ENV > File > Defaults
//   - Support for nested configuration via koanf struct tags
//   - Backward compatibility with flat environment variable names
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	configPath := findConfigFile()
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	// Transform environment variable names to koanf paths:
	// WEBHOOK_TOKEN -> webhook.token
	// HEALTH_MAX_FAILURES -> health.max_failures
	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Post-process slice fields from comma-separated strings
	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	// Unmarshal into Config struct
	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	// Check environment variable first
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	// Search default paths
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"mock_dex.ids",
	"api.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// This is necessary because env vars come in as strings, but the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		// If it's already a slice (from YAML file), skip
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		// If it's a string, split by comma
		if strVal, ok := val.(string); ok {
			if strVal == "" {
				continue
			}
			parts := strings.Split(strVal, ",")
			trimmed := make([]string, 0, len(parts))
			for _, p := range parts {
				p = strings.TrimSpace(p)
				if p != "" {
					trimmed = append(trimmed, p)
				}
			}
			if len(trimmed) > 0 {
				if err := k.Set(path, trimmed); err != nil {
					return fmt.Errorf("failed to set %s: %w", path, err)
				}
			}
		}
	}
	return nil
}

// envTransformFunc transforms environment variable names to koanf config paths.
// It handles the mapping from flat deployment-facing environment variable names
// to the nested configuration structure.
//
// Examples:
//   - WEBHOOK_TOKEN -> webhook.token
//   - DATABASE_URL -> database.path
//   - DISPATCH_TIMEOUT_SECONDS -> dispatch.timeout_seconds
//   - HYPERLIQUID_API_URL -> hyperliquid.api_url
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	// Map flat environment variable names to config sections
	envMappings := map[string]string{
		// Server mappings
		"server_host":    "server.host",
		"server_port":    "server.port",
		"server_timeout": "server.timeout",
		"app_host":       "server.host", // Legacy alias
		"environment":    "server.environment",

		// Webhook mappings
		"webhook_token": "webhook.token",
		"test_mode":     "webhook.test_mode",

		// Auth mappings
		"user_token_secret": "auth.user_token_secret",

		// Database mappings
		"database_url":            "database.path",
		"duckdb_path":             "database.path", // Legacy alias
		"database_max_memory":     "database.max_memory",
		"database_threads":        "database.threads",
		"database_retention_days":           "database.retention_days",
		"database_execution_retention_days": "database.execution_retention_days",

		// Dedup mappings
		"dedup_window_seconds": "dedup.window_seconds",
		"dedup_backend":        "dedup.backend",
		"dedup_badger_path":    "dedup.badger_path",

		// Rate limit mappings
		"rate_limit_window_seconds": "rate_limit.window_seconds",
		"rate_limit_max_requests":   "rate_limit.max_requests",

		// Dispatch mappings
		"dispatch_timeout_seconds": "dispatch.timeout_seconds",

		// Health monitor mappings
		"health_check_interval_seconds": "health.check_interval_seconds",
		"health_probe_timeout_seconds":  "health.probe_timeout_seconds",
		"health_max_failures":           "health.max_failures",
		"health_max_backoff_seconds":    "health.max_backoff_seconds",
		"health_reconnect_max_attempts": "health.reconnect_max_attempts",

		// Shutdown mappings
		"shutdown_grace_period_seconds": "shutdown.grace_period_seconds",

		// Alerts mappings
		"alerts_enabled":             "alerts.enabled",
		"nats_url":                   "alerts.url",
		"nats_embedded":              "alerts.embedded_server",
		"nats_store_dir":             "alerts.store_dir",
		"alerts_subject":             "alerts.subject",
		"alerts_throttle_per_minute": "alerts.throttle_per_minute",

		// Hyperliquid adapter mappings
		"hyperliquid_enabled":       "hyperliquid.enabled",
		"hyperliquid_api_url":       "hyperliquid.api_url",
		"hyperliquid_ws_url":        "hyperliquid.ws_url",
		"hyperliquid_private_key":   "hyperliquid.private_key",
		"hyperliquid_vault_address": "hyperliquid.vault_address",

		// Mock adapter mappings
		"mock_dex_enabled":    "mock_dex.enabled",
		"mock_dex_ids":        "mock_dex.ids",
		"mock_dex_fail_rate":  "mock_dex.fail_rate",
		"mock_dex_latency_ms": "mock_dex.latency_ms",

		// API mappings
		"api_default_page_size":     "api.default_page_size",
		"api_max_page_size":         "api.max_page_size",
		"cors_origins":              "api.cors_origins",
		"api_rate_limit_per_minute": "api.rate_limit_per_minute",

		// Logging mappings
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}

	// For unmapped keys, return empty string to skip them
	// This prevents random environment variables from polluting config
	return ""
}
