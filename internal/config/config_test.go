// Signalmesh - Webhook Trade Signal Fan-Out Across Decentralized Exchanges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signalmesh

package config

import (
	"strings"
	"testing"
	"time"
)

// validTestConfig returns a config that passes Validate, for mutation in tests.
func validTestConfig() *Config {
	cfg := defaultConfig()
	cfg.Webhook.Token = "a-perfectly-reasonable-token"
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Server.Port != 8080 {
		t.Errorf("Expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Dedup.WindowSeconds != 60 {
		t.Errorf("Expected dedup window 60s, got %d", cfg.Dedup.WindowSeconds)
	}
	if cfg.RateLimit.MaxRequests != 10 {
		t.Errorf("Expected rate limit 10 requests, got %d", cfg.RateLimit.MaxRequests)
	}
	if cfg.Dispatch.TimeoutSeconds != 30 {
		t.Errorf("Expected dispatch timeout 30s, got %d", cfg.Dispatch.TimeoutSeconds)
	}
	if cfg.Health.MaxFailures != 3 {
		t.Errorf("Expected 3 max health failures, got %d", cfg.Health.MaxFailures)
	}
	if cfg.Shutdown.GracePeriodSeconds != 30 {
		t.Errorf("Expected 30s shutdown grace, got %d", cfg.Shutdown.GracePeriodSeconds)
	}
	if !cfg.MockDEX.Enabled {
		t.Error("Expected mock adapter enabled by default")
	}
	if cfg.Hyperliquid.Enabled {
		t.Error("Expected Hyperliquid disabled by default")
	}
	if cfg.Alerts.Enabled {
		t.Error("Expected NATS alerts disabled by default")
	}
}

func TestLoadWithKoanf_EnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_PATH", "/nonexistent/config.yaml")
	t.Setenv("WEBHOOK_TOKEN", "super-secret-webhook-credential")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DATABASE_URL", "/tmp/signals-test.db")
	t.Setenv("DEDUP_WINDOW_SECONDS", "120")
	t.Setenv("RATE_LIMIT_MAX_REQUESTS", "25")
	t.Setenv("DISPATCH_TIMEOUT_SECONDS", "15")
	t.Setenv("HEALTH_MAX_FAILURES", "5")
	t.Setenv("MOCK_DEX_IDS", "mock-a, mock-b,mock-c")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf failed: %v", err)
	}

	if cfg.Webhook.Token != "super-secret-webhook-credential" {
		t.Errorf("Expected webhook token from env, got %q", cfg.Webhook.Token)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Database.Path != "/tmp/signals-test.db" {
		t.Errorf("Expected database path from env, got %q", cfg.Database.Path)
	}
	if cfg.Dedup.WindowSeconds != 120 {
		t.Errorf("Expected dedup window 120, got %d", cfg.Dedup.WindowSeconds)
	}
	if cfg.RateLimit.MaxRequests != 25 {
		t.Errorf("Expected rate limit 25, got %d", cfg.RateLimit.MaxRequests)
	}
	if cfg.Dispatch.TimeoutSeconds != 15 {
		t.Errorf("Expected dispatch timeout 15, got %d", cfg.Dispatch.TimeoutSeconds)
	}
	if cfg.Health.MaxFailures != 5 {
		t.Errorf("Expected max failures 5, got %d", cfg.Health.MaxFailures)
	}
	if len(cfg.MockDEX.IDs) != 3 || cfg.MockDEX.IDs[1] != "mock-b" {
		t.Errorf("Expected 3 trimmed mock IDs, got %v", cfg.MockDEX.IDs)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Expected log level debug, got %q", cfg.Logging.Level)
	}
}

func TestLoadWithKoanf_MissingTokenFails(t *testing.T) {
	t.Setenv("CONFIG_PATH", "/nonexistent/config.yaml")
	t.Setenv("WEBHOOK_TOKEN", "")
	t.Setenv("TEST_MODE", "false")

	_, err := LoadWithKoanf()
	if err == nil {
		t.Fatal("Expected error for missing WEBHOOK_TOKEN, got nil")
	}
	if !strings.Contains(err.Error(), "WEBHOOK_TOKEN") {
		t.Errorf("Expected WEBHOOK_TOKEN in error, got: %v", err)
	}
}

func TestLoadWithKoanf_TestModeAllowsMissingToken(t *testing.T) {
	t.Setenv("CONFIG_PATH", "/nonexistent/config.yaml")
	t.Setenv("WEBHOOK_TOKEN", "")
	t.Setenv("TEST_MODE", "true")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("Expected test mode to allow missing token, got: %v", err)
	}
	if !cfg.Webhook.TestMode {
		t.Error("Expected TestMode true")
	}
}

func TestValidate_Bounds(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "port too high",
			mutate:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: "SERVER_PORT",
		},
		{
			name:    "short webhook token",
			mutate:  func(c *Config) { c.Webhook.Token = "short" },
			wantErr: "WEBHOOK_TOKEN",
		},
		{
			name:    "placeholder webhook token",
			mutate:  func(c *Config) { c.Webhook.Token = "CHANGEME-to-something-secret" },
			wantErr: "placeholder",
		},
		{
			name:    "short user token secret",
			mutate:  func(c *Config) { c.Auth.UserTokenSecret = "too-short" },
			wantErr: "USER_TOKEN_SECRET",
		},
		{
			name:    "execution retention out of range",
			mutate:  func(c *Config) { c.Database.ExecutionRetentionDays = 4000 },
			wantErr: "DATABASE_EXECUTION_RETENTION_DAYS",
		},
		{
			name:    "zero dedup window",
			mutate:  func(c *Config) { c.Dedup.WindowSeconds = 0 },
			wantErr: "DEDUP_WINDOW_SECONDS",
		},
		{
			name:    "unknown dedup backend",
			mutate:  func(c *Config) { c.Dedup.Backend = "redis" },
			wantErr: "DEDUP_BACKEND",
		},
		{
			name: "badger backend without path",
			mutate: func(c *Config) {
				c.Dedup.Backend = "badger"
				c.Dedup.BadgerPath = ""
			},
			wantErr: "DEDUP_BADGER_PATH",
		},
		{
			name:    "zero rate limit",
			mutate:  func(c *Config) { c.RateLimit.MaxRequests = 0 },
			wantErr: "RATE_LIMIT_MAX_REQUESTS",
		},
		{
			name:    "dispatch timeout too long",
			mutate:  func(c *Config) { c.Dispatch.TimeoutSeconds = 301 },
			wantErr: "DISPATCH_TIMEOUT_SECONDS",
		},
		{
			name:    "probe timeout above interval",
			mutate:  func(c *Config) { c.Health.ProbeTimeoutSeconds = 60 },
			wantErr: "HEALTH_PROBE_TIMEOUT_SECONDS",
		},
		{
			name:    "zero shutdown grace",
			mutate:  func(c *Config) { c.Shutdown.GracePeriodSeconds = 0 },
			wantErr: "SHUTDOWN_GRACE_PERIOD_SECONDS",
		},
		{
			name: "alerts with bad nats url",
			mutate: func(c *Config) {
				c.Alerts.Enabled = true
				c.Alerts.URL = "http://localhost:4222"
			},
			wantErr: "NATS_URL",
		},
		{
			name: "hyperliquid without key",
			mutate: func(c *Config) {
				c.Hyperliquid.Enabled = true
				c.Hyperliquid.PrivateKey = ""
			},
			wantErr: "HYPERLIQUID_PRIVATE_KEY",
		},
		{
			name: "hyperliquid bad key length",
			mutate: func(c *Config) {
				c.Hyperliquid.Enabled = true
				c.Hyperliquid.PrivateKey = "0xabcdef"
			},
			wantErr: "HYPERLIQUID_PRIVATE_KEY",
		},
		{
			name: "hyperliquid bad vault address",
			mutate: func(c *Config) {
				c.Hyperliquid.Enabled = true
				c.Hyperliquid.PrivateKey = strings.Repeat("ab", 32)
				c.Hyperliquid.VaultAddress = "not-an-address"
			},
			wantErr: "HYPERLIQUID_VAULT_ADDRESS",
		},
		{
			name: "test mode with live adapter",
			mutate: func(c *Config) {
				c.Webhook.TestMode = true
				c.Webhook.Token = ""
				c.MockDEX.Enabled = false
				c.Hyperliquid.Enabled = true
				c.Hyperliquid.PrivateKey = strings.Repeat("ab", 32)
			},
			wantErr: "TEST_MODE",
		},
		{
			name: "no adapters enabled",
			mutate: func(c *Config) {
				c.MockDEX.Enabled = false
				c.Hyperliquid.Enabled = false
			},
			wantErr: "at least one DEX adapter",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: "LOG_LEVEL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validTestConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("Expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got: %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidate_ValidConfigPasses(t *testing.T) {
	cfg := validTestConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected valid config to pass, got: %v", err)
	}
}

func TestValidate_HyperliquidKeyWithPrefix(t *testing.T) {
	cfg := validTestConfig()
	cfg.Hyperliquid.Enabled = true
	cfg.Hyperliquid.PrivateKey = "0x" + strings.Repeat("ab", 32)

	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected 0x-prefixed key to validate, got: %v", err)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		env  string
		want string
	}{
		{"WEBHOOK_TOKEN", "webhook.token"},
		{"TEST_MODE", "webhook.test_mode"},
		{"DATABASE_URL", "database.path"},
		{"DUCKDB_PATH", "database.path"},
		{"DATABASE_EXECUTION_RETENTION_DAYS", "database.execution_retention_days"},
		{"APP_HOST", "server.host"},
		{"DEDUP_WINDOW_SECONDS", "dedup.window_seconds"},
		{"RATE_LIMIT_MAX_REQUESTS", "rate_limit.max_requests"},
		{"DISPATCH_TIMEOUT_SECONDS", "dispatch.timeout_seconds"},
		{"HEALTH_CHECK_INTERVAL_SECONDS", "health.check_interval_seconds"},
		{"SHUTDOWN_GRACE_PERIOD_SECONDS", "shutdown.grace_period_seconds"},
		{"USER_TOKEN_SECRET", "auth.user_token_secret"},
		{"NATS_URL", "alerts.url"},
		{"HYPERLIQUID_PRIVATE_KEY", "hyperliquid.private_key"},
		{"MOCK_DEX_ENABLED", "mock_dex.enabled"},
		{"LOG_LEVEL", "logging.level"},
		{"PATH", ""},
		{"RANDOM_UNRELATED_VAR", ""},
	}

	for _, tt := range tests {
		if got := envTransformFunc(tt.env); got != tt.want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", tt.env, got, tt.want)
		}
	}
}

func TestDurationAccessors(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Dedup.Window() != 60*time.Second {
		t.Errorf("Expected 60s dedup window, got %v", cfg.Dedup.Window())
	}
	if cfg.Dispatch.Timeout() != 30*time.Second {
		t.Errorf("Expected 30s dispatch timeout, got %v", cfg.Dispatch.Timeout())
	}
	if cfg.Health.ProbeTimeout() != 10*time.Second {
		t.Errorf("Expected 10s probe timeout, got %v", cfg.Health.ProbeTimeout())
	}
	if cfg.Shutdown.GracePeriod() != 30*time.Second {
		t.Errorf("Expected 30s grace period, got %v", cfg.Shutdown.GracePeriod())
	}
}

func TestContainsPlaceholder(t *testing.T) {
	if !containsPlaceholder("please-CHANGEME-now") {
		t.Error("Expected placeholder detection for CHANGEME")
	}
	if containsPlaceholder("kx9f2m1qw8e7r6t5") {
		t.Error("Did not expect placeholder detection for random token")
	}
}
