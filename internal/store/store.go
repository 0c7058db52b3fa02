// Signalmesh - Webhook Trade Signal Fan-Out Across Decentralized Exchanges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signalmesh

// Package store persists signals, execution records, and the error log in a
// single-file DuckDB database.
//
// Three append-oriented tables back the pipeline:
//
//   - signals: one row per accepted webhook, keyed by fingerprint. A second
//     insert with the same fingerprint fails with ErrDuplicateSignal.
//   - executions: one row per (signal, adapter) dispatch attempt. Status is
//     coerced to "partial" at record time when the result blob shows both a
//     fill and a remainder, regardless of what the caller supplied.
//   - error_log: structured error events, written asynchronously by
//     ErrorRecorder and trimmed by Sweeper after the retention horizon.
//
// All rows carry UTC timestamps. Writers are serialized through a mutex; the
// read paths share an RLock.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/tomtom215/signalmesh/internal/config"
	"github.com/tomtom215/signalmesh/internal/logging"
)

// DB wraps the DuckDB connection and provides the persistence operations for
// the signal pipeline.
type DB struct {
	conn *sql.DB
	mu   sync.RWMutex
}

// Open opens (or creates) the database at cfg.Path and ensures the schema
// exists. An empty path or ":memory:" opens an in-memory database.
func Open(cfg *config.DatabaseConfig) (*DB, error) {
	connStr := ""
	if cfg.Path != "" && cfg.Path != ":memory:" {
		// Use 0750 permissions (owner: rwx, group: rx, other: none) per gosec G301
		dbDir := filepath.Dir(cfg.Path)
		if dbDir != "" && dbDir != "." {
			if err := os.MkdirAll(dbDir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create database directory %s: %w", dbDir, err)
			}
		}

		numThreads := cfg.Threads
		if numThreads <= 0 {
			numThreads = runtime.NumCPU()
		}
		maxMemory := cfg.MaxMemory
		if maxMemory == "" {
			maxMemory = "1GB"
		}
		connStr = fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s",
			cfg.Path, numThreads, maxMemory)
	}

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(runtime.NumCPU())
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := conn.PingContext(ctx); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(ctx); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logging.Info().Str("path", cfg.Path).Msg("Database opened")
	return db, nil
}

// Close closes the underlying connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping verifies the connection is alive.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// migrate creates the tables and indexes if they do not exist.
func (db *DB) migrate(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS signals (
			fingerprint VARCHAR PRIMARY KEY,
			payload     VARCHAR NOT NULL,
			user_id     VARCHAR,
			received_at TIMESTAMP NOT NULL,
			processed   BOOLEAN NOT NULL DEFAULT FALSE
		);
		CREATE INDEX IF NOT EXISTS idx_signals_received_at ON signals(received_at DESC);

		CREATE TABLE IF NOT EXISTS executions (
			id                 VARCHAR PRIMARY KEY,
			signal_fingerprint VARCHAR NOT NULL,
			adapter_id         VARCHAR NOT NULL,
			external_order_id  VARCHAR,
			status             VARCHAR NOT NULL CHECK (status IN ('pending', 'filled', 'partial', 'failed')),
			result_blob        VARCHAR,
			latency_ms         BIGINT,
			created_at         TIMESTAMP NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_executions_created_at ON executions(created_at DESC);
		CREATE INDEX IF NOT EXISTS idx_executions_fingerprint ON executions(signal_fingerprint);
		CREATE INDEX IF NOT EXISTS idx_executions_adapter ON executions(adapter_id);

		CREATE TABLE IF NOT EXISTS error_log (
			id           VARCHAR PRIMARY KEY,
			level        VARCHAR NOT NULL,
			category     VARCHAR NOT NULL,
			message      VARCHAR NOT NULL,
			context_blob VARCHAR,
			created_at   TIMESTAMP NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_error_log_created_at ON error_log(created_at DESC);
	`

	statements := strings.Split(schema, ";")
	for _, stmt := range statements {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}

	logging.Debug().Msg("Database schema created/verified")
	return nil
}

// countByColumn executes a GROUP BY query and returns counts per value.
func (db *DB) countByColumn(ctx context.Context, table, column string) (map[string]int64, error) {
	result := make(map[string]int64)
	query := fmt.Sprintf("SELECT %s, COUNT(*) FROM %s GROUP BY %s", column, table, column)
	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s.%s counts: %w", table, column, err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var count int64
		if err := rows.Scan(&key, &count); err == nil {
			result[key] = count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s.%s counts: %w", table, column, err)
	}
	return result, nil
}

// nullIfEmpty maps an empty string to SQL NULL.
func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// closeQuietly closes a resource and explicitly ignores any error
// Use this for cleanup operations in error paths where Close() errors are not actionable
func closeQuietly(conn *sql.DB) {
	if conn != nil {
		_ = conn.Close()
	}
}
