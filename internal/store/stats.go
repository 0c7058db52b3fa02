// Signalmesh - Webhook Trade Signal Fan-Out Across Decentralized Exchanges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signalmesh

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Stats is the counters snapshot served by the operator stats endpoint.
type Stats struct {
	Signals             int64            `json:"signals"`
	Executions          int64            `json:"executions"`
	ExecutionsByStatus  map[string]int64 `json:"executions_by_status"`
	ExecutionsByAdapter map[string]int64 `json:"executions_by_adapter"`
	ErrorsByLevel       map[string]int64 `json:"errors_by_level"`
	OldestExecution     *time.Time       `json:"oldest_execution,omitempty"`
	NewestExecution     *time.Time       `json:"newest_execution,omitempty"`
}

// GetStats assembles the snapshot. Counts are read without a transaction;
// concurrent writes can skew sibling counters by a row, which is acceptable
// for an informational endpoint.
func (db *DB) GetStats(ctx context.Context) (*Stats, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	stats := &Stats{
		ExecutionsByStatus:  make(map[string]int64),
		ExecutionsByAdapter: make(map[string]int64),
		ErrorsByLevel:       make(map[string]int64),
	}

	if err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM signals").Scan(&stats.Signals); err != nil {
		return nil, fmt.Errorf("failed to count signals: %w", err)
	}
	if err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM executions").Scan(&stats.Executions); err != nil {
		return nil, fmt.Errorf("failed to count executions: %w", err)
	}

	byStatus, err := db.countByColumn(ctx, "executions", "status")
	if err != nil {
		return nil, err
	}
	stats.ExecutionsByStatus = byStatus

	byAdapter, err := db.countByColumn(ctx, "executions", "adapter_id")
	if err != nil {
		return nil, err
	}
	stats.ExecutionsByAdapter = byAdapter

	byLevel, err := db.countByColumn(ctx, "error_log", "level")
	if err != nil {
		return nil, err
	}
	stats.ErrorsByLevel = byLevel

	db.setExecutionTimeRange(ctx, stats)
	return stats, nil
}

// setExecutionTimeRange populates the oldest and newest execution timestamps.
func (db *DB) setExecutionTimeRange(ctx context.Context, stats *Stats) {
	var oldest, newest sql.NullTime
	err := db.conn.QueryRowContext(ctx, "SELECT MIN(created_at), MAX(created_at) FROM executions").Scan(&oldest, &newest)
	if err == nil {
		if oldest.Valid {
			t := oldest.Time.UTC()
			stats.OldestExecution = &t
		}
		if newest.Valid {
			t := newest.Time.UTC()
			stats.NewestExecution = &t
		}
	}
}
