// Signalmesh - Webhook Trade Signal Fan-Out Across Decentralized Exchanges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signalmesh

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/signalmesh/internal/logging"
	"github.com/tomtom215/signalmesh/internal/models"
)

// ErrorFilter narrows ListErrors. Zero values mean "no constraint".
type ErrorFilter struct {
	Level    models.ErrorLevel
	Category string
	Limit    int
	Offset   int
}

// InsertError persists one error-log entry synchronously. Most callers go
// through ErrorRecorder instead; this is the recorder's write path and the
// direct path for tests.
func (db *DB) InsertError(ctx context.Context, entry *models.ErrorEntry) error {
	if entry == nil {
		return fmt.Errorf("error entry cannot be nil")
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	query := `
		INSERT INTO error_log (id, level, category, message, context_blob, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := db.conn.ExecContext(ctx, query,
		entry.ID,
		string(entry.Level),
		string(entry.Category),
		entry.Message,
		nullIfEmpty(entry.ContextBlob),
		entry.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert error entry: %w", err)
	}
	return nil
}

// ListErrors returns error-log entries in descending created_at order.
func (db *DB) ListErrors(ctx context.Context, filter ErrorFilter) ([]models.ErrorEntry, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	var conditions []string
	var args []any
	if filter.Level != "" {
		conditions = append(conditions, "level = ?")
		args = append(args, string(filter.Level))
	}
	if filter.Category != "" {
		conditions = append(conditions, "category = ?")
		args = append(args, filter.Category)
	}

	query := `
		SELECT id, level, category, message, context_blob, created_at
		FROM error_log
	`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"
	query += fmt.Sprintf(" LIMIT %d", clampLimit(filter.Limit))
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query error log: %w", err)
	}
	defer rows.Close()

	var entries []models.ErrorEntry
	for rows.Next() {
		var (
			entry       models.ErrorEntry
			level       string
			category    string
			contextBlob sql.NullString
		)
		err := rows.Scan(&entry.ID, &level, &category, &entry.Message, &contextBlob, &entry.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan error row: %w", err)
		}
		entry.Level = models.ErrorLevel(level)
		entry.Category = models.ErrorCode(category)
		entry.ContextBlob = contextBlob.String
		entry.CreatedAt = entry.CreatedAt.UTC()
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating error log: %w", err)
	}
	return entries, nil
}

// ErrorCountsByLevel returns row counts grouped by level.
func (db *DB) ErrorCountsByLevel(ctx context.Context) (map[string]int64, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.countByColumn(ctx, "error_log", "level")
}

// SweepErrors deletes error-log rows created before the cutoff. Returns the
// number of rows removed.
func (db *DB) SweepErrors(ctx context.Context, olderThan time.Time) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	result, err := db.conn.ExecContext(ctx,
		"DELETE FROM error_log WHERE created_at < ?", olderThan.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to sweep error log: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get swept error count: %w", err)
	}
	if count > 0 {
		logging.Info().Int64("deleted", count).Time("older_than", olderThan).Msg("Swept old error-log entries")
	}
	return count, nil
}
