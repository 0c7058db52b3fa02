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

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/signalmesh/internal/models"
)

// defaultListLimit bounds unpaginated operator queries.
const defaultListLimit = 100

// maxListLimit caps a single page regardless of the requested limit.
const maxListLimit = 500

// ExecutionFilter narrows ListExecutions. Zero values mean "no constraint".
type ExecutionFilter struct {
	AdapterID string
	Status    models.ExecutionStatus
	Limit     int
	Offset    int
}

// RecordExecution persists one (signal, adapter) dispatch outcome and returns
// the stored view with its generated id and UTC created_at.
//
// The stored status is derived, not trusted: when the result blob reports
// both a positive fill and a positive remainder the row is recorded as
// "partial" regardless of the status the caller supplied.
func (db *DB) RecordExecution(ctx context.Context, fingerprint, adapterID, externalOrderID string, status models.ExecutionStatus, resultBlob string, latencyMS *int64) (*models.ExecutionRecord, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("invalid execution status %q", status)
	}
	status = coerceExecutionStatus(status, resultBlob)

	record := &models.ExecutionRecord{
		ID:                uuid.NewString(),
		SignalFingerprint: fingerprint,
		AdapterID:         adapterID,
		Status:            status,
		ResultBlob:        resultBlob,
		LatencyMS:         latencyMS,
		CreatedAt:         time.Now().UTC(),
	}
	if externalOrderID != "" {
		record.ExternalOrderID = &externalOrderID
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	query := `
		INSERT INTO executions (
			id, signal_fingerprint, adapter_id, external_order_id,
			status, result_blob, latency_ms, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	var latency any
	if latencyMS != nil {
		latency = *latencyMS
	}
	_, err := db.conn.ExecContext(ctx, query,
		record.ID,
		record.SignalFingerprint,
		record.AdapterID,
		nullIfEmpty(externalOrderID),
		string(record.Status),
		record.ResultBlob,
		latency,
		record.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to record execution: %w", err)
	}
	return record, nil
}

// coerceExecutionStatus applies the partial-fill rule: a blob with
// filled > 0 and remaining > 0 describes a partial execution no matter what
// the adapter-level status said. Blobs that do not parse leave the caller
// status untouched.
func coerceExecutionStatus(status models.ExecutionStatus, resultBlob string) models.ExecutionStatus {
	if resultBlob == "" {
		return status
	}
	var blob models.ResultBlob
	if err := json.Unmarshal([]byte(resultBlob), &blob); err != nil {
		return status
	}
	if blob.IndicatesPartial() {
		return models.ExecutionPartial
	}
	return status
}

// ListExecutions returns execution records in descending created_at order.
func (db *DB) ListExecutions(ctx context.Context, filter ExecutionFilter) ([]models.ExecutionRecord, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	var conditions []string
	var args []any
	if filter.AdapterID != "" {
		conditions = append(conditions, "adapter_id = ?")
		args = append(args, filter.AdapterID)
	}
	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, string(filter.Status))
	}

	query := executionSelect
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"
	query += fmt.Sprintf(" LIMIT %d", clampLimit(filter.Limit))
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	return db.queryExecutions(ctx, query, args...)
}

// ExecutionsForSignal returns every execution record for one signal, in
// descending created_at order.
func (db *DB) ExecutionsForSignal(ctx context.Context, fingerprint string) ([]models.ExecutionRecord, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	query := executionSelect + " WHERE signal_fingerprint = ? ORDER BY created_at DESC"
	return db.queryExecutions(ctx, query, fingerprint)
}

// ExecutionCountsByStatus returns row counts grouped by status.
func (db *DB) ExecutionCountsByStatus(ctx context.Context) (map[string]int64, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.countByColumn(ctx, "executions", "status")
}

// ExecutionCountsByAdapter returns row counts grouped by adapter.
func (db *DB) ExecutionCountsByAdapter(ctx context.Context) (map[string]int64, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.countByColumn(ctx, "executions", "adapter_id")
}

// SweepExecutions deletes execution rows created before the cutoff. Returns
// the number of rows removed.
func (db *DB) SweepExecutions(ctx context.Context, olderThan time.Time) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	result, err := db.conn.ExecContext(ctx,
		"DELETE FROM executions WHERE created_at < ?", olderThan.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to sweep executions: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get swept execution count: %w", err)
	}
	return count, nil
}

const executionSelect = `
	SELECT id, signal_fingerprint, adapter_id, external_order_id,
	       status, result_blob, latency_ms, created_at
	FROM executions
`

// queryExecutions runs a SELECT over the executions table and scans the rows.
// Callers hold the read lock.
func (db *DB) queryExecutions(ctx context.Context, query string, args ...any) ([]models.ExecutionRecord, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query executions: %w", err)
	}
	defer rows.Close()

	var records []models.ExecutionRecord
	for rows.Next() {
		record, err := scanExecution(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan execution row: %w", err)
		}
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating executions: %w", err)
	}
	return records, nil
}

// scanExecution scans one executions row.
func scanExecution(rows *sql.Rows) (*models.ExecutionRecord, error) {
	var (
		record     models.ExecutionRecord
		status     string
		externalID sql.NullString
		resultBlob sql.NullString
		latencyMS  sql.NullInt64
	)
	err := rows.Scan(
		&record.ID,
		&record.SignalFingerprint,
		&record.AdapterID,
		&externalID,
		&status,
		&resultBlob,
		&latencyMS,
		&record.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	record.Status = models.ExecutionStatus(status)
	record.ResultBlob = resultBlob.String
	record.CreatedAt = record.CreatedAt.UTC()
	if externalID.Valid {
		record.ExternalOrderID = &externalID.String
	}
	if latencyMS.Valid {
		record.LatencyMS = &latencyMS.Int64
	}
	return &record, nil
}

// clampLimit applies the default and maximum page sizes.
func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}
