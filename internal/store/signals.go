// Signalmesh - Webhook Trade Signal Fan-Out Across Decentralized Exchanges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signalmesh

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/tomtom215/signalmesh/internal/models"
)

// ErrDuplicateSignal is returned by SaveSignal when a row with the same
// fingerprint already exists. The ingress path normally catches duplicates in
// the dedup window before persisting; the primary key is defense in depth.
var ErrDuplicateSignal = errors.New("signal with this fingerprint already exists")

// ErrSignalNotFound is returned by GetSignal for unknown fingerprints.
var ErrSignalNotFound = errors.New("signal not found")

// SaveSignal inserts one signal row.
func (db *DB) SaveSignal(ctx context.Context, sig *models.Signal) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if sig == nil {
		return fmt.Errorf("signal cannot be nil")
	}

	query := `
		INSERT INTO signals (fingerprint, payload, user_id, received_at, processed)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := db.conn.ExecContext(ctx, query,
		sig.Fingerprint,
		sig.Payload,
		nullIfEmpty(sig.UserID),
		sig.ReceivedAt.UTC(),
		sig.Processed,
	)
	if err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("%w: %s", ErrDuplicateSignal, sig.Fingerprint)
		}
		return fmt.Errorf("failed to save signal: %w", err)
	}
	return nil
}

// GetSignal retrieves one signal by fingerprint.
func (db *DB) GetSignal(ctx context.Context, fingerprint string) (*models.Signal, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	query := `
		SELECT fingerprint, payload, user_id, received_at, processed
		FROM signals
		WHERE fingerprint = ?
	`
	var (
		sig    models.Signal
		userID sql.NullString
	)
	err := db.conn.QueryRowContext(ctx, query, fingerprint).Scan(
		&sig.Fingerprint,
		&sig.Payload,
		&userID,
		&sig.ReceivedAt,
		&sig.Processed,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrSignalNotFound, fingerprint)
		}
		return nil, fmt.Errorf("failed to get signal: %w", err)
	}
	sig.UserID = userID.String
	sig.ReceivedAt = sig.ReceivedAt.UTC()
	return &sig, nil
}

// MarkProcessed flags a signal after its dispatch cycle completes.
func (db *DB) MarkProcessed(ctx context.Context, fingerprint string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	_, err := db.conn.ExecContext(ctx,
		"UPDATE signals SET processed = TRUE WHERE fingerprint = ?", fingerprint)
	if err != nil {
		return fmt.Errorf("failed to mark signal processed: %w", err)
	}
	return nil
}

// SignalCount returns the total number of stored signals.
func (db *DB) SignalCount(ctx context.Context) (int64, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	var count int64
	if err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM signals").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count signals: %w", err)
	}
	return count, nil
}

// isDuplicateKey reports whether err is a DuckDB primary-key violation.
// duckdb-go surfaces constraint failures as text, not typed errors.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "primary key constraint")
}
