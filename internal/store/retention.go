// Signalmesh - Webhook Trade Signal Fan-Out Across Decentralized Exchanges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signalmesh

package store

import (
	"context"
	"time"

	"github.com/tomtom215/signalmesh/internal/logging"
)

// Sweeper removes execution and error-log rows older than their retention
// horizons. The two tables age independently: execution history is the
// operator-facing record and may deserve a longer (or shorter) horizon than
// the error log. Signal rows are kept: they are the compact audit trail the
// swept tables reference, and they are two orders of magnitude smaller.
type Sweeper struct {
	db            *DB
	errRetention  time.Duration
	execRetention time.Duration
	interval      time.Duration
}

// NewSweeper creates a sweeper. errorRetentionDays at or below zero defaults
// to 90. executionRetentionDays at or below zero follows the error-log
// horizon. interval at or below zero defaults to 24h.
func NewSweeper(db *DB, errorRetentionDays, executionRetentionDays int, interval time.Duration) *Sweeper {
	if errorRetentionDays <= 0 {
		errorRetentionDays = 90
	}
	if executionRetentionDays <= 0 {
		executionRetentionDays = errorRetentionDays
	}
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &Sweeper{
		db:            db,
		errRetention:  time.Duration(errorRetentionDays) * 24 * time.Hour,
		execRetention: time.Duration(executionRetentionDays) * 24 * time.Hour,
		interval:      interval,
	}
}

// Run sweeps once immediately, then on every interval tick until the context
// is cancelled. The signature fits a supervised service: it only returns
// when ctx is done.
func (s *Sweeper) Run(ctx context.Context) error {
	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// sweep removes rows past their retention horizons. Failures are logged and
// retried on the next tick, never propagated.
func (s *Sweeper) sweep(ctx context.Context) {
	now := time.Now().UTC()
	errCutoff := now.Add(-s.errRetention)
	execCutoff := now.Add(-s.execRetention)

	errCount, err := s.db.SweepErrors(ctx, errCutoff)
	if err != nil && ctx.Err() == nil {
		logging.Error().Err(err).Msg("Error-log retention sweep failed")
	}

	execCount, err := s.db.SweepExecutions(ctx, execCutoff)
	if err != nil && ctx.Err() == nil {
		logging.Error().Err(err).Msg("Execution retention sweep failed")
	}

	if errCount > 0 || execCount > 0 {
		logging.Info().
			Int64("errors_deleted", errCount).
			Int64("executions_deleted", execCount).
			Time("error_cutoff", errCutoff).
			Time("execution_cutoff", execCutoff).
			Msg("Retention sweep complete")
	}
}
