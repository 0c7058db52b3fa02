// Signalmesh - Webhook Trade Signal Fan-Out Across Decentralized Exchanges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signalmesh

package store

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/tomtom215/signalmesh/internal/logging"
	"github.com/tomtom215/signalmesh/internal/models"
)

// RecorderConfig holds tuning for the async error recorder.
type RecorderConfig struct {
	// BufferSize is the size of the async write buffer. When the buffer is
	// full, new entries are dropped rather than blocking the caller.
	BufferSize int

	// WriteTimeout bounds each persistence attempt.
	WriteTimeout time.Duration
}

// DefaultRecorderConfig returns sensible defaults.
func DefaultRecorderConfig() RecorderConfig {
	return RecorderConfig{
		BufferSize:   1000,
		WriteTimeout: 5 * time.Second,
	}
}

// ErrorRecorder writes error-log entries asynchronously. Record never blocks
// and never returns an error: a full buffer drops the entry with a warning,
// and a failed database write falls back to stderr so the entry is at least
// visible somewhere.
type ErrorRecorder struct {
	db        *DB
	cfg       RecorderConfig
	entryChan chan *models.ErrorEntry
	stopChan  chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup
}

// NewErrorRecorder creates a recorder and starts its async writer.
func NewErrorRecorder(db *DB, cfg RecorderConfig) *ErrorRecorder {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultRecorderConfig().BufferSize
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = DefaultRecorderConfig().WriteTimeout
	}

	r := &ErrorRecorder{
		db:        db,
		cfg:       cfg,
		entryChan: make(chan *models.ErrorEntry, cfg.BufferSize),
		stopChan:  make(chan struct{}),
	}

	r.wg.Add(1)
	go r.asyncWriter()

	return r
}

// Record enqueues one error-log entry. Fire-and-forget: the caller continues
// regardless of persistence outcome. Redaction happens here, at record
// construction, so no credential material ever reaches the buffer.
func (r *ErrorRecorder) Record(level models.ErrorLevel, category models.ErrorCode, message, contextBlob string) {
	if !level.Valid() {
		level = models.LevelError
	}

	entry := &models.ErrorEntry{
		Level:       level,
		Category:    category,
		Message:     logging.RedactSecrets(message),
		ContextBlob: logging.TruncateBody(logging.RedactSecrets(contextBlob)),
		CreatedAt:   time.Now().UTC(),
	}

	select {
	case r.entryChan <- entry:
	default:
		logging.Warn().Str("category", string(category)).Msg("Error-log buffer full, dropping entry")
	}
}

// asyncWriter processes entries from the buffer.
func (r *ErrorRecorder) asyncWriter() {
	defer r.wg.Done()

	for {
		select {
		case <-r.stopChan:
			// Drain remaining entries
			for {
				select {
				case entry := <-r.entryChan:
					r.writeEntry(entry)
				default:
					return
				}
			}
		case entry := <-r.entryChan:
			r.writeEntry(entry)
		}
	}
}

// writeEntry persists an entry. Persistence failures go to stderr: the error
// log cannot log its own failures into itself.
func (r *ErrorRecorder) writeEntry(entry *models.ErrorEntry) {
	ctx, cancel := context.WithTimeout(context.Background(), r.cfg.WriteTimeout)
	defer cancel()

	if err := r.db.InsertError(ctx, entry); err != nil {
		fmt.Fprintf(os.Stderr, "error-log write failed: %v (level=%s category=%s message=%s)\n",
			err, entry.Level, entry.Category, entry.Message)
	}
}

// Close stops the writer after draining buffered entries.
func (r *ErrorRecorder) Close() error {
	r.stopOnce.Do(func() { close(r.stopChan) })
	r.wg.Wait()
	return nil
}
