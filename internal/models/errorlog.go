// Signalmesh - Webhook Trade Signal Fan-Out Across Decentralized Exchanges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signalmesh

package models

import "time"

// ErrorLevel is the severity of an error-log entry.
type ErrorLevel string

// Error-log severities.
const (
	LevelError   ErrorLevel = "error"
	LevelWarning ErrorLevel = "warning"
)

// Valid reports whether l is a known level.
func (l ErrorLevel) Valid() bool {
	return l == LevelError || l == LevelWarning
}

// ErrorEntry is one persisted structured error event. Entries older than the
// retention horizon (90 days) are removed by a periodic sweep.
type ErrorEntry struct {
	ID          string     `json:"id"`
	Level       ErrorLevel `json:"level"`
	Category    ErrorCode  `json:"category"`
	Message     string     `json:"message"`
	ContextBlob string     `json:"context_blob,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}
