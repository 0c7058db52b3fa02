// Signalmesh - Webhook Trade Signal Fan-Out Across Decentralized Exchanges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signalmesh

package api

import (
	"github.com/tomtom215/signalmesh/internal/middleware"
	"github.com/tomtom215/signalmesh/internal/models"
	"github.com/tomtom215/signalmesh/internal/store"
)

// ExecutionsRequest carries the validated query of the executions listing.
// Limit is already clamped to the configured page bounds before validation.
type ExecutionsRequest struct {
	Limit   int    `validate:"min=1,max=1000"`
	Offset  int    `validate:"min=0"`
	Adapter string `validate:"omitempty,max=128"`
	Status  string `validate:"omitempty,oneof=pending filled partial failed"`
}

// ErrorsRequest carries the validated query of the error-log listing.
type ErrorsRequest struct {
	Limit    int    `validate:"min=1,max=1000"`
	Offset   int    `validate:"min=0"`
	Level    string `validate:"omitempty,oneof=error warning"`
	Category string `validate:"omitempty,max=128"`
}

// SignalDetailResponse joins one signal with its full execution trail.
type SignalDetailResponse struct {
	Signal     *models.Signal           `json:"signal"`
	Executions []models.ExecutionRecord `json:"executions"`
}

// StatsResponse is the operator stats payload: store counters plus process
// uptime and per-endpoint request latency.
type StatsResponse struct {
	*store.Stats
	UptimeSeconds int64                      `json:"uptime_seconds"`
	Endpoints     []middleware.EndpointStats `json:"endpoints,omitempty"`
}
