// Signalmesh - Webhook Trade Signal Fan-Out Across Decentralized Exchanges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signalmesh

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/tomtom215/signalmesh/internal/models"
	"github.com/tomtom215/signalmesh/internal/store"
)

// Executions lists execution records, newest first.
//
// @Summary List execution records
// @Description Returns execution records in descending created_at order with optional adapter and status filters.
// @Tags Operator
// @Accept json
// @Produce json
// @Param limit query int false "Page size (clamped to configured maximum)" default(20)
// @Param offset query int false "Rows to skip" default(0)
// @Param adapter query string false "Filter by adapter id"
// @Param status query string false "Filter by status" Enums(pending, filled, partial, failed)
// @Success 200 {object} models.APIResponse{data=[]models.ExecutionRecord} "Execution records"
// @Failure 400 {object} models.APIResponse "Invalid filter"
// @Failure 401 {object} models.APIResponse "Authentication required"
// @Security WebhookToken
// @Router /api/v1/executions [get]
func (h *Handler) Executions(w http.ResponseWriter, r *http.Request) {
	if !h.requireStore(w) {
		return
	}

	req := ExecutionsRequest{
		Limit:   h.pageSize(r),
		Offset:  getIntParam(r, "offset", 0),
		Adapter: r.URL.Query().Get("adapter"),
		Status:  r.URL.Query().Get("status"),
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	start := time.Now()
	records, err := h.store.ListExecutions(r.Context(), store.ExecutionFilter{
		AdapterID: req.Adapter,
		Status:    models.ExecutionStatus(req.Status),
		Limit:     req.Limit,
		Offset:    req.Offset,
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, string(models.CodeDatabaseError), "Failed to list executions", err)
		return
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   records,
		Metadata: models.Metadata{
			Timestamp:   time.Now().UTC(),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	})
}

// Errors lists error-log entries, newest first.
//
// @Summary List error-log entries
// @Description Returns error-log entries in descending created_at order with optional level and category filters. Context blobs are stored redacted and truncated.
// @Tags Operator
// @Accept json
// @Produce json
// @Param limit query int false "Page size (clamped to configured maximum)" default(20)
// @Param offset query int false "Rows to skip" default(0)
// @Param level query string false "Filter by level" Enums(error, warning)
// @Param category query string false "Filter by stable error code"
// @Success 200 {object} models.APIResponse{data=[]models.ErrorEntry} "Error-log entries"
// @Failure 400 {object} models.APIResponse "Invalid filter"
// @Failure 401 {object} models.APIResponse "Authentication required"
// @Security WebhookToken
// @Router /api/v1/errors [get]
func (h *Handler) Errors(w http.ResponseWriter, r *http.Request) {
	if !h.requireStore(w) {
		return
	}

	req := ErrorsRequest{
		Limit:    h.pageSize(r),
		Offset:   getIntParam(r, "offset", 0),
		Level:    r.URL.Query().Get("level"),
		Category: r.URL.Query().Get("category"),
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	start := time.Now()
	entries, err := h.store.ListErrors(r.Context(), store.ErrorFilter{
		Level:    models.ErrorLevel(req.Level),
		Category: req.Category,
		Limit:    req.Limit,
		Offset:   req.Offset,
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, string(models.CodeDatabaseError), "Failed to list errors", err)
		return
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   entries,
		Metadata: models.Metadata{
			Timestamp:   time.Now().UTC(),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	})
}

// SignalDetail returns one signal with its execution trail.
//
// @Summary Get a signal and its executions
// @Description Looks a signal up by fingerprint and returns it together with every execution record it produced.
// @Tags Operator
// @Accept json
// @Produce json
// @Param fingerprint path string true "Signal fingerprint (16 hex chars)"
// @Success 200 {object} models.APIResponse{data=SignalDetailResponse} "Signal with executions"
// @Failure 404 {object} models.APIResponse "Unknown fingerprint"
// @Failure 401 {object} models.APIResponse "Authentication required"
// @Security WebhookToken
// @Router /api/v1/signals/{fingerprint} [get]
func (h *Handler) SignalDetail(w http.ResponseWriter, r *http.Request) {
	if !h.requireStore(w) {
		return
	}

	fingerprint := r.PathValue("fingerprint")
	if fingerprint == "" {
		respondError(w, http.StatusBadRequest, string(models.CodeInvalidSignal), "Fingerprint is required", nil)
		return
	}

	start := time.Now()
	signal, err := h.store.GetSignal(r.Context(), fingerprint)
	if err != nil {
		if errors.Is(err, store.ErrSignalNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "Signal not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, string(models.CodeDatabaseError), "Failed to load signal", err)
		return
	}

	executions, err := h.store.ExecutionsForSignal(r.Context(), fingerprint)
	if err != nil {
		respondError(w, http.StatusInternalServerError, string(models.CodeDatabaseError), "Failed to load executions", err)
		return
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: SignalDetailResponse{
			Signal:     signal,
			Executions: executions,
		},
		Metadata: models.Metadata{
			Timestamp:   time.Now().UTC(),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	})
}

// Stats returns the counters snapshot for dashboards.
//
// @Summary Get store and endpoint statistics
// @Description Returns signal and execution counters (by status, by adapter), error counts by level, process uptime, and per-endpoint request latency percentiles.
// @Tags Operator
// @Accept json
// @Produce json
// @Success 200 {object} models.APIResponse{data=StatsResponse} "Counters snapshot"
// @Failure 401 {object} models.APIResponse "Authentication required"
// @Security WebhookToken
// @Router /api/v1/stats [get]
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	if !h.requireStore(w) {
		return
	}

	start := time.Now()
	stats, err := h.store.GetStats(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, string(models.CodeDatabaseError), "Failed to collect statistics", err)
		return
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: StatsResponse{
			Stats:         stats,
			UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
			Endpoints:     h.perfMon.Stats(),
		},
		Metadata: models.Metadata{
			Timestamp:   time.Now().UTC(),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	})
}
