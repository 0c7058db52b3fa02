// Signalmesh - Webhook Trade Signal Fan-Out Across Decentralized Exchanges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signalmesh

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/signalmesh/internal/models"
)

// Health handles the public composite health check.
//
// Always answers 200: degraded and offline are conveyed in the body status
// so monitoring tools can read adapter detail instead of guessing from a
// status code. The composite view probes every adapter in parallel within
// the configured probe timeout.
//
// @Summary Get composite health status
// @Description Returns overall status plus per-adapter health: all adapters healthy is healthy, all offline is offline, any mix is degraded. Unauthenticated.
// @Tags Core
// @Accept json
// @Produce json
// @Success 200 {object} models.CompositeHealth "Composite health snapshot"
// @Router /health [get]
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.health == nil {
		respondRaw(w, http.StatusOK, models.CompositeHealth{
			Status:        models.HealthHealthy,
			TestMode:      h.testMode(),
			UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
			DEXStatus:     map[string]models.AdapterHealth{},
			Timestamp:     time.Now().UTC(),
		})
		return
	}

	respondRaw(w, http.StatusOK, h.health.Snapshot(r.Context()))
}

// HealthLive handles liveness probe requests (Kubernetes-style)
// Returns 200 OK if the process is alive, regardless of dependencies
//
// @Summary Liveness probe
// @Description Returns 200 OK whenever the process is alive, regardless of adapter or store state.
// @Tags Core
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{} "Service is alive"
// @Router /healthz [get]
func (h *Handler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	respondRaw(w, http.StatusOK, map[string]interface{}{
		"alive":          true,
		"uptime_seconds": int64(time.Since(h.startTime).Seconds()),
	})
}
