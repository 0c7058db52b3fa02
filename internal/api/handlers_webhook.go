// Signalmesh - Webhook Trade Signal Fan-Out Across Decentralized Exchanges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signalmesh

package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/signalmesh/internal/dedup"
	"github.com/tomtom215/signalmesh/internal/logging"
	"github.com/tomtom215/signalmesh/internal/metrics"
	"github.com/tomtom215/signalmesh/internal/models"
	"github.com/tomtom215/signalmesh/internal/store"
	"github.com/tomtom215/signalmesh/internal/validation"
)

// maxSignalBodyBytes bounds the webhook request body. Trade signals are three
// small fields; anything larger is garbage or abuse.
const maxSignalBodyBytes = 64 << 10

// rateKeySystem is the shared rate-limit bucket for header-token callers.
const rateKeySystem = "system"

// rateKeyAnonymous is the shared rate-limit bucket for token-less test-mode
// callers.
const rateKeyAnonymous = "anonymous"

// Webhook handles incoming trade signals.
//
// The gate order is fixed and every gate short-circuits: draining check,
// authentication, parse and validation, fingerprinting, duplicate detection,
// rate limiting, persistence, then fan-out. Duplicates are answered before
// the rate limiter so replays from charting platforms never consume budget,
// and a dispatch failure of any kind still produces a 200 with a failed
// envelope rather than a 5xx.
//
// @Summary Ingest a trade signal
// @Description Authenticates, validates, deduplicates, and fans the signal out to every connected DEX adapter in parallel. Duplicate signals within the dedup window return an idempotent echo. In test mode the response is a dry-run envelope and no live orders are placed.
// @Tags Webhook
// @Accept json
// @Produce json
// @Param token query string false "Per-user webhook token (preferred)"
// @Param X-Webhook-Token header string false "Shared system token"
// @Param signal body models.SignalPayload true "Trade signal"
// @Success 200 {object} models.ProcessingResponse "Dispatch result, idempotent duplicate echo, or dry-run envelope"
// @Failure 400 {object} models.WebhookError "Malformed or invalid signal"
// @Failure 401 {object} models.WebhookError "Missing or invalid token"
// @Failure 429 {object} models.WebhookError "Rate limit exceeded; Retry-After header set"
// @Failure 503 {object} models.WebhookError "Service draining for shutdown"
// @Router /webhook [post]
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	h.handleSignal(w, r, "")
}

// WebhookPathToken handles the path-token variant for platforms that cannot
// set query strings or headers on outbound webhooks.
//
// @Summary Ingest a trade signal (path token)
// @Description Identical to POST /webhook with the per-user token carried in the path instead of the query string.
// @Tags Webhook
// @Accept json
// @Produce json
// @Param token path string true "Per-user webhook token"
// @Param signal body models.SignalPayload true "Trade signal"
// @Success 200 {object} models.ProcessingResponse
// @Failure 400 {object} models.WebhookError
// @Failure 401 {object} models.WebhookError
// @Failure 429 {object} models.WebhookError
// @Failure 503 {object} models.WebhookError
// @Router /webhook/{token} [post]
func (h *Handler) WebhookPathToken(w http.ResponseWriter, r *http.Request) {
	h.handleSignal(w, r, r.PathValue("token"))
}

// handleSignal runs the ingress pipeline for one webhook request.
//
//nolint:gocyclo // Complexity is inherent to the fixed gate order
func (h *Handler) handleSignal(w http.ResponseWriter, r *http.Request, pathToken string) {
	received := time.Now().UTC()

	// Draining: reject before touching dedup, limiter, or store so that
	// shutdown never mutates in-memory windows.
	if h.coordinator != nil && h.coordinator.Draining() {
		metrics.RecordSignalReceived("draining")
		respondWebhookError(w, http.StatusServiceUnavailable, models.CodeServiceUnavailable, "Service is shutting down", nil)
		return
	}

	// Authenticate before reading the body.
	rateKey, userID, ok := h.authenticateSignal(r, pathToken)
	if !ok {
		metrics.RecordSignalReceived("unauthorized")
		logging.Ctx(r.Context()).Warn().
			Str("remote_addr", r.RemoteAddr).
			Msg("Webhook rejected: invalid token")
		respondWebhookError(w, http.StatusUnauthorized, models.CodeInvalidToken, "Invalid or missing webhook token", nil)
		return
	}

	// Parse and validate.
	body, err := io.ReadAll(io.LimitReader(r.Body, maxSignalBodyBytes))
	if err != nil {
		h.rejectInvalidSignal(r.Context(), w, body, "Failed to read request body")
		return
	}

	var payload models.SignalPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		h.rejectInvalidSignal(r.Context(), w, body, "Malformed JSON payload")
		return
	}
	payload = payload.Normalize()
	if verr := validation.ValidateStruct(&payload); verr != nil {
		h.rejectInvalidSignal(r.Context(), w, body, verr.ToAPIError().Message)
		return
	}

	// Fingerprint, then duplicate check. Duplicates consume no rate budget
	// and are never re-persisted.
	fingerprint := models.Fingerprint(payload, received)

	if h.dedup != nil {
		window := h.dedupWindow()
		first, err := h.dedup.CheckAndStore(r.Context(), &dedup.SeenEntry{
			Fingerprint: fingerprint,
			UserID:      userID,
			FirstSeen:   received,
			ExpiresAt:   received.Add(window),
		}, window)
		if err != nil {
			// Tracker failure fails open: the unique fingerprint column
			// catches the duplicate at persist time.
			logging.Ctx(r.Context()).Error().Err(err).
				Str("fingerprint", fingerprint).
				Msg("Dedup tracker failure")
		} else if !first {
			metrics.RecordSignalReceived("duplicate")
			logging.Ctx(r.Context()).Info().
				Str("fingerprint", fingerprint).
				Msg("Duplicate signal ignored")
			respondRaw(w, http.StatusOK, models.NewDuplicateEcho(fingerprint, time.Now().UTC()))
			return
		}
	}

	// Rate limit per resolved key.
	if h.limiter != nil {
		decision := h.limiter.Allow(rateKey)
		if !decision.Allowed {
			scope := "user"
			if rateKey == rateKeySystem {
				scope = rateKeySystem
			}
			metrics.RecordSignalReceived("rate_limited")
			metrics.RecordRateLimitRejection(scope)
			w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(decision.RetryAfter)))
			respondWebhookError(w, http.StatusTooManyRequests, models.CodeRateLimited, "Rate limit exceeded", &fingerprint)
			return
		}
	}

	// Persist. A unique-constraint violation here means a concurrent request
	// won the race for this fingerprint; answer exactly as the dedup gate
	// would have.
	if h.store != nil {
		sig := &models.Signal{
			Fingerprint: fingerprint,
			Payload:     payload.CanonicalJSON(),
			UserID:      userID,
			ReceivedAt:  received,
		}
		if err := h.store.SaveSignal(r.Context(), sig); err != nil {
			if errors.Is(err, store.ErrDuplicateSignal) {
				metrics.RecordSignalReceived("duplicate")
				respondRaw(w, http.StatusOK, models.NewDuplicateEcho(fingerprint, time.Now().UTC()))
				return
			}
			logging.Ctx(r.Context()).Error().Err(err).
				Str("fingerprint", fingerprint).
				Msg("Failed to persist signal")
			respondWebhookError(w, http.StatusInternalServerError, models.CodeDatabaseError, "Failed to persist signal", &fingerprint)
			return
		}
	}

	metrics.RecordSignalReceived("accepted")
	metrics.TrackSignalInFlight(true)
	defer metrics.TrackSignalInFlight(false)

	// Track the dispatch so shutdown waits for it, then fan out.
	if h.coordinator != nil {
		release := h.coordinator.Track(fingerprint)
		defer release()
	}

	response := h.dispatch(r.Context(), payload, fingerprint)

	if h.store != nil {
		if err := h.store.MarkProcessed(r.Context(), fingerprint); err != nil {
			logging.Ctx(r.Context()).Error().Err(err).
				Str("fingerprint", fingerprint).
				Msg("Failed to mark signal processed")
		}
	}

	metrics.RecordSignalProcessing(time.Since(received))
	logging.Ctx(r.Context()).Info().
		Str("fingerprint", fingerprint).
		Str("overall_status", string(response.OverallStatus)).
		Int("dex_count", response.TotalDEXCount).
		Int64("total_latency_ms", response.TotalLatencyMS).
		Msg("Signal dispatched")

	if h.testMode() {
		respondRaw(w, http.StatusOK, h.dryRunEnvelope(payload, response))
		return
	}
	respondRaw(w, http.StatusOK, response)
}

// authenticateSignal resolves the webhook caller. The per-user token (path or
// query) is checked against the system secret first in constant time, then
// verified as a user JWT; the X-Webhook-Token header only ever carries the
// system secret. Returns the rate-limit key, the resolved user id (empty for
// system callers), and whether authentication succeeded.
func (h *Handler) authenticateSignal(r *http.Request, pathToken string) (rateKey, userID string, ok bool) {
	// A deployment with no verifiers at all is only valid in test mode
	// (config validation enforces that); mock-only dry runs then accept
	// unauthenticated signals. A live deployment missing its verifiers
	// stays closed.
	if h.systemToken == nil && h.userTokens == nil {
		if h.testMode() {
			return rateKeyAnonymous, "", true
		}
		return "", "", false
	}

	token := pathToken
	if token == "" {
		token = r.URL.Query().Get("token")
	}

	if token != "" {
		if h.systemToken.Verify(token) {
			return rateKeySystem, "", true
		}
		if h.userTokens != nil {
			if uid, err := h.userTokens.VerifyUserToken(token); err == nil {
				return "user:" + uid, uid, true
			}
		}
		return "", "", false
	}

	if h.systemToken.Verify(r.Header.Get("X-Webhook-Token")) {
		return rateKeySystem, "", true
	}
	return "", "", false
}

// rejectInvalidSignal answers 400 and records the raw body in the error log
// at warning level, redacted and truncated.
func (h *Handler) rejectInvalidSignal(ctx context.Context, w http.ResponseWriter, body []byte, message string) {
	metrics.RecordSignalReceived("invalid")
	logging.Ctx(ctx).Warn().
		Str("reason", message).
		Str("body", logging.SanitizeBody(string(body))).
		Msg("Invalid signal rejected")
	if h.errorLog != nil {
		h.errorLog.Record(models.LevelWarning, models.CodeInvalidSignal, message, logging.SanitizeBody(string(body)))
	}
	respondWebhookError(w, http.StatusBadRequest, models.CodeInvalidSignal, message, nil)
}

// dispatch runs the processor and converts any escape (nil response, panic)
// into a synthesized failed envelope. The webhook endpoint never turns a
// dispatch problem into a 5xx.
func (h *Handler) dispatch(ctx context.Context, payload models.SignalPayload, fingerprint string) (response *models.ProcessingResponse) {
	defer func() {
		if rec := recover(); rec != nil {
			logging.Ctx(ctx).Error().
				Interface("panic", rec).
				Str("fingerprint", fingerprint).
				Msg("Dispatch panicked")
			if h.errorLog != nil {
				h.errorLog.Record(models.LevelError, models.CodeExecutionFailed, "dispatch panic", fingerprint)
			}
			response = models.NewFailedResponse(fingerprint, time.Now().UTC())
		}
	}()

	if h.processor == nil {
		return models.NewFailedResponse(fingerprint, time.Now().UTC())
	}
	response = h.processor.Process(ctx, payload, fingerprint)
	if response == nil {
		response = models.NewFailedResponse(fingerprint, time.Now().UTC())
	}
	return response
}

// dryRunEnvelope reshapes a test-mode dispatch into the dry-run contract.
// The processor still ran against test-only adapters, so each entry carries
// the simulated outcome for that venue.
func (h *Handler) dryRunEnvelope(payload models.SignalPayload, response *models.ProcessingResponse) *models.DryRunResponse {
	entries := make([]models.DryRunEntry, 0, len(response.Results))
	for _, result := range response.Results {
		entries = append(entries, models.DryRunEntry{
			DEX:             result.DEXID,
			Symbol:          payload.Symbol,
			Side:            payload.Side,
			Size:            payload.Size,
			SimulatedResult: result.Status,
		})
	}
	return &models.DryRunResponse{
		Status:            "dry_run",
		SignalID:          response.SignalID,
		Message:           "Test mode active: no live orders were placed",
		WouldHaveExecuted: entries,
		Timestamp:         response.Timestamp,
	}
}

func (h *Handler) testMode() bool {
	return h.config != nil && h.config.Webhook.TestMode
}

func (h *Handler) dedupWindow() time.Duration {
	if h.config != nil {
		if w := h.config.Dedup.Window(); w > 0 {
			return w
		}
	}
	return time.Minute
}

// retryAfterSeconds renders a retry hint in whole seconds, rounded up so the
// client never retries early. Minimum is 1: a zero Retry-After reads as
// "retry immediately" and defeats the limiter.
func retryAfterSeconds(d time.Duration) int {
	if d <= 0 {
		return 1
	}
	seconds := int((d + time.Second - 1) / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	return seconds
}
