// Signalmesh - Webhook Trade Signal Fan-Out Across Decentralized Exchanges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signalmesh

package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/tomtom215/signalmesh/internal/authz"
	"github.com/tomtom215/signalmesh/internal/dex"
	"github.com/tomtom215/signalmesh/internal/models"
)

// newRouterEnv builds the full Chi route tree over a real handler fixture,
// RBAC enforcer included.
func newRouterEnv(t *testing.T, opts webhookEnvOptions) (*webhookEnv, http.Handler) {
	t.Helper()
	env := newWebhookEnv(t, opts)

	enforcer, err := authz.NewEnforcer(authz.DefaultEnforcerConfig())
	if err != nil {
		t.Fatalf("NewEnforcer failed: %v", err)
	}
	router := NewRouter(env.handler, authz.NewMiddleware(enforcer))
	return env, router.SetupChi()
}

func postMux(mux http.Handler, target string, headerToken string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if headerToken != "" {
		req.Header.Set("X-Webhook-Token", headerToken)
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func getMux(mux http.Handler, target string, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func TestRouter_SignalLifecycle(t *testing.T) {
	waitClearOfMinuteBoundary(t)
	env, mux := newRouterEnv(t, webhookEnvOptions{})

	// Fresh signal: full fan-out across both venues.
	first := postMux(mux, "/webhook?token="+testSystemToken, "", signalBody("ETH-PERP", "buy", "0.5"))
	if first.Code != http.StatusOK {
		t.Fatalf("First signal: expected 200, got %d (body: %s)", first.Code, first.Body.String())
	}
	resp := decodeProcessing(t, first)
	if resp.OverallStatus != models.OverallSuccess || resp.SuccessfulCount != 2 {
		t.Fatalf("First signal: expected full success, got %+v", resp)
	}

	// Identical replay: idempotent echo, nothing re-persisted.
	replay := postMux(mux, "/webhook?token="+testSystemToken, "", signalBody("ETH-PERP", "buy", "0.5"))
	if replay.Code != http.StatusOK {
		t.Fatalf("Replay: expected 200, got %d", replay.Code)
	}
	echo := decodeProcessing(t, replay)
	if echo.TotalDEXCount != 0 || len(echo.Results) != 0 {
		t.Errorf("Replay: expected idempotent echo, got %+v", echo)
	}

	// A different signal dispatches in full again.
	second := postMux(mux, "/webhook?token="+testSystemToken, "", signalBody("BTC-PERP", "sell", "1"))
	if second.Code != http.StatusOK {
		t.Fatalf("Second signal: expected 200, got %d", second.Code)
	}

	if n := signalCount(t, env.db); n != 2 {
		t.Errorf("Expected 2 signal rows, got %d", n)
	}
	for _, fp := range []string{resp.SignalID, decodeProcessing(t, second).SignalID} {
		execs, err := env.db.ExecutionsForSignal(context.Background(), fp)
		if err != nil {
			t.Fatalf("ExecutionsForSignal(%s) failed: %v", fp, err)
		}
		if len(execs) != 2 {
			t.Errorf("Signal %s: expected 2 execution rows, got %d", fp, len(execs))
		}
	}
}

func TestRouter_WebhookPathToken(t *testing.T) {
	env, mux := newRouterEnv(t, webhookEnvOptions{})

	w := postMux(mux, "/webhook/"+env.user1, "", signalBody("SOL-PERP", "buy", "2"))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 via path token, got %d (body: %s)", w.Code, w.Body.String())
	}
	resp := decodeProcessing(t, w)
	sig, err := env.db.GetSignal(context.Background(), resp.SignalID)
	if err != nil {
		t.Fatalf("GetSignal failed: %v", err)
	}
	if sig.UserID != "user-1" {
		t.Errorf("Expected user-1 attribution through the path token, got %q", sig.UserID)
	}
}

func TestRouter_WebhookRateLimit(t *testing.T) {
	_, mux := newRouterEnv(t, webhookEnvOptions{rateLimit: 3})

	for i, sym := range []string{"ETH-PERP", "BTC-PERP", "SOL-PERP"} {
		w := postMux(mux, "/webhook?token="+testSystemToken, "", signalBody(sym, "buy", "1"))
		if w.Code != http.StatusOK {
			t.Fatalf("Signal %d: expected 200, got %d", i+1, w.Code)
		}
	}

	w := postMux(mux, "/webhook?token="+testSystemToken, "", signalBody("AVAX-PERP", "buy", "1"))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("Expected 429 on the fourth signal, got %d", w.Code)
	}
	retryAfter, err := strconv.Atoi(w.Header().Get("Retry-After"))
	if err != nil || retryAfter < 1 || retryAfter > 60 {
		t.Errorf("Expected Retry-After in [1,60], got %q", w.Header().Get("Retry-After"))
	}
}

func TestRouter_WebhookAdapterMix(t *testing.T) {
	_, mux := newRouterEnv(t, webhookEnvOptions{
		adapters: []dex.Adapter{
			connectedMock(t, "mock-a", 0, 0),
			connectedMock(t, "mock-b", 1.0, 0), // always rejects
			connectedMock(t, "mock-c", 0, 0),
		},
	})

	w := postMux(mux, "/webhook?token="+testSystemToken, "", signalBody("ETH-PERP", "buy", "0.5"))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	resp := decodeProcessing(t, w)
	if resp.OverallStatus != models.OverallPartial || resp.SuccessfulCount != 2 || resp.FailedCount != 1 {
		t.Errorf("Expected partial 2/1, got %+v", resp)
	}
}

func TestRouter_ShutdownDrain(t *testing.T) {
	env, mux := newRouterEnv(t, webhookEnvOptions{
		adapters: []dex.Adapter{
			connectedMock(t, "mock-slow", 0, 300*time.Millisecond),
		},
	})

	inFlight := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		inFlight <- postMux(mux, "/webhook?token="+testSystemToken, "", signalBody("ETH-PERP", "buy", "0.5"))
	}()

	// Let the slow dispatch get past the draining gate, then initiate
	// shutdown while it is still running.
	time.Sleep(100 * time.Millisecond)
	env.coord.Initiate()

	rejected := postMux(mux, "/webhook?token="+testSystemToken, "", signalBody("BTC-PERP", "sell", "1"))
	if rejected.Code != http.StatusServiceUnavailable {
		t.Errorf("New signal during drain: expected 503, got %d", rejected.Code)
	}
	werr := decodeWebhookError(t, rejected)
	if werr.Code != models.CodeServiceUnavailable {
		t.Errorf("Expected SERVICE_UNAVAILABLE, got %s", werr.Code)
	}

	// The in-flight dispatch still completes with a full response.
	original := <-inFlight
	if original.Code != http.StatusOK {
		t.Fatalf("In-flight signal: expected 200, got %d", original.Code)
	}
	resp := decodeProcessing(t, original)
	if resp.OverallStatus != models.OverallSuccess || len(resp.Results) != 1 {
		t.Errorf("In-flight signal: expected full dispatch, got %+v", resp)
	}

	if !env.coord.AwaitCompletion(2 * time.Second) {
		t.Error("Expected drain to complete within grace period")
	}
}

func TestRouter_OperatorRBAC(t *testing.T) {
	env, mux := newRouterEnv(t, webhookEnvOptions{noAdapters: true})

	t.Run("unauthenticated", func(t *testing.T) {
		w := getMux(mux, "/api/v1/executions", "")
		if w.Code != http.StatusUnauthorized {
			t.Errorf("Expected 401, got %d", w.Code)
		}
	})

	t.Run("system token is admin", func(t *testing.T) {
		for _, target := range []string{"/api/v1/executions", "/api/v1/errors", "/api/v1/stats"} {
			w := getMux(mux, target, testSystemToken)
			if w.Code != http.StatusOK {
				t.Errorf("%s: expected 200 for system token, got %d (body: %s)", target, w.Code, w.Body.String())
			}
		}
	})

	t.Run("user token is viewer", func(t *testing.T) {
		for _, target := range []string{"/api/v1/executions", "/api/v1/stats"} {
			w := getMux(mux, target, env.user1)
			if w.Code != http.StatusOK {
				t.Errorf("%s: expected 200 for viewer, got %d", target, w.Code)
			}
		}
		// The error log is admin-only.
		w := getMux(mux, "/api/v1/errors", env.user1)
		if w.Code != http.StatusForbidden {
			t.Errorf("/api/v1/errors: expected 403 for viewer, got %d", w.Code)
		}
	})
}

func TestRouter_SignalDetailPathParam(t *testing.T) {
	env, mux := newRouterEnv(t, webhookEnvOptions{noAdapters: true})
	seedOperatorData(t, env.db)

	w := getMux(mux, "/api/v1/signals/op-fp-2", testSystemToken)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d (body: %s)", w.Code, w.Body.String())
	}
	// Viewer may read signal detail too.
	w = getMux(mux, "/api/v1/signals/op-fp-2", env.user1)
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 for viewer, got %d", w.Code)
	}

	w = getMux(mux, "/api/v1/signals/no-such", testSystemToken)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown fingerprint, got %d", w.Code)
	}
}

func TestRouter_HealthEndpoints(t *testing.T) {
	_, mux := newRouterEnv(t, webhookEnvOptions{})

	for _, target := range []string{"/health", "/healthz"} {
		w := getMux(mux, target, "")
		if w.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", target, w.Code)
		}
	}
}

func TestRouter_MetricsEndpoint(t *testing.T) {
	_, mux := newRouterEnv(t, webhookEnvOptions{noAdapters: true})

	w := getMux(mux, "/metrics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 for /metrics, got %d", w.Code)
	}
	if w.Header().Get("Content-Type") == "" {
		t.Error("Expected a Content-Type on the metrics exposition")
	}
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	_, mux := newRouterEnv(t, webhookEnvOptions{noAdapters: true})

	tests := []struct {
		method string
		target string
	}{
		{http.MethodGet, "/webhook"},
		{http.MethodPost, "/health"},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.target, nil)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)
		if w.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s %s: expected 405, got %d", tt.method, tt.target, w.Code)
		}
	}
}

func TestRouter_CORSPreflight(t *testing.T) {
	_, mux := newRouterEnv(t, webhookEnvOptions{noAdapters: true})

	req := httptest.NewRequest(http.MethodOptions, "/webhook", nil)
	req.Header.Set("Origin", "https://charts.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	// The fixture config allows any origin.
	if got := w.Header().Get("Access-Control-Allow-Origin"); got == "" {
		t.Error("Expected a CORS grant on preflight")
	}
}

func TestRouter_SecurityHeadersOnOperatorRoutes(t *testing.T) {
	_, mux := newRouterEnv(t, webhookEnvOptions{noAdapters: true})

	w := getMux(mux, "/api/v1/stats", testSystemToken)
	if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("Expected nosniff on operator routes, got %q", got)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("Expected X-Request-ID on every response")
	}
}
