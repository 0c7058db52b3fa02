// Signalmesh - Webhook Trade Signal Fan-Out Across Decentralized Exchanges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signalmesh

package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/tomtom215/signalmesh/internal/logging"
)

type contextKey string

const RequestIDKey contextKey = "request_id"

// maxInboundRequestIDLen caps proxy-supplied request IDs. Anything longer is
// discarded rather than truncated so a given ID is either preserved exactly
// or replaced.
const maxInboundRequestIDLen = 64

// RequestID assigns each request an ID, echoes it in the X-Request-ID
// response header, and seeds the logging context with request and
// correlation IDs so one signal can be traced from webhook receipt through
// dispatch. An upstream proxy's X-Request-ID is honored only if it is short
// and plain ASCII; webhook senders are untrusted and their headers land in
// log fields.
func RequestID(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if !validRequestID(requestID) {
			requestID = uuid.New().String()
		}

		w.Header().Set("X-Request-ID", requestID)

		ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
		ctx = logging.ContextWithRequestID(ctx, requestID)
		ctx = logging.ContextWithNewCorrelationID(ctx)

		next(w, r.WithContext(ctx))
	}
}

// validRequestID accepts IDs of bounded length built from alphanumerics,
// dash, underscore, and dot. Everything else, including the empty string,
// gets a fresh UUID instead.
func validRequestID(id string) bool {
	if id == "" || len(id) > maxInboundRequestIDLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c == '-' || c == '_' || c == '.':
		default:
			return false
		}
	}
	return true
}

// GetRequestID extracts the request ID from context
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}
