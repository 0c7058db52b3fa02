// Signalmesh - Webhook Trade Signal Fan-Out Across Decentralized Exchanges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signalmesh

package authz

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/signalmesh/internal/auth"
	"github.com/tomtom215/signalmesh/internal/logging"
	"github.com/tomtom215/signalmesh/internal/models"
)

// Middleware enforces operator API authorization decisions.
type Middleware struct {
	enforcer *Enforcer
}

// NewMiddleware creates a new authorization middleware.
func NewMiddleware(enforcer *Enforcer) *Middleware {
	return &Middleware{enforcer: enforcer}
}

// AuthorizeRequest determines the action from the HTTP method and authorizes
// the authenticated subject against the request path. Requests without a
// subject in context (authentication middleware missing or skipped) are
// always denied.
func (m *Middleware) AuthorizeRequest(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subject := auth.SubjectFromContext(r.Context())
		if subject == nil {
			writeDenied(w, http.StatusForbidden, "no authentication context")
			return
		}

		action := methodToAction(r.Method)
		object := r.URL.Path

		allowed, err := m.enforcer.EnforceWithRoles(subject.ID, subject.Roles, object, action)
		if err != nil {
			logging.Error().Err(err).Str("subject", subject.ID).Str("object", object).Msg("Authorization error")
			writeDenied(w, http.StatusInternalServerError, "authorization check failed")
			return
		}

		if !allowed {
			logging.Warn().
				Str("subject", subject.ID).
				Str("object", object).
				Str("action", action).
				Msg("Authorization denied")
			writeDenied(w, http.StatusForbidden, "insufficient permissions")
			return
		}

		next(w, r)
	}
}

// methodToAction maps HTTP methods to Casbin actions.
func methodToAction(method string) string {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return "read"
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return "write"
	case http.MethodDelete:
		return "delete"
	default:
		return "read"
	}
}

// writeDenied renders a denial in the operator API envelope.
func writeDenied(w http.ResponseWriter, status int, message string) {
	code := string(models.CodeInvalidToken)
	if status == http.StatusInternalServerError {
		code = string(models.CodeConfigurationError)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // response write failure leaves nothing to do
	_ = json.NewEncoder(w).Encode(models.APIResponse{
		Status:   "error",
		Error:    &models.APIError{Code: code, Message: message},
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
	})
}
