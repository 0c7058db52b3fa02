// Signalmesh - Webhook Trade Signal Fan-Out Across Decentralized Exchanges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signalmesh

package auth

import "context"

// Subject represents the authenticated caller of an operator API request.
type Subject struct {
	// ID is "system" for the shared-token path, otherwise the user id
	// resolved from a per-user token.
	ID string `json:"id"`

	// Roles feed the Casbin enforcer.
	Roles []string `json:"roles,omitempty"`
}

type subjectKey struct{}

// ContextWithSubject stores the authenticated subject in the context.
func ContextWithSubject(ctx context.Context, subject *Subject) context.Context {
	return context.WithValue(ctx, subjectKey{}, subject)
}

// SubjectFromContext retrieves the authenticated subject, or nil when the
// request did not pass authentication middleware.
func SubjectFromContext(ctx context.Context) *Subject {
	if s, ok := ctx.Value(subjectKey{}).(*Subject); ok {
		return s
	}
	return nil
}
