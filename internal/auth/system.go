// Signalmesh - Webhook Trade Signal Fan-Out Across Decentralized Exchanges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signalmesh

package auth

import (
	"crypto/subtle"
	"errors"
)

// Standard authentication errors.
var (
	// ErrNoCredentials indicates no token was presented.
	ErrNoCredentials = errors.New("no credentials provided")

	// ErrInvalidCredentials indicates the presented token did not verify.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// SystemToken verifies the shared webhook secret.
// Comparison is constant-time to prevent timing attacks.
type SystemToken struct {
	token []byte
}

// NewSystemToken creates a verifier for the configured shared secret.
// Returns an error when the secret is empty so a misconfigured deployment
// can never silently accept unauthenticated signals.
func NewSystemToken(token string) (*SystemToken, error) {
	if token == "" {
		return nil, errors.New("webhook token is required but was empty")
	}
	return &SystemToken{token: []byte(token)}, nil
}

// Verify reports whether the candidate matches the configured secret.
// Always runs in constant time relative to the configured token length.
func (s *SystemToken) Verify(candidate string) bool {
	if s == nil || candidate == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(candidate), s.token) == 1
}
