// Signalmesh - Webhook Trade Signal Fan-Out Across Decentralized Exchanges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signalmesh

package auth

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/hkdf"
)

// signingContext binds derived keys to this use. Rotating the context string
// invalidates every outstanding user token without touching the master secret.
const signingContext = "signalmesh-user-webhook-tokens"

// TokenVerifier resolves a presented webhook token to a user id.
//
// The collaborator that mints webhook URLs owns the full token lifecycle;
// the core only needs this one-way mapping at ingress. The default
// implementation is UserTokens below.
type TokenVerifier interface {
	VerifyUserToken(token string) (userID string, err error)
}

// UserTokenClaims are the JWT claims carried by a per-user webhook token.
// Subject is the user id. Tokens may be non-expiring (charting platforms
// store the webhook URL once and never refresh it).
type UserTokenClaims struct {
	jwt.RegisteredClaims
}

// UserTokens issues and verifies per-user webhook tokens.
//
// Tokens are HS256 JWTs. The signing key is derived from the configured
// master secret with HKDF-SHA256 so the secret itself never signs anything
// directly and other derived uses cannot forge webhook tokens.
type UserTokens struct {
	signingKey []byte
}

// NewUserTokens derives the signing key from the master secret.
// The secret must carry at least 16 bytes of material.
func NewUserTokens(masterSecret string) (*UserTokens, error) {
	if len(masterSecret) < 16 {
		return nil, errors.New("user token secret must be at least 16 bytes")
	}

	key, err := deriveKey([]byte(masterSecret), []byte(signingContext), 32)
	if err != nil {
		return nil, fmt.Errorf("derive signing key: %w", err)
	}

	return &UserTokens{signingKey: key}, nil
}

// deriveKey derives a key using HKDF-SHA256.
func deriveKey(secret, context []byte, keyLen int) ([]byte, error) {
	reader := hkdf.New(sha256.New, secret, nil, context)
	key := make([]byte, keyLen)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, err
	}
	return key, nil
}

// Issue creates a signed webhook token for the user. ttl <= 0 issues a
// non-expiring token.
func (u *UserTokens) Issue(userID string, ttl time.Duration) (string, error) {
	if userID == "" {
		return "", errors.New("user id is required")
	}

	now := time.Now()
	claims := &UserTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  userID,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(u.signingKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// VerifyUserToken validates a presented token and returns the user id.
//
// Rejects tokens signed with anything but HMAC to prevent algorithm
// confusion, expired tokens, and tokens without a subject.
func (u *UserTokens) VerifyUserToken(tokenString string) (string, error) {
	if tokenString == "" {
		return "", ErrNoCredentials
	}

	token, err := jwt.ParseWithClaims(tokenString, &UserTokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return u.signingKey, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidCredentials, err.Error())
	}

	claims, ok := token.Claims.(*UserTokenClaims)
	if !ok || !token.Valid {
		return "", ErrInvalidCredentials
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: token has no subject", ErrInvalidCredentials)
	}

	return claims.Subject, nil
}
