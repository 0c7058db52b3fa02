// Signalmesh - Webhook Trade Signal Fan-Out Across Decentralized Exchanges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signalmesh

package dex

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/tomtom215/signalmesh/internal/models"
)

// ErrNotConnected is returned by order operations invoked before Connect
// succeeded or after Disconnect.
var ErrNotConnected = errors.New("adapter is not connected")

// FailureKind is the adapter failure category. Retryability is decided at
// this level: timeout, connection, and signature failures may succeed on a
// fresh attempt; a rejection is the venue's final answer.
type FailureKind string

// Failure categories.
const (
	FailureTimeout    FailureKind = "timeout"
	FailureConnection FailureKind = "connection"
	FailureSignature  FailureKind = "signature"
	FailureRejection  FailureKind = "rejection"
	FailureExecution  FailureKind = "execution"
)

// AdapterError is the uniform failure shape every adapter operation reports.
// Code is the stable external error code; Kind is the coarse category the
// retryability rule hangs off.
type AdapterError struct {
	Adapter string
	Kind    FailureKind
	Code    models.ErrorCode
	Message string
	Err     error
}

func (e *AdapterError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s: %v", e.Adapter, e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", e.Adapter, e.Kind, e.Message)
}

func (e *AdapterError) Unwrap() error { return e.Err }

// Retryable reports whether a fresh attempt could plausibly succeed.
func (e *AdapterError) Retryable() bool { return e.Code.Retryable() }

// NewTimeoutError wraps a deadline expiry as a retryable DEX_TIMEOUT.
func NewTimeoutError(adapter, message string, err error) *AdapterError {
	return &AdapterError{Adapter: adapter, Kind: FailureTimeout, Code: models.CodeDEXTimeout, Message: message, Err: err}
}

// NewConnectionError wraps a transport failure as a retryable
// DEX_CONNECTION_FAILED.
func NewConnectionError(adapter, message string, err error) *AdapterError {
	return &AdapterError{Adapter: adapter, Kind: FailureConnection, Code: models.CodeDEXConnectionFailed, Message: message, Err: err}
}

// NewSignatureError wraps an authentication or signing failure as a
// retryable DEX_SIGNATURE_ERROR. Signature failures are retryable because
// the dominant cause is clock skew or a stale nonce, not a bad key.
func NewSignatureError(adapter, message string, err error) *AdapterError {
	return &AdapterError{Adapter: adapter, Kind: FailureSignature, Code: models.CodeDEXSignatureError, Message: message, Err: err}
}

// NewRejectionError records a venue rejection. code must be one of the
// rejection codes (DEX_REJECTED, INSUFFICIENT_FUNDS, NONCE_ERROR,
// ORDER_NOT_FOUND); anything else is coerced to DEX_REJECTED so a bug in a
// caller cannot mint a retryable rejection.
func NewRejectionError(adapter string, code models.ErrorCode, message string) *AdapterError {
	switch code {
	case models.CodeDEXRejected, models.CodeInsufficientFunds, models.CodeNonceError, models.CodeOrderNotFound:
	default:
		code = models.CodeDEXRejected
	}
	return &AdapterError{Adapter: adapter, Kind: FailureRejection, Code: code, Message: message}
}

// NewExecutionError wraps a failure that fits no category as a
// non-retryable EXECUTION_FAILED.
func NewExecutionError(adapter, message string, err error) *AdapterError {
	return &AdapterError{Adapter: adapter, Kind: FailureExecution, Code: models.CodeExecutionFailed, Message: message, Err: err}
}

// Classify maps an arbitrary error from an adapter operation onto the
// taxonomy. Existing *AdapterError values pass through unchanged; context
// deadline expiry and net timeouts become timeout errors; transport-level
// failures become connection errors; everything else collapses to
// EXECUTION_FAILED.
func Classify(adapter string, err error) *AdapterError {
	if err == nil {
		return nil
	}

	var ae *AdapterError
	if errors.As(err, &ae) {
		return ae
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return NewTimeoutError(adapter, "operation deadline exceeded", err)
	}
	if errors.Is(err, context.Canceled) {
		return NewTimeoutError(adapter, "operation cancelled", err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return NewTimeoutError(adapter, "network timeout", err)
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return NewConnectionError(adapter, "network failure", err)
	}
	if errors.Is(err, ErrNotConnected) {
		return NewConnectionError(adapter, "not connected", err)
	}

	// String-level fallback for transport errors that arrive flattened
	// through http.Client wrapping.
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "connection reset"),
		strings.Contains(msg, "broken pipe"),
		strings.Contains(msg, "no such host"),
		strings.Contains(msg, "eof"):
		return NewConnectionError(adapter, "network failure", err)
	}

	return NewExecutionError(adapter, "unexpected failure", err)
}

// CodeForError returns the stable code for any adapter-path error. Non-nil
// errors that are not *AdapterError classify first.
func CodeForError(adapter string, err error) models.ErrorCode {
	ae := Classify(adapter, err)
	if ae == nil {
		return ""
	}
	return ae.Code
}
