// Signalmesh - Webhook Trade Signal Fan-Out Across Decentralized Exchanges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signalmesh

package models

// ErrorCode is a stable machine-readable category. Codes are part of the
// external contract: operator tooling maps on them, the error log stores
// them, and 4xx/5xx bodies carry them. Never rename a shipped code.
type ErrorCode string

// Ingress codes.
const (
	CodeInvalidSignal      ErrorCode = "INVALID_SIGNAL"
	CodeInvalidToken       ErrorCode = "INVALID_TOKEN"
	CodeRateLimited        ErrorCode = "RATE_LIMITED"
	CodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
)

// Adapter codes. Timeout, connection, and signature failures are retryable;
// rejections are not. Retryability belongs to the category, not the call site.
const (
	CodeDEXTimeout          ErrorCode = "DEX_TIMEOUT"
	CodeDEXConnectionFailed ErrorCode = "DEX_CONNECTION_FAILED"
	CodeDEXRejected         ErrorCode = "DEX_REJECTED"
	CodeInsufficientFunds   ErrorCode = "INSUFFICIENT_FUNDS"
	CodeNonceError          ErrorCode = "NONCE_ERROR"
	CodeOrderNotFound       ErrorCode = "ORDER_NOT_FOUND"
	CodeDEXSignatureError   ErrorCode = "DEX_SIGNATURE_ERROR"
)

// Execution codes.
const (
	CodeExecutionFailed ErrorCode = "EXECUTION_FAILED"
	CodePartialFill     ErrorCode = "PARTIAL_FILL"
)

// System codes.
const (
	CodeHealthCheckFailed  ErrorCode = "HEALTH_CHECK_FAILED"
	CodeAlertSendFailed    ErrorCode = "ALERT_SEND_FAILED"
	CodeDatabaseError      ErrorCode = "DATABASE_ERROR"
	CodeConfigurationError ErrorCode = "CONFIGURATION_ERROR"
)

// Retryable reports whether a failure in this category may succeed on a
// fresh attempt. The core never auto-retries submissions; retry is expressed
// through monitor-driven reconnection plus subsequent fresh signals.
func (c ErrorCode) Retryable() bool {
	switch c {
	case CodeDEXTimeout, CodeDEXConnectionFailed, CodeDEXSignatureError:
		return true
	}
	return false
}
