// Signalmesh - Webhook Trade Signal Fan-Out Across Decentralized Exchanges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signalmesh

package logging

import (
	"fmt"
	"regexp"
	"strings"
)

// MaxLoggedBodyBytes is the largest request/response body fragment the error
// log will carry verbatim. Longer bodies are cut and marked.
const MaxLoggedBodyBytes = 1024

// Redaction is applied where log records and error-log context blobs are
// constructed, never retroactively in a writer. Wallet addresses (0x-hex)
// are deliberately left intact: operators correlate executions by address,
// and an address is public information on-chain anyway.
var (
	// apiKeyPattern matches api-key style assignments in JSON, query
	// strings, headers, and shell-ish contexts. The whole value collapses
	// to *** (an API key fragment is still a usable credential prefix).
	apiKeyPattern = regexp.MustCompile(`(?i)\b(api[_-]?key)(["']?\s*[:=]\s*["']?)([A-Za-z0-9._~+/-]{6,})`)

	// secretPattern matches token/password/secret/passphrase assignments.
	// The value keeps its first four characters for correlation.
	secretPattern = regexp.MustCompile(`(?i)\b(token|password|passwd|passphrase|secret)(["']?\s*[:=]\s*["']?)([A-Za-z0-9._~+/-]{5,})`)

	// bearerPattern matches Authorization bearer values.
	bearerPattern = regexp.MustCompile(`(?i)\b(bearer\s+)([A-Za-z0-9._~+/-]{5,}=*)`)

	// secretParamPattern matches query parameters whose name ends in a
	// secret-ish suffix (token, key, secret, password).
	secretParamPattern = regexp.MustCompile(`(?i)([?&][A-Za-z0-9_]*(?:token|key|secret|password)=)([^&\s"']+)`)
)

// SanitizeToken masks a credential, keeping the first four characters for
// correlation. Example: "whsec_8f14e45fceea" -> "whse...".
func SanitizeToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 4 {
		return "***"
	}
	return token[:4] + "..."
}

// RedactSecrets removes credential material from an arbitrary string (raw
// webhook bodies, upstream error text, serialized headers) before it is
// logged or persisted in an error-log context blob.
func RedactSecrets(s string) string {
	if s == "" {
		return s
	}

	s = apiKeyPattern.ReplaceAllString(s, `$1$2***`)

	s = secretPattern.ReplaceAllStringFunc(s, func(m string) string {
		groups := secretPattern.FindStringSubmatch(m)
		return groups[1] + groups[2] + SanitizeToken(groups[3])
	})

	s = bearerPattern.ReplaceAllStringFunc(s, func(m string) string {
		groups := bearerPattern.FindStringSubmatch(m)
		return groups[1] + SanitizeToken(groups[2])
	})

	s = secretParamPattern.ReplaceAllStringFunc(s, func(m string) string {
		groups := secretParamPattern.FindStringSubmatch(m)
		return groups[1] + SanitizeToken(groups[2])
	})

	return s
}

// TruncateBody bounds a logged body at MaxLoggedBodyBytes, appending a
// marker with the number of bytes removed.
func TruncateBody(body string) string {
	if len(body) <= MaxLoggedBodyBytes {
		return body
	}
	cut := len(body) - MaxLoggedBodyBytes
	return body[:MaxLoggedBodyBytes] + fmt.Sprintf("[TRUNCATED %d bytes]", cut)
}

// SanitizeLogValue replaces control characters with escaped representations
// to prevent log injection through attacker-controlled strings (forged
// entries via embedded newlines, corrupted files via NUL bytes).
func SanitizeLogValue(s string) string {
	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			result.WriteString(fmt.Sprintf("\\x%02x", r))
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// SanitizeBody is the composed body pipeline: redact, then bound, then make
// injection-safe. This is what webhook handlers feed the error log.
func SanitizeBody(body string) string {
	return SanitizeLogValue(TruncateBody(RedactSecrets(body)))
}
