// Signalmesh - Webhook Trade Signal Fan-Out Across Decentralized Exchanges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signalmesh

package alerts

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/tomtom215/signalmesh/internal/logging"
)

// Sink is one alert delivery target. Deliver errors are the sink's problem:
// the dispatcher records the failure and moves on, it never retries and never
// surfaces the error to the alert's producer.
type Sink interface {
	// Name identifies the sink in logs and metrics.
	Name() string

	// Deliver pushes one alert. Implementations must be safe for
	// concurrent use.
	Deliver(ctx context.Context, alert Alert) error

	// Close releases sink resources. Idempotent.
	Close() error
}

// LogSink writes alerts to the structured log. It is always present: even
// with NATS delivery enabled, every alert lands in the process log.
type LogSink struct{}

// NewLogSink creates the log sink.
func NewLogSink() *LogSink {
	return &LogSink{}
}

// Name implements Sink.
func (s *LogSink) Name() string { return "log" }

// Deliver implements Sink. It never fails.
func (s *LogSink) Deliver(_ context.Context, alert Alert) error {
	var event *zerolog.Event
	switch alert.Severity {
	case SeverityCritical:
		event = logging.Error()
	case SeverityWarning:
		event = logging.Warn()
	default:
		event = logging.Info()
	}

	event = event.
		Str("alert_id", alert.ID).
		Str("category", string(alert.Category)).
		Str("severity", string(alert.Severity))
	if alert.DEX != "" {
		event = event.Str("dex", alert.DEX)
	}
	if len(alert.Details) > 0 {
		event = event.Interface("details", alert.Details)
	}
	event.Msg(alert.Message)
	return nil
}

// Close implements Sink.
func (s *LogSink) Close() error { return nil }
