// Signalmesh - Webhook Trade Signal Fan-Out Across Decentralized Exchanges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signalmesh

package alerts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/signalmesh/internal/logging"
)

// streamName is the JetStream stream holding all alert subjects.
const streamName = "SIGNALMESH_ALERTS"

// NATSSinkConfig holds NATS delivery settings.
type NATSSinkConfig struct {
	// URL is the NATS server address, e.g. nats://127.0.0.1:4222.
	URL string

	// Subject is the base subject; alerts publish to Subject.<category>.
	Subject string

	// MaxReconnects bounds client reconnection attempts. Non-positive
	// falls back to 60.
	MaxReconnects int

	// ReconnectWait is the delay between client reconnection attempts.
	// Non-positive falls back to 2s.
	ReconnectWait time.Duration
}

// NATSSink publishes alerts to NATS JetStream through Watermill. Each alert
// is one message on subject <base>.<category> with the alert id as
// Nats-Msg-Id, so JetStream deduplicates redelivered events.
//
// The sink provisions its stream on construction; publishers and external
// consumers then agree on where alerts live without racing on creation. A
// circuit breaker fails publishes fast while the broker is down instead of
// stacking delivery timeouts behind each other.
type NATSSink struct {
	conn      *natsgo.Conn
	publisher message.Publisher
	breaker   *gobreaker.CircuitBreaker[any]
	subject   string
}

// NewNATSSink connects to NATS, ensures the alert stream exists, and builds
// the publishing sink.
func NewNATSSink(ctx context.Context, cfg NATSSinkConfig) (*NATSSink, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("nats sink: URL is required")
	}
	subject := cfg.Subject
	if subject == "" {
		subject = "signalmesh.alerts"
	}
	maxReconnects := cfg.MaxReconnects
	if maxReconnects <= 0 {
		maxReconnects = 60
	}
	reconnectWait := cfg.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}

	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(maxReconnects),
		natsgo.ReconnectWait(reconnectWait),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logging.Warn().Err(err).Msg("NATS disconnected")
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logging.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}

	conn, err := natsgo.Connect(cfg.URL, natsOpts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	if err := ensureStream(ctx, conn, subject); err != nil {
		conn.Close()
		return nil, err
	}

	wmConfig := wmNats.PublisherConfig{
		URL:         cfg.URL,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled:      false,
			AutoProvision: false,
			TrackMsgId:    true,
			PublishOptions: []natsgo.PubOpt{
				natsgo.RetryAttempts(3),
				natsgo.RetryWait(100 * time.Millisecond),
			},
		},
	}

	pub, err := wmNats.NewPublisher(wmConfig, newWatermillLogger())
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("create alert publisher: %w", err)
	}

	breaker := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "nats-alerts",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Alert publisher breaker state changed")
		},
	})

	return &NATSSink{conn: conn, publisher: pub, breaker: breaker, subject: subject}, nil
}

// ensureStream creates the alert stream if it does not exist. Idempotent.
func ensureStream(ctx context.Context, conn *natsgo.Conn, subject string) error {
	js, err := jetstream.New(conn)
	if err != nil {
		return fmt.Errorf("jetstream context: %w", err)
	}

	streamCfg := jetstream.StreamConfig{
		Name:       streamName,
		Subjects:   []string{subject + ".>"},
		Retention:  jetstream.LimitsPolicy,
		MaxAge:     7 * 24 * time.Hour,
		Duplicates: 2 * time.Minute,
		Storage:    jetstream.FileStorage,
		Discard:    jetstream.DiscardOld,
	}

	_, err = js.Stream(ctx, streamName)
	if err == nil {
		if _, err := js.UpdateStream(ctx, streamCfg); err != nil {
			return fmt.Errorf("update stream %s: %w", streamName, err)
		}
		return nil
	}
	if errors.Is(err, jetstream.ErrStreamNotFound) {
		if _, err := js.CreateStream(ctx, streamCfg); err != nil {
			return fmt.Errorf("create stream %s: %w", streamName, err)
		}
		return nil
	}
	return fmt.Errorf("check stream %s: %w", streamName, err)
}

// Name implements Sink.
func (s *NATSSink) Name() string { return "nats" }

// Deliver implements Sink.
func (s *NATSSink) Deliver(_ context.Context, alert Alert) error {
	data, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("serialize alert: %w", err)
	}

	msg := message.NewMessage(alert.ID, data)
	msg.Metadata.Set(natsgo.MsgIdHdr, alert.ID)
	msg.Metadata.Set("category", string(alert.Category))
	msg.Metadata.Set("severity", string(alert.Severity))
	if alert.DEX != "" {
		msg.Metadata.Set("dex", alert.DEX)
	}

	topic := s.subject + "." + string(alert.Category)
	_, err = s.breaker.Execute(func() (any, error) {
		return nil, s.publisher.Publish(topic, msg)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("alert publisher circuit open: %w", err)
		}
		return fmt.Errorf("publish alert: %w", err)
	}
	return nil
}

// Close implements Sink.
func (s *NATSSink) Close() error {
	err := s.publisher.Close()
	s.conn.Close()
	return err
}

// watermillLogger adapts Watermill's logging interface onto zerolog. Info is
// demoted to debug: Watermill narrates connection chatter that would drown
// the alert log itself.
type watermillLogger struct {
	fields watermill.LogFields
}

func newWatermillLogger() watermill.LoggerAdapter {
	return &watermillLogger{}
}

func (l *watermillLogger) Error(msg string, err error, fields watermill.LogFields) {
	l.emit(logging.Error().Err(err), msg, fields)
}

func (l *watermillLogger) Info(msg string, fields watermill.LogFields) {
	l.emit(logging.Debug(), msg, fields)
}

func (l *watermillLogger) Debug(msg string, fields watermill.LogFields) {
	l.emit(logging.Debug(), msg, fields)
}

func (l *watermillLogger) Trace(msg string, fields watermill.LogFields) {
	l.emit(logging.Trace(), msg, fields)
}

func (l *watermillLogger) With(fields watermill.LogFields) watermill.LoggerAdapter {
	merged := make(watermill.LogFields, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &watermillLogger{fields: merged}
}

func (l *watermillLogger) emit(event *zerolog.Event, msg string, fields watermill.LogFields) {
	for k, v := range l.fields {
		event = event.Interface(k, v)
	}
	for k, v := range fields {
		event = event.Interface(k, v)
	}
	event.Msg(msg)
}
