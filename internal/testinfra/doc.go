// Signalmesh - Webhook Trade Signal Fan-Out Across Decentralized Exchanges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signalmesh

// Package testinfra provides container-backed infrastructure for integration
// tests.
//
// This package uses testcontainers-go to manage Docker containers, giving
// integration tests a real NATS server instead of the in-process embedded
// one used by unit tests. Everything here is behind the integration build
// tag; `go test -tags integration ./...` runs it, plain `go test` does not.
//
// # NATS Container
//
// NewNATSContainer starts a JetStream-enabled NATS server and reports its
// client URL:
//
//	func TestAlertDelivery(t *testing.T) {
//	    testinfra.SkipIfNoDocker(t)
//
//	    ctx := context.Background()
//	    nats, err := testinfra.NewNATSContainer(ctx)
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    defer testinfra.CleanupContainer(t, ctx, nats.Container)
//
//	    sink, err := alerts.NewNATSSink(ctx, alerts.NATSSinkConfig{URL: nats.URL})
//	    // ...
//	}
//
// Tests that need Docker should call SkipIfNoDocker first so they degrade to
// a skip on machines without a daemon.
package testinfra
