// Signalmesh - Webhook Trade Signal Fan-Out Across Decentralized Exchanges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signalmesh

/*
hyperliquid_ws.go - Hyperliquid Order Update Stream

WebSocket client for Hyperliquid's orderUpdates subscription. The venue
closes connections idle for 60 seconds, so the client pings on a 30 second
cadence and redials with capped backoff when the read loop fails.

One stream client is shared by all subscriptions on the adapter; the last
subscription to close tears the socket down.
*/

package dex

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"

	"github.com/tomtom215/signalmesh/internal/logging"
	"github.com/tomtom215/signalmesh/internal/models"
)

const (
	wsHandshakeTimeout = 10 * time.Second
	wsReadDeadline     = 60 * time.Second
	wsPingInterval     = 30 * time.Second
	wsMaxRedialDelay   = 32 * time.Second
)

// SubscribeUpdates attaches sink to the shared order-update stream,
// dialing it on first use. Without a configured WS URL the adapter simply
// has no stream capability and returns an inert subscription.
func (d *HyperliquidDEX) SubscribeUpdates(ctx context.Context, sink UpdateSink) (Subscription, error) {
	if !d.state.connected() {
		return nil, NewConnectionError(d.id, "subscribe refused", ErrNotConnected)
	}
	if d.wsURL == "" {
		logging.Debug().Str("dex", d.id).Msg("No WS URL configured, order updates disabled")
		return noopSubscription{}, nil
	}

	d.wsMu.Lock()
	defer d.wsMu.Unlock()

	if d.ws == nil {
		ws := newHLStreamClient(d.wsURL, d.infoUser(), d.id)
		if err := ws.Connect(ctx); err != nil {
			return nil, Classify(d.id, err)
		}
		d.ws = ws
	}
	id := d.ws.addSink(sink)
	return &hlSubscription{dex: d, client: d.ws, id: id}, nil
}

// hlSubscription pins the stream client it attached to. Disconnect replaces
// the adapter's client, so Close and Alive compare pointers rather than
// trusting d.ws to still be the client this sink was registered on.
type hlSubscription struct {
	dex    *HyperliquidDEX
	client *hlStreamClient
	id     int
	once   sync.Once
}

func (s *hlSubscription) Close() error {
	s.once.Do(func() {
		s.dex.wsMu.Lock()
		defer s.dex.wsMu.Unlock()
		if s.dex.ws != s.client {
			return
		}
		if s.client.removeSink(s.id) == 0 {
			_ = s.client.Close()
			s.dex.ws = nil
		}
	})
	return nil
}

// Alive reports whether the subscription is still attached to the adapter's
// current stream. A Disconnect orphans every prior subscription.
func (s *hlSubscription) Alive() bool {
	s.dex.wsMu.Lock()
	defer s.dex.wsMu.Unlock()
	return s.dex.ws == s.client
}

// hlStreamClient owns one WebSocket connection and fans order updates out
// to its registered sinks.
type hlStreamClient struct {
	wsURL   string
	user    string
	adapter string

	conn   *websocket.Conn
	connMu sync.RWMutex

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	sinkMu   sync.RWMutex
	sinks    map[int]UpdateSink
	nextSink int
}

type hlWSRequest struct {
	Method       string            `json:"method"`
	Subscription *hlWSSubscription `json:"subscription,omitempty"`
}

type hlWSSubscription struct {
	Type string `json:"type"`
	User string `json:"user"`
}

type hlWSMessage struct {
	Channel string          `json:"channel"`
	Data    json.RawMessage `json:"data,omitempty"`
}

type hlWSOrderUpdate struct {
	Order struct {
		Coin      string `json:"coin"`
		Side      string `json:"side"`
		LimitPx   string `json:"limitPx"`
		Sz        string `json:"sz"`
		OID       uint64 `json:"oid"`
		Timestamp int64  `json:"timestamp"`
		OrigSz    string `json:"origSz"`
	} `json:"order"`
	Status          string `json:"status"`
	StatusTimestamp int64  `json:"statusTimestamp"`
}

func newHLStreamClient(wsURL, user, adapter string) *hlStreamClient {
	return &hlStreamClient{
		wsURL:    wsURL,
		user:     user,
		adapter:  adapter,
		stopChan: make(chan struct{}),
		sinks:    make(map[int]UpdateSink),
	}
}

// Connect dials, subscribes, and starts the read and ping loops.
func (c *hlStreamClient) Connect(ctx context.Context) error {
	if err := c.dial(ctx); err != nil {
		return err
	}
	c.wg.Add(2)
	go c.listen()
	go c.pingLoop()
	return nil
}

// dial establishes the connection and sends the orderUpdates subscription.
// Redials from the read loop reuse it without spawning new goroutines.
func (c *hlStreamClient) dial(ctx context.Context) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn != nil {
		return nil
	}

	dialer := websocket.Dialer{
		HandshakeTimeout:  wsHandshakeTimeout,
		EnableCompression: true,
	}

	conn, resp, err := dialer.DialContext(ctx, c.wsURL, nil)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("websocket dial failed (status %d): %w", resp.StatusCode, err)
		}
		return fmt.Errorf("websocket dial failed: %w", err)
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	sub := hlWSRequest{
		Method:       "subscribe",
		Subscription: &hlWSSubscription{Type: "orderUpdates", User: c.user},
	}
	if err := conn.WriteJSON(sub); err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to subscribe to order updates: %w", err)
	}

	c.conn = conn
	logging.Info().Str("dex", c.adapter).Str("url", c.wsURL).Msg("Order update stream connected")
	return nil
}

// listen reads messages until Close, redialing with capped backoff when
// the connection drops.
func (c *hlStreamClient) listen() {
	defer c.wg.Done()

	redialDelay := 1 * time.Second

	for {
		select {
		case <-c.stopChan:
			return
		default:
			c.connMu.RLock()
			conn := c.conn
			c.connMu.RUnlock()

			if conn == nil {
				logging.Info().Str("dex", c.adapter).Dur("delay", redialDelay).Msg("Order update stream lost, redialing")
				select {
				case <-time.After(redialDelay):
				case <-c.stopChan:
					return
				}
				redialDelay *= 2
				if redialDelay > wsMaxRedialDelay {
					redialDelay = wsMaxRedialDelay
				}
				if err := c.dial(context.Background()); err != nil {
					logging.Warn().Str("dex", c.adapter).Err(err).Msg("Order update stream redial failed")
					continue
				}
				redialDelay = 1 * time.Second
				continue
			}

			if err := conn.SetReadDeadline(time.Now().Add(wsReadDeadline)); err != nil {
				logging.Warn().Str("dex", c.adapter).Err(err).Msg("Failed to set read deadline")
			}

			_, message, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					logging.Info().Str("dex", c.adapter).Msg("Order update stream closed by venue")
				} else {
					select {
					case <-c.stopChan:
						return
					default:
						logging.Warn().Str("dex", c.adapter).Err(err).Msg("Order update stream read error")
					}
				}
				c.closeConn()
				continue
			}

			redialDelay = 1 * time.Second
			c.handleMessage(message)
		}
	}
}

// pingLoop keeps the connection alive against the venue's 60s idle cutoff.
func (c *hlStreamClient) pingLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopChan:
			return
		case <-ticker.C:
			c.connMu.Lock()
			conn := c.conn
			var err error
			if conn != nil {
				err = conn.WriteJSON(hlWSRequest{Method: "ping"})
			}
			c.connMu.Unlock()

			if err != nil {
				logging.Warn().Str("dex", c.adapter).Err(err).Msg("Order update stream ping failed")
				c.closeConn()
			}
		}
	}
}

func (c *hlStreamClient) handleMessage(data []byte) {
	var msg hlWSMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		logging.Warn().Str("dex", c.adapter).Err(err).Msg("Failed to parse stream message")
		return
	}

	switch msg.Channel {
	case "orderUpdates":
		var updates []hlWSOrderUpdate
		if err := json.Unmarshal(msg.Data, &updates); err != nil {
			logging.Warn().Str("dex", c.adapter).Err(err).Msg("Failed to parse order updates")
			return
		}
		for _, u := range updates {
			c.fanout(c.toOrderUpdate(u))
		}

	case "subscriptionResponse", "pong":
		// Acknowledgements, nothing to do.

	default:
		logging.Debug().Str("dex", c.adapter).Str("channel", msg.Channel).Msg("Unhandled stream channel")
	}
}

// toOrderUpdate maps a wire update onto the adapter-neutral shape. The
// venue reports sz as the remaining size and origSz as the original.
func (c *hlStreamClient) toOrderUpdate(u hlWSOrderUpdate) models.OrderUpdate {
	remaining, _ := decimal.NewFromString(u.Order.Sz)
	original, _ := decimal.NewFromString(u.Order.OrigSz)
	filled := original.Sub(remaining)
	if filled.IsNegative() {
		filled = decimal.Zero
	}

	return models.OrderUpdate{
		AdapterID:       c.adapter,
		ExternalOrderID: strconv.FormatUint(u.Order.OID, 10),
		Symbol:          u.Order.Coin,
		State:           mapOrderState(u.Status, filled),
		FilledAmount:    filled,
		RemainingAmount: remaining,
		OccurredAt:      time.UnixMilli(u.StatusTimestamp).UTC(),
	}
}

func (c *hlStreamClient) fanout(u models.OrderUpdate) {
	c.sinkMu.RLock()
	sinks := make([]UpdateSink, 0, len(c.sinks))
	for _, s := range c.sinks {
		sinks = append(sinks, s)
	}
	c.sinkMu.RUnlock()

	for _, s := range sinks {
		s(u)
	}
}

func (c *hlStreamClient) addSink(sink UpdateSink) int {
	c.sinkMu.Lock()
	defer c.sinkMu.Unlock()
	id := c.nextSink
	c.nextSink++
	c.sinks[id] = sink
	return id
}

// removeSink unregisters a sink and returns how many remain.
func (c *hlStreamClient) removeSink(id int) int {
	c.sinkMu.Lock()
	defer c.sinkMu.Unlock()
	delete(c.sinks, id)
	return len(c.sinks)
}

// closeConn tears down the connection so the read loop redials.
func (c *hlStreamClient) closeConn() {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn == nil {
		return
	}
	_ = c.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(1*time.Second),
	)
	_ = c.conn.Close()
	c.conn = nil
}

// Close stops both loops and closes the connection. Idempotent.
func (c *hlStreamClient) Close() error {
	c.stopOnce.Do(func() {
		close(c.stopChan)
	})
	c.closeConn()
	c.wg.Wait()
	return nil
}
