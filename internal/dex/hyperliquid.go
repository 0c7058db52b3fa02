// Signalmesh - Webhook Trade Signal Fan-Out Across Decentralized Exchanges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signalmesh

/*
hyperliquid.go - Hyperliquid Exchange Adapter

REST adapter for the Hyperliquid perpetuals exchange. Orders are submitted
as signed actions to POST /exchange; reads (order status, positions, mid
prices, asset metadata) go to POST /info.

Market orders are emulated the way the official SDKs do it: an IOC limit
order priced at the current mid plus a slippage buffer (5%), rounded to the
exchange's five-significant-figure price rule.

Connection lifecycle:
  - Connect loads the asset universe (symbol -> asset index) and starts a
    heartbeat goroutine
  - The heartbeat pings /info on a 30s cadence; failures are logged but
    status transitions belong to the health monitor
  - Disconnect cancels the heartbeat, tears down the order-update stream,
    and is safe to call after a failed Connect

Related files:
  - hyperliquid_signer.go: EIP-712 agent-wallet action signing
  - hyperliquid_ws.go: order-update WebSocket stream
*/

package dex

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"github.com/tomtom215/signalmesh/internal/config"
	"github.com/tomtom215/signalmesh/internal/logging"
	"github.com/tomtom215/signalmesh/internal/models"
)

// AdapterIDHyperliquid is the registry ID of the Hyperliquid adapter.
const AdapterIDHyperliquid = "hyperliquid"

const (
	heartbeatInterval = 30 * time.Second
	heartbeatTimeout  = 10 * time.Second

	// slippageFactor buffers the IOC limit price past the mid so emulated
	// market orders cross the book.
	slippageFactor = "0.05"

	// pricePrecision is Hyperliquid's significant-figure limit on prices.
	pricePrecision = 5

	// maxErrorBodySize bounds how much of an error response body is read
	// for diagnostics.
	maxErrorBodySize = 64 * 1024
)

// HyperliquidDEX implements Adapter against the Hyperliquid REST API, plus
// the UpdateStreamer capability over its WebSocket feed.
//
// Thread safety: safe for concurrent use. Nonces are allocated under a
// mutex and strictly increase even when the wall clock stalls within a
// millisecond.
type HyperliquidDEX struct {
	id     string
	apiURL string
	wsURL  string
	signer *Signer
	client *http.Client

	state connState

	assetMu sync.RWMutex
	assets  map[string]int

	nonceMu   sync.Mutex
	lastNonce uint64

	// orderSymbols remembers which coin each submitted order traded, so
	// cancels can rebuild the asset index the wire format needs.
	ordersMu     sync.Mutex
	orderSymbols map[string]string

	hbMu     sync.Mutex
	hbCancel context.CancelFunc
	hbWG     sync.WaitGroup

	wsMu sync.Mutex
	ws   *hlStreamClient
}

// NewHyperliquid builds the adapter from configuration. The private key
// must already be validated by config loading; errors here mean the key or
// vault address is malformed despite that.
func NewHyperliquid(cfg *config.HyperliquidConfig) (*HyperliquidDEX, error) {
	testnet := strings.Contains(cfg.APIURL, "testnet")
	signer, err := NewSigner(cfg.PrivateKey, cfg.VaultAddress, testnet)
	if err != nil {
		return nil, fmt.Errorf("hyperliquid signer: %w", err)
	}

	return &HyperliquidDEX{
		id:     AdapterIDHyperliquid,
		apiURL: strings.TrimRight(cfg.APIURL, "/"),
		wsURL:  cfg.WSURL,
		signer: signer,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		assets:       make(map[string]int),
		orderSymbols: make(map[string]string),
	}, nil
}

// ID returns the adapter ID.
func (d *HyperliquidDEX) ID() string { return d.id }

// Connect loads the asset universe and starts the heartbeat. Idempotent:
// a second call while connected is a no-op.
func (d *HyperliquidDEX) Connect(ctx context.Context) error {
	if !d.state.begin() {
		return nil
	}

	if err := d.loadMeta(ctx); err != nil {
		d.state.fail()
		return Classify(d.id, fmt.Errorf("failed to load asset universe: %w", err))
	}

	hbCtx, cancel := context.WithCancel(context.Background())
	d.hbMu.Lock()
	d.hbCancel = cancel
	d.hbMu.Unlock()
	d.hbWG.Add(1)
	go d.heartbeat(hbCtx)

	d.state.succeed()

	d.assetMu.RLock()
	universe := len(d.assets)
	d.assetMu.RUnlock()
	logging.Info().Str("dex", d.id).Int("assets", universe).Str("wallet", d.signer.Address().Hex()).Msg("Connected to Hyperliquid")
	return nil
}

// Disconnect stops the heartbeat and the update stream. Safe to call in
// any state, including after a failed Connect.
func (d *HyperliquidDEX) Disconnect(_ context.Context) error {
	d.hbMu.Lock()
	if d.hbCancel != nil {
		d.hbCancel()
		d.hbCancel = nil
	}
	d.hbMu.Unlock()
	d.hbWG.Wait()

	d.wsMu.Lock()
	if d.ws != nil {
		_ = d.ws.Close()
		d.ws = nil
	}
	d.wsMu.Unlock()

	d.state.disconnect()
	return nil
}

// IsConnected reports the connection state.
func (d *HyperliquidDEX) IsConnected() bool { return d.state.connected() }

// heartbeat pings /info while connected. Failures are logged only; the
// health monitor owns status transitions and reconnection.
func (d *HyperliquidDEX) heartbeat(ctx context.Context) {
	defer d.hbWG.Done()

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			probeCtx, cancel := context.WithTimeout(ctx, heartbeatTimeout)
			var mids map[string]string
			err := d.postInfo(probeCtx, map[string]string{"type": "allMids"}, &mids)
			cancel()
			if err != nil && ctx.Err() == nil {
				logging.Warn().Str("dex", d.id).Err(err).Msg("Heartbeat failed")
			}
		}
	}
}

// SubmitOrder places an IOC order at mid price plus slippage. The returned
// result is ack-level: resting orders report submitted with zero fill.
func (d *HyperliquidDEX) SubmitOrder(ctx context.Context, req models.OrderRequest) (*models.SubmissionResult, error) {
	if !d.state.connected() {
		return nil, NewConnectionError(d.id, "submit refused", ErrNotConnected)
	}

	coin := strings.ToUpper(req.Symbol)
	asset, ok := d.assetIndex(coin)
	if !ok {
		return nil, NewRejectionError(d.id, models.CodeDEXRejected, fmt.Sprintf("unknown symbol %s", req.Symbol))
	}

	price, err := d.slippagePrice(ctx, coin, req.Side)
	if err != nil {
		return nil, Classify(d.id, err)
	}

	action := hlOrderAction{
		Type: "order",
		Orders: []hlWireOrder{{
			Asset:      asset,
			IsBuy:      req.Side == models.SideBuy,
			Price:      price.String(),
			Size:       req.Size.String(),
			ReduceOnly: false,
			OrderType:  hlWireOrderType{Limit: &hlLimitOrderType{TIF: "Ioc"}},
		}},
		Grouping: "na",
	}
	actionBytes, err := json.Marshal(action)
	if err != nil {
		return nil, NewExecutionError(d.id, "failed to encode order action", err)
	}

	resp, raw, err := d.postExchange(ctx, actionBytes)
	if err != nil {
		return nil, Classify(d.id, err)
	}

	var data hlOrderResponseData
	if err := json.Unmarshal(resp.Response, &data); err != nil {
		return nil, NewExecutionError(d.id, "failed to decode order response", err)
	}
	if len(data.Data.Statuses) == 0 {
		return nil, NewExecutionError(d.id, "order response carried no statuses", nil)
	}

	status := data.Data.Statuses[0]
	now := time.Now().UTC()

	switch {
	case status.Error != "":
		return nil, classifyExchangeText(d.id, status.Error)

	case status.Filled != nil:
		oid := strconv.FormatUint(status.Filled.OID, 10)
		filled, perr := decimal.NewFromString(status.Filled.TotalSz)
		if perr != nil {
			filled = req.Size
		}
		remaining := req.Size.Sub(filled)
		if remaining.IsNegative() {
			remaining = decimal.Zero
		}
		d.trackOrder(oid, coin)

		result := &models.SubmissionResult{
			ExternalOrderID: oid,
			Status:          models.SubmissionFilled,
			SubmittedAt:     now,
			FilledAmount:    filled,
			RemainingAmount: remaining,
			RawResponse:     string(raw),
		}
		if remaining.IsPositive() {
			result.Status = models.SubmissionPartial
		}
		return result, nil

	case status.Resting != nil:
		oid := strconv.FormatUint(status.Resting.OID, 10)
		d.trackOrder(oid, coin)
		return &models.SubmissionResult{
			ExternalOrderID: oid,
			Status:          models.SubmissionSubmitted,
			SubmittedAt:     now,
			FilledAmount:    decimal.Zero,
			RemainingAmount: req.Size,
			RawResponse:     string(raw),
		}, nil

	default:
		return nil, NewExecutionError(d.id, "order response in unknown shape", errors.New(string(raw)))
	}
}

// OrderStatus queries one order by its numeric Hyperliquid order id.
func (d *HyperliquidDEX) OrderStatus(ctx context.Context, externalOrderID string) (*models.OrderStatusInfo, error) {
	if !d.state.connected() {
		return nil, NewConnectionError(d.id, "status refused", ErrNotConnected)
	}

	oid, err := strconv.ParseUint(externalOrderID, 10, 64)
	if err != nil {
		return nil, NewRejectionError(d.id, models.CodeOrderNotFound, fmt.Sprintf("malformed order id %q", externalOrderID))
	}

	var resp hlOrderStatusResponse
	query := map[string]any{"type": "orderStatus", "user": d.infoUser(), "oid": oid}
	if err := d.postInfo(ctx, query, &resp); err != nil {
		return nil, Classify(d.id, err)
	}
	if resp.Status != "order" || resp.Order == nil {
		return nil, NewRejectionError(d.id, models.CodeOrderNotFound, fmt.Sprintf("unknown order %s", externalOrderID))
	}

	remaining, _ := decimal.NewFromString(resp.Order.Order.Sz)
	original, _ := decimal.NewFromString(resp.Order.Order.OrigSz)
	filled := original.Sub(remaining)
	if filled.IsNegative() {
		filled = decimal.Zero
	}

	return &models.OrderStatusInfo{
		ExternalOrderID: externalOrderID,
		Symbol:          resp.Order.Order.Coin,
		State:           mapOrderState(resp.Order.Status, filled),
		FilledAmount:    filled,
		RemainingAmount: remaining,
		UpdatedAt:       time.UnixMilli(resp.Order.StatusTimestamp).UTC(),
	}, nil
}

// CancelOrder cancels one order. Only orders submitted through this
// adapter instance can be cancelled, since the wire format needs the asset
// index the order traded.
func (d *HyperliquidDEX) CancelOrder(ctx context.Context, externalOrderID string) error {
	if !d.state.connected() {
		return NewConnectionError(d.id, "cancel refused", ErrNotConnected)
	}

	oid, err := strconv.ParseUint(externalOrderID, 10, 64)
	if err != nil {
		return NewRejectionError(d.id, models.CodeOrderNotFound, fmt.Sprintf("malformed order id %q", externalOrderID))
	}

	d.ordersMu.Lock()
	coin, tracked := d.orderSymbols[externalOrderID]
	d.ordersMu.Unlock()
	if !tracked {
		return NewRejectionError(d.id, models.CodeOrderNotFound, fmt.Sprintf("order %s not tracked by this session", externalOrderID))
	}
	asset, ok := d.assetIndex(coin)
	if !ok {
		return NewRejectionError(d.id, models.CodeOrderNotFound, fmt.Sprintf("asset for order %s no longer listed", externalOrderID))
	}

	action := hlCancelAction{
		Type:    "cancel",
		Cancels: []hlWireCancel{{Asset: asset, OID: oid}},
	}
	actionBytes, err := json.Marshal(action)
	if err != nil {
		return NewExecutionError(d.id, "failed to encode cancel action", err)
	}

	resp, raw, err := d.postExchange(ctx, actionBytes)
	if err != nil {
		return Classify(d.id, err)
	}

	var data hlCancelResponseData
	if err := json.Unmarshal(resp.Response, &data); err != nil {
		return NewExecutionError(d.id, "failed to decode cancel response", err)
	}
	if len(data.Data.Statuses) == 0 {
		return NewExecutionError(d.id, "cancel response carried no statuses", errors.New(string(raw)))
	}

	// Each status is either the string "success" or {"error": "..."}.
	var okStatus string
	if err := json.Unmarshal(data.Data.Statuses[0], &okStatus); err == nil {
		if okStatus == "success" {
			return nil
		}
		return classifyExchangeText(d.id, okStatus)
	}
	var failed struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data.Data.Statuses[0], &failed); err == nil && failed.Error != "" {
		return classifyExchangeText(d.id, failed.Error)
	}
	return NewExecutionError(d.id, "cancel response in unknown shape", errors.New(string(raw)))
}

// Position returns the open position for one symbol, or nil when flat.
// When a vault is configured, positions are read from the vault account.
func (d *HyperliquidDEX) Position(ctx context.Context, symbol string) (*models.Position, error) {
	if !d.state.connected() {
		return nil, NewConnectionError(d.id, "position refused", ErrNotConnected)
	}

	var state hlClearinghouseState
	query := map[string]string{"type": "clearinghouseState", "user": d.infoUser()}
	if err := d.postInfo(ctx, query, &state); err != nil {
		return nil, Classify(d.id, err)
	}

	coin := strings.ToUpper(symbol)
	for _, ap := range state.AssetPositions {
		if !strings.EqualFold(ap.Position.Coin, coin) {
			continue
		}
		size, err := decimal.NewFromString(ap.Position.Szi)
		if err != nil || size.IsZero() {
			return nil, nil
		}
		entry := decimal.Zero
		if ap.Position.EntryPx != nil {
			entry, _ = decimal.NewFromString(*ap.Position.EntryPx)
		}
		return &models.Position{
			Symbol:     coin,
			Size:       size,
			EntryPrice: entry,
			ObservedAt: time.Now().UTC(),
		}, nil
	}
	return nil, nil
}

// HealthProbe measures venue reachability with a lightweight /info call.
// It deliberately ignores the session state: the monitor uses it both to
// watch a connected venue and to verify a reconnect attempt.
func (d *HyperliquidDEX) HealthProbe(ctx context.Context) models.HealthSample {
	start := time.Now()

	var mids map[string]string
	err := d.postInfo(ctx, map[string]string{"type": "allMids"}, &mids)
	latency := time.Since(start).Milliseconds()

	if err != nil {
		return models.HealthSample{
			Status:       models.HealthOffline,
			LatencyMS:    latency,
			ObservedAt:   time.Now().UTC(),
			ErrorMessage: err.Error(),
		}
	}
	return models.HealthSample{
		Status:     models.HealthHealthy,
		LatencyMS:  latency,
		ObservedAt: time.Now().UTC(),
	}
}

// loadMeta fetches the asset universe and rebuilds the symbol index map.
func (d *HyperliquidDEX) loadMeta(ctx context.Context) error {
	var meta hlMetaResponse
	if err := d.postInfo(ctx, map[string]string{"type": "meta"}, &meta); err != nil {
		return err
	}
	if len(meta.Universe) == 0 {
		return errors.New("asset universe is empty")
	}

	assets := make(map[string]int, len(meta.Universe))
	for i, u := range meta.Universe {
		assets[strings.ToUpper(u.Name)] = i
	}

	d.assetMu.Lock()
	d.assets = assets
	d.assetMu.Unlock()
	return nil
}

func (d *HyperliquidDEX) assetIndex(coin string) (int, bool) {
	d.assetMu.RLock()
	defer d.assetMu.RUnlock()
	idx, ok := d.assets[coin]
	return idx, ok
}

func (d *HyperliquidDEX) trackOrder(oid, coin string) {
	d.ordersMu.Lock()
	d.orderSymbols[oid] = coin
	d.ordersMu.Unlock()
}

// infoUser is the account info queries are scoped to: the vault when one
// is configured, the agent wallet otherwise.
func (d *HyperliquidDEX) infoUser() string {
	if v := d.signer.Vault(); v != nil {
		return strings.ToLower(v.Hex())
	}
	return strings.ToLower(d.signer.Address().Hex())
}

// slippagePrice computes the IOC limit price: mid plus the slippage buffer
// in the crossing direction, rounded to the exchange's price precision.
func (d *HyperliquidDEX) slippagePrice(ctx context.Context, coin string, side models.Side) (decimal.Decimal, error) {
	var mids map[string]string
	if err := d.postInfo(ctx, map[string]string{"type": "allMids"}, &mids); err != nil {
		return decimal.Zero, err
	}
	raw, ok := mids[coin]
	if !ok {
		return decimal.Zero, NewRejectionError(d.id, models.CodeDEXRejected, fmt.Sprintf("no mid price for %s", coin))
	}
	mid, err := decimal.NewFromString(raw)
	if err != nil || !mid.IsPositive() {
		return decimal.Zero, NewExecutionError(d.id, fmt.Sprintf("venue reported unusable mid price %q for %s", raw, coin), err)
	}

	slip, _ := decimal.NewFromString(slippageFactor)
	factor := decimal.NewFromInt(1).Add(slip)
	if side == models.SideSell {
		factor = decimal.NewFromInt(1).Sub(slip)
	}
	return roundSigFigs(mid.Mul(factor), pricePrecision), nil
}

// roundSigFigs rounds d to the given number of significant figures, which
// is how Hyperliquid constrains prices (not fixed decimal places).
func roundSigFigs(d decimal.Decimal, figs int32) decimal.Decimal {
	if d.IsZero() {
		return d
	}
	abs := d.Abs()
	msd := int32(len(abs.Coefficient().String())) + abs.Exponent()
	return d.Round(figs - msd)
}

// mapOrderState maps Hyperliquid status strings onto the order lifecycle.
func mapOrderState(status string, filled decimal.Decimal) models.OrderState {
	switch status {
	case "filled":
		return models.OrderFilled
	case "canceled", "marginCanceled":
		return models.OrderCancelled
	case "rejected":
		return models.OrderRejected
	case "open", "triggered":
		if filled.IsPositive() {
			return models.OrderPartialFilled
		}
		return models.OrderOpen
	default:
		return models.OrderOpen
	}
}

// nextNonce allocates a strictly increasing millisecond nonce.
func (d *HyperliquidDEX) nextNonce() uint64 {
	d.nonceMu.Lock()
	defer d.nonceMu.Unlock()

	n := uint64(time.Now().UnixMilli())
	if n <= d.lastNonce {
		n = d.lastNonce + 1
	}
	d.lastNonce = n
	return n
}

// postExchange signs and submits an action. The returned raw bytes are the
// full response body for audit blobs.
func (d *HyperliquidDEX) postExchange(ctx context.Context, action []byte) (*hlExchangeResponse, []byte, error) {
	nonce := d.nextNonce()
	sig, err := d.signer.SignAction(action, nonce)
	if err != nil {
		return nil, nil, NewSignatureError(d.id, "failed to sign action", err)
	}

	reqBody := hlExchangeRequest{
		Action:    action,
		Nonce:     nonce,
		Signature: sig,
	}
	if v := d.signer.Vault(); v != nil {
		vault := strings.ToLower(v.Hex())
		reqBody.VaultAddress = &vault
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode exchange request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.apiURL+"/exchange", bytes.NewReader(body))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create exchange request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	raw := readBodyForError(resp.Body)

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode >= http.StatusInternalServerError {
			return nil, nil, NewConnectionError(d.id, fmt.Sprintf("exchange returned status %d", resp.StatusCode), errors.New(string(raw)))
		}
		return nil, nil, classifyExchangeText(d.id, string(raw))
	}

	var parsed hlExchangeResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, nil, fmt.Errorf("failed to decode exchange response: %w", err)
	}
	if parsed.Status != "ok" {
		var text string
		if err := json.Unmarshal(parsed.Response, &text); err != nil {
			text = string(parsed.Response)
		}
		return nil, nil, classifyExchangeText(d.id, text)
	}
	return &parsed, raw, nil
}

// postInfo posts a query to /info and decodes the response into out.
func (d *HyperliquidDEX) postInfo(ctx context.Context, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode info request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.apiURL+"/info", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create info request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errBody := readBodyForError(resp.Body)
		return fmt.Errorf("info request failed with status %d: %s", resp.StatusCode, string(errBody))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// readBodyForError reads a response body for diagnostics, bounded at 64KB.
func readBodyForError(r io.Reader) []byte {
	limited := io.LimitReader(r, maxErrorBodySize)
	body, err := io.ReadAll(limited)
	if err != nil {
		return []byte("(failed to read response body)")
	}
	if len(body) == maxErrorBodySize {
		return append(body, []byte("\n... (truncated)")...)
	}
	return body
}

// classifyExchangeText maps venue error text onto the failure taxonomy.
// Hyperliquid reports business failures as prose; the substrings here are
// the stable fragments of its known rejection messages.
func classifyExchangeText(adapter, text string) *AdapterError {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "insufficient"):
		return NewRejectionError(adapter, models.CodeInsufficientFunds, text)
	case strings.Contains(lower, "nonce"):
		return NewRejectionError(adapter, models.CodeNonceError, text)
	case strings.Contains(lower, "signature"),
		strings.Contains(lower, "api wallet"),
		strings.Contains(lower, "agent"):
		return NewSignatureError(adapter, text, nil)
	case strings.Contains(lower, "unknown oid"),
		strings.Contains(lower, "order not found"),
		strings.Contains(lower, "never placed"):
		return NewRejectionError(adapter, models.CodeOrderNotFound, text)
	default:
		return NewRejectionError(adapter, models.CodeDEXRejected, text)
	}
}

// Wire types. Field order inside actions is load-bearing: the signature is
// computed over the serialized action, and the venue recomputes it from
// the same canonical field order.

type hlExchangeRequest struct {
	Action       json.RawMessage `json:"action"`
	Nonce        uint64          `json:"nonce"`
	Signature    *Signature      `json:"signature"`
	VaultAddress *string         `json:"vaultAddress,omitempty"`
}

type hlExchangeResponse struct {
	Status   string          `json:"status"`
	Response json.RawMessage `json:"response"`
}

type hlOrderAction struct {
	Type     string        `json:"type"`
	Orders   []hlWireOrder `json:"orders"`
	Grouping string        `json:"grouping"`
}

type hlWireOrder struct {
	Asset      int             `json:"a"`
	IsBuy      bool            `json:"b"`
	Price      string          `json:"p"`
	Size       string          `json:"s"`
	ReduceOnly bool            `json:"r"`
	OrderType  hlWireOrderType `json:"t"`
}

type hlWireOrderType struct {
	Limit *hlLimitOrderType `json:"limit,omitempty"`
}

type hlLimitOrderType struct {
	TIF string `json:"tif"`
}

type hlCancelAction struct {
	Type    string         `json:"type"`
	Cancels []hlWireCancel `json:"cancels"`
}

type hlWireCancel struct {
	Asset int    `json:"a"`
	OID   uint64 `json:"o"`
}

type hlOrderResponseData struct {
	Type string `json:"type"`
	Data struct {
		Statuses []hlOrderStatusEntry `json:"statuses"`
	} `json:"data"`
}

type hlOrderStatusEntry struct {
	Resting *struct {
		OID uint64 `json:"oid"`
	} `json:"resting,omitempty"`
	Filled *struct {
		OID     uint64 `json:"oid"`
		TotalSz string `json:"totalSz"`
		AvgPx   string `json:"avgPx"`
	} `json:"filled,omitempty"`
	Error string `json:"error,omitempty"`
}

type hlCancelResponseData struct {
	Type string `json:"type"`
	Data struct {
		Statuses []json.RawMessage `json:"statuses"`
	} `json:"data"`
}

type hlMetaResponse struct {
	Universe []struct {
		Name       string `json:"name"`
		SzDecimals int    `json:"szDecimals"`
	} `json:"universe"`
}

type hlOrderStatusResponse struct {
	Status string `json:"status"`
	Order  *struct {
		Order struct {
			Coin      string `json:"coin"`
			Side      string `json:"side"`
			Sz        string `json:"sz"`
			OrigSz    string `json:"origSz"`
			OID       uint64 `json:"oid"`
			Timestamp int64  `json:"timestamp"`
		} `json:"order"`
		Status          string `json:"status"`
		StatusTimestamp int64  `json:"statusTimestamp"`
	} `json:"order"`
}

type hlClearinghouseState struct {
	AssetPositions []struct {
		Position struct {
			Coin    string  `json:"coin"`
			Szi     string  `json:"szi"`
			EntryPx *string `json:"entryPx"`
		} `json:"position"`
	} `json:"assetPositions"`
}
