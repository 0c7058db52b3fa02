// Signalmesh - Webhook Trade Signal Fan-Out Across Decentralized Exchanges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signalmesh

// Package processor fans one validated signal out to every active DEX
// adapter in parallel and collects the per-adapter outcomes.
//
// Parallelism is a correctness requirement, not an optimization: total
// dispatch latency must approximate the slowest adapter, never the sum.
// Failures are isolated per adapter; one adapter erroring, hanging, or
// panicking leaves every other adapter's outcome intact.
package processor

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"github.com/tomtom215/signalmesh/internal/dex"
	"github.com/tomtom215/signalmesh/internal/logging"
	"github.com/tomtom215/signalmesh/internal/metrics"
	"github.com/tomtom215/signalmesh/internal/models"
)

// DefaultDispatchTimeout bounds one whole fan-out.
const DefaultDispatchTimeout = 30 * time.Second

// ExecutionLog is the execution-record surface the processor writes through.
// Satisfied by *store.DB.
type ExecutionLog interface {
	RecordExecution(ctx context.Context, fingerprint, adapterID, externalOrderID string, status models.ExecutionStatus, resultBlob string, latencyMS *int64) (*models.ExecutionRecord, error)
}

// ErrorLog is the async error-log surface. Satisfied by *store.ErrorRecorder.
type ErrorLog interface {
	Record(level models.ErrorLevel, category models.ErrorCode, message, contextBlob string)
}

// Config holds processor tuning.
type Config struct {
	// DispatchTimeout is the total deadline for one fan-out. Non-positive
	// falls back to DefaultDispatchTimeout.
	DispatchTimeout time.Duration

	// TestMode marks every result blob with is_test_mode so audit and
	// volume aggregations can exclude dry-run executions.
	TestMode bool

	// Updates, when set, is told about every acknowledged external order id
	// so push-stream updates can be matched back to their signal.
	Updates *UpdateRelay
}

// Processor is the singleton signal dispatcher. Construct once in main and
// inject everywhere.
type Processor struct {
	registry   *dex.Registry
	executions ExecutionLog
	errorLog   ErrorLog
	timeout    time.Duration
	testMode   bool
	updates    *UpdateRelay
}

// New creates a processor. errorLog may be nil; execution-record write
// failures are then only visible in the process log.
func New(registry *dex.Registry, executions ExecutionLog, errorLog ErrorLog, cfg Config) *Processor {
	timeout := cfg.DispatchTimeout
	if timeout <= 0 {
		timeout = DefaultDispatchTimeout
	}
	return &Processor{
		registry:   registry,
		executions: executions,
		errorLog:   errorLog,
		timeout:    timeout,
		testMode:   cfg.TestMode,
		updates:    cfg.Updates,
	}
}

// outcome is one adapter's dispatch result plus the material the execution
// log needs.
type outcome struct {
	result models.AdapterResult
	status models.ExecutionStatus
	blob   string
}

// Process dispatches one signal to all connected adapters and returns the
// collected response. It never returns an error: no adapters, deadline
// expiry, and record-write failures all collapse into the response status.
func (p *Processor) Process(ctx context.Context, payload models.SignalPayload, fingerprint string) *models.ProcessingResponse {
	active := p.activeAdapters()
	if len(active) == 0 {
		logging.Warn().Str("signal", fingerprint).Msg("No active adapters, dispatch failed")
		metrics.RecordFanOut(string(models.OverallFailed))
		return models.NewFailedResponse(fingerprint, time.Now().UTC())
	}

	start := time.Now()
	dispatchCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	// Buffered so stragglers cancelled by the deadline can still finish
	// their send and exit.
	outcomes := make(chan outcome, len(active))
	for _, adapter := range active {
		go p.dispatchOne(dispatchCtx, adapter, payload, fingerprint, outcomes)
	}

	collected := make([]outcome, 0, len(active))
	for range active {
		select {
		case o := <-outcomes:
			collected = append(collected, o)
		case <-dispatchCtx.Done():
			// Deadline for the whole fan-out. No partial merge: outcomes
			// that did complete are deliberately not fabricated into a
			// response that would misstate the adapters still running.
			elapsed := time.Since(start)
			logging.Error().
				Str("signal", fingerprint).
				Int("active", len(active)).
				Int("completed", len(collected)).
				Dur("elapsed", elapsed).
				Msg("Dispatch deadline expired")
			metrics.RecordFanOut(string(models.OverallFailed))

			resp := models.NewFailedResponse(fingerprint, time.Now().UTC())
			resp.TotalDEXCount = len(active)
			resp.FailedCount = len(active)
			resp.TotalLatencyMS = elapsed.Milliseconds()
			return resp
		}
	}
	elapsed := time.Since(start)

	p.recordOutcomes(ctx, fingerprint, collected)

	results := make([]models.AdapterResult, 0, len(collected))
	successful := 0
	for _, o := range collected {
		results = append(results, o.result)
		if o.result.Status == models.ResultFilled {
			successful++
		}
	}
	failed := len(collected) - successful

	resp := &models.ProcessingResponse{
		SignalID:        fingerprint,
		OverallStatus:   overallStatus(successful, failed),
		Results:         results,
		TotalDEXCount:   len(active),
		SuccessfulCount: successful,
		FailedCount:     failed,
		TotalLatencyMS:  elapsed.Milliseconds(),
		Timestamp:       time.Now().UTC(),
	}

	metrics.RecordFanOut(string(resp.OverallStatus))
	logging.Info().
		Str("signal", fingerprint).
		Str("overall_status", string(resp.OverallStatus)).
		Int("successful", successful).
		Int("failed", failed).
		Int64("total_latency_ms", resp.TotalLatencyMS).
		Msg("Signal dispatched")

	return resp
}

// dispatchOne submits the order on one adapter and sends its outcome.
// A panicking adapter is converted into a failed outcome so the fan-out
// always collects len(active) results.
func (p *Processor) dispatchOne(ctx context.Context, adapter dex.Adapter, payload models.SignalPayload, fingerprint string, out chan<- outcome) {
	var (
		start   time.Time
		latency int64
	)
	defer func() {
		if r := recover(); r != nil {
			logging.Error().
				Str("dex", adapter.ID()).
				Interface("panic", r).
				Msg("Adapter panicked during submit")
			out <- p.failedOutcome(adapter.ID(), payload, fmt.Sprintf("adapter panic: %v", r), latency)
		}
	}()

	req := models.OrderRequest{
		Symbol: payload.Symbol,
		Side:   payload.Side,
		Size:   payload.Size,
	}

	// Latency brackets the submit call only, not scheduling overhead.
	start = time.Now()
	result, err := adapter.SubmitOrder(ctx, req)
	latency = time.Since(start).Milliseconds()

	if err != nil {
		code := dex.CodeForError(adapter.ID(), err)
		metrics.RecordDEXError(adapter.ID(), string(code))
		metrics.RecordDispatch(adapter.ID(), models.ResultError, time.Duration(latency)*time.Millisecond)
		logging.Warn().
			Str("dex", adapter.ID()).
			Str("code", string(code)).
			Err(err).
			Msg("Adapter submit failed")
		out <- p.failedOutcome(adapter.ID(), payload, err.Error(), latency)
		return
	}

	metrics.RecordDispatch(adapter.ID(), models.ResultFilled, time.Duration(latency)*time.Millisecond)

	orderID := result.ExternalOrderID
	if p.updates != nil && orderID != "" {
		// Track before the outcome is collected so a push update racing the
		// fan-out deadline still matches its signal.
		p.updates.Track(orderID, fingerprint, adapter.ID())
	}
	blob := models.ResultBlob{
		ExternalOrderID: orderID,
		FilledAmount:    result.FilledAmount,
		RemainingAmount: result.RemainingAmount,
		IsTestMode:      p.testMode,
		Raw:             result.RawResponse,
	}

	out <- outcome{
		result: models.AdapterResult{
			DEXID:        adapter.ID(),
			Status:       models.ResultFilled,
			OrderID:      &orderID,
			FilledAmount: result.FilledAmount,
			LatencyMS:    latency,
		},
		status: models.ExecutionFilled,
		blob:   marshalBlob(blob),
	}
}

// failedOutcome builds the error-shaped outcome for one adapter.
func (p *Processor) failedOutcome(adapterID string, payload models.SignalPayload, message string, latency int64) outcome {
	blob := models.ResultBlob{
		FilledAmount:    decimal.Zero,
		RemainingAmount: payload.Size,
		ErrorMessage:    message,
		IsTestMode:      p.testMode,
	}
	return outcome{
		result: models.AdapterResult{
			DEXID:        adapterID,
			Status:       models.ResultError,
			OrderID:      nil,
			FilledAmount: decimal.Zero,
			ErrorMessage: message,
			LatencyMS:    latency,
		},
		status: models.ExecutionFailed,
		blob:   marshalBlob(blob),
	}
}

// recordOutcomes writes one execution record per outcome. Write failures are
// isolated per record: a failed insert is logged and the loop continues.
func (p *Processor) recordOutcomes(ctx context.Context, fingerprint string, collected []outcome) {
	for _, o := range collected {
		orderID := ""
		if o.result.OrderID != nil {
			orderID = *o.result.OrderID
		}
		latency := o.result.LatencyMS

		_, err := p.executions.RecordExecution(ctx, fingerprint, o.result.DEXID, orderID, o.status, o.blob, &latency)
		if err != nil {
			logging.Error().
				Str("signal", fingerprint).
				Str("dex", o.result.DEXID).
				Err(err).
				Msg("Failed to record execution")
			if p.errorLog != nil {
				p.errorLog.Record(models.LevelError, models.CodeDatabaseError,
					fmt.Sprintf("failed to record execution for %s on %s: %v", fingerprint, o.result.DEXID, err), "")
			}
		}
	}
}

// activeAdapters snapshots the connected subset of the registry.
func (p *Processor) activeAdapters() []dex.Adapter {
	all := p.registry.All()
	active := make([]dex.Adapter, 0, len(all))
	for _, a := range all {
		if a.IsConnected() {
			active = append(active, a)
		}
	}
	return active
}

// overallStatus applies the summary rule: success when nothing failed,
// failed when nothing succeeded, partial for any mix.
func overallStatus(successful, failed int) models.OverallStatus {
	switch {
	case failed == 0 && successful > 0:
		return models.OverallSuccess
	case successful > 0:
		return models.OverallPartial
	default:
		return models.OverallFailed
	}
}

// marshalBlob serializes a result blob; the fallback shape keeps the field
// the execution log inspects.
func marshalBlob(blob models.ResultBlob) string {
	data, err := json.Marshal(blob)
	if err != nil {
		return `{"error_message":"failed to serialize result blob"}`
	}
	return string(data)
}
