// Signalmesh - Webhook Trade Signal Fan-Out Across Decentralized Exchanges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signalmesh

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	io_prometheus_client "github.com/prometheus/client_model/go"
)

// histogramSampleCount extracts the observation count from a Prometheus
// histogram. testutil.ToFloat64 only handles counters and gauges.
func histogramSampleCount(m prometheus.Metric) uint64 {
	var pb io_prometheus_client.Metric
	if err := m.Write(&pb); err != nil {
		return 0
	}
	return pb.GetHistogram().GetSampleCount()
}

// histogramSampleSum extracts the observation sum from a Prometheus histogram
func histogramSampleSum(m prometheus.Metric) float64 {
	var pb io_prometheus_client.Metric
	if err := m.Write(&pb); err != nil {
		return 0
	}
	return pb.GetHistogram().GetSampleSum()
}

func TestRecordSignalReceived(t *testing.T) {
	before := testutil.ToFloat64(SignalsReceived.WithLabelValues("accepted"))

	RecordSignalReceived("accepted")
	RecordSignalReceived("accepted")

	after := testutil.ToFloat64(SignalsReceived.WithLabelValues("accepted"))
	if after-before != 2 {
		t.Errorf("Expected counter to increase by 2, got %v", after-before)
	}
}

func TestRecordDispatch(t *testing.T) {
	before := testutil.ToFloat64(DispatchResults.WithLabelValues("mock-dex", "filled"))

	RecordDispatch("mock-dex", "filled", 120*time.Millisecond)

	after := testutil.ToFloat64(DispatchResults.WithLabelValues("mock-dex", "filled"))
	if after-before != 1 {
		t.Errorf("Expected dispatch result counter to increase by 1, got %v", after-before)
	}
}

func TestRecordSignalProcessingHistogram(t *testing.T) {
	before := histogramSampleCount(SignalProcessingDuration)

	RecordSignalProcessing(25 * time.Millisecond)
	RecordSignalProcessing(250 * time.Millisecond)

	after := histogramSampleCount(SignalProcessingDuration)
	if after-before != 2 {
		t.Errorf("Expected 2 new observations, got %d", after-before)
	}
}

func TestRecordDispatchObservesLatency(t *testing.T) {
	h, ok := DispatchDuration.WithLabelValues("mock-dex").(prometheus.Metric)
	if !ok {
		t.Fatal("DispatchDuration child does not expose prometheus.Metric")
	}

	beforeCount := histogramSampleCount(h)
	beforeSum := histogramSampleSum(h)

	RecordDispatch("mock-dex", "filled", 40*time.Millisecond)

	if got := histogramSampleCount(h); got-beforeCount != 1 {
		t.Errorf("Expected 1 new latency observation, got %d", got-beforeCount)
	}
	gotSum := histogramSampleSum(h) - beforeSum
	if gotSum < 0.039 || gotSum > 0.041 {
		t.Errorf("Expected sum to grow by ~0.04s, grew by %v", gotSum)
	}
}

func TestRecordDEXError(t *testing.T) {
	before := testutil.ToFloat64(DEXErrors.WithLabelValues("hyperliquid", "DEX_TIMEOUT"))

	RecordDEXError("hyperliquid", "DEX_TIMEOUT")

	after := testutil.ToFloat64(DEXErrors.WithLabelValues("hyperliquid", "DEX_TIMEOUT"))
	if after-before != 1 {
		t.Errorf("Expected DEX error counter to increase by 1, got %v", after-before)
	}
}

func TestSetAdapterStatus(t *testing.T) {
	SetAdapterStatus("mock-dex", StatusHealthy)
	if got := testutil.ToFloat64(AdapterStatus.WithLabelValues("mock-dex")); got != 2 {
		t.Errorf("Expected status gauge 2 (healthy), got %v", got)
	}

	SetAdapterStatus("mock-dex", StatusOffline)
	if got := testutil.ToFloat64(AdapterStatus.WithLabelValues("mock-dex")); got != 0 {
		t.Errorf("Expected status gauge 0 (offline), got %v", got)
	}
}

func TestRecordHealthProbe(t *testing.T) {
	beforeSuccess := testutil.ToFloat64(HealthProbes.WithLabelValues("mock-dex", "success"))
	beforeFailure := testutil.ToFloat64(HealthProbes.WithLabelValues("mock-dex", "failure"))

	RecordHealthProbe("mock-dex", true, 5*time.Millisecond)
	RecordHealthProbe("mock-dex", false, 10*time.Second)

	if got := testutil.ToFloat64(HealthProbes.WithLabelValues("mock-dex", "success")); got-beforeSuccess != 1 {
		t.Errorf("Expected 1 success probe, got %v", got-beforeSuccess)
	}
	if got := testutil.ToFloat64(HealthProbes.WithLabelValues("mock-dex", "failure")); got-beforeFailure != 1 {
		t.Errorf("Expected 1 failure probe, got %v", got-beforeFailure)
	}
}

func TestRecordDBQuery(t *testing.T) {
	tests := []struct {
		name      string
		operation string
		table     string
		duration  time.Duration
		err       error
	}{
		{"successful insert", "INSERT", "signals", 5 * time.Millisecond, nil},
		{"successful select", "SELECT", "executions", 10 * time.Millisecond, nil},
		{"failed insert", "INSERT", "signals", 50 * time.Millisecond, errors.New("constraint violation")},
		{"slow query", "SELECT", "error_log", 2 * time.Second, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			RecordDBQuery(tt.operation, tt.table, tt.duration, tt.err)
		})
	}

	errCount := testutil.ToFloat64(DBQueryErrors.WithLabelValues("INSERT", "signals"))
	if errCount < 1 {
		t.Errorf("Expected at least 1 recorded query error, got %v", errCount)
	}
}

func TestTrackSignalInFlight(t *testing.T) {
	base := testutil.ToFloat64(SignalsInFlight)

	TrackSignalInFlight(true)
	TrackSignalInFlight(true)
	if got := testutil.ToFloat64(SignalsInFlight); got-base != 2 {
		t.Errorf("Expected gauge up by 2, got %v", got-base)
	}

	TrackSignalInFlight(false)
	TrackSignalInFlight(false)
	if got := testutil.ToFloat64(SignalsInFlight); got != base {
		t.Errorf("Expected gauge back to %v, got %v", base, got)
	}
}

func TestRecordAlertSent(t *testing.T) {
	before := testutil.ToFloat64(AlertsSent.WithLabelValues("critical", "nats"))

	RecordAlertSent("critical", "nats")

	after := testutil.ToFloat64(AlertsSent.WithLabelValues("critical", "nats"))
	if after-before != 1 {
		t.Errorf("Expected alert counter to increase by 1, got %v", after-before)
	}
}

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/v1/executions", "200"))

	RecordAPIRequest("GET", "/api/v1/executions", "200", 25*time.Millisecond)

	after := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/v1/executions", "200"))
	if after-before != 1 {
		t.Errorf("Expected API request counter to increase by 1, got %v", after-before)
	}
}
