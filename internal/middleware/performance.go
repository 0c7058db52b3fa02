// Signalmesh - Webhook Trade Signal Fan-Out Across Decentralized Exchanges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signalmesh

package middleware

import (
	"net/http"
	"sort"
	"sync"
	"time"
)

// RequestMetrics captures one request's timing for latency statistics.
type RequestMetrics struct {
	Path       string    `json:"path"`
	Method     string    `json:"method"`
	DurationMS float64   `json:"duration_ms"`
	StatusCode int       `json:"status_code"`
	Timestamp  time.Time `json:"timestamp"`
}

// EndpointStats summarises latencies for one method+path pair.
type EndpointStats struct {
	Path         string  `json:"path"`
	Method       string  `json:"method"`
	Count        int64   `json:"count"`
	TotalMS      float64 `json:"total_ms"`
	MinMS        float64 `json:"min_ms"`
	MaxMS        float64 `json:"max_ms"`
	AvgMS        float64 `json:"avg_ms"`
	P50MS        float64 `json:"p50_ms"`
	P95MS        float64 `json:"p95_ms"`
	P99MS        float64 `json:"p99_ms"`
	ErrorCount   int64   `json:"error_count"`
	LastAccessed string  `json:"last_accessed"`
}

// PerformanceMonitor keeps a sliding window of request timings and derives
// per-endpoint percentiles. The window is bounded so memory stays flat no
// matter how long the process runs.
type PerformanceMonitor struct {
	mu         sync.RWMutex
	metrics    []RequestMetrics
	maxMetrics int
	stats      map[string]*EndpointStats
}

// NewPerformanceMonitor creates a monitor retaining up to maxMetrics samples.
func NewPerformanceMonitor(maxMetrics int) *PerformanceMonitor {
	if maxMetrics <= 0 {
		maxMetrics = 10000
	}
	return &PerformanceMonitor{
		metrics:    make([]RequestMetrics, 0, maxMetrics),
		maxMetrics: maxMetrics,
		stats:      make(map[string]*EndpointStats),
	}
}

// Record adds a single request sample to the window.
func (pm *PerformanceMonitor) Record(metric RequestMetrics) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	pm.metrics = append(pm.metrics, metric)
	if len(pm.metrics) > pm.maxMetrics {
		pm.metrics = pm.metrics[len(pm.metrics)-pm.maxMetrics:]
	}

	key := metric.Method + " " + metric.Path
	stat, ok := pm.stats[key]
	if !ok {
		stat = &EndpointStats{
			Path:   metric.Path,
			Method: metric.Method,
			MinMS:  metric.DurationMS,
		}
		pm.stats[key] = stat
	}

	stat.Count++
	stat.TotalMS += metric.DurationMS
	stat.AvgMS = stat.TotalMS / float64(stat.Count)
	if metric.DurationMS < stat.MinMS {
		stat.MinMS = metric.DurationMS
	}
	if metric.DurationMS > stat.MaxMS {
		stat.MaxMS = metric.DurationMS
	}
	if metric.StatusCode >= 400 {
		stat.ErrorCount++
	}
	stat.LastAccessed = metric.Timestamp.UTC().Format(time.RFC3339)
}

// Stats returns a snapshot of per-endpoint statistics with percentiles
// computed from the current window.
func (pm *PerformanceMonitor) Stats() []EndpointStats {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	durations := make(map[string][]float64)
	for _, m := range pm.metrics {
		key := m.Method + " " + m.Path
		durations[key] = append(durations[key], m.DurationMS)
	}

	out := make([]EndpointStats, 0, len(pm.stats))
	for key, stat := range pm.stats {
		s := *stat
		if samples := durations[key]; len(samples) > 0 {
			sorted := make([]float64, len(samples))
			copy(sorted, samples)
			sort.Float64s(sorted)
			s.P50MS = percentile(sorted, 50)
			s.P95MS = percentile(sorted, 95)
			s.P99MS = percentile(sorted, 99)
		}
		out = append(out, s)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Path == out[j].Path {
			return out[i].Method < out[j].Method
		}
		return out[i].Path < out[j].Path
	})
	return out
}

// SampleCount reports how many samples are currently in the window.
func (pm *PerformanceMonitor) SampleCount() int {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return len(pm.metrics)
}

// percentile expects sorted input. Uses nearest-rank on the sorted slice.
func percentile(sorted []float64, p int) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (len(sorted)*p + 99) / 100
	if idx < 1 {
		idx = 1
	}
	if idx > len(sorted) {
		idx = len(sorted)
	}
	return sorted[idx-1]
}

// perfResponseWriter captures the status code for performance tracking
type perfResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *perfResponseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware records request timing into the monitor.
func (pm *PerformanceMonitor) Middleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &perfResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next(rw, r)

		pm.Record(RequestMetrics{
			Path:       r.URL.Path,
			Method:     r.Method,
			DurationMS: float64(time.Since(start).Microseconds()) / 1000.0,
			StatusCode: rw.statusCode,
			Timestamp:  time.Now(),
		})
	}
}
