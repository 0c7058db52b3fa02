// Signalmesh - Webhook Trade Signal Fan-Out Across Decentralized Exchanges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signalmesh

package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"
	"sync"
)

// minCompressSize is the response size below which compression is skipped.
// Gzip overhead (header plus dictionary warmup) outweighs the savings for
// tiny JSON bodies, and most webhook acks and health probes fit well under
// this line.
const minCompressSize = 1 << 10

// gzipWriterPool pools gzip writers to reduce allocations
var gzipWriterPool = sync.Pool{
	New: func() interface{} {
		return gzip.NewWriter(io.Discard)
	},
}

// gzipResponseWriter buffers the response until minCompressSize is reached,
// then switches to gzip. Responses that finish below the threshold are sent
// identity-encoded. The status code is held back until the encoding decision
// because Content-Encoding must precede WriteHeader.
type gzipResponseWriter struct {
	http.ResponseWriter
	gz          *gzip.Writer
	buf         []byte
	status      int
	headerSent  bool
	compressing bool
}

func (w *gzipResponseWriter) WriteHeader(status int) {
	if w.status == 0 {
		w.status = status
	}
}

func (w *gzipResponseWriter) Write(b []byte) (int, error) {
	if w.headerSent {
		if w.compressing {
			return w.gz.Write(b)
		}
		return w.ResponseWriter.Write(b)
	}

	w.buf = append(w.buf, b...)
	if len(w.buf) >= minCompressSize {
		if err := w.beginGzip(); err != nil {
			return 0, err
		}
	}
	return len(b), nil
}

// beginGzip commits to compressed output and drains the buffer through the
// gzip writer.
func (w *gzipResponseWriter) beginGzip() error {
	w.ResponseWriter.Header().Set("Content-Encoding", "gzip")
	w.ResponseWriter.Header().Del("Content-Length") // length changes after compression
	w.sendHeader()

	w.gz = gzipWriterPool.Get().(*gzip.Writer)
	w.gz.Reset(w.ResponseWriter)
	w.compressing = true

	_, err := w.gz.Write(w.buf)
	w.buf = nil
	return err
}

func (w *gzipResponseWriter) sendHeader() {
	status := w.status
	if status == 0 {
		status = http.StatusOK
	}
	w.ResponseWriter.WriteHeader(status)
	w.headerSent = true
}

// finish flushes pending output once the handler returns. Sub-threshold
// responses go out unmodified; compressed ones get their gzip trailer.
func (w *gzipResponseWriter) finish() {
	if w.compressing {
		_ = w.gz.Close() // best-effort, response already streaming
		gzipWriterPool.Put(w.gz)
		w.gz = nil
		return
	}

	if w.status != 0 || len(w.buf) > 0 {
		w.sendHeader()
	}
	if len(w.buf) > 0 {
		_, _ = w.ResponseWriter.Write(w.buf)
	}
}

// Compression adds gzip compression for clients that accept it. Execution
// and error listings repeat field names heavily, so operator API pages
// compress well; small responses pass through untouched.
func Compression(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			next(w, r)
			return
		}

		gzw := &gzipResponseWriter{ResponseWriter: w}
		next(gzw, r)
		gzw.finish()
	}
}
