// Copyright 2025 Patrick J. Scruggs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package slogconsolehttp

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/pjscruggs/slogconsole"
	"github.com/pjscruggs/slogconsole/internal/accesslog"
)

const instrumentationName = "github.com/pjscruggs/slogconsole/slogconsolehttp"

// Middleware returns middleware that stores logger in the request context
// and logs an access line once the wrapped handler returns. A nil logger
// resolves to slogconsole.Default at request time.
func Middleware(logger *slogconsole.Logger, opts ...Option) func(http.Handler) http.Handler {
	cfg := applyOptions(opts)

	return func(next http.Handler) http.Handler {
		if next == nil {
			next = http.NotFoundHandler()
		}

		chain := wrapWithOTel(cfg, buildLoggingHandler(cfg, logger, next))

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if accesslog.Skip(r.URL.Path, accesslog.WithSkipPrefixes(cfg.skipPrefixes...)) {
				next.ServeHTTP(w, r)
				return
			}
			if ctx := extractSpanContext(r.Context(), r, cfg); ctx != r.Context() {
				r = r.WithContext(ctx)
			}
			chain.ServeHTTP(w, r)
		})
	}
}

func buildLoggingHandler(cfg *config, logger *slogconsole.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log := logger
		if log == nil {
			log = slogconsole.Default()
		}
		r = r.WithContext(slogconsole.ContextWithLogger(r.Context(), log))

		recorder := &responseRecorder{ResponseWriter: w}
		defer func() {
			log.Log(r.Context(), cfg.level, accessLine(cfg, r, recorder, time.Since(start)))
		}()

		next.ServeHTTP(recorder, r)
	})
}

// accessLine renders the short-format line, with the trace id appended when
// the request carries one.
func accessLine(cfg *config, r *http.Request, rec *responseRecorder, d time.Duration) string {
	entry := accesslog.Entry{
		RemoteAddr:    accesslog.RemoteHost(r.RemoteAddr),
		RemoteUser:    accesslog.RemoteUser(r.Header.Get("Authorization")),
		Method:        r.Method,
		URL:           r.URL.RequestURI(),
		HTTPVersion:   accesslog.Version(r.ProtoMajor, r.ProtoMinor),
		Status:        rec.Status(),
		ContentLength: rec.ContentLength(),
		Duration:      d,
	}
	line := entry.Short()
	if !cfg.includeTraceID {
		return line
	}
	if sc := trace.SpanContextFromContext(r.Context()); sc.HasTraceID() {
		line += " trace_id=" + sc.TraceID().String()
	}
	return line
}

func wrapWithOTel(cfg *config, handler http.Handler) http.Handler {
	if !cfg.enableOTel {
		return handler
	}
	return otelhttp.NewHandler(handler, instrumentationName, otelOptions(cfg)...)
}

func otelOptions(cfg *config) []otelhttp.Option {
	var otelOpts []otelhttp.Option
	if cfg.tracerProvider != nil {
		otelOpts = append(otelOpts, otelhttp.WithTracerProvider(cfg.tracerProvider))
	}
	if cfg.propagatorsSet && cfg.propagators != nil {
		otelOpts = append(otelOpts, otelhttp.WithPropagators(cfg.propagators))
	}
	if cfg.spanNameFormatter != nil {
		otelOpts = append(otelOpts, otelhttp.WithSpanNameFormatter(cfg.spanNameFormatter))
	}
	for _, filter := range cfg.filters {
		otelOpts = append(otelOpts, otelhttp.WithFilter(filter))
	}
	return otelOpts
}

// extractSpanContext returns ctx carrying the remote span context found in
// the request headers, or ctx unchanged when it already has a valid span
// context or the headers carry none.
func extractSpanContext(ctx context.Context, r *http.Request, cfg *config) context.Context {
	if trace.SpanContextFromContext(ctx).IsValid() {
		return ctx
	}
	propagator := cfg.propagators
	if propagator == nil {
		if cfg.propagatorsSet {
			return ctx
		}
		propagator = otel.GetTextMapPropagator()
	}

	extracted := propagator.Extract(ctx, propagation.HeaderCarrier(r.Header))
	if !trace.SpanContextFromContext(extracted).IsValid() {
		return ctx
	}
	return extracted
}

// responseRecorder captures status and size for the access line.
type responseRecorder struct {
	http.ResponseWriter
	status       int
	wroteHeader  bool
	bytesWritten int64
}

// WriteHeader records the first status code before delegating.
func (rr *responseRecorder) WriteHeader(status int) {
	if !rr.wroteHeader {
		rr.status = status
		rr.wroteHeader = true
	}
	rr.ResponseWriter.WriteHeader(status)
}

// Write counts body bytes.
func (rr *responseRecorder) Write(p []byte) (int, error) {
	if !rr.wroteHeader {
		rr.WriteHeader(http.StatusOK)
	}
	n, err := rr.ResponseWriter.Write(p)
	rr.bytesWritten += int64(n)
	if err != nil {
		return n, fmt.Errorf("write response body: %w", err)
	}
	return n, nil
}

// ReadFrom keeps io.Copy fast paths while counting bytes.
func (rr *responseRecorder) ReadFrom(src io.Reader) (int64, error) {
	if !rr.wroteHeader {
		rr.WriteHeader(http.StatusOK)
	}
	var (
		n   int64
		err error
	)
	if rf, ok := rr.ResponseWriter.(io.ReaderFrom); ok {
		n, err = rf.ReadFrom(src)
	} else {
		n, err = io.Copy(rr.ResponseWriter, src)
	}
	rr.bytesWritten += n
	if err != nil {
		return n, fmt.Errorf("copy response body: %w", err)
	}
	return n, nil
}

// Status returns the written status, 200 when the handler never set one.
func (rr *responseRecorder) Status() int {
	if rr.status == 0 {
		return http.StatusOK
	}
	return rr.status
}

// ContentLength prefers the Content-Length header and falls back to the
// number of body bytes written. Bodyless responses report none.
func (rr *responseRecorder) ContentLength() string {
	switch status := rr.Status(); {
	case status == http.StatusNoContent, status == http.StatusNotModified, status < 200:
		return ""
	}
	if cl := strings.TrimSpace(rr.Header().Get("Content-Length")); cl != "" {
		return cl
	}
	return strconv.FormatInt(rr.bytesWritten, 10)
}

// Unwrap exposes the underlying writer to http.ResponseController.
func (rr *responseRecorder) Unwrap() http.ResponseWriter {
	return rr.ResponseWriter
}

// Flush forwards to the wrapped writer when it supports http.Flusher.
func (rr *responseRecorder) Flush() {
	if flusher, ok := rr.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// Hijack forwards to the wrapped writer when it supports http.Hijacker.
func (rr *responseRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hijacker, ok := rr.ResponseWriter.(http.Hijacker); ok {
		conn, rw, err := hijacker.Hijack()
		if err != nil {
			return nil, nil, fmt.Errorf("hijack connection: %w", err)
		}
		return conn, rw, nil
	}
	return nil, nil, http.ErrNotSupported
}
