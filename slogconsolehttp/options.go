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
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/pjscruggs/slogconsole"
)

// Option configures the access log middleware.
type Option func(*config)

type config struct {
	level             slogconsole.Level
	enableOTel        bool
	tracerProvider    trace.TracerProvider
	propagators       propagation.TextMapPropagator
	propagatorsSet    bool
	spanNameFormatter func(string, *http.Request) string
	filters           []otelhttp.Filter
	skipPrefixes      []string
	includeTraceID    bool
}

func defaultConfig() *config {
	return &config{
		level:          slogconsole.LevelInfo,
		enableOTel:     true,
		includeTraceID: true,
	}
}

func applyOptions(opts []Option) *config {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	return cfg
}

// WithLevel sets the level access lines are logged at. Defaults to info.
func WithLevel(level slogconsole.Level) Option {
	return func(cfg *config) {
		cfg.level = level
	}
}

// WithOTel enables or disables otelhttp instrumentation. Enabled by default.
func WithOTel(enabled bool) Option {
	return func(cfg *config) {
		cfg.enableOTel = enabled
	}
}

// WithTracerProvider sets the tracer provider handed to otelhttp.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(cfg *config) {
		cfg.tracerProvider = tp
	}
}

// WithPropagators sets the propagator used to extract incoming trace
// context. When omitted, otel.GetTextMapPropagator() is used.
func WithPropagators(p propagation.TextMapPropagator) Option {
	return func(cfg *config) {
		cfg.propagators = p
		cfg.propagatorsSet = true
	}
}

// WithSpanNameFormatter customizes otelhttp span names.
func WithSpanNameFormatter(formatter func(string, *http.Request) string) Option {
	return func(cfg *config) {
		cfg.spanNameFormatter = formatter
	}
}

// WithFilter appends an otelhttp filter.
func WithFilter(filter otelhttp.Filter) Option {
	return func(cfg *config) {
		if filter != nil {
			cfg.filters = append(cfg.filters, filter)
		}
	}
}

// WithSkipPrefixes stops requests whose path starts with any of prefixes
// from being logged or traced.
func WithSkipPrefixes(prefixes ...string) Option {
	return func(cfg *config) {
		cfg.skipPrefixes = append(cfg.skipPrefixes, prefixes...)
	}
}

// WithTraceID toggles the " trace_id=<id>" suffix on access lines for
// requests carrying a valid trace. Enabled by default.
func WithTraceID(enabled bool) Option {
	return func(cfg *config) {
		cfg.includeTraceID = enabled
	}
}
