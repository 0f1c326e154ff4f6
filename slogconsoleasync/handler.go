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

package slogconsoleasync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/caarlos0/env/v11"
)

const defaultQueueSize = 256

// DropMode controls what happens when a record arrives and the queue is full.
type DropMode int

const (
	// DropModeBlock makes the caller wait for queue space.
	DropModeBlock DropMode = iota
	// DropModeDropNewest discards the incoming record.
	DropModeDropNewest
	// DropModeDropOldest evicts the oldest queued record to make room.
	DropModeDropOldest
)

// String returns the environment spelling of the mode.
func (m DropMode) String() string {
	switch m {
	case DropModeDropNewest:
		return "drop_newest"
	case DropModeDropOldest:
		return "drop_oldest"
	default:
		return "block"
	}
}

// ErrFlushTimeout is returned by Close when workers did not drain the queue
// within the configured flush timeout.
var ErrFlushTimeout = errors.New("slogconsoleasync: flush timeout")

// DropHandler observes records that never reached the inner handler.
type DropHandler func(ctx context.Context, rec slog.Record)

// Config holds the wrapper settings.
type Config struct {
	Enabled      bool
	QueueSize    int
	WorkerCount  int
	BatchSize    int
	DropMode     DropMode
	OnDrop       DropHandler
	ErrorWriter  io.Writer
	FlushTimeout time.Duration

	workerStarter func(func())
}

// Option customizes Config.
type Option func(*Config)

// WithEnabled toggles the wrapper. When disabled Wrap returns the inner
// handler unchanged.
func WithEnabled(enabled bool) Option {
	return func(cfg *Config) { cfg.Enabled = enabled }
}

// WithQueueSize sets the queue capacity. Zero makes every Handle call hand
// its record directly to a worker.
func WithQueueSize(size int) Option {
	return func(cfg *Config) { cfg.QueueSize = size }
}

// WithWorkerCount sets how many goroutines drain the queue.
func WithWorkerCount(count int) Option {
	return func(cfg *Config) { cfg.WorkerCount = count }
}

// WithBatchSize sets how many queued records a worker handles per wake-up.
func WithBatchSize(size int) Option {
	return func(cfg *Config) { cfg.BatchSize = size }
}

// WithDropMode sets the overflow strategy.
func WithDropMode(mode DropMode) Option {
	return func(cfg *Config) { cfg.DropMode = mode }
}

// WithOnDrop registers fn for dropped records.
func WithOnDrop(fn DropHandler) Option {
	return func(cfg *Config) { cfg.OnDrop = fn }
}

// WithErrorWriter sends inner handler errors and recovered panics to w.
// A nil w silences them.
func WithErrorWriter(w io.Writer) Option {
	return func(cfg *Config) { cfg.ErrorWriter = w }
}

// WithFlushTimeout bounds how long Close waits for the queue to drain.
func WithFlushTimeout(timeout time.Duration) Option {
	return func(cfg *Config) { cfg.FlushTimeout = timeout }
}

// WithEnv overlays SLOGCONSOLE_ASYNC_* environment variables on top of the
// options applied so far.
func WithEnv() Option {
	return func(cfg *Config) { applyEnv(cfg) }
}

// Handler queues records and hands them to an inner handler from worker
// goroutines. Log calls return as soon as the record is queued.
type Handler struct {
	inner  slog.Handler
	mode   DropMode
	onDrop DropHandler
	shared *queueState
}

type queueState struct {
	queue        chan job
	wg           sync.WaitGroup
	closed       atomic.Bool
	closeOnce    sync.Once
	closeErr     error
	flushTimeout time.Duration
	closeInner   func() error
	errWriter    io.Writer
}

type job struct {
	ctx     context.Context
	rec     slog.Record
	handler slog.Handler
}

// Wrap returns inner wrapped in a Handler, or inner itself when the
// resulting configuration is disabled.
func Wrap(inner slog.Handler, opts ...Option) slog.Handler {
	cfg := buildConfig(opts)
	if !cfg.Enabled {
		return inner
	}
	return newHandler(inner, cfg)
}

func newHandler(inner slog.Handler, cfg Config) *Handler {
	shared := &queueState{
		queue:        make(chan job, cfg.QueueSize),
		flushTimeout: cfg.FlushTimeout,
		closeInner:   closerFor(inner),
		errWriter:    cfg.ErrorWriter,
	}

	start := func() {
		shared.wg.Add(cfg.WorkerCount)
		for range cfg.WorkerCount {
			go shared.work(cfg.BatchSize)
		}
	}
	if cfg.workerStarter != nil {
		cfg.workerStarter(start)
	} else {
		start()
	}

	return &Handler{inner: inner, mode: cfg.DropMode, onDrop: cfg.OnDrop, shared: shared}
}

// work drains the queue until it is closed, handling up to batch records
// per wake-up.
func (s *queueState) work(batch int) {
	defer s.wg.Done()
	for first := range s.queue {
		s.run(first)
		for n := 1; n < batch; n++ {
			var (
				next job
				ok   bool
			)
			select {
			case next, ok = <-s.queue:
			default:
			}
			if !ok {
				break
			}
			s.run(next)
		}
	}
}

// run invokes the inner handler, reporting errors and panics.
func (s *queueState) run(j job) {
	defer func() {
		if r := recover(); r != nil {
			s.report("slogconsoleasync: recovered panic from handler: %v\n", r)
		}
	}()
	if err := j.handler.Handle(j.ctx, j.rec); err != nil {
		s.report("slogconsoleasync: handler error: %v\n", err)
	}
}

func (s *queueState) report(format string, args ...any) {
	if s.errWriter == nil {
		return
	}
	_, _ = fmt.Fprintf(s.errWriter, format, args...)
}

// Enabled defers to the inner handler.
func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle queues a copy of rec. Records arriving after Close are dropped.
// The context is detached from cancellation because the record outlives the
// log call.
func (h *Handler) Handle(ctx context.Context, rec slog.Record) error {
	if ctx == nil {
		ctx = context.Background()
	}
	j := job{ctx: context.WithoutCancel(ctx), rec: rec.Clone(), handler: h.inner}
	if h.shared.closed.Load() {
		h.drop(j)
		return nil
	}
	h.enqueue(j)
	return nil
}

// WithAttrs returns a child sharing the same queue and workers.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &Handler{inner: h.inner.WithAttrs(attrs), mode: h.mode, onDrop: h.onDrop, shared: h.shared}
}

// WithGroup returns a child sharing the same queue and workers.
func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{inner: h.inner.WithGroup(name), mode: h.mode, onDrop: h.onDrop, shared: h.shared}
}

func (h *Handler) drop(j job) {
	if h.onDrop != nil && j.handler != nil {
		h.onDrop(j.ctx, j.rec)
	}
}

// enqueue applies the drop mode. A send racing with Close panics on the
// closed channel; the record is then reported as dropped.
func (h *Handler) enqueue(j job) {
	defer func() {
		if recover() != nil {
			h.drop(j)
		}
	}()

	queue := h.shared.queue
	switch h.mode {
	case DropModeDropNewest:
		select {
		case queue <- j:
		default:
			h.drop(j)
		}
	case DropModeDropOldest:
		select {
		case queue <- j:
			return
		default:
		}
		select {
		case evicted := <-queue:
			h.drop(evicted)
		default:
		}
		select {
		case queue <- j:
		default:
			h.drop(j)
		}
	default:
		queue <- j
	}
}

// Close stops accepting records, waits for the queue to drain (bounded by
// the flush timeout) and closes the inner handler when it has a Close
// method. It is safe to call more than once.
func (h *Handler) Close() error {
	if h == nil || h.shared == nil {
		return nil
	}
	s := h.shared
	s.closeOnce.Do(func() {
		if s.closed.CompareAndSwap(false, true) {
			close(s.queue)
		}

		done := make(chan struct{})
		go func() {
			s.wg.Wait()
			close(done)
		}()

		if s.flushTimeout > 0 {
			select {
			case <-done:
			case <-time.After(s.flushTimeout):
				s.closeErr = ErrFlushTimeout
			}
		} else {
			<-done
		}

		if s.closeInner != nil {
			if err := s.closeInner(); err != nil && s.closeErr == nil {
				s.closeErr = err
			}
		}
	})
	return s.closeErr
}

// closerFor returns inner's Close method when it has one.
func closerFor(inner slog.Handler) func() error {
	switch c := inner.(type) {
	case interface{ Close() error }:
		return c.Close
	case interface{ Close() }:
		return func() error {
			c.Close()
			return nil
		}
	default:
		return nil
	}
}

func buildConfig(opts []Option) Config {
	cfg := Config{
		Enabled:     true,
		QueueSize:   defaultQueueSize,
		WorkerCount: 1,
		BatchSize:   1,
		DropMode:    DropModeBlock,
		ErrorWriter: os.Stderr,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	if cfg.QueueSize < 0 {
		cfg.QueueSize = defaultQueueSize
	}
	if cfg.WorkerCount < 1 {
		cfg.WorkerCount = 1
	}
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 1
	}
	return cfg
}

// envConfig mirrors the SLOGCONSOLE_ASYNC_* variables. Pointer fields stay
// nil when the variable is unset so only present values override Config.
type envConfig struct {
	Enabled      *string        `env:"SLOGCONSOLE_ASYNC_ENABLED"`
	QueueSize    *int           `env:"SLOGCONSOLE_ASYNC_QUEUE_SIZE"`
	Workers      *int           `env:"SLOGCONSOLE_ASYNC_WORKERS"`
	BatchSize    *int           `env:"SLOGCONSOLE_ASYNC_BATCH_SIZE"`
	DropMode     *string        `env:"SLOGCONSOLE_ASYNC_DROP_MODE"`
	FlushTimeout *time.Duration `env:"SLOGCONSOLE_ASYNC_FLUSH_TIMEOUT"`
}

// applyEnv overlays environment values onto cfg. A malformed number or
// duration skips the whole overlay; unknown drop modes and booleans are
// ignored individually.
func applyEnv(cfg *Config) {
	var vars envConfig
	if err := env.Parse(&vars); err != nil {
		return
	}

	if vars.Enabled != nil {
		if enabled, ok := parseBool(*vars.Enabled); ok {
			cfg.Enabled = enabled
		}
	}
	if vars.QueueSize != nil {
		cfg.QueueSize = *vars.QueueSize
	}
	if vars.Workers != nil {
		cfg.WorkerCount = *vars.Workers
	}
	if vars.BatchSize != nil {
		cfg.BatchSize = *vars.BatchSize
	}
	if vars.DropMode != nil {
		if mode, ok := parseDropMode(*vars.DropMode); ok {
			cfg.DropMode = mode
		}
	}
	if vars.FlushTimeout != nil {
		cfg.FlushTimeout = *vars.FlushTimeout
	}
}

func parseDropMode(raw string) (DropMode, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "block":
		return DropModeBlock, true
	case "drop_newest", "drop-newest":
		return DropModeDropNewest, true
	case "drop_oldest", "drop-oldest":
		return DropModeDropOldest, true
	default:
		return DropModeBlock, false
	}
}

// parseBool accepts 1/t/true/yes/on and 0/f/false/no/off.
func parseBool(raw string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "t", "true", "yes", "on":
		return true, true
	case "0", "f", "false", "no", "off":
		return false, true
	default:
		return false, false
	}
}
