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

package slogconsole

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pjscruggs/slogconsole/internal/accesslog"
)

// Logger writes timestamped lines to the console and, when configured,
// persists records to object storage. Its methods are safe for concurrent
// use.
type Logger struct {
	slogger  *slog.Logger
	handler  slog.Handler
	level    *slog.LevelVar
	out      *SwitchableWriter
	stacks   bool
	internal *slog.Logger

	console *consoleOverride // guarded by activeMu
	storage slog.Handler     // nil without object storage

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// New builds a Logger. It never fails: invalid settings fall back to
// defaults and are reported through the returned logger or the internal
// logger.
//
// Unless console override is disabled, the new logger replaces the default
// slog logger and the standard log output until Close, and becomes the
// logger returned by Default.
func New(opts ...Option) *Logger {
	o := &options{}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	cfg := resolveConfig(o)

	levelVar := new(slog.LevelVar)
	levelVar.Set(slog.Level(cfg.level))

	l := &Logger{
		level:    levelVar,
		out:      NewSwitchableWriter(cfg.writer),
		stacks:   cfg.stacks,
		internal: cfg.internal,
	}

	console := newConsoleHandler(&handlerState{
		out:     l.out,
		leveler: levelVar,
		color:   cfg.color,
		stacks:  cfg.stacks,
		clock:   cfg.clock,
	})
	handlers := []slog.Handler{console}

	var storageErr error
	if cfg.storage != nil {
		sink, err := newStorageSink(cfg, levelVar)
		if err != nil {
			storageErr = err
		} else {
			l.storage = sink
			handlers = append(handlers, sink)
		}
	}

	l.handler = newFanoutHandler(handlers...)
	l.slogger = slog.New(l.handler)

	if cfg.overrideConsole {
		activate(l)
	}
	if cfg.fiberApp != nil {
		cfg.fiberApp.Use(accesslog.Fiber(l.Writer(LevelInfo), accesslog.WithSkipPrefixes(cfg.accessLogSkip...)))
	}

	if cfg.invalidLevel != "" {
		l.Warn(fmt.Sprintf("invalid log level %q, falling back to %s", cfg.invalidLevel, LevelInfo))
	}
	if storageErr != nil {
		l.Warn(fmt.Sprintf("object storage output disabled: %v", storageErr))
	}
	return l
}

// Error logs args at error level.
func (l *Logger) Error(args ...any) { l.log(context.Background(), LevelError, args) }

// Warn logs args at warn level.
func (l *Logger) Warn(args ...any) { l.log(context.Background(), LevelWarn, args) }

// Info logs args at info level.
func (l *Logger) Info(args ...any) { l.log(context.Background(), LevelInfo, args) }

// Verbose logs args at verbose level.
func (l *Logger) Verbose(args ...any) { l.log(context.Background(), LevelVerbose, args) }

// Debug logs args at debug level.
func (l *Logger) Debug(args ...any) { l.log(context.Background(), LevelDebug, args) }

// Silly logs args at silly level.
func (l *Logger) Silly(args ...any) { l.log(context.Background(), LevelSilly, args) }

// Log logs args at level with ctx passed to the handlers.
func (l *Logger) Log(ctx context.Context, level Level, args ...any) {
	l.log(ctx, level, args)
}

// log renders args only when level is enabled. The record's source is the
// caller of the exported method.
func (l *Logger) log(ctx context.Context, level Level, args []any) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !l.handler.Enabled(ctx, slog.Level(level)) {
		return
	}

	var pcs [1]uintptr
	runtime.Callers(3, pcs[:]) // runtime.Callers, log, exported method
	r := slog.NewRecord(time.Now(), slog.Level(level), formatArgs(args, l.stacks), pcs[0])
	if err := l.handler.Handle(ctx, r); err != nil {
		l.internal.Warn("slogconsole: writing log record failed", "error", err)
	}
}

// Slog returns a *slog.Logger sharing this logger's sinks and threshold.
func (l *Logger) Slog() *slog.Logger { return l.slogger }

// Handler returns the handler behind Slog.
func (l *Logger) Handler() slog.Handler { return l.handler }

// Level returns the current threshold.
func (l *Logger) Level() Level { return Level(l.level.Level()) }

// SetLevel changes the threshold for every sink.
func (l *Logger) SetLevel(level Level) { l.level.Set(slog.Level(level)) }

// SetOutput redirects console output. A nil writer discards it.
func (l *Logger) SetOutput(w io.Writer) { l.out.SetWriter(w) }

// Close restores the console override, drains pending uploads and waits
// for them to finish. It is safe to call more than once; later calls return
// the first result.
func (l *Logger) Close() error {
	l.closeOnce.Do(func() {
		l.closed.Store(true)
		deactivate(l)

		var errs []error
		if c, ok := l.storage.(interface{ Close() error }); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close object storage output: %w", err))
			}
		}
		l.closeErr = errors.Join(errs...)
	})
	return l.closeErr
}
