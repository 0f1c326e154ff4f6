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
	"io"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/pjscruggs/slogconsole/slogconsoleasync"
)

// Option configures a Logger created by New. Options are applied in order;
// later options override earlier ones and every option overrides the
// environment.
type Option func(*options)

// options records explicit choices. Pointer fields distinguish an explicit
// zero value from an unset option that falls back to the environment.
type options struct {
	fiberApp        *fiber.App
	accessLogSkip   []string
	storage         *StorageOutput
	levelName       *string
	level           *Level
	overrideConsole *bool
	writer          io.Writer
	color           *bool
	stacks          *bool
	clock           func() time.Time
	uploader        Uploader
	asyncOpts       []slogconsoleasync.Option
	internal        *slog.Logger
}

// WithFiberApp attaches request logging middleware to app. Each request is
// written as one short-format access line at info level.
func WithFiberApp(app *fiber.App) Option {
	return func(o *options) {
		o.fiberApp = app
	}
}

// WithAccessLogSkip excludes requests whose path starts with any of the
// given prefixes from the fiber access log.
func WithAccessLogSkip(prefixes ...string) Option {
	return func(o *options) {
		o.accessLogSkip = append(o.accessLogSkip, prefixes...)
	}
}

// WithStorage persists every enabled record to object storage under
// out.Path in the bucket out.BucketName. An empty BucketName disables the
// sink, including any destination taken from the environment.
func WithStorage(out StorageOutput) Option {
	return func(o *options) {
		dst := out
		o.storage = &dst
	}
}

// WithLevelName sets the threshold by name: error, warn, info, verbose,
// debug or silly. An unknown name falls back to info and the new logger
// reports it once at warn level. Overrides LOG_LEVEL.
func WithLevelName(name string) Option {
	return func(o *options) {
		n := name
		o.levelName = &n
		o.level = nil
	}
}

// WithLevel sets the threshold. Overrides LOG_LEVEL.
func WithLevel(level Level) Option {
	return func(o *options) {
		lvl := level
		o.level = &lvl
		o.levelName = nil
	}
}

// WithConsoleOverride controls whether the logger takes over the standard
// log package and the default slog logger. Enabled unless disabled here or
// through SLOGCONSOLE_OVERRIDE_CONSOLE.
func WithConsoleOverride(enabled bool) Option {
	return func(o *options) {
		v := enabled
		o.overrideConsole = &v
	}
}

// WithWriter redirects console output, which otherwise goes to os.Stdout.
func WithWriter(w io.Writer) Option {
	return func(o *options) {
		o.writer = w
	}
}

// WithColor forces level colorizing on or off.
func WithColor(enabled bool) Option {
	return func(o *options) {
		v := enabled
		o.color = &v
	}
}

// WithStackTraces controls whether logged errors carry a stack trace.
func WithStackTraces(enabled bool) Option {
	return func(o *options) {
		v := enabled
		o.stacks = &v
	}
}

// WithClock replaces the timestamp source. Mostly useful in tests.
func WithClock(clock func() time.Time) Option {
	return func(o *options) {
		o.clock = clock
	}
}

// WithUploader injects the object storage client used by the storage sink.
func WithUploader(u Uploader) Option {
	return func(o *options) {
		o.uploader = u
	}
}

// WithStorageAsync tunes the queue that decouples uploads from log calls.
func WithStorageAsync(opts ...slogconsoleasync.Option) Option {
	return func(o *options) {
		o.asyncOpts = append(o.asyncOpts, opts...)
	}
}

// WithInternalLogger receives the logger's own diagnostics, such as
// rejected environment values or storage setup failures.
func WithInternalLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.internal = logger
	}
}
