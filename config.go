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
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/gofiber/fiber/v2"
	"github.com/mattn/go-isatty"

	"github.com/pjscruggs/slogconsole/slogconsoleasync"
)

// envConfig lists the environment variables New consults. Values are kept as
// strings so malformed input can be reported and ignored instead of failing
// construction.
type envConfig struct {
	LogLevel        string `env:"LOG_LEVEL"`
	OverrideConsole string `env:"SLOGCONSOLE_OVERRIDE_CONSOLE"`
	Color           string `env:"SLOGCONSOLE_COLOR"`
	NoColor         string `env:"NO_COLOR"`
	StackTraces     string `env:"SLOGCONSOLE_STACK_TRACES"`
	StorageBucket   string `env:"SLOGCONSOLE_STORAGE_BUCKET"`
	StoragePath     string `env:"SLOGCONSOLE_STORAGE_PATH"`
}

// config is the fully resolved configuration for one Logger.
type config struct {
	level           Level
	invalidLevel    string // rejected level name, reported once after construction
	overrideConsole bool
	color           bool
	stacks          bool
	writer          io.Writer
	clock           func() time.Time
	storage         *StorageOutput
	uploader        Uploader
	asyncOpts       []slogconsoleasync.Option
	fiberApp        *fiber.App
	accessLogSkip   []string
	internal        *slog.Logger
}

// resolveConfig merges explicit options over the environment over defaults.
// The environment is read on every call.
func resolveConfig(o *options) config {
	internal := o.internal
	if internal == nil {
		internal = slog.New(slog.DiscardHandler)
	}

	var vars envConfig
	if err := env.Parse(&vars); err != nil {
		internal.Warn("slogconsole: reading environment failed, using defaults", "error", err)
		vars = envConfig{}
	}

	cfg := config{
		level:         LevelInfo,
		writer:        o.writer,
		clock:         o.clock,
		uploader:      o.uploader,
		asyncOpts:     o.asyncOpts,
		fiberApp:      o.fiberApp,
		accessLogSkip: o.accessLogSkip,
		internal:      internal,
	}
	if cfg.writer == nil {
		cfg.writer = os.Stdout
	}

	switch {
	case o.level != nil:
		cfg.level = *o.level
	case o.levelName != nil:
		cfg.level, cfg.invalidLevel = resolveLevelName(*o.levelName)
	case strings.TrimSpace(vars.LogLevel) != "":
		cfg.level, cfg.invalidLevel = resolveLevelName(vars.LogLevel)
	}

	cfg.overrideConsole = boolSetting(internal, o.overrideConsole, "SLOGCONSOLE_OVERRIDE_CONSOLE", vars.OverrideConsole, true)
	cfg.stacks = boolSetting(internal, o.stacks, "SLOGCONSOLE_STACK_TRACES", vars.StackTraces, true)

	colorDefault := vars.NoColor == "" && isTerminal(cfg.writer)
	cfg.color = boolSetting(internal, o.color, "SLOGCONSOLE_COLOR", vars.Color, colorDefault)

	switch {
	case o.storage != nil:
		if strings.TrimSpace(o.storage.BucketName) != "" {
			dst := *o.storage
			cfg.storage = &dst
		}
	case strings.TrimSpace(vars.StorageBucket) != "":
		cfg.storage = &StorageOutput{
			BucketName: strings.TrimSpace(vars.StorageBucket),
			Path:       strings.TrimSpace(vars.StoragePath),
		}
	}

	return cfg
}

// resolveLevelName returns the parsed level, or info plus the rejected name.
func resolveLevelName(name string) (Level, string) {
	lvl, err := ParseLevel(name)
	if err != nil {
		return LevelInfo, name
	}
	return lvl, ""
}

// boolSetting picks the explicit value, then a valid environment value, then
// the default.
func boolSetting(internal *slog.Logger, explicit *bool, key, raw string, def bool) bool {
	if explicit != nil {
		return *explicit
	}
	return parseBoolEnv(internal, key, raw, def)
}

// parseBoolEnv understands true/false, yes/no, 1/0 and on/off. Empty input
// yields def silently; anything else yields def with a diagnostic.
func parseBoolEnv(internal *slog.Logger, key, raw string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return def
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	default:
		internal.Warn("slogconsole: invalid boolean in environment, using default",
			"key", key, "value", raw, "default", def)
		return def
	}
}

// isTerminal reports whether w is a terminal file descriptor.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
