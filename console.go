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
	"log"
	"log/slog"
	"sync"
)

// consoleOverride remembers the process-wide logging state replaced when a
// Logger takes over the standard log package and the default slog logger.
type consoleOverride struct {
	prevDefault *slog.Logger
	prevWriter  io.Writer
	prevFlags   int
	prevPrefix  string
	restoreOnce sync.Once
	restored    bool // guarded by activeMu
}

// installConsole routes slog's package-level functions and log.Print* through
// handler. slog.SetDefault also points the log package at handler at info
// level and clears its flags so no second timestamp is printed.
func installConsole(handler slog.Handler) *consoleOverride {
	c := &consoleOverride{
		prevDefault: slog.Default(),
		prevWriter:  log.Writer(),
		prevFlags:   log.Flags(),
		prevPrefix:  log.Prefix(),
	}
	log.SetPrefix("")
	slog.SetDefault(slog.New(handler))
	return c
}

// restore puts back the state captured by installConsole. Only the first call
// has an effect.
func (c *consoleOverride) restore() {
	if c == nil {
		return
	}
	c.restoreOnce.Do(func() {
		slog.SetDefault(c.prevDefault)
		log.SetOutput(c.prevWriter)
		log.SetFlags(c.prevFlags)
		log.SetPrefix(c.prevPrefix)
		c.restored = true
	})
}
