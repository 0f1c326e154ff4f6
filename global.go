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

import "sync"

var (
	activeMu sync.Mutex
	active   *Logger // owns the console override

	defaultMu sync.Mutex
	fallback  *Logger // built by Default when no logger is active
)

// activate installs l's console override, first restoring the override of
// the previously active logger.
func activate(l *Logger) {
	activeMu.Lock()
	defer activeMu.Unlock()

	if active != nil && active != l {
		active.console.restore()
	}
	l.console = installConsole(l.handler)
	active = l
}

// deactivate restores l's console override and clears it as the active
// logger.
func deactivate(l *Logger) {
	activeMu.Lock()
	defer activeMu.Unlock()

	if active == l {
		active = nil
	}
	l.console.restore()
}

func currentActive() *Logger {
	activeMu.Lock()
	defer activeMu.Unlock()
	return active
}

// overrideLost reports whether l installed a console override that has since
// been undone by another logger taking over.
func (l *Logger) overrideLost() bool {
	activeMu.Lock()
	defer activeMu.Unlock()
	return l.console != nil && l.console.restored
}

// Default returns the active logger. When none is active it returns a
// logger built from the environment on first use and kept for later calls.
// A kept logger whose console override was taken over is closed and rebuilt.
func Default() *Logger {
	if l := currentActive(); l != nil {
		return l
	}

	defaultMu.Lock()
	defer defaultMu.Unlock()
	if fallback != nil && !fallback.closed.Load() && fallback.overrideLost() {
		_ = fallback.Close()
	}
	if fallback == nil || fallback.closed.Load() {
		fallback = New()
	}
	return fallback
}
