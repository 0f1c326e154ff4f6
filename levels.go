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
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Level represents the severity of a log event. It keeps the integer
// representation of slog.Level so that the six console severities can be
// handed to any slog API, and adds the two levels slog does not define:
// verbose (between debug and info) and silly (below debug).
type Level slog.Level

// Severity levels, ordered from least to most severe. The spacing matches
// slog's own levels so LevelDebug, LevelInfo, LevelWarn and LevelError are
// interchangeable with their slog counterparts.
const (
	// LevelSilly is the chattiest level, below debug.
	LevelSilly Level = -8

	// LevelDebug matches slog.LevelDebug.
	LevelDebug Level = Level(slog.LevelDebug) // -4

	// LevelVerbose sits between debug and info.
	LevelVerbose Level = -2

	// LevelInfo matches slog.LevelInfo and is the default threshold.
	LevelInfo Level = Level(slog.LevelInfo) // 0

	// LevelWarn matches slog.LevelWarn.
	LevelWarn Level = Level(slog.LevelWarn) // 4

	// LevelError matches slog.LevelError.
	LevelError Level = Level(slog.LevelError) // 8
)

// ErrInvalidLevel is returned by ParseLevel for names outside the fixed set.
var ErrInvalidLevel = errors.New("slogconsole: invalid log level")

// String returns the lowercase level name ("error", "warn", "info",
// "verbose", "debug", "silly"). Values between the defined constants render
// as the nearest lower level plus an offset, e.g. "info+1".
func (l Level) String() string {
	switch l {
	case LevelSilly:
		return "silly"
	case LevelDebug:
		return "debug"
	case LevelVerbose:
		return "verbose"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	}

	var base Level
	switch {
	case l < LevelSilly:
		return fmt.Sprintf("silly%+d", int(l-LevelSilly))
	case l < LevelDebug:
		base = LevelSilly
	case l < LevelVerbose:
		base = LevelDebug
	case l < LevelInfo:
		base = LevelVerbose
	case l < LevelWarn:
		base = LevelInfo
	case l < LevelError:
		base = LevelWarn
	default:
		base = LevelError
	}
	return fmt.Sprintf("%s+%d", base.String(), int(l-base))
}

// Level returns the underlying slog.Level value so Level satisfies
// slog.Leveler.
func (l Level) Level() slog.Level {
	return slog.Level(l)
}

// Levels lists the supported severities from most to least severe.
func Levels() []Level {
	return []Level{LevelError, LevelWarn, LevelInfo, LevelVerbose, LevelDebug, LevelSilly}
}

// ParseLevel converts a level name into a Level. Names are matched
// case-insensitively after trimming whitespace; anything outside the fixed
// set yields ErrInvalidLevel.
func ParseLevel(name string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "error":
		return LevelError, nil
	case "warn":
		return LevelWarn, nil
	case "info":
		return LevelInfo, nil
	case "verbose":
		return LevelVerbose, nil
	case "debug":
		return LevelDebug, nil
	case "silly":
		return LevelSilly, nil
	}
	return LevelInfo, fmt.Errorf("%w: %q", ErrInvalidLevel, name)
}
