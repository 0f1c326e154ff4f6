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
	"log/slog"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// TestLevelString verifies names for defined levels and offsets between them.
func TestLevelString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		level Level
		want  string
	}{
		{LevelSilly, "silly"},
		{LevelDebug, "debug"},
		{LevelVerbose, "verbose"},
		{LevelInfo, "info"},
		{LevelWarn, "warn"},
		{LevelError, "error"},
		{LevelInfo + 1, "info+1"},
		{LevelDebug + 1, "debug+1"},
		{LevelError + 4, "error+4"},
		{LevelSilly - 2, "silly-2"},
	}
	for _, tt := range tests {
		if got := tt.level.String(); got != tt.want {
			t.Errorf("Level(%d).String() = %q, want %q", int(tt.level), got, tt.want)
		}
	}
}

// TestLevelOrdering verifies the severities order and align with slog.
func TestLevelOrdering(t *testing.T) {
	t.Parallel()

	levels := Levels()
	for i := 1; i < len(levels); i++ {
		if levels[i-1] <= levels[i] {
			t.Fatalf("Levels()[%d]=%v is not more severe than Levels()[%d]=%v", i-1, levels[i-1], i, levels[i])
		}
	}

	pairs := map[Level]slog.Level{
		LevelDebug: slog.LevelDebug,
		LevelInfo:  slog.LevelInfo,
		LevelWarn:  slog.LevelWarn,
		LevelError: slog.LevelError,
	}
	for lvl, want := range pairs {
		if got := lvl.Level(); got != want {
			t.Errorf("%v.Level() = %v, want %v", lvl, got, want)
		}
	}
}

// TestParseLevel verifies accepted names and the fallback for unknown ones.
func TestParseLevel(t *testing.T) {
	t.Parallel()

	got := map[string]Level{}
	for _, name := range []string{"error", "WARN", " info ", "Verbose", "debug", "silly"} {
		lvl, err := ParseLevel(name)
		if err != nil {
			t.Fatalf("ParseLevel(%q) returned %v", name, err)
		}
		got[name] = lvl
	}
	want := map[string]Level{
		"error":   LevelError,
		"WARN":    LevelWarn,
		" info ":  LevelInfo,
		"Verbose": LevelVerbose,
		"debug":   LevelDebug,
		"silly":   LevelSilly,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("ParseLevel mismatch (-want +got):\n%s", diff)
	}

	for _, bad := range []string{"", "warning", "trace", "4"} {
		lvl, err := ParseLevel(bad)
		if !errors.Is(err, ErrInvalidLevel) {
			t.Errorf("ParseLevel(%q) error = %v, want ErrInvalidLevel", bad, err)
		}
		if lvl != LevelInfo {
			t.Errorf("ParseLevel(%q) = %v, want info", bad, lvl)
		}
	}
}
