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
	"runtime"
	"strings"
	"testing"
)

// TestIsInternalFrame verifies which function names are trimmed from caller stacks.
func TestIsInternalFrame(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want bool
	}{
		{name: "", want: false},
		{name: "runtime.Callers", want: true},
		{name: "log/slog.(*Logger).log", want: true},
		{name: "github.com/pjscruggs/slogconsole.New", want: true},
		{name: "github.com/pjscruggs/slogconsole.(*Logger).Error", want: true},
		{name: "github.com/pjscruggs/slogconsole.TestIsInternalFrame", want: false},
		{name: "github.com/pjscruggs/slogconsole_test.TestLogger", want: false},
		{name: "github.com/pjscruggs/slogconsole/slogconsolehttp.Middleware.func1", want: true},
		{name: "github.com/pjscruggs/slogconsole/slogconsoleasync.(*queueState).run", want: true},
		{name: "github.com/pjscruggs/slogconsole/internal/accesslog.Fiber.func1", want: true},
		{name: "github.com/pjscruggs/slogconsole/slogconsolehttp.TestMiddleware.func2", want: false},
		{name: "github.com/pjscruggs/slogconsole/internal/cmd.runDemo", want: false},
		{name: "github.com/pjscruggs/slogconsole/cmd/slogconsole.main", want: false},
		{name: "github.com/pjscruggs/slogconsolex.Helper", want: false},
		{name: "main.main", want: false},
	}
	for _, tt := range tests {
		if got := isInternalFrame(tt.name); got != tt.want {
			t.Errorf("isInternalFrame(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

// TestSplitFuncName verifies package paths are separated from function names.
func TestSplitFuncName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, pkg, name string
	}{
		{in: "main.main", pkg: "main", name: "main"},
		{in: "github.com/pjscruggs/slogconsole.(*Logger).Error", pkg: "github.com/pjscruggs/slogconsole", name: "(*Logger).Error"},
		{in: "github.com/pjscruggs/slogconsole/internal/cmd.runDemo.func1", pkg: "github.com/pjscruggs/slogconsole/internal/cmd", name: "runDemo.func1"},
		{in: "nodot", pkg: "nodot", name: ""},
	}
	for _, tt := range tests {
		pkg, name := splitFuncName(tt.in)
		if pkg != tt.pkg || name != tt.name {
			t.Errorf("splitFuncName(%q) = %q, %q, want %q, %q", tt.in, pkg, name, tt.pkg, tt.name)
		}
	}
}

// TestTrimStack verifies only leading matching frames are dropped.
func TestTrimStack(t *testing.T) {
	t.Parallel()

	pcs := make([]uintptr, 16)
	n := runtime.Callers(0, pcs)
	pcs = pcs[:n]

	trimmed := trimStack(pcs, func(fn string) bool { return strings.HasPrefix(fn, "runtime.") })
	if len(trimmed) != len(pcs)-1 {
		t.Fatalf("trimStack removed %d frames, want 1", len(pcs)-len(trimmed))
	}
	if got := trimStack(pcs, func(string) bool { return true }); got != nil {
		t.Fatalf("trimStack(all) = %v, want nil", got)
	}
}

// TestFormatStackCapsFrames verifies long stacks are cut at maxStackFrames.
func TestFormatStackCapsFrames(t *testing.T) {
	t.Parallel()

	pcs := make([]uintptr, 8)
	n := runtime.Callers(1, pcs)
	var long []uintptr
	for len(long) < maxStackFrames+10 {
		long = append(long, pcs[:n]...)
	}

	stack := originStack(&tracedError{msg: "deep", pcs: long})
	lines := strings.Split(stack, "\n")
	if !strings.HasPrefix(lines[0], "goroutine ") {
		t.Fatalf("first line = %q, want goroutine header", lines[0])
	}
	if frames := (len(lines) - 1) / 2; frames > maxStackFrames {
		t.Fatalf("formatted %d frames, want at most %d", frames, maxStackFrames)
	}
	if strings.HasSuffix(stack, "\n") {
		t.Fatal("stack ends with a newline")
	}
}

// TestFormatStackEmpty verifies no output for no frames.
func TestFormatStackEmpty(t *testing.T) {
	t.Parallel()

	if got := formatStack(nil); got != "" {
		t.Fatalf("formatStack(nil) = %q, want empty", got)
	}
	if got := originStack(errString("no stack")); got != "" {
		t.Fatalf("originStack(plain) = %q, want empty", got)
	}
}

type errString string

func (e errString) Error() string { return string(e) }
