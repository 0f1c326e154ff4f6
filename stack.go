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
	"runtime"
	"strconv"
	"strings"
	"sync"
)

const maxStackFrames = 64

var stackPCPool = sync.Pool{
	New: func() any {
		buf := make([]uintptr, maxStackFrames)
		return &buf
	},
}

// stackTracer is implemented by errors that record where they were created.
// Compatible with github.com/pkg/errors style program counter stacks.
type stackTracer interface {
	StackTrace() []uintptr
}

// originStack formats the stack recorded by err (or an error it wraps).
// It returns "" when no error in the chain carries a stack.
func originStack(err error) string {
	var st stackTracer
	if !errors.As(err, &st) {
		return ""
	}
	pcs := st.StackTrace()
	if len(pcs) > maxStackFrames {
		pcs = pcs[:maxStackFrames]
	}
	return formatStack(pcs)
}

// callerStack captures the current goroutine stack with library and runtime
// frames trimmed from the top.
func callerStack() string {
	bufPtr := stackPCPool.Get().(*[]uintptr)
	defer stackPCPool.Put(bufPtr)

	pcs := (*bufPtr)[:cap(*bufPtr)]
	n := runtime.Callers(1, pcs)
	if n == 0 {
		return ""
	}
	pcs = pcs[:n]

	trimmed := trimStack(pcs, isInternalFrame)
	if len(trimmed) == 0 {
		trimmed = pcs
	}
	return formatStack(trimmed)
}

// trimStack drops leading program counters whose innermost function skip
// reports true.
func trimStack(pcs []uintptr, skip func(string) bool) []uintptr {
	for i := range pcs {
		frame, _ := runtime.CallersFrames(pcs[i : i+1]).Next()
		if !skip(frame.Function) {
			return pcs[i:]
		}
	}
	return nil
}

// modulePath prefixes the function names of every package in this module.
const modulePath = "github.com/pjscruggs/slogconsole"

// isInternalFrame reports whether funcName belongs to one of this module's
// library packages, slog or the runtime. Test functions and the command-line
// packages are not considered internal.
func isInternalFrame(funcName string) bool {
	if funcName == "" {
		return false
	}
	if strings.HasPrefix(funcName, "runtime.") || strings.HasPrefix(funcName, "log/slog.") {
		return true
	}
	pkgPath, name := splitFuncName(funcName)
	if pkgPath != modulePath && !strings.HasPrefix(pkgPath, modulePath+"/") {
		return false
	}
	switch pkgPath {
	case modulePath + "/cmd/slogconsole", modulePath + "/internal/cmd":
		return false
	}
	return !strings.HasPrefix(name, "Test")
}

// splitFuncName splits "path/to/pkg.(*T).Method" into the package path and
// the rest.
func splitFuncName(funcName string) (pkgPath, name string) {
	slash := strings.LastIndexByte(funcName, '/') + 1
	dot := strings.IndexByte(funcName[slash:], '.')
	if dot < 0 {
		return funcName, ""
	}
	return funcName[:slash+dot], funcName[slash+dot+1:]
}

// formatStack renders pcs the way runtime/debug.Stack does: a goroutine
// header, then a function line and an indented file:line per frame.
func formatStack(pcs []uintptr) string {
	if len(pcs) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.Grow(len(pcs) * 64)
	sb.WriteString(goroutineHeader())
	sb.WriteByte('\n')

	var intBuf [20]byte
	frames := runtime.CallersFrames(pcs)
	count := 0
	for {
		frame, more := frames.Next()
		if frame.PC == 0 {
			break
		}
		if frame.Function != "" && frame.Function != "runtime.goexit" {
			sb.WriteString(frame.Function)
			sb.WriteString("\n\t")
			sb.WriteString(frame.File)
			sb.WriteByte(':')
			sb.Write(strconv.AppendInt(intBuf[:0], int64(frame.Line), 10))
			if frame.Entry != 0 && frame.PC > frame.Entry {
				sb.WriteString(" +0x")
				sb.Write(strconv.AppendUint(intBuf[:0], uint64(frame.PC-frame.Entry), 16))
			}
			sb.WriteByte('\n')
			count++
		}
		if !more || count >= maxStackFrames {
			break
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

// goroutineHeader returns the first line runtime.Stack prints for the
// calling goroutine, e.g. "goroutine 7 [running]:".
func goroutineHeader() string {
	const fallback = "goroutine 0 [running]:"

	var buf [128]byte
	n := runtime.Stack(buf[:], false)
	if n <= 0 {
		return fallback
	}
	header := string(buf[:n])
	if idx := strings.IndexByte(header, '\n'); idx >= 0 {
		header = header[:idx]
	}
	header = strings.TrimSpace(header)
	if header == "" {
		return fallback
	}
	return header
}
