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
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
)

// maxPendingLine bounds the buffered partial line; longer input is logged in
// pieces of this size.
const maxPendingLine = 64 << 10

// lineWriter logs every complete line written to it.
type lineWriter struct {
	logger *Logger
	level  Level

	mu      sync.Mutex
	pending bytes.Buffer
}

// Writer returns an io.WriteCloser that logs each line written to it at
// level. Lines are split on '\n'; trailing whitespace is trimmed and empty
// lines are dropped. An unterminated final line is held until more input
// completes it or the writer is closed; partial lines reaching 64 KiB are
// logged in pieces.
func (l *Logger) Writer(level Level) io.WriteCloser {
	return &lineWriter{logger: l, level: level}
}

// Write never fails and always reports len(p) bytes consumed.
func (w *lineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pending.Write(p)
	for {
		buf := w.pending.Bytes()
		i := bytes.IndexByte(buf, '\n')
		if i < 0 {
			break
		}
		w.emit(string(buf[:i]))
		w.pending.Next(i + 1)
	}
	for w.pending.Len() >= maxPendingLine {
		w.emit(string(w.pending.Next(maxPendingLine)))
	}
	return len(p), nil
}

// Close logs any buffered partial line.
func (w *lineWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.pending.Len() > 0 {
		w.emit(w.pending.String())
		w.pending.Reset()
	}
	return nil
}

func (w *lineWriter) emit(line string) {
	line = strings.TrimRight(line, " \t\r")
	if strings.TrimSpace(line) == "" {
		return
	}
	w.logger.log(context.Background(), w.level, []any{line})
}
