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
	"fmt"
	"io"
	"os"
	"sync"
)

// SwitchableWriter serializes writes to an io.Writer that can be replaced at
// runtime. The console sink writes through one so that concurrent log calls
// never interleave partial lines and Logger.SetOutput can redirect output
// without rebuilding the handler chain.
type SwitchableWriter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewSwitchableWriter returns a SwitchableWriter writing to w. A nil w
// discards output.
func NewSwitchableWriter(w io.Writer) *SwitchableWriter {
	if w == nil {
		w = io.Discard
	}
	return &SwitchableWriter{w: w}
}

// Write forwards p to the current writer while holding the lock.
func (sw *SwitchableWriter) Write(p []byte) (int, error) {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	if sw.w == nil {
		return 0, os.ErrClosed
	}
	n, err := sw.w.Write(p)
	if err != nil {
		return n, fmt.Errorf("write console output: %w", err)
	}
	return n, nil
}

// SetWriter replaces the destination. The previous writer is not closed.
// A nil w discards subsequent output.
func (sw *SwitchableWriter) SetWriter(w io.Writer) {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	if w == nil {
		w = io.Discard
	}
	sw.w = w
}

// Writer returns the current destination.
func (sw *SwitchableWriter) Writer() io.Writer {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	return sw.w
}

var _ io.Writer = (*SwitchableWriter)(nil)
