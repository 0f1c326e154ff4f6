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
	"errors"
	"io"
	"sync"
	"testing"
)

// TestSwitchableWriterSwitches verifies writes follow SetWriter and nil discards.
func TestSwitchableWriterSwitches(t *testing.T) {
	t.Parallel()

	first := &bytes.Buffer{}
	sw := NewSwitchableWriter(first)
	if got := sw.Writer(); got != first {
		t.Fatalf("Writer() = %v, want first buffer", got)
	}
	if _, err := sw.Write([]byte("one")); err != nil {
		t.Fatalf("Write returned %v", err)
	}

	second := &bytes.Buffer{}
	sw.SetWriter(second)
	if _, err := sw.Write([]byte("two")); err != nil {
		t.Fatalf("Write returned %v", err)
	}
	if first.String() != "one" || second.String() != "two" {
		t.Fatalf("first=%q second=%q, want one/two", first.String(), second.String())
	}

	sw.SetWriter(nil)
	if sw.Writer() != io.Discard {
		t.Fatal("SetWriter(nil) did not switch to io.Discard")
	}
	if n, err := sw.Write([]byte("gone")); err != nil || n != 4 {
		t.Fatalf("Write after SetWriter(nil) = (%d, %v), want (4, nil)", n, err)
	}
	if NewSwitchableWriter(nil).Writer() != io.Discard {
		t.Fatal("NewSwitchableWriter(nil) does not discard")
	}
}

type failingWriter struct{}

var errDiskFull = errors.New("disk full")

func (failingWriter) Write([]byte) (int, error) { return 0, errDiskFull }

// TestSwitchableWriterWrapsErrors verifies destination errors stay inspectable.
func TestSwitchableWriterWrapsErrors(t *testing.T) {
	t.Parallel()

	_, err := NewSwitchableWriter(failingWriter{}).Write([]byte("x"))
	if !errors.Is(err, errDiskFull) {
		t.Fatalf("Write error = %v, want wrapping errDiskFull", err)
	}
}

// TestSwitchableWriterConcurrentWrites verifies whole writes never interleave.
func TestSwitchableWriterConcurrentWrites(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	sw := NewSwitchableWriter(&buf)
	line := []byte("0123456789abcdef\n")

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				_, _ = sw.Write(line)
			}
		}()
	}
	wg.Wait()

	for _, got := range bytes.SplitAfter(buf.Bytes(), []byte("\n")) {
		if len(got) == 0 {
			continue
		}
		if !bytes.Equal(got, line) {
			t.Fatalf("interleaved line %q", got)
		}
	}
}
