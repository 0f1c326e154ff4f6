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
	"encoding/json"
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/pjscruggs/slogconsole/slogconsoleasync"
)

type upload struct {
	Bucket string
	Key    string
	Body   map[string]any
}

type fakeUploader struct {
	mu      sync.Mutex
	uploads []upload
	err     error
}

func (f *fakeUploader) Upload(_ context.Context, bucket, key string, body []byte) error {
	var doc map[string]any
	if err := json.Unmarshal(body, &doc); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, upload{Bucket: bucket, Key: key, Body: doc})
	return f.err
}

func (f *fakeUploader) all() []upload {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]upload(nil), f.uploads...)
}

var objectKeyPattern = regexp.MustCompile(`^app/logs/20240102T030405\.678Z-[0-9a-f-]{36}\.json$`)

// TestStorageUploadsEachRecord verifies one JSON document per enabled record.
func TestStorageUploadsEachRecord(t *testing.T) {
	t.Parallel()

	up := &fakeUploader{}
	l, buf := newTestLogger(t,
		WithStorage(StorageOutput{BucketName: "logs", Path: "/app/logs/"}),
		WithUploader(up),
	)

	l.Info("stored", map[string]int{"n": 1})
	l.Debug("below threshold")
	l.Slog().With("service", "api").WithGroup("req").Warn("grouped", "status", 503, "ok", false)

	if err := l.Close(); err != nil {
		t.Fatalf("Close() = %v", err)
	}

	if got := len(outputLines(buf)); got != 2 {
		t.Fatalf("console has %d lines, want 2", got)
	}

	uploads := up.all()
	if len(uploads) != 2 {
		t.Fatalf("got %d uploads, want 2: %+v", len(uploads), uploads)
	}
	byMessage := map[string]upload{}
	for _, u := range uploads {
		if u.Bucket != "logs" {
			t.Errorf("bucket = %q, want logs", u.Bucket)
		}
		if !objectKeyPattern.MatchString(u.Key) {
			t.Errorf("key %q does not match %s", u.Key, objectKeyPattern)
		}
		byMessage[u.Body["message"].(string)] = u
	}

	want := map[string]any{
		"timestamp": testStamp,
		"level":     "info",
		"message":   `stored {"n":1}`,
	}
	if diff := cmp.Diff(want, byMessage[`stored {"n":1}`].Body); diff != "" {
		t.Fatalf("info document mismatch (-want +got):\n%s", diff)
	}

	want = map[string]any{
		"timestamp": testStamp,
		"level":     "warn",
		"message":   "grouped",
		"service":   "api",
		"req":       map[string]any{"status": float64(503), "ok": false},
	}
	if diff := cmp.Diff(want, byMessage["grouped"].Body); diff != "" {
		t.Fatalf("grouped document mismatch (-want +got):\n%s", diff)
	}
}

// TestStorageErrorAttrKeepsCallerStack verifies stored error attributes carry the logging call's stack.
func TestStorageErrorAttrKeepsCallerStack(t *testing.T) {
	t.Parallel()

	up := &fakeUploader{}
	l, buf := newTestLogger(t,
		WithStorage(StorageOutput{BucketName: "logs"}),
		WithUploader(up),
	)

	l.Slog().Error("failed", "err", errors.New("boom"))
	if err := l.Close(); err != nil {
		t.Fatalf("Close() = %v", err)
	}

	const frame = "slogconsole.TestStorageErrorAttrKeepsCallerStack"
	if !strings.Contains(buf.String(), frame) {
		t.Fatalf("console output lacks %s:\n%s", frame, buf.String())
	}

	uploads := up.all()
	if len(uploads) != 1 {
		t.Fatalf("got %d uploads, want 1", len(uploads))
	}
	stored, _ := uploads[0].Body["err"].(string)
	if !strings.HasPrefix(stored, "boom\ngoroutine ") || !strings.Contains(stored, frame) {
		t.Fatalf("stored err lacks the caller stack:\n%s", stored)
	}
	if strings.Contains(stored, "slogconsoleasync") {
		t.Fatalf("stored err contains queue worker frames:\n%s", stored)
	}
}

// TestCallerTextRendersNestedValues verifies groups are walked and plain values kept.
func TestCallerTextRendersNestedValues(t *testing.T) {
	t.Parallel()

	got := callerText(slog.Group("req",
		slog.Any("err", errors.New("boom")),
		slog.Any("raw", []byte("bytes")),
		slog.Int("n", 3),
	), false)

	want := slog.Group("req",
		slog.String("err", "boom"),
		slog.String("raw", "bytes"),
		slog.Int("n", 3),
	)
	if !got.Equal(want) {
		t.Fatalf("callerText() = %v, want %v", got, want)
	}
}

// TestStorageDistinctKeys verifies identical timestamps still produce unique keys.
func TestStorageDistinctKeys(t *testing.T) {
	t.Parallel()

	up := &fakeUploader{}
	l, _ := newTestLogger(t,
		WithStorage(StorageOutput{BucketName: "logs", Path: "app/logs"}),
		WithUploader(up),
	)
	for range 5 {
		l.Info("same instant")
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close() = %v", err)
	}

	seen := map[string]bool{}
	for _, u := range up.all() {
		if seen[u.Key] {
			t.Fatalf("duplicate key %q", u.Key)
		}
		seen[u.Key] = true
	}
	if len(seen) != 5 {
		t.Fatalf("got %d keys, want 5", len(seen))
	}
}

// TestStorageUploadErrorsDoNotReachCaller verifies failures surface on the async error writer only.
func TestStorageUploadErrorsDoNotReachCaller(t *testing.T) {
	t.Parallel()

	errBuf := &lockedBuffer{}
	up := &fakeUploader{err: errors.New("bucket unavailable")}
	l, buf := newTestLogger(t,
		WithStorage(StorageOutput{BucketName: "logs"}),
		WithUploader(up),
		WithStorageAsync(slogconsoleasync.WithErrorWriter(errBuf)),
	)

	l.Error("still printed")
	if err := l.Close(); err != nil {
		t.Fatalf("Close() = %v", err)
	}

	if got, want := buf.String(), testStamp+" error still printed\n"; !strings.HasPrefix(got, want) {
		t.Fatalf("console output = %q, want prefix %q", got, want)
	}
	if !strings.Contains(errBuf.String(), "bucket unavailable") {
		t.Fatalf("error writer = %q, want upload error", errBuf.String())
	}
}

// TestStorageDisabledByEmptyBucket verifies an empty destination skips the sink.
func TestStorageDisabledByEmptyBucket(t *testing.T) {
	t.Setenv("SLOGCONSOLE_STORAGE_BUCKET", "from-env")

	up := &fakeUploader{}
	l, _ := newTestLogger(t, WithStorage(StorageOutput{}), WithUploader(up))
	if l.storage != nil {
		t.Fatal("storage sink configured for an empty bucket")
	}
	l.Info("console only")
	_ = l.Close()
	if got := len(up.all()); got != 0 {
		t.Fatalf("got %d uploads, want 0", got)
	}
}

// TestStorageFromEnvironment verifies the destination can come from the environment.
func TestStorageFromEnvironment(t *testing.T) {
	t.Setenv("SLOGCONSOLE_STORAGE_BUCKET", "env-bucket")
	t.Setenv("SLOGCONSOLE_STORAGE_PATH", "app/logs")

	up := &fakeUploader{}
	l, _ := newTestLogger(t, WithUploader(up))
	l.Warn("persisted")
	if err := l.Close(); err != nil {
		t.Fatalf("Close() = %v", err)
	}

	uploads := up.all()
	if len(uploads) != 1 {
		t.Fatalf("got %d uploads, want 1", len(uploads))
	}
	if uploads[0].Bucket != "env-bucket" || !objectKeyPattern.MatchString(uploads[0].Key) {
		t.Fatalf("upload = %s %s", uploads[0].Bucket, uploads[0].Key)
	}
}

// TestStorageWithoutCredentialsWarns verifies a missing Azure configuration degrades to console only.
func TestStorageWithoutCredentialsWarns(t *testing.T) {
	t.Setenv("AZURE_STORAGE_BLOB_CONNECTION_STRING", "")
	t.Setenv("AZURE_STORAGE_BLOB_ACCOUNT_NAME", "")

	l, buf := newTestLogger(t, WithStorage(StorageOutput{BucketName: "logs"}))
	if l.storage != nil {
		t.Fatal("storage sink configured without credentials")
	}

	lines := outputLines(buf)
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1: %q", len(lines), lines)
	}
	if prefix := testStamp + " warn object storage output disabled: "; !strings.HasPrefix(lines[0], prefix) {
		t.Fatalf("warning = %q, want prefix %q", lines[0], prefix)
	}
}

// TestObjectKey verifies the key layout with and without a prefix.
func TestObjectKey(t *testing.T) {
	t.Parallel()

	ts := time.Date(2024, 1, 2, 3, 4, 5, 678_000_000, time.FixedZone("x", 3600))
	tests := []struct {
		path string
		want string
	}{
		{path: "", want: "20240102T020405.678Z-id.json"},
		{path: "/", want: "20240102T020405.678Z-id.json"},
		{path: "a/b/", want: "a/b/20240102T020405.678Z-id.json"},
	}
	for _, tt := range tests {
		if got := objectKey(tt.path, ts, "id"); got != tt.want {
			t.Errorf("objectKey(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

// TestStorageFieldValues verifies attribute values keep their JSON types.
func TestStorageFieldValues(t *testing.T) {
	t.Parallel()

	doc := map[string]any{}
	addFields(doc, nil, []slog.Attr{
		slog.String("s", "text"),
		slog.Int("i", 7),
		slog.Bool("b", true),
		slog.Any("err", errors.New("boom")),
		slog.Any("raw", []byte("bytes")),
		slog.Any("obj", struct {
			A int `json:"a"`
		}{A: 1}),
		slog.Group("", slog.String("inline", "yes")),
		slog.Attr{},
	}, false)

	got, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("Marshal() = %v", err)
	}
	want := `{"b":true,"err":"boom","i":7,"inline":"yes","obj":{"a":1},"raw":"bytes","s":"text"}`
	if string(got) != want {
		t.Fatalf("document = %s, want %s", got, want)
	}
}

// lockedBuffer is a bytes.Buffer safe for the async worker and the test to share.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
