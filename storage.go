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
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pjscruggs/slogconsole/internal/objectstore"
	"github.com/pjscruggs/slogconsole/slogconsoleasync"
)

// objectKeyLayout is the compact UTC timestamp that prefixes object names.
const objectKeyLayout = "20060102T150405.000Z"

// StorageOutput names where persisted records go.
type StorageOutput struct {
	// BucketName is the bucket, or container for Azure Blob Storage.
	BucketName string
	// Path is the key prefix inside the bucket. Leading and trailing slashes
	// are ignored.
	Path string
}

// Uploader stores one object. Implementations must be safe for concurrent
// use.
type Uploader interface {
	Upload(ctx context.Context, bucket, key string, body []byte) error
}

// newStorageSink wraps a storageHandler in the async queue so uploads never
// block log calls. Without an injected Uploader the Azure Blob Storage client
// is configured from the environment.
func newStorageSink(cfg config, leveler slog.Leveler) (slog.Handler, error) {
	uploader := cfg.uploader
	if uploader == nil {
		azure, err := objectstore.NewAzureUploaderFromEnv(UserAgent())
		if err != nil {
			return nil, err
		}
		uploader = azure
	}

	h := &storageHandler{
		uploader: uploader,
		dest:     *cfg.storage,
		leveler:  leveler,
		stacks:   cfg.stacks,
		clock:    cfg.clock,
		newID:    uuid.NewString,
		fields:   map[string]any{},
	}
	asyncOpts := append([]slogconsoleasync.Option{slogconsoleasync.WithEnv()}, cfg.asyncOpts...)
	return &callerTextHandler{next: slogconsoleasync.Wrap(h, asyncOpts...), stacks: cfg.stacks}, nil
}

// callerTextHandler renders errors, Stringers and byte slices to text on the
// logging goroutine, before records reach the upload queue. Error stacks
// captured later would describe the queue worker instead of the caller.
type callerTextHandler struct {
	next   slog.Handler
	stacks bool
}

func (h *callerTextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *callerTextHandler) Handle(ctx context.Context, r slog.Record) error {
	out := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(callerText(a, h.stacks))
		return true
	})
	return h.next.Handle(ctx, out)
}

func (h *callerTextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &callerTextHandler{next: h.next.WithAttrs(attrs), stacks: h.stacks}
}

func (h *callerTextHandler) WithGroup(name string) slog.Handler {
	return &callerTextHandler{next: h.next.WithGroup(name), stacks: h.stacks}
}

// Close drains the upload queue.
func (h *callerTextHandler) Close() error {
	if c, ok := h.next.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

// callerText resolves a and replaces values whose rendering depends on the
// current goroutine or on later mutation with their text.
func callerText(a slog.Attr, stacks bool) slog.Attr {
	a.Value = a.Value.Resolve()
	switch a.Value.Kind() {
	case slog.KindGroup:
		group := a.Value.Group()
		rendered := make([]slog.Attr, len(group))
		for i, ga := range group {
			rendered[i] = callerText(ga, stacks)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(rendered...)}
	case slog.KindAny:
		switch v := a.Value.Any().(type) {
		case error, fmt.Stringer, []byte:
			return slog.String(a.Key, formatArg(v, stacks))
		}
	}
	return a
}

// storageHandler uploads each record as its own JSON document.
type storageHandler struct {
	uploader Uploader
	dest     StorageOutput
	leveler  slog.Leveler
	stacks   bool
	clock    func() time.Time
	newID    func() string

	fields map[string]any // attrs from WithAttrs, already nested by group
	groups []string
}

func (h *storageHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.leveler.Level()
}

// Handle performs the upload synchronously; the async wrapper moves it off
// the caller's goroutine.
func (h *storageHandler) Handle(ctx context.Context, r slog.Record) error {
	ts := recordTime(r, h.clock)

	doc := cloneFields(h.fields)
	attrs := make([]slog.Attr, 0, r.NumAttrs())
	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, a)
		return true
	})
	addFields(doc, h.groups, attrs, h.stacks)

	doc["timestamp"] = ts.Format(timestampLayout)
	doc["level"] = Level(r.Level).String()
	doc["message"] = r.Message

	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode log document: %w", err)
	}
	return h.uploader.Upload(ctx, h.dest.BucketName, objectKey(h.dest.Path, ts, h.newID()), body)
}

func (h *storageHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	child := *h
	child.fields = cloneFields(h.fields)
	addFields(child.fields, h.groups, attrs, h.stacks)
	return &child
}

func (h *storageHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	child := *h
	child.groups = append(append([]string(nil), h.groups...), name)
	return &child
}

// objectKey builds "<path>/<timestamp>-<id>.json".
func objectKey(path string, ts time.Time, id string) string {
	name := ts.UTC().Format(objectKeyLayout) + "-" + id + ".json"
	prefix := strings.Trim(path, "/")
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

// addFields stores attrs in doc under the nested maps named by groups.
func addFields(doc map[string]any, groups []string, attrs []slog.Attr, stacks bool) {
	target := doc
	for _, g := range groups {
		next, ok := target[g].(map[string]any)
		if !ok {
			next = map[string]any{}
			target[g] = next
		}
		target = next
	}
	for _, a := range attrs {
		a.Value = a.Value.Resolve()
		if a.Equal(slog.Attr{}) {
			continue
		}
		if a.Value.Kind() == slog.KindGroup {
			if a.Key == "" {
				addFields(target, nil, a.Value.Group(), stacks)
				continue
			}
			addFields(target, []string{a.Key}, a.Value.Group(), stacks)
			continue
		}
		target[a.Key] = fieldValue(a.Value, stacks)
	}
}

// fieldValue keeps JSON-native values typed and renders the rest as text.
func fieldValue(v slog.Value, stacks bool) any {
	switch v.Kind() {
	case slog.KindBool:
		return v.Bool()
	case slog.KindInt64:
		return v.Int64()
	case slog.KindUint64:
		return v.Uint64()
	case slog.KindFloat64:
		return v.Float64()
	case slog.KindAny:
		raw := v.Any()
		switch raw.(type) {
		case error, fmt.Stringer, []byte:
			return formatArg(raw, stacks)
		}
		if _, ok := raw.(json.Marshaler); ok || isStructured(reflect.ValueOf(raw)) {
			if b, err := json.Marshal(raw); err == nil {
				return json.RawMessage(b)
			}
		}
		return formatArg(raw, stacks)
	default:
		return attrText(v, stacks)
	}
}

// cloneFields deep-copies nested group maps so children never share them.
func cloneFields(src map[string]any) map[string]any {
	dst := maps.Clone(src)
	if dst == nil {
		dst = map[string]any{}
	}
	for k, v := range dst {
		if nested, ok := v.(map[string]any); ok {
			dst[k] = cloneFields(nested)
		}
	}
	return dst
}
