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
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

// timestampLayout is UTC ISO-8601 with millisecond precision.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

var lineBufferPool = sync.Pool{
	New: func() any {
		return new(bytes.Buffer)
	},
}

// levelPalette maps each severity to the color used for its name when the
// console sink is colorized.
var levelPalette = map[Level]*color.Color{
	LevelError:   color.New(color.FgRed),
	LevelWarn:    color.New(color.FgYellow),
	LevelInfo:    color.New(color.FgGreen),
	LevelVerbose: color.New(color.FgCyan),
	LevelDebug:   color.New(color.FgBlue),
	LevelSilly:   color.New(color.FgMagenta),
}

func init() {
	// Colorizing is decided per handler, not by fatih/color's stdout probe.
	for _, c := range levelPalette {
		c.EnableColor()
	}
}

// handlerState is shared by a handler and every child derived from it with
// WithAttrs or WithGroup.
type handlerState struct {
	out     *SwitchableWriter
	leveler slog.Leveler
	color   bool
	stacks  bool
	clock   func() time.Time
}

// consoleHandler writes one "timestamp level message" line per record.
type consoleHandler struct {
	state  *handlerState
	prefix string // rendered attrs from WithAttrs
	group  string // dotted group prefix from WithGroup
}

func newConsoleHandler(state *handlerState) *consoleHandler {
	return &consoleHandler{state: state}
}

// Enabled reports whether level meets the configured threshold.
func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.state.leveler.Level()
}

// Handle formats r and writes it to the console in a single Write call.
func (h *consoleHandler) Handle(_ context.Context, r slog.Record) error {
	buf := lineBufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer lineBufferPool.Put(buf)

	buf.WriteString(recordTime(r, h.state.clock).Format(timestampLayout))
	buf.WriteByte(' ')
	buf.WriteString(h.levelName(Level(r.Level)))
	buf.WriteByte(' ')
	buf.WriteString(r.Message)
	buf.WriteString(h.prefix)
	r.Attrs(func(a slog.Attr) bool {
		appendAttr(buf, h.group, a, h.state.stacks)
		return true
	})
	buf.WriteByte('\n')

	_, err := h.state.out.Write(buf.Bytes())
	return err
}

// WithAttrs pre-renders attrs so they are appended to every line.
func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	var sb bytes.Buffer
	sb.WriteString(h.prefix)
	for _, a := range attrs {
		appendAttr(&sb, h.group, a, h.state.stacks)
	}
	return &consoleHandler{state: h.state, prefix: sb.String(), group: h.group}
}

// WithGroup qualifies subsequent attribute keys with name.
func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &consoleHandler{state: h.state, prefix: h.prefix, group: h.group + name + "."}
}

func (h *consoleHandler) levelName(l Level) string {
	name := l.String()
	if !h.state.color {
		return name
	}
	if c, ok := levelPalette[l]; ok {
		return c.Sprint(name)
	}
	return name
}

// recordTime prefers the configured clock over the record timestamp.
func recordTime(r slog.Record, clock func() time.Time) time.Time {
	if clock != nil {
		return clock().UTC()
	}
	if r.Time.IsZero() {
		return time.Now().UTC()
	}
	return r.Time.UTC()
}

// appendAttr writes " key=value" for a, flattening groups into dotted keys.
func appendAttr(buf *bytes.Buffer, group string, a slog.Attr, stacks bool) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		nested := group
		if a.Key != "" {
			nested = group + a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			appendAttr(buf, nested, ga, stacks)
		}
		return
	}
	buf.WriteByte(' ')
	buf.WriteString(group)
	buf.WriteString(a.Key)
	buf.WriteByte('=')
	buf.WriteString(quoteIfNeeded(attrText(a.Value, stacks)))
}

// attrText renders a resolved, non-group value.
func attrText(v slog.Value, stacks bool) string {
	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindTime:
		return v.Time().UTC().Format(timestampLayout)
	case slog.KindAny:
		return formatArg(v.Any(), stacks)
	default:
		return v.String()
	}
}

// quoteIfNeeded quotes single-line values containing whitespace or '='.
// Multi-line values such as stack traces are left as-is.
func quoteIfNeeded(s string) string {
	if s == "" {
		return `""`
	}
	if strings.ContainsRune(s, '\n') {
		return s
	}
	if strings.ContainsAny(s, " =\t") {
		return strconv.Quote(s)
	}
	return s
}

// fanoutHandler dispatches records to every enabled sink.
type fanoutHandler struct {
	handlers []slog.Handler
}

// newFanoutHandler returns the single handler when only one sink exists.
func newFanoutHandler(handlers ...slog.Handler) slog.Handler {
	if len(handlers) == 1 {
		return handlers[0]
	}
	return &fanoutHandler{handlers: handlers}
}

// Enabled reports whether any sink accepts level.
func (f *fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle forwards r to each enabled sink and joins their errors.
func (f *fanoutHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f.handlers {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WithAttrs applies attrs to every sink.
func (f *fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	children := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		children[i] = h.WithAttrs(attrs)
	}
	return &fanoutHandler{handlers: children}
}

// WithGroup applies name to every sink.
func (f *fanoutHandler) WithGroup(name string) slog.Handler {
	children := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		children[i] = h.WithGroup(name)
	}
	return &fanoutHandler{handlers: children}
}
