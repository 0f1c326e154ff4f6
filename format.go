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
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// FormatArgs renders args the way the severity methods do and joins them
// with single spaces. Errors are expanded to their message plus a stack
// trace, plain structured values are serialized to JSON and everything else
// is printed with fmt.
func FormatArgs(args ...any) string {
	return formatArgs(args, true)
}

func formatArgs(args []any, stacks bool) string {
	switch len(args) {
	case 0:
		return ""
	case 1:
		return formatArg(args[0], stacks)
	}

	var sb strings.Builder
	for i, arg := range args {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(formatArg(arg, stacks))
	}
	return sb.String()
}

// formatArg renders a single argument.
func formatArg(arg any, stacks bool) string {
	switch v := arg.(type) {
	case nil:
		return "<nil>"
	case string:
		return v
	case []byte:
		return string(v)
	case error:
		return formatError(v, stacks)
	case fmt.Stringer:
		return v.String()
	case json.Marshaler:
		return marshalText(v)
	}

	if isStructured(reflect.ValueOf(arg)) {
		return marshalText(arg)
	}
	return fmt.Sprint(arg)
}

// formatError returns the error message followed by its stack trace. The
// stack recorded by the error wins over one captured at the call site.
func formatError(err error, stacks bool) string {
	msg := err.Error()
	if !stacks {
		return msg
	}
	stack := originStack(err)
	if stack == "" {
		stack = callerStack()
	}
	if stack == "" {
		return msg
	}
	return msg + "\n" + stack
}

// isStructured reports whether v is a map, struct, slice or array, looking
// through pointers and interfaces.
func isStructured(v reflect.Value) bool {
	for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return false
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		return false
	}
	switch v.Kind() {
	case reflect.Map, reflect.Struct, reflect.Slice, reflect.Array:
		return true
	default:
		return false
	}
}

// marshalText serializes v as compact JSON, falling back to %+v when the
// value cannot be encoded (channels, funcs, cyclic data).
func marshalText(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%+v", v)
	}
	return string(data)
}
