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

// Package accesslog renders one-line HTTP access logs in the "short" layout:
//
//	:remote-addr :remote-user :method :url HTTP/:http-version :status :res[content-length] - :response-time ms
package accesslog

import (
	"encoding/base64"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// Entry describes one completed request.
type Entry struct {
	RemoteAddr    string
	RemoteUser    string
	Method        string
	URL           string
	HTTPVersion   string // "1.1", "2.0"
	Status        int
	ContentLength string // empty when the response has none
	Duration      time.Duration
}

// Short formats e without a trailing newline. Missing values print as "-".
func (e Entry) Short() string {
	return fmt.Sprintf("%s %s %s %s HTTP/%s %s %s - %.3f ms",
		orDash(e.RemoteAddr),
		orDash(e.RemoteUser),
		orDash(e.Method),
		orDash(e.URL),
		orDash(e.HTTPVersion),
		status(e.Status),
		orDash(e.ContentLength),
		float64(e.Duration.Nanoseconds())/float64(time.Millisecond),
	)
}

// RemoteUser extracts the user name from a Basic Authorization header.
func RemoteUser(authorization string) string {
	scheme, credentials, ok := strings.Cut(strings.TrimSpace(authorization), " ")
	if !ok || !strings.EqualFold(scheme, "basic") {
		return ""
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(credentials))
	if err != nil {
		return ""
	}
	user, _, _ := strings.Cut(string(decoded), ":")
	return user
}

// RemoteHost strips the port from a host:port address.
func RemoteHost(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}

// Version formats an HTTP protocol version pair as "major.minor".
func Version(major, minor int) string {
	return strconv.Itoa(major) + "." + strconv.Itoa(minor)
}

// bodyless reports statuses that never carry a response body.
func bodyless(status int) bool {
	return status == 204 || status == 304 || (status >= 100 && status < 200)
}

func status(code int) string {
	if code <= 0 {
		return "-"
	}
	return strconv.Itoa(code)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// skipped reports whether path starts with one of prefixes.
func skipped(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if prefix != "" && strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

type settings struct {
	skip []string
}

// Option customizes the middleware.
type Option func(*settings)

// WithSkipPrefixes disables logging for request paths starting with any of
// prefixes, such as health checks.
func WithSkipPrefixes(prefixes ...string) Option {
	return func(s *settings) {
		s.skip = append(s.skip, prefixes...)
	}
}

func buildSettings(opts []Option) settings {
	var s settings
	for _, opt := range opts {
		if opt != nil {
			opt(&s)
		}
	}
	return s
}

// Skip reports whether path is excluded by opts.
func Skip(path string, opts ...Option) bool {
	return skipped(path, buildSettings(opts).skip)
}
