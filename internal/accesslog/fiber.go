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

package accesslog

import (
	"errors"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

// fiberResult reads status and size after the rest of the chain ran. A
// returned error has not been turned into a response yet, so its status and
// the error handler's body are derived from the error itself.
type fiberResult struct {
	c          *fiber.Ctx
	handlerErr error
}

func (r fiberResult) fiberError() *fiber.Error {
	var fiberErr *fiber.Error
	if errors.As(r.handlerErr, &fiberErr) {
		return fiberErr
	}
	return nil
}

func (r fiberResult) StatusCode() int {
	if fiberErr := r.fiberError(); fiberErr != nil {
		return fiberErr.Code
	}
	if r.handlerErr != nil {
		return fiber.StatusInternalServerError
	}
	return r.c.Response().StatusCode()
}

func (r fiberResult) ContentLength() string {
	if r.handlerErr != nil {
		return strconv.Itoa(len(r.handlerErr.Error()))
	}
	if bodyless(r.StatusCode()) {
		return ""
	}
	if content := r.c.GetRespHeader(fiber.HeaderContentLength); content != "" {
		return content
	}
	return strconv.Itoa(len(r.c.Response().Body()))
}

func fiberVersion(c *fiber.Ctx) string {
	proto := strings.TrimPrefix(string(c.Request().Header.Protocol()), "HTTP/")
	if proto == "" {
		return "1.1"
	}
	return proto
}

// Fiber returns middleware that writes one short-format line, terminated by
// a newline, to w for each request once the rest of the chain has returned.
func Fiber(w io.Writer, opts ...Option) fiber.Handler {
	s := buildSettings(opts)

	return func(c *fiber.Ctx) error {
		if skipped(c.Path(), s.skip) {
			return c.Next()
		}

		start := time.Now()
		err := c.Next()
		result := fiberResult{c: c, handlerErr: err}

		entry := Entry{
			RemoteAddr:    c.IP(),
			RemoteUser:    RemoteUser(c.Get(fiber.HeaderAuthorization)),
			Method:        c.Method(),
			URL:           c.OriginalURL(),
			HTTPVersion:   fiberVersion(c),
			Status:        result.StatusCode(),
			ContentLength: result.ContentLength(),
			Duration:      time.Since(start),
		}
		_, _ = io.WriteString(w, entry.Short()+"\n")

		return err
	}
}
