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

package slogconsole_test

import (
	"io"
	"log/slog"
	"testing"

	"github.com/pjscruggs/slogconsole"
)

var (
	_ slog.Leveler                           = slogconsole.LevelInfo
	_ func(slogconsole.Level) io.WriteCloser = (*slogconsole.Logger)(nil).Writer
	_ io.Writer                              = (*slogconsole.SwitchableWriter)(nil)
)

// TestCompile ensures that the public package builds and links for consumers.
func TestCompile(t *testing.T) {
	t.Parallel()
}
