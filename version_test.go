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
	"testing"

	"github.com/pjscruggs/slogconsole"
)

// TestUserAgentTracksVersion ensures UserAgent follows overrides of Version.
func TestUserAgentTracksVersion(t *testing.T) {
	original := slogconsole.Version
	slogconsole.Version = "v9.9.9-test"
	t.Cleanup(func() {
		slogconsole.Version = original
	})

	if got, want := slogconsole.UserAgent(), "slogconsole/v9.9.9-test"; got != want {
		t.Fatalf("UserAgent() = %q, want %q", got, want)
	}
}
