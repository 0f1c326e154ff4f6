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

// Package cmd holds the slogconsole CLI subcommands.
package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/pjscruggs/slogconsole"
)

const (
	// LogLevelFlagName is the persistent flag selecting the log threshold.
	LogLevelFlagName      = "log-level"
	logLevelShortFlagName = "v"

	noOverrideFlagName  = "no-console-override"
	noOverrideFlagUsage = "leave the standard log package and the default slog logger untouched"
)

var logLevelFlagUsage = "set the logging level (possible values: " + strings.Join(levelNames(), ", ") + "); defaults to LOG_LEVEL or info"

func levelNames() []string {
	levels := slogconsole.Levels()
	names := make([]string, 0, len(levels))
	for _, lvl := range levels {
		names = append(names, lvl.String())
	}
	return names
}

// AddLogLevelFlag registers the persistent --log-level flag on cmd.
func AddLogLevelFlag(cmd *cobra.Command) {
	cmd.PersistentFlags().StringP(LogLevelFlagName, logLevelShortFlagName, "", logLevelFlagUsage)
}

// loggerOptions translates the shared flags into logger options. An unset
// --log-level leaves the choice to LOG_LEVEL.
func loggerOptions(cmd *cobra.Command, noOverride bool) []slogconsole.Option {
	opts := []slogconsole.Option{
		slogconsole.WithWriter(cmd.OutOrStdout()),
		slogconsole.WithConsoleOverride(!noOverride),
	}
	if flag := cmd.Flags().Lookup(LogLevelFlagName); flag != nil && flag.Changed {
		opts = append(opts, slogconsole.WithLevelName(flag.Value.String()))
	}
	return opts
}

// handleError prints err on the command error stream and returns it.
func handleError(cmd *cobra.Command, err error) error {
	cmd.PrintErrln(err)
	return err
}
