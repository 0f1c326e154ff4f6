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

package cmd

import (
	"errors"
	"log"
	"log/slog"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/pjscruggs/slogconsole"
)

const (
	demoCmdUsage = "demo"
	demoCmdShort = "print a sample of every kind of log line"
	demoCmdLong  = `Print a sample of every kind of log line.

	The demo logs through the standard log package, the default slog logger
	and the logger itself, so the output shows how plain messages, errors with
	stack traces and structured values are rendered at the selected level.`

	demoCmdExample = `# Show debug lines as well
	slogconsole demo --log-level debug

	# Keep the standard log package on its own output
	slogconsole demo --no-console-override`

	noStackFlagName  = "no-stack"
	noStackFlagUsage = "omit stack traces from logged errors"
)

type demoFlags struct {
	noOverride bool
	noStack    bool
}

func (f *demoFlags) addFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.noOverride, noOverrideFlagName, false, noOverrideFlagUsage)
	cmd.Flags().BoolVar(&f.noStack, noStackFlagName, false, noStackFlagUsage)
}

// DemoCmd returns the "demo" command.
func DemoCmd() *cobra.Command {
	flags := &demoFlags{}
	cmd := &cobra.Command{
		Use:     demoCmdUsage,
		Short:   heredoc.Doc(demoCmdShort),
		Long:    heredoc.Doc(demoCmdLong),
		Example: heredoc.Doc(demoCmdExample),

		SilenceErrors: true,
		SilenceUsage:  true,

		Args:              cobra.NoArgs,
		ValidArgsFunction: cobra.NoFileCompletions,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := loggerOptions(cmd, flags.noOverride)
			if flags.noStack {
				opts = append(opts, slogconsole.WithStackTraces(false))
			}

			logger := slogconsole.New(opts...)
			runDemo(logger)
			if err := logger.Close(); err != nil {
				return handleError(cmd, err)
			}
			return nil
		},
	}

	flags.addFlags(cmd)
	return cmd
}

// runDemo logs the same sequence whichever way the console is configured.
func runDemo(logger *slogconsole.Logger) {
	log.Print("info log")
	slog.Error("error log")
	logger.Error(errors.New("error object"))
	logger.Error("text with", errors.New("error object2"))
	slog.Debug("debug log - shown with --log-level debug")
	logger.Info(map[string]any{"key": "value", "nested": map[string]int{"a": 1}})

	logger.Info("direct logger info")
	logger.Debug("direct logger debug")
	logger.Verbose("direct logger verbose - shown with --log-level verbose or lower")
}
