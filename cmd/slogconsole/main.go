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

// Command slogconsole demonstrates the slogconsole logger.
package main

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/pjscruggs/slogconsole"
	internalcmd "github.com/pjscruggs/slogconsole/internal/cmd"
)

var (
	// BuildDate is injected at build time.
	BuildDate = ""

	appName      = "slogconsole"
	versionShort = "Display the " + appName + " version"
)

const (
	appShort = "slogconsole prints timestamped log lines and HTTP access logs"
	appLong  = `slogconsole prints timestamped log lines and HTTP access logs.

	The demo and serve commands show how the logger renders messages, errors
	and structured values, and how it takes over the standard log package.`

	versionCmdName = "version"
)

func main() {
	exitCode := 0
	if err := rootCmd().ExecuteContext(context.Background()); err != nil {
		exitCode = 1
	}
	os.Exit(exitCode)
}

// rootCmd constructs the root command and its subcommands.
func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   appName,
		Short: heredoc.Doc(appShort),
		Long:  heredoc.Doc(appLong),

		SilenceErrors: true,
		SilenceUsage:  true,

		ValidArgsFunction: cobra.NoFileCompletions,
	}

	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		c.PrintErrln(err)
		_ = c.Usage()
		return err
	})

	internalcmd.AddLogLevelFlag(cmd)
	cmd.AddCommand(
		internalcmd.DemoCmd(),
		internalcmd.ServeCmd(),
		versionCmd(),
	)
	return cmd
}

// versionCmd prints version information.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   versionCmdName,
		Short: heredoc.Doc(versionShort),

		Args: func(cmd *cobra.Command, args []string) error {
			err := cobra.NoArgs(cmd, args)
			if err != nil {
				cmd.PrintErrln(err)
				_ = cmd.Usage()
			}
			return err
		},
		ValidArgsFunction: cobra.NoFileCompletions,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), versionString(slogconsole.Version, BuildDate, runtime.Version()))
		},
	}
}

// versionString formats the version metadata for display.
func versionString(version, buildDate, runtimeVersion string) string {
	out := version
	if buildDate != "" {
		out += " (" + buildDate + ")"
	}
	return out + ", Go Version: " + runtimeVersion
}
