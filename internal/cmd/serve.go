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
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"

	"github.com/pjscruggs/slogconsole"
)

const (
	serveCmdUsage = "serve"
	serveCmdShort = "run a sample HTTP server with access logging"
	serveCmdLong  = `Run a sample HTTP server whose requests are written to the console in
	the short access log format.

	Routes:
	- GET /           replies with a greeting
	- GET /fail       replies with a 418 error
	- GET /-/healthz  health check, not logged

	With --bucket every log line is also uploaded to Azure Blob Storage using
	AZURE_STORAGE_BLOB_CONNECTION_STRING or AZURE_STORAGE_BLOB_ACCOUNT_NAME.`

	serveCmdExample = `# Serve on port 3000
	slogconsole serve --addr :3000

	# Persist logs under api/ in the "logs" container
	slogconsole serve --bucket logs --path api`

	addrFlagName    = "addr"
	addrFlagUsage   = "address to listen on"
	defaultAddr     = ":8080"
	bucketFlagName  = "bucket"
	bucketFlagUsage = "object storage bucket (container) for persisted logs"
	pathFlagName    = "path"
	pathFlagUsage   = "key prefix for persisted logs"
	skipFlagName    = "skip-prefix"
	skipFlagUsage   = "request path prefix excluded from the access log, can be repeated"
	healthPath      = "/-/healthz"
	shutdownTimeout = 5 * time.Second
)

type serveFlags struct {
	addr       string
	bucket     string
	path       string
	skip       []string
	noOverride bool
}

func (f *serveFlags) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.addr, addrFlagName, defaultAddr, addrFlagUsage)
	cmd.Flags().StringVar(&f.bucket, bucketFlagName, "", bucketFlagUsage)
	cmd.Flags().StringVar(&f.path, pathFlagName, "", pathFlagUsage)
	cmd.Flags().StringArrayVar(&f.skip, skipFlagName, []string{"/-/"}, skipFlagUsage)
	cmd.Flags().BoolVar(&f.noOverride, noOverrideFlagName, false, noOverrideFlagUsage)
}

// ServeCmd returns the "serve" command.
func ServeCmd() *cobra.Command {
	flags := &serveFlags{}
	cmd := &cobra.Command{
		Use:     serveCmdUsage,
		Short:   heredoc.Doc(serveCmdShort),
		Long:    heredoc.Doc(serveCmdLong),
		Example: heredoc.Doc(serveCmdExample),

		SilenceErrors: true,
		SilenceUsage:  true,

		Args:              cobra.NoArgs,
		ValidArgsFunction: cobra.NoFileCompletions,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			app, logger := newServer(cmd, flags)
			if err := serve(ctx, app, flags.addr); err != nil {
				_ = logger.Close()
				return handleError(cmd, err)
			}
			if err := logger.Close(); err != nil {
				return handleError(cmd, err)
			}
			return nil
		},
	}

	flags.addFlags(cmd)
	return cmd
}

// newServer builds the fiber app and the logger attached to it.
func newServer(cmd *cobra.Command, flags *serveFlags) (*fiber.App, *slogconsole.Logger) {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})

	opts := loggerOptions(cmd, flags.noOverride)
	opts = append(opts,
		slogconsole.WithFiberApp(app),
		slogconsole.WithAccessLogSkip(flags.skip...),
	)
	if flags.bucket != "" {
		opts = append(opts, slogconsole.WithStorage(slogconsole.StorageOutput{
			BucketName: flags.bucket,
			Path:       flags.path,
		}))
	}
	logger := slogconsole.New(opts...)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("hello from slogconsole")
	})
	app.Get("/fail", func(*fiber.Ctx) error {
		return fiber.NewError(fiber.StatusTeapot, "no coffee here")
	})
	app.Get(healthPath, func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	return app, logger
}

// serve runs app until ctx is cancelled, then shuts it down gracefully.
func serve(ctx context.Context, app *fiber.App, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen on %s: %w", addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("shutdown server: %w", err)
	}
	return <-errCh
}
