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

// Package slogconsole builds console loggers on top of [log/slog]. Every
// record becomes one line of the form
//
//	2024-01-02T03:04:05.678Z info server started on port 8080
//
// with the timestamp in UTC and millisecond precision. The severity methods
// on [Logger] accept any number of arguments: errors are printed with a stack
// trace, plain maps, structs and slices are rendered as JSON, and everything
// else goes through [fmt.Sprint].
//
// The primary entry point is [New]. It never fails; invalid settings fall back
// to defaults and are reported as a warning through the new logger.
//
//	logger := slogconsole.New(slogconsole.WithLevelName("debug"))
//	defer logger.Close()
//
//	logger.Info("listening on", addr)
//	logger.Error(err)
//
// # Console override
//
// Unless disabled with [WithConsoleOverride] or
// SLOGCONSOLE_OVERRIDE_CONSOLE=false, New installs the logger as the
// [slog.Default] logger, which also routes the standard [log] package through
// it. Only one logger owns the override at a time. [Logger.Close] restores the
// previous state, and [Default] returns the active logger.
//
// The log package formats its arguments with fmt before they reach the
// logger, so log.Print(err) prints only the error text and log.Print(m)
// prints m with %v. Stack traces and JSON rendering apply to the Logger's
// own methods and to values passed as slog attributes, such as
// slog.Error("failed", "err", err).
//
// # Sinks
//
// Lines always go to the console (stdout unless [WithWriter] is used). With
// [WithStorage], or SLOGCONSOLE_STORAGE_BUCKET, each record is also uploaded
// as a JSON document to Azure Blob Storage in the background. Uploads are not
// retried and are drained by Close.
//
// [WithFiberApp] attaches access logging to a Fiber application. The
// [github.com/pjscruggs/slogconsole/slogconsolehttp] package offers the same
// for net/http.
//
// # Environment
//
//   - LOG_LEVEL: silly, debug, verbose, info, warn or error.
//   - SLOGCONSOLE_OVERRIDE_CONSOLE, SLOGCONSOLE_COLOR, SLOGCONSOLE_STACK_TRACES:
//     booleans.
//   - NO_COLOR: disables automatic coloring.
//   - SLOGCONSOLE_STORAGE_BUCKET, SLOGCONSOLE_STORAGE_PATH: storage destination.
//   - AZURE_STORAGE_BLOB_CONNECTION_STRING or AZURE_STORAGE_BLOB_ACCOUNT_NAME:
//     storage credentials.
//   - SLOGCONSOLE_ASYNC_*: upload queue tuning, see
//     [github.com/pjscruggs/slogconsole/slogconsoleasync].
//
// Options passed to New take precedence over the environment.
package slogconsole
