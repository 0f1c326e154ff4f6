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

// Package slogconsoleasync moves slow slog handlers off the logging call
// path. Records are cloned onto a bounded queue and drained by worker
// goroutines; Close waits for the queue to empty.
//
// slogconsole uses it to make object-storage uploads fire-and-forget:
//
//	logger := slogconsole.New(
//		slogconsole.WithStorage(slogconsole.StorageOutput{BucketName: "logs", Path: "api"}),
//		slogconsole.WithStorageAsync(
//			slogconsoleasync.WithQueueSize(1024),
//			slogconsoleasync.WithDropMode(slogconsoleasync.DropModeDropNewest),
//		),
//	)
//	defer logger.Close()
//
// Any other handler can be wrapped directly:
//
//	h := slogconsoleasync.Wrap(slog.NewJSONHandler(os.Stderr, nil), slogconsoleasync.WithEnv())
//
// [WithEnv] reads:
//   - SLOGCONSOLE_ASYNC_ENABLED: true/false
//   - SLOGCONSOLE_ASYNC_QUEUE_SIZE: queue capacity, 0 for unbuffered
//   - SLOGCONSOLE_ASYNC_WORKERS: worker goroutines
//   - SLOGCONSOLE_ASYNC_BATCH_SIZE: records handled per wake-up
//   - SLOGCONSOLE_ASYNC_DROP_MODE: block | drop_newest | drop_oldest
//   - SLOGCONSOLE_ASYNC_FLUSH_TIMEOUT: Go duration bounding Close
package slogconsoleasync
