// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides binary entrypoint helpers for transformfs.
// These functions centralize the raw I/O and process control that
// happen before or outside the structured logger:
//
//   - Fatal error reporting to stderr when the logger may not be
//     initialized (pre-logger).
//   - Detaching into the background: the foreground process re-executes
//     itself in a new session with its output redirected, and waits
//     until the child reports the mount is ready (or dies) before
//     returning, so the exit status of the command that started the
//     mount reflects whether the mount succeeded.
package process
