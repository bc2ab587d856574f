// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package vfs answers filesystem requests against the current
// generation of the virtual tree.
//
// A [Session] owns the tree, decides when to rebuild it, and composes
// the attribute records the kernel sees. It knows nothing about the
// kernel protocol: lib/fuse translates requests into Session calls and
// maps the returned errors ([ErrNotFound], [ErrInvalidOperation],
// [ErrHookFailure]) to errno values.
//
// Lookup, GetAttr and ReadDir first run the refresh check: once more
// than the configured interval has passed since the last successful
// rebuild, the transform is invoked again and the new tree replaces
// the old one in a single pointer swap. A failed rebuild is logged and
// the previous tree keeps serving. Open, Read and Release operate on
// whatever tree is current.
//
// Session methods are not safe for concurrent use. The FUSE server
// runs single-threaded, which serializes every handler. The one
// exception is [Session.Invalidate], which may be called from any
// goroutine.
package vfs
