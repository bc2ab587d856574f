// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for transformfs
// packages.
//
// [WriteFiles] lays out a host directory tree from a map of relative
// paths to contents. Transform inputs, scripts and mount fixtures are
// all built this way.
//
// [RequireReceive] and [RequireEventually] encapsulate the timeout
// safety valve pattern so that individual tests do not need direct
// time.After or sleep loops. These are the only places in the test
// suite where real wall-clock timeouts are used; everything that
// depends on elapsed time for its semantics takes a lib/clock.Clock.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
//
// This package has no transformfs-internal dependencies.
package testutil
