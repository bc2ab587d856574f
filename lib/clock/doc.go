// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time abstraction for testability.
//
// Components that make decisions based on elapsed time accept a Clock
// instead of calling time.Now directly. In production, Real() provides
// the standard library behavior. In tests, Fake() provides a clock
// that only moves when the test says so:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	session, _ := vfs.NewSession(vfs.Options{Clock: c, ...})
//	c.Advance(2 * time.Second) // next request sees an expired tree
package clock
