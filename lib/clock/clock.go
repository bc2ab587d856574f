// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Clock abstracts the wall clock so that time-dependent behavior (the
// tree refresh interval, attribute timestamps) can be driven
// deterministically in tests.
//
// Production code injects Real(); tests inject Fake() and move time
// forward explicitly with Advance.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// Real returns a Clock backed by the standard time package.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }
