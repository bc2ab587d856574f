// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package vfs

import (
	"fmt"

	"github.com/bureau-foundation/transformfs/lib/transform"
	"github.com/bureau-foundation/transformfs/lib/vtree"
)

// Invalidate forces the next refresh check to rebuild regardless of
// how recently the tree was built. It is safe to call from any
// goroutine; the rebuild itself happens on the request path.
func (s *Session) Invalidate() {
	s.invalidated.Store(true)
}

// refresh rebuilds the tree when the interval has elapsed or the
// session was invalidated. A failed rebuild keeps the current tree
// and leaves the rebuild timestamp alone, so the next request retries.
func (s *Session) refresh() {
	forced := s.invalidated.Swap(false)
	if !forced && s.clock.Now().Sub(s.lastRebuild) <= s.interval {
		return
	}
	if err := s.Rebuild(); err != nil {
		s.logger.Error("rebuild failed, serving previous tree", "error", err)
	}
}

// Rebuild runs the transform and replaces the current tree with the
// result. On error the current tree is unchanged.
func (s *Session) Rebuild() error {
	started := s.clock.Now()

	entries, err := transform.Invoke(s.transformer, s.inputs, s.logger)
	if err != nil {
		s.metrics.RecordRebuild(false, s.clock.Now().Sub(started), 0, 0)
		return err
	}

	// Identities continue from the served generation, so ones the
	// kernel still holds from it resolve to ErrNotFound afterwards.
	first := vtree.FirstIno
	if current := s.tree.Load(); current != nil {
		first = current.Next()
	}
	tree, stats := vtree.BuildFrom(first, entries, s.logger)
	if err := tree.Verify(); err != nil {
		s.metrics.RecordRebuild(false, s.clock.Now().Sub(started), 0, 0)
		return fmt.Errorf("built tree is inconsistent: %w", err)
	}

	previous := s.tree.Swap(tree)
	s.lastRebuild = s.clock.Now()
	s.metrics.RecordRebuild(true, s.lastRebuild.Sub(started), tree.Len(), stats.Conflicts)

	digest := tree.Digest()
	s.logger.Info("tree rebuilt",
		"nodes", tree.Len(),
		"placed", stats.Placed,
		"directories", stats.Directories,
		"conflicts", stats.Conflicts,
		"invalid", stats.Invalid,
		"digest", digest,
		"changed", previous == nil || previous.Digest() != digest,
	)
	return nil
}
