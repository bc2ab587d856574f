// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package vfs

import (
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/bureau-foundation/transformfs/lib/clock"
	"github.com/bureau-foundation/transformfs/lib/metrics"
	"github.com/bureau-foundation/transformfs/lib/transform"
	"github.com/bureau-foundation/transformfs/lib/vtree"
)

var (
	// ErrNotFound means the identity or path does not exist in the
	// current tree.
	ErrNotFound = errors.New("no such entry")

	// ErrInvalidOperation means the operation does not apply to the
	// node's kind, such as reading a directory.
	ErrInvalidOperation = errors.New("operation not valid for this node")

	// ErrHookFailure means a file's open, read or close hook failed.
	ErrHookFailure = errors.New("content hook failed")
)

// DefaultInterval is the refresh interval and attribute validity used
// when Options.Interval is zero.
const DefaultInterval = time.Second

// Options configures a Session.
type Options struct {
	// Transformer produces the entries of each tree generation.
	Transformer transform.Transformer

	// Inputs are the host paths passed to the transformer after
	// flattening. They are re-flattened on every rebuild, so files
	// added to an input directory appear at the next refresh.
	Inputs []string

	// Interval is both how long the kernel may cache attributes and
	// entries and how long a tree is served before it is rebuilt.
	// Zero means DefaultInterval.
	Interval time.Duration

	// Clock provides time for refresh decisions and attribute
	// timestamps. If nil, clock.Real() is used.
	Clock clock.Clock

	// Metrics receives request and rebuild counters. May be nil.
	Metrics *metrics.Metrics

	// Logger receives rebuild results, conflicts and hook failures.
	// If nil, logging is discarded.
	Logger *slog.Logger
}

// Session serves one mount.
type Session struct {
	transformer transform.Transformer
	inputs      []string
	interval    time.Duration
	clock       clock.Clock
	metrics     *metrics.Metrics
	logger      *slog.Logger
	template    Template

	tree        atomic.Pointer[vtree.Tree]
	lastRebuild time.Time
	invalidated atomic.Bool
}

// New creates a session and builds the first tree. A failure of that
// first build is returned: there is no previous generation to fall
// back to.
func New(options Options) (*Session, error) {
	if options.Transformer == nil {
		return nil, errors.New("vfs: Transformer is required")
	}
	if options.Interval < 0 {
		return nil, fmt.Errorf("vfs: negative interval %s", options.Interval)
	}

	session := &Session{
		transformer: options.Transformer,
		inputs:      options.Inputs,
		interval:    options.Interval,
		clock:       options.Clock,
		metrics:     options.Metrics,
		logger:      options.Logger,
	}
	if session.interval == 0 {
		session.interval = DefaultInterval
	}
	if session.clock == nil {
		session.clock = clock.Real()
	}
	if session.logger == nil {
		session.logger = slog.New(slog.DiscardHandler)
	}
	session.template = newTemplate(session.clock.Now())

	if err := session.Rebuild(); err != nil {
		return nil, fmt.Errorf("building initial tree: %w", err)
	}
	return session, nil
}

// Tree returns the generation currently being served.
func (s *Session) Tree() *vtree.Tree {
	return s.tree.Load()
}

// TTL is how long the kernel may cache entries and attributes
// returned by this session.
func (s *Session) TTL() time.Duration {
	return s.interval
}

// Template returns the attribute template captured at session start.
func (s *Session) Template() Template {
	return s.template
}
