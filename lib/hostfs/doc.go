// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package hostfs reads metadata from the real (host) filesystem.
//
// It is the boundary between transformfs and the input files it is
// pointed at: [ReadAttr] converts a stat(2) result into an [Attr]
// record and [ReadDir] lists a directory's immediate children as
// (inode, kind, name) triples. Neither function is used while serving
// the mounted filesystem; they run while flattening the configured
// inputs before a transform, and on behalf of transform scripts that
// inspect their inputs through the host helpers.
package hostfs
