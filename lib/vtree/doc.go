// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package vtree materializes a transform's output into a rooted tree
// of directory and file nodes.
//
// A [Tree] is one generation: it is built in a single pass by [Build]
// and never mutated afterwards. Rebuilding produces a new Tree with
// [BuildFrom], continuing from the previous generation's [Tree.Next],
// so an identity from an old generation never names a node of a newer
// one. The filesystem swaps the pointer, so no reader ever observes a
// half-built generation.
//
// Directories are never declared. They are synthesized from the path
// components of file entries, in the order entries arrive. Placement
// is first-entry-wins: an entry that would put a file where a
// directory already is, a directory where a file already is, or a
// second node at an occupied path is dropped with a [ConflictError]
// and construction continues with the next entry.
//
// Identity 1 ([RootIno]) is always the root directory "/". Every other
// node gets the next identity in sequence, starting at 2 in the first
// generation, assigned only when the node is actually placed, so
// identities within a generation are dense.
package vtree
