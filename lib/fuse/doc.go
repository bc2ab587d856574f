// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package fuse exposes a vfs.Session to the kernel through go-fuse's
// raw protocol API.
//
// The raw API is used rather than go-fuse's node API because the
// session owns inode numbering and directory cursors: node identities
// go to the kernel unchanged as inode numbers, and readdir offsets are
// the session's child-list cursors. The server runs single-threaded,
// which is what serializes Session calls.
package fuse
