// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package transform defines the contract between transformfs and the
// routine that decides what the mounted filesystem contains.
//
// A [Transformer] receives the flattened list of input files and
// returns an ordered list of [Entry] values, each naming a virtual
// file path, its declared size, and a [Content] provider that serves
// open/read/close for that file. The JavaScript runtime in lib/script
// is the production Transformer; [Func], [FuncContent] and [Bytes]
// let Go code (tests, embedders) supply native ones.
//
// [Invoke] is the single entry point the filesystem uses: it expands
// input directories with [Flatten], calls the Transformer exactly
// once, and validates what comes back.
package transform
