// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version provides build version information for the
// transformfs binary.
//
// Three package-level variables can be injected at build time via
// -ldflags -X:
//
//   - [GitCommit] -- short git SHA of the build
//   - [BuildTime] -- UTC timestamp of the build
//   - [Version] -- semantic version string (set manually for releases)
//
// When they are not injected, [Info] falls back to the VCS stamp the
// Go toolchain embeds in the binary, so plain `go build` and
// `go install` outputs still identify their commit.
package version
