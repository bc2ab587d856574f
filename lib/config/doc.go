// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for transformfs.
//
// Every setting can be given on the command line; a configuration
// file is optional and holds the same settings for mounts that are
// started repeatedly (from fstab helpers, systemd units or scripts).
// The file is named by the --config flag (via [LoadFile]) or the
// TRANSFORMFS_CONFIG environment variable (via [Load]). There is no
// automatic file search.
//
// Variable expansion is performed on path fields after loading:
// ${HOME} and ${VAR:-default} patterns are expanded.
//
// Durations accept Go duration strings ("1s", "250ms") or a bare
// integer number of seconds, the same forms the --ttl flag accepts.
//
// This package depends on no other transformfs packages.
package config
