// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transform

import (
	"log/slog"
	"path/filepath"

	"github.com/bureau-foundation/transformfs/lib/hostfs"
)

// Flatten expands the configured inputs into a list of regular files.
//
// An input that is a regular file (or a symlink to one) is passed
// through exactly as given. An input that is a directory is replaced
// by every regular file beneath it, found by a recursive walk in
// lexical order, so the result is deterministic for a fixed
// filesystem state. Symlinks met during the walk are included when
// they resolve to regular files; symlinked directories are not
// descended into. Anything that cannot be examined is logged and
// skipped, and the walk continues.
func Flatten(inputs []string, logger *slog.Logger) []string {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	var files []string
	for _, input := range inputs {
		attr, err := hostfs.ReadAttr(input)
		if err != nil {
			logger.Error("skipping input", "path", input, "error", err)
			continue
		}

		switch attr.Kind {
		case hostfs.KindRegular:
			files = append(files, input)
		case hostfs.KindDirectory:
			files = walk(input, files, logger)
		default:
			logger.Warn("skipping input that is neither file nor directory",
				"path", input, "kind", attr.Kind)
		}
	}
	return files
}

func walk(directory string, files []string, logger *slog.Logger) []string {
	entries, err := hostfs.ReadDir(directory, logger)
	if err != nil {
		logger.Error("skipping unreadable directory", "path", directory, "error", err)
		return files
	}

	for _, entry := range entries {
		path := filepath.Join(directory, entry.Name)
		switch entry.Kind {
		case hostfs.KindRegular:
			files = append(files, path)
		case hostfs.KindDirectory:
			files = walk(path, files, logger)
		case hostfs.KindSymlink:
			attr, err := hostfs.ReadAttr(path)
			if err != nil {
				logger.Warn("skipping dangling symlink", "path", path, "error", err)
				continue
			}
			if attr.Kind == hostfs.KindRegular {
				files = append(files, path)
			}
		}
	}
	return files
}
