// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transform

import (
	"errors"
	"fmt"
	"log/slog"
)

// ErrMalformedEntry marks an output entry that is missing a required
// field. A single malformed entry fails the whole invocation.
var ErrMalformedEntry = errors.New("malformed output entry")

// FileMetadata is the metadata a transform declares for a file.
type FileMetadata struct {
	// Size is the file size reported to the kernel. Reads are not
	// clamped to it; the Content provider decides what bytes exist.
	Size uint64

	// BlockSize is the preferred I/O size. Zero means unspecified,
	// in which case the filesystem's default applies.
	BlockSize uint32
}

// Content serves the data of one virtual file. Implementations are
// called from the filesystem's request loop one call at a time.
type Content interface {
	// Open is called when the kernel opens the file. An error
	// refuses the open.
	Open() error

	// Read returns the bytes at [offset, offset+length). The returned
	// buffer is passed to the kernel unmodified, so it may be shorter
	// (end of file) or, if the provider chooses, longer than length.
	Read(offset int64, length uint32) ([]byte, error)

	// Close is called when the kernel releases the file.
	Close() error
}

// Entry is one output of a transform: a file at Path whose data is
// served by Content. Directories are never declared; they are implied
// by the path components of the files beneath them.
type Entry struct {
	Path     string
	Metadata FileMetadata
	Content  Content
}

// Transformer turns the flattened input file list into the entries of
// the virtual filesystem.
type Transformer interface {
	Transform(inputs []string) ([]Entry, error)
}

// Func adapts an ordinary function into a Transformer.
type Func func(inputs []string) ([]Entry, error)

// Transform calls f.
func (f Func) Transform(inputs []string) ([]Entry, error) {
	return f(inputs)
}

// Invoke flattens inputs, calls transformer once with the result, and
// validates the returned entries. Any error from the transformer or
// any malformed entry fails the whole invocation; no partial entry
// list is returned.
func Invoke(transformer Transformer, inputs []string, logger *slog.Logger) ([]Entry, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	files := Flatten(inputs, logger)
	logger.Debug("invoking transform", "inputs", len(inputs), "files", len(files))

	entries, err := transformer.Transform(files)
	if err != nil {
		return nil, fmt.Errorf("transform failed: %w", err)
	}

	for index, entry := range entries {
		if err := validate(entry); err != nil {
			return nil, fmt.Errorf("invalid output from transform: entry %d: %w", index, err)
		}
	}

	logger.Info("transform produced output", "entries", len(entries))
	return entries, nil
}

func validate(entry Entry) error {
	if entry.Path == "" {
		return fmt.Errorf("%w: empty path", ErrMalformedEntry)
	}
	if entry.Content == nil {
		return fmt.Errorf("%w: %s: no content provider", ErrMalformedEntry, entry.Path)
	}
	return nil
}
