// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package vfs

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/bureau-foundation/transformfs/lib/metrics"
	"github.com/bureau-foundation/transformfs/lib/vtree"
)

// DirEntry is one entry emitted by ReadDir. Offset is the cursor to
// pass back to ReadDir to continue after this entry.
type DirEntry struct {
	Ino    vtree.Ino
	Name   string
	Kind   vtree.Kind
	Offset uint64
}

// Lookup resolves name inside the directory parent.
func (s *Session) Lookup(parent vtree.Ino, name string) (attr Attr, err error) {
	defer func() { s.record("lookup", err) }()
	s.refresh()

	tree := s.Tree()
	directory, ok := tree.Node(parent)
	if !ok {
		return Attr{}, fmt.Errorf("%w: identity %d", ErrNotFound, parent)
	}
	if name == "" || name == "." || name == ".." || strings.Contains(name, "/") {
		return Attr{}, fmt.Errorf("%w: invalid name %q", ErrNotFound, name)
	}
	node, ok := tree.Lookup(path.Join(directory.Path, name))
	if !ok {
		return Attr{}, fmt.Errorf("%w: %s in %s", ErrNotFound, name, directory.Path)
	}
	return s.template.attrFor(node), nil
}

// GetAttr returns the attributes of ino.
func (s *Session) GetAttr(ino vtree.Ino) (attr Attr, err error) {
	defer func() { s.record("getattr", err) }()
	s.refresh()

	node, ok := s.Tree().Node(ino)
	if !ok {
		return Attr{}, fmt.Errorf("%w: identity %d", ErrNotFound, ino)
	}
	return s.template.attrFor(node), nil
}

// Open runs the open hook of the file ino. The handle the kernel gets
// back carries no state; subsequent calls identify the file by ino.
func (s *Session) Open(ino vtree.Ino) (err error) {
	defer func() { s.record("open", err) }()

	node, err := s.file(ino)
	if err != nil {
		return err
	}
	if err := node.Content.Open(); err != nil {
		return s.hookFailed("open", node, err)
	}
	return nil
}

// Read returns what the read hook of ino produces for the range. The
// bytes are passed through unmodified; the hook alone decides how
// much data there is.
func (s *Session) Read(ino vtree.Ino, offset int64, length uint32) (data []byte, err error) {
	defer func() { s.record("read", err) }()

	node, err := s.file(ino)
	if err != nil {
		return nil, err
	}
	data, err = node.Content.Read(offset, length)
	if err != nil {
		return nil, s.hookFailed("read", node, err)
	}
	return data, nil
}

// Release runs the close hook of the file ino.
func (s *Session) Release(ino vtree.Ino) (err error) {
	defer func() { s.record("release", err) }()

	node, err := s.file(ino)
	if err != nil {
		return err
	}
	if err := node.Content.Close(); err != nil {
		return s.hookFailed("close", node, err)
	}
	return nil
}

// ReadDir emits the children of directory ino starting at the cursor
// offset, calling add for each until add returns false (the reply is
// full) or the children are exhausted.
func (s *Session) ReadDir(ino vtree.Ino, offset uint64, add func(DirEntry) bool) (err error) {
	defer func() { s.record("readdir", err) }()
	s.refresh()

	node, ok := s.Tree().Node(ino)
	if !ok {
		return fmt.Errorf("%w: identity %d", ErrNotFound, ino)
	}
	if !node.IsDir() {
		return fmt.Errorf("%w: readdir on file %s", ErrInvalidOperation, node.Path)
	}

	for index := offset; index < uint64(len(node.Children)); index++ {
		child := node.Children[index]
		if !add(DirEntry{Ino: child.Ino, Name: child.Name, Kind: child.Kind, Offset: index + 1}) {
			break
		}
	}
	return nil
}

// StatFs reports filesystem statistics. Only the file count is
// meaningful; space figures are zero.
func (s *Session) StatFs() StatFs {
	s.record("statfs", nil)
	return StatFs{
		Files:   uint64(s.Tree().Len()),
		Bsize:   BlockSize,
		NameLen: NameLength,
	}
}

// file resolves ino to a file node.
func (s *Session) file(ino vtree.Ino) (*vtree.Node, error) {
	node, ok := s.Tree().Node(ino)
	if !ok {
		return nil, fmt.Errorf("%w: identity %d", ErrNotFound, ino)
	}
	if node.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrInvalidOperation, node.Path)
	}
	return node, nil
}

func (s *Session) hookFailed(hook string, node *vtree.Node, err error) error {
	s.metrics.RecordHookFailure(hook)
	s.logger.Error("content hook failed", "hook", hook, "path", node.Path, "error", err)
	return fmt.Errorf("%w: %s %s: %w", ErrHookFailure, hook, node.Path, err)
}

func (s *Session) record(op string, err error) {
	s.metrics.RecordRequest(op, Result(err))
}

// Result classifies a handler error into a metrics result label.
func Result(err error) string {
	switch {
	case err == nil:
		return metrics.ResultOK
	case errors.Is(err, ErrNotFound):
		return metrics.ResultNotFound
	case errors.Is(err, ErrInvalidOperation):
		return metrics.ResultInvalidOperation
	default:
		return metrics.ResultHookFailure
	}
}
