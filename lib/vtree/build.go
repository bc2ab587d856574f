// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package vtree

import (
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/bureau-foundation/transformfs/lib/transform"
)

// ErrInvalidPath marks an entry whose path normalizes to the root.
var ErrInvalidPath = errors.New("invalid entry path")

// ConflictError reports an entry dropped because its path collides
// with a node an earlier entry already placed.
type ConflictError struct {
	// Path is the normalized path of the dropped entry.
	Path string

	// Occupied is the path of the existing node that blocked it: a
	// file on the way to Path, or the node already at Path.
	Occupied string

	// Existing is the kind of the node at Occupied.
	Existing Kind
}

func (e *ConflictError) Error() string {
	if e.Occupied == e.Path {
		return fmt.Sprintf("conflict placing %s: a %s already exists at that path", e.Path, e.Existing)
	}
	return fmt.Sprintf("conflict placing %s: %s is a %s, not a directory", e.Path, e.Occupied, e.Existing)
}

// Stats summarizes one Build.
type Stats struct {
	// Entries is the number of entries offered.
	Entries int

	// Placed is the number of file nodes created.
	Placed int

	// Conflicts counts entries dropped with a ConflictError.
	Conflicts int

	// Invalid counts entries dropped with ErrInvalidPath.
	Invalid int

	// Directories is the number of directories synthesized, not
	// counting the root.
	Directories int
}

// Build constructs the first generation from entries. See BuildFrom.
func Build(entries []transform.Entry, logger *slog.Logger) (*Tree, Stats) {
	return BuildFrom(FirstIno, entries, logger)
}

// BuildFrom constructs a tree from entries in order, numbering non-root
// nodes from first. Entries that cannot
// be placed are logged and dropped; they never prevent later entries
// from being placed. Build never fails: the worst case is a tree
// holding only the root.
func BuildFrom(first Ino, entries []transform.Entry, logger *slog.Logger) (*Tree, Stats) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	tree := NewFrom(first)
	stats := Stats{Entries: len(entries)}
	for _, entry := range entries {
		created, err := tree.place(entry)
		stats.Directories += created
		var conflict *ConflictError
		switch {
		case err == nil:
			stats.Placed++
		case errors.As(err, &conflict):
			stats.Conflicts++
			logger.Error("dropping conflicting entry", "path", entry.Path, "error", err)
		default:
			stats.Invalid++
			logger.Error("dropping invalid entry", "path", entry.Path, "error", err)
		}
	}
	return tree, stats
}

// place inserts one file entry, synthesizing missing parent
// directories. It returns the number of directories it created, which
// stay in the tree even when the leaf itself is then dropped.
func (t *Tree) place(entry transform.Entry) (int, error) {
	normalized := Normalize(entry.Path)
	if normalized == "/" {
		return 0, fmt.Errorf("%w: %q names the root", ErrInvalidPath, entry.Path)
	}

	components := strings.Split(normalized[1:], "/")
	parent := t.nodes[RootIno]
	created := 0
	for _, name := range components[:len(components)-1] {
		prefix := path.Join(parent.Path, name)
		if existing, ok := t.Lookup(prefix); ok {
			if !existing.IsDir() {
				return created, &ConflictError{Path: normalized, Occupied: prefix, Existing: existing.Kind}
			}
			parent = existing
			continue
		}

		directory, err := t.attach(parent, &Node{Path: prefix, Kind: KindDirectory})
		if err != nil {
			return created, err
		}
		created++
		parent = directory
	}

	if existing, ok := t.Lookup(normalized); ok {
		return created, &ConflictError{Path: normalized, Occupied: normalized, Existing: existing.Kind}
	}
	_, err := t.attach(parent, &Node{
		Path:     normalized,
		Kind:     KindFile,
		Metadata: entry.Metadata,
		Content:  entry.Content,
	})
	return created, err
}

// attach assigns node the next identity, registers it, and appends it
// to parent's children. A non-directory parent is reported as a
// conflict and nothing is registered.
func (t *Tree) attach(parent, node *Node) (*Node, error) {
	if !parent.IsDir() {
		return nil, &ConflictError{Path: node.Path, Occupied: parent.Path, Existing: parent.Kind}
	}

	node.Ino = t.next
	t.next++
	t.nodes[node.Ino] = node
	t.paths[node.Path] = node.Ino
	parent.Children = append(parent.Children, Child{
		Ino:  node.Ino,
		Name: path.Base(node.Path),
		Kind: node.Kind,
	})
	return node, nil
}
