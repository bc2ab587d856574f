// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package vtree

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"path"
	"slices"

	"github.com/zeebo/blake3"

	"github.com/bureau-foundation/transformfs/lib/transform"
)

// Ino is a node identity. It is only meaningful within the Tree that
// issued it.
type Ino uint64

// RootIno is the identity of the root directory in every generation.
const RootIno Ino = 1

// Kind distinguishes file nodes from directory nodes.
type Kind uint8

const (
	KindFile Kind = iota + 1
	KindDirectory
)

// String returns "file" or "directory".
func (kind Kind) String() string {
	switch kind {
	case KindFile:
		return "file"
	case KindDirectory:
		return "directory"
	default:
		return fmt.Sprintf("unknown(%d)", kind)
	}
}

// Child is one entry of a directory listing.
type Child struct {
	Ino  Ino
	Name string
	Kind Kind
}

// Node is a file or directory in a Tree. Nodes are read-only once the
// Tree is built.
type Node struct {
	Ino  Ino
	Path string
	Kind Kind

	// Metadata and Content are set for file nodes only.
	Metadata transform.FileMetadata
	Content  transform.Content

	// Children is set for directory nodes only, in insertion order.
	Children []Child
}

// IsDir reports whether n is a directory.
func (n *Node) IsDir() bool {
	return n.Kind == KindDirectory
}

// ErrInvariantViolation is wrapped by every error returned from
// Tree.Verify.
var ErrInvariantViolation = errors.New("tree invariant violated")

// Tree is one generation of the virtual filesystem.
type Tree struct {
	nodes map[Ino]*Node
	paths map[string]Ino
	next  Ino
}

// FirstIno is the first identity issued to a non-root node of the
// first generation.
const FirstIno = RootIno + 1

// New returns a tree containing only the empty root directory.
func New() *Tree {
	return NewFrom(FirstIno)
}

// NewFrom returns a tree containing only the empty root directory whose
// other nodes will be numbered from first. Values below FirstIno are
// raised to FirstIno.
func NewFrom(first Ino) *Tree {
	tree := &Tree{
		nodes: make(map[Ino]*Node),
		paths: make(map[string]Ino),
		next:  max(first, FirstIno),
	}
	tree.nodes[RootIno] = &Node{Ino: RootIno, Path: "/", Kind: KindDirectory}
	tree.paths["/"] = RootIno
	return tree
}

// Node returns the node with identity ino.
func (t *Tree) Node(ino Ino) (*Node, bool) {
	node, ok := t.nodes[ino]
	return node, ok
}

// Lookup returns the node at the normalized absolute path p. The path
// is not normalized here; callers pass paths built from node paths.
func (t *Tree) Lookup(p string) (*Node, bool) {
	ino, ok := t.paths[p]
	if !ok {
		return nil, false
	}
	return t.nodes[ino], true
}

// Next returns the identity the next placed node would receive. A
// following generation built from it shares no identity with t other
// than the root.
func (t *Tree) Next() Ino {
	return t.next
}

// Len returns the number of nodes, including the root.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Normalize converts a declared path to its canonical absolute form:
// a single leading separator, no trailing separator, no empty, "." or
// ".." components. ".." cannot climb above the root.
func Normalize(p string) string {
	return path.Clean("/" + p)
}

// Verify checks the structural invariants of the tree and returns an
// error wrapping ErrInvariantViolation describing every violation
// found, or nil.
func (t *Tree) Verify() error {
	var violations []error
	violate := func(format string, args ...any) {
		violations = append(violations, fmt.Errorf("%w: %s", ErrInvariantViolation, fmt.Sprintf(format, args...)))
	}

	root, ok := t.nodes[RootIno]
	switch {
	case !ok:
		violate("root identity %d is missing", RootIno)
	case !root.IsDir():
		violate("root is a %s", root.Kind)
	case root.Path != "/":
		violate("root has path %q", root.Path)
	}

	if len(t.nodes) != len(t.paths) {
		violate("%d nodes but %d paths", len(t.nodes), len(t.paths))
	}

	for p, ino := range t.paths {
		node, ok := t.nodes[ino]
		if !ok {
			violate("path %q maps to missing identity %d", p, ino)
			continue
		}
		if node.Path != p {
			violate("path %q maps to identity %d whose path is %q", p, ino, node.Path)
		}
	}

	for ino, node := range t.nodes {
		if node.Ino != ino {
			violate("identity %d holds node recording identity %d", ino, node.Ino)
		}
		if mapped, ok := t.paths[node.Path]; !ok || mapped != ino {
			violate("node %d at %q does not round-trip through the path index", ino, node.Path)
		}
		if !node.IsDir() {
			if len(node.Children) != 0 {
				violate("file %q has children", node.Path)
			}
			continue
		}

		names := make(map[string]struct{}, len(node.Children))
		for _, child := range node.Children {
			if _, duplicate := names[child.Name]; duplicate {
				violate("directory %q lists %q twice", node.Path, child.Name)
			}
			names[child.Name] = struct{}{}

			target, ok := t.nodes[child.Ino]
			if !ok {
				violate("directory %q lists %q with missing identity %d", node.Path, child.Name, child.Ino)
				continue
			}
			if target.Kind != child.Kind {
				violate("directory %q lists %q as %s but node is %s", node.Path, child.Name, child.Kind, target.Kind)
			}
			if expected := path.Join(node.Path, child.Name); target.Path != expected {
				violate("directory %q lists %q but node path is %q", node.Path, child.Name, target.Path)
			}
		}
	}

	return errors.Join(violations...)
}

// Digest returns a hex-encoded blake3 digest of the tree's layout:
// the kind, path and declared size of every node in identity order.
// Two generations with the same layout have the same digest regardless
// of their content providers.
func (t *Tree) Digest() string {
	identities := make([]Ino, 0, len(t.nodes))
	for ino := range t.nodes {
		identities = append(identities, ino)
	}
	slices.Sort(identities)

	hasher := blake3.New()
	var record [9]byte
	for _, ino := range identities {
		node := t.nodes[ino]
		record[0] = byte(node.Kind)
		binary.LittleEndian.PutUint64(record[1:], node.Metadata.Size)
		hasher.Write(record[:])
		hasher.Write([]byte(node.Path))
		hasher.Write([]byte{0})
	}
	return hex.EncodeToString(hasher.Sum(nil))
}
