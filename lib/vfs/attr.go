// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package vfs

import (
	"time"

	"golang.org/x/sys/unix"

	"github.com/bureau-foundation/transformfs/lib/vtree"
)

const (
	// FileMode is the mode of every file: a read-only regular file.
	FileMode = unix.S_IFREG | 0o444

	// DirectoryMode is the mode of every directory: readable and
	// traversable, never writable.
	DirectoryMode = unix.S_IFDIR | 0o555

	// BlockSize is the default block size reported for files that do
	// not declare one, and the filesystem block size in StatFs.
	BlockSize = 4096

	// NameLength is the maximum name length reported by StatFs.
	NameLength = 255
)

// Template holds the attribute fields the transform never supplies.
type Template struct {
	Uid       uint32
	Gid       uint32
	BlockSize uint32

	// Size is reported as the size of every directory.
	Size uint64

	// Time is used for the access, modification and change times of
	// every node.
	Time time.Time
}

func newTemplate(now time.Time) Template {
	return Template{
		Uid:       uint32(unix.Geteuid()),
		Gid:       uint32(unix.Getegid()),
		BlockSize: BlockSize,
		Time:      now,
	}
}

// Attr is the attribute record of a node.
type Attr struct {
	Ino     vtree.Ino
	Kind    vtree.Kind
	Mode    uint32
	Size    uint64
	Blocks  uint64
	Blksize uint32
	Nlink   uint32
	Uid     uint32
	Gid     uint32
	Atime   time.Time
	Mtime   time.Time
	Ctime   time.Time
}

// attrFor composes the attribute record of node.
func (t Template) attrFor(node *vtree.Node) Attr {
	attr := Attr{
		Ino:   node.Ino,
		Kind:  node.Kind,
		Uid:   t.Uid,
		Gid:   t.Gid,
		Atime: t.Time,
		Mtime: t.Time,
		Ctime: t.Time,
	}

	if node.IsDir() {
		attr.Mode = DirectoryMode
		attr.Size = t.Size
		attr.Blksize = t.BlockSize
		attr.Nlink = 2
		return attr
	}

	attr.Mode = FileMode
	attr.Nlink = 1
	attr.Size = node.Metadata.Size
	attr.Blksize = node.Metadata.BlockSize
	if attr.Blksize == 0 {
		attr.Blksize = t.BlockSize
	}
	attr.Blocks = attr.Size / uint64(attr.Blksize)
	if attr.Size%uint64(attr.Blksize) != 0 {
		attr.Blocks++
	}
	return attr
}

// StatFs is the filesystem-wide statistics record.
type StatFs struct {
	Blocks  uint64
	Bfree   uint64
	Bavail  uint64
	Files   uint64
	Ffree   uint64
	Bsize   uint32
	NameLen uint32
	Frsize  uint32
}
