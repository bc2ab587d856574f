// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fuse

import (
	"errors"

	"github.com/hanwen/go-fuse/v2/fuse"
	"golang.org/x/sys/unix"

	"github.com/bureau-foundation/transformfs/lib/vfs"
	"github.com/bureau-foundation/transformfs/lib/vtree"
)

// fileSystem implements fuse.RawFileSystem over a Session. Operations
// it does not override (writes, xattrs, links, locks) fall through to
// the default implementation and return ENOSYS.
type fileSystem struct {
	fuse.RawFileSystem

	session *vfs.Session
}

var _ fuse.RawFileSystem = (*fileSystem)(nil)

func newFileSystem(session *vfs.Session) *fileSystem {
	return &fileSystem{
		RawFileSystem: fuse.NewDefaultRawFileSystem(),
		session:       session,
	}
}

func (fs *fileSystem) String() string {
	return "transformfs"
}

func (fs *fileSystem) Lookup(cancel <-chan struct{}, header *fuse.InHeader, name string, out *fuse.EntryOut) fuse.Status {
	attr, err := fs.session.Lookup(vtree.Ino(header.NodeId), name)
	if err != nil {
		return toStatus(err)
	}
	out.NodeId = uint64(attr.Ino)
	fillAttr(&out.Attr, attr)
	out.SetEntryTimeout(fs.session.TTL())
	out.SetAttrTimeout(fs.session.TTL())
	return fuse.OK
}

func (fs *fileSystem) GetAttr(cancel <-chan struct{}, input *fuse.GetAttrIn, out *fuse.AttrOut) fuse.Status {
	attr, err := fs.session.GetAttr(vtree.Ino(input.NodeId))
	if err != nil {
		return toStatus(err)
	}
	fillAttr(&out.Attr, attr)
	out.SetTimeout(fs.session.TTL())
	return fuse.OK
}

func (fs *fileSystem) Open(cancel <-chan struct{}, input *fuse.OpenIn, out *fuse.OpenOut) fuse.Status {
	if input.Flags&unix.O_ACCMODE != unix.O_RDONLY {
		return fuse.EROFS
	}
	if err := fs.session.Open(vtree.Ino(input.NodeId)); err != nil {
		return toStatus(err)
	}
	out.Fh = 0
	return fuse.OK
}

func (fs *fileSystem) Read(cancel <-chan struct{}, input *fuse.ReadIn, buf []byte) (fuse.ReadResult, fuse.Status) {
	data, err := fs.session.Read(vtree.Ino(input.NodeId), int64(input.Offset), input.Size)
	if err != nil {
		return nil, toStatus(err)
	}
	return fuse.ReadResultData(data), fuse.OK
}

// Release has no way to report failure to the kernel; the session
// has already logged and counted a failing close hook.
func (fs *fileSystem) Release(cancel <-chan struct{}, input *fuse.ReleaseIn) {
	_ = fs.session.Release(vtree.Ino(input.NodeId))
}

func (fs *fileSystem) OpenDir(cancel <-chan struct{}, input *fuse.OpenIn, out *fuse.OpenOut) fuse.Status {
	node, ok := fs.session.Tree().Node(vtree.Ino(input.NodeId))
	if !ok {
		return fuse.ENOENT
	}
	if !node.IsDir() {
		return fuse.ENOTDIR
	}
	out.Fh = 0
	return fuse.OK
}

func (fs *fileSystem) ReadDir(cancel <-chan struct{}, input *fuse.ReadIn, out *fuse.DirEntryList) fuse.Status {
	err := fs.session.ReadDir(vtree.Ino(input.NodeId), input.Offset, func(entry vfs.DirEntry) bool {
		return out.AddDirEntry(fuse.DirEntry{
			Mode: typeBits(entry.Kind),
			Name: entry.Name,
			Ino:  uint64(entry.Ino),
			Off:  entry.Offset,
		})
	})
	return toStatus(err)
}

func (fs *fileSystem) ReleaseDir(input *fuse.ReleaseIn) {}

func (fs *fileSystem) StatFs(cancel <-chan struct{}, input *fuse.InHeader, out *fuse.StatfsOut) fuse.Status {
	stats := fs.session.StatFs()
	out.Blocks = stats.Blocks
	out.Bfree = stats.Bfree
	out.Bavail = stats.Bavail
	out.Files = stats.Files
	out.Ffree = stats.Ffree
	out.Bsize = stats.Bsize
	out.NameLen = stats.NameLen
	out.Frsize = stats.Frsize
	return fuse.OK
}

// toStatus maps session errors to kernel status codes.
func toStatus(err error) fuse.Status {
	switch {
	case err == nil:
		return fuse.OK
	case errors.Is(err, vfs.ErrNotFound):
		return fuse.ENOENT
	default:
		return fuse.EIO
	}
}

func typeBits(kind vtree.Kind) uint32 {
	if kind == vtree.KindDirectory {
		return unix.S_IFDIR
	}
	return unix.S_IFREG
}

func fillAttr(out *fuse.Attr, attr vfs.Attr) {
	out.Ino = uint64(attr.Ino)
	out.Size = attr.Size
	out.Blocks = attr.Blocks
	out.Mode = attr.Mode
	out.Nlink = attr.Nlink
	out.Owner = fuse.Owner{Uid: attr.Uid, Gid: attr.Gid}
	out.Blksize = attr.Blksize
	out.SetTimes(&attr.Atime, &attr.Mtime, &attr.Ctime)
}
