// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fuse

import (
	"errors"
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/hanwen/go-fuse/v2/fuse"
	"golang.org/x/sys/unix"

	"github.com/bureau-foundation/transformfs/lib/clock"
	"github.com/bureau-foundation/transformfs/lib/transform"
	"github.com/bureau-foundation/transformfs/lib/vfs"
	"github.com/bureau-foundation/transformfs/lib/vtree"
)

// testTimestamp is the fixed session creation time used in tests.
var testTimestamp = time.Unix(1735689600, 0) // 2025-01-01T00:00:00Z

func newTestSession(t *testing.T, entries ...transform.Entry) *vfs.Session {
	t.Helper()
	session, err := vfs.New(vfs.Options{
		Transformer: transform.Func(func([]string) ([]transform.Entry, error) { return entries, nil }),
		Interval:    2 * time.Second,
		Clock:       clock.Fake(testTimestamp),
	})
	if err != nil {
		t.Fatalf("vfs.New: %v", err)
	}
	return session
}

func header(ino vtree.Ino) fuse.InHeader {
	return fuse.InHeader{NodeId: uint64(ino)}
}

func TestToStatus(t *testing.T) {
	tests := []struct {
		err  error
		want fuse.Status
	}{
		{nil, fuse.OK},
		{vfs.ErrNotFound, fuse.ENOENT},
		{fmt.Errorf("wrapped: %w", vfs.ErrNotFound), fuse.ENOENT},
		{vfs.ErrInvalidOperation, fuse.EIO},
		{vfs.ErrHookFailure, fuse.EIO},
		{errors.New("anything else"), fuse.EIO},
	}
	for _, test := range tests {
		if got := toStatus(test.err); got != test.want {
			t.Errorf("toStatus(%v) = %v, want %v", test.err, got, test.want)
		}
	}
}

func TestLookupAndGetAttr(t *testing.T) {
	fs := newFileSystem(newTestSession(t, transform.Bytes("/dir/file.txt", []byte("hello"))))

	var directory fuse.EntryOut
	in := header(vtree.RootIno)
	if status := fs.Lookup(nil, &in, "dir", &directory); status != fuse.OK {
		t.Fatalf("Lookup(dir) = %v", status)
	}
	if directory.Mode != unix.S_IFDIR|0o555 || directory.Nlink != 2 {
		t.Errorf("dir mode = %o nlink = %d", directory.Mode, directory.Nlink)
	}
	if directory.EntryTimeout() != 2*time.Second || directory.AttrTimeout() != 2*time.Second {
		t.Errorf("timeouts = %s/%s, want 2s", directory.EntryTimeout(), directory.AttrTimeout())
	}

	var file fuse.EntryOut
	in = header(vtree.Ino(directory.NodeId))
	if status := fs.Lookup(nil, &in, "file.txt", &file); status != fuse.OK {
		t.Fatalf("Lookup(file.txt) = %v", status)
	}
	if file.NodeId != file.Ino || file.Size != 5 || file.Mode != unix.S_IFREG|0o444 || file.Blocks != 1 {
		t.Errorf("file attr = %+v", file.Attr)
	}
	if !file.ModTime().Equal(testTimestamp) {
		t.Errorf("mtime = %s, want %s", file.ModTime(), testTimestamp)
	}

	var missing fuse.EntryOut
	in = header(vtree.RootIno)
	if status := fs.Lookup(nil, &in, "absent", &missing); status != fuse.ENOENT {
		t.Errorf("Lookup(absent) = %v, want ENOENT", status)
	}

	var attr fuse.AttrOut
	getattr := fuse.GetAttrIn{InHeader: header(vtree.Ino(file.NodeId))}
	if status := fs.GetAttr(nil, &getattr, &attr); status != fuse.OK {
		t.Fatalf("GetAttr = %v", status)
	}
	if attr.Size != 5 || attr.Timeout() != 2*time.Second {
		t.Errorf("GetAttr size = %d timeout = %s", attr.Size, attr.Timeout())
	}
}

func TestOpenReadRelease(t *testing.T) {
	closed := 0
	session := newTestSession(t,
		transform.Entry{
			Path:     "/data",
			Metadata: transform.FileMetadata{Size: 10},
			Content: &transform.FuncContent{
				ReadFunc: func(offset int64, length uint32) ([]byte, error) {
					return []byte(fmt.Sprintf("%d+%d", offset, length)), nil
				},
				CloseFunc: func() error { closed++; return nil },
			},
		},
		transform.Entry{
			Path:     "/broken",
			Metadata: transform.FileMetadata{Size: 1},
			Content: &transform.FuncContent{
				ReadFunc: func(int64, uint32) ([]byte, error) { return nil, errors.New("boom") },
			},
		},
	)
	fs := newFileSystem(session)
	data, _ := session.Tree().Lookup("/data")
	broken, _ := session.Tree().Lookup("/broken")

	var opened fuse.OpenOut
	if status := fs.Open(nil, &fuse.OpenIn{InHeader: header(data.Ino), Flags: unix.O_RDONLY}, &opened); status != fuse.OK {
		t.Fatalf("Open = %v", status)
	}
	if opened.Fh != 0 {
		t.Errorf("Fh = %d, want 0", opened.Fh)
	}
	if status := fs.Open(nil, &fuse.OpenIn{InHeader: header(data.Ino), Flags: unix.O_WRONLY}, &opened); status != fuse.EROFS {
		t.Errorf("Open for writing = %v, want EROFS", status)
	}
	if status := fs.Open(nil, &fuse.OpenIn{InHeader: header(vtree.RootIno)}, &opened); status != fuse.EIO {
		t.Errorf("Open(root) = %v, want EIO", status)
	}

	result, status := fs.Read(nil, &fuse.ReadIn{InHeader: header(data.Ino), Offset: 3, Size: 4}, nil)
	if status != fuse.OK {
		t.Fatalf("Read = %v", status)
	}
	got, status := result.Bytes(make([]byte, 64))
	if status != fuse.OK || string(got) != "3+4" {
		t.Errorf("Read bytes = %q (%v), want 3+4", got, status)
	}

	if _, status := fs.Read(nil, &fuse.ReadIn{InHeader: header(broken.Ino), Size: 1}, nil); status != fuse.EIO {
		t.Errorf("Read(broken) = %v, want EIO", status)
	}
	if _, status := fs.Read(nil, &fuse.ReadIn{InHeader: header(999), Size: 1}, nil); status != fuse.ENOENT {
		t.Errorf("Read(missing) = %v, want ENOENT", status)
	}

	fs.Release(nil, &fuse.ReleaseIn{InHeader: header(data.Ino)})
	if closed != 1 {
		t.Errorf("close hook ran %d times, want 1", closed)
	}
}

func TestOpenDir(t *testing.T) {
	session := newTestSession(t, transform.Bytes("/file", nil))
	fs := newFileSystem(session)
	file, _ := session.Tree().Lookup("/file")

	var out fuse.OpenOut
	tests := []struct {
		ino  vtree.Ino
		want fuse.Status
	}{
		{vtree.RootIno, fuse.OK},
		{file.Ino, fuse.ENOTDIR},
		{999, fuse.ENOENT},
	}
	for _, test := range tests {
		if status := fs.OpenDir(nil, &fuse.OpenIn{InHeader: header(test.ino)}, &out); status != test.want {
			t.Errorf("OpenDir(%d) = %v, want %v", test.ino, status, test.want)
		}
	}
}

// TestReadDirWithSmallBuffers enumerates a directory through real
// DirEntryList buffers sized to hold only a few entries per call and
// checks every child is returned once, in order.
func TestReadDirWithSmallBuffers(t *testing.T) {
	var entries []transform.Entry
	var want []string
	for index := range 40 {
		name := fmt.Sprintf("entry-%02d", index)
		entries = append(entries, transform.Bytes("/"+name, nil))
		want = append(want, name)
	}
	fs := newFileSystem(newTestSession(t, entries...))

	var got []string
	offset := uint64(0)
	for calls := 0; calls < 100; calls++ {
		list := fuse.NewDirEntryList(make([]byte, 128), offset)
		in := fuse.ReadIn{InHeader: header(vtree.RootIno), Offset: offset}
		if status := fs.ReadDir(nil, &in, list); status != fuse.OK {
			t.Fatalf("ReadDir = %v", status)
		}
		if list.Offset == offset {
			break
		}
		for next := offset; next < list.Offset; next++ {
			got = append(got, want[next])
		}
		offset = list.Offset
	}
	if !slices.Equal(got, want) {
		t.Errorf("enumerated %d entries, want %d in order", len(got), len(want))
	}
}

func TestReadDirErrors(t *testing.T) {
	session := newTestSession(t, transform.Bytes("/file", nil))
	fs := newFileSystem(session)
	file, _ := session.Tree().Lookup("/file")

	list := fuse.NewDirEntryList(make([]byte, 4096), 0)
	if status := fs.ReadDir(nil, &fuse.ReadIn{InHeader: header(file.Ino)}, list); status != fuse.EIO {
		t.Errorf("ReadDir(file) = %v, want EIO", status)
	}
	if status := fs.ReadDir(nil, &fuse.ReadIn{InHeader: header(999)}, list); status != fuse.ENOENT {
		t.Errorf("ReadDir(missing) = %v, want ENOENT", status)
	}
}

func TestStatFs(t *testing.T) {
	fs := newFileSystem(newTestSession(t, transform.Bytes("/a/b", nil)))

	var out fuse.StatfsOut
	in := header(vtree.RootIno)
	if status := fs.StatFs(nil, &in, &out); status != fuse.OK {
		t.Fatalf("StatFs = %v", status)
	}
	if out.Files != 3 || out.Bsize != vfs.BlockSize || out.NameLen != vfs.NameLength || out.Blocks != 0 || out.Bfree != 0 {
		t.Errorf("StatFs = %+v", out)
	}
}

func TestUnimplementedOperationsReturnENOSYS(t *testing.T) {
	fs := newFileSystem(newTestSession(t))
	var out fuse.EntryOut
	if status := fs.Mkdir(nil, &fuse.MkdirIn{InHeader: header(vtree.RootIno)}, "new", &out); status != fuse.ENOSYS {
		t.Errorf("Mkdir = %v, want ENOSYS", status)
	}
}

func TestMountOptions(t *testing.T) {
	logger := discardLogger()
	tests := []struct {
		name    string
		options Options
		want    []string
		other   bool
	}{
		{"defaults", Options{}, []string{"ro"}, false},
		{"allow other", Options{AllowOther: true}, []string{"ro"}, true},
		{"allow root", Options{AllowRoot: true}, []string{"ro", "allow_root"}, false},
		{"auto unmount implies allow root", Options{AutoUnmount: true}, []string{"ro", "auto_unmount", "allow_root"}, false},
		{"auto unmount with allow other", Options{AutoUnmount: true, AllowOther: true}, []string{"ro", "auto_unmount"}, true},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := test.options.MountOptions(logger)
			if !slices.Equal(got.Options, test.want) {
				t.Errorf("Options = %v, want %v", got.Options, test.want)
			}
			if got.AllowOther != test.other {
				t.Errorf("AllowOther = %v, want %v", got.AllowOther, test.other)
			}
			if !got.SingleThreaded || !got.DisableReadDirPlus {
				t.Error("mount must be single-threaded without readdirplus")
			}
			if got.FsName != Name || got.Name != Name {
				t.Errorf("FsName/Name = %q/%q, want %q", got.FsName, got.Name, Name)
			}
		})
	}
}
