// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package hostfs

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sys/unix"
)

// Kind classifies a host filesystem object.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindRegular
	KindDirectory
	KindSymlink
	KindSocket
	KindCharDevice
	KindBlockDevice
	KindNamedPipe
)

// String returns the lowercase name scripts see for a kind.
func (k Kind) String() string {
	switch k {
	case KindRegular:
		return "file"
	case KindDirectory:
		return "directory"
	case KindSymlink:
		return "symlink"
	case KindSocket:
		return "socket"
	case KindCharDevice:
		return "char_device"
	case KindBlockDevice:
		return "block_device"
	case KindNamedPipe:
		return "named_pipe"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

// ErrUnsupportedKind is returned for a stat mode whose file type bits
// match none of the known kinds.
var ErrUnsupportedKind = errors.New("unsupported file type")

// Attr is the attribute record of a host path.
type Attr struct {
	Ino    uint64
	Size   uint64
	Blocks uint64
	Atime  time.Time
	Mtime  time.Time
	Ctime  time.Time
	Kind   Kind
	// Perm holds the permission bits (mode & 07777).
	Perm    uint32
	Nlink   uint32
	Uid     uint32
	Gid     uint32
	Blksize uint32
}

// DirEntry is one immediate child of a host directory.
type DirEntry struct {
	Ino  uint64
	Kind Kind
	Name string
}

// ReadAttr stats path, following symlinks, and returns its attribute
// record.
func ReadAttr(path string) (Attr, error) {
	var stat unix.Stat_t
	if err := unix.Stat(path, &stat); err != nil {
		return Attr{}, &fs.PathError{Op: "stat", Path: path, Err: err}
	}
	return attrFromStat(path, &stat)
}

// ReadDir lists the immediate children of dir in lexical order. Each
// child is examined with lstat, so a symlink is reported as
// KindSymlink rather than as its target's kind. Children that cannot
// be examined are logged and left out; only a failure to open or read
// dir itself is returned as an error.
func ReadDir(dir string, logger *slog.Logger) ([]DirEntry, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	entries, err := os.ReadDir(dir)
	if err != nil && len(entries) == 0 {
		return nil, err
	}
	if err != nil {
		logger.Warn("directory listing truncated", "path", dir, "error", err)
	}

	result := make([]DirEntry, 0, len(entries))
	for _, entry := range entries {
		childPath := filepath.Join(dir, entry.Name())

		var stat unix.Stat_t
		if err := unix.Lstat(childPath, &stat); err != nil {
			logger.Warn("skipping unreadable directory entry", "path", childPath, "error", err)
			continue
		}
		kind, err := kindFromMode(stat.Mode)
		if err != nil {
			logger.Warn("skipping directory entry", "path", childPath, "error", err)
			continue
		}

		result = append(result, DirEntry{
			Ino:  stat.Ino,
			Kind: kind,
			Name: entry.Name(),
		})
	}
	return result, nil
}

func attrFromStat(path string, stat *unix.Stat_t) (Attr, error) {
	kind, err := kindFromMode(stat.Mode)
	if err != nil {
		return Attr{}, &fs.PathError{Op: "stat", Path: path, Err: err}
	}

	blksize := uint32(stat.Blksize)
	size := uint64(stat.Size)
	var blocks uint64
	if blksize > 0 {
		blocks = (size + uint64(blksize) - 1) / uint64(blksize)
	}

	return Attr{
		Ino:     stat.Ino,
		Size:    size,
		Blocks:  blocks,
		Atime:   time.Unix(stat.Atim.Unix()),
		Mtime:   time.Unix(stat.Mtim.Unix()),
		Ctime:   time.Unix(stat.Ctim.Unix()),
		Kind:    kind,
		Perm:    stat.Mode & 0o7777,
		Nlink:   uint32(stat.Nlink),
		Uid:     stat.Uid,
		Gid:     stat.Gid,
		Blksize: blksize,
	}, nil
}

func kindFromMode(mode uint32) (Kind, error) {
	switch mode & unix.S_IFMT {
	case unix.S_IFREG:
		return KindRegular, nil
	case unix.S_IFDIR:
		return KindDirectory, nil
	case unix.S_IFLNK:
		return KindSymlink, nil
	case unix.S_IFSOCK:
		return KindSocket, nil
	case unix.S_IFCHR:
		return KindCharDevice, nil
	case unix.S_IFBLK:
		return KindBlockDevice, nil
	case unix.S_IFIFO:
		return KindNamedPipe, nil
	default:
		return KindUnknown, fmt.Errorf("mode %#o: %w", mode, ErrUnsupportedKind)
	}
}
