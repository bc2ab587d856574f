// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fuse

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/bureau-foundation/transformfs/lib/vfs"
)

// Name is the filesystem name and subtype shown in the mount table.
const Name = "transformfs"

// Options configures the FUSE mount.
type Options struct {
	// Mountpoint is the directory where the filesystem is mounted. It
	// is created if it does not exist.
	Mountpoint string

	// Session answers every request.
	Session *vfs.Session

	// AllowOther permits other users (including root) to access the
	// mount. Requires user_allow_other in /etc/fuse.conf.
	AllowOther bool

	// AllowRoot permits root, in addition to the mounting user, to
	// access the mount.
	AllowRoot bool

	// AutoUnmount asks fusermount to unmount the filesystem when the
	// process exits, even if it is killed. When neither AllowOther
	// nor AllowRoot is set it implies AllowRoot, which fusermount
	// requires for auto_unmount.
	AutoUnmount bool

	// Debug logs every request and reply at debug level.
	Debug bool

	// Logger receives diagnostic messages. If nil, an error-level
	// logger on stderr is used.
	Logger *slog.Logger
}

// MountOptions returns the go-fuse mount options for options.
func (options Options) MountOptions(logger *slog.Logger) fuse.MountOptions {
	mountOptions := fuse.MountOptions{
		FsName:             Name,
		Name:               Name,
		Options:            []string{"ro"},
		AllowOther:         options.AllowOther,
		SingleThreaded:     true,
		DisableReadDirPlus: true,
		Debug:              options.Debug,
		Logger:             slog.NewLogLogger(logger.Handler(), slog.LevelDebug),
	}

	allowRoot := options.AllowRoot
	if options.AutoUnmount {
		mountOptions.Options = append(mountOptions.Options, "auto_unmount")
		if !options.AllowOther && !options.AllowRoot {
			allowRoot = true
		}
	}
	if allowRoot && !options.AllowOther {
		mountOptions.Options = append(mountOptions.Options, "allow_root")
	}
	return mountOptions
}

// Mount mounts the session at the configured mountpoint and starts
// serving requests. The caller must call Unmount on the returned
// Server when done.
func Mount(options Options) (*fuse.Server, error) {
	if options.Mountpoint == "" {
		return nil, errors.New("mountpoint is required")
	}
	if options.Session == nil {
		return nil, errors.New("session is required")
	}
	if options.Logger == nil {
		options.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelError,
		}))
	}

	if err := os.MkdirAll(options.Mountpoint, 0o755); err != nil {
		return nil, fmt.Errorf("creating mountpoint %s: %w", options.Mountpoint, err)
	}

	mountOptions := options.MountOptions(options.Logger)
	server, err := fuse.NewServer(newFileSystem(options.Session), options.Mountpoint, &mountOptions)
	if err != nil {
		return nil, fmt.Errorf("mounting FUSE filesystem at %s: %w", options.Mountpoint, err)
	}

	go server.Serve()
	if err := server.WaitMount(); err != nil {
		return nil, fmt.Errorf("waiting for mount at %s: %w", options.Mountpoint, err)
	}

	options.Logger.Info("transformfs mounted", "mountpoint", options.Mountpoint,
		"options", mountOptions.Options, "ttl", options.Session.TTL())
	return server, nil
}
