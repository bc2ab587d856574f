// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fuse

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/bureau-foundation/transformfs/lib/transform"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// fuseAvailable checks whether /dev/fuse is accessible. Tests that
// need a real FUSE mount call this and skip if the device is absent.
func fuseAvailable(t *testing.T) {
	t.Helper()
	_, err := os.Stat("/dev/fuse")
	if err != nil {
		t.Skip("skipping: /dev/fuse not available")
	}
}

func testMount(t *testing.T, entries ...transform.Entry) string {
	t.Helper()
	fuseAvailable(t)

	mountpoint := filepath.Join(t.TempDir(), "mount")
	server, err := Mount(Options{
		Mountpoint: mountpoint,
		Session:    newTestSession(t, entries...),
		Logger:     discardLogger(),
	})
	if err != nil {
		t.Skipf("skipping: mount failed (no fusermount permission?): %v", err)
	}
	t.Cleanup(func() {
		if err := server.Unmount(); err != nil {
			t.Errorf("Unmount: %v", err)
		}
	})
	return mountpoint
}

func TestMountRequiresOptions(t *testing.T) {
	if _, err := Mount(Options{}); err == nil {
		t.Error("Mount accepted an empty mountpoint")
	}
	if _, err := Mount(Options{Mountpoint: t.TempDir()}); err == nil {
		t.Error("Mount accepted a nil session")
	}
}

func TestMountedTree(t *testing.T) {
	mountpoint := testMount(t,
		transform.Bytes("/greeting.txt", []byte("hello")),
		transform.Bytes("/nested/deeper/data.bin", []byte{0, 1, 2, 3}),
	)

	data, err := os.ReadFile(filepath.Join(mountpoint, "greeting.txt"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("greeting.txt = %q, want hello", data)
	}

	entries, err := os.ReadDir(mountpoint)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 2 || entries[0].Name() != "greeting.txt" || !entries[1].IsDir() {
		t.Errorf("root entries = %v", entries)
	}

	info, err := os.Stat(filepath.Join(mountpoint, "nested", "deeper", "data.bin"))
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Size() != 4 || info.Mode().Perm() != 0o444 {
		t.Errorf("data.bin size = %d mode = %v", info.Size(), info.Mode())
	}

	if _, err := os.Stat(filepath.Join(mountpoint, "absent")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Stat(absent) error = %v, want not exist", err)
	}

	file, err := os.Open(filepath.Join(mountpoint, "nested"))
	if err != nil {
		t.Fatalf("Open(nested): %v", err)
	}
	defer file.Close()
	if _, err := io.ReadAll(file); err == nil {
		t.Error("reading a directory succeeded")
	}

	if err := os.WriteFile(filepath.Join(mountpoint, "new.txt"), []byte("x"), 0o644); err == nil {
		t.Error("creating a file on the read-only mount succeeded")
	}
}
