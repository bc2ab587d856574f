// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transform

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/bureau-foundation/transformfs/lib/testutil"
)

func TestFlattenPassesFilesThrough(t *testing.T) {
	root := t.TempDir()
	testutil.WriteFiles(t, root, map[string]string{"one.txt": "1", "two.txt": "2"})

	inputs := []string{filepath.Join(root, "two.txt"), filepath.Join(root, "one.txt")}
	got := Flatten(inputs, nil)
	if diff := cmp.Diff(inputs, got); diff != "" {
		t.Errorf("Flatten mismatch (-want +got):\n%s", diff)
	}
}

func TestFlattenWalksDirectoriesDeterministically(t *testing.T) {
	root := t.TempDir()
	testutil.WriteFiles(t, root, map[string]string{
		"tree/b.txt":         "b",
		"tree/a.txt":         "a",
		"tree/sub/c.txt":     "c",
		"tree/sub/deep/d.gz": "d",
		"single.txt":         "s",
	})
	if err := os.Mkdir(filepath.Join(root, "tree", "empty"), 0o755); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}

	inputs := []string{filepath.Join(root, "single.txt"), filepath.Join(root, "tree")}
	want := []string{
		filepath.Join(root, "single.txt"),
		filepath.Join(root, "tree", "a.txt"),
		filepath.Join(root, "tree", "b.txt"),
		filepath.Join(root, "tree", "sub", "c.txt"),
		filepath.Join(root, "tree", "sub", "deep", "d.gz"),
	}

	first := Flatten(inputs, nil)
	if diff := cmp.Diff(want, first); diff != "" {
		t.Errorf("Flatten mismatch (-want +got):\n%s", diff)
	}
	second := Flatten(inputs, nil)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("Flatten is not deterministic (-first +second):\n%s", diff)
	}
}

func TestFlattenSkipsMissingInputs(t *testing.T) {
	root := t.TempDir()
	testutil.WriteFiles(t, root, map[string]string{"present.txt": "x"})

	got := Flatten([]string{filepath.Join(root, "missing"), filepath.Join(root, "present.txt")}, nil)
	want := []string{filepath.Join(root, "present.txt")}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Flatten mismatch (-want +got):\n%s", diff)
	}
}

func TestFlattenSymlinks(t *testing.T) {
	root := t.TempDir()
	testutil.WriteFiles(t, root, map[string]string{
		"outside/target.txt": "t",
		"outside/dir/x.txt":  "x",
		"tree/real.txt":      "r",
	})
	if err := os.Symlink(filepath.Join(root, "outside", "target.txt"), filepath.Join(root, "tree", "file-link")); err != nil {
		t.Fatalf("Symlink: %v", err)
	}
	if err := os.Symlink(filepath.Join(root, "outside", "dir"), filepath.Join(root, "tree", "dir-link")); err != nil {
		t.Fatalf("Symlink: %v", err)
	}
	if err := os.Symlink(filepath.Join(root, "nowhere"), filepath.Join(root, "tree", "dangling")); err != nil {
		t.Fatalf("Symlink: %v", err)
	}

	got := Flatten([]string{filepath.Join(root, "tree")}, nil)
	want := []string{
		filepath.Join(root, "tree", "file-link"),
		filepath.Join(root, "tree", "real.txt"),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Flatten mismatch (-want +got):\n%s", diff)
	}
}

func TestInvokePassesFlattenedInputs(t *testing.T) {
	root := t.TempDir()
	testutil.WriteFiles(t, root, map[string]string{"in/a": "a", "in/b": "b"})

	var received []string
	calls := 0
	transformer := Func(func(inputs []string) ([]Entry, error) {
		calls++
		received = inputs
		return []Entry{Bytes("/out.txt", []byte("out"))}, nil
	})

	entries, err := Invoke(transformer, []string{filepath.Join(root, "in")}, nil)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if calls != 1 {
		t.Errorf("transform called %d times, want 1", calls)
	}
	want := []string{filepath.Join(root, "in", "a"), filepath.Join(root, "in", "b")}
	if diff := cmp.Diff(want, received); diff != "" {
		t.Errorf("transform inputs mismatch (-want +got):\n%s", diff)
	}
	if len(entries) != 1 || entries[0].Path != "/out.txt" {
		t.Errorf("entries = %+v, want one entry /out.txt", entries)
	}
}

func TestInvokeTransformError(t *testing.T) {
	boom := errors.New("boom")
	_, err := Invoke(Func(func([]string) ([]Entry, error) { return nil, boom }), nil, nil)
	if !errors.Is(err, boom) {
		t.Fatalf("Invoke error = %v, want wrapped boom", err)
	}
}

func TestInvokeRejectsMalformedEntries(t *testing.T) {
	tests := []struct {
		name  string
		entry Entry
	}{
		{"empty path", Entry{Content: &FuncContent{}}},
		{"nil content", Entry{Path: "/a"}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			transformer := Func(func([]string) ([]Entry, error) {
				return []Entry{Bytes("/fine", nil), test.entry}, nil
			})
			entries, err := Invoke(transformer, nil, nil)
			if !errors.Is(err, ErrMalformedEntry) {
				t.Fatalf("Invoke error = %v, want ErrMalformedEntry", err)
			}
			if entries != nil {
				t.Errorf("Invoke returned %d entries alongside an error", len(entries))
			}
		})
	}
}

func TestBytesContent(t *testing.T) {
	entry := Bytes("/greeting", []byte("hello"))
	if entry.Metadata.Size != 5 {
		t.Errorf("Size = %d, want 5", entry.Metadata.Size)
	}
	if err := entry.Content.Open(); err != nil {
		t.Errorf("Open: %v", err)
	}

	tests := []struct {
		offset int64
		length uint32
		want   string
	}{
		{0, 5, "hello"},
		{1, 3, "ell"},
		{3, 100, "lo"},
		{5, 1, ""},
		{-1, 1, ""},
	}
	for _, test := range tests {
		got, err := entry.Content.Read(test.offset, test.length)
		if err != nil {
			t.Fatalf("Read(%d, %d): %v", test.offset, test.length, err)
		}
		if string(got) != test.want {
			t.Errorf("Read(%d, %d) = %q, want %q", test.offset, test.length, got, test.want)
		}
	}

	if err := entry.Content.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestFuncContentHooks(t *testing.T) {
	opened, closed := false, false
	content := &FuncContent{
		OpenFunc:  func() error { opened = true; return nil },
		ReadFunc:  func(int64, uint32) ([]byte, error) { return []byte("x"), nil },
		CloseFunc: func() error { closed = true; return errors.New("close failed") },
	}
	if err := content.Open(); err != nil || !opened {
		t.Errorf("Open: err=%v opened=%v", err, opened)
	}
	if err := content.Close(); err == nil || !closed {
		t.Errorf("Close: err=%v closed=%v, want error and closed", err, closed)
	}
}
