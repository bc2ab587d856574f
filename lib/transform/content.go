// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transform

// FuncContent is a Content built from Go closures. OpenFunc and
// CloseFunc are optional; a nil hook succeeds without doing anything.
// ReadFunc is required.
type FuncContent struct {
	OpenFunc  func() error
	ReadFunc  func(offset int64, length uint32) ([]byte, error)
	CloseFunc func() error
}

// Open calls OpenFunc if set.
func (c *FuncContent) Open() error {
	if c.OpenFunc == nil {
		return nil
	}
	return c.OpenFunc()
}

// Read calls ReadFunc.
func (c *FuncContent) Read(offset int64, length uint32) ([]byte, error) {
	return c.ReadFunc(offset, length)
}

// Close calls CloseFunc if set.
func (c *FuncContent) Close() error {
	if c.CloseFunc == nil {
		return nil
	}
	return c.CloseFunc()
}

// Bytes returns an Entry for a file at path whose content is data.
func Bytes(path string, data []byte) Entry {
	return Entry{
		Path:     path,
		Metadata: FileMetadata{Size: uint64(len(data))},
		Content: &FuncContent{
			ReadFunc: func(offset int64, length uint32) ([]byte, error) {
				return sliceRange(data, offset, length), nil
			},
		},
	}
}

// sliceRange returns data[offset:offset+length], clamped to the
// bounds of data.
func sliceRange(data []byte, offset int64, length uint32) []byte {
	if offset < 0 || offset >= int64(len(data)) {
		return nil
	}
	end := offset + int64(length)
	if end > int64(len(data)) {
		end = int64(len(data))
	}
	return data[offset:end]
}
