// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Format identifies a compression format.
type Format uint8

const (
	// FormatNone passes data through unchanged.
	FormatNone Format = iota

	// FormatGzip is RFC 1952 gzip, including concatenated members.
	FormatGzip

	// FormatZstd is a zstd frame (or a sequence of frames).
	FormatZstd

	// FormatLZ4 is the LZ4 frame format (the .lz4 file format), not
	// raw LZ4 blocks, which carry no length and cannot be decoded
	// without out-of-band size information.
	FormatLZ4

	// FormatSnappy is snappy data in either the framed stream format
	// or as a single raw block.
	FormatSnappy

	// FormatAuto selects a format by inspecting the leading bytes.
	// Data that matches no known magic number is treated as
	// FormatNone.
	FormatAuto
)

var (
	magicGzip         = []byte{0x1f, 0x8b}
	magicZstd         = []byte{0x28, 0xb5, 0x2f, 0xfd}
	magicLZ4          = []byte{0x04, 0x22, 0x4d, 0x18}
	magicSnappyFramed = []byte{0xff, 0x06, 0x00, 0x00, 's', 'N', 'a', 'P', 'p', 'Y'}
)

// String returns the name of the format as accepted by ParseFormat.
func (format Format) String() string {
	switch format {
	case FormatNone:
		return "none"
	case FormatGzip:
		return "gzip"
	case FormatZstd:
		return "zstd"
	case FormatLZ4:
		return "lz4"
	case FormatSnappy:
		return "snappy"
	case FormatAuto:
		return "auto"
	default:
		return fmt.Sprintf("unknown(%d)", format)
	}
}

// ParseFormat parses a format name. The empty string means auto.
func ParseFormat(name string) (Format, error) {
	switch name {
	case "none":
		return FormatNone, nil
	case "gzip", "gz":
		return FormatGzip, nil
	case "zstd", "zst":
		return FormatZstd, nil
	case "lz4":
		return FormatLZ4, nil
	case "snappy", "sz":
		return FormatSnappy, nil
	case "auto", "":
		return FormatAuto, nil
	default:
		return 0, fmt.Errorf("unknown compression format: %q", name)
	}
}

// Detect returns the format whose magic number data starts with, or
// FormatNone if there is no match. Raw snappy blocks have no magic
// number and are never detected.
func Detect(data []byte) Format {
	switch {
	case bytes.HasPrefix(data, magicGzip):
		return FormatGzip
	case bytes.HasPrefix(data, magicZstd):
		return FormatZstd
	case bytes.HasPrefix(data, magicLZ4):
		return FormatLZ4
	case bytes.HasPrefix(data, magicSnappyFramed):
		return FormatSnappy
	default:
		return FormatNone
	}
}

// Decompress returns the decompressed form of data. For FormatNone
// data is returned unchanged (no copy).
func Decompress(data []byte, format Format) ([]byte, error) {
	if format == FormatAuto {
		format = Detect(data)
	}

	switch format {
	case FormatNone:
		return data, nil

	case FormatGzip:
		reader, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("gzip decompress: %w", err)
		}
		defer reader.Close()
		return readAll(reader, "gzip")

	case FormatZstd:
		decoder, err := zstd.NewReader(nil)
		if err != nil {
			return nil, fmt.Errorf("zstd decoder: %w", err)
		}
		defer decoder.Close()
		plain, err := decoder.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("zstd decompress: %w", err)
		}
		return plain, nil

	case FormatLZ4:
		return readAll(lz4.NewReader(bytes.NewReader(data)), "lz4")

	case FormatSnappy:
		if bytes.HasPrefix(data, magicSnappyFramed) {
			return readAll(snappy.NewReader(bytes.NewReader(data)), "snappy")
		}
		plain, err := snappy.Decode(nil, data)
		if err != nil {
			return nil, fmt.Errorf("snappy decompress: %w", err)
		}
		return plain, nil

	default:
		return nil, fmt.Errorf("unsupported compression format: %s", format)
	}
}

func readAll(reader io.Reader, name string) ([]byte, error) {
	plain, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%s decompress: %w", name, err)
	}
	return plain, nil
}
