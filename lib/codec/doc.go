// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec decodes the binary formats transform scripts are
// most likely to meet in their inputs.
//
// Two concerns live here:
//
//   - Decompression. [Decompress] understands gzip, zstd, snappy
//     (block and framed) and the LZ4 frame format, and [Detect] picks
//     the format from the leading magic bytes so scripts can ask for
//     "auto" and handle mixed input trees without sniffing themselves.
//   - CBOR. [Unmarshal] decodes with map[string]any as the default map
//     type, which is the shape the script runtime converts into
//     JavaScript objects. [Marshal] uses Core Deterministic Encoding
//     (RFC 8949 §4.2) so the same logical value always produces the
//     same bytes.
//
// Buffer-oriented only:
//
//	plain, err := codec.Decompress(data, codec.FormatAuto)
//	err = codec.Unmarshal(plain, &value)
package codec
