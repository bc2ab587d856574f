// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package script runs user transform scripts written in JavaScript.
//
// A script is evaluated once in a private goja runtime and must make a
// function named transform available, either as a global or through
// module.exports / exports:
//
//	function transform(inputs) {
//	    return inputs.map(function (input) {
//	        var text = host.readText(input).toUpperCase();
//	        return {
//	            path: "/upper/" + host.basename(input),
//	            metadata: { size: text.length },
//	            read: function (offset, length) {
//	                return text.substring(offset, offset + length);
//	            },
//	        };
//	    });
//	}
//
// Each returned descriptor becomes a [transform.Entry]. Its read,
// open and close functions stay bound to the runtime and are called
// later, as the kernel opens and reads the file. The runtime is not
// safe for concurrent use, so a [Script] serializes every call into
// it.
//
// Scripts get a small host API for inspecting their inputs (stat,
// readdir, ranged reads, decompression, JSON/YAML/CBOR decoding,
// hashing, path manipulation) and a console whose output goes to the
// process logger.
package script
