// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// transformfs mounts a read-only virtual filesystem whose layout is
// computed by a JavaScript transform over a set of host files.
//
// The script receives the flattened list of input files and returns
// one descriptor per virtual file (its path, its size and open/read/
// close functions). The tree is rebuilt from the script's output once
// the TTL has elapsed and a request arrives, so edits to the inputs
// show up without remounting. A failed rebuild keeps serving the last
// good tree.
//
// Settings come from flags, optionally on top of a YAML file named by
// --config or TRANSFORMFS_CONFIG. By default the process detaches once
// the mount is ready; --foreground keeps it attached. SIGINT and
// SIGTERM unmount. SIGHUP forces a rebuild on the next request.
package main
