//go:build nocgo

package store

import (
	_ "modernc.org/sqlite"
)

// driverName is the database/sql driver registered for this build. The
// nocgo build swaps in the pure-Go modernc.org/sqlite driver so the binary
// can run without a C toolchain, at the cost of the vec0 extension: Open's
// "SELECT vec_version()" probe fails under this driver and the store falls
// back to the Go-side cosine scan for similarity search, same as any other
// environment where sqlite-vec failed to load.
const driverName = "sqlite"
