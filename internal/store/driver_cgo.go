//go:build !nocgo

package store

import (
	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
)

// driverName is the database/sql driver registered for this build. The
// default build uses the cgo go-sqlite3 driver, which sqlite-vec-go-bindings
// hooks into for the vec0 virtual table.
const driverName = "sqlite3"

func init() {
	sqlite_vec.Auto() // registers the vec0 virtual table with go-sqlite3
}
