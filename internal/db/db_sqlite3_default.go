//go:build !sqlite3_cgo

package db

// The wasm-backed driver keeps builds cgo-free; the mattn driver is the
// opt-in alternative behind the sqlite3_cgo tag.
import (
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

const driverID = "ncruces/go-sqlite3"
const driverName = "sqlite3"
