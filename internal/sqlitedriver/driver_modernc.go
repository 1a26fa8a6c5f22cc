//go:build modernc_sqlite && !cgo_sqlite

package sqlitedriver

import (
	_ "modernc.org/sqlite"
)

const (
	driverName    = "sqlite"
	driverType    = "modernc"
	driverPackage = "modernc.org/sqlite"
)

func pragmaParams(p Pragmas) []string {
	return pragmaFuncParams(p)
}
