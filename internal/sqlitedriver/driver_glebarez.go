//go:build !modernc_sqlite && !cgo_sqlite

package sqlitedriver

import (
	_ "github.com/glebarez/go-sqlite"
)

const (
	driverName    = "sqlite"
	driverType    = "purego"
	driverPackage = "github.com/glebarez/go-sqlite"
)

func pragmaParams(p Pragmas) []string {
	return pragmaFuncParams(p)
}
