//go:build cgo_sqlite

// CGO SQLite driver using mattn/go-sqlite3.
//
// Build with: go build -tags "cgo_sqlite sqlite_fts5"
// Requires: CGO_ENABLED=1
//
// fts4 is always compiled into mattn/go-sqlite3, fts5 only with the sqlite_fts5 tag.
package sqlitedriver

import (
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const (
	driverName    = "sqlite3"
	driverType    = "cgo"
	driverPackage = "github.com/mattn/go-sqlite3"
)

func pragmaParams(p Pragmas) []string {
	var out []string
	if p.BusyTimeoutMS > 0 {
		out = append(out, fmt.Sprintf("_busy_timeout=%d", p.BusyTimeoutMS))
	}
	if p.JournalMode != "" {
		out = append(out, "_journal_mode="+p.JournalMode)
	}
	if p.RecursiveTriggers {
		out = append(out, "_recursive_triggers=1")
	}
	return out
}
