// Package sqlitedriver picks the SQLite database/sql driver at build time.
//
// Build modes:
//   - Default: pure Go github.com/glebarez/go-sqlite
//   - -tags modernc_sqlite: modernc.org/sqlite registered directly
//   - -tags cgo_sqlite: github.com/mattn/go-sqlite3 (CGO_ENABLED=1)
//
// Exactly one driver file is compiled in, so the "sqlite" driver name is never
// registered twice.
package sqlitedriver

import (
	"database/sql"
	"fmt"
	"strings"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// Pragmas are applied to every connection through the DSN.
type Pragmas struct {
	BusyTimeoutMS     int
	JournalMode       string
	RecursiveTriggers bool
}

// Info describes the compiled-in driver. NewEngine logs it on open.
type Info struct {
	DriverName string `json:"driverName"`
	DriverType string `json:"driverType"`
	Package    string `json:"package"`
}

func GetInfo() Info {
	return Info{
		DriverName: driverName,
		DriverType: driverType,
		Package:    driverPackage,
	}
}

// DSN builds a data source name for path with the pragmas encoded the way the
// compiled-in driver expects them.
func DSN(path string, p Pragmas) string {
	params := pragmaParams(p)
	if len(params) == 0 {
		return path
	}
	return path + "?" + strings.Join(params, "&")
}

// Open opens the database and pins the pool to a single connection.
// In-memory databases are per connection, and FTS maintenance is
// sequential anyway.
func Open(path string, p Pragmas) (*sql.DB, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlitedriver: empty database path")
	}
	db, err := sql.Open(driverName, DSN(path, p))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	// Keep the only connection alive, an in-memory database dies with it.
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)
	return db, nil
}

// pragmaFuncParams renders the _pragma=name(value) form understood by the
// modernc based drivers.
func pragmaFuncParams(p Pragmas) []string {
	var out []string
	if p.BusyTimeoutMS > 0 {
		out = append(out, fmt.Sprintf("_pragma=busy_timeout(%d)", p.BusyTimeoutMS))
	}
	if p.JournalMode != "" {
		out = append(out, fmt.Sprintf("_pragma=journal_mode(%s)", p.JournalMode))
	}
	if p.RecursiveTriggers {
		out = append(out, "_pragma=recursive_triggers(1)")
	}
	return out
}
