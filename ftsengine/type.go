package ftsengine

import (
	"context"
	"database/sql"

	"github.com/ppipada/sqlitefts-go/internal/sqlitedriver"
)

const (
	MemoryDBBaseDir = sqlitedriver.MemoryPath
	ColNameRowID    = "rowid"

	// Appended to the base table name to derive the virtual table name.
	VirtualTableSuffix = "_fts"

	TriggerInsertSuffix = "_ai"
	TriggerDeleteSuffix = "_ad"
	TriggerUpdateSuffix = "_au"
)

// Dialect names one generation of the SQLite full-text extension.
type Dialect string

const (
	// DialectFTS4 is the older generation (v1).
	DialectFTS4 Dialect = "fts4"
	// DialectFTS5 is the newer generation (v2).
	DialectFTS5 Dialect = "fts5"
)

type Config struct {
	BaseDir    string `json:"baseDir"`
	DBFileName string `json:"dbFileName"`
	// Used by Enable when EnableOptions.Dialect is empty. Defaults to fts5.
	Dialect       Dialect `json:"dialect"`
	BusyTimeoutMS int     `json:"busyTimeoutMS"`
	// SQLite leaves this off, which is what exposes the docsize duplicate rows
	// on INSERT OR REPLACE.
	RecursiveTriggers bool `json:"recursiveTriggers"`
}

// EnableOptions tunes Enable.
type EnableOptions struct {
	// Empty means the engine default.
	Dialect Dialect
	// Passed through to the tokenize= option. Empty leaves the module default.
	Tokenizer string
	// Create <base>_ai, <base>_ad and <base>_au to keep the index in sync.
	CreateTriggers bool
	// Empty means <base>_fts.
	VirtualTable string
	// Drop an existing index on the table instead of failing.
	Replace bool
}

// SearchIndex is the full-text feature attached to one base table.
type SearchIndex struct {
	BaseTable    string
	VirtualTable string
	Dialect      Dialect
	Columns      []string
	Tokenizer    string
	// Shadow tables currently present in the schema.
	ShadowTables []string
	// Sync triggers currently present in the schema.
	Triggers []string
}

// Resolution is what Resolve finds for a table name.
type Resolution struct {
	// Empty for a content-duplicating virtual table without a matching base table.
	BaseTable       string
	VirtualTable    string
	Dialect         Dialect
	ExternalContent bool
}

// RebuildReport is returned by Rebuild.
type RebuildReport struct {
	Resolution
	// Index rows dropped because their base row is gone (content-duplicating tables only).
	OrphansRemoved int64
	// Sizing rows dropped after the rebuild.
	SizingRowsRemoved int64
	// Sizing rows left, one per indexed document.
	SizingRows int64
}

// QueryMode controls how the search text is turned into a MATCH expression.
type QueryMode int

const (
	// QueryRaw passes the text through as a full-text query expression.
	QueryRaw QueryMode = iota
	// QueryAllTerms quotes every word, all must match.
	QueryAllTerms
	// QueryAnyTerms quotes every word, any may match.
	QueryAnyTerms
)

type SearchOptions struct {
	// Base table columns to return. Nil / empty means all.
	Columns []string
	// 0 means no limit.
	Limit  int
	Offset int
	Mode   QueryMode
}

// Row is one matching row. Values follow Columns.
type Row struct {
	RowID   int64
	Columns []string
	Values  []any
}

// Get returns the value of a column by name.
func (r Row) Get(col string) (any, bool) {
	for i, c := range r.Columns {
		if c == col {
			return r.Values[i], true
		}
	}
	return nil, false
}

type sqlExec interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
