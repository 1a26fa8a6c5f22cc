package ftsengine

import (
	"context"
	"strings"
)

// schemaEntry is one row of sqlite_master.
type schemaEntry struct {
	Type    string
	Name    string
	TblName string
	SQL     string
}

func (s schemaEntry) isVirtual() bool { return isVirtualTableSQL(s.SQL) }

// Every helper below reads the catalog fresh, table existence is never cached.

func listSchema(ctx context.Context, q sqlExec, typ string) ([]schemaEntry, error) {
	const sqlListSchema = `SELECT type, name, tbl_name, COALESCE(sql, '')
		FROM sqlite_master WHERE type = ? ORDER BY rowid`
	rows, err := q.QueryContext(ctx, sqlListSchema, typ)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []schemaEntry
	for rows.Next() {
		var s schemaEntry
		if err := rows.Scan(&s.Type, &s.Name, &s.TblName, &s.SQL); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// lookupTable finds a table by name. SQLite identifiers are case-insensitive.
func lookupTable(ctx context.Context, q sqlExec, name string) (schemaEntry, bool, error) {
	tables, err := listSchema(ctx, q, "table")
	if err != nil {
		return schemaEntry{}, false, err
	}
	for _, t := range tables {
		if strings.EqualFold(t.Name, name) {
			return t, true, nil
		}
	}
	return schemaEntry{}, false, nil
}

func objectExists(ctx context.Context, q sqlExec, name string) (bool, error) {
	const sqlExists = `SELECT count(*) FROM sqlite_master WHERE name = ? COLLATE NOCASE`
	var n int
	if err := q.QueryRowContext(ctx, sqlExists, name).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

func listTableNames(ctx context.Context, q sqlExec) ([]string, error) {
	tables, err := listSchema(ctx, q, "table")
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(tables))
	for _, t := range tables {
		out = append(out, t.Name)
	}
	return out, nil
}

// listTriggers returns the triggers on table, or all triggers when table is "".
func listTriggers(ctx context.Context, q sqlExec, table string) ([]schemaEntry, error) {
	all, err := listSchema(ctx, q, "trigger")
	if err != nil {
		return nil, err
	}
	if table == "" {
		return all, nil
	}
	var out []schemaEntry
	for _, t := range all {
		if strings.EqualFold(t.TblName, table) {
			out = append(out, t)
		}
	}
	return out, nil
}

// listColumns returns the declared columns of table in order.
// Hidden columns of virtual tables are not included.
func listColumns(ctx context.Context, q sqlExec, table string) ([]string, error) {
	const sqlColumns = `SELECT name FROM pragma_table_info(?) ORDER BY cid`
	rows, err := q.QueryContext(ctx, sqlColumns, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// listFTSTables parses every fts4 / fts5 virtual table in the schema.
func listFTSTables(ctx context.Context, q sqlExec) ([]ftsTable, error) {
	tables, err := listSchema(ctx, q, "table")
	if err != nil {
		return nil, err
	}
	var out []ftsTable
	for _, t := range tables {
		if !t.isVirtual() {
			continue
		}
		if f, ok := parseVirtualTable(t.SQL); ok {
			// The stored name is authoritative over what the parser captured.
			f.Name = t.Name
			out = append(out, f)
		}
	}
	return out, nil
}

// moduleAvailable reports whether the connection has the virtual table module
// registered. Builds without the module fail CREATE VIRTUAL TABLE.
func moduleAvailable(ctx context.Context, q sqlExec, module string) (bool, error) {
	const sqlModule = `SELECT count(*) FROM pragma_module_list WHERE name = ? COLLATE NOCASE`
	var n int
	if err := q.QueryRowContext(ctx, sqlModule, module).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

func countRows(ctx context.Context, q sqlExec, table string) (int64, error) {
	var n int64
	err := q.QueryRowContext(ctx, "SELECT count(*) FROM "+quote(table)).Scan(&n)
	return n, err
}

// indexOfFold returns the position of name in list, ignoring case.
func indexOfFold(list []string, name string) int {
	for i, s := range list {
		if strings.EqualFold(s, name) {
			return i
		}
	}
	return -1
}
