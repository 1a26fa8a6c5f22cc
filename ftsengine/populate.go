package ftsengine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Populate re-indexes every row of table into its virtual table. The index
// is emptied first, so calling it repeatedly never duplicates entries.
// columns defaults to the indexed columns and must be a subset of them.
// Returns the number of rows indexed.
func (e *Engine) Populate(ctx context.Context, table string, columns []string) (int64, error) {
	start := time.Now()
	var (
		n   int64
		res *Resolution
	)
	err := e.atomic(ctx, func(q sqlExec) error {
		var err error
		res, _, err = resolve(ctx, q, table)
		if err != nil {
			return err
		}
		if res.BaseTable == "" {
			return fmt.Errorf("%w: %q has no base table to read from", ErrNoSearchIndex, table)
		}
		cols, err := indexedColumns(ctx, q, res.VirtualTable, columns)
		if err != nil {
			return err
		}
		n, err = populate(ctx, q, res, cols)
		return err
	})
	if err != nil {
		return 0, wrapOp("populate", table, err)
	}
	slog.Info("ftsengine populate",
		"table", res.BaseTable,
		"virtualTable", res.VirtualTable,
		"rows", n,
		"took", time.Since(start))
	return n, nil
}

// indexedColumns checks requested against the virtual table's columns.
func indexedColumns(ctx context.Context, q sqlExec, vt string, requested []string) ([]string, error) {
	have, err := listColumns(ctx, q, vt)
	if err != nil {
		return nil, err
	}
	if len(requested) == 0 {
		return have, nil
	}
	out := make([]string, 0, len(requested))
	for _, c := range requested {
		i := indexOfFold(have, c)
		if i < 0 {
			return nil, fmt.Errorf("%w: %q is not indexed by %q", ErrUnknownColumn, c, vt)
		}
		out = append(out, have[i])
	}
	return out, nil
}

func populate(ctx context.Context, q sqlExec, res *Resolution, cols []string) (int64, error) {
	info, err := Describe(res.Dialect)
	if err != nil {
		return 0, err
	}

	const sqlDeleteAll = `DELETE FROM %s`
	const sqlInsertSelect = `INSERT INTO %s (%s, %s) SELECT rowid, %s FROM %s`

	var stmts []string
	switch {
	case !res.ExternalContent:
		stmts = append(stmts,
			fmt.Sprintf(sqlDeleteAll, quote(res.VirtualTable)),
			fmt.Sprintf(sqlInsertSelect, quote(res.VirtualTable), info.RowIDColumn,
				strings.Join(quoteAll(cols), ", "), strings.Join(quoteAll(cols), ", "),
				quote(res.BaseTable)))
	case info.DeleteAllCommand != "":
		stmts = append(stmts,
			info.CommandSQL(res.VirtualTable, info.DeleteAllCommand),
			fmt.Sprintf(sqlInsertSelect, quote(res.VirtualTable), info.RowIDColumn,
				strings.Join(quoteAll(cols), ", "), strings.Join(quoteAll(cols), ", "),
				quote(res.BaseTable)))
	default:
		// No delete-all for this module: rebuild empties the index and
		// re-reads the whole content table.
		stmts = append(stmts, info.CommandSQL(res.VirtualTable, "rebuild"))
	}

	for _, s := range stmts {
		slog.Debug("ftsengine populate", "sql", s)
		if _, err := q.ExecContext(ctx, s); err != nil {
			return 0, classify(res.VirtualTable, err)
		}
	}
	return countRows(ctx, q, res.BaseTable)
}
