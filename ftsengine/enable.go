package ftsengine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Enable creates a search index over columns of table: the virtual table,
// an initial population and, optionally, the sync triggers. Everything is
// created in one transaction.
func (e *Engine) Enable(
	ctx context.Context,
	table string,
	columns []string,
	opts EnableOptions,
) (*SearchIndex, error) {
	start := time.Now()
	var idx *SearchIndex
	err := e.atomic(ctx, func(q sqlExec) error {
		var err error
		idx, err = e.enable(ctx, q, table, columns, opts)
		return err
	})
	if err != nil {
		return nil, wrapOp("enable", table, err)
	}
	slog.Info("ftsengine enable",
		"table", idx.BaseTable,
		"virtualTable", idx.VirtualTable,
		"dialect", idx.Dialect,
		"columns", idx.Columns,
		"triggers", len(idx.Triggers),
		"took", time.Since(start))
	return idx, nil
}

func (e *Engine) enable(
	ctx context.Context,
	q sqlExec,
	table string,
	columns []string,
	opts EnableOptions,
) (*SearchIndex, error) {
	d := opts.Dialect
	if d == "" {
		d = e.dialect
	}
	info, err := Describe(d)
	if err != nil {
		return nil, err
	}
	if err := validateTokenizer(opts.Tokenizer); err != nil {
		return nil, err
	}
	linked, err := moduleAvailable(ctx, q, info.Module)
	if err != nil {
		return nil, err
	}
	if !linked {
		return nil, fmt.Errorf("%w: %s module not compiled into this sqlite build", ErrUnsupportedDialect, info.Module)
	}

	entry, ok, err := lookupTable(ctx, q, table)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTable, table)
	}
	if entry.isVirtual() {
		return nil, fmt.Errorf("ftsengine: %q is a virtual table, not a base table", entry.Name)
	}
	// Use the stored spelling from here on.
	table = entry.Name

	cols, err := checkColumns(ctx, q, table, columns)
	if err != nil {
		return nil, err
	}

	// One search index per base table.
	existing, _, err := resolve(ctx, q, table)
	switch {
	case err == nil:
		if !opts.Replace {
			return nil, fmt.Errorf("%w: %q already has search index %q",
				ErrNameCollision, table, existing.VirtualTable)
		}
		slog.Info("ftsengine enable: replacing existing index",
			"table", table, "virtualTable", existing.VirtualTable)
		if err := disable(ctx, q, existing); err != nil {
			return nil, err
		}
	case !errors.Is(err, ErrNotSearchable):
		return nil, err
	}

	vt := opts.VirtualTable
	if vt == "" {
		vt = table + VirtualTableSuffix
	}
	taken := append([]string{vt}, info.ShadowTables(vt)...)
	if opts.CreateTriggers {
		taken = append(taken, TriggerNames(table)...)
	}
	for _, name := range taken {
		exists, err := objectExists(ctx, q, name)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, fmt.Errorf("%w: %q already exists", ErrNameCollision, name)
		}
	}

	ddl := info.CreateSQL(vt, table, cols, opts.Tokenizer)
	slog.Debug("ftsengine enable", "sql", ddl)
	if _, err := q.ExecContext(ctx, ddl); err != nil {
		return nil, classify(vt, err)
	}

	res := &Resolution{
		BaseTable:       table,
		VirtualTable:    vt,
		Dialect:         d,
		ExternalContent: info.ExternalContent,
	}
	if _, err := populate(ctx, q, res, cols); err != nil {
		return nil, err
	}

	var triggers []string
	if opts.CreateTriggers {
		for _, stmt := range info.TriggerSQL(table, vt, cols) {
			slog.Debug("ftsengine enable", "sql", stmt)
			if _, err := q.ExecContext(ctx, stmt); err != nil {
				return nil, err
			}
		}
		triggers = TriggerNames(table)
	}

	return &SearchIndex{
		BaseTable:    table,
		VirtualTable: vt,
		Dialect:      d,
		Columns:      cols,
		Tokenizer:    opts.Tokenizer,
		ShadowTables: info.ShadowTables(vt),
		Triggers:     triggers,
	}, nil
}

// checkColumns validates columns against the base table and returns them in
// the table's own spelling.
func checkColumns(
	ctx context.Context,
	q sqlExec,
	table string,
	columns []string,
) ([]string, error) {
	if len(columns) == 0 {
		return nil, errors.New("ftsengine: need ≥1 column")
	}
	have, err := listColumns(ctx, q, table)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(columns))
	out := make([]string, 0, len(columns))
	for _, c := range columns {
		i := indexOfFold(have, c)
		if i < 0 {
			return nil, fmt.Errorf("%w: %q on %q", ErrUnknownColumn, c, table)
		}
		key := strings.ToLower(have[i])
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("ftsengine: duplicate column %q", c)
		}
		seen[key] = struct{}{}
		out = append(out, have[i])
	}
	return out, nil
}

func validateTokenizer(tok string) error {
	if strings.ContainsAny(tok, "(),;") {
		return fmt.Errorf("%w: %q", ErrInvalidTokenizer, tok)
	}
	return nil
}
