package ftsengine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

const defaultMergePages = 500

// Optimize merges all index segments into one. name may be the base table or
// the virtual table. Logical content does not change.
func (e *Engine) Optimize(ctx context.Context, name string) error {
	return e.command(ctx, "optimize", name, func(info DialectInfo, vt string) string {
		return info.CommandSQL(vt, "optimize")
	})
}

// Merge does up to pages pages of incremental segment merging.
// pages <= 0 uses a default.
func (e *Engine) Merge(ctx context.Context, name string, pages int) error {
	if pages <= 0 {
		pages = defaultMergePages
	}
	return e.command(ctx, "merge", name, func(info DialectInfo, vt string) string {
		return info.MergeSQL(vt, pages)
	})
}

// IntegrityCheck asks the module to verify its shadow tables. A damaged index
// is reported as ErrCorruptIndex.
func (e *Engine) IntegrityCheck(ctx context.Context, name string) error {
	err := e.command(ctx, "integrity-check", name, func(info DialectInfo, vt string) string {
		return info.CommandSQL(vt, "integrity-check")
	})
	if err == nil || errors.Is(err, ErrCorruptIndex) || errors.Is(err, ErrUnsupportedDialect) ||
		errors.Is(err, ErrUnknownTable) || errors.Is(err, ErrNotSearchable) {
		return err
	}
	// Any failure of the check itself means the index does not verify.
	return fmt.Errorf("%w: %w", ErrCorruptIndex, err)
}

func (e *Engine) command(
	ctx context.Context,
	op, name string,
	render func(info DialectInfo, vt string) string,
) error {
	start := time.Now()
	var res *Resolution
	err := e.atomic(ctx, func(q sqlExec) error {
		var err error
		res, _, err = resolve(ctx, q, name)
		if err != nil {
			return err
		}
		info, err := Describe(res.Dialect)
		if err != nil {
			return err
		}
		s := render(info, res.VirtualTable)
		slog.Debug("ftsengine "+op, "sql", s)
		_, err = q.ExecContext(ctx, s)
		return classify(res.VirtualTable, err)
	})
	if err != nil {
		return wrapOp(op, name, err)
	}
	slog.Info("ftsengine "+op,
		"virtualTable", res.VirtualTable,
		"dialect", res.Dialect,
		"took", time.Since(start))
	return nil
}

// Rebuild regenerates every shadow table of the index from the base table.
// It is the recovery path for damaged or truncated shadow tables. After the
// rebuild the sizing table is collapsed to exactly one row per live document:
// replace-style inserts with recursive triggers off leave rows behind that the
// module's own rebuild does not always remove.
func (e *Engine) Rebuild(ctx context.Context, name string) (*RebuildReport, error) {
	start := time.Now()
	rep := &RebuildReport{}
	err := e.atomic(ctx, func(q sqlExec) error {
		res, _, err := resolve(ctx, q, name)
		if err != nil {
			return err
		}
		rep.Resolution = *res
		return rebuild(ctx, q, rep)
	})
	if err != nil {
		return nil, wrapOp("rebuild", name, err)
	}
	slog.Info("ftsengine rebuild",
		"table", rep.BaseTable,
		"virtualTable", rep.VirtualTable,
		"orphansRemoved", rep.OrphansRemoved,
		"sizingRowsRemoved", rep.SizingRowsRemoved,
		"sizingRows", rep.SizingRows,
		"took", time.Since(start))
	return rep, nil
}

func rebuild(ctx context.Context, q sqlExec, rep *RebuildReport) error {
	const sqlDeleteOrphans = `DELETE FROM %s WHERE %s NOT IN (SELECT rowid FROM %s)`

	info, err := Describe(rep.Dialect)
	if err != nil {
		return err
	}
	vt := rep.VirtualTable

	// A content-duplicating table rebuilds from its own copy, so rows of
	// deleted base rows must go first.
	if !rep.ExternalContent && rep.BaseTable != "" {
		r, err := q.ExecContext(ctx, fmt.Sprintf(sqlDeleteOrphans,
			quote(vt), info.RowIDColumn, quote(rep.BaseTable)))
		if err != nil {
			return classify(vt, err)
		}
		rep.OrphansRemoved, _ = r.RowsAffected()
	}

	if _, err := q.ExecContext(ctx, info.CommandSQL(vt, "rebuild")); err != nil {
		return classify(vt, err)
	}

	sizing := info.SizingTable(vt)
	exists, err := objectExists(ctx, q, sizing)
	if err != nil || !exists {
		// columnsize=0 / matchinfo=fts3 tables have no sizing table.
		return err
	}
	if rep.BaseTable != "" {
		r, err := q.ExecContext(ctx, fmt.Sprintf(sqlDeleteOrphans,
			quote(sizing), quote(info.SizingKey), quote(rep.BaseTable)))
		if err != nil {
			return err
		}
		rep.SizingRowsRemoved, _ = r.RowsAffected()
	}
	rep.SizingRows, err = countRows(ctx, q, sizing)
	return err
}
