package ftsengine

import (
	"context"
	"log/slog"
	"time"
)

// Disable drops the search index of table: its sync triggers and the virtual
// table, which takes the shadow tables with it. One transaction.
func (e *Engine) Disable(ctx context.Context, table string) error {
	start := time.Now()
	var res *Resolution
	err := e.atomic(ctx, func(q sqlExec) error {
		var err error
		res, _, err = resolve(ctx, q, table)
		if err != nil {
			return err
		}
		return disable(ctx, q, res)
	})
	if err != nil {
		return wrapOp("disable", table, err)
	}
	slog.Info("ftsengine disable",
		"table", res.BaseTable,
		"virtualTable", res.VirtualTable,
		"took", time.Since(start))
	return nil
}

func disable(ctx context.Context, q sqlExec, res *Resolution) error {
	const sqlDropTrigger = `DROP TRIGGER IF EXISTS `
	const sqlDropTable = `DROP TABLE IF EXISTS `

	var triggers []string
	if res.BaseTable != "" {
		// Absent conventional triggers are fine, IF EXISTS covers them.
		triggers = TriggerNames(res.BaseTable)
		found, err := syncTriggers(ctx, q, res)
		if err != nil {
			return err
		}
		for _, t := range found {
			if indexOfFold(triggers, t) < 0 {
				triggers = append(triggers, t)
			}
		}
	}
	for _, t := range triggers {
		if _, err := q.ExecContext(ctx, sqlDropTrigger+quote(t)); err != nil {
			return err
		}
	}

	if _, err := q.ExecContext(ctx, sqlDropTable+quote(res.VirtualTable)); err != nil {
		return err
	}

	// Dropping the virtual table removes its shadow tables. Anything left
	// over, e.g. from an index whose module could not be loaded, goes too.
	info, err := Describe(res.Dialect)
	if err != nil {
		return err
	}
	names, err := listTableNames(ctx, q)
	if err != nil {
		return err
	}
	for _, s := range info.ShadowTables(res.VirtualTable) {
		if indexOfFold(names, s) < 0 {
			continue
		}
		slog.Warn("ftsengine disable: dropping leftover shadow table", "table", s)
		if _, err := q.ExecContext(ctx, sqlDropTable+quote(s)); err != nil {
			return err
		}
	}
	return nil
}
