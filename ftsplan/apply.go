package ftsplan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/ppipada/sqlitefts-go/ftsengine"
)

type ApplyOptions struct {
	// Rebuild indexes that already match the plan.
	Rebuild bool
}

// Report lists base tables by what Apply did to them.
type Report struct {
	Created   []string
	Replaced  []string
	Rebuilt   []string
	Unchanged []string
}

// Apply brings the engine's database in line with p. Indexes are handled one
// by one, each in its own transaction. A failing index does not stop the
// others; all failures are returned together.
func Apply(ctx context.Context, e *ftsengine.Engine, p *Plan, opts ApplyOptions) (*Report, error) {
	start := time.Now()
	rep := &Report{}
	errs := new(multierror.Error)

	for i, spec := range p.Indexes {
		if err := ctx.Err(); err != nil {
			errs = multierror.Append(errs, err)
			break
		}
		if err := applyOne(ctx, e, spec, opts, rep); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("index %d (%s): %w", i, spec.Table, err))
		}
	}

	slog.Info("ftsplan apply",
		"created", len(rep.Created),
		"replaced", len(rep.Replaced),
		"rebuilt", len(rep.Rebuilt),
		"unchanged", len(rep.Unchanged),
		"failed", errs.Len(),
		"took", time.Since(start))
	return rep, errs.ErrorOrNil()
}

func applyOne(
	ctx context.Context,
	e *ftsengine.Engine,
	spec IndexSpec,
	opts ApplyOptions,
	rep *Report,
) error {
	d, err := spec.dialect(e.Dialect())
	if err != nil {
		return err
	}
	enableOpts := ftsengine.EnableOptions{
		Dialect:        d,
		Tokenizer:      spec.Tokenizer,
		CreateTriggers: spec.Triggers,
		VirtualTable:   spec.VirtualTable,
	}

	current, err := e.Inspect(ctx, spec.Table)
	switch {
	case errors.Is(err, ftsengine.ErrNotSearchable):
		if _, err := e.Enable(ctx, spec.Table, spec.Columns, enableOpts); err != nil {
			return err
		}
		rep.Created = append(rep.Created, spec.Table)
		return nil
	case err != nil:
		return err
	}

	if diff := differences(current, spec, d); len(diff) > 0 {
		slog.Info("ftsplan: index differs from plan",
			"table", spec.Table, "differences", diff)
		enableOpts.Replace = true
		if _, err := e.Enable(ctx, spec.Table, spec.Columns, enableOpts); err != nil {
			return err
		}
		rep.Replaced = append(rep.Replaced, spec.Table)
		return nil
	}

	if opts.Rebuild {
		if _, err := e.Rebuild(ctx, spec.Table); err != nil {
			return err
		}
		rep.Rebuilt = append(rep.Rebuilt, spec.Table)
		return nil
	}
	rep.Unchanged = append(rep.Unchanged, spec.Table)
	return nil
}

// differences names the properties of current that do not match spec.
func differences(current *ftsengine.SearchIndex, spec IndexSpec, d ftsengine.Dialect) []string {
	var out []string
	if !equalFold(current.Columns, spec.Columns) {
		out = append(out, "columns")
	}
	if current.Dialect != d {
		out = append(out, "dialect")
	}
	if !strings.EqualFold(current.Tokenizer, spec.Tokenizer) {
		out = append(out, "tokenizer")
	}
	if (len(current.Triggers) > 0) != spec.Triggers {
		out = append(out, "triggers")
	}
	if spec.VirtualTable != "" && !strings.EqualFold(current.VirtualTable, spec.VirtualTable) {
		out = append(out, "virtual_table")
	}
	return out
}

func equalFold(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !strings.EqualFold(a[i], b[i]) {
			return false
		}
	}
	return true
}
