package ftsengine

import (
	"context"
	"fmt"
	"strings"
)

// Resolve finds the search index a name belongs to. name may be a base
// table, a virtual table or one of its shadow tables.
func (e *Engine) Resolve(ctx context.Context, name string) (*Resolution, error) {
	res, _, err := resolve(ctx, e.exec(), name)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Inspect resolves name and enumerates the objects of its index as they are
// in the schema right now.
func (e *Engine) Inspect(ctx context.Context, name string) (*SearchIndex, error) {
	return inspect(ctx, e.exec(), name)
}

func inspect(ctx context.Context, q sqlExec, name string) (*SearchIndex, error) {
	res, def, err := resolve(ctx, q, name)
	if err != nil {
		return nil, err
	}
	info, err := Describe(res.Dialect)
	if err != nil {
		return nil, err
	}

	idx := &SearchIndex{
		BaseTable:    res.BaseTable,
		VirtualTable: res.VirtualTable,
		Dialect:      res.Dialect,
		Tokenizer:    def.tokenizer(),
	}
	idx.Columns, err = listColumns(ctx, q, res.VirtualTable)
	if err != nil {
		return nil, err
	}
	if len(idx.Columns) == 0 {
		idx.Columns = def.Columns
	}

	names, err := listTableNames(ctx, q)
	if err != nil {
		return nil, err
	}
	for _, s := range info.ShadowTables(res.VirtualTable) {
		if indexOfFold(names, s) >= 0 {
			idx.ShadowTables = append(idx.ShadowTables, s)
		}
	}

	if res.BaseTable != "" {
		trs, err := syncTriggers(ctx, q, res)
		if err != nil {
			return nil, err
		}
		idx.Triggers = trs
	}
	return idx, nil
}

// resolve always reads the catalog fresh.
func resolve(ctx context.Context, q sqlExec, name string) (*Resolution, ftsTable, error) {
	entry, ok, err := lookupTable(ctx, q, name)
	if err != nil {
		return nil, ftsTable{}, err
	}
	if !ok {
		return nil, ftsTable{}, fmt.Errorf("%w: %q", ErrUnknownTable, name)
	}
	fts, err := listFTSTables(ctx, q)
	if err != nil {
		return nil, ftsTable{}, err
	}

	// Preference order: the virtual table itself, an explicit content=
	// binding, a shadow table, then the <base>_fts convention.
	for _, f := range fts {
		if strings.EqualFold(f.Name, entry.Name) {
			return resolutionFor(ctx, q, f), f, nil
		}
	}
	for _, f := range fts {
		if c := f.contentTable(); c != "" && strings.EqualFold(c, entry.Name) {
			return resolutionFor(ctx, q, f), f, nil
		}
	}
	for _, f := range fts {
		info := dialects[f.Dialect]
		if indexOfFold(info.ShadowTables(f.Name), entry.Name) >= 0 {
			return resolutionFor(ctx, q, f), f, nil
		}
	}
	for _, f := range fts {
		if f.contentTable() == "" && strings.EqualFold(f.Name, entry.Name+VirtualTableSuffix) {
			return resolutionFor(ctx, q, f), f, nil
		}
	}
	return nil, ftsTable{}, fmt.Errorf("%w: %q", ErrNotSearchable, entry.Name)
}

func resolutionFor(ctx context.Context, q sqlExec, f ftsTable) *Resolution {
	r := &Resolution{
		VirtualTable: f.Name,
		Dialect:      f.Dialect,
	}
	if c := f.contentTable(); c != "" {
		r.BaseTable = c
		r.ExternalContent = true
		if e, ok, err := lookupTable(ctx, q, c); err == nil && ok {
			r.BaseTable = e.Name
		}
		return r
	}
	// Content-duplicating table: the base is found by naming convention only.
	if base, ok := strings.CutSuffix(f.Name, VirtualTableSuffix); ok {
		if e, found, err := lookupTable(ctx, q, base); err == nil && found && !e.isVirtual() {
			r.BaseTable = e.Name
		}
	}
	return r
}

// syncTriggers lists triggers on the base table that feed res.VirtualTable:
// the conventional names plus anything whose body names the virtual table.
func syncTriggers(ctx context.Context, q sqlExec, res *Resolution) ([]string, error) {
	trs, err := listTriggers(ctx, q, res.BaseTable)
	if err != nil {
		return nil, err
	}
	conventional := TriggerNames(res.BaseTable)
	var out []string
	for _, t := range trs {
		if indexOfFold(conventional, t.Name) >= 0 ||
			strings.Contains(t.SQL, quote(res.VirtualTable)) {
			out = append(out, t.Name)
		}
	}
	return out, nil
}
