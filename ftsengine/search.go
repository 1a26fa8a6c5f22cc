package ftsengine

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"iter"
	"strings"
)

// Search runs query against the search index of table and returns all
// matching rows in the module's relevance order.
func (e *Engine) Search(
	ctx context.Context,
	table, query string,
	opts SearchOptions,
) ([]Row, error) {
	out := []Row{}
	for r, err := range e.SearchSeq(ctx, table, query, opts) {
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// SearchSeq is the lazy form of Search. Every range over the sequence runs
// the query again. The connection is held while ranging, so do not use the
// engine from inside the loop.
//
// Errors raised by a damaged index are yielded unchanged and match
// ErrCorruptIndex.
func (e *Engine) SearchSeq(
	ctx context.Context,
	table, query string,
	opts SearchOptions,
) iter.Seq2[Row, error] {
	return func(yield func(Row, error) bool) {
		q := e.exec()
		plan, err := buildSearch(ctx, q, table, query, opts)
		if err != nil {
			yield(Row{}, err)
			return
		}
		if plan == nil {
			return
		}

		rows, err := q.QueryContext(ctx, plan.sql, plan.args...)
		if err != nil {
			yield(Row{}, classify(plan.vt, err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			var rid int64
			vals := make([]any, len(plan.cols))
			dest := make([]any, 0, len(vals)+1)
			dest = append(dest, &rid)
			for i := range vals {
				dest = append(dest, &vals[i])
			}
			if err := rows.Scan(dest...); err != nil {
				yield(Row{}, err)
				return
			}
			for i, v := range vals {
				if b, ok := v.([]byte); ok {
					vals[i] = string(b)
				}
			}
			if !yield(Row{RowID: rid, Columns: plan.cols, Values: vals}, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(Row{}, classify(plan.vt, err))
		}
	}
}

// SearchPage returns one page of results and, if more results may exist,
// an opaque token for the next page.
func (e *Engine) SearchPage(
	ctx context.Context,
	table, query string,
	pageToken string,
	pageSize int,
) (hits []Row, nextToken string, err error) {
	if pageSize <= 0 || pageSize > 10000 {
		pageSize = 10
	}

	// Decode / reset token.
	var offset int
	if pageToken != "" {
		var t struct {
			Query  string `json:"q"`
			Offset int    `json:"o"`
		}
		b, err := base64.StdEncoding.DecodeString(pageToken)
		if err == nil {
			_ = json.Unmarshal(b, &t)
		}
		// Token belongs to same query.
		if t.Query == query {
			offset = t.Offset
		}
	}

	hits, err = e.Search(ctx, table, query, SearchOptions{Limit: pageSize, Offset: offset})
	if err != nil {
		return nil, "", err
	}

	// Build next token.
	if len(hits) == pageSize {
		offset += pageSize
		buf, _ := json.Marshal(struct {
			Query  string `json:"q"`
			Offset int    `json:"o"`
		}{query, offset})
		nextToken = base64.StdEncoding.EncodeToString(buf)
	}
	return hits, nextToken, nil
}

type searchPlan struct {
	vt   string
	sql  string
	args []any
	cols []string
}

// buildSearch returns nil when the query reduces to nothing.
func buildSearch(
	ctx context.Context,
	q sqlExec,
	table, query string,
	opts SearchOptions,
) (*searchPlan, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	res, _, err := resolve(ctx, q, table)
	if err != nil {
		return nil, err
	}
	info, err := Describe(res.Dialect)
	if err != nil {
		return nil, err
	}
	match := matchExpression(query, opts.Mode)
	if match == "" {
		return nil, nil
	}

	// External content: rows come from the base table, matched by rowid.
	// Otherwise the virtual table's own stored columns are returned.
	src, from := "f", quote(res.VirtualTable)+" AS f"
	colSource := res.VirtualTable
	if res.ExternalContent {
		if res.BaseTable == "" {
			return nil, fmt.Errorf("%w: %q", ErrNoSearchIndex, table)
		}
		src = "b"
		from = fmt.Sprintf("%s AS b JOIN %s AS f ON f.rowid = b.rowid",
			quote(res.BaseTable), quote(res.VirtualTable))
		colSource = res.BaseTable
	}

	have, err := listColumns(ctx, q, colSource)
	if err != nil {
		return nil, err
	}
	cols := have
	if len(opts.Columns) > 0 {
		cols = make([]string, 0, len(opts.Columns))
		for _, c := range opts.Columns {
			i := indexOfFold(have, c)
			if i < 0 {
				return nil, fmt.Errorf("%w: %q on %q", ErrUnknownColumn, c, colSource)
			}
			cols = append(cols, have[i])
		}
	}

	order := src + ".rowid"
	if info.RankColumn != "" {
		order = "f." + info.RankColumn + ", " + order
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = -1
	}

	selectCols := append([]string{src + ".rowid"}, prefixed(src, cols)...)
	const sqlSearch = `SELECT %s FROM %s WHERE f.%s MATCH ? ORDER BY %s LIMIT ? OFFSET ?`
	return &searchPlan{
		vt: res.VirtualTable,
		sql: fmt.Sprintf(sqlSearch,
			strings.Join(selectCols, ", "), from, quote(res.VirtualTable), order),
		args: []any{match, limit, max(opts.Offset, 0)},
		cols: cols,
	}, nil
}
