package ftsengine

import (
	"bytes"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"testing"
)

type record struct {
	text, country, notSearchable string
}

var searchRecords = []record{
	{"tanuki are running tricksters", "Japan", "foo"},
	{"racoons are biting trash pandas", "USA", "bar"},
}

var recordColumns = []string{"text", "country", "not_searchable"}

func (r record) values() []any { return []any{r.text, r.country, r.notSearchable} }

func newMemoryEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(Config{BaseDir: MemoryDBBaseDir})
	if err != nil {
		t.Fatalf("mem engine init: %v", err)
	}
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func mustExec(t *testing.T, e *Engine, query string, args ...any) {
	t.Helper()
	if _, err := e.DB().ExecContext(t.Context(), query, args...); err != nil {
		t.Fatalf("exec %q: %v", query, err)
	}
}

func createTable(t *testing.T, e *Engine, table string, cols ...string) {
	t.Helper()
	defs := make([]string, len(cols))
	for i, c := range cols {
		defs[i] = quote(c) + " TEXT"
	}
	mustExec(t, e, fmt.Sprintf("CREATE TABLE %s (%s)", quote(table), strings.Join(defs, ", ")))
}

func insertRow(t *testing.T, e *Engine, table string, cols []string, vals ...any) {
	t.Helper()
	marks := strings.TrimSuffix(strings.Repeat("?,", len(cols)), ",")
	mustExec(t, e, fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quote(table), strings.Join(quoteAll(cols), ", "), marks), vals...)
}

// newSearchable creates table with the record columns and inserts recs.
func newSearchable(t *testing.T, e *Engine, table string, recs ...record) {
	t.Helper()
	createTable(t, e, table, recordColumns...)
	for _, r := range recs {
		insertRow(t, e, table, recordColumns, r.values()...)
	}
}

func search(t *testing.T, e *Engine, table, q string) []Row {
	t.Helper()
	rows, err := e.Search(t.Context(), table, q, SearchOptions{})
	if err != nil {
		t.Fatalf("search %q on %q: %v", q, table, err)
	}
	return rows
}

func assertRecords(t *testing.T, got []Row, want ...record) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("want %d rows, got %d: %v", len(want), len(got), got)
	}
	for i, w := range want {
		if gv, wv := fmt.Sprint(got[i].Values), fmt.Sprint(w.values()); gv != wv {
			t.Fatalf("row %d: got %s, want %s", i, gv, wv)
		}
	}
}

func tableNames(t *testing.T, e *Engine) []string {
	t.Helper()
	names, err := e.TableNames(t.Context())
	if err != nil {
		t.Fatalf("table names: %v", err)
	}
	return names
}

func assertSameSet(t *testing.T, got, want []string) {
	t.Helper()
	g, w := slices.Clone(got), slices.Clone(want)
	slices.Sort(g)
	slices.Sort(w)
	if !slices.Equal(g, w) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func countOf(t *testing.T, e *Engine, table string) int64 {
	t.Helper()
	n, err := countRows(t.Context(), e.DB(), table)
	if err != nil {
		t.Fatalf("count %q: %v", table, err)
	}
	return n
}

// captureLogs routes the default logger into a buffer for the rest of the test.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

// requireDialect skips the test when the linked SQLite lacks the module for d.
func requireDialect(t *testing.T, e *Engine, d Dialect) {
	t.Helper()
	ok, err := e.Supports(t.Context(), d)
	if err != nil {
		t.Fatalf("supports %s: %v", d, err)
	}
	if !ok {
		t.Skipf("%s module not compiled into this sqlite build", d)
	}
}
