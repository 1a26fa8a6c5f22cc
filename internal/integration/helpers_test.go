package integration

import (
	"path/filepath"
	"testing"

	"github.com/ppipada/sqlitefts-go/ftsengine"
)

const dbFileName = "search.db"

var licenses = [][]any{
	{"apache2", "Apache 2"},
	{"bsd", "BSD"},
}

func openEngine(t *testing.T, dir string, cfg ftsengine.Config) *ftsengine.Engine {
	t.Helper()
	cfg.BaseDir = dir
	cfg.DBFileName = dbFileName
	e, err := ftsengine.NewEngine(cfg)
	if err != nil {
		t.Fatalf("failed to open engine in %s: %v", dir, err)
	}
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func dbPath(dir string) string { return filepath.Join(dir, dbFileName) }

func mustExec(t *testing.T, e *ftsengine.Engine, query string, args ...any) {
	t.Helper()
	if _, err := e.DB().ExecContext(t.Context(), query, args...); err != nil {
		t.Fatalf("exec %q: %v", query, err)
	}
}

func createLicenses(t *testing.T, e *ftsengine.Engine) {
	t.Helper()
	mustExec(t, e, `CREATE TABLE "licenses" ("key" TEXT PRIMARY KEY, "name" TEXT)`)
	upsertLicenses(t, e)
}

// upsertLicenses re-inserts every license with INSERT OR REPLACE.
func upsertLicenses(t *testing.T, e *ftsengine.Engine) {
	t.Helper()
	for _, l := range licenses {
		mustExec(t, e, `INSERT OR REPLACE INTO "licenses" ("key", "name") VALUES (?, ?)`, l...)
	}
}

func count(t *testing.T, e *ftsengine.Engine, table string) int {
	t.Helper()
	var n int
	if err := e.DB().QueryRowContext(t.Context(), `SELECT count(*) FROM "`+table+`"`).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}

func searchKeys(t *testing.T, e *ftsengine.Engine, table, q string) []string {
	t.Helper()
	rows, err := e.Search(t.Context(), table, q, ftsengine.SearchOptions{Columns: []string{"key"}})
	if err != nil {
		t.Fatalf("search %q: %v", q, err)
	}
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		v, _ := r.Get("key")
		s, _ := v.(string)
		out = append(out, s)
	}
	return out
}

func requireDialect(t *testing.T, e *ftsengine.Engine, d ftsengine.Dialect) {
	t.Helper()
	ok, err := e.Supports(t.Context(), d)
	if err != nil {
		t.Fatalf("supports %s: %v", d, err)
	}
	if !ok {
		t.Skipf("%s module not compiled into this sqlite build", d)
	}
}
