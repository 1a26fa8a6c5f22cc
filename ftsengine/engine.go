package ftsengine

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/ppipada/sqlitefts-go/internal/sqlitedriver"
)

const defaultBusyTimeoutMS = 5000

// Engine manages search indexes over the tables of one SQLite database.
// All work goes through a single connection, one operation at a time.
type Engine struct {
	db *sql.DB
	// Set by WithTx. Operations then run inside savepoints of the caller's transaction.
	tx      *sql.Tx
	ownsDB  bool
	dialect Dialect
	// Serializes write-queries.
	mu *sync.Mutex
}

func NewEngine(cfg Config) (*Engine, error) {
	err := validateConfig(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.BaseDir != MemoryDBBaseDir {
		// Idempotent - harmless if it already exists.
		if err := os.MkdirAll(cfg.BaseDir, 0o770); err != nil {
			return nil, err
		}
	}

	dataSourceName := filepath.Join(
		cfg.BaseDir,
		cfg.DBFileName,
	)

	p := sqlitedriver.Pragmas{
		BusyTimeoutMS:     cfg.BusyTimeoutMS,
		RecursiveTriggers: cfg.RecursiveTriggers,
	}
	if p.BusyTimeoutMS == 0 {
		p.BusyTimeoutMS = defaultBusyTimeoutMS
	}
	if cfg.BaseDir != MemoryDBBaseDir {
		p.JournalMode = "WAL"
	}

	db, err := sqlitedriver.Open(dataSourceName, p)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	drv := sqlitedriver.GetInfo()
	slog.Info("ftsengine open",
		"dbPath", dataSourceName,
		"driver", drv.DriverName,
		"driverType", drv.DriverType,
		"driverPackage", drv.Package,
		"dialect", defaultDialect(cfg.Dialect))
	e := NewEngineWithDB(db, cfg.Dialect)
	e.ownsDB = true
	return e, nil
}

// NewEngineWithDB manages indexes in an already open database. The caller
// keeps ownership of db. An empty dialect means fts5.
func NewEngineWithDB(db *sql.DB, dialect Dialect) *Engine {
	return &Engine{
		db:      db,
		dialect: defaultDialect(dialect),
		mu:      &sync.Mutex{},
	}
}

// WithTx returns an engine that runs every operation inside tx. Each
// operation gets its own savepoint, so a failed operation leaves the rest of
// the caller's transaction untouched. The caller commits or rolls back tx.
func (e *Engine) WithTx(tx *sql.Tx) *Engine {
	return &Engine{
		db:      e.db,
		tx:      tx,
		dialect: e.dialect,
		mu:      &sync.Mutex{},
	}
}

// DB exposes the underlying handle.
func (e *Engine) DB() *sql.DB { return e.db }

// Dialect is the default dialect used by Enable.
func (e *Engine) Dialect() Dialect { return e.dialect }

// Close closes the database if NewEngine opened it.
func (e *Engine) Close() error {
	if !e.ownsDB || e.tx != nil {
		return nil
	}
	return e.db.Close()
}

// TableNames lists all tables, shadow tables included, in creation order.
func (e *Engine) TableNames(ctx context.Context) ([]string, error) {
	return listTableNames(ctx, e.exec())
}

// TriggerNames lists triggers on table, or every trigger when table is "".
func (e *Engine) TriggerNames(ctx context.Context, table string) ([]string, error) {
	trs, err := listTriggers(ctx, e.exec(), table)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(trs))
	for _, t := range trs {
		out = append(out, t.Name)
	}
	return out, nil
}

// Columns lists the declared columns of table.
func (e *Engine) Columns(ctx context.Context, table string) ([]string, error) {
	return listColumns(ctx, e.exec(), table)
}

// Supports reports whether the linked SQLite has the module for d.
// The pure Go builds ship fts5 only, fts4 needs the cgo_sqlite build.
func (e *Engine) Supports(ctx context.Context, d Dialect) (bool, error) {
	info, err := Describe(d)
	if err != nil {
		return false, err
	}
	return moduleAvailable(ctx, e.exec(), info.Module)
}

func (e *Engine) exec() sqlExec {
	if e.tx != nil {
		return e.tx
	}
	return e.db
}

// atomic runs fn in one transaction, or in a savepoint when bound to a
// caller transaction. Either everything fn did is kept or none of it.
func (e *Engine) atomic(ctx context.Context, fn func(q sqlExec) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.tx != nil {
		return savepoint(ctx, e.tx, fn)
	}

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	commit := func(err error) error {
		if err != nil {
			_ = tx.Rollback()
			return err
		}
		return tx.Commit()
	}
	return commit(fn(tx))
}

func savepoint(ctx context.Context, q sqlExec, fn func(q sqlExec) error) error {
	// Unique, so nested or concurrent engines on one transaction never release
	// each other's savepoints.
	name := quote("fts_" + strings.ReplaceAll(uuid.NewString(), "-", ""))
	if _, err := q.ExecContext(ctx, "SAVEPOINT "+name); err != nil {
		return err
	}
	if err := fn(q); err != nil {
		_, rbErr := q.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+name)
		_, relErr := q.ExecContext(ctx, "RELEASE SAVEPOINT "+name)
		return errors.Join(err, rbErr, relErr)
	}
	_, err := q.ExecContext(ctx, "RELEASE SAVEPOINT "+name)
	return err
}

func defaultDialect(d Dialect) Dialect {
	if d == "" {
		return DialectFTS5
	}
	return d
}

func validateConfig(c Config) error {
	if c.BaseDir == "" {
		return errors.New("ftsengine: DB BaseDir incorrect")
	}
	if c.BaseDir == MemoryDBBaseDir && c.DBFileName != "" {
		return errors.New("ftsengine: DB filename should be empty for memory db")
	}
	if c.BaseDir != MemoryDBBaseDir && c.DBFileName == "" {
		return errors.New("ftsengine: DB filename incorrect")
	}
	if c.BusyTimeoutMS < 0 {
		return errors.New("ftsengine: negative busy timeout")
	}
	if c.Dialect != "" {
		if _, err := Describe(c.Dialect); err != nil {
			return err
		}
	}
	return nil
}
