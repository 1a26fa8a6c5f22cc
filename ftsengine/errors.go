package ftsengine

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnsupportedDialect = errors.New("ftsengine: unsupported dialect")
	ErrNameCollision      = errors.New("ftsengine: name collision")
	// ErrNotSearchable is returned when an operation needs a search index that does not exist.
	ErrNotSearchable = errors.New("ftsengine: table is not searchable")
	ErrNoSearchIndex = ErrNotSearchable
	// ErrUnknownTable is returned when a name resolves to nothing in the schema.
	ErrUnknownTable     = errors.New("ftsengine: unknown table")
	ErrUnknownColumn    = errors.New("ftsengine: unknown column")
	ErrInvalidTokenizer = errors.New("ftsengine: invalid tokenizer")
	ErrEmptyQuery       = errors.New("ftsengine: empty query")
	// ErrCorruptIndex matches errors raised by SQLite when shadow tables are damaged.
	// Rebuild is the recovery path.
	ErrCorruptIndex = errors.New("ftsengine: corrupt search index")
)

// OpError wraps an error with the operation and table it happened on.
type OpError struct {
	Op    string
	Table string
	Err   error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("ftsengine: %s %q: %v", e.Op, e.Table, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

func wrapOp(op, table string, err error) error {
	if err == nil {
		return nil
	}
	return &OpError{Op: op, Table: table, Err: err}
}

// CorruptIndexError carries the driver error unchanged so callers can tell a
// broken index apart from an empty result.
type CorruptIndexError struct {
	VirtualTable string
	Err          error
}

// Error is the driver message, verbatim.
func (e *CorruptIndexError) Error() string { return e.Err.Error() }

func (e *CorruptIndexError) Unwrap() error { return e.Err }

func (e *CorruptIndexError) Is(target error) bool { return target == ErrCorruptIndex }

// Substrings of the SQLite messages for SQLITE_CORRUPT, SQLITE_CORRUPT_VTAB and
// failed virtual table constructors.
var corruptMarkers = []string{
	"malformed",
	"corrupt",
	"vtable constructor failed",
	"fts5: corruption",
}

// classify marks err as ErrCorruptIndex when SQLite reports damage, and as
// ErrUnsupportedDialect when the index module is missing from the build.
func classify(vt string, err error) error {
	if err == nil {
		return nil
	}
	var ce *CorruptIndexError
	if errors.As(err, &ce) || errors.Is(err, ErrUnsupportedDialect) {
		return err
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "no such module") {
		return fmt.Errorf("%w: %w", ErrUnsupportedDialect, err)
	}
	for _, m := range corruptMarkers {
		if strings.Contains(msg, m) {
			return &CorruptIndexError{VirtualTable: vt, Err: err}
		}
	}
	return err
}
