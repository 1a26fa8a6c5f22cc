// Package ftsplan describes the search indexes a database should have in a
// YAML or TOML file and applies that description to an ftsengine.Engine.
package ftsplan

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/ppipada/sqlitefts-go/ftsengine"
)

type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// Plan is the desired set of search indexes.
type Plan struct {
	Indexes []IndexSpec `yaml:"indexes" toml:"indexes"`
}

// IndexSpec is one search index, keyed by its base table.
type IndexSpec struct {
	Table   string   `yaml:"table"   toml:"table"`
	Columns []string `yaml:"columns" toml:"columns"`
	// fts4 / fts5 (or v1 / v2). Empty means the engine default.
	Dialect   string `yaml:"dialect"   toml:"dialect"`
	Tokenizer string `yaml:"tokenizer" toml:"tokenizer"`
	// Keep the index in sync with insert/delete/update triggers.
	Triggers bool `yaml:"triggers" toml:"triggers"`
	// Empty means <table>_fts.
	VirtualTable string `yaml:"virtual_table" toml:"virtual_table"`
}

// FormatFor guesses the format from the file name.
// .yml, .yaml and names without an extension are YAML.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml", "":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	}
	return "", fmt.Errorf("ftsplan: unknown plan format %s", path)
}

// Load reads and validates the plan at path.
func Load(path string) (*Plan, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ftsplan: can't read plan %s: %w", path, err)
	}
	p, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("ftsplan: %s: %w", path, err)
	}
	return p, nil
}

// Parse decodes a plan. Unknown fields are rejected in both formats.
func Parse(data []byte, format Format) (*Plan, error) {
	p := &Plan{}
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(p); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("can't unmarshal yaml plan: %w", err)
		}
	case FormatTOML:
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(p); err != nil {
			return nil, fmt.Errorf("can't unmarshal toml plan: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown plan format %q", format)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate reports every problem in the plan at once.
func (p *Plan) Validate() error {
	errs := new(multierror.Error)
	seen := map[string]int{}
	for i, spec := range p.Indexes {
		if spec.Table == "" {
			errs = multierror.Append(errs, fmt.Errorf("index %d: table is required", i))
		} else {
			key := strings.ToLower(spec.Table)
			if j, dup := seen[key]; dup {
				errs = multierror.Append(errs,
					fmt.Errorf("index %d: table %q already planned by index %d", i, spec.Table, j))
			}
			seen[key] = i
		}
		if len(spec.Columns) == 0 {
			errs = multierror.Append(errs, fmt.Errorf("index %d (%s): no columns", i, spec.Table))
		}
		if spec.Dialect != "" {
			if _, err := ftsengine.ParseDialect(spec.Dialect); err != nil {
				errs = multierror.Append(errs, fmt.Errorf("index %d (%s): %w", i, spec.Table, err))
			}
		}
	}
	return errs.ErrorOrNil()
}

// dialect returns the planned dialect, or def when none is set.
func (s IndexSpec) dialect(def ftsengine.Dialect) (ftsengine.Dialect, error) {
	if s.Dialect == "" {
		return def, nil
	}
	return ftsengine.ParseDialect(s.Dialect)
}
