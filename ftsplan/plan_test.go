package ftsplan

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

const yamlPlan = `
indexes:
  - table: licenses
    columns: [name]
    dialect: fts4
    triggers: true
  - table: docs
    columns: [title, body]
    tokenizer: porter
    virtual_table: docs_search
`

const tomlPlan = `
[[indexes]]
table = "licenses"
columns = ["name"]
dialect = "fts4"
triggers = true

[[indexes]]
table = "docs"
columns = ["title", "body"]
tokenizer = "porter"
virtual_table = "docs_search"
`

var wantPlan = &Plan{Indexes: []IndexSpec{
	{Table: "licenses", Columns: []string{"name"}, Dialect: "fts4", Triggers: true},
	{Table: "docs", Columns: []string{"title", "body"}, Tokenizer: "porter", VirtualTable: "docs_search"},
}}

func TestParse(t *testing.T) {
	for _, tc := range []struct {
		format Format
		data   string
	}{
		{FormatYAML, yamlPlan},
		{FormatTOML, tomlPlan},
	} {
		t.Run(string(tc.format), func(t *testing.T) {
			got, err := Parse([]byte(tc.data), tc.format)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if !reflect.DeepEqual(got, wantPlan) {
				t.Fatalf("got %+v, want %+v", got, wantPlan)
			}
		})
	}
}

func TestParseStrict(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		data   string
	}{
		{"yaml unknown field", FormatYAML, "indexes:\n  - table: a\n    columns: [b]\n    colums: [c]\n"},
		{"toml unknown field", FormatTOML, "[[indexes]]\ntable = \"a\"\ncolumns = [\"b\"]\nextra = 1\n"},
		{"yaml syntax", FormatYAML, "indexes: [\n"},
		{"unknown format", Format("json"), "{}"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Parse([]byte(tc.data), tc.format); err == nil {
				t.Fatal("want an error")
			}
		})
	}
}

func TestParseEmpty(t *testing.T) {
	p, err := Parse(nil, FormatYAML)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(p.Indexes) != 0 {
		t.Fatalf("got %+v", p)
	}
}

func TestValidateCollectsAllProblems(t *testing.T) {
	p := &Plan{Indexes: []IndexSpec{
		{Columns: []string{"a"}},
		{Table: "t"},
		{Table: "u", Columns: []string{"a"}, Dialect: "fts3"},
		{Table: "U", Columns: []string{"a"}},
	}}
	err := p.Validate()
	if err == nil {
		t.Fatal("want validation errors")
	}
	msg := err.Error()
	for _, want := range []string{
		"index 0: table is required",
		"index 1 (t): no columns",
		"unsupported dialect",
		`index 3: table "U" already planned by index 2`,
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("missing %q in:\n%s", want, msg)
		}
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	write := func(name, data string) string {
		t.Helper()
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(data), 0o600); err != nil {
			t.Fatal(err)
		}
		return p
	}

	for _, path := range []string{
		write("plan.yml", yamlPlan),
		write("plan.YAML", yamlPlan),
		write("plan", yamlPlan),
		write("plan.toml", tomlPlan),
	} {
		got, err := Load(path)
		if err != nil {
			t.Fatalf("load %s: %v", path, err)
		}
		if !reflect.DeepEqual(got, wantPlan) {
			t.Fatalf("load %s: got %+v", path, got)
		}
	}

	if _, err := Load(write("plan.json", "{}")); err == nil {
		t.Fatal("want unknown format error")
	}
	if _, err := Load(filepath.Join(dir, "missing.yml")); err == nil {
		t.Fatal("want read error")
	}
	// TOML content in a YAML file fails in strict mode.
	if _, err := Load(write("wrong.yml", tomlPlan)); err == nil {
		t.Fatal("want decode error")
	}
}
