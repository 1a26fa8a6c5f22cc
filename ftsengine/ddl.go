package ftsengine

import (
	"log/slog"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// virtualTableDDL is a CREATE VIRTUAL TABLE statement as stored in sqlite_master.
type virtualTableDDL struct {
	Name   string       `parser:"\"CREATE\" \"VIRTUAL\" \"TABLE\" (\"IF\" \"NOT\" \"EXISTS\")? @(Ident | String)"`
	Module string       `parser:"\"USING\" @Ident"`
	Args   []*moduleArg `parser:"(\"(\" (@@ (\",\" @@)*)? \")\")? \";\"?"`
}

// moduleArg is one comma separated module argument: a column declaration
// (words only) or an option (key = value words).
type moduleArg struct {
	Words []string `parser:"@(Ident | String | Number | Other)+"`
	Value []string `parser:"(\"=\" @(Ident | String | Number | Other | \"=\")+)?"`
}

// Order matters: the first rule that matches at a position wins.
var ddlLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "String", Pattern: `"(?:[^"]|"")*"|'(?:[^']|'')*'|\[[^\]]*\]|` + "`(?:[^`]|``)*`"},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_$]*`},
	{Name: "Number", Pattern: `[-+]?[0-9]+(?:\.[0-9]+)?`},
	{Name: "Punct", Pattern: `[(),=;]`},
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "Other", Pattern: "[^\\s(),=;\"'`\\[\\]]+"},
})

var ddlParser = participle.MustBuild[virtualTableDDL](
	participle.Lexer(ddlLexer),
	participle.Elide("Whitespace"),
	participle.CaseInsensitive("Ident"),
)

// ftsTable is a parsed full-text virtual table definition.
type ftsTable struct {
	Name    string
	Dialect Dialect
	Columns []string
	// Lower-cased option name -> unquoted value.
	Options map[string]string
}

func (f ftsTable) contentTable() string { return f.Options["content"] }

func (f ftsTable) tokenizer() string { return f.Options["tokenize"] }

// parseVirtualTable parses ddl. ok is false for statements that are not
// fts4 / fts5 virtual tables.
func parseVirtualTable(ddl string) (ftsTable, bool) {
	if !isVirtualTableSQL(ddl) {
		return ftsTable{}, false
	}
	stmt, err := ddlParser.ParseString("", ddl)
	if err != nil {
		if mentionsFTS(ddl) {
			slog.Warn("ftsengine: unparsed virtual table", "sql", ddl, "err", err)
		}
		return ftsTable{}, false
	}
	d, ok := dialectForModule(stmt.Module)
	if !ok {
		return ftsTable{}, false
	}

	t := ftsTable{
		Name:    unquote(stmt.Name),
		Dialect: d,
		Options: map[string]string{},
	}
	for _, a := range stmt.Args {
		if len(a.Value) == 0 {
			// Column name, any following words are column options such as UNINDEXED.
			t.Columns = append(t.Columns, unquote(a.Words[0]))
			continue
		}
		t.Options[strings.ToLower(unquote(a.Words[0]))] = joinValue(a.Value)
	}
	return t, true
}

// joinValue unquotes option value words and joins them with single spaces.
// "=" stays glued to its neighbours, so key=value tokenizer arguments
// read back the way they were written.
func joinValue(words []string) string {
	var b strings.Builder
	for i, w := range words {
		if i > 0 && w != "=" && words[i-1] != "=" {
			b.WriteByte(' ')
		}
		if w == "=" {
			b.WriteString(w)
			continue
		}
		b.WriteString(unquote(w))
	}
	return b.String()
}

func mentionsFTS(ddl string) bool {
	l := strings.ToLower(ddl)
	return strings.Contains(l, "fts4") || strings.Contains(l, "fts5")
}

func isVirtualTableSQL(ddl string) bool {
	f := strings.Fields(ddl)
	return len(f) >= 3 &&
		strings.EqualFold(f[0], "CREATE") &&
		strings.EqualFold(f[1], "VIRTUAL") &&
		strings.EqualFold(f[2], "TABLE")
}
