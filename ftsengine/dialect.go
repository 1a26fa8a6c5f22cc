package ftsengine

import (
	"fmt"
	"strings"
)

// DialectInfo holds the fixed facts about one full-text generation.
type DialectInfo struct {
	Dialect Dialect
	// Name after USING in CREATE VIRTUAL TABLE.
	Module string
	// Shadow tables SQLite creates with the virtual table, in creation order.
	ShadowSuffixes []string
	// Extra shadow table that only exists for some dialects.
	ConfigSuffix string
	// Per-document sizing table, the one hit by the duplicate-row defect.
	SizingSuffix string
	// Primary key column of the sizing table.
	SizingKey string
	// Column used to bind index rows to base rows.
	RowIDColumn string
	// The virtual table reads content from the base table.
	ExternalContent bool
	// Delete and update triggers must run before the base row changes,
	// because the module reads the old content back from the base table.
	PreImageTriggers bool
	// Special insert command that empties the index. Empty means use rebuild.
	DeleteAllCommand string
	// Hidden column to ORDER BY for relevance. Empty means rowid order.
	RankColumn string
}

var dialects = map[Dialect]DialectInfo{
	DialectFTS4: {
		Dialect:          DialectFTS4,
		Module:           "fts4",
		ShadowSuffixes:   []string{"_segments", "_segdir", "_docsize", "_stat"},
		SizingSuffix:     "_docsize",
		SizingKey:        "docid",
		RowIDColumn:      "docid",
		ExternalContent:  true,
		PreImageTriggers: true,
	},
	DialectFTS5: {
		Dialect:          DialectFTS5,
		Module:           "fts5",
		ShadowSuffixes:   []string{"_data", "_idx", "_docsize"},
		ConfigSuffix:     "_config",
		SizingSuffix:     "_docsize",
		SizingKey:        "id",
		RowIDColumn:      "rowid",
		ExternalContent:  true,
		DeleteAllCommand: "delete-all",
		RankColumn:       "rank",
	},
}

// Describe returns the facts for d.
func Describe(d Dialect) (DialectInfo, error) {
	info, ok := dialects[d]
	if !ok {
		return DialectInfo{}, fmt.Errorf("%w: %q", ErrUnsupportedDialect, d)
	}
	return info, nil
}

// ParseDialect accepts fts4 / v1 / 4 and fts5 / v2 / 5 in any case.
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fts4", "v1", "4":
		return DialectFTS4, nil
	case "fts5", "v2", "5":
		return DialectFTS5, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedDialect, s)
}

// dialectForModule maps a USING module name back to a dialect.
func dialectForModule(module string) (Dialect, bool) {
	for d, info := range dialects {
		if strings.EqualFold(info.Module, module) {
			return d, true
		}
	}
	return "", false
}

// ShadowTables derives the shadow table names for vt. Nothing is cached,
// callers re-derive on every use.
func (d DialectInfo) ShadowTables(vt string) []string {
	out := make([]string, 0, len(d.ShadowSuffixes)+1)
	for _, s := range d.ShadowSuffixes {
		out = append(out, vt+s)
	}
	if d.ConfigSuffix != "" {
		out = append(out, vt+d.ConfigSuffix)
	}
	return out
}

// SizingTable is the name of the docsize shadow table of vt.
func (d DialectInfo) SizingTable(vt string) string { return vt + d.SizingSuffix }

// TokenizeClause renders the tokenize option, "" for the module default.
func (d DialectInfo) TokenizeClause(tokenizer string) string {
	if tokenizer == "" {
		return ""
	}
	if d.Dialect == DialectFTS4 {
		// fts4 takes the tokenizer name and its arguments as bare words.
		return "tokenize=" + tokenizer
	}
	return "tokenize=" + quoteLiteral(tokenizer)
}

// CreateSQL renders CREATE VIRTUAL TABLE for vt over base.
func (d DialectInfo) CreateSQL(vt, base string, cols []string, tokenizer string) string {
	const sqlCreateVirtualTable = `CREATE VIRTUAL TABLE %s USING %s (%s)`
	args := quoteAll(cols)
	if d.ExternalContent {
		args = append(args, "content="+quote(base))
	}
	if tc := d.TokenizeClause(tokenizer); tc != "" {
		args = append(args, tc)
	}
	return fmt.Sprintf(sqlCreateVirtualTable, quote(vt), d.Module, strings.Join(args, ", "))
}

// CommandSQL renders the special INSERT that runs a maintenance command.
func (d DialectInfo) CommandSQL(vt, command string) string {
	const sqlCommand = `INSERT INTO %s(%s) VALUES(%s)`
	return fmt.Sprintf(sqlCommand, quote(vt), quote(vt), quoteLiteral(command))
}

// MergeSQL renders an incremental merge of up to pages pages.
func (d DialectInfo) MergeSQL(vt string, pages int) string {
	if d.Dialect == DialectFTS4 {
		// merge=X,Y: X pages of work, Y minimum segments to merge.
		return d.CommandSQL(vt, fmt.Sprintf("merge=%d,8", pages))
	}
	const sqlMerge = `INSERT INTO %s(%s, rank) VALUES('merge', %d)`
	return fmt.Sprintf(sqlMerge, quote(vt), quote(vt), pages)
}

// TriggerNames are the sync trigger names for base, insert/delete/update order.
func TriggerNames(base string) []string {
	return []string{
		base + TriggerInsertSuffix,
		base + TriggerDeleteSuffix,
		base + TriggerUpdateSuffix,
	}
}

// TriggerSQL renders the three sync triggers for base -> vt.
func (d DialectInfo) TriggerSQL(base, vt string, cols []string) []string {
	names := TriggerNames(base)
	colList := strings.Join(quoteAll(cols), ", ")
	newVals := strings.Join(prefixed("new", cols), ", ")
	oldVals := strings.Join(prefixed("old", cols), ", ")

	insertNew := fmt.Sprintf(`INSERT INTO %s (%s, %s) VALUES (new.rowid, %s);`,
		quote(vt), d.RowIDColumn, colList, newVals)

	var removeOld, timing string
	if d.PreImageTriggers {
		removeOld = fmt.Sprintf(`DELETE FROM %s WHERE %s = old.rowid;`, quote(vt), d.RowIDColumn)
		timing = "BEFORE"
	} else {
		removeOld = fmt.Sprintf(`INSERT INTO %s (%s, %s, %s) VALUES ('delete', old.rowid, %s);`,
			quote(vt), quote(vt), d.RowIDColumn, colList, oldVals)
		timing = "AFTER"
	}

	const sqlTrigger = "CREATE TRIGGER %s %s %s ON %s BEGIN\n  %s\nEND"
	return []string{
		fmt.Sprintf(sqlTrigger, quote(names[0]), "AFTER", "INSERT", quote(base), insertNew),
		fmt.Sprintf(sqlTrigger, quote(names[1]), timing, "DELETE", quote(base), removeOld),
		fmt.Sprintf(sqlTrigger, quote(names[2]), timing, "UPDATE", quote(base),
			removeOld+"\n  "+insertNew),
	}
}
