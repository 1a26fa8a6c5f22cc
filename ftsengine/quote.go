package ftsengine

import "strings"

// quote renders id as a double-quoted SQL identifier.
func quote(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

// quoteLiteral renders s as a single-quoted SQL string literal.
func quoteLiteral(s string) string { return `'` + strings.ReplaceAll(s, `'`, `''`) + `'` }

// unquote strips any of the four identifier quoting styles SQLite accepts
// and collapses doubled quote characters. Bare words are returned unchanged.
func unquote(tok string) string {
	if len(tok) < 2 {
		return tok
	}
	first, last := tok[0], tok[len(tok)-1]
	switch {
	case first == '[' && last == ']':
		return tok[1 : len(tok)-1]
	case (first == '"' || first == '\'' || first == '`') && last == first:
		q := string(first)
		return strings.ReplaceAll(tok[1:len(tok)-1], q+q, q)
	}
	return tok
}

func quoteAll(ids []string) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = quote(id)
	}
	return out
}

// prefixed returns prefix.col for every column, with col quoted.
func prefixed(prefix string, cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = prefix + "." + quote(c)
	}
	return out
}
