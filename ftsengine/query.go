package ftsengine

import (
	"strings"
	"unicode"
)

// matchExpression turns q into the MATCH argument for mode.
// It returns "" when a quoted mode finds nothing to search for.
func matchExpression(q string, mode QueryMode) string {
	switch mode {
	case QueryAllTerms:
		return quotedTerms(q, " ")
	case QueryAnyTerms:
		return quotedTerms(q, " OR ")
	}
	return q
}

// quotedTerms converts a raw string into `"a" "b" "c"` (joined by sep).
// Words are runs of letters and digits, everything else separates them.
// Each term is a phrase literal, so query syntax characters in the input are
// never interpreted.
func quotedTerms(q, sep string) string {
	var tokens []string
	var buf strings.Builder

	flush := func() {
		if buf.Len() == 0 {
			return
		}
		tokens = append(tokens, buf.String())
		buf.Reset()
	}

	for _, r := range q {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			buf.WriteRune(r)
		} else {
			flush()
		}
	}
	// Final word.
	flush()

	// Nothing to search for, only non alphanumeric input.
	if len(tokens) == 0 {
		return ""
	}

	// Deduplicate *before* quoting.
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		k := strings.ToLower(t)
		if _, ok := seen[k]; !ok {
			seen[k] = struct{}{}
			out = append(out, quote(t))
		}
	}
	return strings.Join(out, sep)
}
