package store

import "strings"

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

var stopwords = map[string]struct{}{
	"the": {}, "is": {}, "a": {}, "an": {}, "to": {}, "for": {}, "with": {}, "and": {},
	"or": {}, "what": {}, "do": {}, "i": {}, "my": {}, "on": {}, "how": {}, "of": {},
}

// ExtractKeywords lowercases the whitespace-separated words of text and drops
// stopwords. Order and duplicates are preserved.
func ExtractKeywords(text string) []string {
	var out []string
	for _, f := range strings.Fields(text) {
		kw := strings.ToLower(strings.TrimSpace(f))
		if kw == "" {
			continue
		}
		if _, stop := stopwords[kw]; stop {
			continue
		}
		out = append(out, kw)
	}
	return out
}

// KeywordClause builds "(LOWER(col) LIKE ? OR ...)" with one %kw% arg per
// keyword. No keywords gives an empty clause.
func KeywordClause(column string, keywords []string) (string, []interface{}) {
	if len(keywords) == 0 {
		return "", nil
	}

	parts := make([]string, len(keywords))
	args := make([]interface{}, len(keywords))
	for i, kw := range keywords {
		parts[i] = "LOWER(" + column + ") LIKE ?"
		args[i] = "%" + kw + "%"
	}
	return "(" + strings.Join(parts, " OR ") + ")", args
}

// ClampLimit maps non-positive limits to DefaultLimit and caps at MaxLimit.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	}
	return limit
}

func buildSearchQuery(columns, table, orderBy, text string, limit int) (string, []interface{}) {
	clause, args := KeywordClause("short_description", ExtractKeywords(text))

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(columns)
	b.WriteString(" FROM ")
	b.WriteString(table)
	if clause != "" {
		b.WriteString(" WHERE ")
		b.WriteString(clause)
	}
	b.WriteString(" ORDER BY ")
	b.WriteString(orderBy)
	b.WriteString(" DESC LIMIT ?")

	return b.String(), append(args, ClampLimit(limit))
}
