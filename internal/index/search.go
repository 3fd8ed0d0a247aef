package index

import (
	"strings"
	"unicode"
)

// searchTerms splits free text into words. Punctuation separates words, so
// "Dune: Part Two" yields dune, part, two.
func searchTerms(query string) []string {
	return strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// matchExpr turns free text into an FTS5 MATCH expression: every word must
// appear, and the last one may be a prefix. Words are quoted so that FTS5
// operators typed by the user are taken literally.
func matchExpr(query string) string {
	terms := searchTerms(query)
	if len(terms) == 0 {
		return ""
	}
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = `"` + t + `"`
	}
	quoted[len(quoted)-1] += "*"
	return strings.Join(quoted, " ")
}

// likePattern wraps term for a LIKE ... ESCAPE '\' comparison.
func likePattern(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(term) + "%"
}
