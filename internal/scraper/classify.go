package scraper

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// LabelRule maps labels containing Keyword to Field.
type LabelRule struct {
	Keyword string
	Field   string
}

// FoldLabel lower-cases and cleans a field label such as "Credits:".
func FoldLabel(label string) string {
	return fold(CleanText(label))
}

// Classify returns the field of the first rule whose keyword is contained in
// label, or "" when none matches. Rules are tried in order, so more specific
// keywords must come first.
func Classify(label string, rules []LabelRule) string {
	folded := FoldLabel(label)
	if folded == "" {
		return ""
	}
	for _, r := range rules {
		if strings.Contains(folded, fold(r.Keyword)) {
			return r.Field
		}
	}
	return ""
}

// MatchesKeywords reports whether text contains any of keywords, ignoring case.
func MatchesKeywords(text string, keywords []string) bool {
	folded := FoldLabel(text)
	for _, k := range keywords {
		if strings.Contains(folded, fold(k)) {
			return true
		}
	}
	return false
}

// fold builds a Caser per call: Casers keep state and must not be shared.
func fold(s string) string {
	return cases.Lower(language.Und).String(s)
}
