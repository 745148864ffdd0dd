package rowindex

import (
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize canonicalizes a raw categorical value into an index key:
// whitespace trimmed, diacritics stripped, lowercased. Blank input
// normalizes to "". Normalize is pure and idempotent, and MUST be used
// both when building indexes and when resolving filter selections, or
// lookups silently miss.
func Normalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(t, s); err == nil {
		s = folded
	}
	return strings.ToLower(strings.TrimSpace(s))
}

var (
	dayPattern   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	monthPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)
)

// monthLayouts are tried, in order, for date strings that are neither
// plain YYYY-MM-DD nor YYYY-MM.
var monthLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006/01/02",
}

// MonthKey derives the YYYY-MM month bucket for a campaign date string.
// Returns "" when no month can be derived; such rows are simply not
// indexed under any month key.
func MonthKey(date string) string {
	s := strings.TrimSpace(date)
	if s == "" {
		return ""
	}
	if dayPattern.MatchString(s) {
		return s[:7]
	}
	if monthPattern.MatchString(s) {
		return s
	}
	for _, layout := range monthLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().Format("2006-01")
		}
	}
	return ""
}
