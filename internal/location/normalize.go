package location

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// normalize lowercases s, drops combining marks and collapses whitespace,
// so "Parañaque  City" compares equal to "paranaque city".
func normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.Join(strings.Fields(strings.ToLower(out)), " ")
}

// tokens splits a normalized string on anything that is not a letter, digit or hyphen.
func tokens(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-'
	})
}

func stripCity(s string) string {
	s = strings.TrimPrefix(s, "city of ")
	s = strings.TrimSuffix(s, " city")
	return strings.TrimSpace(s)
}

var barangayPrefixes = []string{"barangay ", "brgy. ", "brgy "}

func stripBarangay(s string) string {
	for _, p := range barangayPrefixes {
		if strings.HasPrefix(s, p) {
			return strings.TrimSpace(strings.TrimPrefix(s, p))
		}
	}
	return s
}

func stripDistrict(s string) string {
	s = strings.TrimSuffix(s, " district")
	s = strings.TrimPrefix(s, "district of ")
	return strings.TrimSpace(s)
}

// containsEither reports whether a contains b or b contains a. Empty strings never match.
func containsEither(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}
