package utils

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// controlCharRegexp matches non-printable control characters
var controlCharRegexp = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F\x7F]`)

// CollapseWhitespace trims s and joins internal whitespace runs with a single space
func CollapseWhitespace(s string) string {
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}

// CleanName prepares a display name: NFKC normalisation, quotes and control
// characters removed, whitespace collapsed, capped at maxRunes runes.
func CleanName(name string, maxRunes int) string {
	s := norm.NFKC.String(name)
	s = controlCharRegexp.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, `"`, "")
	s = CollapseWhitespace(s)

	if maxRunes > 0 {
		runes := []rune(s)
		if len(runes) > maxRunes {
			s = strings.TrimSpace(string(runes[:maxRunes]))
		}
	}
	return s
}

// NormalizeHeader reduces a column header to lowercase letters and digits, so
// "Price (in Indian Rupees)" and "price_in_indian_rupees" compare equal.
func NormalizeHeader(header string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(norm.NFKC.String(header)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// TitleCase capitalises each word of s
func TitleCase(s string) string {
	return cases.Title(language.English).String(s)
}
