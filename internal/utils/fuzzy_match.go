package utils

import (
	"strconv"
	"strings"
	"unicode"
)

// knownBrands are checked in order against the words of a laptop name
var knownBrands = []string{
	"asus", "lenovo", "dell", "hp", "acer", "msi", "apple", "microsoft", "samsung", "lg",
}

// brandAliases maps spellings seen in catalogs to a canonical brand name
var brandAliases = map[string]string{
	"asus":            "ASUS",
	"asustek":         "ASUS",
	"lenovo":          "Lenovo",
	"dell":            "Dell",
	"hp":              "HP",
	"hewlett packard": "HP",
	"hewlett-packard": "HP",
	"acer":            "Acer",
	"msi":             "MSI",
	"apple":           "Apple",
	"macbook":         "Apple",
	"microsoft":       "Microsoft",
	"surface":         "Microsoft",
	"samsung":         "Samsung",
	"lg":              "LG",
}

// categoryAliases maps textual form factors to a category code, checked in order
var categoryAliases = []struct {
	alias string
	code  int
}{
	{"gaming", 1},
	{"gamer", 1},
	{"thin and light", 2},
	{"thin & light", 2},
	{"thin&light", 2},
	{"thinandlight", 2},
	{"ultrabook", 2},
	{"2-in-1", 3},
	{"2 in 1", 3},
	{"2in1", 3},
	{"twoinone", 3},
	{"convertible", 3},
	{"standard", 4},
	{"notebook", 4},
}

// NormalizeBrand maps a company field to its canonical brand name.
// Unknown companies are returned title-cased.
func NormalizeBrand(company string) string {
	key := strings.ToLower(CollapseWhitespace(company))
	if key == "" {
		return ""
	}
	if canonical, ok := brandAliases[key]; ok {
		return canonical
	}
	return TitleCase(key)
}

// MatchBrand looks for a known brand among the words of a laptop name
func MatchBrand(name string) (string, bool) {
	words := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	seen := make(map[string]struct{}, len(words))
	for _, w := range words {
		seen[w] = struct{}{}
	}

	for _, brand := range knownBrands {
		if _, ok := seen[brand]; ok {
			return brandAliases[brand], true
		}
	}

	// Product lines that identify the maker without naming it
	for _, w := range words {
		switch w {
		case "macbook":
			return brandAliases["macbook"], true
		case "surface":
			return brandAliases["surface"], true
		}
	}

	return "", false
}

// MatchCategoryCode resolves a Type field to a category code 1..4.
// Numeric codes are used as-is; text is matched against known aliases.
// Anything else yields 4 (standard).
func MatchCategoryCode(typeField string) int {
	s := strings.ToLower(CollapseWhitespace(typeField))
	if s == "" {
		return 4
	}

	if n, err := strconv.ParseFloat(s, 64); err == nil {
		code := int(n)
		if float64(code) == n && code >= 1 && code <= 4 {
			return code
		}
		return 4
	}

	for _, a := range categoryAliases {
		if s == a.alias {
			return a.code
		}
	}
	for _, a := range categoryAliases {
		if strings.Contains(s, a.alias) {
			return a.code
		}
	}
	return 4
}
