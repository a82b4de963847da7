package utils

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	// numberRegexp captures the first numeric value, allowing thousands separators
	numberRegexp = regexp.MustCompile(`-?\d[\d,]*(?:\.\d+)?`)
	// terabyteRegexp detects capacities given in TB
	terabyteRegexp = regexp.MustCompile(`(?i)\d\s*tb\b`)
)

// ParseLooseFloat extracts a number from catalog text such as "16 GB", "2.1kg"
// or "512GB SSD". The second return is false when no number is present.
func ParseLooseFloat(input string) (float64, bool) {
	s := strings.TrimSpace(input)
	if s == "" {
		return 0, false
	}

	// Fast path: plain number
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return finite(v)
	}

	match := numberRegexp.FindString(s)
	if match == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(match, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return finite(v)
}

// ParsePrice parses a price with currency symbols, grouping separators and
// whitespace, e.g. "₹ 98,990" or "Rs. 1,24,990.00".
func ParsePrice(input string) (float64, bool) {
	s := strings.TrimSpace(input)
	if s == "" {
		return 0, false
	}
	s = strings.NewReplacer(",", "", " ", "", "\u00a0", "").Replace(s)

	match := numberRegexp.FindString(s)
	if match == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, false
	}
	return finite(v)
}

// ParseRating parses the first number in a rating string and clamps it to [0, 5].
// Unparseable input yields 0.
func ParseRating(input string) float64 {
	v, ok := ParseLooseFloat(input)
	if !ok {
		return 0
	}
	return Clamp(v, 0, 5)
}

// ParseCapacityGB parses a storage or memory size in GB. Values written in TB
// ("1 TB", "2TB SSD") are converted to GB.
func ParseCapacityGB(input string) (float64, bool) {
	v, ok := ParseLooseFloat(input)
	if !ok {
		return 0, false
	}
	if terabyteRegexp.MatchString(input) {
		v *= 1024
	}
	return v, true
}

// Clamp limits v to [lo, hi]
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func finite(v float64) (float64, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
