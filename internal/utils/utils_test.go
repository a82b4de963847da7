package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLooseFloat(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   float64
		wantOK bool
	}{
		{name: "Plain number", input: "16", want: 16, wantOK: true},
		{name: "Unit suffix", input: "2.1kg", want: 2.1, wantOK: true},
		{name: "Unit with space", input: "512 GB SSD", want: 512, wantOK: true},
		{name: "Thousands separator", input: "1,024", want: 1024, wantOK: true},
		{name: "Inch mark", input: `15.6"`, want: 15.6, wantOK: true},
		{name: "Empty", input: "", want: 0, wantOK: false},
		{name: "No digits", input: "N/A", want: 0, wantOK: false},
		{name: "NaN literal", input: "NaN", want: 0, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseLooseFloat(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		input  string
		want   float64
		wantOK bool
	}{
		{"98990", 98990, true},
		{"₹98,990", 98990, true},
		{"Rs. 1,24,990.00", 124990, true},
		{"₹ 65 000", 65000, true},
		{"", 0, false},
		{"call for price", 0, false},
	}

	for _, tt := range tests {
		got, ok := ParsePrice(tt.input)
		assert.Equal(t, tt.wantOK, ok, "ParsePrice(%q)", tt.input)
		assert.InDelta(t, tt.want, got, 1e-9, "ParsePrice(%q)", tt.input)
	}
}

func TestParseRating(t *testing.T) {
	tests := []struct {
		input string
		want  float64
	}{
		{"4.5", 4.5},
		{"3.9 (120 reviews)", 3.9},
		{"7", 5},
		{"-1", 0},
		{"", 0},
		{"New", 0},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.want, ParseRating(tt.input), 1e-9, "ParseRating(%q)", tt.input)
	}
}

func TestParseCapacityGB(t *testing.T) {
	got, ok := ParseCapacityGB("1 TB SSD")
	assert.True(t, ok)
	assert.Equal(t, 1024.0, got)

	got, ok = ParseCapacityGB("512GB")
	assert.True(t, ok)
	assert.Equal(t, 512.0, got)

	_, ok = ParseCapacityGB("none")
	assert.False(t, ok)
}

func TestNormalizeBrand(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"hp", "HP"},
		{"  Hewlett  Packard ", "HP"},
		{"ASUS", "ASUS"},
		{"xiaomi", "Xiaomi"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeBrand(tt.input), "NormalizeBrand(%q)", tt.input)
	}
}

func TestMatchBrand(t *testing.T) {
	tests := []struct {
		name   string
		want   string
		wantOK bool
	}{
		{"Lenovo IdeaPad Slim 3", "Lenovo", true},
		{"ASUS ROG Strix G15", "ASUS", true},
		{"Apple MacBook Air M2", "Apple", true},
		{"MacBook Pro 13", "Apple", true},
		{"HP Pavilion 15-eg2009TU", "HP", true},
		{"Chipset Special Edition", "", false},
	}

	for _, tt := range tests {
		got, ok := MatchBrand(tt.name)
		assert.Equal(t, tt.wantOK, ok, tt.name)
		assert.Equal(t, tt.want, got, tt.name)
	}
}

func TestMatchCategoryCode(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"1", 1},
		{"2", 2},
		{"3.0", 3},
		{"7", 4},
		{"Gaming Laptop", 1},
		{"Thin & Light", 2},
		{"2 in 1 Laptop", 3},
		{"", 4},
		{"whatever", 4},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, MatchCategoryCode(tt.input), "MatchCategoryCode(%q)", tt.input)
	}
}

func TestCleanName(t *testing.T) {
	assert.Equal(t, "Dell XPS 14 Pro", CleanName(`  "Dell   XPS 14"  Pro `, 100))
	assert.Equal(t, "ASUS Vivobook", CleanName("ASUS\tVivobook\x07", 100))

	long := strings.Repeat("a", 150)
	assert.Len(t, CleanName(long, 100), 100)
	assert.Equal(t, "abc", CleanName("abc", 0))
}

func TestNormalizeHeader(t *testing.T) {
	assert.Equal(t, "priceinindianrupees", NormalizeHeader("Price (in Indian Rupees)"))
	assert.Equal(t, "cpuranking", NormalizeHeader("CPU_ranking"))
	assert.Equal(t, "userrating", NormalizeHeader("user rating"))
}
