package ingest

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"laptopadvisor/internal/model"
)

const catalogHeader = "name,company,Price (in Indian Rupees),RAM (in GB),Storage,Screen Size (in inch),Weight (in kg),user rating,battery_backup,CPU_ranking,gpu_benchmark,Type"

func extractText(t *testing.T, cfg ExtractorConfig, rows ...string) *ExtractResult {
	t.Helper()
	table, err := NewParser(',').ParseString(catalogHeader + "\n" + strings.Join(rows, "\n"))
	require.NoError(t, err)
	return NewExtractor(cfg, zerolog.Nop()).Extract(table)
}

func TestExtractor_DerivesFeatures(t *testing.T) {
	res := extractText(t, ExtractorConfig{},
		`"Dell  ""XPS"" 14",dell,"₹98,000",16 GB,512 GB SSD,14,1.8 kg,4.2,,80,150,2`,
	)

	require.Len(t, res.Laptops, 1)
	l := res.Laptops[0]

	assert.Equal(t, "L0002", l.ID)
	assert.Equal(t, "Dell XPS 14", l.Name)
	assert.Equal(t, "Dell", l.Brand)
	assert.Equal(t, model.CategoryThinAndLight, l.Category)
	assert.Equal(t, 98000.0, l.PriceRaw)
	assert.Equal(t, 4.2, l.Rating)
	// rating, price, cpu, gpu and company present; battery missing
	assert.InDelta(t, 0.9, l.Confidence, 1e-9)

	want := model.FeatureVector{98000, 16, 512, 14, 8, 1.8, 7.56}
	for i := range want {
		assert.InDelta(t, want[i], l.Features[i], 1e-9, model.Feature(i).String())
	}
}

func TestExtractor_RangeChecks(t *testing.T) {
	tests := []struct {
		name      string
		row       string
		wantField string
	}{
		{name: "Price at exclusive minimum", row: "A,HP,10000,8,256,15.6,2,4,,,,4", wantField: "price"},
		{name: "Price missing", row: "A,HP,,8,256,15.6,2,4,,,,4", wantField: "price"},
		{name: "RAM too small", row: "A,HP,50000,1,256,15.6,2,4,,,,4", wantField: "ram"},
		{name: "Storage too large", row: "A,HP,50000,8,8192,15.6,2,4,,,,4", wantField: "storage"},
		{name: "Screen too large", row: "A,HP,50000,8,256,19,2,4,,,,4", wantField: "screen"},
		{name: "Weight too small", row: "A,HP,50000,8,256,15.6,0.4,4,,,,4", wantField: "weight"},
		{name: "Rating zero", row: "A,HP,50000,8,256,15.6,2,0,,,,4", wantField: "rating"},
		{name: "Rating not numeric", row: "A,HP,50000,8,256,15.6,2,New,,,,4", wantField: "rating"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := extractText(t, ExtractorConfig{}, tt.row)
			assert.Empty(t, res.Laptops)
			assert.Equal(t, 1, res.Rejected)
			assert.Equal(t, 1, res.RejectedBy[tt.wantField])
		})
	}
}

func TestExtractor_AcceptsBoundaries(t *testing.T) {
	res := extractText(t, ExtractorConfig{},
		"Upper,HP,500000,64,4096,18,5,5,,,,4",
		"Lower,HP,10001,2,64,10,0.5,0.1,,,,4",
	)
	assert.Equal(t, 2, res.Accepted)
	assert.Zero(t, res.Rejected)
}

func TestExtractor_AcceptedItemsSatisfyRanges(t *testing.T) {
	rows := GenerateSynthetic(SyntheticConfig{Count: 200, Seed: 7, InvalidRatio: 0.1})
	var sb strings.Builder
	require.NoError(t, WriteCSV(&sb, SyntheticHeaders, rows))

	table, err := NewParser(',').ParseString(sb.String())
	require.NoError(t, err)
	res := NewExtractor(ExtractorConfig{}, zerolog.Nop()).Extract(table)

	require.NotEmpty(t, res.Laptops)
	assert.Equal(t, 200, res.Accepted+res.Rejected)
	for _, l := range res.Laptops {
		f := l.Features
		assert.True(t, f.IsFinite())
		assert.True(t, model.PriceRange.Contains(f[model.FeaturePrice]), l.ID)
		assert.True(t, model.RAMRange.Contains(f[model.FeatureRAM]), l.ID)
		assert.True(t, model.StorageRange.Contains(f[model.FeatureStorage]), l.ID)
		assert.True(t, model.ScreenRange.Contains(f[model.FeatureScreen]), l.ID)
		assert.True(t, model.WeightRange.Contains(f[model.FeatureWeight]), l.ID)
		assert.True(t, model.RatingRange.Contains(l.Rating), l.ID)
		assert.Greater(t, f[model.FeatureBattery], 0.0, l.ID)
		assert.True(t, model.PerformanceRange.Contains(f[model.FeaturePerformance]), l.ID)
		assert.GreaterOrEqual(t, l.Confidence, 0.0)
		assert.LessOrEqual(t, l.Confidence, 1.0)
		assert.LessOrEqual(t, len([]rune(l.Name)), DefaultNameMaxRunes)
	}
}

func TestExtractor_SortsByConfidenceAndCaps(t *testing.T) {
	res := extractText(t, ExtractorConfig{MaxItems: 2},
		"Low,,50000,8,256,15.6,2,4,,,,4",
		"High,HP,50000,8,256,15.6,2,4,6,100,50,4",
		"Mid,HP,50000,8,256,15.6,2,4,,100,,4",
		"High2,HP,50000,8,256,15.6,2,4,6,100,50,4",
	)

	assert.Equal(t, 4, res.Accepted)
	require.Len(t, res.Laptops, 2)
	assert.Equal(t, "High", res.Laptops[0].Name)
	assert.Equal(t, "High2", res.Laptops[1].Name)
	assert.Equal(t, 1.0, res.Laptops[0].Confidence)
}

func TestExtractor_IDs(t *testing.T) {
	table, err := NewParser(',').ParseString("id,name,price,ram,storage,screen,weight,rating\n" +
		"x1,A,50000,8,256,15,2,4\n" +
		"x1,B,50000,8,256,15,2,4\n" +
		",C,50000,8,256,15,2,4\n")
	require.NoError(t, err)

	res := NewExtractor(ExtractorConfig{}, zerolog.Nop()).Extract(table)
	require.Len(t, res.Laptops, 3)
	assert.Equal(t, "x1", res.Laptops[0].ID)
	assert.Equal(t, "x1-3", res.Laptops[1].ID)
	assert.Equal(t, "L0004", res.Laptops[2].ID)
}

func TestEstimateBattery(t *testing.T) {
	tests := []struct {
		name     string
		provided float64
		category model.Category
		screen   float64
		ram      float64
		want     float64
	}{
		{"Provided value wins", 9.5, model.CategoryGaming, 17, 32, 9.5},
		{"Gaming base", 0, model.CategoryGaming, 15.6, 16, 4},
		{"Gaming large and heavy clamps", 0, model.CategoryGaming, 17.3, 32, 3},
		{"Thin and light", 0, model.CategoryThinAndLight, 14, 8, 8},
		{"2-in-1 high RAM", 0, model.CategoryTwoInOne, 13.3, 32, 6.5},
		{"Standard large screen", 0, model.CategoryStandard, 17.3, 8, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, EstimateBattery(tt.provided, tt.category, tt.screen, tt.ram), 1e-9)
		})
	}
}

func TestPerformanceScore(t *testing.T) {
	// Missing inputs: cpu 5, gpu 10/15, ram 2
	assert.InDelta(t, 0.4*5+0.4*(10.0/15)+0.2*2, PerformanceScore(0, 0, 0, model.CategoryStandard), 1e-9)
	// Strong gaming machine is capped at 10
	assert.Equal(t, 10.0, PerformanceScore(1, 300, 64, model.CategoryGaming))
	// Weak machine is floored at 1
	assert.Equal(t, 1.0, PerformanceScore(2000, 1, 2, model.CategoryThinAndLight))
}

func TestExtractBrand(t *testing.T) {
	assert.Equal(t, "Lenovo", ExtractBrand(" lenovo ", "whatever"))
	assert.Equal(t, "MSI", ExtractBrand("", "MSI Katana 15"))
	assert.Equal(t, "Apple", ExtractBrand("", "MacBook Air M2"))
	assert.Equal(t, "Unknown", ExtractBrand("", "Generic Notebook"))
}

func TestSampleCatalog(t *testing.T) {
	laptops := SampleCatalog()
	require.Len(t, laptops, 5)

	assert.Equal(t, "Dell XPS 14 Pro", laptops[0].Name)
	assert.Equal(t, 98000.0, laptops[0].PriceRaw)
	assert.Equal(t, 4.2, laptops[0].Rating)
	assert.Equal(t, "MacBook Pro 13", laptops[4].Name)
	for _, l := range laptops {
		assert.Equal(t, 1.0, l.Confidence)
		assert.Equal(t, l.PriceRaw, l.Features[model.FeaturePrice])
	}
}

func TestXLSXRoundTrip(t *testing.T) {
	rows := GenerateSynthetic(SyntheticConfig{Count: 20, Seed: 3})

	var buf strings.Builder
	require.NoError(t, WriteCSV(&buf, SyntheticHeaders, rows))
	fromCSV, err := NewParser(',').ParseString(buf.String())
	require.NoError(t, err)

	var xbuf bytes.Buffer
	require.NoError(t, WriteXLSX(&xbuf, SyntheticHeaders, rows))
	fromXLSX, err := ParseXLSX(&xbuf)
	require.NoError(t, err)

	assert.Equal(t, fromCSV.Headers, fromXLSX.Headers)
	require.Len(t, fromXLSX.Records, len(fromCSV.Records))
	for i := range fromCSV.Records {
		assert.Equal(t, fromCSV.Records[i].Fields, fromXLSX.Records[i].Fields)
	}
}

func TestParseXLSX_BlankTrailingCells(t *testing.T) {
	headers := strings.Split(catalogHeader, ",")
	rows := [][]string{
		{"Dell Inspiron 15", "Dell", "65000", "8", "512", "15.6", "1.9", "4.1", "", "", "", ""},
		{`HP 14" Pavilion`, "HP", "55000", "8", "256", "14", "1.5", "4.0", "7", "", "", ""},
	}

	var csvBuf strings.Builder
	require.NoError(t, WriteCSV(&csvBuf, headers, rows))
	fromCSV, err := NewParser(',').ParseString(csvBuf.String())
	require.NoError(t, err)

	var xbuf bytes.Buffer
	require.NoError(t, WriteXLSX(&xbuf, headers, rows))
	fromXLSX, err := ParseXLSX(&xbuf)
	require.NoError(t, err)

	assert.Empty(t, fromXLSX.Warnings)
	require.Len(t, fromXLSX.Records, 2)
	for i := range fromCSV.Records {
		assert.Equal(t, fromCSV.Records[i].Fields, fromXLSX.Records[i].Fields)
	}
	assert.Equal(t, "", fromXLSX.Records[0].Get("Type"))
	assert.Equal(t, "HP 14 Pavilion", fromXLSX.Records[1].Get("name"))

	res := NewExtractor(ExtractorConfig{}, zerolog.Nop()).Extract(fromXLSX)
	assert.Len(t, res.Laptops, 2)
}

func TestGenerateSynthetic_Deterministic(t *testing.T) {
	a := GenerateSynthetic(SyntheticConfig{Count: 10, Seed: 42})
	b := GenerateSynthetic(SyntheticConfig{Count: 10, Seed: 42})
	assert.Equal(t, a, b)
	for _, row := range a {
		assert.Len(t, row, len(SyntheticHeaders))
	}
}
