package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"laptopadvisor/internal/ingest"
	"laptopadvisor/internal/model"
)

func TestComputeStats_SampleCatalog(t *testing.T) {
	stats, err := ComputeStats(3, ingest.SampleCatalog())
	require.NoError(t, err)

	assert.Equal(t, int64(3), stats.CatalogVersion)
	assert.Equal(t, 5, stats.Count)
	assert.Equal(t, SummaryStats{Min: 50000, Max: 150000, Avg: 96600}, stats.Price)
	assert.Equal(t, 3.5, stats.Rating.Min)
	assert.Equal(t, 4.5, stats.Rating.Max)
	assert.InDelta(t, 4.06, stats.Rating.Avg, 1e-9)
	assert.InDelta(t, 1.0, stats.AvgConfidence, 1e-12)

	assert.Equal(t, []CountEntry{
		{Label: "16 GB", Count: 2},
		{Label: "8 GB", Count: 2},
		{Label: "32 GB", Count: 1},
	}, stats.RAMDistribution)
	assert.Equal(t, []CountEntry{
		{Label: "Standard", Count: 2},
		{Label: "Thin & Light", Count: 2},
		{Label: "Gaming", Count: 1},
	}, stats.CategoryCounts)

	require.Len(t, stats.TopBrands, 5)
	assert.Equal(t, "ASUS", stats.TopBrands[0].Label)
	assert.Len(t, stats.FeatureAverages, model.FeatureCount)
}

func TestComputeStats_TopBrandsCapped(t *testing.T) {
	brands := []string{"A", "B", "C", "D", "E", "F", "G", "H", "I", "J", "K", "L"}
	laptops := make([]model.Laptop, 0, len(brands)+2)
	for _, b := range brands {
		laptops = append(laptops, model.Laptop{Brand: b, Rating: 4, PriceRaw: 50000})
	}
	laptops = append(laptops, model.Laptop{Brand: "L", Rating: 4, PriceRaw: 50000})

	stats, err := ComputeStats(1, laptops)
	require.NoError(t, err)
	require.Len(t, stats.TopBrands, topBrandCount)
	assert.Equal(t, CountEntry{Label: "L", Count: 2}, stats.TopBrands[0])
	assert.Equal(t, "A", stats.TopBrands[1].Label)
}

func TestComputeStats_Empty(t *testing.T) {
	_, err := ComputeStats(1, nil)
	assert.ErrorIs(t, err, ErrEmptyCatalog)

	s := newTestService(t, nil)
	_, err = s.Stats()
	assert.ErrorIs(t, err, ErrEmptyCatalog)

	_, err = s.LoadLaptops(context.Background(), ingest.SampleCatalog())
	require.NoError(t, err)
	stats, err := s.Stats()
	require.NoError(t, err)
	assert.Equal(t, 5, stats.Count)
}

func TestFormatPrice(t *testing.T) {
	printer := message.NewPrinter(language.English)
	assert.Equal(t, "₹98,000", FormatPrice(printer, 98000))
	assert.Equal(t, "₹1,234,568", FormatPrice(printer, 1234567.6))
	assert.Equal(t, "₹950", FormatPrice(printer, 950))
}

func TestBuildViews(t *testing.T) {
	l := ingest.SampleCatalog()[0]
	views := BuildViews([]model.Recommendation{{
		Laptop:         l,
		AIScore:        4.23456,
		Similarity:     0.91234,
		FeatureMatch:   0.5,
		FinalScore:     0.8,
		MatchedReasons: []string{ReasonWithinBudget},
	}})

	require.Len(t, views, 1)
	v := views[0]
	assert.Equal(t, 1, v.Rank)
	assert.Equal(t, 4.23, v.PredictedRating)
	assert.Equal(t, 91.2, v.SimilarityPct)
	assert.Equal(t, 50.0, v.FeatureMatchPct)
	assert.Equal(t, "Thin & Light", v.Category)
	assert.Equal(t, "₹98,000", v.PriceDisplay)
	assert.Equal(t, 98000.0, v.Features[model.FeaturePrice])
}
