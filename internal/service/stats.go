package service

import (
	"math"
	"sort"
	"strconv"

	"laptopadvisor/internal/model"
)

// topBrandCount is the number of brands listed in catalog statistics
const topBrandCount = 10

// CountEntry is one bucket of a distribution
type CountEntry struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// SummaryStats describes a numeric column
type SummaryStats struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
	Avg float64 `json:"avg"`
}

// CatalogStats summarises a catalog
type CatalogStats struct {
	CatalogVersion     int64              `json:"catalog_version"`
	Count              int                `json:"count"`
	Price              SummaryStats       `json:"price"`
	Rating             SummaryStats       `json:"rating"`
	RAMDistribution    []CountEntry       `json:"ram_distribution"`
	ScreenDistribution []CountEntry       `json:"screen_distribution"`
	CategoryCounts     []CountEntry       `json:"category_counts"`
	TopBrands          []CountEntry       `json:"top_brands"`
	AvgConfidence      float64            `json:"avg_confidence"`
	FeatureAverages    map[string]float64 `json:"feature_averages"`
}

// ComputeStats summarises laptops. It returns ErrEmptyCatalog for an empty slice.
func ComputeStats(version int64, laptops []model.Laptop) (*CatalogStats, error) {
	if len(laptops) == 0 {
		return nil, ErrEmptyCatalog
	}

	stats := &CatalogStats{
		CatalogVersion:  version,
		Count:           len(laptops),
		Price:           SummaryStats{Min: math.Inf(1), Max: math.Inf(-1)},
		Rating:          SummaryStats{Min: math.Inf(1), Max: math.Inf(-1)},
		FeatureAverages: make(map[string]float64, model.FeatureCount),
	}

	ram := make(map[string]int)
	screen := make(map[string]int)
	categories := make(map[string]int)
	brands := make(map[string]int)
	var featureSums model.FeatureVector
	var confidence float64

	for _, l := range laptops {
		accumulate(&stats.Price, l.PriceRaw)
		accumulate(&stats.Rating, l.Rating)
		ram[formatNumber(l.Features[model.FeatureRAM])+" GB"]++
		screen[formatNumber(l.Features[model.FeatureScreen])+"\""]++
		categories[l.Category.DisplayName()]++
		brands[l.Brand]++
		confidence += l.Confidence
		for i, v := range l.Features {
			featureSums[i] += v
		}
	}

	n := float64(len(laptops))
	stats.Price.Avg /= n
	stats.Rating.Avg /= n
	stats.AvgConfidence = confidence / n
	for i, sum := range featureSums {
		stats.FeatureAverages[model.Feature(i).String()] = sum / n
	}

	stats.RAMDistribution = sortedCounts(ram, 0)
	stats.ScreenDistribution = sortedCounts(screen, 0)
	stats.CategoryCounts = sortedCounts(categories, 0)
	stats.TopBrands = sortedCounts(brands, topBrandCount)
	return stats, nil
}

// Stats summarises the current catalog
func (s *RecommendationService) Stats() (*CatalogStats, error) {
	c := s.Catalog()
	if c == nil {
		return nil, ErrEmptyCatalog
	}
	return ComputeStats(c.Version, c.Laptops)
}

// accumulate folds v into min/max and a running sum held in Avg
func accumulate(s *SummaryStats, v float64) {
	s.Min = math.Min(s.Min, v)
	s.Max = math.Max(s.Max, v)
	s.Avg += v
}

// sortedCounts orders buckets by count descending, then label, keeping at most limit (all when 0)
func sortedCounts(counts map[string]int, limit int) []CountEntry {
	entries := make([]CountEntry, 0, len(counts))
	for label, count := range counts {
		entries = append(entries, CountEntry{Label: label, Count: count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Label < entries[j].Label
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
