package ingest

import (
	"fmt"

	"laptopadvisor/internal/model"
)

// sampleRows are price, RAM, storage, screen, battery, weight, performance, rating
var sampleRows = []struct {
	name     string
	brand    string
	category model.Category
	values   [model.FeatureCount + 1]float64
}{
	{"Dell XPS 14 Pro", "Dell", model.CategoryThinAndLight, [8]float64{98000, 16, 512, 14, 8, 1.8, 8.5, 4.2}},
	{"HP Pavilion 15", "HP", model.CategoryStandard, [8]float64{65000, 8, 256, 15.6, 6, 2.1, 6.5, 3.8}},
	{"ASUS ROG Gaming", "ASUS", model.CategoryGaming, [8]float64{150000, 32, 1024, 16, 6, 2.8, 9.5, 4.5}},
	{"Lenovo IdeaPad", "Lenovo", model.CategoryStandard, [8]float64{50000, 8, 256, 15.6, 8, 2.2, 5.5, 3.5}},
	{"MacBook Pro 13", "Apple", model.CategoryThinAndLight, [8]float64{120000, 16, 512, 13.3, 10, 1.4, 8.8, 4.3}},
}

// SampleCatalog returns the built-in fallback catalog used when no catalog
// file can be loaded. Every sample has confidence 1.
func SampleCatalog() []model.Laptop {
	laptops := make([]model.Laptop, 0, len(sampleRows))
	for i, row := range sampleRows {
		var features model.FeatureVector
		copy(features[:], row.values[:model.FeatureCount])

		laptops = append(laptops, model.Laptop{
			ID:         fmt.Sprintf("S%04d", i+1),
			Name:       row.name,
			Brand:      row.brand,
			Category:   row.category,
			Features:   features,
			Rating:     row.values[model.FeatureCount],
			Confidence: 1.0,
			PriceRaw:   row.values[model.FeaturePrice],
		})
	}
	return laptops
}
