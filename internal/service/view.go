package service

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"laptopadvisor/internal/model"
)

// BuildViews converts ranked results into their presentation form
func BuildViews(ranked []model.Recommendation) []model.RecommendationView {
	printer := message.NewPrinter(language.English)

	views := make([]model.RecommendationView, len(ranked))
	for i, r := range ranked {
		views[i] = model.RecommendationView{
			Rank:            i + 1,
			ID:              r.Laptop.ID,
			Name:            r.Laptop.Name,
			Brand:           r.Laptop.Brand,
			Category:        r.Laptop.Category.DisplayName(),
			FinalScore:      r.FinalScore,
			PredictedRating: round(r.AIScore, 2),
			ActualRating:    r.Laptop.Rating,
			SimilarityPct:   round(r.Similarity*100, 1),
			FeatureMatchPct: round(r.FeatureMatch*100, 1),
			Price:           r.Laptop.PriceRaw,
			PriceDisplay:    FormatPrice(printer, r.Laptop.PriceRaw),
			Features:        rawVector(&r.Laptop),
			MatchedReasons:  r.MatchedReasons,
		}
	}
	return views
}

// FormatPrice renders a source-currency price with digit grouping, e.g. ₹98,000
func FormatPrice(printer *message.Printer, price float64) string {
	return printer.Sprintf("₹%d", int64(math.Round(price)))
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
