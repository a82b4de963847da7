package service

import (
	"math"
	"sort"

	"laptopadvisor/internal/model"
)

// Match reason constants
const (
	ReasonWithinBudget     = "Within budget"
	ReasonRAMMatch         = "RAM meets requirement"
	ReasonStorageMatch     = "Storage meets requirement"
	ReasonScreenMatch      = "Screen size match"
	ReasonBatteryMatch     = "Battery life match"
	ReasonWeightMatch      = "Weight match"
	ReasonPerformanceMatch = "Performance match"
	ReasonHighlyRated      = "Highly rated"
	ReasonGeneralMatch     = "General match"
)

// Ranking defaults
const (
	DefaultTieEpsilon = 0.05
	// inBudgetBonus is added to the price similarity of laptops at or below budget
	inBudgetBonus = 0.2
	// highRatingThreshold marks a laptop as highly rated
	highRatingThreshold = 4.3
)

// SimilarityWeights weight each feature's similarity, in FeatureVector order
var SimilarityWeights = [model.FeatureCount]float64{0.25, 0.20, 0.15, 0.10, 0.10, 0.10, 0.10}

// featureRules are the per-feature match tests and their weights
var featureRules = [model.FeatureCount]struct {
	weight float64
	reason string
	match  func(query, candidate float64) bool
}{
	{0.3, ReasonWithinBudget, func(q, c float64) bool { return c <= q && c >= 0.5*q }},
	{0.2, ReasonRAMMatch, func(q, c float64) bool { return c >= q }},
	{0.2, ReasonStorageMatch, func(q, c float64) bool { return c >= q }},
	{0.1, ReasonScreenMatch, func(q, c float64) bool { return math.Abs(c-q) <= 1 }},
	{0.1, ReasonBatteryMatch, func(q, c float64) bool { return math.Abs(c-q) <= 2 }},
	{0.05, ReasonWeightMatch, func(q, c float64) bool { return math.Abs(c-q) <= 0.5 }},
	{0.05, ReasonPerformanceMatch, func(q, c float64) bool { return math.Abs(c-q) <= 2 }},
}

// Weights blend the three ranking signals. They should sum to 1.
type Weights struct {
	AI           float64 `json:"ai"`
	Similarity   float64 `json:"similarity"`
	FeatureMatch float64 `json:"feature_match"`
}

// DefaultWeights returns the standard 0.4 / 0.35 / 0.25 blend
func DefaultWeights() Weights {
	return Weights{AI: 0.4, Similarity: 0.35, FeatureMatch: 0.25}
}

// Ranker handles scoring and ranking of candidate laptops
type Ranker struct {
	weights    Weights
	tieEpsilon float64
}

// NewRanker creates a new ranker with specified weights
func NewRanker(weights Weights, tieEpsilon float64) *Ranker {
	return &Ranker{
		weights:    weights,
		tieEpsilon: tieEpsilon,
	}
}

// rawVector is the candidate vector used for heuristics, with the source
// currency price in the price slot
func rawVector(l *model.Laptop) model.FeatureVector {
	v := l.Features
	v[model.FeaturePrice] = l.PriceRaw
	return v
}

// Score builds the scored result for one candidate. aiScore is the predicted
// rating on the 0-5 scale.
func (r *Ranker) Score(query model.FeatureVector, laptop model.Laptop, aiScore float64) model.Recommendation {
	candidate := rawVector(&laptop)
	similarity := r.Similarity(query, candidate)
	featureMatch, reasons := r.featureMatch(query, candidate)

	if laptop.Rating >= highRatingThreshold {
		reasons = append(reasons, ReasonHighlyRated)
	}
	if len(reasons) == 0 {
		reasons = append(reasons, ReasonGeneralMatch)
	}

	return model.Recommendation{
		Laptop:         laptop,
		AIScore:        aiScore,
		Similarity:     similarity,
		FeatureMatch:   featureMatch,
		FinalScore:     r.FinalScore(aiScore, similarity, featureMatch),
		MatchedReasons: reasons,
	}
}

// FinalScore blends the normalized AI score with the heuristics
func (r *Ranker) FinalScore(aiScore, similarity, featureMatch float64) float64 {
	return r.weights.AI*(aiScore/5) +
		r.weights.Similarity*similarity +
		r.weights.FeatureMatch*featureMatch
}

// Similarity computes the weighted per-feature closeness of a candidate to
// the query, in [0, 1]. Laptops at or below budget get a price bonus.
func (r *Ranker) Similarity(query, candidate model.FeatureVector) float64 {
	total := 0.0
	for i := range query {
		var score float64
		if model.Feature(i) == model.FeaturePrice {
			score = PriceSimilarity(query[i], candidate[i])
		} else {
			score = FeatureSimilarity(query[i], candidate[i])
		}
		total += score * SimilarityWeights[i]
	}
	return total
}

// PriceSimilarity scores a candidate price against a budget in [0, 1]
func PriceSimilarity(budget, price float64) float64 {
	score := 1.0
	if denom := math.Max(budget, price); denom > 0 {
		score = math.Max(0, 1-math.Abs(budget-price)/denom)
	}
	if price <= budget {
		score = math.Min(1, score+inBudgetBonus)
	}
	return score
}

// FeatureSimilarity scores the closeness of two non-price feature values in [0, 1]
func FeatureSimilarity(q, c float64) float64 {
	denom := math.Max(math.Max(q, c), 1)
	return math.Max(0, 1-math.Abs(q-c)/denom)
}

// FeatureMatch computes the weighted share of satisfied feature rules
func (r *Ranker) FeatureMatch(query, candidate model.FeatureVector) float64 {
	score, _ := r.featureMatch(query, candidate)
	return score
}

func (r *Ranker) featureMatch(query, candidate model.FeatureVector) (float64, []string) {
	var matched, total float64
	reasons := []string{}
	for i, rule := range featureRules {
		total += rule.weight
		if rule.match(query[i], candidate[i]) {
			matched += rule.weight
			reasons = append(reasons, rule.reason)
		}
	}
	if total == 0 {
		return 0, reasons
	}
	return matched / total, reasons
}

// RankResults sorts results by final score, descending. Scores closer than
// the tie epsilon are ordered by confidence instead; remaining ties keep
// their input order. The comparison is not transitive across chains of
// near-ties, but the stable sort makes the output a pure function of the
// input order. At most k results are returned (all when k <= 0).
func (r *Ranker) RankResults(results []model.Recommendation, k int) []model.Recommendation {
	ranked := make([]model.Recommendation, len(results))
	copy(ranked, results)

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if math.Abs(a.FinalScore-b.FinalScore) < r.tieEpsilon {
			return a.Laptop.Confidence > b.Laptop.Confidence
		}
		return a.FinalScore > b.FinalScore
	})

	if k > 0 && len(ranked) > k {
		ranked = ranked[:k]
	}
	return ranked
}
