// Package features computes and applies per-feature normalization.
package features

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"laptopadvisor/internal/model"
)

// Strategy selects how features are scaled
type Strategy string

// Supported strategies
const (
	StrategyMinMax Strategy = "minmax"
	StrategyZScore Strategy = "zscore"
)

// Epsilon guards divisions by a zero range or deviation
const Epsilon = 1e-7

var (
	// ErrNoVectors is returned when fitting on an empty set
	ErrNoVectors = errors.New("cannot fit normalization on zero vectors")
	// ErrNonFinite is returned when an input vector contains NaN or Inf
	ErrNonFinite = errors.New("feature vector contains non-finite values")
)

// ParseStrategy parses a strategy name
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case StrategyMinMax, "min-max", "min_max":
		return StrategyMinMax, nil
	case StrategyZScore, "z-score", "standard":
		return StrategyZScore, nil
	default:
		return "", fmt.Errorf("unknown normalization strategy %q", s)
	}
}

// FeatureStat summarises one feature of the fitted set
type FeatureStat struct {
	Feature string  `json:"feature"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Mean    float64 `json:"mean"`
	StdDev  float64 `json:"stddev"`
}

// Params holds the statistics of one fit. It is immutable once returned by Fit.
type Params struct {
	strategy Strategy
	min      model.FeatureVector
	max      model.FeatureVector
	mean     model.FeatureVector
	stddev   model.FeatureVector
	count    int
}

// Fit computes normalization statistics over vectors
func Fit(strategy Strategy, vectors []model.FeatureVector) (*Params, error) {
	if strategy != StrategyMinMax && strategy != StrategyZScore {
		return nil, fmt.Errorf("unknown normalization strategy %q", strategy)
	}
	if len(vectors) == 0 {
		return nil, ErrNoVectors
	}

	p := &Params{strategy: strategy, count: len(vectors)}
	for i := range p.min {
		p.min[i] = math.Inf(1)
		p.max[i] = math.Inf(-1)
	}

	for _, v := range vectors {
		if !v.IsFinite() {
			return nil, ErrNonFinite
		}
		for i, x := range v {
			p.min[i] = math.Min(p.min[i], x)
			p.max[i] = math.Max(p.max[i], x)
			p.mean[i] += x
		}
	}

	n := float64(len(vectors))
	for i := range p.mean {
		p.mean[i] /= n
	}

	// Population standard deviation
	for _, v := range vectors {
		for i, x := range v {
			d := x - p.mean[i]
			p.stddev[i] += d * d
		}
	}
	for i := range p.stddev {
		p.stddev[i] = math.Sqrt(p.stddev[i] / n)
	}

	return p, nil
}

// Strategy returns the strategy the params were fitted for
func (p *Params) Strategy() Strategy {
	return p.strategy
}

// Count returns the number of vectors the params were fitted on
func (p *Params) Count() int {
	return p.count
}

func (p *Params) scale(i int) (offset, divisor float64) {
	if p.strategy == StrategyMinMax {
		width := p.max[i] - p.min[i]
		if width <= 0 {
			width = Epsilon
		}
		return p.min[i], width
	}
	return p.mean[i], p.stddev[i] + Epsilon
}

// Apply normalizes one vector
func (p *Params) Apply(v model.FeatureVector) model.FeatureVector {
	var out model.FeatureVector
	for i, x := range v {
		offset, divisor := p.scale(i)
		out[i] = (x - offset) / divisor
	}
	return out
}

// ApplySlice normalizes a caller-supplied slice, rejecting the wrong length
func (p *Params) ApplySlice(values []float64) ([]float64, error) {
	v, err := model.FeatureVectorFromSlice(values)
	if err != nil {
		return nil, err
	}
	return p.Apply(v).Slice(), nil
}

// ApplyAll normalizes every vector into a new slice
func (p *Params) ApplyAll(vectors []model.FeatureVector) []model.FeatureVector {
	out := make([]model.FeatureVector, len(vectors))
	for i, v := range vectors {
		out[i] = p.Apply(v)
	}
	return out
}

// Denormalize inverts Apply
func (p *Params) Denormalize(v model.FeatureVector) model.FeatureVector {
	var out model.FeatureVector
	for i, x := range v {
		offset, divisor := p.scale(i)
		out[i] = x*divisor + offset
	}
	return out
}

// Stats returns the fitted statistics per feature
func (p *Params) Stats() []FeatureStat {
	stats := make([]FeatureStat, model.FeatureCount)
	for i := range stats {
		stats[i] = FeatureStat{
			Feature: model.Feature(i).String(),
			Min:     p.min[i],
			Max:     p.max[i],
			Mean:    p.mean[i],
			StdDev:  p.stddev[i],
		}
	}
	return stats
}
