package features

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"laptopadvisor/internal/model"
)

var sampleVectors = []model.FeatureVector{
	{98000, 16, 512, 14, 8, 1.8, 8.5},
	{65000, 8, 256, 15.6, 6, 2.1, 6.5},
	{150000, 32, 1024, 16, 6, 2.8, 9.5},
	{50000, 8, 256, 15.6, 8, 2.2, 5.5},
	{120000, 16, 512, 13.3, 10, 1.4, 8.8},
}

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		input   string
		want    Strategy
		wantErr bool
	}{
		{"minmax", StrategyMinMax, false},
		{"Min-Max", StrategyMinMax, false},
		{"zscore", StrategyZScore, false},
		{" standard ", StrategyZScore, false},
		{"log", "", true},
	}

	for _, tt := range tests {
		got, err := ParseStrategy(tt.input)
		if tt.wantErr {
			assert.Error(t, err, tt.input)
			continue
		}
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.want, got)
	}
}

func TestFit_Errors(t *testing.T) {
	_, err := Fit(StrategyMinMax, nil)
	assert.ErrorIs(t, err, ErrNoVectors)

	_, err = Fit(StrategyZScore, []model.FeatureVector{{math.NaN(), 1, 1, 1, 1, 1, 1}})
	assert.ErrorIs(t, err, ErrNonFinite)

	_, err = Fit(Strategy("log"), sampleVectors)
	assert.Error(t, err)
}

func TestMinMax_UnitInterval(t *testing.T) {
	p, err := Fit(StrategyMinMax, sampleVectors)
	require.NoError(t, err)
	assert.Equal(t, StrategyMinMax, p.Strategy())
	assert.Equal(t, 5, p.Count())

	for _, v := range p.ApplyAll(sampleVectors) {
		for i, x := range v {
			assert.GreaterOrEqual(t, x, 0.0, model.Feature(i).String())
			assert.LessOrEqual(t, x, 1.0, model.Feature(i).String())
		}
	}

	n := p.Apply(sampleVectors[2])
	assert.InDelta(t, 1.0, n[model.FeaturePrice], 1e-12)
	assert.InDelta(t, 1.0, n[model.FeatureRAM], 1e-12)
}

func TestMinMax_RoundTrip(t *testing.T) {
	p, err := Fit(StrategyMinMax, sampleVectors)
	require.NoError(t, err)

	probes := append([]model.FeatureVector{{75000, 12, 384, 14.5, 7, 2, 7}}, sampleVectors...)
	for _, v := range probes {
		back := p.Denormalize(p.Apply(v))
		for i := range v {
			assert.InDelta(t, v[i], back[i], 1e-6*math.Max(1, math.Abs(v[i])))
		}
	}
}

func TestMinMax_ConstantFeatureStaysFinite(t *testing.T) {
	vectors := []model.FeatureVector{
		{50000, 8, 256, 15.6, 6, 2, 5},
		{60000, 8, 512, 15.6, 6, 2, 6},
	}
	p, err := Fit(StrategyMinMax, vectors)
	require.NoError(t, err)

	out := p.Apply(model.FeatureVector{55000, 8, 300, 15.6, 6, 2, 5.5})
	assert.True(t, out.IsFinite())
	assert.Equal(t, 0.0, out[model.FeatureRAM])
	assert.InDelta(t, 0.5, out[model.FeaturePrice], 1e-12)
}

func TestZScore_MeanAndDeviation(t *testing.T) {
	p, err := Fit(StrategyZScore, sampleVectors)
	require.NoError(t, err)

	normalized := p.ApplyAll(sampleVectors)
	for i := 0; i < model.FeatureCount; i++ {
		var sum, sq float64
		for _, v := range normalized {
			sum += v[i]
			sq += v[i] * v[i]
		}
		mean := sum / float64(len(normalized))
		assert.InDelta(t, 0, mean, 1e-9)
		assert.InDelta(t, 1, math.Sqrt(sq/float64(len(normalized))), 1e-4)
	}

	stats := p.Stats()
	require.Len(t, stats, model.FeatureCount)
	assert.Equal(t, "price", stats[0].Feature)
	assert.InDelta(t, 96600, stats[0].Mean, 1e-9)
	assert.Equal(t, 50000.0, stats[0].Min)
	assert.Equal(t, 150000.0, stats[0].Max)
}

func TestApplySlice_WrongLength(t *testing.T) {
	p, err := Fit(StrategyZScore, sampleVectors)
	require.NoError(t, err)

	_, err = p.ApplySlice([]float64{1, 2, 3})
	assert.Error(t, err)

	out, err := p.ApplySlice(sampleVectors[0].Slice())
	require.NoError(t, err)
	assert.Len(t, out, model.FeatureCount)
}
