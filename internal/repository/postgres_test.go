package repository

import (
	"testing"

	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"laptopadvisor/internal/ingest"
	"laptopadvisor/internal/model"
)

func TestLaptopRow_RoundTrip(t *testing.T) {
	for _, l := range ingest.SampleCatalog() {
		got, err := toLaptopRow(l).toLaptop()
		require.NoError(t, err)
		assert.Equal(t, l.ID, got.ID)
		assert.Equal(t, l.Category, got.Category)
		assert.Equal(t, l.PriceRaw, got.Features[model.FeaturePrice])
		for i := range l.Features {
			assert.InDelta(t, l.Features[i], got.Features[i], 1e-4, model.Feature(i).String())
		}
	}
}

func TestLaptopRow_WrongDimensions(t *testing.T) {
	row := laptopRow{ID: "x", Features: pgvector.NewVector([]float32{1, 2, 3})}
	_, err := row.toLaptop()
	assert.Error(t, err)
}
