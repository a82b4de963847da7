package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"laptopadvisor/internal/features"
	"laptopadvisor/internal/service"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 5, cfg.Ranking.DefaultTopK)
	assert.Equal(t, "mlp", cfg.Training.Estimator)
	assert.Equal(t, 2*time.Minute, cfg.Training.Timeout)
	assert.True(t, cfg.Catalog.SampleFallback)

	svc := cfg.Service()
	assert.Equal(t, service.DefaultWeights(), svc.Weights)
	assert.Equal(t, features.StrategyZScore, svc.Strategy)
	assert.Equal(t, ',', svc.Delimiter)
	assert.Equal(t, 600, svc.TrainingLimit)
	assert.Equal(t, 200, svc.CandidateLimit)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/laptops")
	t.Setenv("TRAIN_ESTIMATOR", "linear")
	t.Setenv("TRAIN_TIMEOUT", "30s")
	t.Setenv("CATALOG_DELIMITER", ";")
	t.Setenv("RANK_WEIGHT_AI", "0.5")
	t.Setenv("RANK_WEIGHT_SIMILARITY", "0.3")
	t.Setenv("RANK_WEIGHT_FEATURE_MATCH", "0.2")
	t.Setenv("RANK_WORKERS", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.PostgreSQL.Enabled)
	assert.Equal(t, "postgres://u:p@db:5432/laptops", cfg.GetPostgreSQLDSN())
	assert.Equal(t, 30*time.Second, cfg.Training.Timeout)
	assert.Equal(t, 4, cfg.Ranking.Workers)

	svc := cfg.Service()
	assert.Equal(t, "linear", svc.Estimator.Kind)
	assert.Equal(t, ';', svc.Delimiter)
	assert.Equal(t, service.Weights{AI: 0.5, Similarity: 0.3, FeatureMatch: 0.2}, svc.Weights)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"Unknown estimator", "TRAIN_ESTIMATOR", "forest"},
		{"Unknown strategy", "TRAIN_STRATEGY", "robust"},
		{"Weights do not sum to one", "RANK_WEIGHT_AI", "0.9"},
		{"Weight above one", "RANK_WEIGHT_SIMILARITY", "1.5"},
		{"Multi-character delimiter", "CATALOG_DELIMITER", "||"},
		{"Max top k below default", "RANK_MAX_TOP_K", "2"},
		{"Validation split of one", "TRAIN_VALIDATION_SPLIT", "1"},
		{"Unknown log format", "LOG_FORMAT", "xml"},
		{"Unknown catalog format", "CATALOG_FORMAT", "parquet"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestConfig_GetPostgreSQLDSN(t *testing.T) {
	cfg := &Config{PostgreSQL: PostgreSQLConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "secret",
		Database: "laptop_advisor",
		SSLMode:  "disable",
	}}
	assert.Equal(t, "host=localhost port=5432 user=postgres password=secret dbname=laptop_advisor sslmode=disable", cfg.GetPostgreSQLDSN())
}

func TestConfig_CatalogFormat(t *testing.T) {
	tests := []struct {
		path   string
		format string
		want   service.Format
	}{
		{"data/laptops.csv", "", service.FormatCSV},
		{"data/Laptops.XLSX", "", service.FormatXLSX},
		{"data/export.txt", "xlsx", service.FormatXLSX},
	}

	for _, tt := range tests {
		cfg := &Config{Catalog: CatalogConfig{Path: tt.path, Format: tt.format}}
		assert.Equal(t, tt.want, cfg.CatalogFormat(), tt.path)
	}
}
