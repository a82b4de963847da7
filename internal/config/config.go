package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"laptopadvisor/internal/estimator"
	"laptopadvisor/internal/features"
	"laptopadvisor/internal/ingest"
	"laptopadvisor/internal/service"
)

// Config holds all configuration for the application
type Config struct {
	PostgreSQL PostgreSQLConfig
	Server     ServerConfig
	Catalog    CatalogConfig
	Training   TrainingConfig
	Ranking    RankingConfig
	Cache      CacheConfig
	RateLimit  RateLimitConfig
	Logging    LoggingConfig
}

// PostgreSQLConfig holds PostgreSQL database configuration. Persistence is
// disabled unless a DSN is given or PG_ENABLED is set.
type PostgreSQLConfig struct {
	Enabled            bool
	DSN                string
	Host               string
	Port               int `validate:"min=1,max=65535"`
	User               string
	Password           string
	Database           string
	SSLMode            string
	MaxConnections     int `validate:"min=1"`
	MaxIdleConnections int `validate:"min=0"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            int `validate:"min=1,max=65535"`
	Host            string
	GinMode         string `validate:"oneof=debug release test"`
	AllowedOrigins  string
	AllowedMethods  string
	AllowedHeaders  string
	ShutdownTimeout time.Duration `validate:"gt=0"`
	MaxUploadBytes  int64         `validate:"gt=0"`
}

// CatalogConfig holds catalog loading configuration
type CatalogConfig struct {
	Path      string
	Format    string `validate:"omitempty,oneof=csv xlsx"`
	Delimiter string `validate:"len=1"`
	MaxItems  int    `validate:"min=0"`
	// SampleFallback loads the built-in sample catalog when Path cannot be read
	SampleFallback bool
	NameMaxRunes   int `validate:"min=1"`
}

// TrainingConfig holds estimator and normalization configuration
type TrainingConfig struct {
	Estimator       string  `validate:"oneof=mlp linear"`
	Strategy        string  `validate:"oneof=minmax zscore"`
	Epochs          int     `validate:"min=1"`
	BatchSize       int     `validate:"min=1"`
	LearningRate    float64 `validate:"gt=0"`
	Momentum        float64 `validate:"min=0,lt=1"`
	L2              float64 `validate:"min=0"`
	HiddenUnits     int     `validate:"min=1"`
	ValidationSplit float64 `validate:"min=0,lt=1"`
	Seed            int64
	Limit           int           `validate:"min=0"`
	Timeout         time.Duration `validate:"gt=0"`
	OnStart         bool
}

// RankingConfig holds ranking weights configuration
type RankingConfig struct {
	WeightAI           float64 `validate:"min=0,max=1"`
	WeightSimilarity   float64 `validate:"min=0,max=1"`
	WeightFeatureMatch float64 `validate:"min=0,max=1"`
	TieEpsilon         float64 `validate:"min=0,max=1"`
	DefaultTopK        int     `validate:"min=1"`
	MaxTopK            int     `validate:"gtefield=DefaultTopK"`
	CandidateLimit     int     `validate:"min=0"`
	Workers            int     `validate:"min=1"`
}

// CacheConfig holds response cache configuration
type CacheConfig struct {
	TTL     time.Duration `validate:"gt=0"`
	Cleanup time.Duration `validate:"gt=0"`
}

// RateLimitConfig holds per-process request limits
type RateLimitConfig struct {
	RecommendRPS   float64 `validate:"min=0"`
	RecommendBurst int     `validate:"min=1"`
	TrainRPS       float64 `validate:"min=0"`
	TrainBurst     int     `validate:"min=1"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string `validate:"oneof=json console"`
}

// weightSumTolerance is how far the ranking weights may drift from summing to 1
const weightSumTolerance = 1e-6

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (optional)
	_ = godotenv.Load()

	dsn := getEnv("DATABASE_URL", getEnv("POSTGRESQL_URI", getEnv("PG_DSN", "")))

	cfg := &Config{
		PostgreSQL: PostgreSQLConfig{
			Enabled:            dsn != "" || getEnvAsBool("PG_ENABLED", false),
			DSN:                dsn,
			Host:               getEnv("PG_HOST", "localhost"),
			Port:               getEnvAsInt("PG_PORT", 5432),
			User:               getEnv("PG_USER", "postgres"),
			Password:           getEnv("PG_PASSWORD", ""),
			Database:           getEnv("PG_DATABASE", "laptop_advisor"),
			SSLMode:            getEnv("PG_SSLMODE", "disable"),
			MaxConnections:     getEnvAsInt("PG_MAX_CONNECTIONS", 25),
			MaxIdleConnections: getEnvAsInt("PG_MAX_IDLE_CONNECTIONS", 5),
		},
		Server: ServerConfig{
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			GinMode:         getEnv("GIN_MODE", "release"),
			AllowedOrigins:  getEnv("CORS_ALLOWED_ORIGINS", "*"),
			AllowedMethods:  getEnv("CORS_ALLOWED_METHODS", "GET,POST,PUT,DELETE,OPTIONS"),
			AllowedHeaders:  getEnv("CORS_ALLOWED_HEADERS", "Content-Type,Authorization"),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 15*time.Second),
			MaxUploadBytes:  int64(getEnvAsInt("SERVER_MAX_UPLOAD_BYTES", 32<<20)),
		},
		Catalog: CatalogConfig{
			Path:           getEnv("CATALOG_PATH", "data/laptops.csv"),
			Format:         getEnv("CATALOG_FORMAT", ""),
			Delimiter:      getEnv("CATALOG_DELIMITER", ","),
			MaxItems:       getEnvAsInt("CATALOG_MAX_ITEMS", ingest.DefaultMaxItems),
			SampleFallback: getEnvAsBool("CATALOG_SAMPLE_FALLBACK", true),
			NameMaxRunes:   getEnvAsInt("CATALOG_NAME_MAX_RUNES", ingest.DefaultNameMaxRunes),
		},
		Training: TrainingConfig{
			Estimator:       getEnv("TRAIN_ESTIMATOR", estimator.KindMLP),
			Strategy:        getEnv("TRAIN_STRATEGY", string(features.StrategyZScore)),
			Epochs:          getEnvAsInt("TRAIN_EPOCHS", 200),
			BatchSize:       getEnvAsInt("TRAIN_BATCH_SIZE", 32),
			LearningRate:    getEnvAsFloat("TRAIN_LEARNING_RATE", 0.05),
			Momentum:        getEnvAsFloat("TRAIN_MOMENTUM", 0.9),
			L2:              getEnvAsFloat("TRAIN_L2", 0.001),
			HiddenUnits:     getEnvAsInt("TRAIN_HIDDEN_UNITS", 32),
			ValidationSplit: getEnvAsFloat("TRAIN_VALIDATION_SPLIT", 0.2),
			Seed:            int64(getEnvAsInt("TRAIN_SEED", 42)),
			Limit:           getEnvAsInt("TRAIN_LIMIT", 600),
			Timeout:         getEnvAsDuration("TRAIN_TIMEOUT", 2*time.Minute),
			OnStart:         getEnvAsBool("TRAIN_ON_START", true),
		},
		Ranking: RankingConfig{
			WeightAI:           getEnvAsFloat("RANK_WEIGHT_AI", 0.4),
			WeightSimilarity:   getEnvAsFloat("RANK_WEIGHT_SIMILARITY", 0.35),
			WeightFeatureMatch: getEnvAsFloat("RANK_WEIGHT_FEATURE_MATCH", 0.25),
			TieEpsilon:         getEnvAsFloat("RANK_TIE_EPSILON", service.DefaultTieEpsilon),
			DefaultTopK:        getEnvAsInt("RANK_DEFAULT_TOP_K", 5),
			MaxTopK:            getEnvAsInt("RANK_MAX_TOP_K", 50),
			CandidateLimit:     getEnvAsInt("RANK_CANDIDATE_LIMIT", 200),
			Workers:            getEnvAsInt("RANK_WORKERS", 4),
		},
		Cache: CacheConfig{
			TTL:     getEnvAsDuration("CACHE_TTL", 10*time.Minute),
			Cleanup: getEnvAsDuration("CACHE_CLEANUP", time.Minute),
		},
		RateLimit: RateLimitConfig{
			RecommendRPS:   getEnvAsFloat("RATE_LIMIT_RECOMMEND_RPS", 20),
			RecommendBurst: getEnvAsInt("RATE_LIMIT_RECOMMEND_BURST", 40),
			TrainRPS:       getEnvAsFloat("RATE_LIMIT_TRAIN_RPS", 0.2),
			TrainBurst:     getEnvAsInt("RATE_LIMIT_TRAIN_BURST", 1),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field ranges and cross-field constraints
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	sum := c.Ranking.WeightAI + c.Ranking.WeightSimilarity + c.Ranking.WeightFeatureMatch
	if math.Abs(sum-1) > weightSumTolerance {
		return fmt.Errorf("invalid configuration: ranking weights sum to %g, want 1", sum)
	}
	return nil
}

// GetPostgreSQLDSN returns PostgreSQL connection string
func (c *Config) GetPostgreSQLDSN() string {
	if c.PostgreSQL.DSN != "" {
		return c.PostgreSQL.DSN
	}

	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgreSQL.Host,
		c.PostgreSQL.Port,
		c.PostgreSQL.User,
		c.PostgreSQL.Password,
		c.PostgreSQL.Database,
		c.PostgreSQL.SSLMode,
	)
}

// CatalogFormat returns the configured catalog format, falling back to the
// file extension
func (c *Config) CatalogFormat() service.Format {
	if c.Catalog.Format != "" {
		return service.Format(c.Catalog.Format)
	}
	if strings.HasSuffix(strings.ToLower(c.Catalog.Path), ".xlsx") {
		return service.FormatXLSX
	}
	return service.FormatCSV
}

// Service builds the recommendation service settings
func (c *Config) Service() service.Config {
	delimiter, _ := utf8.DecodeRuneInString(c.Catalog.Delimiter)

	return service.Config{
		DefaultTopK:    c.Ranking.DefaultTopK,
		MaxTopK:        c.Ranking.MaxTopK,
		CandidateLimit: c.Ranking.CandidateLimit,
		TrainingLimit:  c.Training.Limit,
		Strategy:       features.Strategy(c.Training.Strategy),
		Estimator: estimator.Config{
			Kind:            c.Training.Estimator,
			Epochs:          c.Training.Epochs,
			BatchSize:       c.Training.BatchSize,
			LearningRate:    c.Training.LearningRate,
			Momentum:        c.Training.Momentum,
			L2:              c.Training.L2,
			HiddenUnits:     c.Training.HiddenUnits,
			ValidationSplit: c.Training.ValidationSplit,
			Seed:            c.Training.Seed,
			LogEvery:        25,
		},
		TrainTimeout: c.Training.Timeout,
		Workers:      c.Ranking.Workers,
		Weights: service.Weights{
			AI:           c.Ranking.WeightAI,
			Similarity:   c.Ranking.WeightSimilarity,
			FeatureMatch: c.Ranking.WeightFeatureMatch,
		},
		TieEpsilon:   c.Ranking.TieEpsilon,
		CacheTTL:     c.Cache.TTL,
		CacheCleanup: c.Cache.Cleanup,
		Extractor: ingest.ExtractorConfig{
			MaxItems:     c.Catalog.MaxItems,
			NameMaxRunes: c.Catalog.NameMaxRunes,
		},
		Delimiter: delimiter,
	}
}

// Helper functions

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Warn().Str("key", key).Int("default", defaultValue).Msg("invalid integer value, using default")
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Warn().Str("key", key).Float64("default", defaultValue).Msg("invalid float value, using default")
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Warn().Str("key", key).Bool("default", defaultValue).Msg("invalid boolean value, using default")
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Warn().Str("key", key).Dur("default", defaultValue).Msg("invalid duration value, using default")
		return defaultValue
	}
	return value
}
