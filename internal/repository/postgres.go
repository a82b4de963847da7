package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"laptopadvisor/internal/model"
	"laptopadvisor/internal/service"
)

var _ service.Store = (*PostgresRepository)(nil)

// schema creates the tables used by the store. Feature vectors use the
// pgvector extension so similar laptops can be found by L2 distance.
const schema = `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS catalog_versions (
	version    BIGINT PRIMARY KEY,
	item_count INTEGER NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS laptops (
	catalog_version BIGINT NOT NULL REFERENCES catalog_versions(version) ON DELETE CASCADE,
	id              TEXT NOT NULL,
	position        INTEGER NOT NULL,
	name            TEXT NOT NULL,
	brand           TEXT NOT NULL,
	category        TEXT NOT NULL,
	rating          DOUBLE PRECISION NOT NULL,
	confidence      DOUBLE PRECISION NOT NULL,
	price_raw       DOUBLE PRECISION NOT NULL,
	features        vector(7) NOT NULL,
	embedding       vector(7),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (catalog_version, id)
);

CREATE TABLE IF NOT EXISTS training_runs (
	id              TEXT PRIMARY KEY,
	model_version   BIGINT NOT NULL,
	estimator       TEXT NOT NULL,
	strategy        TEXT NOT NULL,
	train_size      INTEGER NOT NULL,
	validation_size INTEGER NOT NULL,
	final_loss      DOUBLE PRECISION NOT NULL,
	final_val_loss  DOUBLE PRECISION NOT NULL,
	history         JSONB,
	duration_ns     BIGINT NOT NULL,
	trained_at      TIMESTAMPTZ NOT NULL,
	catalog_version BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS recommendation_logs (
	request_id          TEXT PRIMARY KEY,
	query               vector(7) NOT NULL,
	top_k               INTEGER NOT NULL,
	model_version       BIGINT NOT NULL,
	returned_laptop_ids TEXT[] NOT NULL,
	response_time_ms    BIGINT NOT NULL,
	clicked_laptop_id   TEXT,
	action              TEXT,
	created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// PostgresRepository handles database operations
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(dsn string, maxConn, maxIdleConn int) (*PostgresRepository, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(maxConn)
	db.SetMaxIdleConns(maxIdleConn)
	db.SetConnMaxLifetime(5 * time.Minute) // Shorter lifetime to avoid stale connections
	db.SetConnMaxIdleTime(2 * time.Minute)

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{db: db}, nil
}

// Close closes the database connection
func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

// EnsureSchema creates missing tables and the vector extension
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// laptopRow is the stored form of a catalog item
type laptopRow struct {
	ID         string          `db:"id"`
	Name       string          `db:"name"`
	Brand      string          `db:"brand"`
	Category   string          `db:"category"`
	Rating     float64         `db:"rating"`
	Confidence float64         `db:"confidence"`
	PriceRaw   float64         `db:"price_raw"`
	Features   pgvector.Vector `db:"features"`
}

func toLaptopRow(l model.Laptop) laptopRow {
	return laptopRow{
		ID:         l.ID,
		Name:       l.Name,
		Brand:      l.Brand,
		Category:   string(l.Category),
		Rating:     l.Rating,
		Confidence: l.Confidence,
		PriceRaw:   l.PriceRaw,
		Features:   pgvector.NewVector(l.Features.Float32()),
	}
}

func (row laptopRow) toLaptop() (model.Laptop, error) {
	values := row.Features.Slice()
	if len(values) != model.FeatureCount {
		return model.Laptop{}, fmt.Errorf("laptop %s: stored vector has %d dimensions", row.ID, len(values))
	}
	var features model.FeatureVector
	for i, v := range values {
		features[i] = float64(v)
	}
	// float32 storage loses precision on large prices; price_raw is exact
	features[model.FeaturePrice] = row.PriceRaw

	return model.Laptop{
		ID:         row.ID,
		Name:       row.Name,
		Brand:      row.Brand,
		Category:   model.Category(row.Category),
		Features:   features,
		Rating:     row.Rating,
		Confidence: row.Confidence,
		PriceRaw:   row.PriceRaw,
	}, nil
}

// ReplaceCatalog stores a catalog version and drops every older one
func (r *PostgresRepository) ReplaceCatalog(ctx context.Context, version int64, laptops []model.Laptop) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM catalog_versions WHERE version <> $1`, version); err != nil {
		return fmt.Errorf("failed to drop old catalogs: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO catalog_versions (version, item_count) VALUES ($1, $2)
		ON CONFLICT (version) DO UPDATE SET item_count = EXCLUDED.item_count, created_at = NOW()
	`, version, len(laptops)); err != nil {
		return fmt.Errorf("failed to insert catalog version: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM laptops WHERE catalog_version = $1`, version); err != nil {
		return fmt.Errorf("failed to clear catalog: %w", err)
	}

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO laptops (catalog_version, id, position, name, brand, category, rating, confidence, price_raw, features)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for i, l := range laptops {
		row := toLaptopRow(l)
		if _, err := stmt.ExecContext(ctx, version, row.ID, i, row.Name, row.Brand, row.Category,
			row.Rating, row.Confidence, row.PriceRaw, row.Features); err != nil {
			return fmt.Errorf("laptop %s: %w", l.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// LoadCatalog returns the latest stored catalog in its stored order
func (r *PostgresRepository) LoadCatalog(ctx context.Context) (int64, []model.Laptop, error) {
	var version sql.NullInt64
	if err := r.db.GetContext(ctx, &version, `SELECT MAX(version) FROM catalog_versions`); err != nil {
		return 0, nil, fmt.Errorf("failed to get catalog version: %w", err)
	}
	if !version.Valid {
		return 0, nil, nil
	}

	var rows []laptopRow
	query := `
		SELECT id, name, brand, category, rating, confidence, price_raw, features
		FROM laptops
		WHERE catalog_version = $1
		ORDER BY position
	`
	if err := r.db.SelectContext(ctx, &rows, query, version.Int64); err != nil {
		return 0, nil, fmt.Errorf("failed to fetch laptops: %w", err)
	}

	laptops := make([]model.Laptop, 0, len(rows))
	for _, row := range rows {
		l, err := row.toLaptop()
		if err != nil {
			return 0, nil, err
		}
		laptops = append(laptops, l)
	}
	return version.Int64, laptops, nil
}

// SaveTrainingRun records a training run and the normalized vector of each
// catalog item, which backs NearestLaptops
func (r *PostgresRepository) SaveTrainingRun(ctx context.Context, run *model.TrainingRun, normalized map[string]model.FeatureVector) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO training_runs (id, model_version, estimator, strategy, train_size, validation_size,
			final_loss, final_val_loss, history, duration_ns, trained_at, catalog_version)
		VALUES (:id, :model_version, :estimator, :strategy, :train_size, :validation_size,
			:final_loss, :final_val_loss, :history, :duration_ns, :trained_at, :catalog_version)
	`, run)
	if err != nil {
		return fmt.Errorf("failed to insert training run: %w", err)
	}

	stmt, err := tx.PreparexContext(ctx, `
		UPDATE laptops SET embedding = $1, updated_at = NOW()
		WHERE catalog_version = $2 AND id = $3
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for id, v := range normalized {
		if _, err := stmt.ExecContext(ctx, pgvector.NewVector(v.Float32()), run.CatalogVersion, id); err != nil {
			return fmt.Errorf("laptop %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// NearestLaptops returns the IDs of the latest catalog's laptops closest to v
// by L2 distance over normalized vectors
func (r *PostgresRepository) NearestLaptops(ctx context.Context, v model.FeatureVector, excludeID string, limit int) ([]string, error) {
	query := `
		SELECT id
		FROM laptops
		WHERE catalog_version = (SELECT MAX(version) FROM catalog_versions)
			AND embedding IS NOT NULL
			AND id <> $2
		ORDER BY embedding <-> $1, id
		LIMIT $3
	`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, pgvector.NewVector(v.Float32()), excludeID, limit); err != nil {
		return nil, fmt.Errorf("failed to search vectors: %w", err)
	}
	return ids, nil
}

// LogRecommendation logs a served recommendation
func (r *PostgresRepository) LogRecommendation(ctx context.Context, entry *model.RecommendationLog) error {
	logQuery := `
		INSERT INTO recommendation_logs (request_id, query, top_k, model_version, returned_laptop_ids, response_time_ms)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, logQuery, entry.RequestID, pgvector.NewVector(entry.Query.Float32()),
		entry.TopK, entry.ModelVersion, pq.Array(entry.LaptopIDs), entry.ResponseMS)
	if err != nil {
		return fmt.Errorf("failed to log recommendation: %w", err)
	}
	return nil
}

// LogFeedback logs user feedback/action
func (r *PostgresRepository) LogFeedback(ctx context.Context, requestID, laptopID, action string) error {
	query := `
		UPDATE recommendation_logs
		SET clicked_laptop_id = $2, action = $3
		WHERE request_id = $1
	`
	res, err := r.db.ExecContext(ctx, query, requestID, laptopID, action)
	if err != nil {
		return fmt.Errorf("failed to log feedback: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", service.ErrUnknownRequest, requestID)
	}
	return nil
}
