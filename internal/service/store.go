package service

import (
	"context"

	"laptopadvisor/internal/model"
)

// Store persists catalogs, training runs and request logs. The service works
// without one; a nil Store disables persistence.
type Store interface {
	// ReplaceCatalog stores a catalog snapshot under its version, replacing the previous one
	ReplaceCatalog(ctx context.Context, version int64, laptops []model.Laptop) error
	// LoadCatalog returns the latest stored catalog, or version 0 when none exists
	LoadCatalog(ctx context.Context) (int64, []model.Laptop, error)
	// SaveTrainingRun records a run and the normalized vector of every catalog item
	SaveTrainingRun(ctx context.Context, run *model.TrainingRun, normalized map[string]model.FeatureVector) error
	// NearestLaptops returns IDs ordered by vector distance to v, excluding excludeID
	NearestLaptops(ctx context.Context, v model.FeatureVector, excludeID string, limit int) ([]string, error)
	// LogRecommendation records a served recommendation
	LogRecommendation(ctx context.Context, entry *model.RecommendationLog) error
	// LogFeedback records a user action on a recommended laptop
	LogFeedback(ctx context.Context, requestID, laptopID, action string) error
}
