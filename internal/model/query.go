package model

import "time"

// RecommendRequest represents a recommendation query
type RecommendRequest struct {
	// Query is the 7-feature preference vector in FeatureVector order
	Query []float64 `json:"query" binding:"required"`
	TopK  int       `json:"top_k"`
}

// Recommendation is one scored candidate. It is never modified after creation.
type Recommendation struct {
	Laptop         Laptop   `json:"laptop"`
	AIScore        float64  `json:"ai_score"`
	Similarity     float64  `json:"similarity"`
	FeatureMatch   float64  `json:"feature_match"`
	FinalScore     float64  `json:"final_score"`
	MatchedReasons []string `json:"matched_reasons"`
}

// RecommendationView is the presentation-ready form of a Recommendation
type RecommendationView struct {
	Rank            int           `json:"rank"`
	ID              string        `json:"id"`
	Name            string        `json:"name"`
	Brand           string        `json:"brand"`
	Category        string        `json:"category"`
	FinalScore      float64       `json:"final_score"`
	PredictedRating float64       `json:"predicted_rating"`
	ActualRating    float64       `json:"actual_rating"`
	SimilarityPct   float64       `json:"similarity_pct"`
	FeatureMatchPct float64       `json:"feature_match_pct"`
	Price           float64       `json:"price"`
	PriceDisplay    string        `json:"price_display"`
	Features        FeatureVector `json:"features"`
	MatchedReasons  []string      `json:"matched_reasons"`
}

// RecommendResponse represents a recommendation response
type RecommendResponse struct {
	RequestID      string               `json:"request_id"`
	Results        []RecommendationView `json:"results"`
	Candidates     int                  `json:"candidates"`
	ModelVersion   int64                `json:"model_version"`
	CacheHit       bool                 `json:"cache_hit"`
	Took           int64                `json:"took_ms"`
	GeneratedAt    time.Time            `json:"generated_at"`
	CatalogVersion int64                `json:"catalog_version"`
}

// IngestResponse summarises a catalog ingestion
type IngestResponse struct {
	CatalogVersion int64          `json:"catalog_version"`
	TotalRows      int            `json:"total_rows"`
	Accepted       int            `json:"accepted"`
	Rejected       int            `json:"rejected"`
	Kept           int            `json:"kept"`
	Warnings       []ParseWarning `json:"warnings,omitempty"`
	RejectedBy     map[string]int `json:"rejected_by,omitempty"`
	State          string         `json:"state"`
	Took           int64          `json:"took_ms"`
}

// ParseWarning describes a source row that was skipped by the parser
type ParseWarning struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// ServiceStatus reports the recommendation service's state machine and model
type ServiceStatus struct {
	State                  string       `json:"state"`
	IsTraining             bool         `json:"is_training"`
	CatalogSize            int          `json:"catalog_size"`
	CatalogVersion         int64        `json:"catalog_version"`
	ModelVersion           int64        `json:"model_version"`
	Estimator              string       `json:"estimator,omitempty"`
	Strategy               string       `json:"strategy,omitempty"`
	TrainedAt              *time.Time   `json:"trained_at,omitempty"`
	LastError              string       `json:"last_error,omitempty"`
	LastTrainingDurationMS int64        `json:"last_training_duration_ms"`
	Training               *TrainingRun `json:"training,omitempty"`
}

// SimilarResponse lists laptops close to a reference laptop
type SimilarResponse struct {
	Laptop  Laptop   `json:"laptop"`
	Similar []Laptop `json:"similar"`
}

// FeedbackRequest represents user feedback on a recommendation
type FeedbackRequest struct {
	RequestID string `json:"request_id" binding:"required"`
	LaptopID  string `json:"laptop_id" binding:"required"`
	Action    string `json:"action" binding:"required"` // click, compare, add_to_cart
}

// FeedbackResponse represents feedback response
type FeedbackResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// RecommendationLog is persisted for every served recommendation request
type RecommendationLog struct {
	RequestID    string        `db:"request_id"`
	Query        FeatureVector `db:"-"`
	TopK         int           `db:"top_k"`
	ModelVersion int64         `db:"model_version"`
	LaptopIDs    []string      `db:"-"`
	ResponseMS   int64         `db:"response_time_ms"`
}
