package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// FeatureCount is the fixed length of every feature vector
const FeatureCount = 7

// Feature indexes a slot of a FeatureVector
type Feature int

// Feature slots, in vector order
const (
	FeaturePrice Feature = iota
	FeatureRAM
	FeatureStorage
	FeatureScreen
	FeatureBattery
	FeatureWeight
	FeaturePerformance
)

var featureNames = [FeatureCount]string{
	"price", "ram_gb", "storage_gb", "screen_inches", "battery_hours", "weight_kg", "performance",
}

// String returns the feature's wire name
func (f Feature) String() string {
	if f < 0 || int(f) >= FeatureCount {
		return fmt.Sprintf("feature(%d)", int(f))
	}
	return featureNames[f]
}

// FeatureVector is the ordered tuple (price, RAM, storage, screen, battery, weight, performance)
type FeatureVector [FeatureCount]float64

// FeatureVectorFromSlice converts a caller-supplied slice, checking its length
func FeatureVectorFromSlice(values []float64) (FeatureVector, error) {
	var v FeatureVector
	if len(values) != FeatureCount {
		return v, fmt.Errorf("expected %d features, got %d", FeatureCount, len(values))
	}
	copy(v[:], values)
	return v, nil
}

// Slice returns a copy of the vector as a slice
func (v FeatureVector) Slice() []float64 {
	out := make([]float64, FeatureCount)
	copy(out, v[:])
	return out
}

// Float32 returns the vector as float32 values (pgvector representation)
func (v FeatureVector) Float32() []float32 {
	out := make([]float32, FeatureCount)
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}

// IsFinite reports whether every entry is a finite number
func (v FeatureVector) IsFinite() bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// Category is the laptop form factor
type Category string

// Supported categories
const (
	CategoryGaming       Category = "Gaming"
	CategoryThinAndLight Category = "ThinAndLight"
	CategoryTwoInOne     Category = "TwoInOne"
	CategoryStandard     Category = "Standard"
)

// DisplayName returns the human-readable category label
func (c Category) DisplayName() string {
	switch c {
	case CategoryGaming:
		return "Gaming"
	case CategoryThinAndLight:
		return "Thin & Light"
	case CategoryTwoInOne:
		return "2-in-1"
	default:
		return "Standard"
	}
}

// BaseBatteryHours is the battery estimate used when a record has none
func (c Category) BaseBatteryHours() float64 {
	switch c {
	case CategoryGaming:
		return 4
	case CategoryThinAndLight:
		return 8
	case CategoryTwoInOne:
		return 7
	default:
		return 6
	}
}

// PerformanceBonus is the multiplier applied to the blended performance score
func (c Category) PerformanceBonus() float64 {
	switch c {
	case CategoryGaming:
		return 1.3
	case CategoryThinAndLight:
		return 0.9
	case CategoryTwoInOne:
		return 1.1
	default:
		return 1.0
	}
}

// Range is a closed numeric interval, optionally open at the lower end
type Range struct {
	Min          float64 `json:"min"`
	Max          float64 `json:"max"`
	MinExclusive bool    `json:"min_exclusive,omitempty"`
}

// Contains reports whether x lies inside the range
func (r Range) Contains(x float64) bool {
	if math.IsNaN(x) || x > r.Max {
		return false
	}
	if r.MinExclusive {
		return x > r.Min
	}
	return x >= r.Min
}

// Validated domain ranges for catalog records
var (
	PriceRange   = Range{Min: 10000, Max: 500000, MinExclusive: true}
	RAMRange     = Range{Min: 2, Max: 64}
	StorageRange = Range{Min: 64, Max: 4096}
	ScreenRange  = Range{Min: 10, Max: 18}
	WeightRange  = Range{Min: 0.5, Max: 5}
	RatingRange  = Range{Min: 0, Max: 5, MinExclusive: true}

	BatteryRange     = Range{Min: 3, Max: 12}
	PerformanceRange = Range{Min: 1, Max: 10}
)

// Laptop is a validated catalog item. It is never modified after ingestion.
type Laptop struct {
	ID         string        `json:"id" db:"id"`
	Name       string        `json:"name" db:"name"`
	Brand      string        `json:"brand" db:"brand"`
	Category   Category      `json:"category" db:"category"`
	Features   FeatureVector `json:"features" db:"-"`
	Rating     float64       `json:"rating" db:"rating"`
	Confidence float64       `json:"confidence" db:"confidence"`
	PriceRaw   float64       `json:"price" db:"price_raw"`
}

// Feature returns the value of one slot of the laptop's feature vector
func (l *Laptop) Feature(f Feature) float64 {
	return l.Features[f]
}

// TrainingRun records one completed training pass
type TrainingRun struct {
	ID              string        `json:"id" db:"id"`
	ModelVersion    int64         `json:"model_version" db:"model_version"`
	Estimator       string        `json:"estimator" db:"estimator"`
	Strategy        string        `json:"strategy" db:"strategy"`
	TrainSize       int           `json:"train_size" db:"train_size"`
	ValidationSize  int           `json:"validation_size" db:"validation_size"`
	FinalLoss       float64       `json:"final_loss" db:"final_loss"`
	FinalValLoss    float64       `json:"final_val_loss" db:"final_val_loss"`
	History         LossHistory   `json:"history" db:"history"`
	Duration        time.Duration `json:"duration_ns" db:"duration_ns"`
	TrainedAt       time.Time     `json:"trained_at" db:"trained_at"`
	CatalogVersion  int64         `json:"catalog_version" db:"catalog_version"`
	NormalizedItems int           `json:"normalized_items" db:"-"`
}

// EpochLoss is the loss reported at the end of one training epoch
type EpochLoss struct {
	Epoch   int     `json:"epoch"`
	Loss    float64 `json:"loss"`
	ValLoss float64 `json:"val_loss"`
}

// LossHistory is stored as a JSON column
type LossHistory []EpochLoss

// Value implements driver.Valuer interface
func (h LossHistory) Value() (driver.Value, error) {
	if h == nil {
		return nil, nil
	}
	return json.Marshal(h)
}

// Scan implements sql.Scanner interface
func (h *LossHistory) Scan(value interface{}) error {
	if value == nil {
		*h = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return json.Unmarshal([]byte(value.(string)), h)
	}
	return json.Unmarshal(bytes, h)
}
