package ingest

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"laptopadvisor/internal/model"
	"laptopadvisor/internal/utils"
)

// Extraction defaults
const (
	DefaultMaxItems     = 800
	DefaultNameMaxRunes = 100

	defaultCPURank      = 400.0
	defaultGPUBenchmark = 10.0
	defaultRAMForScore  = 8.0

	// cpuRankDivisor and gpuBenchmarkDivisor scale dataset-specific metrics to 0-10
	cpuRankDivisor      = 80.0
	gpuBenchmarkDivisor = 15.0
)

// Canonical column names
const (
	ColumnID      = "id"
	ColumnName    = "name"
	ColumnPrice   = "price"
	ColumnRAM     = "ram"
	ColumnStorage = "storage"
	ColumnScreen  = "screen"
	ColumnWeight  = "weight"
	ColumnRating  = "rating"
	ColumnBattery = "battery"
	ColumnCPURank = "cpu_rank"
	ColumnGPU     = "gpu_benchmark"
	ColumnCompany = "company"
	ColumnType    = "type"
)

// columnAliases maps normalized header spellings to canonical columns
var columnAliases = map[string]string{
	"id":                  ColumnID,
	"index":               ColumnID,
	"laptopid":            ColumnID,
	"unnamed0":            ColumnID,
	"name":                ColumnName,
	"model":               ColumnName,
	"laptopname":          ColumnName,
	"productname":         ColumnName,
	"price":               ColumnPrice,
	"priceinindianrupees": ColumnPrice,
	"priceinr":            ColumnPrice,
	"ram":                 ColumnRAM,
	"ramingb":             ColumnRAM,
	"ramgb":               ColumnRAM,
	"storage":             ColumnStorage,
	"storagegb":           ColumnStorage,
	"screensizeininch":    ColumnScreen,
	"screensize":          ColumnScreen,
	"screen":              ColumnScreen,
	"screeninches":        ColumnScreen,
	"weightinkg":          ColumnWeight,
	"weight":              ColumnWeight,
	"weightkg":            ColumnWeight,
	"userrating":          ColumnRating,
	"rating":              ColumnRating,
	"batterybackup":       ColumnBattery,
	"battery":             ColumnBattery,
	"batteryhours":        ColumnBattery,
	"cpuranking":          ColumnCPURank,
	"cpurank":             ColumnCPURank,
	"gpubenchmark":        ColumnGPU,
	"company":             ColumnCompany,
	"brand":               ColumnCompany,
	"manufacturer":        ColumnCompany,
	"type":                ColumnType,
	"category":            ColumnType,
}

// CanonicalColumn resolves a source header to its canonical column name
func CanonicalColumn(header string) (string, bool) {
	c, ok := columnAliases[utils.NormalizeHeader(header)]
	return c, ok
}

// ValidationRejection describes a record dropped by a range check
type ValidationRejection struct {
	Line  int
	Field string
	Value float64
	Range model.Range
}

func (r *ValidationRejection) Error() string {
	return fmt.Sprintf("line %d: %s %.2f outside [%g, %g]", r.Line, r.Field, r.Value, r.Range.Min, r.Range.Max)
}

// ExtractorConfig controls extraction
type ExtractorConfig struct {
	// MaxItems caps the kept catalog after sorting by confidence; <= 0 keeps all
	MaxItems     int
	NameMaxRunes int
}

// ExtractResult holds the accepted laptops and rejection counts
type ExtractResult struct {
	Laptops    []model.Laptop
	Accepted   int
	Rejected   int
	RejectedBy map[string]int
}

// Extractor derives feature vectors from raw records and validates them
type Extractor struct {
	cfg    ExtractorConfig
	logger zerolog.Logger
}

// NewExtractor creates a new extractor
func NewExtractor(cfg ExtractorConfig, logger zerolog.Logger) *Extractor {
	if cfg.NameMaxRunes <= 0 {
		cfg.NameMaxRunes = DefaultNameMaxRunes
	}
	return &Extractor{cfg: cfg, logger: logger}
}

// Extract converts every record of the table. Rejected records are counted and
// logged at debug level. Accepted laptops are stably sorted by descending
// confidence and truncated to MaxItems.
func (e *Extractor) Extract(table *Table) *ExtractResult {
	columns := resolveColumns(table.Headers)
	result := &ExtractResult{
		Laptops:    make([]model.Laptop, 0, len(table.Records)),
		RejectedBy: make(map[string]int),
	}
	seen := make(map[string]struct{}, len(table.Records))

	for _, rec := range table.Records {
		laptop, err := e.extractRecord(columns, rec)
		if err != nil {
			result.Rejected++
			field := "record"
			if rej, ok := err.(*ValidationRejection); ok {
				field = rej.Field
			}
			result.RejectedBy[field]++
			e.logger.Debug().Err(err).Int("line", rec.Line).Msg("record rejected")
			continue
		}

		if _, dup := seen[laptop.ID]; dup {
			laptop.ID = fmt.Sprintf("%s-%d", laptop.ID, rec.Line)
		}
		seen[laptop.ID] = struct{}{}

		result.Laptops = append(result.Laptops, laptop)
	}
	result.Accepted = len(result.Laptops)

	result.Laptops = RankByConfidence(result.Laptops, e.cfg.MaxItems)
	return result
}

// RankByConfidence stably sorts laptops by descending confidence and keeps at
// most limit of them (all when limit <= 0)
func RankByConfidence(laptops []model.Laptop, limit int) []model.Laptop {
	sort.SliceStable(laptops, func(i, j int) bool {
		return laptops[i].Confidence > laptops[j].Confidence
	})
	if limit > 0 && len(laptops) > limit {
		laptops = laptops[:limit]
	}
	return laptops
}

// columnIndex maps canonical columns to source headers
type columnIndex map[string]string

func resolveColumns(headers []string) columnIndex {
	idx := make(columnIndex, len(headers))
	for _, h := range headers {
		if c, ok := CanonicalColumn(h); ok {
			if _, exists := idx[c]; !exists {
				idx[c] = h
			}
		}
	}
	return idx
}

func (c columnIndex) value(rec RawRecord, column string) string {
	h, ok := c[column]
	if !ok {
		return ""
	}
	return strings.TrimSpace(rec.Get(h))
}

// extractRecord derives a laptop from one record. It returns a
// *ValidationRejection when a range check fails.
func (e *Extractor) extractRecord(columns columnIndex, rec RawRecord) (model.Laptop, error) {
	raw := func(column string) string { return columns.value(rec, column) }
	num := func(column string) float64 {
		v, _ := utils.ParseLooseFloat(raw(column))
		return v
	}

	price, _ := utils.ParsePrice(raw(ColumnPrice))
	storage, _ := utils.ParseCapacityGB(raw(ColumnStorage))
	ram := num(ColumnRAM)
	screen := num(ColumnScreen)
	weight := num(ColumnWeight)
	rating := utils.ParseRating(raw(ColumnRating))
	category := CategoryFromCode(utils.MatchCategoryCode(raw(ColumnType)))

	checks := []struct {
		field string
		value float64
		rng   model.Range
	}{
		{"price", price, model.PriceRange},
		{"ram", ram, model.RAMRange},
		{"storage", storage, model.StorageRange},
		{"screen", screen, model.ScreenRange},
		{"weight", weight, model.WeightRange},
		{"rating", rating, model.RatingRange},
	}
	for _, chk := range checks {
		if !chk.rng.Contains(chk.value) {
			return model.Laptop{}, &ValidationRejection{Line: rec.Line, Field: chk.field, Value: chk.value, Range: chk.rng}
		}
	}

	battery := EstimateBattery(num(ColumnBattery), category, screen, ram)
	performance := PerformanceScore(num(ColumnCPURank), num(ColumnGPU), ram, category)

	name := raw(ColumnName)
	if name == "" {
		name = "Unknown Laptop"
	}

	id := raw(ColumnID)
	if id == "" {
		id = fmt.Sprintf("L%04d", rec.Line)
	}

	return model.Laptop{
		ID:       id,
		Name:     utils.CleanName(name, e.cfg.NameMaxRunes),
		Brand:    ExtractBrand(raw(ColumnCompany), name),
		Category: category,
		Features: model.FeatureVector{
			price, ram, storage, screen, battery, weight, performance,
		},
		Rating:     rating,
		Confidence: Confidence(func(column string) bool { return raw(column) != "" }),
		PriceRaw:   price,
	}, nil
}

// CategoryFromCode maps the dataset's numeric Type to a category
func CategoryFromCode(code int) model.Category {
	switch code {
	case 1:
		return model.CategoryGaming
	case 2:
		return model.CategoryThinAndLight
	case 3:
		return model.CategoryTwoInOne
	default:
		return model.CategoryStandard
	}
}

// EstimateBattery returns the provided battery life when positive, otherwise a
// category baseline reduced for large screens and high RAM, clamped to [3, 12].
func EstimateBattery(provided float64, category model.Category, screen, ram float64) float64 {
	if provided > 0 {
		return provided
	}
	hours := category.BaseBatteryHours()
	if screen > 16 {
		hours--
	}
	if ram > 16 {
		hours -= 0.5
	}
	return utils.Clamp(hours, model.BatteryRange.Min, model.BatteryRange.Max)
}

// PerformanceScore blends CPU rank, GPU benchmark and RAM into a 1-10 score.
// Zero or missing inputs fall back to rank 400, benchmark 10 and 8 GB.
func PerformanceScore(cpuRank, gpuBenchmark, ram float64, category model.Category) float64 {
	if cpuRank <= 0 {
		cpuRank = defaultCPURank
	}
	if gpuBenchmark <= 0 {
		gpuBenchmark = defaultGPUBenchmark
	}
	if ram <= 0 {
		ram = defaultRAMForScore
	}

	cpuScore := math.Max(1, 10-cpuRank/cpuRankDivisor)
	gpuScore := math.Min(10, gpuBenchmark/gpuBenchmarkDivisor)
	ramScore := math.Min(10, ram/4)

	score := (0.4*cpuScore + 0.4*gpuScore + 0.2*ramScore) * category.PerformanceBonus()
	return utils.Clamp(score, model.PerformanceRange.Min, model.PerformanceRange.Max)
}

// Confidence scores data completeness in [0, 1]
func Confidence(present func(column string) bool) float64 {
	weights := []struct {
		column string
		weight float64
	}{
		{ColumnRating, 0.2},
		{ColumnPrice, 0.2},
		{ColumnCPURank, 0.2},
		{ColumnGPU, 0.2},
		{ColumnBattery, 0.1},
		{ColumnCompany, 0.1},
	}

	// Accumulate in tenths so a complete record scores exactly 1
	tenths := 0
	for _, w := range weights {
		if present(w.column) {
			tenths += int(math.Round(w.weight * 10))
		}
	}
	return float64(tenths) / 10
}

// ExtractBrand prefers the company column, then a known brand in the name
func ExtractBrand(company, name string) string {
	if b := utils.NormalizeBrand(company); b != "" {
		return b
	}
	if b, ok := utils.MatchBrand(name); ok {
		return b
	}
	return "Unknown"
}
