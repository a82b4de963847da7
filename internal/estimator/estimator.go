// Package estimator provides the rating estimators used by the recommender.
// Estimators map a normalized feature vector to a rating in [0, 1].
package estimator

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"laptopadvisor/internal/model"
)

// Estimator kinds
const (
	KindMLP    = "mlp"
	KindLinear = "linear"
)

var (
	// ErrEmptyTrainingSet is returned when Train receives no samples
	ErrEmptyTrainingSet = errors.New("empty training set")
	// ErrShapeMismatch is returned when feature and label counts or widths disagree
	ErrShapeMismatch = errors.New("feature/label shape mismatch")
	// ErrDegenerateLabels is returned when labels have fewer than two distinct values
	ErrDegenerateLabels = errors.New("labels have fewer than 2 distinct values")
	// ErrLabelRange is returned when a label is outside [0, 1]
	ErrLabelRange = errors.New("label outside [0, 1]")
	// ErrNonFinite is returned for NaN or Inf inputs, or when training diverges
	ErrNonFinite = errors.New("non-finite value")
	// ErrNotFitted is returned by Predict before a successful Train
	ErrNotFitted = errors.New("estimator has not been trained")
)

// Estimator is a trainable rating predictor
type Estimator interface {
	// Name identifies the implementation
	Name() string
	// Train fits the estimator on normalized features X and labels y in [0, 1].
	// On error the previously fitted state, if any, is kept.
	Train(ctx context.Context, X [][]float64, y []float64) (*Report, error)
	// Predict returns the fitted rating for x in [0, 1]
	Predict(x []float64) (float64, error)
}

// Report summarises a training run
type Report struct {
	Estimator      string            `json:"estimator"`
	Epochs         int               `json:"epochs"`
	TrainSize      int               `json:"train_size"`
	ValidationSize int               `json:"validation_size"`
	FinalLoss      float64           `json:"final_loss"`
	FinalValLoss   float64           `json:"final_val_loss"`
	History        model.LossHistory `json:"history"`
	Duration       time.Duration     `json:"duration"`
}

// Config holds estimator hyperparameters
type Config struct {
	Kind            string
	Epochs          int
	BatchSize       int
	LearningRate    float64
	Momentum        float64
	L2              float64
	HiddenUnits     int
	ValidationSplit float64
	Seed            int64
	// LogEvery logs progress every N epochs; 0 disables progress logs
	LogEvery int
}

// DefaultConfig returns the default hyperparameters
func DefaultConfig() Config {
	return Config{
		Kind:            KindMLP,
		Epochs:          200,
		BatchSize:       32,
		LearningRate:    0.05,
		Momentum:        0.9,
		L2:              0.001,
		HiddenUnits:     32,
		ValidationSplit: 0.2,
		Seed:            42,
		LogEvery:        25,
	}
}

// New creates an untrained estimator of the configured kind. Zero
// hyperparameters take their defaults.
func New(cfg Config, logger zerolog.Logger) (Estimator, error) {
	cfg = withDefaults(cfg)
	if cfg.ValidationSplit < 0 || cfg.ValidationSplit >= 1 {
		return nil, fmt.Errorf("validation split %.2f outside [0, 1)", cfg.ValidationSplit)
	}

	switch strings.ToLower(cfg.Kind) {
	case KindMLP:
		return NewMLP(cfg, logger), nil
	case KindLinear:
		return NewLinear(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unknown estimator kind %q", cfg.Kind)
	}
}

func withDefaults(cfg Config) Config {
	def := DefaultConfig()
	if cfg.Kind == "" {
		cfg.Kind = def.Kind
	}
	if cfg.Epochs <= 0 {
		cfg.Epochs = def.Epochs
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.LearningRate <= 0 {
		cfg.LearningRate = def.LearningRate
	}
	if cfg.HiddenUnits <= 0 {
		cfg.HiddenUnits = def.HiddenUnits
	}
	return cfg
}

// validate checks a training set and returns the feature width
func validate(X [][]float64, y []float64) (int, error) {
	if len(X) == 0 {
		return 0, ErrEmptyTrainingSet
	}
	if len(X) != len(y) {
		return 0, fmt.Errorf("%w: %d feature rows, %d labels", ErrShapeMismatch, len(X), len(y))
	}

	width := len(X[0])
	if width == 0 {
		return 0, fmt.Errorf("%w: zero-width feature rows", ErrShapeMismatch)
	}

	distinct := make(map[float64]struct{}, 2)
	for i, row := range X {
		if len(row) != width {
			return 0, fmt.Errorf("%w: row %d has %d features, want %d", ErrShapeMismatch, i, len(row), width)
		}
		for _, x := range row {
			if !isFinite(x) {
				return 0, fmt.Errorf("%w in features of row %d", ErrNonFinite, i)
			}
		}
		if !isFinite(y[i]) {
			return 0, fmt.Errorf("%w in label of row %d", ErrNonFinite, i)
		}
		if y[i] < 0 || y[i] > 1 {
			return 0, fmt.Errorf("%w: row %d label %.4f", ErrLabelRange, i, y[i])
		}
		if len(distinct) < 2 {
			distinct[y[i]] = struct{}{}
		}
	}

	if len(distinct) < 2 {
		return 0, ErrDegenerateLabels
	}
	return width, nil
}

// checkInput validates a prediction input against the fitted width
func checkInput(x []float64, width int) error {
	if len(x) != width {
		return fmt.Errorf("%w: got %d features, want %d", ErrShapeMismatch, len(x), width)
	}
	for _, v := range x {
		if !isFinite(v) {
			return ErrNonFinite
		}
	}
	return nil
}

// split shuffles sample indices with rng and holds out a validation share.
// At least one sample always stays in the training part.
func split(n int, validationSplit float64, rng *rand.Rand) (train, val []int) {
	idx := rng.Perm(n)
	valCount := int(float64(n) * validationSplit)
	if valCount >= n {
		valCount = n - 1
	}
	return idx[valCount:], idx[:valCount]
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// mse computes the mean squared error of predict over the indexed samples
func mse(predict func([]float64) float64, X [][]float64, y []float64, idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}
	var sum float64
	for _, i := range idx {
		d := predict(X[i]) - y[i]
		sum += d * d
	}
	return sum / float64(len(idx))
}

// trainingLoop runs the shared epoch loop. step performs one pass over the
// shuffled training indices; predict evaluates the current parameters.
type trainingLoop struct {
	name   string
	cfg    Config
	logger zerolog.Logger
}

func (l trainingLoop) run(
	ctx context.Context,
	X [][]float64,
	y []float64,
	rng *rand.Rand,
	step func(batch []int),
	predict func([]float64) float64,
) (*Report, error) {
	start := time.Now()
	trainIdx, valIdx := split(len(X), l.cfg.ValidationSplit, rng)

	// With no held-out samples the validation loss is the training loss
	evalIdx := valIdx
	if len(evalIdx) == 0 {
		evalIdx = trainIdx
	}

	report := &Report{
		Estimator:      l.name,
		TrainSize:      len(trainIdx),
		ValidationSize: len(valIdx),
		History:        make(model.LossHistory, 0, l.cfg.Epochs),
	}

	order := append([]int(nil), trainIdx...)
	for epoch := 1; epoch <= l.cfg.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
		for startAt := 0; startAt < len(order); startAt += l.cfg.BatchSize {
			end := startAt + l.cfg.BatchSize
			if end > len(order) {
				end = len(order)
			}
			step(order[startAt:end])
		}

		loss := mse(predict, X, y, trainIdx)
		valLoss := mse(predict, X, y, evalIdx)
		if !isFinite(loss) || !isFinite(valLoss) {
			return nil, fmt.Errorf("%w: loss diverged at epoch %d", ErrNonFinite, epoch)
		}

		report.History = append(report.History, model.EpochLoss{Epoch: epoch, Loss: loss, ValLoss: valLoss})
		if l.cfg.LogEvery > 0 && (epoch == 1 || epoch%l.cfg.LogEvery == 0) {
			l.logger.Debug().
				Int("epoch", epoch).
				Float64("loss", loss).
				Float64("val_loss", valLoss).
				Msg("training progress")
		}
	}

	last := report.History[len(report.History)-1]
	report.Epochs = len(report.History)
	report.FinalLoss = last.Loss
	report.FinalValLoss = last.ValLoss
	report.Duration = time.Since(start)
	return report, nil
}
