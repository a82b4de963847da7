package estimator

import (
	"context"
	"math/rand"
	"sync"

	"github.com/rs/zerolog"
)

// Linear is a linear regressor with a sigmoid-clamped output, trained by
// full-batch gradient descent with momentum.
type Linear struct {
	mu      sync.RWMutex
	cfg     Config
	logger  zerolog.Logger
	weights []float64
	bias    float64
	fitted  bool
}

// NewLinear creates an untrained linear regressor
func NewLinear(cfg Config, logger zerolog.Logger) *Linear {
	return &Linear{cfg: withDefaults(cfg), logger: logger}
}

// Name implements Estimator
func (l *Linear) Name() string {
	return KindLinear
}

// Train implements Estimator
func (l *Linear) Train(ctx context.Context, X [][]float64, y []float64) (*Report, error) {
	inputs, err := validate(X, y)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(l.cfg.Seed))
	weights := make([]float64, inputs)
	velocity := make([]float64, inputs)
	grad := make([]float64, inputs)
	var bias, biasVelocity float64

	predict := func(x []float64) float64 {
		z := bias
		for k, w := range weights {
			z += w * x[k]
		}
		return sigmoid(z)
	}

	lr, mom, l2 := l.cfg.LearningRate, l.cfg.Momentum, l.cfg.L2
	step := func(batch []int) {
		for k := range grad {
			grad[k] = 0
		}
		var gradBias float64

		inv := 1 / float64(len(batch))
		for _, i := range batch {
			out := predict(X[i])
			dz := 2 * (out - y[i]) * out * (1 - out) * inv
			gradBias += dz
			for k, xv := range X[i] {
				grad[k] += dz * xv
			}
		}

		for k := range weights {
			velocity[k] = mom*velocity[k] - lr*(grad[k]+l2*weights[k])
			weights[k] += velocity[k]
		}
		biasVelocity = mom*biasVelocity - lr*gradBias
		bias += biasVelocity
	}

	cfg := l.cfg
	cfg.BatchSize = len(X)
	loop := trainingLoop{name: l.Name(), cfg: cfg, logger: l.logger}
	report, err := loop.run(ctx, X, y, rng, step, predict)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.weights = weights
	l.bias = bias
	l.fitted = true
	l.mu.Unlock()

	return report, nil
}

// Predict implements Estimator
func (l *Linear) Predict(x []float64) (float64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if !l.fitted {
		return 0, ErrNotFitted
	}
	if err := checkInput(x, len(l.weights)); err != nil {
		return 0, err
	}

	z := l.bias
	for k, w := range l.weights {
		z += w * x[k]
	}
	return sigmoid(z), nil
}
