package estimator

import (
	"context"
	"math"
	"math/rand"
	"sync"

	"github.com/rs/zerolog"
)

// mlpParams are the weights of a one-hidden-layer network
type mlpParams struct {
	w1 [][]float64 // hidden x inputs
	b1 []float64
	w2 []float64
	b2 float64
}

func newMLPParams(inputs, hidden int, rng *rand.Rand) *mlpParams {
	p := &mlpParams{
		w1: make([][]float64, hidden),
		b1: make([]float64, hidden),
		w2: make([]float64, hidden),
	}
	// He initialisation for the ReLU layer
	scale1 := math.Sqrt(2 / float64(inputs))
	scale2 := math.Sqrt(1 / float64(hidden))
	for j := range p.w1 {
		p.w1[j] = make([]float64, inputs)
		for k := range p.w1[j] {
			p.w1[j][k] = rng.NormFloat64() * scale1
		}
		p.w2[j] = rng.NormFloat64() * scale2
	}
	return p
}

func (p *mlpParams) zeroLike() *mlpParams {
	z := &mlpParams{
		w1: make([][]float64, len(p.w1)),
		b1: make([]float64, len(p.b1)),
		w2: make([]float64, len(p.w2)),
	}
	for j := range z.w1 {
		z.w1[j] = make([]float64, len(p.w1[j]))
	}
	return z
}

// forward writes hidden activations into h and returns the sigmoid output
func (p *mlpParams) forward(x, h []float64) float64 {
	z := p.b2
	for j, row := range p.w1 {
		a := p.b1[j]
		for k, w := range row {
			a += w * x[k]
		}
		if a < 0 {
			a = 0
		}
		h[j] = a
		z += p.w2[j] * a
	}
	return sigmoid(z)
}

// MLP is a feed-forward network with one ReLU hidden layer and a sigmoid
// output, trained by mini-batch SGD with momentum and L2 regularisation.
type MLP struct {
	mu     sync.RWMutex
	cfg    Config
	logger zerolog.Logger
	params *mlpParams
	inputs int
}

// NewMLP creates an untrained network
func NewMLP(cfg Config, logger zerolog.Logger) *MLP {
	return &MLP{cfg: withDefaults(cfg), logger: logger}
}

// Name implements Estimator
func (m *MLP) Name() string {
	return KindMLP
}

// Train implements Estimator
func (m *MLP) Train(ctx context.Context, X [][]float64, y []float64) (*Report, error) {
	inputs, err := validate(X, y)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(m.cfg.Seed))
	params := newMLPParams(inputs, m.cfg.HiddenUnits, rng)
	velocity := params.zeroLike()
	grad := params.zeroLike()
	hidden := make([]float64, m.cfg.HiddenUnits)

	lr, mom, l2 := m.cfg.LearningRate, m.cfg.Momentum, m.cfg.L2

	step := func(batch []int) {
		for j := range grad.w1 {
			for k := range grad.w1[j] {
				grad.w1[j][k] = 0
			}
			grad.b1[j] = 0
			grad.w2[j] = 0
		}
		grad.b2 = 0

		inv := 1 / float64(len(batch))
		for _, i := range batch {
			x := X[i]
			out := params.forward(x, hidden)
			// d(MSE)/dz through the sigmoid
			dz := 2 * (out - y[i]) * out * (1 - out) * inv
			grad.b2 += dz
			for j, h := range hidden {
				grad.w2[j] += dz * h
				if h <= 0 {
					continue
				}
				dh := dz * params.w2[j]
				grad.b1[j] += dh
				for k, xv := range x {
					grad.w1[j][k] += dh * xv
				}
			}
		}

		for j := range params.w1 {
			for k := range params.w1[j] {
				g := grad.w1[j][k] + l2*params.w1[j][k]
				velocity.w1[j][k] = mom*velocity.w1[j][k] - lr*g
				params.w1[j][k] += velocity.w1[j][k]
			}
			velocity.b1[j] = mom*velocity.b1[j] - lr*grad.b1[j]
			params.b1[j] += velocity.b1[j]

			g := grad.w2[j] + l2*params.w2[j]
			velocity.w2[j] = mom*velocity.w2[j] - lr*g
			params.w2[j] += velocity.w2[j]
		}
		velocity.b2 = mom*velocity.b2 - lr*grad.b2
		params.b2 += velocity.b2
	}

	evalHidden := make([]float64, m.cfg.HiddenUnits)
	predict := func(x []float64) float64 {
		return params.forward(x, evalHidden)
	}

	loop := trainingLoop{name: m.Name(), cfg: m.cfg, logger: m.logger}
	report, err := loop.run(ctx, X, y, rng, step, predict)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.params = params
	m.inputs = inputs
	m.mu.Unlock()

	return report, nil
}

// Predict implements Estimator
func (m *MLP) Predict(x []float64) (float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.params == nil {
		return 0, ErrNotFitted
	}
	if err := checkInput(x, m.inputs); err != nil {
		return 0, err
	}

	hidden := make([]float64, len(m.params.b1))
	return m.params.forward(x, hidden), nil
}
