package estimator

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func syntheticSet(n int) ([][]float64, []float64) {
	rng := rand.New(rand.NewSource(1))
	X := make([][]float64, n)
	y := make([]float64, n)
	for i := range X {
		row := make([]float64, 7)
		for k := range row {
			row[k] = rng.Float64()*2 - 1
		}
		X[i] = row
		y[i] = 0.5 + 0.3*math.Tanh(row[0]+0.5*row[1])
	}
	return X, y
}

func newEstimator(t *testing.T, kind string, epochs int) Estimator {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Kind = kind
	cfg.Epochs = epochs
	est, err := New(cfg, zerolog.Nop())
	require.NoError(t, err)
	return est
}

func TestNew(t *testing.T) {
	est, err := New(Config{}, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, KindMLP, est.Name())

	est, err = New(Config{Kind: "Linear"}, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, KindLinear, est.Name())

	_, err = New(Config{Kind: "forest"}, zerolog.Nop())
	assert.Error(t, err)

	_, err = New(Config{ValidationSplit: 1}, zerolog.Nop())
	assert.Error(t, err)
}

func TestTrain_InvalidInput(t *testing.T) {
	good := [][]float64{{0, 1}, {1, 0}}

	tests := []struct {
		name    string
		X       [][]float64
		y       []float64
		wantErr error
	}{
		{name: "Empty", X: nil, y: nil, wantErr: ErrEmptyTrainingSet},
		{name: "Count mismatch", X: good, y: []float64{0.5}, wantErr: ErrShapeMismatch},
		{name: "Ragged rows", X: [][]float64{{0, 1}, {1}}, y: []float64{0.2, 0.8}, wantErr: ErrShapeMismatch},
		{name: "Single label value", X: good, y: []float64{0.7, 0.7}, wantErr: ErrDegenerateLabels},
		{name: "Label above one", X: good, y: []float64{0.2, 1.2}, wantErr: ErrLabelRange},
		{name: "NaN feature", X: [][]float64{{math.NaN(), 1}, {1, 0}}, y: []float64{0.2, 0.8}, wantErr: ErrNonFinite},
	}

	for _, kind := range []string{KindMLP, KindLinear} {
		for _, tt := range tests {
			t.Run(kind+"/"+tt.name, func(t *testing.T) {
				est := newEstimator(t, kind, 5)
				_, err := est.Train(context.Background(), tt.X, tt.y)
				assert.ErrorIs(t, err, tt.wantErr)

				_, err = est.Predict([]float64{0, 1})
				assert.ErrorIs(t, err, ErrNotFitted)
			})
		}
	}
}

func TestTrain_LearnsAndReports(t *testing.T) {
	X, y := syntheticSet(100)

	for _, kind := range []string{KindMLP, KindLinear} {
		t.Run(kind, func(t *testing.T) {
			est := newEstimator(t, kind, 150)
			report, err := est.Train(context.Background(), X, y)
			require.NoError(t, err)

			assert.Equal(t, kind, report.Estimator)
			assert.Equal(t, 150, report.Epochs)
			assert.Len(t, report.History, 150)
			assert.Equal(t, 80, report.TrainSize)
			assert.Equal(t, 20, report.ValidationSize)
			assert.Less(t, report.FinalLoss, report.History[0].Loss)
			assert.Equal(t, report.History[149].ValLoss, report.FinalValLoss)

			for _, x := range X[:20] {
				p, err := est.Predict(x)
				require.NoError(t, err)
				assert.GreaterOrEqual(t, p, 0.0)
				assert.LessOrEqual(t, p, 1.0)
			}
		})
	}
}

func TestTrain_Deterministic(t *testing.T) {
	X, y := syntheticSet(60)

	for _, kind := range []string{KindMLP, KindLinear} {
		t.Run(kind, func(t *testing.T) {
			a := newEstimator(t, kind, 30)
			b := newEstimator(t, kind, 30)

			ra, err := a.Train(context.Background(), X, y)
			require.NoError(t, err)
			rb, err := b.Train(context.Background(), X, y)
			require.NoError(t, err)
			assert.Equal(t, ra.History, rb.History)

			for _, x := range X {
				pa, _ := a.Predict(x)
				pb, _ := b.Predict(x)
				assert.Equal(t, pa, pb)

				again, _ := a.Predict(x)
				assert.Equal(t, pa, again)
			}
		})
	}
}

func TestTrain_NoValidationSplitUsesTrainingLoss(t *testing.T) {
	X, y := syntheticSet(40)
	cfg := DefaultConfig()
	cfg.Epochs = 10
	cfg.ValidationSplit = 0
	est := NewMLP(cfg, zerolog.Nop())

	report, err := est.Train(context.Background(), X, y)
	require.NoError(t, err)
	assert.Equal(t, 0, report.ValidationSize)
	assert.Equal(t, 40, report.TrainSize)
	for _, h := range report.History {
		assert.Equal(t, h.Loss, h.ValLoss)
	}
}

func TestTrain_CancelledKeepsPreviousFit(t *testing.T) {
	X, y := syntheticSet(50)

	for _, kind := range []string{KindMLP, KindLinear} {
		t.Run(kind, func(t *testing.T) {
			est := newEstimator(t, kind, 20)
			_, err := est.Train(context.Background(), X, y)
			require.NoError(t, err)
			before, err := est.Predict(X[0])
			require.NoError(t, err)

			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			flipped := make([]float64, len(y))
			for i, v := range y {
				flipped[i] = 1 - v
			}
			_, err = est.Train(ctx, X, flipped)
			assert.ErrorIs(t, err, context.Canceled)

			after, err := est.Predict(X[0])
			require.NoError(t, err)
			assert.Equal(t, before, after)
		})
	}
}

func TestPredict_WrongWidth(t *testing.T) {
	X, y := syntheticSet(20)
	est := newEstimator(t, KindLinear, 5)
	_, err := est.Train(context.Background(), X, y)
	require.NoError(t, err)

	_, err = est.Predict([]float64{1, 2})
	assert.ErrorIs(t, err, ErrShapeMismatch)

	_, err = est.Predict([]float64{0, 0, 0, math.Inf(1), 0, 0, 0})
	assert.ErrorIs(t, err, ErrNonFinite)
}
