package classifier

import (
	"context"
	"testing"
	"time"

	"github.com/alejandrodnm/curvetrader/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample(x float64, y bool) Sample {
	return Sample{X: []float64{x, 1, 0.9, 0.01}, Y: y}
}

func TestFit_SeparatesByFeature(t *testing.T) {
	window := []Sample{
		sample(-3, false), sample(-2, false), sample(-1, false), sample(-0.5, true),
		sample(0.5, false), sample(1, true), sample(2, true), sample(3, true),
	}
	m, err := Fit(window)
	require.NoError(t, err)

	assert.True(t, m.Predict([]float64{4, 1, 0.9, 0.01}))
	assert.False(t, m.Predict([]float64{-4, 1, 0.9, 0.01}))
	assert.Greater(t, m.Probability([]float64{2, 1, 0.9, 0.01}), m.Probability([]float64{-2, 1, 0.9, 0.01}))
}

func TestFit_SeparableConverges(t *testing.T) {
	// Con L2 el problema separable tiene solución finita.
	window := []Sample{sample(-2, false), sample(-1, false), sample(1, true), sample(2, true)}
	m, err := Fit(window)
	require.NoError(t, err)
	assert.True(t, m.Predict([]float64{1.5, 1, 0.9, 0.01}))
	assert.False(t, m.Predict([]float64{-1.5, 1, 0.9, 0.01}))
}

func TestFit_DimensionMismatch(t *testing.T) {
	_, err := Fit([]Sample{{X: []float64{1, 2}}, {X: []float64{1}}})
	assert.Error(t, err)
	_, err = Fit(nil)
	assert.Error(t, err)
}

func TestPredict_SingleClassWindow(t *testing.T) {
	allTrue := []Sample{sample(1, true), sample(2, true), sample(3, true)}
	p, err := Predict(allTrue, []float64{-100, 0, 0, 0})
	require.NoError(t, err)
	assert.True(t, p)

	allFalse := []Sample{sample(1, false), sample(2, false)}
	p, err = Predict(allFalse, []float64{100, 0, 0, 0})
	require.NoError(t, err)
	assert.False(t, p)
}

func TestPredict_EmptyWindow(t *testing.T) {
	_, err := Predict(nil, []float64{1})
	assert.ErrorIs(t, err, domain.ErrInsufficientHistory)
}

func TestSolve(t *testing.T) {
	x, err := solve([][]float64{{2, 1}, {1, 3}}, []float64{3, 5})
	require.NoError(t, err)
	assert.InDelta(t, 0.8, x[0], 1e-12)
	assert.InDelta(t, 1.4, x[1], 1e-12)

	_, err = solve([][]float64{{1, 2}, {2, 4}}, []float64{1, 2})
	assert.ErrorIs(t, err, errSingular)
}

// --- walk-forward window ---

func table(size int, labelled func(j int) bool) ([]*domain.FeatureRow, []*domain.ResponseLabel) {
	rows := make([]*domain.FeatureRow, size)
	labels := make([]*domain.ResponseLabel, size)
	for j := 0; j < size; j++ {
		d := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, j)
		rows[j] = &domain.FeatureRow{Date: d, A: float64(j), B: 1, R2: 1, Volatility: 0.01}
		labels[j] = &domain.ResponseLabel{Date: d, Filled: labelled(j)}
	}
	return rows, labels
}

func TestTrainingWindow_OnlyElapsedLabels(t *testing.T) {
	rows, labels := table(20, func(j int) bool { return j%2 == 0 })

	// t=15, n=3 → último label usable j=11; N=4 → j=8..11
	w, err := TrainingWindow(rows, labels, 15, 4, 3)
	require.NoError(t, err)
	require.Len(t, w, 4)
	assert.Equal(t, 8.0, w[0].X[0])
	assert.Equal(t, 11.0, w[3].X[0])
	for _, s := range w {
		assert.Less(t, s.X[0]+3, 15.0, "label window must close before the prediction day")
	}
}

func TestTrainingWindow_StopsAtMissingRows(t *testing.T) {
	rows, labels := table(10, func(int) bool { return true })
	rows[4] = nil

	_, err := TrainingWindow(rows, labels, 9, 4, 1)
	assert.ErrorIs(t, err, domain.ErrInsufficientHistory)

	w, err := TrainingWindow(rows, labels, 9, 3, 1)
	require.NoError(t, err)
	assert.Len(t, w, 3)
}

func TestPredictRange_MatchesPredictAt(t *testing.T) {
	rows, labels := table(30, func(j int) bool { return j%3 != 0 })

	got, err := PredictRange(context.Background(), rows, labels, 12, 29, 5, 2, 4)
	require.NoError(t, err)
	require.Len(t, got, 18)
	for k, p := range got {
		want, err := PredictAt(rows, labels, 12+k, 5, 2)
		require.NoError(t, err)
		assert.Equal(t, want, p, "day %d", 12+k)
	}
}

func TestPredictRange_InsufficientHistory(t *testing.T) {
	rows, labels := table(10, func(int) bool { return true })
	_, err := PredictRange(context.Background(), rows, labels, 3, 9, 5, 2, 1)
	assert.ErrorIs(t, err, domain.ErrInsufficientHistory)
}
