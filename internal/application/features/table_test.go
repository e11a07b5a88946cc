package features

import (
	"context"
	"testing"
	"time"

	"github.com/alejandrodnm/curvetrader/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day0 = time.Date(2021, 1, 4, 0, 0, 0, 0, time.UTC)

// makeBars crea velas diarias con open=close=price y high=price·1.01.
func makeBars(prices ...float64) []domain.PriceBar {
	bars := make([]domain.PriceBar, len(prices))
	for i, p := range prices {
		bars[i] = domain.PriceBar{
			Date:  day0.AddDate(0, 0, i),
			Open:  p,
			High:  p * 1.01,
			Low:   p * 0.99,
			Close: p,
		}
	}
	return bars
}

func flatCurves(bars []domain.PriceBar, rate float64) []domain.YieldObservation {
	out := make([]domain.YieldObservation, len(bars))
	for i, b := range bars {
		out[i] = domain.YieldObservation{
			Date:  b.Date,
			Rates: map[float64]float64{1.0 / 12: rate, 0.25: rate, 1: rate, 2: rate},
		}
	}
	return out
}

// --- Label ---

func TestLabel_FillsOnFirstHighAboveTarget(t *testing.T) {
	bars := makeBars(100, 100, 100, 100, 100)
	bars[3].High = 103 // target = open(1)·1.02 = 102

	lbl, err := Label(bars, 0, 3, 0.02)
	require.NoError(t, err)
	assert.True(t, lbl.Filled)
	require.NotNil(t, lbl.FillDate)
	assert.Equal(t, bars[3].Date, *lbl.FillDate)
	assert.InDelta(t, 102.0, *lbl.FillPrice, 1e-9)
}

func TestLabel_EntryDayCounts(t *testing.T) {
	bars := makeBars(100, 100, 100)
	bars[1].High = 110

	lbl, err := Label(bars, 0, 1, 0.02)
	require.NoError(t, err)
	assert.True(t, lbl.Filled)
	assert.Equal(t, bars[1].Date, *lbl.FillDate)
}

func TestLabel_NotFilledWithinWindow(t *testing.T) {
	bars := makeBars(100, 100, 100, 100, 100)
	bars[4].High = 200 // fuera de la ventana de n=3 días

	lbl, err := Label(bars, 0, 3, 0.02)
	require.NoError(t, err)
	assert.False(t, lbl.Filled)
	assert.Nil(t, lbl.FillDate)
	assert.Nil(t, lbl.FillPrice)
}

func TestLabel_NeedsLookahead(t *testing.T) {
	bars := makeBars(100, 100, 100)
	_, err := Label(bars, 0, 3, 0.02)
	assert.ErrorIs(t, err, domain.ErrInsufficientHistory)

	_, err = Label(bars, 0, 2, 0.02)
	assert.NoError(t, err)
}

// --- Build ---

func TestBuild_AlignsRowsAndLabels(t *testing.T) {
	bars := makeBars(100, 101, 99, 102, 100, 103, 101, 104)
	opts := Options{Window: 3, LimitDays: 2, Alpha: 0.02, Workers: 2}

	tbl, err := Build(context.Background(), bars, flatCurves(bars, 1.5), opts)
	require.NoError(t, err)

	for i := range bars {
		if i < 3 {
			assert.Nil(t, tbl.Rows[i], "row %d", i)
			continue
		}
		require.NotNil(t, tbl.Rows[i], "row %d", i)
		assert.Equal(t, bars[i].Date, tbl.Rows[i].Date)
		assert.InDelta(t, 1.5, tbl.Rows[i].A, 1e-12)
		assert.Equal(t, 0.0, tbl.Rows[i].B)
		assert.Equal(t, 1.0, tbl.Rows[i].R2)
		assert.Greater(t, tbl.Rows[i].Volatility, 0.0)

		if i+2 < len(bars) {
			require.NotNil(t, tbl.Labels[i], "label %d", i)
			assert.Equal(t, bars[i].Date, tbl.Labels[i].Date)
		} else {
			assert.Nil(t, tbl.Labels[i], "label %d", i)
		}
	}
}

func TestBuild_DeterministicAcrossWorkers(t *testing.T) {
	bars := makeBars(100, 101, 99, 102, 100, 103, 101, 104, 99, 98, 105)
	curves := flatCurves(bars, 2)

	one, err := Build(context.Background(), bars, curves, Options{Window: 3, LimitDays: 2, Alpha: 0.01, Workers: 1})
	require.NoError(t, err)
	many, err := Build(context.Background(), bars, curves, Options{Window: 3, LimitDays: 2, Alpha: 0.01, Workers: 8})
	require.NoError(t, err)
	assert.Equal(t, one, many)
}

func TestBuild_MissingCurve(t *testing.T) {
	bars := makeBars(100, 101, 99, 102, 100)
	curves := flatCurves(bars, 1)
	curves = append(curves[:3], curves[4:]...)

	_, err := Build(context.Background(), bars, curves, Options{Window: 2, LimitDays: 1, Alpha: 0.02})
	assert.ErrorIs(t, err, domain.ErrMissingData)
}

func TestBuild_TooFewBars(t *testing.T) {
	bars := makeBars(100, 101, 99)
	_, err := Build(context.Background(), bars, flatCurves(bars, 1), Options{Window: 3, LimitDays: 1, Alpha: 0.02})
	assert.ErrorIs(t, err, domain.ErrInsufficientHistory)
}

func TestValidateBars(t *testing.T) {
	bars := makeBars(100, 101, 102)
	assert.NoError(t, ValidateBars(bars))

	bad := makeBars(100, 101, 102)
	bad[1].Close = 0
	assert.ErrorIs(t, ValidateBars(bad), domain.ErrMissingData)

	unordered := makeBars(100, 101, 102)
	unordered[2].Date = unordered[0].Date
	assert.Error(t, ValidateBars(unordered))
}
