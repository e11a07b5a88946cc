package performance

import (
	"math"
	"testing"
	"time"

	"github.com/alejandrodnm/curvetrader/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trade(id int, open time.Time, tradePerDay, benchPerDay float64) domain.TradeLedgerEntry {
	return domain.TradeLedgerEntry{
		TradeID:               id,
		OpenDate:              open,
		CloseDate:             open.AddDate(0, 0, 2),
		TradingDaysOpen:       1,
		TradeReturnPerDay:     tradePerDay,
		BenchmarkReturnPerDay: benchPerDay,
	}
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAnalyze_OneTrade(t *testing.T) {
	_, err := Analyze([]domain.TradeLedgerEntry{trade(1, date(2020, 1, 2), 0.01, 0.01)})
	assert.ErrorIs(t, err, domain.ErrInsufficientTrades)
}

func TestAnalyze_TwoTradesLeaveOneUsable(t *testing.T) {
	_, err := Analyze([]domain.TradeLedgerEntry{
		trade(1, date(2020, 1, 2), 0.01, 0.01),
		trade(2, date(2020, 2, 2), 0.02, 0.01),
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientTrades)
}

func TestAnalyze_ExactLinearRelation(t *testing.T) {
	// trade = 0.001 + 2·bench; el primer trade (outlier) se descarta
	trades := []domain.TradeLedgerEntry{
		trade(1, date(2019, 6, 1), 0.5, -0.5),
		trade(2, date(2020, 1, 2), 0.001+2*0.01, 0.01),
		trade(3, date(2020, 3, 2), 0.001+2*0.00, 0.00),
		trade(4, date(2021, 1, 5), 0.001+2*-0.005, -0.005),
		trade(5, date(2021, 2, 5), 0.001+2*0.002, 0.002),
	}
	s, err := Analyze(trades)
	require.NoError(t, err)

	assert.Equal(t, 4, s.Trades)
	assert.InDelta(t, 0.001, s.Alpha, 1e-12)
	assert.InDelta(t, 2.0, s.Beta, 1e-12)
	assert.InDelta(t, 2.0, s.TradesPerYear, 1e-12) // 2020: 2, 2021: 2

	product := (1 + 0.021) * (1 + 0.001) * (1 - 0.009) * (1 + 0.005)
	assert.InDelta(t, math.Pow(product, 0.25)-1, s.GMRR, 1e-12)

	vol := domain.SampleStdDev([]float64{0.021, 0.001, -0.009, 0.005})
	assert.InDelta(t, vol, s.Volatility, 1e-12)
	assert.True(t, s.SharpeDefined)
	assert.InDelta(t, s.GMRR/vol, s.Sharpe, 1e-12)
	assert.InDelta(t, 0.001+2*0.01, s.FitLine(0.01), 1e-12)
}

func TestAnalyze_ZeroVolatility(t *testing.T) {
	trades := []domain.TradeLedgerEntry{
		trade(1, date(2020, 1, 2), 0.01, 0.0),
		trade(2, date(2020, 2, 2), 0.004, 0.001),
		trade(3, date(2020, 3, 2), 0.004, 0.003),
	}
	s, err := Analyze(trades)
	require.NoError(t, err)
	assert.Equal(t, 0.0, s.Volatility)
	assert.False(t, s.SharpeDefined)
	assert.Equal(t, 0.0, s.Sharpe)
	assert.InDelta(t, 0.004, s.GMRR, 1e-12)
	assert.InDelta(t, 0.0, s.Beta, 1e-12)
}

func TestTradesPerYear_UnevenYears(t *testing.T) {
	trades := []domain.TradeLedgerEntry{
		trade(1, date(2019, 1, 2), 0, 0),
		trade(2, date(2020, 1, 2), 0, 0),
		trade(3, date(2020, 5, 2), 0, 0),
		trade(4, date(2020, 9, 2), 0, 0),
	}
	assert.InDelta(t, 2.0, tradesPerYear(trades), 1e-12)
	assert.Equal(t, 0.0, tradesPerYear(nil))
}
