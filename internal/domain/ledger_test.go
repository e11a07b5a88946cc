package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTradeLedgerEntry_Returns(t *testing.T) {
	open := time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)
	closed := open.AddDate(0, 0, 3)

	e := NewTradeLedgerEntry(7, open, closed, 4, 100, 102, 200, 202, true)

	assert.Equal(t, 7, e.TradeID)
	assert.Equal(t, 4, e.TradingDaysOpen)
	assert.True(t, e.Forced)
	assert.InDelta(t, 0.02, e.TradeReturn, 1e-12)
	assert.InDelta(t, 0.01, e.BenchmarkReturn, 1e-12)
	assert.InDelta(t, 0.005, e.TradeReturnPerDay, 1e-12)
	assert.InDelta(t, 0.0025, e.BenchmarkReturnPerDay, 1e-12)
}

func TestNewTradeLedgerEntry_ZeroGuards(t *testing.T) {
	e := NewTradeLedgerEntry(1, time.Time{}, time.Time{}, 0, 0, 10, 0, 10, false)
	assert.Zero(t, e.TradeReturn)
	assert.Zero(t, e.BenchmarkReturn)
	assert.Zero(t, e.TradeReturnPerDay)
}

func TestPerformanceSummary_FitLine(t *testing.T) {
	s := PerformanceSummary{Alpha: 0.001, Beta: 2}
	assert.InDelta(t, 0.001, s.FitLine(0), 1e-12)
	assert.InDelta(t, 0.021, s.FitLine(0.01), 1e-12)
}

func TestOrderSnapshot(t *testing.T) {
	submitted := time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)
	filled := submitted.AddDate(0, 0, 1)
	limit, price := 102.0, 102.0

	o := Order{ID: 3, Side: SideSell, Type: TypeLimit, LimitPrice: &limit, Size: 100,
		Status: StatusPending, Submitted: submitted}

	pending := o.Snapshot("IVV", submitted)
	assert.Equal(t, "long", pending.LongShort)
	assert.Nil(t, pending.ClosedAt)
	assert.False(t, pending.Status.Terminal())

	o.Status = StatusFilled
	o.FillDate = &filled
	o.FillPrice = &price
	done := o.Snapshot("IVV", filled)
	require.NotNil(t, done.ClosedAt)
	assert.Equal(t, filled, *done.ClosedAt)
	assert.True(t, done.Status.Terminal())
	assert.Equal(t, StatusPending, pending.Status, "earlier snapshots keep their status")

	canceledAt := filled
	c := Order{ID: 4, Status: StatusCanceled, CanceledAt: &canceledAt}
	assert.Equal(t, &canceledAt, c.Snapshot("IVV", filled).ClosedAt)
}
