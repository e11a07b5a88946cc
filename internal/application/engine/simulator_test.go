package engine

import (
	"testing"
	"time"

	"github.com/alejandrodnm/curvetrader/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day0 = time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)

// flatBars crea velas con open=close=100 y high=101: un limit al 2% nunca se llena.
func flatBars(count int) []domain.PriceBar {
	bars := make([]domain.PriceBar, count)
	for i := range bars {
		bars[i] = domain.PriceBar{Date: day0.AddDate(0, 0, i), Open: 100, High: 101, Low: 99, Close: 100}
	}
	return bars
}

func simParams(n int) domain.Params {
	return domain.Params{
		Symbol:       "IVV",
		LimitDays:    n,
		Window:       3,
		Alpha:        0.02,
		LotSize:      10,
		StartingCash: 10000,
		StartDate:    day0,
		EndDate:      day0.AddDate(0, 0, 30),
	}
}

func pendingSells(s *simulator) int {
	n := 0
	for _, o := range s.orders {
		if o.Side == domain.SideSell && o.Status == domain.StatusPending {
			n++
		}
	}
	return n
}

func run(s *simulator, signals []bool) {
	for i, sig := range signals {
		s.step(i, sig, i < len(signals)-1)
	}
}

func assertCalendarInvariants(t *testing.T, cal []domain.CalendarLedgerEntry) {
	t.Helper()
	for _, e := range cal {
		assert.InDelta(t, e.TotalValue, e.Cash+e.StockValue, 1e-6, domain.DateKey(e.Date))
		assert.InDelta(t, float64(e.Position)*e.Close, e.StockValue, 1e-6, domain.DateKey(e.Date))
	}
}

func TestSimulator_LimitFillsOnDayK(t *testing.T) {
	bars := flatBars(6)
	bars[3].High = 103 // entrada en día 1 a 100 → limit 102, se toca en el 3er día del trade

	s := newSimulator(simParams(5), bars)
	run(s, []bool{true, false, false, false, false, false})

	require.Len(t, s.trades, 1)
	tr := s.trades[0]
	assert.Equal(t, bars[1].Date, tr.OpenDate)
	assert.Equal(t, bars[3].Date, tr.CloseDate)
	assert.Equal(t, 3, tr.TradingDaysOpen)
	assert.InDelta(t, 100.0, tr.BuyPrice, 1e-9)
	assert.InDelta(t, 102.0, tr.SellPrice, 1e-9)
	assert.InDelta(t, 0.02, tr.TradeReturn, 1e-9)
	assert.InDelta(t, 0.02/3, tr.TradeReturnPerDay, 1e-9)
	assert.InDelta(t, 100.0, tr.BenchmarkBuyPrice, 1e-9)
	assert.InDelta(t, 100.0, tr.BenchmarkSellPrice, 1e-9)
	assert.False(t, tr.Forced)

	// buy creado, buy lleno, limit creado, limit lleno
	require.Len(t, s.blotter, 4)
	assert.Equal(t, domain.StatusPending, s.blotter[0].Status)
	assert.Equal(t, domain.StatusFilled, s.blotter[1].Status)
	assert.Equal(t, domain.TypeLimit, s.blotter[2].Type)
	assert.Equal(t, domain.StatusFilled, s.blotter[3].Status)
	assert.Equal(t, bars[3].Date, *s.blotter[3].ClosedAt)

	last := s.calendar[len(s.calendar)-1]
	assert.Equal(t, 0, last.Position)
	assert.InDelta(t, 10000+10*2.0, last.Cash, 1e-9)
	assertCalendarInvariants(t, s.calendar)
}

func TestSimulator_ForcedExitAtDayNClose(t *testing.T) {
	bars := flatBars(6)
	bars[3].Close = 98.5

	s := newSimulator(simParams(3), bars)
	run(s, []bool{true, false, false, false, false, false})

	require.Len(t, s.trades, 1)
	tr := s.trades[0]
	assert.True(t, tr.Forced)
	assert.Equal(t, 3, tr.TradingDaysOpen)
	assert.Equal(t, bars[3].Date, tr.CloseDate)
	assert.InDelta(t, 98.5, tr.SellPrice, 1e-9)
	assert.InDelta(t, 98.5, tr.BenchmarkSellPrice, 1e-9)

	// buy ×2, limit creado + cancelado, market sell creado + lleno
	require.Len(t, s.blotter, 6)
	assert.Equal(t, domain.StatusCanceled, s.blotter[3].Status)
	assert.Equal(t, domain.TypeMarket, s.blotter[4].Type)
	assert.Equal(t, domain.SideSell, s.blotter[4].Action)
	assert.Equal(t, domain.StatusFilled, s.blotter[5].Status)
	assertCalendarInvariants(t, s.calendar)
}

func TestSimulator_IgnoresSignalsWhileOpen(t *testing.T) {
	bars := flatBars(12)
	s := newSimulator(simParams(3), bars)

	for i := range bars {
		s.step(i, true, i < len(bars)-1)
		assert.LessOrEqual(t, pendingSells(s), 1, "day %d", i)
		assert.LessOrEqual(t, s.position, 10, "day %d", i)
	}

	// ciclos de 3 días con re-entrada el mismo día del cierre:
	// buy submit d0, trades [1..3], [4..6], [7..9], buy d9 → trade [10..] abierto
	require.Len(t, s.trades, 3)
	for _, tr := range s.trades {
		assert.Equal(t, 3, tr.TradingDaysOpen)
		assert.GreaterOrEqual(t, tr.TradingDaysOpen, 1)
		assert.LessOrEqual(t, tr.TradingDaysOpen, 4)
	}
	assert.Equal(t, statePositionOpen, s.state)
	assert.Equal(t, 1, pendingSells(s))
	assertCalendarInvariants(t, s.calendar)
}

func TestSimulator_NoEntryOnLastDay(t *testing.T) {
	bars := flatBars(3)
	s := newSimulator(simParams(3), bars)
	run(s, []bool{false, false, true})

	assert.Empty(t, s.orders)
	assert.Equal(t, stateIdle, s.state)
	assert.Len(t, s.calendar, 3)
}

func TestSimulator_EveryFilledSellHasPriorBuy(t *testing.T) {
	bars := flatBars(20)
	for i := range bars {
		if i%4 == 0 {
			bars[i].High = 110
		}
	}
	s := newSimulator(simParams(3), bars)
	run(s, make20(func(i int) bool { return i%2 == 0 }))

	buys, sells := 0, 0
	for _, o := range s.orders {
		if o.Status != domain.StatusFilled {
			continue
		}
		if o.Side == domain.SideBuy {
			buys++
		} else {
			sells++
			assert.GreaterOrEqual(t, buys, sells, "order %d", o.ID)
		}
	}
	assert.Equal(t, sells, len(s.trades))
	for _, o := range s.orders {
		if o.Status == domain.StatusFilled {
			assert.NotNil(t, o.FillDate)
			assert.NotNil(t, o.FillPrice)
		}
	}
}

func make20(f func(int) bool) []bool {
	out := make([]bool, 20)
	for i := range out {
		out[i] = f(i)
	}
	return out
}
