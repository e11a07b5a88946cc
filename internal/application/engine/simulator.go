package engine

import (
	"log/slog"

	"github.com/alejandrodnm/curvetrader/internal/domain"
	"github.com/shopspring/decimal"
)

// simState is the strategy's position in the order lifecycle.
type simState int

const (
	stateIdle         simState = iota // flat, no orders working
	stateEntryPending                 // market buy submitted, fills at next open
	statePositionOpen                 // long lot_size, limit sell armed
)

func (s simState) String() string {
	switch s {
	case stateEntryPending:
		return "ENTRY_PENDING"
	case statePositionOpen:
		return "POSITION_OPEN"
	}
	return "IDLE"
}

// simulator owns every order, blotter entry and ledger row of one run.
// Days must be fed in order through step: day t depends on day t−1's state.
type simulator struct {
	params domain.Params
	bars   []domain.PriceBar
	lot    decimal.Decimal

	state    simState
	cash     decimal.Decimal
	position int

	nextOrderID int
	nextTradeID int
	entry       *domain.Order // market buy of the open round trip
	exit        *domain.Order // limit sell armed after the entry fills
	entryIdx    int
	daysOpen    int

	orders   []*domain.Order
	blotter  []domain.BlotterEntry
	calendar []domain.CalendarLedgerEntry
	trades   []domain.TradeLedgerEntry
}

func newSimulator(params domain.Params, bars []domain.PriceBar) *simulator {
	return &simulator{
		params:      params,
		bars:        bars,
		lot:         decimal.NewFromInt(int64(params.LotSize)),
		cash:        decimal.NewFromFloat(params.StartingCash),
		nextOrderID: 1,
		nextTradeID: 1,
	}
}

// step processes day i. signal is the classifier's prediction for the day;
// canEnter is false on the last day of the run, where no next open exists.
func (s *simulator) step(i int, signal, canEnter bool) {
	bar := s.bars[i]

	if s.state == stateEntryPending {
		s.fillEntry(i)
	}

	if s.state == statePositionOpen {
		s.daysOpen++
		limit := *s.exit.LimitPrice
		switch {
		case bar.High >= limit:
			s.fill(s.exit, i, limit)
			s.closeTrade(i, limit, false)
		case s.daysOpen >= s.params.LimitDays:
			s.cancel(s.exit, i)
			mkt := s.submit(domain.SideSell, domain.TypeMarket, nil, i)
			s.fill(mkt, i, bar.Close)
			s.closeTrade(i, bar.Close, true)
		}
	}

	if s.state == stateIdle && signal && canEnter {
		s.entry = s.submit(domain.SideBuy, domain.TypeMarket, nil, i)
		s.state = stateEntryPending
	}

	s.markToMarket(i)
}

// fillEntry executes the pending market buy at day i's open and arms the
// limit sell at open·(1+alpha).
func (s *simulator) fillEntry(i int) {
	open := s.bars[i].Open
	s.fill(s.entry, i, open)
	s.cash = s.cash.Sub(decimal.NewFromFloat(open).Mul(s.lot))
	s.position += s.params.LotSize

	limit := s.params.LimitPrice(open)
	s.exit = s.submit(domain.SideSell, domain.TypeLimit, &limit, i)
	s.entryIdx = i
	s.daysOpen = 0
	s.state = statePositionOpen
}

func (s *simulator) closeTrade(i int, sellPrice float64, forced bool) {
	s.cash = s.cash.Add(decimal.NewFromFloat(sellPrice).Mul(s.lot))
	s.position -= s.params.LotSize

	entryBar, exitBar := s.bars[s.entryIdx], s.bars[i]
	trade := domain.NewTradeLedgerEntry(
		s.nextTradeID,
		entryBar.Date, exitBar.Date,
		s.daysOpen,
		*s.entry.FillPrice, sellPrice,
		entryBar.Open, exitBar.Close,
		forced,
	)
	s.trades = append(s.trades, trade)
	s.nextTradeID++

	slog.Debug("backtest: round trip closed",
		"trade", trade.TradeID,
		"open", domain.DateKey(trade.OpenDate),
		"close", domain.DateKey(trade.CloseDate),
		"days", trade.TradingDaysOpen,
		"return", trade.TradeReturn,
		"forced", forced,
	)

	s.entry, s.exit = nil, nil
	s.state = stateIdle
}

func (s *simulator) submit(side domain.OrderSide, typ domain.OrderType, limit *float64, i int) *domain.Order {
	o := &domain.Order{
		ID:         s.nextOrderID,
		Side:       side,
		Type:       typ,
		LimitPrice: limit,
		Size:       s.params.LotSize,
		Status:     domain.StatusPending,
		Submitted:  s.bars[i].Date,
	}
	s.nextOrderID++
	s.orders = append(s.orders, o)
	s.record(o, i)
	return o
}

func (s *simulator) fill(o *domain.Order, i int, price float64) {
	if o.Status.Terminal() {
		panic("engine: fill on terminal order")
	}
	date := s.bars[i].Date
	o.Status = domain.StatusFilled
	o.FillDate = &date
	o.FillPrice = &price
	s.record(o, i)
}

func (s *simulator) cancel(o *domain.Order, i int) {
	if o.Status.Terminal() {
		panic("engine: cancel on terminal order")
	}
	date := s.bars[i].Date
	o.Status = domain.StatusCanceled
	o.CanceledAt = &date
	s.record(o, i)
}

func (s *simulator) record(o *domain.Order, i int) {
	entry := o.Snapshot(s.params.Symbol, s.bars[i].Date)
	s.blotter = append(s.blotter, entry)
	slog.Debug("backtest: order",
		"id", o.ID,
		"side", o.Side,
		"type", o.Type,
		"status", o.Status,
		"date", domain.DateKey(s.bars[i].Date),
		"state", s.state,
	)
}

func (s *simulator) markToMarket(i int) {
	bar := s.bars[i]
	stock := decimal.NewFromFloat(bar.Close).Mul(decimal.NewFromInt(int64(s.position)))
	total := s.cash.Add(stock)
	s.calendar = append(s.calendar, domain.CalendarLedgerEntry{
		Date:       bar.Date,
		Position:   s.position,
		Close:      bar.Close,
		Cash:       s.cash.InexactFloat64(),
		StockValue: stock.InexactFloat64(),
		TotalValue: total.InexactFloat64(),
	})
}
