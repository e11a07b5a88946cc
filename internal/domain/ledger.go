package domain

import "time"

// CalendarLedgerEntry is the end-of-day mark-to-market of the portfolio.
// Cash + StockValue == TotalValue and StockValue == Position × Close.
type CalendarLedgerEntry struct {
	Date       time.Time
	Position   int
	Close      float64
	Cash       float64
	StockValue float64
	TotalValue float64
}

// TradeLedgerEntry is one completed round trip. Immutable once emitted.
type TradeLedgerEntry struct {
	TradeID               int
	OpenDate              time.Time
	CloseDate             time.Time
	TradingDaysOpen       int
	BuyPrice              float64
	SellPrice             float64
	BenchmarkBuyPrice     float64
	BenchmarkSellPrice    float64
	TradeReturn           float64
	BenchmarkReturn       float64
	TradeReturnPerDay     float64
	BenchmarkReturnPerDay float64
	Forced                bool // closed by the n-day timeout at market
}

// NewTradeLedgerEntry computes returns for a closed round trip. Returns are
// simple (sell/buy − 1); the per-day figures divide by TradingDaysOpen.
func NewTradeLedgerEntry(id int, openDate, closeDate time.Time, days int, buy, sell, benchBuy, benchSell float64, forced bool) TradeLedgerEntry {
	e := TradeLedgerEntry{
		TradeID:            id,
		OpenDate:           openDate,
		CloseDate:          closeDate,
		TradingDaysOpen:    days,
		BuyPrice:           buy,
		SellPrice:          sell,
		BenchmarkBuyPrice:  benchBuy,
		BenchmarkSellPrice: benchSell,
		Forced:             forced,
	}
	if buy > 0 {
		e.TradeReturn = sell/buy - 1
	}
	if benchBuy > 0 {
		e.BenchmarkReturn = benchSell/benchBuy - 1
	}
	if days > 0 {
		e.TradeReturnPerDay = e.TradeReturn / float64(days)
		e.BenchmarkReturnPerDay = e.BenchmarkReturn / float64(days)
	}
	return e
}

// PerformanceSummary is the strategy-vs-benchmark report over the trade ledger.
type PerformanceSummary struct {
	Trades        int // trades used (the first one is excluded)
	Alpha         float64
	Beta          float64
	GMRR          float64
	TradesPerYear float64
	Volatility    float64
	Sharpe        float64
	SharpeDefined bool // false when Volatility == 0
}

// FitLine evaluates the alpha/beta regression line at a benchmark return.
func (p PerformanceSummary) FitLine(benchmarkReturnPerDay float64) float64 {
	return p.Alpha + p.Beta*benchmarkReturnPerDay
}

// Result is everything one backtest run produces.
type Result struct {
	Params   Params
	Features []FeatureResponse
	Blotter  []BlotterEntry
	Calendar []CalendarLedgerEntry
	Trades   []TradeLedgerEntry
}

// RunRecord is the archived header of a backtest run.
type RunRecord struct {
	ID         string
	CreatedAt  time.Time
	Params     Params
	Trades     int
	FinalValue float64
	Summary    *PerformanceSummary // nil when fewer than two usable trades
}
