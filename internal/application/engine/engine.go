package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/alejandrodnm/curvetrader/internal/application/classifier"
	"github.com/alejandrodnm/curvetrader/internal/application/features"
	"github.com/alejandrodnm/curvetrader/internal/domain"
	"github.com/alejandrodnm/curvetrader/internal/ports"
)

// holidaySlackDays pads the history request so market holidays inside the
// lookback do not leave the run short of bars.
const holidaySlackDays = 10

// Config holds settings that change how a run is computed, never its result.
type Config struct {
	Workers int // parallelism for features and predictions; <= 0 uses NumCPU
}

// Engine loads history through a HistoryProvider and runs backtests on it.
type Engine struct {
	history ports.HistoryProvider
	cfg     Config
}

// New creates a backtest engine.
func New(history ports.HistoryProvider, cfg Config) *Engine {
	return &Engine{history: history, cfg: cfg}
}

// Run fetches the history params needs and runs the backtest.
func (e *Engine) Run(ctx context.Context, params domain.Params) (*domain.Result, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("engine.Run: %w", err)
	}
	from := params.StartDate.AddDate(0, 0, -(domain.LookbackDays(params.Window, params.LimitDays) + holidaySlackDays))

	bars, err := e.history.PriceBars(ctx, params.Symbol, from, params.EndDate)
	if err != nil {
		return nil, fmt.Errorf("engine.Run: price history: %w", err)
	}
	yields, err := e.history.YieldCurves(ctx, from, params.EndDate)
	if err != nil {
		return nil, fmt.Errorf("engine.Run: yield history: %w", err)
	}
	return Backtest(ctx, bars, yields, params, e.cfg)
}

// Backtest runs the walk-forward strategy over bars between params.StartDate
// and params.EndDate. It is a pure function of its inputs: identical inputs
// give identical ledgers.
//
// bars must hold at least domain.RequiredBars(N, n) = 2N+n trading days
// before params.StartDate (N for the first feature row, N labelled rows for
// the first training window, n days for their labels to close); with fewer it
// returns ErrInsufficientHistory. Engine.Run sizes its history request for this.
func Backtest(
	ctx context.Context,
	bars []domain.PriceBar,
	yields []domain.YieldObservation,
	params domain.Params,
	cfg Config,
) (*domain.Result, error) {
	started := time.Now()
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("engine.Backtest: %w", err)
	}
	if err := features.ValidateBars(bars); err != nil {
		return nil, fmt.Errorf("engine.Backtest: %w", err)
	}

	start, end := domain.Day(params.StartDate), domain.Day(params.EndDate)
	first := sort.Search(len(bars), func(i int) bool { return !bars[i].Date.Before(start) })
	last := sort.Search(len(bars), func(i int) bool { return bars[i].Date.After(end) }) - 1
	if first > last {
		return nil, fmt.Errorf("engine.Backtest: no bars between %s and %s: %w",
			domain.DateKey(start), domain.DateKey(end), domain.ErrMissingData)
	}

	need := domain.RequiredBars(params.Window, params.LimitDays)
	if first < need {
		return nil, fmt.Errorf("engine.Backtest: %d bars before %s, need %d (N=%d, n=%d): %w",
			first, domain.DateKey(start), need, params.Window, params.LimitDays, domain.ErrInsufficientHistory)
	}

	window := bars[first-need : last+1]
	s, e := need, len(window)-1

	tbl, err := features.Build(ctx, window, yields, features.Options{
		Window:    params.Window,
		LimitDays: params.LimitDays,
		Alpha:     params.Alpha,
		Workers:   cfg.Workers,
	})
	if err != nil {
		return nil, fmt.Errorf("engine.Backtest: %w", err)
	}

	preds, err := classifier.PredictRange(ctx, tbl.Rows, tbl.Labels, s, e, params.Window, params.LimitDays, cfg.Workers)
	if err != nil {
		return nil, fmt.Errorf("engine.Backtest: %w", err)
	}

	sim := newSimulator(params, window)
	for t := s; t <= e; t++ {
		sim.step(t, preds[t-s], t < e)
	}

	result := &domain.Result{
		Params:   params,
		Features: featureTable(tbl, preds, s, e, params.Window),
		Blotter:  sim.blotter,
		Calendar: sim.calendar,
		Trades:   sim.trades,
	}

	slog.Info("backtest complete",
		"symbol", params.Symbol,
		"from", domain.DateKey(window[s].Date),
		"to", domain.DateKey(window[e].Date),
		"days", e-s+1,
		"orders", len(sim.orders),
		"trades", len(sim.trades),
		"final_state", sim.state,
		"elapsed", time.Since(started),
	)
	return result, nil
}

// featureTable joins features, labels and predictions for every day with a
// feature row. Predictions exist only for the run days [s, e].
func featureTable(tbl *features.Table, preds []bool, s, e, window int) []domain.FeatureResponse {
	out := make([]domain.FeatureResponse, 0, e-window+1)
	for i := window; i <= e; i++ {
		fr := domain.FeatureResponse{FeatureRow: *tbl.Rows[i], Label: tbl.Labels[i]}
		if i >= s {
			p := preds[i-s]
			fr.Prediction = &p
		}
		out = append(out, fr)
	}
	return out
}
