package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/curvetrader/internal/adapters/csvdata"
	"github.com/alejandrodnm/curvetrader/internal/adapters/metrics"
	"github.com/alejandrodnm/curvetrader/internal/adapters/notify"
	"github.com/alejandrodnm/curvetrader/internal/adapters/storage"
	"github.com/alejandrodnm/curvetrader/internal/application/engine"
	"github.com/alejandrodnm/curvetrader/internal/application/performance"
	"github.com/alejandrodnm/curvetrader/internal/domain"
	"github.com/alejandrodnm/curvetrader/internal/ports"
	"github.com/spf13/cobra"
)

type runFlags struct {
	symbol      string
	limitDays   int
	window      int
	alpha       float64
	lotSize     int
	cash        float64
	start       string
	end         string
	dataDir     string
	workers     int
	save        bool
	outDir      string
	metricsFile string
	tables      bool
	maxRows     int
}

func newRunCmd(a *app) *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a backtest over the configured date range",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.run(cmd, f)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.symbol, "symbol", "", "traded symbol (overrides config)")
	fl.IntVarP(&f.limitDays, "limit-days", "n", 0, "limit order lifetime in trading days")
	fl.IntVarP(&f.window, "window", "N", 0, "training and volatility window")
	fl.Float64Var(&f.alpha, "alpha", 0, "limit markup over the buy fill")
	fl.IntVar(&f.lotSize, "lot", 0, "shares per round trip")
	fl.Float64Var(&f.cash, "cash", 0, "starting cash")
	fl.StringVar(&f.start, "start", "", "first run date (YYYY-MM-DD)")
	fl.StringVar(&f.end, "end", "", "last run date (YYYY-MM-DD)")
	fl.StringVar(&f.dataDir, "data", "", "directory with the history CSVs")
	fl.IntVar(&f.workers, "workers", 0, "feature/prediction workers (0 = config)")
	fl.BoolVar(&f.save, "save", false, "archive the run in SQLite")
	fl.StringVar(&f.outDir, "out", "", "export ledgers as CSV into this directory")
	fl.StringVar(&f.metricsFile, "metrics-file", "", "write Prometheus textfile metrics here")
	fl.BoolVar(&f.tables, "table", false, "print features, blotter and calendar ledger")
	fl.IntVar(&f.maxRows, "rows", 20, "rows shown per table (0 = all)")
	return cmd
}

func (a *app) run(cmd *cobra.Command, f *runFlags) error {
	ctx := cmd.Context()
	params, err := f.apply(cmd, a.cfg.Backtest)
	if err != nil {
		return err
	}
	if f.dataDir != "" {
		a.cfg.Data.Dir = f.dataDir
	}
	workers := a.cfg.Engine.Workers
	if f.workers > 0 {
		workers = f.workers
	}

	slog.Info("backtester starting",
		"config", a.configPath,
		"symbol", params.Symbol,
		"start", domain.DateKey(params.StartDate),
		"end", domain.DateKey(params.EndDate),
		"data_dir", a.cfg.Data.Dir,
	)

	src := csvdata.NewSource(csvdata.Files{Dir: a.cfg.Data.Dir, Prices: a.cfg.Data.Prices, Yields: a.cfg.Data.Yields})
	eng := engine.New(src, engine.Config{Workers: workers})

	started := time.Now()
	res, err := eng.Run(ctx, params)
	if err != nil {
		return fmt.Errorf("backtest: %w", err)
	}
	elapsed := time.Since(started)

	var summary *domain.PerformanceSummary
	s, err := performance.Analyze(res.Trades)
	switch {
	case err == nil:
		summary = &s
	case errors.Is(err, domain.ErrInsufficientTrades):
		slog.Warn("performance metrics skipped", "trades", len(res.Trades), "err", err)
	default:
		return fmt.Errorf("performance: %w", err)
	}

	var notifier ports.Notifier = notify.NewConsole(f.tables, f.maxRows)
	if err := notifier.Notify(ctx, res, summary); err != nil {
		slog.Warn("notifier error", "err", err)
	}

	if f.outDir != "" {
		if err := csvdata.Export(f.outDir, res); err != nil {
			return err
		}
		slog.Info("ledgers exported", "dir", f.outDir)
	}

	if f.save {
		store, err := storage.NewSQLiteStorage(a.cfg.Storage.DSN)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := saveRun(ctx, store, res, summary); err != nil {
			return err
		}
	}

	path := a.cfg.Metrics.Textfile
	if f.metricsFile != "" {
		path = f.metricsFile
	}
	if path != "" {
		rec := metrics.New()
		rec.RecordRun(res, summary, elapsed)
		if err := rec.WriteTextfile(path); err != nil {
			return err
		}
		slog.Debug("metrics written", "path", path)
	}

	slog.Info("backtest complete", "trades", len(res.Trades), "elapsed", elapsed.Round(time.Millisecond))
	return nil
}

func saveRun(ctx context.Context, store ports.RunStorage, res *domain.Result, summary *domain.PerformanceSummary) error {
	id, err := store.SaveRun(ctx, res, summary)
	if err != nil {
		return err
	}
	slog.Info("run saved", "id", id)
	return nil
}

// apply sobreescribe los parámetros del config con los flags que se pasaron.
func (f *runFlags) apply(cmd *cobra.Command, p domain.Params) (domain.Params, error) {
	fl := cmd.Flags()
	if fl.Changed("symbol") {
		p.Symbol = f.symbol
	}
	if fl.Changed("limit-days") {
		p.LimitDays = f.limitDays
	}
	if fl.Changed("window") {
		p.Window = f.window
	}
	if fl.Changed("alpha") {
		p.Alpha = f.alpha
	}
	if fl.Changed("lot") {
		p.LotSize = f.lotSize
	}
	if fl.Changed("cash") {
		p.StartingCash = f.cash
	}
	if fl.Changed("start") {
		t, err := time.Parse(domain.DateLayout, f.start)
		if err != nil {
			return p, fmt.Errorf("--start: %w", err)
		}
		p.StartDate = t
	}
	if fl.Changed("end") {
		t, err := time.Parse(domain.DateLayout, f.end)
		if err != nil {
			return p, fmt.Errorf("--end: %w", err)
		}
		p.EndDate = t
	}
	return p, nil
}
