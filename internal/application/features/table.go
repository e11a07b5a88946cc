package features

// table.go: features y labels por día, calculados en paralelo.
//
// Cada día es independiente (ajuste de curva, volatilidad y label son funciones
// puras de una ventana fija), así que se reparten entre workers y cada resultado
// se escribe en su índice: el orden por fecha se conserva sin re-ordenar.

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/alejandrodnm/curvetrader/internal/domain"
	"golang.org/x/sync/errgroup"
)

// Table es la historia alineada por índice: Rows[i] y Labels[i] corresponden a Bars[i].
// Rows[i] es nil si i < N; Labels[i] es nil si no hay n días de futuro.
type Table struct {
	Bars   []domain.PriceBar
	Rows   []*domain.FeatureRow
	Labels []*domain.ResponseLabel
}

// Options controla el cálculo de la tabla.
type Options struct {
	Window    int     // N: velas de lookback para la volatilidad
	LimitDays int     // n: vida del limit sell
	Alpha     float64 // markup del limit sell
	Workers   int     // <= 0 usa runtime.NumCPU()
}

// Build calcula features (desde el índice N) y labels (hasta len−1−n) para bars.
// Falla con ErrMissingData si falta la curva de un día con features, o si una
// vela trae precios no positivos.
func Build(ctx context.Context, bars []domain.PriceBar, yields []domain.YieldObservation, opts Options) (*Table, error) {
	if err := ValidateBars(bars); err != nil {
		return nil, fmt.Errorf("features.Build: %w", err)
	}
	if len(bars) <= opts.Window {
		return nil, fmt.Errorf("features.Build: %d bars, need more than N=%d: %w",
			len(bars), opts.Window, domain.ErrInsufficientHistory)
	}

	curves := make(map[string]domain.YieldObservation, len(yields))
	for _, y := range yields {
		curves[domain.DateKey(y.Date)] = y
	}

	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}

	t := &Table{
		Bars:   bars,
		Rows:   make([]*domain.FeatureRow, len(bars)),
		Labels: make([]*domain.ResponseLabel, len(bars)),
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := opts.Window; i < len(bars); i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			row, err := featureRow(bars[i], curves, closes[i-opts.Window:i+1])
			if err != nil {
				return err
			}
			t.Rows[i] = &row

			if i+opts.LimitDays < len(bars) {
				lbl, err := Label(bars, i, opts.LimitDays, opts.Alpha)
				if err != nil {
					return err
				}
				t.Labels[i] = &lbl
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("features.Build: %w", err)
	}

	slog.Debug("feature table built",
		"bars", len(bars),
		"rows", len(bars)-opts.Window,
		"workers", workers,
	)
	return t, nil
}

func featureRow(bar domain.PriceBar, curves map[string]domain.YieldObservation, closes []float64) (domain.FeatureRow, error) {
	key := domain.DateKey(bar.Date)
	curve, ok := curves[key]
	if !ok {
		return domain.FeatureRow{}, fmt.Errorf("yield curve for %s: %w", key, domain.ErrMissingData)
	}
	fit, err := domain.FitYieldCurve(curve)
	if err != nil {
		return domain.FeatureRow{}, err
	}
	vol, err := domain.LogReturnVolatility(closes)
	if err != nil {
		return domain.FeatureRow{}, fmt.Errorf("volatility at %s: %w", key, err)
	}
	return domain.FeatureRow{
		Date:       bar.Date,
		A:          fit.A,
		B:          fit.B,
		R2:         fit.R2,
		Volatility: vol,
	}, nil
}

// ValidateBars exige fechas estrictamente crecientes y precios positivos.
func ValidateBars(bars []domain.PriceBar) error {
	for i, b := range bars {
		if b.Open <= 0 || b.High <= 0 || b.Low <= 0 || b.Close <= 0 {
			return fmt.Errorf("bar %s has non-positive prices: %w", domain.DateKey(b.Date), domain.ErrMissingData)
		}
		if i > 0 && !b.Date.After(bars[i-1].Date) {
			return fmt.Errorf("bars not strictly ordered at %s", domain.DateKey(b.Date))
		}
	}
	return nil
}
