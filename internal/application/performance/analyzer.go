package performance

// analyzer.go: métricas de la estrategia contra el benchmark.
//
// El primer trade del ledger se descarta: no tiene un baseline previo del
// benchmark. Sobre el resto:
//   - alpha/beta: OLS de trade_return_per_day sobre benchmark_return_per_day
//   - GMRR: media geométrica de (1 + trade_return_per_day) − 1
//   - volatilidad: desviación estándar muestral de trade_return_per_day
//   - Sharpe: GMRR / volatilidad (indefinido si la volatilidad es 0)

import (
	"fmt"
	"math"

	"github.com/alejandrodnm/curvetrader/internal/domain"
)

// minTrades es el mínimo de trades usables para regresión y desviación estándar.
const minTrades = 2

// Analyze calcula el resumen de performance del trade ledger.
// Devuelve ErrInsufficientTrades si quedan menos de 2 trades tras descartar el primero.
func Analyze(trades []domain.TradeLedgerEntry) (domain.PerformanceSummary, error) {
	if len(trades) < minTrades+1 {
		return domain.PerformanceSummary{}, fmt.Errorf("performance.Analyze: %d trades, need %d: %w",
			len(trades), minTrades+1, domain.ErrInsufficientTrades)
	}
	used := trades[1:]

	xs := make([]float64, len(used))
	ys := make([]float64, len(used))
	logSum := 0.0
	for i, t := range used {
		xs[i] = t.BenchmarkReturnPerDay
		ys[i] = t.TradeReturnPerDay
		logSum += math.Log1p(t.TradeReturnPerDay)
	}

	fit, err := domain.FitLine(xs, ys)
	if err != nil {
		return domain.PerformanceSummary{}, fmt.Errorf("performance.Analyze: %w", err)
	}

	summary := domain.PerformanceSummary{
		Trades:        len(used),
		Alpha:         fit.Intercept,
		Beta:          fit.Slope,
		GMRR:          math.Expm1(logSum / float64(len(used))),
		TradesPerYear: tradesPerYear(used),
		Volatility:    domain.SampleStdDev(ys),
	}
	if summary.Volatility > 0 {
		summary.Sharpe = summary.GMRR / summary.Volatility
		summary.SharpeDefined = true
	}
	return summary, nil
}

// tradesPerYear agrupa por año de apertura y promedia los conteos.
func tradesPerYear(trades []domain.TradeLedgerEntry) float64 {
	byYear := make(map[int]int)
	for _, t := range trades {
		byYear[t.OpenDate.Year()]++
	}
	if len(byYear) == 0 {
		return 0
	}
	return float64(len(trades)) / float64(len(byYear))
}
