package metrics

// prometheus.go: métricas de un run para el textfile collector de node_exporter.
// Un backtest es un proceso corto: no hay endpoint /metrics, se escribe un
// archivo al terminar.

import (
	"fmt"
	"time"

	"github.com/alejandrodnm/curvetrader/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder acumula métricas de runs en un registry propio.
type Recorder struct {
	registry   *prometheus.Registry
	trades     *prometheus.GaugeVec
	finalValue *prometheus.GaugeVec
	duration   *prometheus.GaugeVec
	gmrr       *prometheus.GaugeVec
	sharpe     *prometheus.GaugeVec
}

// New crea un Recorder con registry aislado.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	labels := []string{"symbol"}

	return &Recorder{
		registry: reg,
		trades: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "backtest_trades_completed",
			Help: "Round trips completed in the last backtest run",
		}, labels),
		finalValue: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "backtest_final_total_value",
			Help: "Portfolio total value at the end of the last run",
		}, labels),
		duration: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "backtest_run_duration_seconds",
			Help: "Wall-clock duration of the last run",
		}, labels),
		gmrr: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "backtest_gmrr",
			Help: "Geometric mean return per trade",
		}, labels),
		sharpe: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "backtest_sharpe",
			Help: "Per-trade Sharpe ratio (absent when volatility is zero)",
		}, labels),
	}
}

// RecordRun registra el resultado de un run. summary puede ser nil.
func (r *Recorder) RecordRun(res *domain.Result, summary *domain.PerformanceSummary, elapsed time.Duration) {
	symbol := res.Params.Symbol

	final := res.Params.StartingCash
	if n := len(res.Calendar); n > 0 {
		final = res.Calendar[n-1].TotalValue
	}
	r.trades.WithLabelValues(symbol).Set(float64(len(res.Trades)))
	r.finalValue.WithLabelValues(symbol).Set(final)
	r.duration.WithLabelValues(symbol).Set(elapsed.Seconds())

	r.gmrr.DeleteLabelValues(symbol)
	r.sharpe.DeleteLabelValues(symbol)
	if summary == nil {
		return
	}
	r.gmrr.WithLabelValues(symbol).Set(summary.GMRR)
	if summary.SharpeDefined {
		r.sharpe.WithLabelValues(symbol).Set(summary.Sharpe)
	}
}

// Gatherer expone el registry (tests y exportadores externos).
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// WriteTextfile escribe las métricas en formato texto de Prometheus.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("metrics.WriteTextfile: %w", err)
	}
	return nil
}
