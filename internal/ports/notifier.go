package ports

import (
	"context"

	"github.com/alejandrodnm/curvetrader/internal/domain"
)

// Notifier presenta el resultado de un backtest al usuario.
type Notifier interface {
	// Notify muestra ledgers y métricas. summary es nil si no hubo
	// suficientes trades para calcularlas.
	Notify(ctx context.Context, result *domain.Result, summary *domain.PerformanceSummary) error
}
