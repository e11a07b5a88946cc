package ports

import (
	"context"

	"github.com/alejandrodnm/curvetrader/internal/domain"
)

// RunStorage archiva los resultados de cada backtest para consultarlos después.
// El engine nunca lee de aquí: cada run es independiente.
type RunStorage interface {
	// SaveRun persiste un run completo y devuelve su ID.
	SaveRun(ctx context.Context, result *domain.Result, summary *domain.PerformanceSummary) (string, error)

	// ListRuns devuelve los runs guardados, del más reciente al más antiguo.
	ListRuns(ctx context.Context) ([]domain.RunRecord, error)

	// GetTradeLedger devuelve el trade ledger de un run.
	GetTradeLedger(ctx context.Context, runID string) ([]domain.TradeLedgerEntry, error)

	// Close cierra la conexión a la base de datos limpiamente.
	Close() error
}
