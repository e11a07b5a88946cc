package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/curvetrader/internal/domain"
)

// HistoryProvider entrega la historia diaria que consume el backtest.
// Los rangos son inclusivos y los resultados vienen ordenados por fecha.
type HistoryProvider interface {
	// PriceBars devuelve las velas diarias de symbol entre from y to.
	PriceBars(ctx context.Context, symbol string, from, to time.Time) ([]domain.PriceBar, error)

	// YieldCurves devuelve las curvas CMT entre from y to.
	YieldCurves(ctx context.Context, from, to time.Time) ([]domain.YieldObservation, error)
}
