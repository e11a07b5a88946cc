package features

import (
	"fmt"

	"github.com/alejandrodnm/curvetrader/internal/domain"
)

// Label simula el limit sell que se armaría tras comprar en la apertura de i+1:
// precio objetivo open(i+1)·(1+alpha), revisado contra el high de los días
// i+1 … i+n. Nunca mira más allá de i+n.
//
// Devuelve ErrInsufficientHistory si no existen n días de futuro.
func Label(bars []domain.PriceBar, i, n int, alpha float64) (domain.ResponseLabel, error) {
	if i < 0 || i+n >= len(bars) || n < 1 {
		return domain.ResponseLabel{}, fmt.Errorf("features.Label: index %d needs %d days of lookahead, have %d: %w",
			i, n, len(bars)-1-i, domain.ErrInsufficientHistory)
	}

	lbl := domain.ResponseLabel{Date: bars[i].Date}
	target := bars[i+1].Open * (1 + alpha)

	for k := 1; k <= n; k++ {
		day := bars[i+k]
		if day.High >= target {
			date, price := day.Date, target
			lbl.Filled = true
			lbl.FillDate = &date
			lbl.FillPrice = &price
			break
		}
	}
	return lbl, nil
}
