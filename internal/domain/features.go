package domain

import "time"

// CurveFit es el ajuste lineal rate = A + B·maturity de una curva.
type CurveFit struct {
	A  float64
	B  float64
	R2 float64
}

// FeatureRow es el vector de features de un día de trading.
type FeatureRow struct {
	Date       time.Time
	A          float64
	B          float64
	R2         float64
	Volatility float64
}

// Vector devuelve los features en el orden que usa el clasificador.
func (f FeatureRow) Vector() []float64 {
	return []float64{f.A, f.B, f.R2, f.Volatility}
}

// ResponseLabel dice si un limit sell a open(d+1)·(1+alpha) se habría llenado
// en los n días siguientes. Se calcula con lookahead: solo sirve para entrenar.
type ResponseLabel struct {
	Date      time.Time
	Filled    bool
	FillDate  *time.Time
	FillPrice *float64
}

// FeatureResponse es una fila de la tabla features/responses que ve la UI.
// Label es nil si aún no hay n días de futuro; Prediction es nil si el día
// no se evaluó (fuera del rango del backtest).
type FeatureResponse struct {
	FeatureRow
	Label      *ResponseLabel
	Prediction *bool
}
