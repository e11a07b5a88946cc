package domain

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// degenerateEps es la tolerancia bajo la cual una varianza se considera cero.
const degenerateEps = 1e-12

// LinearFit es el resultado de una regresión OLS y = Intercept + Slope·x.
type LinearFit struct {
	Intercept float64
	Slope     float64
	R2        float64
}

// FitLine ajusta por mínimos cuadrados una recta sobre (xs, ys).
//
// Casos degenerados, resueltos sin error:
//   - y constante: el ajuste es perfecto y trivial, (media de y, 0) con R² = 1.
//   - x constante: Slope = 0, Intercept = media de y.
func FitLine(xs, ys []float64) (LinearFit, error) {
	if len(xs) != len(ys) {
		return LinearFit{}, fmt.Errorf("domain.FitLine: len(xs)=%d != len(ys)=%d", len(xs), len(ys))
	}
	if len(xs) == 0 {
		return LinearFit{}, fmt.Errorf("domain.FitLine: no points")
	}

	if flat(ys) {
		return LinearFit{Intercept: ys[0], R2: 1}, nil
	}
	my := stat.Mean(ys, nil)
	if stat.PopVariance(ys, nil) <= degenerateEps*math.Max(1, my*my) {
		return LinearFit{Intercept: my, R2: 1}, nil
	}
	if stat.PopVariance(xs, nil) <= degenerateEps {
		return LinearFit{Intercept: my, R2: stat.RSquared(xs, ys, nil, my, 0)}, nil
	}

	alpha, beta := stat.LinearRegression(xs, ys, nil, false)
	return LinearFit{
		Intercept: alpha,
		Slope:     beta,
		R2:        stat.RSquared(xs, ys, nil, alpha, beta),
	}, nil
}

// flat reporta si todos los valores son idénticos.
func flat(xs []float64) bool {
	for _, x := range xs[1:] {
		if x != xs[0] {
			return false
		}
	}
	return true
}

// FitYieldCurve ajusta rate = a + b·maturity sobre todos los plazos del día.
// Una curva plana devuelve (rate, 0, 1).
func FitYieldCurve(obs YieldObservation) (CurveFit, error) {
	mats := obs.Maturities()
	if len(mats) == 0 {
		return CurveFit{}, fmt.Errorf("domain.FitYieldCurve: %s: %w: empty curve", DateKey(obs.Date), ErrMissingData)
	}
	rates := make([]float64, len(mats))
	for i, m := range mats {
		rates[i] = obs.Rates[m]
	}
	fit, err := FitLine(mats, rates)
	if err != nil {
		return CurveFit{}, fmt.Errorf("domain.FitYieldCurve: %s: %w", DateKey(obs.Date), err)
	}
	return CurveFit{A: fit.Intercept, B: fit.Slope, R2: fit.R2}, nil
}

// LogReturnVolatility devuelve la desviación estándar muestral (denominador
// N−1) de los log-retornos diarios de closes. Necesita al menos 3 precios.
func LogReturnVolatility(closes []float64) (float64, error) {
	if len(closes) < 3 {
		return 0, fmt.Errorf("domain.LogReturnVolatility: %d closes give %d returns, need 2: %w",
			len(closes), max(len(closes)-1, 0), ErrInsufficientHistory)
	}
	rets := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] <= 0 || closes[i] <= 0 {
			return 0, fmt.Errorf("domain.LogReturnVolatility: non-positive close at %d", i)
		}
		rets = append(rets, math.Log(closes[i]/closes[i-1]))
	}
	return SampleStdDev(rets), nil
}

// SampleStdDev es la desviación estándar con denominador n−1. Devuelve 0
// para menos de 2 valores.
func SampleStdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	return stat.StdDev(xs, nil)
}
