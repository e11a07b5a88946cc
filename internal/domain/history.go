package domain

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// DateLayout es el formato canónico de fechas de trading.
const DateLayout = "2006-01-02"

// tradingDaysPerYear y calendarDaysPerYear convierten días hábiles a naturales.
const (
	tradingDaysPerYear  = 252.0
	calendarDaysPerYear = 365.0
)

// PriceBar es una vela diaria del activo negociado. Inmutable.
type PriceBar struct {
	Date  time.Time
	Open  float64
	High  float64
	Low   float64
	Close float64
}

// YieldObservation es la curva CMT de un día: maturity (años) → tasa anual.
type YieldObservation struct {
	Date  time.Time
	Rates map[float64]float64
}

// Maturities devuelve los plazos de la curva ordenados de menor a mayor.
func (y YieldObservation) Maturities() []float64 {
	out := make([]float64, 0, len(y.Rates))
	for m := range y.Rates {
		out = append(out, m)
	}
	sort.Float64s(out)
	return out
}

// Day normaliza un instante a medianoche UTC para usarlo como clave de día.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateKey es la representación "2006-01-02" de un día.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseMaturity convierte un nombre de columna CMT ("1 mo", "2 yr", "13 wk")
// en años fraccionarios.
func ParseMaturity(s string) (float64, error) {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(s)))
	if len(fields) != 2 {
		return 0, fmt.Errorf("domain.ParseMaturity: %q: want \"<count> <unit>\"", s)
	}
	count, err := strconv.ParseFloat(fields[0], 64)
	if err != nil || count <= 0 {
		return 0, fmt.Errorf("domain.ParseMaturity: %q: bad count", s)
	}
	switch strings.TrimSuffix(fields[1], "s") {
	case "mo", "mth", "month":
		return count / 12, nil
	case "wk", "week":
		return count / 52, nil
	case "yr", "year", "y":
		return count, nil
	case "day", "d":
		return count / calendarDaysPerYear, nil
	}
	return 0, fmt.Errorf("domain.ParseMaturity: %q: unknown unit %q", s, fields[1])
}

// RequiredBars es la cantidad de velas previas al primer día del backtest:
// N para la primera fila de features, N filas etiquetadas para entrenar,
// y n días para que la última etiqueta haya vencido.
func RequiredBars(bigN, n int) int {
	return 2*bigN + n
}

// LookbackDays convierte RequiredBars a días naturales para pedir historia
// antes de start_date.
func LookbackDays(bigN, n int) int {
	return int(math.Ceil(float64(RequiredBars(bigN, n)) * calendarDaysPerYear / tradingDaysPerYear))
}
