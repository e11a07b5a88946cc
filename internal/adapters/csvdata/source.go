package csvdata

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alejandrodnm/curvetrader/internal/domain"
)

// symbolPlaceholder se reemplaza por el símbolo en Files.Prices.
const symbolPlaceholder = "{symbol}"

// Files ubica los CSV de historia dentro de Dir.
type Files struct {
	Dir    string
	Prices string // e.g. "{symbol}_hist.csv"
	Yields string // e.g. "cmt_rates.csv"
}

// Source implementa ports.HistoryProvider leyendo CSV locales.
type Source struct {
	files Files
}

// NewSource crea un proveedor de historia basado en archivos.
func NewSource(files Files) *Source {
	return &Source{files: files}
}

// PriceBars lee las velas de symbol y las filtra a [from, to].
func (s *Source) PriceBars(_ context.Context, symbol string, from, to time.Time) ([]domain.PriceBar, error) {
	name := strings.ReplaceAll(s.files.Prices, symbolPlaceholder, strings.ToLower(symbol))
	path := filepath.Join(s.files.Dir, name)

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("csvdata.PriceBars: open %q: %w", path, err)
	}
	defer f.Close()

	bars, err := ReadPriceBars(f)
	if err != nil {
		return nil, fmt.Errorf("csvdata.PriceBars: %q: %w", path, err)
	}

	lo, hi := domain.Day(from), domain.Day(to)
	out := bars[:0]
	for _, b := range bars {
		if !b.Date.Before(lo) && !b.Date.After(hi) {
			out = append(out, b)
		}
	}
	return out, nil
}

// YieldCurves lee las curvas CMT y las filtra a [from, to].
func (s *Source) YieldCurves(_ context.Context, from, to time.Time) ([]domain.YieldObservation, error) {
	path := filepath.Join(s.files.Dir, s.files.Yields)

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("csvdata.YieldCurves: open %q: %w", path, err)
	}
	defer f.Close()

	curves, err := ReadYieldCurves(f)
	if err != nil {
		return nil, fmt.Errorf("csvdata.YieldCurves: %q: %w", path, err)
	}

	lo, hi := domain.Day(from), domain.Day(to)
	out := curves[:0]
	for _, c := range curves {
		if !c.Date.Before(lo) && !c.Date.After(hi) {
			out = append(out, c)
		}
	}
	return out, nil
}
