package csvdata

// reader.go: historia diaria desde CSV.
//
// Velas: cabecera Date,Open,High,Low,Close (mayúsculas indiferentes, columnas
// extra ignoradas). Curvas CMT: Date + una columna por plazo con nombres del
// Treasury ("1 mo", "2 yr", ...). Celdas vacías o "N/A" se omiten.

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/alejandrodnm/curvetrader/internal/domain"
)

var dateLayouts = []string{
	domain.DateLayout,
	"01/02/2006",
	"1/2/2006",
	"01/02/06",
}

// ReadPriceBars parsea velas diarias y las devuelve ordenadas por fecha.
func ReadPriceBars(r io.Reader) ([]domain.PriceBar, error) {
	rows, header, err := readAll(r)
	if err != nil {
		return nil, fmt.Errorf("csvdata.ReadPriceBars: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	cols := []string{"date", "open", "high", "low", "close"}
	for _, c := range cols {
		if _, ok := idx[c]; !ok {
			return nil, fmt.Errorf("csvdata.ReadPriceBars: missing column %q", c)
		}
	}

	bars := make([]domain.PriceBar, 0, len(rows))
	for line, rec := range rows {
		date, err := parseDate(rec[idx["date"]])
		if err != nil {
			return nil, fmt.Errorf("csvdata.ReadPriceBars: line %d: %w", line+2, err)
		}
		var vals [4]float64
		for k, c := range cols[1:] {
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[idx[c]]), 64)
			if err != nil {
				return nil, fmt.Errorf("csvdata.ReadPriceBars: line %d: %s: %w", line+2, c, err)
			}
			vals[k] = v
		}
		bars = append(bars, domain.PriceBar{Date: date, Open: vals[0], High: vals[1], Low: vals[2], Close: vals[3]})
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	for i := 1; i < len(bars); i++ {
		if bars[i].Date.Equal(bars[i-1].Date) {
			return nil, fmt.Errorf("csvdata.ReadPriceBars: duplicate date %s", domain.DateKey(bars[i].Date))
		}
	}
	return bars, nil
}

// ReadYieldCurves parsea curvas CMT y las devuelve ordenadas por fecha.
func ReadYieldCurves(r io.Reader) ([]domain.YieldObservation, error) {
	rows, header, err := readAll(r)
	if err != nil {
		return nil, fmt.Errorf("csvdata.ReadYieldCurves: %w", err)
	}

	dateCol := -1
	maturities := make(map[int]float64)
	for i, h := range header {
		name := strings.TrimSpace(h)
		if strings.EqualFold(name, "date") {
			dateCol = i
			continue
		}
		m, err := domain.ParseMaturity(name)
		if err != nil {
			return nil, fmt.Errorf("csvdata.ReadYieldCurves: column %d: %w", i+1, err)
		}
		maturities[i] = m
	}
	if dateCol < 0 {
		return nil, fmt.Errorf("csvdata.ReadYieldCurves: missing column \"Date\"")
	}

	out := make([]domain.YieldObservation, 0, len(rows))
	seen := make(map[string]bool, len(rows))
	for line, rec := range rows {
		date, err := parseDate(rec[dateCol])
		if err != nil {
			return nil, fmt.Errorf("csvdata.ReadYieldCurves: line %d: %w", line+2, err)
		}
		key := domain.DateKey(date)
		if seen[key] {
			return nil, fmt.Errorf("csvdata.ReadYieldCurves: duplicate date %s", key)
		}
		seen[key] = true

		obs := domain.YieldObservation{Date: date, Rates: make(map[float64]float64, len(maturities))}
		for col, m := range maturities {
			cell := strings.TrimSpace(rec[col])
			if cell == "" || strings.EqualFold(cell, "N/A") {
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("csvdata.ReadYieldCurves: line %d: %s: %w", line+2, header[col], err)
			}
			obs.Rates[m] = v
		}
		out = append(out, obs)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func readAll(r io.Reader) ([][]string, []string, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, fmt.Errorf("empty file")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read rows: %w", err)
	}
	return rows, header, nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return domain.Day(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}
