package csvdata

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/alejandrodnm/curvetrader/internal/domain"
)

// Nombres de archivo que escribe Export.
const (
	FeaturesFile = "features.csv"
	BlotterFile  = "blotter.csv"
	CalendarFile = "calendar_ledger.csv"
	TradesFile   = "trade_ledger.csv"
)

// Export escribe las cuatro tablas de un run en dir (lo crea si no existe).
func Export(dir string, res *domain.Result) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("csvdata.Export: mkdir: %w", err)
	}
	files := []struct {
		name  string
		write func(io.Writer) error
	}{
		{FeaturesFile, func(w io.Writer) error { return WriteFeatures(w, res.Features) }},
		{BlotterFile, func(w io.Writer) error { return WriteBlotter(w, res.Blotter) }},
		{CalendarFile, func(w io.Writer) error { return WriteCalendar(w, res.Calendar) }},
		{TradesFile, func(w io.Writer) error { return WriteTrades(w, res.Trades) }},
	}
	for _, f := range files {
		if err := writeFile(filepath.Join(dir, f.name), f.write); err != nil {
			return fmt.Errorf("csvdata.Export: %w", err)
		}
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %q: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %q: %w", path, err)
	}
	return f.Close()
}

// WriteFeatures escribe la tabla features/responses.
func WriteFeatures(w io.Writer, rows []domain.FeatureResponse) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"date", "a", "b", "r2", "vol", "response", "fill_date", "fill_price", "prediction"}); err != nil {
		return fmt.Errorf("csvdata.WriteFeatures: %w", err)
	}
	for _, r := range rows {
		rec := []string{domain.DateKey(r.Date), ffmt(r.A), ffmt(r.B), ffmt(r.R2), ffmt(r.Volatility), "", "", "", ""}
		if r.Label != nil {
			rec[5] = strconv.FormatBool(r.Label.Filled)
			rec[6] = dfmt(r.Label.FillDate)
			rec[7] = pfmt(r.Label.FillPrice)
		}
		if r.Prediction != nil {
			rec[8] = strconv.FormatBool(*r.Prediction)
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("csvdata.WriteFeatures: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteBlotter escribe el historial de órdenes.
func WriteBlotter(w io.Writer, entries []domain.BlotterEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "ls", "submitted", "action", "size", "symbol", "price", "type", "status", "fill_price", "closed"}); err != nil {
		return fmt.Errorf("csvdata.WriteBlotter: %w", err)
	}
	for _, e := range entries {
		if err := cw.Write([]string{
			strconv.Itoa(e.OrderID),
			e.LongShort,
			domain.DateKey(e.Submitted),
			string(e.Action),
			strconv.Itoa(e.Size),
			e.Symbol,
			pfmt(e.Price),
			string(e.Type),
			string(e.Status),
			pfmt(e.FillPrice),
			dfmt(e.ClosedAt),
		}); err != nil {
			return fmt.Errorf("csvdata.WriteBlotter: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCalendar escribe el mark-to-market diario.
func WriteCalendar(w io.Writer, entries []domain.CalendarLedgerEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"date", "position", "close", "cash", "stock_value", "total_value"}); err != nil {
		return fmt.Errorf("csvdata.WriteCalendar: %w", err)
	}
	for _, e := range entries {
		if err := cw.Write([]string{
			domain.DateKey(e.Date),
			strconv.Itoa(e.Position),
			ffmt(e.Close),
			ffmt(e.Cash),
			ffmt(e.StockValue),
			ffmt(e.TotalValue),
		}); err != nil {
			return fmt.Errorf("csvdata.WriteCalendar: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTrades escribe el ledger de round trips.
func WriteTrades(w io.Writer, trades []domain.TradeLedgerEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{
		"trade_id", "open_date", "close_date", "trading_days_open",
		"buy_price", "sell_price", "benchmark_buy_price", "benchmark_sell_price",
		"trade_return", "benchmark_return", "trade_return_per_day", "benchmark_return_per_day",
	}); err != nil {
		return fmt.Errorf("csvdata.WriteTrades: %w", err)
	}
	for _, t := range trades {
		if err := cw.Write([]string{
			strconv.Itoa(t.TradeID),
			domain.DateKey(t.OpenDate),
			domain.DateKey(t.CloseDate),
			strconv.Itoa(t.TradingDaysOpen),
			ffmt(t.BuyPrice),
			ffmt(t.SellPrice),
			ffmt(t.BenchmarkBuyPrice),
			ffmt(t.BenchmarkSellPrice),
			ffmt(t.TradeReturn),
			ffmt(t.BenchmarkReturn),
			ffmt(t.TradeReturnPerDay),
			ffmt(t.BenchmarkReturnPerDay),
		}); err != nil {
			return fmt.Errorf("csvdata.WriteTrades: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func ffmt(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func pfmt(v *float64) string {
	if v == nil {
		return ""
	}
	return ffmt(*v)
}

func dfmt(t *time.Time) string {
	if t == nil {
		return ""
	}
	return domain.DateKey(*t)
}
