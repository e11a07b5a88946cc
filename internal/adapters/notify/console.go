package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/alejandrodnm/curvetrader/internal/domain"
	"github.com/olekukonko/tablewriter"
)

// Console implementa ports.Notifier.
type Console struct {
	out     io.Writer
	tables  bool // imprime features, blotter y calendar además de trades y resumen
	maxRows int  // 0 = sin límite; si no, solo las últimas maxRows filas por tabla
}

// NewConsole crea un notificador que escribe a stdout.
func NewConsole(tables bool, maxRows int) *Console {
	return &Console{out: os.Stdout, tables: tables, maxRows: maxRows}
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(w io.Writer, tables bool) *Console {
	return &Console{out: w, tables: tables}
}

// Notify imprime ledgers y métricas de un run.
func (c *Console) Notify(_ context.Context, res *domain.Result, summary *domain.PerformanceSummary) error {
	p := res.Params
	fmt.Fprintf(c.out, "\n=== BACKTEST %s %s → %s (n=%d N=%d alpha=%.2f%% lot=%d) ===\n",
		p.Symbol, domain.DateKey(p.StartDate), domain.DateKey(p.EndDate),
		p.LimitDays, p.Window, p.Alpha*100, p.LotSize)

	if c.tables {
		c.printFeatures(res.Features)
		c.printBlotter(res.Blotter)
		c.printCalendar(res.Calendar)
	}
	c.PrintTrades(res.Trades)
	c.printValue(res)
	c.printSummary(summary)
	return nil
}

// PrintTrades imprime un trade ledger.
func (c *Console) PrintTrades(trades []domain.TradeLedgerEntry) {
	fmt.Fprintf(c.out, "\n--- Trade ledger (%d) ---\n", len(trades))
	if len(trades) == 0 {
		fmt.Fprintln(c.out, "  no completed trades")
		return
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Open", "Close", "Days", "Buy", "Sell", "Bench buy", "Bench sell", "Ret", "Bench ret", "Ret/day", "Bench/day", "Exit")
	for _, t := range tail(trades, c.maxRows) {
		exit := "limit"
		if t.Forced {
			exit = "timeout"
		}
		table.Append(
			strconv.Itoa(t.TradeID),
			domain.DateKey(t.OpenDate),
			domain.DateKey(t.CloseDate),
			strconv.Itoa(t.TradingDaysOpen),
			price(t.BuyPrice),
			price(t.SellPrice),
			price(t.BenchmarkBuyPrice),
			price(t.BenchmarkSellPrice),
			pct(t.TradeReturn),
			pct(t.BenchmarkReturn),
			pct(t.TradeReturnPerDay),
			pct(t.BenchmarkReturnPerDay),
			exit,
		)
	}
	table.Render()
}

// PrintRuns imprime la lista de runs archivados.
func (c *Console) PrintRuns(runs []domain.RunRecord) {
	if len(runs) == 0 {
		fmt.Fprintln(c.out, "No saved runs")
		return
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("ID", "Created", "Symbol", "Range", "n", "N", "Alpha", "Trades", "Final value", "Alpha/trade", "Beta", "GMRR", "Sharpe")
	for _, r := range runs {
		alpha, beta, gmrr, sharpe := "-", "-", "-", "-"
		if s := r.Summary; s != nil {
			alpha = pct(s.Alpha)
			beta = fmt.Sprintf("%.3f", s.Beta)
			gmrr = pct(s.GMRR)
			sharpe = sharpeLabel(*s)
		}
		table.Append(
			r.ID,
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			r.Params.Symbol,
			domain.DateKey(r.Params.StartDate)+" → "+domain.DateKey(r.Params.EndDate),
			strconv.Itoa(r.Params.LimitDays),
			strconv.Itoa(r.Params.Window),
			pct(r.Params.Alpha),
			strconv.Itoa(r.Trades),
			money(r.FinalValue),
			alpha,
			beta,
			gmrr,
			sharpe,
		)
	}
	table.Render()
}

func (c *Console) printFeatures(rows []domain.FeatureResponse) {
	fmt.Fprintf(c.out, "\n--- Features & responses (%d) ---\n", len(rows))
	table := tablewriter.NewWriter(c.out)
	table.Header("Date", "a", "b", "R²", "Vol", "Response", "Fill date", "Fill price", "Predicted")
	for _, r := range tail(rows, c.maxRows) {
		resp, fillDate, fillPrice, pred := "-", "-", "-", "-"
		if r.Label != nil {
			resp = yesNo(r.Label.Filled)
			if r.Label.FillDate != nil {
				fillDate = domain.DateKey(*r.Label.FillDate)
			}
			if r.Label.FillPrice != nil {
				fillPrice = price(*r.Label.FillPrice)
			}
		}
		if r.Prediction != nil {
			pred = yesNo(*r.Prediction)
		}
		table.Append(
			domain.DateKey(r.Date),
			fmt.Sprintf("%.4f", r.A),
			fmt.Sprintf("%.4f", r.B),
			fmt.Sprintf("%.3f", r.R2),
			fmt.Sprintf("%.4f", r.Volatility),
			resp,
			fillDate,
			fillPrice,
			pred,
		)
	}
	table.Render()
}

func (c *Console) printBlotter(entries []domain.BlotterEntry) {
	fmt.Fprintf(c.out, "\n--- Blotter (%d) ---\n", len(entries))
	table := tablewriter.NewWriter(c.out)
	table.Header("ID", "L/S", "Submitted", "Action", "Size", "Symbol", "Price", "Type", "Status", "Fill price", "Filled/Canceled")
	for _, e := range tail(entries, c.maxRows) {
		limit, fill, closed := "-", "-", "-"
		if e.Price != nil {
			limit = price(*e.Price)
		}
		if e.FillPrice != nil {
			fill = price(*e.FillPrice)
		}
		if e.ClosedAt != nil {
			closed = domain.DateKey(*e.ClosedAt)
		}
		table.Append(
			strconv.Itoa(e.OrderID),
			e.LongShort,
			domain.DateKey(e.Submitted),
			string(e.Action),
			strconv.Itoa(e.Size),
			e.Symbol,
			limit,
			string(e.Type),
			string(e.Status),
			fill,
			closed,
		)
	}
	table.Render()
}

func (c *Console) printCalendar(entries []domain.CalendarLedgerEntry) {
	fmt.Fprintf(c.out, "\n--- Calendar ledger (%d) ---\n", len(entries))
	table := tablewriter.NewWriter(c.out)
	table.Header("Date", "Position", "Close", "Cash", "Stock value", "Total value")
	for _, e := range tail(entries, c.maxRows) {
		table.Append(
			domain.DateKey(e.Date),
			strconv.Itoa(e.Position),
			price(e.Close),
			money(e.Cash),
			money(e.StockValue),
			money(e.TotalValue),
		)
	}
	table.Render()
}

func (c *Console) printValue(res *domain.Result) {
	final := res.Params.StartingCash
	if n := len(res.Calendar); n > 0 {
		final = res.Calendar[n-1].TotalValue
	}
	fmt.Fprintf(c.out, "\n  Portfolio: %s → %s (%s)\n",
		money(res.Params.StartingCash), money(final), signedPct(final/res.Params.StartingCash-1, res.Params.StartingCash > 0))
}

func (c *Console) printSummary(s *domain.PerformanceSummary) {
	if s == nil {
		fmt.Fprintln(c.out, "\n  ⚠ Not enough trades for performance metrics (need at least 3)")
		fmt.Fprintln(c.out)
		return
	}

	fmt.Fprintf(c.out, "\n=== PERFORMANCE (%d trades, first excluded) ===\n", s.Trades)
	fmt.Fprintf(c.out, "  Alpha:        %s / trade\n", pct(s.Alpha))
	fmt.Fprintf(c.out, "  Beta:         %.3f\n", s.Beta)
	fmt.Fprintf(c.out, "  GMRR:         %s / trade\n", pct(s.GMRR))
	fmt.Fprintf(c.out, "  Trades/year:  %.0f\n", s.TradesPerYear)
	fmt.Fprintf(c.out, "  Volatility:   %s / trade\n", pct(s.Volatility))
	fmt.Fprintf(c.out, "  Sharpe:       %s\n", sharpeLabel(*s))
	fmt.Fprintln(c.out)
}

// --- helpers ---

func tail[T any](rows []T, limit int) []T {
	if limit <= 0 || len(rows) <= limit {
		return rows
	}
	return rows[len(rows)-limit:]
}

func sharpeLabel(s domain.PerformanceSummary) string {
	if !s.SharpeDefined {
		return "undefined"
	}
	return fmt.Sprintf("%.3f", s.Sharpe)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func price(v float64) string { return fmt.Sprintf("%.2f", v) }
func money(v float64) string { return fmt.Sprintf("$%.2f", v) }
func pct(v float64) string   { return fmt.Sprintf("%.4f%%", v*100) }

func signedPct(v float64, ok bool) string {
	if !ok {
		return "n/a"
	}
	return fmt.Sprintf("%+.2f%%", v*100)
}
