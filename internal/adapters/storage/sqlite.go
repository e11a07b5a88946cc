package storage

// sqlite.go: archivo de runs de backtest.
//
// Tablas:
//   - `runs`: una fila por run con parámetros y resumen de performance.
//   - `trades`, `calendar`, `blotter`: ledgers del run, borrados en cascada.
//
// Los retornos del trade ledger no se guardan: se recalculan al leer a partir
// de precios y días, igual que en el simulador.

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/alejandrodnm/curvetrader/internal/domain"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// createdLayout tiene ancho fijo para que ORDER BY created_at sea cronológico.
const createdLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrRunNotFound se devuelve cuando el ID no corresponde a ningún run guardado.
var ErrRunNotFound = errors.New("storage: run not found")

const schema = `
PRAGMA foreign_keys = ON;

CREATE TABLE IF NOT EXISTS runs (
    id              TEXT PRIMARY KEY,
    created_at      TEXT    NOT NULL,
    symbol          TEXT    NOT NULL,
    limit_days      INTEGER NOT NULL,
    window_size     INTEGER NOT NULL,
    alpha           REAL    NOT NULL,
    lot_size        INTEGER NOT NULL,
    starting_cash   REAL    NOT NULL,
    start_date      TEXT    NOT NULL,
    end_date        TEXT    NOT NULL,
    trades          INTEGER NOT NULL DEFAULT 0,
    final_value     REAL    NOT NULL DEFAULT 0,
    has_summary     INTEGER NOT NULL DEFAULT 0,
    perf_trades     INTEGER NOT NULL DEFAULT 0,
    perf_alpha      REAL    NOT NULL DEFAULT 0,
    perf_beta       REAL    NOT NULL DEFAULT 0,
    gmrr            REAL    NOT NULL DEFAULT 0,
    trades_per_year REAL    NOT NULL DEFAULT 0,
    volatility      REAL    NOT NULL DEFAULT 0,
    sharpe          REAL    NOT NULL DEFAULT 0,
    sharpe_defined  INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS trades (
    run_id               TEXT    NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    trade_id             INTEGER NOT NULL,
    open_date            TEXT    NOT NULL,
    close_date           TEXT    NOT NULL,
    trading_days_open    INTEGER NOT NULL,
    buy_price            REAL    NOT NULL,
    sell_price           REAL    NOT NULL,
    benchmark_buy_price  REAL    NOT NULL,
    benchmark_sell_price REAL    NOT NULL,
    forced               INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (run_id, trade_id)
);

CREATE TABLE IF NOT EXISTS calendar (
    run_id      TEXT    NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    date        TEXT    NOT NULL,
    position    INTEGER NOT NULL,
    close       REAL    NOT NULL,
    cash        REAL    NOT NULL,
    stock_value REAL    NOT NULL,
    total_value REAL    NOT NULL,
    PRIMARY KEY (run_id, date)
);

CREATE TABLE IF NOT EXISTS blotter (
    run_id      TEXT    NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    seq         INTEGER NOT NULL,
    order_id    INTEGER NOT NULL,
    submitted   TEXT    NOT NULL,
    side        TEXT    NOT NULL,
    size        INTEGER NOT NULL,
    symbol      TEXT    NOT NULL,
    price       REAL,
    type        TEXT    NOT NULL,
    status      TEXT    NOT NULL,
    fill_price  REAL,
    closed_at   TEXT,
    recorded_at TEXT    NOT NULL,
    PRIMARY KEY (run_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at DESC);
`

// SQLiteStorage implementa ports.RunStorage usando SQLite (pure Go, sin CGo).
type SQLiteStorage struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada y aplica el schema.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}
	return &SQLiteStorage{db: db, now: time.Now}, nil
}

// SaveRun persiste parámetros, resumen y ledgers en una transacción.
// summary puede ser nil.
func (s *SQLiteStorage) SaveRun(ctx context.Context, res *domain.Result, summary *domain.PerformanceSummary) (string, error) {
	id := uuid.NewString()
	p := res.Params

	finalValue := p.StartingCash
	if n := len(res.Calendar); n > 0 {
		finalValue = res.Calendar[n-1].TotalValue
	}
	var perf domain.PerformanceSummary
	if summary != nil {
		perf = *summary
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("storage.SaveRun: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO runs
			(id, created_at, symbol, limit_days, window_size, alpha, lot_size, starting_cash,
			 start_date, end_date, trades, final_value, has_summary, perf_trades,
			 perf_alpha, perf_beta, gmrr, trades_per_year, volatility, sharpe, sharpe_defined)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id,
		s.now().UTC().Format(createdLayout),
		p.Symbol,
		p.LimitDays,
		p.Window,
		p.Alpha,
		p.LotSize,
		p.StartingCash,
		domain.DateKey(p.StartDate),
		domain.DateKey(p.EndDate),
		len(res.Trades),
		finalValue,
		boolInt(summary != nil),
		perf.Trades,
		perf.Alpha,
		perf.Beta,
		perf.GMRR,
		perf.TradesPerYear,
		perf.Volatility,
		perf.Sharpe,
		boolInt(perf.SharpeDefined),
	); err != nil {
		return "", fmt.Errorf("storage.SaveRun: insert run: %w", err)
	}

	if err := insertTrades(ctx, tx, id, res.Trades); err != nil {
		return "", fmt.Errorf("storage.SaveRun: %w", err)
	}
	if err := insertCalendar(ctx, tx, id, res.Calendar); err != nil {
		return "", fmt.Errorf("storage.SaveRun: %w", err)
	}
	if err := insertBlotter(ctx, tx, id, res.Blotter); err != nil {
		return "", fmt.Errorf("storage.SaveRun: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("storage.SaveRun: commit: %w", err)
	}
	return id, nil
}

// ListRuns devuelve los runs guardados, del más reciente al más antiguo.
func (s *SQLiteStorage) ListRuns(ctx context.Context) ([]domain.RunRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, symbol, limit_days, window_size, alpha, lot_size, starting_cash,
		       start_date, end_date, trades, final_value, has_summary, perf_trades,
		       perf_alpha, perf_beta, gmrr, trades_per_year, volatility, sharpe, sharpe_defined
		FROM runs
		ORDER BY created_at DESC, rowid DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("storage.ListRuns: query: %w", err)
	}
	defer rows.Close()

	var runs []domain.RunRecord
	for rows.Next() {
		var (
			rec                           domain.RunRecord
			perf                          domain.PerformanceSummary
			createdAt, startDate, endDate string
			hasSummary, sharpeDefined     int
		)
		if err := rows.Scan(
			&rec.ID,
			&createdAt,
			&rec.Params.Symbol,
			&rec.Params.LimitDays,
			&rec.Params.Window,
			&rec.Params.Alpha,
			&rec.Params.LotSize,
			&rec.Params.StartingCash,
			&startDate,
			&endDate,
			&rec.Trades,
			&rec.FinalValue,
			&hasSummary,
			&perf.Trades,
			&perf.Alpha,
			&perf.Beta,
			&perf.GMRR,
			&perf.TradesPerYear,
			&perf.Volatility,
			&perf.Sharpe,
			&sharpeDefined,
		); err != nil {
			return nil, fmt.Errorf("storage.ListRuns: scan row: %w", err)
		}

		if rec.CreatedAt, err = time.Parse(createdLayout, createdAt); err != nil {
			return nil, fmt.Errorf("storage.ListRuns: run %s: created_at: %w", rec.ID, err)
		}
		if rec.Params.StartDate, err = parseDay(startDate); err != nil {
			return nil, fmt.Errorf("storage.ListRuns: run %s: start_date: %w", rec.ID, err)
		}
		if rec.Params.EndDate, err = parseDay(endDate); err != nil {
			return nil, fmt.Errorf("storage.ListRuns: run %s: end_date: %w", rec.ID, err)
		}
		if hasSummary == 1 {
			perf.SharpeDefined = sharpeDefined == 1
			rec.Summary = &perf
		}
		runs = append(runs, rec)
	}
	return runs, rows.Err()
}

// GetTradeLedger devuelve el trade ledger de un run ordenado por trade_id.
func (s *SQLiteStorage) GetTradeLedger(ctx context.Context, runID string) ([]domain.TradeLedgerEntry, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM runs WHERE id = ?`, runID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("storage.GetTradeLedger: %s: %w", runID, ErrRunNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("storage.GetTradeLedger: lookup run: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT trade_id, open_date, close_date, trading_days_open, buy_price, sell_price,
		       benchmark_buy_price, benchmark_sell_price, forced
		FROM trades
		WHERE run_id = ?
		ORDER BY trade_id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("storage.GetTradeLedger: query: %w", err)
	}
	defer rows.Close()

	var trades []domain.TradeLedgerEntry
	for rows.Next() {
		var (
			id, days, forced               int
			openStr, closeStr              string
			buy, sell, benchBuy, benchSell float64
		)
		if err := rows.Scan(&id, &openStr, &closeStr, &days, &buy, &sell, &benchBuy, &benchSell, &forced); err != nil {
			return nil, fmt.Errorf("storage.GetTradeLedger: scan row: %w", err)
		}
		openDate, err := parseDay(openStr)
		if err != nil {
			return nil, fmt.Errorf("storage.GetTradeLedger: trade %d: %w", id, err)
		}
		closeDate, err := parseDay(closeStr)
		if err != nil {
			return nil, fmt.Errorf("storage.GetTradeLedger: trade %d: %w", id, err)
		}
		trades = append(trades, domain.NewTradeLedgerEntry(id, openDate, closeDate, days, buy, sell, benchBuy, benchSell, forced == 1))
	}
	return trades, rows.Err()
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// --- helpers internos ---

func insertTrades(ctx context.Context, tx *sql.Tx, runID string, trades []domain.TradeLedgerEntry) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO trades
			(run_id, trade_id, open_date, close_date, trading_days_open, buy_price,
			 sell_price, benchmark_buy_price, benchmark_sell_price, forced)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare trades: %w", err)
	}
	defer stmt.Close()

	for _, t := range trades {
		if _, err := stmt.ExecContext(ctx,
			runID,
			t.TradeID,
			domain.DateKey(t.OpenDate),
			domain.DateKey(t.CloseDate),
			t.TradingDaysOpen,
			t.BuyPrice,
			t.SellPrice,
			t.BenchmarkBuyPrice,
			t.BenchmarkSellPrice,
			boolInt(t.Forced),
		); err != nil {
			return fmt.Errorf("insert trade %d: %w", t.TradeID, err)
		}
	}
	return nil
}

func insertCalendar(ctx context.Context, tx *sql.Tx, runID string, entries []domain.CalendarLedgerEntry) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO calendar (run_id, date, position, close, cash, stock_value, total_value)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare calendar: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx,
			runID, domain.DateKey(e.Date), e.Position, e.Close, e.Cash, e.StockValue, e.TotalValue,
		); err != nil {
			return fmt.Errorf("insert calendar %s: %w", domain.DateKey(e.Date), err)
		}
	}
	return nil
}

func insertBlotter(ctx context.Context, tx *sql.Tx, runID string, entries []domain.BlotterEntry) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO blotter
			(run_id, seq, order_id, submitted, side, size, symbol, price, type,
			 status, fill_price, closed_at, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare blotter: %w", err)
	}
	defer stmt.Close()

	for i, e := range entries {
		var closedAt *string
		if e.ClosedAt != nil {
			k := domain.DateKey(*e.ClosedAt)
			closedAt = &k
		}
		if _, err := stmt.ExecContext(ctx,
			runID,
			i,
			e.OrderID,
			domain.DateKey(e.Submitted),
			string(e.Action),
			e.Size,
			e.Symbol,
			e.Price,
			string(e.Type),
			string(e.Status),
			e.FillPrice,
			closedAt,
			domain.DateKey(e.RecordedAt),
		); err != nil {
			return fmt.Errorf("insert blotter order %d: %w", e.OrderID, err)
		}
	}
	return nil
}

func parseDay(s string) (time.Time, error) {
	return time.Parse(domain.DateLayout, s)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
