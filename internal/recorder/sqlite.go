package recorder

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"MarketAnalyzer/internal/logging"
	"MarketAnalyzer/internal/model"
)

// SQLiteRecorder persists indicator snapshots to a SQLite database.
// Undefined indicators are stored as NULL.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log *zap.Logger
	now func() time.Time
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, log *zap.Logger) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// Enable WAL mode for concurrent reads
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, log: logging.OrNop(log).Named("recorder"), now: time.Now}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	r.log.Info("sqlite recorder opened", zap.String("path", dbPath))
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS indicator_snapshots (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id       TEXT NOT NULL,
			recorded_at  INTEGER NOT NULL,
			symbol       TEXT NOT NULL,
			bar_interval TEXT NOT NULL,
			source       TEXT,
			bar_date     TEXT NOT NULL,
			bars         INTEGER,
			close        REAL,
			sma_20       REAL,
			ema_20       REAL,
			rsi_14       REAL,
			macd         REAL,
			macd_signal  REAL,
			macd_hist    REAL,
			bb_lower     REAL,
			bb_middle    REAL,
			bb_upper     REAL,
			UNIQUE (symbol, bar_interval, bar_date)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_symbol_date ON indicator_snapshots(symbol, bar_date)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_run ON indicator_snapshots(run_id)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func nullable(v model.Value) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v.Float64, Valid: v.Valid}
}

func fromNullable(n sql.NullFloat64) model.Value {
	return model.Value{Float64: n.Float64, Valid: n.Valid}
}

// RecordAnalysis stores a. A later analysis of the same symbol, interval and
// bar date replaces the earlier one. Analyses without bars are skipped.
func (r *SQLiteRecorder) RecordAnalysis(ctx context.Context, runID string, a *model.Analysis) error {
	if a.Bars == 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	ind := a.Indicators
	_, err := r.db.ExecContext(ctx, `INSERT INTO indicator_snapshots
		(run_id, recorded_at, symbol, bar_interval, source, bar_date, bars, close,
		 sma_20, ema_20, rsi_14, macd, macd_signal, macd_hist,
		 bb_lower, bb_middle, bb_upper)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT (symbol, bar_interval, bar_date) DO UPDATE SET
			run_id = excluded.run_id, recorded_at = excluded.recorded_at,
			source = excluded.source, bars = excluded.bars, close = excluded.close,
			sma_20 = excluded.sma_20, ema_20 = excluded.ema_20, rsi_14 = excluded.rsi_14,
			macd = excluded.macd, macd_signal = excluded.macd_signal, macd_hist = excluded.macd_hist,
			bb_lower = excluded.bb_lower, bb_middle = excluded.bb_middle, bb_upper = excluded.bb_upper`,
		runID, r.now().Unix(), strings.ToUpper(a.Symbol), a.Interval, a.Source,
		a.LastDate.Format(time.DateOnly), a.Bars, a.LastClose,
		nullable(ind.SMA20), nullable(ind.EMA20), nullable(ind.RSI14),
		nullable(ind.MACD), nullable(ind.MACDSignal), nullable(ind.MACDHist),
		nullable(ind.BBLower), nullable(ind.BBMiddle), nullable(ind.BBUpper),
	)
	if err != nil {
		return fmt.Errorf("record %s: %w", a.Symbol, err)
	}
	return nil
}

func (r *SQLiteRecorder) Recent(ctx context.Context, symbol string, limit int) ([]Snapshot, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT
		run_id, recorded_at, symbol, bar_interval, COALESCE(source, ''), bar_date, bars, close,
		sma_20, ema_20, rsi_14, macd, macd_signal, macd_hist, bb_lower, bb_middle, bb_upper
		FROM indicator_snapshots WHERE symbol = ?
		ORDER BY bar_date DESC LIMIT ?`, strings.ToUpper(symbol), limit)
	if err != nil {
		return nil, fmt.Errorf("query %s snapshots: %w", symbol, err)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var (
			s          Snapshot
			recordedAt int64
			barDate    string
			vals       [9]sql.NullFloat64
		)
		if err := rows.Scan(&s.RunID, &recordedAt, &s.Symbol, &s.Interval, &s.Source, &barDate, &s.Bars, &s.Close,
			&vals[0], &vals[1], &vals[2], &vals[3], &vals[4], &vals[5], &vals[6], &vals[7], &vals[8]); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		d, err := time.Parse(time.DateOnly, barDate)
		if err != nil {
			return nil, fmt.Errorf("parse bar_date %q: %w", barDate, err)
		}
		s.RecordedAt = time.Unix(recordedAt, 0)
		s.Indicators = model.IndicatorSet{
			Date:       d,
			SMA20:      fromNullable(vals[0]),
			EMA20:      fromNullable(vals[1]),
			RSI14:      fromNullable(vals[2]),
			MACD:       fromNullable(vals[3]),
			MACDSignal: fromNullable(vals[4]),
			MACDHist:   fromNullable(vals[5]),
			BBLower:    fromNullable(vals[6]),
			BBMiddle:   fromNullable(vals[7]),
			BBUpper:    fromNullable(vals[8]),
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info("closing sqlite recorder")
	return r.db.Close()
}
