package recorder

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"TrancheTrack/internal/logging"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists historical data to a SQLite database.
type SQLiteRecorder struct {
	db     *sql.DB
	mu     sync.Mutex
	logger *logging.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, logger *logging.Logger) (*SQLiteRecorder, error) {
	if logger == nil {
		logger = logging.NewSilent()
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL so dashboards can read while the bot writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, logger: logger}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS refreshes (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			benchmark REAL,
			priced    INTEGER NOT NULL,
			failed    TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_refreshes_ts ON refreshes(timestamp)`,

		`CREATE TABLE IF NOT EXISTS ticker_snapshots (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			refresh_id INTEGER NOT NULL REFERENCES refreshes(id),
			timestamp  INTEGER NOT NULL,
			ticker     TEXT NOT NULL,
			price      REAL,
			avg_cost   REAL,
			oscillator REAL,
			ema        REAL,
			rsi        REAL,
			stoch_k    REAL,
			stoch_d    REAL,
			sar        REAL,
			sar_trend  TEXT,
			score      INTEGER,
			label      TEXT,
			zone       TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_ticker_ts ON ticker_snapshots(ticker, timestamp)`,

		`CREATE TABLE IF NOT EXISTS tranche_events (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp  INTEGER NOT NULL,
			action     TEXT NOT NULL,
			tranche_id TEXT,
			ticker     TEXT,
			detail     TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tranche_events_ts ON tranche_events(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordRefresh(ctx context.Context, rec *RefreshRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	ts := rec.At.Unix()
	priced := 0
	for _, t := range rec.Tickers {
		if t.Price != nil {
			priced++
		}
	}
	res, err := tx.ExecContext(ctx, `INSERT INTO refreshes (timestamp, benchmark, priced, failed) VALUES (?,?,?,?)`,
		ts, nullFloat(rec.Benchmark), priced, strings.Join(rec.Failed, ","))
	if err != nil {
		return fmt.Errorf("insert refresh: %w", err)
	}
	refreshID, err := res.LastInsertId()
	if err != nil {
		return err
	}

	for _, t := range rec.Tickers {
		var (
			ema, rsi, stochK, stochD, sar, osc sql.NullFloat64
			sarTrend, label, zone              sql.NullString
			score                              sql.NullInt64
		)
		if ind := t.Indicators; ind != nil {
			ema, rsi = nullFloat(ind.EMA), nullFloat(ind.RSI)
			if ind.Stoch != nil {
				stochK = sql.NullFloat64{Float64: ind.Stoch.K, Valid: true}
				stochD = nullFloat(ind.Stoch.D)
			}
			if ind.SAR != nil {
				sar = sql.NullFloat64{Float64: ind.SAR.Value, Valid: true}
				sarTrend = sql.NullString{String: string(ind.SAR.Trend), Valid: true}
			}
		}
		if sig := t.Signal; sig != nil {
			score = sql.NullInt64{Int64: int64(sig.Score), Valid: true}
			label = sql.NullString{String: string(sig.Label), Valid: true}
			zone = sql.NullString{String: string(sig.Zone), Valid: true}
			osc = nullFloat(sig.Oscillator)
		}
		_, err := tx.ExecContext(ctx, `INSERT INTO ticker_snapshots
			(refresh_id, timestamp, ticker, price, avg_cost, oscillator,
			 ema, rsi, stoch_k, stoch_d, sar, sar_trend, score, label, zone)
			VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
			refreshID, ts, t.Ticker, nullFloat(t.Price), nullFloat(t.AvgCost), osc,
			ema, rsi, stochK, stochD, sar, sarTrend, score, label, zone,
		)
		if err != nil {
			return fmt.Errorf("insert snapshot %s: %w", t.Ticker, err)
		}
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) RecordTrancheEvent(ctx context.Context, evt *TrancheEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.ExecContext(ctx, `INSERT INTO tranche_events
		(timestamp, action, tranche_id, ticker, detail)
		VALUES (?,?,?,?,?)`,
		time.Now().Unix(), evt.Action, string(evt.TrancheID), evt.Ticker, evt.Detail,
	)
	return err
}

// History returns the latest recorded points for ticker, newest first.
func (r *SQLiteRecorder) History(ctx context.Context, ticker string, limit int) ([]HistoryPoint, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT timestamp, price, score, label
		FROM ticker_snapshots WHERE ticker = ? ORDER BY timestamp DESC, id DESC LIMIT ?`, ticker, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []HistoryPoint
	for rows.Next() {
		var (
			p     HistoryPoint
			ts    int64
			price sql.NullFloat64
			score sql.NullInt64
			label sql.NullString
		)
		if err := rows.Scan(&ts, &price, &score, &label); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		p.At = time.Unix(ts, 0)
		if price.Valid {
			v := price.Float64
			p.Price = &v
		}
		if score.Valid {
			v := int(score.Int64)
			p.Score = &v
		}
		p.Label = label.String
		out = append(out, p)
	}
	return out, rows.Err()
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func (r *SQLiteRecorder) Close() error {
	r.logger.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
