// Package sqlite stores tranches in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	"TrancheTrack/internal/logging"
	"TrancheTrack/internal/model"
	"TrancheTrack/internal/store"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Backend implements store.Backend and store.Mirror on SQLite.
type Backend struct {
	db     *sql.DB
	mu     sync.Mutex
	logger *logging.Logger
}

// Open opens (or creates) the database at path and runs migrations.
func Open(path string, logger *logging.Logger) (*Backend, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	b := &Backend{db: db, logger: logger}
	if err := b.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	logger.Info().Str("path", path).Msg("sqlite tranche store opened")
	return b, nil
}

func (b *Backend) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS tranches (
			seq             INTEGER PRIMARY KEY AUTOINCREMENT,
			id              TEXT NOT NULL UNIQUE,
			ticker          TEXT NOT NULL,
			purchase_date   TEXT NOT NULL,
			purchase_price  REAL NOT NULL,
			benchmark_price REAL NOT NULL,
			shares          REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tranches_ticker ON tranches(ticker)`,
	}
	for _, s := range stmts {
		if _, err := b.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (b *Backend) Name() string { return "sqlite" }

func (b *Backend) ReadAll(ctx context.Context) ([]model.Tranche, error) {
	rows, err := b.db.QueryContext(ctx, `SELECT id, ticker, purchase_date, purchase_price, benchmark_price, shares
		FROM tranches ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("read tranches: %w", err)
	}
	defer rows.Close()

	var out []model.Tranche
	for rows.Next() {
		var (
			t      model.Tranche
			id     string
			shares sql.NullFloat64
		)
		if err := rows.Scan(&id, &t.Ticker, &t.Date, &t.PurchasePrice, &t.BenchmarkPrice, &shares); err != nil {
			return nil, fmt.Errorf("scan tranche: %w", err)
		}
		t.ID = model.TrancheID(id)
		if shares.Valid {
			t.Shares = model.Float(shares.Float64)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertRow(ctx context.Context, ex execer, t model.Tranche) error {
	var shares any
	if t.Shares != nil {
		shares = *t.Shares
	}
	_, err := ex.ExecContext(ctx, `INSERT INTO tranches
		(id, ticker, purchase_date, purchase_price, benchmark_price, shares)
		VALUES (?,?,?,?,?,?)`,
		string(t.ID), t.Ticker, t.Date, t.PurchasePrice, t.BenchmarkPrice, shares,
	)
	return err
}

func newID() model.TrancheID {
	return model.TrancheID(uuid.New().String())
}

func (b *Backend) Insert(ctx context.Context, t model.Tranche) (model.Tranche, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	t = t.Clone()
	t.ID = newID()
	if err := insertRow(ctx, b.db, t); err != nil {
		return model.Tranche{}, fmt.Errorf("insert tranche: %w", err)
	}
	return t, nil
}

// inTx runs fn in one transaction.
func (b *Backend) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (b *Backend) InsertBatch(ctx context.Context, ts []model.Tranche) error {
	err := b.inTx(ctx, func(tx *sql.Tx) error {
		for _, t := range ts {
			t = t.Clone()
			t.ID = newID()
			if err := insertRow(ctx, tx, t); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("insert batch: %w", err)
	}
	return nil
}

// updateStatement builds the UPDATE for a patch; ok is false for an empty one.
func updateStatement(id model.TrancheID, p model.Patch) (query string, args []any, ok bool) {
	var sets []string
	if p.PurchasePrice != nil {
		sets = append(sets, "purchase_price = ?")
		args = append(args, *p.PurchasePrice)
	}
	if p.BenchmarkPrice != nil {
		sets = append(sets, "benchmark_price = ?")
		args = append(args, *p.BenchmarkPrice)
	}
	if p.Date != nil {
		sets = append(sets, "purchase_date = ?")
		args = append(args, *p.Date)
	}
	if p.ClearShares {
		sets = append(sets, "shares = NULL")
	} else if p.Shares != nil {
		sets = append(sets, "shares = ?")
		args = append(args, *p.Shares)
	}
	if len(sets) == 0 {
		return "", nil, false
	}
	args = append(args, string(id))
	return "UPDATE tranches SET " + strings.Join(sets, ", ") + " WHERE id = ?", args, true
}

func (b *Backend) UpdateFields(ctx context.Context, id model.TrancheID, p model.Patch) error {
	query, args, ok := updateStatement(id, p)
	if !ok {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	res, err := b.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update tranche %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (b *Backend) Delete(ctx context.Context, id model.TrancheID) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	res, err := b.db.ExecContext(ctx, "DELETE FROM tranches WHERE id = ?", string(id))
	if err != nil {
		return fmt.Errorf("delete tranche %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (b *Backend) DeleteBatch(ctx context.Context, ids []model.TrancheID) error {
	err := b.inTx(ctx, func(tx *sql.Tx) error {
		for _, id := range ids {
			if _, err := tx.ExecContext(ctx, "DELETE FROM tranches WHERE id = ?", string(id)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete batch: %w", err)
	}
	return nil
}

// ReplaceAll swaps the whole collection for ts, keeping their identities.
func (b *Backend) ReplaceAll(ctx context.Context, ts []model.Tranche) error {
	err := b.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM tranches"); err != nil {
			return err
		}
		for _, t := range ts {
			if err := insertRow(ctx, tx, t); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("replace tranches: %w", err)
	}
	return nil
}

func (b *Backend) Close() error {
	b.logger.Info().Msg("closing sqlite tranche store")
	return b.db.Close()
}
