// Package local is the always-available on-disk tranche store, backed by
// BadgerHold. Inserted records get sequential integer identities.
package local

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"

	"TrancheTrack/internal/logging"
	"TrancheTrack/internal/model"
	"TrancheTrack/internal/store"

	"github.com/dgraph-io/badger/v4"
	"github.com/timshannon/badgerhold/v4"
)

// trancheRecord is the stored shape. Seq orders the collection and is the
// source of new identities.
type trancheRecord struct {
	ID             string
	Seq            int64
	Ticker         string
	Date           string
	PurchasePrice  float64
	BenchmarkPrice float64
	Shares         *float64
}

func toRecord(t model.Tranche, seq int64) trancheRecord {
	t = t.Clone()
	return trancheRecord{
		ID:             string(t.ID),
		Seq:            seq,
		Ticker:         t.Ticker,
		Date:           t.Date,
		PurchasePrice:  t.PurchasePrice,
		BenchmarkPrice: t.BenchmarkPrice,
		Shares:         t.Shares,
	}
}

func (r trancheRecord) tranche() model.Tranche {
	return model.Tranche{
		ID:             model.TrancheID(r.ID),
		Ticker:         r.Ticker,
		Date:           r.Date,
		PurchasePrice:  r.PurchasePrice,
		BenchmarkPrice: r.BenchmarkPrice,
		Shares:         r.Shares,
	}.Clone()
}

// Backend implements store.Backend and store.Mirror.
type Backend struct {
	db     *badgerhold.Store
	logger *logging.Logger
}

// Open opens (or creates) the store in dir.
func Open(dir string, logger *logging.Logger) (*Backend, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create local store dir: %w", err)
	}
	options := badgerhold.DefaultOptions
	options.Dir = dir
	options.ValueDir = dir
	options.Logger = nil

	db, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}
	logger.Debug().Str("path", dir).Msg("local store opened")
	return &Backend{db: db, logger: logger}, nil
}

func (b *Backend) Name() string { return "local" }

func (b *Backend) ReadAll(_ context.Context) ([]model.Tranche, error) {
	var recs []trancheRecord
	if err := b.db.Find(&recs, nil); err != nil {
		return nil, fmt.Errorf("read local tranches: %w", err)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Seq < recs[j].Seq })
	out := make([]model.Tranche, len(recs))
	for i, r := range recs {
		out[i] = r.tranche()
	}
	return out, nil
}

// maxSeq returns the highest sequence in the store as seen by tx.
func (b *Backend) maxSeq(tx *badger.Txn) (int64, error) {
	var recs []trancheRecord
	if err := b.db.TxFind(tx, &recs, nil); err != nil {
		return 0, err
	}
	var max int64
	for _, r := range recs {
		if r.Seq > max {
			max = r.Seq
		}
	}
	return max, nil
}

func (b *Backend) insertTx(tx *badger.Txn, ts []model.Tranche) ([]model.Tranche, error) {
	seq, err := b.maxSeq(tx)
	if err != nil {
		return nil, err
	}
	out := make([]model.Tranche, len(ts))
	for i, t := range ts {
		seq++
		t.ID = model.TrancheID(strconv.FormatInt(seq, 10))
		rec := toRecord(t, seq)
		if err := b.db.TxInsert(tx, rec.ID, &rec); err != nil {
			return nil, err
		}
		out[i] = rec.tranche()
	}
	return out, nil
}

func (b *Backend) Insert(_ context.Context, t model.Tranche) (model.Tranche, error) {
	var inserted []model.Tranche
	err := b.db.Badger().Update(func(tx *badger.Txn) error {
		var err error
		inserted, err = b.insertTx(tx, []model.Tranche{t})
		return err
	})
	if err != nil {
		return model.Tranche{}, fmt.Errorf("insert local tranche: %w", err)
	}
	return inserted[0], nil
}

func (b *Backend) InsertBatch(_ context.Context, ts []model.Tranche) error {
	err := b.db.Badger().Update(func(tx *badger.Txn) error {
		_, err := b.insertTx(tx, ts)
		return err
	})
	if err != nil {
		return fmt.Errorf("insert local batch: %w", err)
	}
	return nil
}

func (b *Backend) UpdateFields(_ context.Context, id model.TrancheID, p model.Patch) error {
	err := b.db.Badger().Update(func(tx *badger.Txn) error {
		var rec trancheRecord
		if err := b.db.TxGet(tx, string(id), &rec); err != nil {
			return err
		}
		t := rec.tranche()
		p.Apply(&t)
		updated := toRecord(t, rec.Seq)
		return b.db.TxUpdate(tx, string(id), &updated)
	})
	if errors.Is(err, badgerhold.ErrNotFound) {
		return store.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update local tranche %s: %w", id, err)
	}
	return nil
}

func (b *Backend) Delete(_ context.Context, id model.TrancheID) error {
	err := b.db.Delete(string(id), trancheRecord{})
	if errors.Is(err, badgerhold.ErrNotFound) {
		return store.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("delete local tranche %s: %w", id, err)
	}
	return nil
}

func (b *Backend) DeleteBatch(_ context.Context, ids []model.TrancheID) error {
	err := b.db.Badger().Update(func(tx *badger.Txn) error {
		for _, id := range ids {
			if err := b.db.TxDelete(tx, string(id), trancheRecord{}); err != nil && !errors.Is(err, badgerhold.ErrNotFound) {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete local batch: %w", err)
	}
	return nil
}

// ReplaceAll drops the collection and stores ts with their identities. New
// inserts continue after the highest numeric identity seen.
func (b *Backend) ReplaceAll(_ context.Context, ts []model.Tranche) error {
	err := b.db.Badger().Update(func(tx *badger.Txn) error {
		var recs []trancheRecord
		if err := b.db.TxFind(tx, &recs, nil); err != nil {
			return err
		}
		for _, r := range recs {
			if err := b.db.TxDelete(tx, r.ID, trancheRecord{}); err != nil {
				return err
			}
		}
		var seq int64
		for _, t := range ts {
			seq++
			if n, err := strconv.ParseInt(string(t.ID), 10, 64); err == nil && n > seq {
				seq = n
			}
			rec := toRecord(t, seq)
			if err := b.db.TxInsert(tx, rec.ID, &rec); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("replace local tranches: %w", err)
	}
	b.logger.Debug().Int("count", len(ts)).Msg("local store mirrored")
	return nil
}

func (b *Backend) Close() error {
	return b.db.Close()
}
