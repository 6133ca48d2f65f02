// Package surreal stores tranches as documents in SurrealDB.
package surreal

import (
	"context"
	"fmt"
	"strings"
	"time"

	"TrancheTrack/internal/logging"
	"TrancheTrack/internal/model"
	"TrancheTrack/internal/store"

	"github.com/google/uuid"
	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

const table = "tranche"

// selectFields aliases tranche_id to id for struct mapping.
const selectFields = `tranche_id as id, ticker, purchase_date, purchase_price, benchmark_price, shares, position`

// Config holds connection settings.
type Config struct {
	Address   string
	Username  string
	Password  string
	Namespace string
	Database  string
}

type trancheDoc struct {
	ID             string   `json:"id"`
	Ticker         string   `json:"ticker"`
	PurchaseDate   string   `json:"purchase_date"`
	PurchasePrice  float64  `json:"purchase_price"`
	BenchmarkPrice float64  `json:"benchmark_price"`
	Shares         *float64 `json:"shares,omitempty"`
	Position       int64    `json:"position"`
}

func (d trancheDoc) tranche() model.Tranche {
	return model.Tranche{
		ID:             model.TrancheID(d.ID),
		Ticker:         d.Ticker,
		Date:           d.PurchaseDate,
		PurchasePrice:  d.PurchasePrice,
		BenchmarkPrice: d.BenchmarkPrice,
		Shares:         d.Shares,
	}.Clone()
}

// Backend implements store.Backend on SurrealDB.
type Backend struct {
	db     *surrealdb.DB
	logger *logging.Logger
	now    func() time.Time
}

// Open connects, signs in and ensures the tranche table exists.
func Open(ctx context.Context, cfg Config, logger *logging.Logger) (*Backend, error) {
	db, err := surrealdb.New(cfg.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SurrealDB: %w", err)
	}
	if _, err := db.SignIn(ctx, map[string]interface{}{
		"user": cfg.Username,
		"pass": cfg.Password,
	}); err != nil {
		return nil, fmt.Errorf("failed to sign in to SurrealDB: %w", err)
	}
	if err := db.Use(ctx, cfg.Namespace, cfg.Database); err != nil {
		return nil, fmt.Errorf("failed to select namespace/database: %w", err)
	}
	sql := fmt.Sprintf("DEFINE TABLE IF NOT EXISTS %s SCHEMALESS", table)
	if _, err := surrealdb.Query[any](ctx, db, sql, nil); err != nil {
		return nil, fmt.Errorf("failed to define table %s: %w", table, err)
	}

	logger.Info().
		Str("address", cfg.Address).
		Str("namespace", cfg.Namespace).
		Str("database", cfg.Database).
		Msg("SurrealDB tranche store initialized")
	return &Backend{db: db, logger: logger, now: time.Now}, nil
}

func (b *Backend) Name() string { return "surrealdb" }

func newID() string {
	return fmt.Sprintf("tr_%s", uuid.New().String()[:8])
}

func (b *Backend) ReadAll(ctx context.Context) ([]model.Tranche, error) {
	sql := "SELECT " + selectFields + " FROM " + table + " ORDER BY position"
	results, err := surrealdb.Query[[]trancheDoc](ctx, b.db, sql, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read tranches: %w", err)
	}
	var out []model.Tranche
	if results != nil && len(*results) > 0 {
		for _, d := range (*results)[0].Result {
			out = append(out, d.tranche())
		}
	}
	return out, nil
}

// upsertClause writes one UPSERT statement with variables suffixed by n.
func upsertClause(d trancheDoc, n int, vars map[string]any) string {
	s := func(name string) string { return fmt.Sprintf("%s_%d", name, n) }
	vars[s("rid")] = surrealmodels.NewRecordID(table, d.ID)
	vars[s("tranche_id")] = d.ID
	vars[s("ticker")] = d.Ticker
	vars[s("purchase_date")] = d.PurchaseDate
	vars[s("purchase_price")] = d.PurchasePrice
	vars[s("benchmark_price")] = d.BenchmarkPrice
	vars[s("position")] = d.Position

	sets := []string{
		"tranche_id = $" + s("tranche_id"),
		"ticker = $" + s("ticker"),
		"purchase_date = $" + s("purchase_date"),
		"purchase_price = $" + s("purchase_price"),
		"benchmark_price = $" + s("benchmark_price"),
		"position = $" + s("position"),
	}
	if d.Shares != nil {
		vars[s("shares")] = *d.Shares
		sets = append(sets, "shares = $"+s("shares"))
	}
	return "UPSERT $" + s("rid") + " SET " + strings.Join(sets, ", ") + ";"
}

// batchInsert builds one transaction inserting every doc.
func batchInsert(docs []trancheDoc) (string, map[string]any) {
	vars := map[string]any{}
	var b strings.Builder
	b.WriteString("BEGIN TRANSACTION;\n")
	for i, d := range docs {
		b.WriteString(upsertClause(d, i, vars))
		b.WriteString("\n")
	}
	b.WriteString("COMMIT TRANSACTION;")
	return b.String(), vars
}

func (b *Backend) docsFor(ts []model.Tranche) []trancheDoc {
	base := b.now().UnixNano()
	docs := make([]trancheDoc, len(ts))
	for i, t := range ts {
		t = t.Clone()
		docs[i] = trancheDoc{
			ID:             newID(),
			Ticker:         t.Ticker,
			PurchaseDate:   t.Date,
			PurchasePrice:  t.PurchasePrice,
			BenchmarkPrice: t.BenchmarkPrice,
			Shares:         t.Shares,
			Position:       base + int64(i),
		}
	}
	return docs
}

func (b *Backend) Insert(ctx context.Context, t model.Tranche) (model.Tranche, error) {
	docs := b.docsFor([]model.Tranche{t})
	vars := map[string]any{}
	sql := upsertClause(docs[0], 0, vars)
	if _, err := surrealdb.Query[any](ctx, b.db, sql, vars); err != nil {
		return model.Tranche{}, fmt.Errorf("failed to insert tranche: %w", err)
	}
	return docs[0].tranche(), nil
}

func (b *Backend) InsertBatch(ctx context.Context, ts []model.Tranche) error {
	if len(ts) == 0 {
		return nil
	}
	sql, vars := batchInsert(b.docsFor(ts))
	if _, err := surrealdb.Query[any](ctx, b.db, sql, vars); err != nil {
		return fmt.Errorf("failed to insert tranche batch: %w", err)
	}
	return nil
}

// updateQuery builds the UPDATE for a patch; ok is false for an empty one.
func updateQuery(id model.TrancheID, p model.Patch) (string, map[string]any, bool) {
	vars := map[string]any{"rid": surrealmodels.NewRecordID(table, string(id))}
	var sets []string
	if p.PurchasePrice != nil {
		sets = append(sets, "purchase_price = $purchase_price")
		vars["purchase_price"] = *p.PurchasePrice
	}
	if p.BenchmarkPrice != nil {
		sets = append(sets, "benchmark_price = $benchmark_price")
		vars["benchmark_price"] = *p.BenchmarkPrice
	}
	if p.Date != nil {
		sets = append(sets, "purchase_date = $purchase_date")
		vars["purchase_date"] = *p.Date
	}
	if p.ClearShares {
		sets = append(sets, "shares = NONE")
	} else if p.Shares != nil {
		sets = append(sets, "shares = $shares")
		vars["shares"] = *p.Shares
	}
	if len(sets) == 0 {
		return "", nil, false
	}
	return "UPDATE $rid SET " + strings.Join(sets, ", ") + " RETURN AFTER", vars, true
}

func (b *Backend) UpdateFields(ctx context.Context, id model.TrancheID, p model.Patch) error {
	sql, vars, ok := updateQuery(id, p)
	if !ok {
		return nil
	}
	results, err := surrealdb.Query[[]trancheDoc](ctx, b.db, sql, vars)
	if err != nil {
		return fmt.Errorf("failed to update tranche %s: %w", id, err)
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (b *Backend) Delete(ctx context.Context, id model.TrancheID) error {
	_, err := surrealdb.Delete[trancheDoc](ctx, b.db, surrealmodels.NewRecordID(table, string(id)))
	if err != nil && !isNotFoundError(err) {
		return fmt.Errorf("failed to delete tranche %s: %w", id, err)
	}
	return nil
}

// batchDelete builds one transaction deleting every id.
func batchDelete(ids []model.TrancheID) (string, map[string]any) {
	vars := map[string]any{}
	var b strings.Builder
	b.WriteString("BEGIN TRANSACTION;\n")
	for i, id := range ids {
		name := fmt.Sprintf("rid_%d", i)
		vars[name] = surrealmodels.NewRecordID(table, string(id))
		b.WriteString("DELETE $" + name + ";\n")
	}
	b.WriteString("COMMIT TRANSACTION;")
	return b.String(), vars
}

func (b *Backend) DeleteBatch(ctx context.Context, ids []model.TrancheID) error {
	if len(ids) == 0 {
		return nil
	}
	sql, vars := batchDelete(ids)
	if _, err := surrealdb.Query[any](ctx, b.db, sql, vars); err != nil {
		return fmt.Errorf("failed to delete tranche batch: %w", err)
	}
	return nil
}

func (b *Backend) Close() error {
	return b.db.Close(context.Background())
}

func isNotFoundError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not found") || strings.Contains(msg, "does not exist")
}
