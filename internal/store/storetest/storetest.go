// Package storetest holds behaviour checks shared by every store.Backend.
package storetest

import (
	"context"
	"testing"

	"TrancheTrack/internal/model"
	"TrancheTrack/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Sample returns three tranches with distinct natural keys.
func Sample() []model.Tranche {
	return []model.Tranche{
		{Ticker: "DIA", Date: "2020-07-21", PurchasePrice: 269.60, BenchmarkPrice: 325.01},
		{Ticker: "GLD", Date: "2022-07-18", PurchasePrice: 159.34, BenchmarkPrice: 381.95, Shares: model.Float(25)},
		{Ticker: "MRK", Date: "2025-05-27", PurchasePrice: 77.12, BenchmarkPrice: 591.15},
	}
}

// Run exercises b, which must start empty.
func Run(t *testing.T, b store.Backend) {
	ctx := context.Background()

	all, err := b.ReadAll(ctx)
	require.NoError(t, err)
	require.Empty(t, all)

	require.NoError(t, b.InsertBatch(ctx, Sample()))
	all, err = b.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	ids := map[model.TrancheID]bool{}
	for i, tr := range all {
		assert.NotEmpty(t, tr.ID)
		ids[tr.ID] = true
		assert.Equal(t, Sample()[i].Key(), tr.Key(), "insertion order is kept")
	}
	assert.Len(t, ids, 3, "identities are unique")
	require.NotNil(t, all[1].Shares)
	assert.Equal(t, 25.0, *all[1].Shares)
	assert.Nil(t, all[0].Shares)

	added, err := b.Insert(ctx, model.Tranche{Ticker: "SLV", Date: "2022-07-18", PurchasePrice: 17.32, BenchmarkPrice: 381.95})
	require.NoError(t, err)
	require.NotEmpty(t, added.ID)
	assert.False(t, ids[added.ID])

	require.NoError(t, b.UpdateFields(ctx, all[0].ID, model.Patch{Shares: model.Float(12.5), PurchasePrice: model.Float(270)}))
	require.NoError(t, b.UpdateFields(ctx, all[1].ID, model.Patch{ClearShares: true, Date: strPtr("2022-07-19")}))

	all, err = b.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 4)
	require.NotNil(t, all[0].Shares)
	assert.Equal(t, 12.5, *all[0].Shares)
	assert.Equal(t, 270.0, all[0].PurchasePrice)
	assert.Nil(t, all[1].Shares)
	assert.Equal(t, "2022-07-19", all[1].Date)
	assert.Equal(t, "SLV", all[3].Ticker)

	require.NoError(t, b.Delete(ctx, added.ID))
	require.NoError(t, b.DeleteBatch(ctx, []model.TrancheID{all[0].ID, all[2].ID, "missing"}))
	all, err = b.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "GLD", all[0].Ticker)

	if m, ok := b.(store.Mirror); ok {
		src := Sample()
		for i := range src {
			src[i].ID = model.TrancheID("src-" + src[i].Ticker)
		}
		require.NoError(t, m.ReplaceAll(ctx, src))
		all, err = b.ReadAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 3)
		for i := range src {
			assert.Equal(t, src[i].ID, all[i].ID)
		}

		// Inserts after a mirror never reuse a mirrored identity.
		next, err := b.Insert(ctx, model.Tranche{Ticker: "SPY", Date: "2024-01-02", PurchasePrice: 470, BenchmarkPrice: 470})
		require.NoError(t, err)
		for _, s := range src {
			assert.NotEqual(t, s.ID, next.ID)
		}
	}
}

func strPtr(s string) *string { return &s }
