package local

import (
	"context"
	"testing"

	"TrancheTrack/internal/logging"
	"TrancheTrack/internal/model"
	"TrancheTrack/internal/store"
	"TrancheTrack/internal/store/storetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *Backend {
	t.Helper()
	b, err := Open(t.TempDir(), logging.NewSilent())
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })
	return b
}

func TestBackend_Contract(t *testing.T) {
	storetest.Run(t, openTemp(t))
}

func TestBackend_SequentialIdentities(t *testing.T) {
	ctx := context.Background()
	b := openTemp(t)

	require.NoError(t, b.InsertBatch(ctx, storetest.Sample()))
	all, err := b.ReadAll(ctx)
	require.NoError(t, err)
	var ids []model.TrancheID
	for _, tr := range all {
		ids = append(ids, tr.ID)
	}
	assert.Equal(t, []model.TrancheID{"1", "2", "3"}, ids)

	// Sequence keeps growing past ten without lexical ordering issues.
	for i := 0; i < 8; i++ {
		_, err := b.Insert(ctx, model.Tranche{Ticker: "X", Date: "2024-01-01", PurchasePrice: float64(i + 1), BenchmarkPrice: 1})
		require.NoError(t, err)
	}
	all, err = b.ReadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.TrancheID("11"), all[len(all)-1].ID)
	assert.Equal(t, model.TrancheID("1"), all[0].ID)
}

func TestBackend_UpdateMissing(t *testing.T) {
	b := openTemp(t)
	err := b.UpdateFields(context.Background(), "42", model.Patch{Shares: model.Float(1)})
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, b.Delete(context.Background(), "42"), store.ErrNotFound)
}

func TestBackend_ReplaceAllKeepsNumericSequence(t *testing.T) {
	ctx := context.Background()
	b := openTemp(t)
	src := storetest.Sample()
	src[0].ID, src[1].ID, src[2].ID = "4", "9", "7"
	require.NoError(t, b.ReplaceAll(ctx, src))

	next, err := b.Insert(ctx, model.Tranche{Ticker: "SPY", Date: "2024-01-02", PurchasePrice: 470, BenchmarkPrice: 470})
	require.NoError(t, err)
	assert.Equal(t, model.TrancheID("11"), next.ID)

	all, err := b.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, model.TrancheID("4"), all[0].ID)
	assert.Equal(t, model.TrancheID("11"), all[3].ID)
}
