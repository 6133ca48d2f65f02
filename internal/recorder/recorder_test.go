package recorder

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"TrancheTrack/internal/dashboard"
	"TrancheTrack/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *SQLiteRecorder {
	t.Helper()
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "history.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func TestRecordRefresh_History(t *testing.T) {
	r := openTemp(t)
	ctx := context.Background()
	t0 := time.Date(2025, 6, 2, 21, 0, 0, 0, time.UTC)

	rsi := 28.5
	first := &RefreshRecord{
		At:        t0,
		Benchmark: model.Float(600),
		Tickers: []TickerSnapshot{
			{
				Ticker:  "GLD",
				Price:   model.Float(300),
				AvgCost: model.Float(250),
				Indicators: &model.IndicatorSet{
					RSI:   &rsi,
					Stoch: &model.Stochastic{K: 15},
					SAR:   &model.SAR{Value: 290, Trend: model.TrendBullish},
				},
				Signal: &model.CompositeSignal{Score: 2, Label: model.LabelBuy, Zone: model.ZoneNeutral, Oscillator: model.Float(0.2)},
			},
			{Ticker: "SLV"},
		},
		Failed: []string{"SLV"},
	}
	require.NoError(t, r.RecordRefresh(ctx, first))

	second := &RefreshRecord{
		At:      t0.Add(24 * time.Hour),
		Tickers: []TickerSnapshot{{Ticker: "GLD", Price: model.Float(310)}},
	}
	require.NoError(t, r.RecordRefresh(ctx, second))

	hist, err := r.History(ctx, "GLD", 10)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, t0.Add(24*time.Hour).Unix(), hist[0].At.Unix())
	require.NotNil(t, hist[0].Price)
	assert.Equal(t, 310.0, *hist[0].Price)
	assert.Nil(t, hist[0].Score)
	assert.Empty(t, hist[0].Label)

	require.NotNil(t, hist[1].Score)
	assert.Equal(t, 2, *hist[1].Score)
	assert.Equal(t, "Buy", hist[1].Label)

	slv, err := r.History(ctx, "SLV", 10)
	require.NoError(t, err)
	require.Len(t, slv, 1)
	assert.Nil(t, slv[0].Price)

	limited, err := r.History(ctx, "GLD", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestRecordTrancheEvent(t *testing.T) {
	r := openTemp(t)
	require.NoError(t, r.RecordTrancheEvent(context.Background(), &TrancheEvent{Action: "add", TrancheID: "1", Ticker: "MRK", Detail: "2025-12-01 @ 105.08"}))

	var n int
	require.NoError(t, r.db.QueryRow(`SELECT COUNT(*) FROM tranche_events WHERE ticker = 'MRK'`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestNewRefreshRecord(t *testing.T) {
	sig := model.CompositeSignal{Ticker: "DIA", Score: -1}
	set := &model.IndicatorSet{}
	rep := dashboard.Report{
		AsOf: time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
		Groups: []dashboard.GroupView{
			{Ticker: "DIA", Price: model.Float(440), Signal: &sig},
			{Ticker: "SLV"},
		},
	}
	rec := NewRefreshRecord(rep, func(t string) *model.IndicatorSet {
		if t == "DIA" {
			return set
		}
		return nil
	}, []model.FetchFailure{{Ticker: "SLV"}})

	assert.Equal(t, rep.AsOf, rec.At, "falls back to report time before any refresh")
	require.Len(t, rec.Tickers, 2)
	assert.Same(t, set, rec.Tickers[0].Indicators)
	assert.Nil(t, rec.Tickers[1].Indicators)
	assert.Equal(t, []string{"SLV"}, rec.Failed)
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NewNoopRecorder()
	assert.NoError(t, r.RecordRefresh(context.Background(), &RefreshRecord{}))
	h, err := r.History(context.Background(), "X", 1)
	assert.NoError(t, err)
	assert.Empty(t, h)
}
