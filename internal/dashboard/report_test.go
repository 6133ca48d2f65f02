package dashboard

import (
	"testing"
	"time"

	"TrancheTrack/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	refreshed = time.Date(2024, 12, 31, 21, 0, 0, 0, time.UTC)
	asOf      = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
)

type fixedThresholds map[string]model.AlertThreshold

func (f fixedThresholds) Get(t string) model.AlertThreshold {
	if th, ok := f[t]; ok {
		return th
	}
	return model.DefaultThreshold
}

func sampleTranches() []model.Tranche {
	return []model.Tranche{
		{ID: "1", Ticker: "XYZ", Date: "2024-01-01", PurchasePrice: 50, BenchmarkPrice: 100},
		{ID: "2", Ticker: "ABC", Date: "2024-01-01", PurchasePrice: 10, BenchmarkPrice: 100, Shares: model.Float(10)},
		{ID: "3", Ticker: "ABC", Date: "2024-07-01", PurchasePrice: 20, BenchmarkPrice: 100},
	}
}

func sampleState() *State {
	st := NewState()
	st.Apply(model.RefreshResult{
		Snapshot: model.PriceSnapshot{
			Prices:    map[string]float64{"ABC": 8},
			Benchmark: model.Float(110),
			FetchedAt: refreshed,
		},
	})
	return st
}

func TestBuild(t *testing.T) {
	rep := Build(sampleState(), sampleTranches(), nil, asOf, Options{})

	assert.Equal(t, refreshed, rep.RefreshedAt)
	require.NotNil(t, rep.Benchmark)
	require.Len(t, rep.Groups, 2)

	xyz, abc := rep.Groups[0], rep.Groups[1]
	assert.Equal(t, "XYZ", xyz.Ticker)
	assert.Nil(t, xyz.Price)
	assert.Nil(t, xyz.Signal)
	assert.Nil(t, xyz.MeanAlpha)
	assert.Equal(t, 366, xyz.Rows[0].Metrics.DaysHeld)
	assert.Nil(t, xyz.Rows[0].Metrics.PnL)

	assert.Equal(t, "ABC", abc.Ticker)
	require.NotNil(t, abc.AvgCost)
	assert.InDelta(t, 120.0/11, *abc.AvgCost, 1e-9)
	assert.True(t, abc.Partial)
	require.NotNil(t, abc.MeanAlpha)
	require.NotNil(t, abc.Signal)
	assert.Equal(t, model.ZoneAdd, abc.Signal.Zone)
	assert.Equal(t, model.DefaultThreshold, abc.Threshold)
	require.Len(t, abc.Rows, 2)
	require.NotNil(t, abc.Rows[0].Metrics.PnL)
	assert.InDelta(t, -2.0, *abc.Rows[0].Metrics.PnL, 1e-9)

	require.Len(t, rep.Rankings, 1)
	assert.Equal(t, "ABC", rep.Rankings[0].Ticker)
	require.Len(t, rep.Banners, 1)
	assert.Equal(t, model.ZoneAdd, rep.Banners[0].Zone)
	assert.InDelta(t, 8/(120.0/11)-1, rep.Banners[0].Oscillator, 1e-9)
}

func TestBuild_SortAndFilter(t *testing.T) {
	st := sampleState()

	byTicker := Build(st, sampleTranches(), nil, asOf, Options{Sort: SortTicker})
	assert.Equal(t, "ABC", byTicker.Groups[0].Ticker)

	byAlpha := Build(st, sampleTranches(), nil, asOf, Options{Sort: SortAlpha})
	assert.Equal(t, "ABC", byAlpha.Groups[0].Ticker, "groups without alpha sort last")
	assert.Equal(t, "XYZ", byAlpha.Groups[1].Ticker)

	filtered := Build(st, sampleTranches(), nil, asOf, Options{Filter: " xyz"})
	require.Len(t, filtered.Groups, 1)
	assert.Equal(t, "XYZ", filtered.Groups[0].Ticker)
	assert.Empty(t, filtered.Banners)
	assert.Len(t, filtered.Rankings, 1, "rankings cover the whole portfolio")
}

func TestBuild_ThresholdsAndPin(t *testing.T) {
	st := NewState()
	st.Apply(model.RefreshResult{Snapshot: model.PriceSnapshot{
		Prices:    map[string]float64{"ABC": 12, "XYZ": 50},
		Benchmark: model.Float(100),
	}})
	th := fixedThresholds{"ABC": {AddPct: -0.05, TrimPct: 0.05}}

	rep := Build(st, sampleTranches(), th, asOf, Options{Pin: "abc"})
	require.Len(t, rep.Banners, 2)
	assert.Equal(t, "ABC", rep.Banners[0].Ticker)
	assert.Equal(t, model.ZoneTrim, rep.Banners[0].Zone)
	assert.Equal(t, "XYZ", rep.Banners[1].Ticker)
	assert.Equal(t, model.ZoneNeutral, rep.Banners[1].Zone)
}

func TestParseSort(t *testing.T) {
	o, err := ParseSort("")
	require.NoError(t, err)
	assert.Equal(t, SortFirstSeen, o)
	o, err = ParseSort(" Alpha ")
	require.NoError(t, err)
	assert.Equal(t, SortAlpha, o)
	_, err = ParseSort("price")
	assert.Error(t, err)
}

func TestState_Apply(t *testing.T) {
	st := sampleState()
	st.Apply(model.RefreshResult{
		Snapshot: model.PriceSnapshot{
			Prices:    map[string]float64{"XYZ": 51},
			FetchedAt: refreshed.Add(time.Hour),
		},
		Indicators: map[string]*model.IndicatorSet{"XYZ": {}},
	})

	snap := st.Snapshot()
	assert.Equal(t, map[string]float64{"ABC": 8, "XYZ": 51}, snap.Prices)
	require.NotNil(t, snap.Benchmark)
	assert.Equal(t, 110.0, *snap.Benchmark)
	assert.Equal(t, refreshed, st.RefreshedAt(), "no benchmark, no new refresh time")
	assert.NotNil(t, st.Indicators("XYZ"))
	assert.Nil(t, st.Indicators("ABC"))

	snap.Prices["ABC"] = 0
	assert.Equal(t, 8.0, *st.Snapshot().Price("ABC"))
}
