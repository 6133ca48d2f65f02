package scheduler

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"TrancheTrack/internal/collector"
	"TrancheTrack/internal/dashboard"
	"TrancheTrack/internal/ledger"
	"TrancheTrack/internal/model"
	"TrancheTrack/internal/notifier"
	"TrancheTrack/internal/recorder"
	"TrancheTrack/internal/store"
	"TrancheTrack/internal/thresholds"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []string
}

func (f *fakeSender) SendWithRetry(_ context.Context, text string, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, text)
	return nil
}

type fakeRecorder struct {
	recorder.NoopRecorder
	refreshes []*recorder.RefreshRecord
	events    []*recorder.TrancheEvent
}

func (f *fakeRecorder) RecordRefresh(_ context.Context, r *recorder.RefreshRecord) error {
	f.refreshes = append(f.refreshes, r)
	return nil
}

func (f *fakeRecorder) RecordTrancheEvent(_ context.Context, e *recorder.TrancheEvent) error {
	f.events = append(f.events, e)
	return nil
}

type fixture struct {
	s       *Scheduler
	fetcher *collector.MockFetcher
	backend *store.Memory
	rec     *fakeRecorder
	sender  *fakeSender
	center  *notifier.Center
}

func newFixture(t *testing.T, seed ...model.Tranche) *fixture {
	t.Helper()
	ctx := context.Background()
	f := &fixture{
		fetcher: &collector.MockFetcher{Prices: map[string]float64{"GLD": 150, "SPY": 600}},
		backend: store.NewMemory(seed...),
		rec:     &fakeRecorder{},
		sender:  &fakeSender{},
		center:  notifier.NewCenter(nil),
	}
	l := ledger.New(nil, f.backend, ledger.WithDefaults(nil), ledger.WithShareSeeds(nil), ledger.WithNotices(f.center))
	require.NoError(t, l.Load(ctx))

	th, err := thresholds.Open(filepath.Join(t.TempDir(), "thresholds.json"), nil, nil)
	require.NoError(t, err)

	f.s = NewScheduler(ctx, Deps{
		Ledger:     l,
		Collector:  collector.NewCollector(f.fetcher, nil),
		State:      dashboard.NewState(),
		Thresholds: th,
		Center:     f.center,
		Sender:     f.sender,
		Recorder:   f.rec,
	}, "SPY", dashboard.Options{Sort: dashboard.SortFirstSeen})
	f.s.now = func() time.Time { return time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC) }
	return f
}

func (f *fixture) cmd(text string) string {
	return f.s.HandleCommand(context.Background(), text)
}

func gld(id, date string, price float64) model.Tranche {
	return model.Tranche{ID: model.TrancheID(id), Ticker: "GLD", Date: date, PurchasePrice: price, BenchmarkPrice: 500}
}

func TestHandleCommand_Help(t *testing.T) {
	f := newFixture(t)
	assert.Contains(t, f.cmd("/nope"), "Available commands")
	assert.Contains(t, f.cmd("   "), "Available commands")
}

func TestHandleCommand_AddAndList(t *testing.T) {
	f := newFixture(t)

	reply := f.cmd("/add gld 01/15/2025 180.50 590 10")
	assert.Contains(t, reply, "Added #mem-1 GLD 01/15/2025 @ $180.50")
	require.Len(t, f.rec.events, 1)
	assert.Equal(t, "add", f.rec.events[0].Action)
	assert.Equal(t, model.TrancheID("mem-1"), f.rec.events[0].TrancheID)

	assert.Contains(t, f.cmd("/tranches"), "#mem-1 GLD 01/15/2025 @ $180.50 | bench $590.00 | shares 10")

	assert.Contains(t, f.cmd("/add GLD 01/15/2025 180.5 590"), "already exists")
	assert.Contains(t, f.cmd("/add GLD 2025-01-15 180.5 590"), "already exists")
	assert.Contains(t, f.cmd("/add GLD 13/45/2025 180.5 590"), "invalid tranche input")
	assert.Contains(t, f.cmd("/add GLD"), "Usage")
	assert.Len(t, f.rec.events, 1)
}

func TestHandleCommand_Mutations(t *testing.T) {
	f := newFixture(t, gld("7", "2025-01-15", 180))

	assert.Equal(t, "✅ Update #7", f.cmd("/update 7 price 175"))
	assert.Equal(t, 175.0, f.s.ledger.Tranches()[0].PurchasePrice)

	assert.Contains(t, f.cmd("/update 7 color red"), "unknown tranche field")
	assert.Contains(t, f.cmd("/update 99 price 1"), "Nothing changed for #99")
	assert.Contains(t, f.cmd("/update 7 price -3"), "Nothing changed")

	assert.Equal(t, "✅ Date #7", f.cmd("/date 7 02/01/2025"))
	assert.Equal(t, "2025-02-01", f.s.ledger.Tranches()[0].Date)

	assert.Equal(t, "✅ Delete #7", f.cmd("/delete 7"))
	assert.Empty(t, f.s.ledger.Tranches())

	var actions []string
	for _, e := range f.rec.events {
		actions = append(actions, e.Action)
	}
	assert.Equal(t, []string{"update", "date", "delete"}, actions)
}

func TestHandleCommand_PersistFailureIsReported(t *testing.T) {
	f := newFixture(t, gld("7", "2025-01-15", 180))
	f.backend.Fail = assert.AnError

	reply := f.cmd("/update 7 bench 600")
	assert.Contains(t, reply, "Applied locally but not saved")
	assert.Equal(t, 600.0, f.s.ledger.Tranches()[0].BenchmarkPrice)
	assert.NotEmpty(t, f.center.Active())
}

func TestHandleCommand_Refresh(t *testing.T) {
	f := newFixture(t, gld("1", "2025-01-15", 200), model.Tranche{
		ID: "2", Ticker: "SLV", Date: "2025-01-15", PurchasePrice: 30, BenchmarkPrice: 500,
	})

	reply := f.cmd("/refresh")
	assert.Contains(t, reply, "Last refresh: ")
	assert.Contains(t, reply, "Benchmark $600.00")
	assert.Contains(t, reply, "GLD — Potential Add Signal")

	require.Len(t, f.rec.refreshes, 1)
	assert.Equal(t, []string{"SLV"}, f.rec.refreshes[0].Failed)

	active := f.center.Active()
	require.Len(t, active, 1)
	assert.Equal(t, "no-data:SLV", active[0].Fingerprint)

	assert.Contains(t, f.cmd("/signals"), "1. GLD")
	assert.NotContains(t, f.cmd("/status"), "Last refresh: never")
	assert.Contains(t, f.cmd("/notices"), "no-data:SLV")
	assert.Equal(t, "✅ Dismissed", f.cmd("/dismiss no-data:SLV"))
	assert.Equal(t, "No such notice.", f.cmd("/dismiss no-data:SLV"))
}

func TestHandleCommand_ReportOptions(t *testing.T) {
	f := newFixture(t, gld("1", "2025-01-15", 200), model.Tranche{
		ID: "2", Ticker: "DIA", Date: "2025-01-15", PurchasePrice: 400, BenchmarkPrice: 500,
	})

	out := f.cmd("/report ticker")
	assert.Less(t, strings.Index(out, "<b>DIA</b>"), strings.Index(out, "<b>GLD</b>"))

	out = f.cmd("/report first-seen gld")
	assert.Contains(t, out, "<b>GLD</b>")
	assert.NotContains(t, out, "<b>DIA</b>")
	assert.Contains(t, out, "Prices not refreshed yet")
}

func TestHandleCommand_Thresholds(t *testing.T) {
	f := newFixture(t, gld("1", "2025-01-15", 200))

	assert.Contains(t, f.cmd("/thresholds"), "GLD: add ≤ -20.0% | trim ≥ +40.0%")

	assert.Contains(t, f.cmd("/threshold tlt -10% 25"), "TLT: add ≤ -10.0% | trim ≥ +25.0%")
	assert.Contains(t, f.cmd("/thresholds"), "TLT:")
	assert.Contains(t, f.cmd("/threshold TLT 10 25"), "invalid alert threshold")
	assert.Contains(t, f.cmd("/threshold TLT x 25"), "must be numbers")

	assert.Equal(t, "✅ TLT threshold reset", f.cmd("/threshold TLT reset"))
	assert.Equal(t, "TLT has no override.", f.cmd("/threshold TLT reset"))
}

func TestHandleCommand_HistoryWithoutRecords(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, "No history for GLD.", f.cmd("/history gld"))
	assert.Contains(t, f.cmd("/history"), "Usage")
}

func TestRefreshTaskSendsReport(t *testing.T) {
	f := newFixture(t, gld("1", "2025-01-15", 140))
	f.s.RunRefreshNow()

	require.Len(t, f.sender.sent, 1)
	assert.Contains(t, f.sender.sent[0], "Tranche Report")
	assert.Contains(t, f.sender.sent[0], "GLD — Within Normal Range")
	assert.Contains(t, f.fetcher.Calls, "price:SPY")
	assert.NotContains(t, f.fetcher.Calls, "bars:SPY")
}

func TestRegisterAll(t *testing.T) {
	f := newFixture(t)
	assert.Error(t, f.s.RegisterAll("not a cron"))
	require.NoError(t, f.s.RegisterAll("0 30 16 * * 1-5"))
	assert.Len(t, f.s.Cron.Entries(), 1)
}

func TestRefreshAndReport(t *testing.T) {
	f := newFixture(t, gld("1", "2025-01-15", 200))

	before := f.s.Report(dashboard.Options{})
	assert.True(t, before.RefreshedAt.IsZero())
	assert.Empty(t, before.Rankings)

	rep := f.s.Refresh(context.Background())
	require.Len(t, rep.Rankings, 1)
	assert.Equal(t, "GLD", rep.Rankings[0].Ticker)
	assert.Len(t, f.s.Report(dashboard.Options{Filter: "DIA"}).Groups, 0)
	assert.Empty(t, f.sender.sent, "manual refresh does not push to chat")
}
