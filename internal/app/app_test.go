package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"TrancheTrack/internal/config"
	"TrancheTrack/internal/ledger"
	"TrancheTrack/internal/logging"
	"TrancheTrack/internal/notifier"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{Benchmark: "SPY"}
	cfg.PriceSource.Provider = "mock"
	cfg.Storage.LocalDir = filepath.Join(dir, "local")
	cfg.Storage.SQLitePath = filepath.Join(dir, "db", "tranches.db")
	cfg.Thresholds.File = filepath.Join(dir, "thresholds.json")
	cfg.Recorder.SQLitePath = filepath.Join(dir, "history.db")
	cfg.Dashboard.Sort = "ticker"
	cfg.Dashboard.Pin = "MRK"
	return cfg
}

func TestNew_SQLitePrimary(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.Primary = config.PrimarySQLite

	a, err := New(context.Background(), cfg, logging.NewSilent(), nil)
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, ledger.StateReady, a.Ledger.State())
	assert.Equal(t, "sqlite", a.Ledger.Backend())
	assert.Len(t, a.Ledger.Tranches(), len(ledger.DefaultTranches))
	assert.Equal(t, "mock", a.Collector.Fetcher.Name())
	assert.Equal(t, "ticker", string(a.View().Sort))
}

func TestNew_LocalOnly(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.Primary = config.PrimaryNone

	a, err := New(context.Background(), cfg, logging.NewSilent(), nil)
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, ledger.StateReady, a.Ledger.State())
	assert.Equal(t, "local", a.Ledger.Backend())
}

func TestNew_UnreachableSurrealDegrades(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.Primary = config.PrimarySurreal
	cfg.Storage.Surreal.Address = "ws://127.0.0.1:1/rpc"

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var forwarded []notifier.Notice
	a, err := New(ctx, cfg, logging.NewSilent(), func(n notifier.Notice) {
		forwarded = append(forwarded, n)
	})
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, ledger.StateDegraded, a.Ledger.State())
	assert.Equal(t, "local", a.Ledger.Backend())
	assert.Len(t, a.Ledger.Tranches(), len(ledger.DefaultTranches))
	require.NotEmpty(t, forwarded)
	assert.Equal(t, notifier.KindDegraded, forwarded[0].Kind)
}

func TestNewFetcher(t *testing.T) {
	cfg := testConfig(t)
	for provider, want := range map[string]string{"polygon": "polygon", "yahoo": "yahoo", "mock": "mock"} {
		cfg.PriceSource.Provider = provider
		assert.Equal(t, want, NewFetcher(cfg, logging.NewSilent()).Name())
	}
}
