// Package app wires configuration into the services shared by cmd/bot and
// cmd/tranchectl.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"TrancheTrack/internal/collector"
	"TrancheTrack/internal/config"
	"TrancheTrack/internal/dashboard"
	"TrancheTrack/internal/ledger"
	"TrancheTrack/internal/logging"
	"TrancheTrack/internal/notifier"
	"TrancheTrack/internal/recorder"
	"TrancheTrack/internal/store"
	"TrancheTrack/internal/store/local"
	"TrancheTrack/internal/store/sqlite"
	"TrancheTrack/internal/store/surreal"
	"TrancheTrack/internal/thresholds"
)

// App holds all initialized services.
type App struct {
	Config     *config.Config
	Logger     *logging.Logger
	Ledger     *ledger.Ledger
	Collector  *collector.Collector
	State      *dashboard.State
	Thresholds *thresholds.Store
	Center     *notifier.Center
	Recorder   recorder.Recorder

	closers []func() error
}

// New opens the stores and loads the tranche set. forward receives every new
// notice and may be nil.
func New(ctx context.Context, cfg *config.Config, logger *logging.Logger, forward func(notifier.Notice)) (*App, error) {
	a := &App{
		Config: cfg,
		Logger: logger,
		State:  dashboard.NewState(),
		Center: notifier.NewCenter(forward),
	}

	secondary, err := local.Open(cfg.Storage.LocalDir, logger.Component("local"))
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, secondary.Close)

	primary := openPrimary(ctx, cfg, logger)
	if primary != nil {
		a.closers = append(a.closers, primary.Close)
	}

	a.Ledger = ledger.New(primary, secondary,
		ledger.WithNotices(a.Center),
		ledger.WithLogger(logger.Component("ledger")),
	)
	if err := a.Ledger.Load(ctx); err != nil {
		a.Close()
		return nil, fmt.Errorf("load tranches: %w", err)
	}
	logger.Info().
		Str("backend", a.Ledger.Backend()).
		Str("state", string(a.Ledger.State())).
		Int("tranches", len(a.Ledger.Tranches())).
		Msg("tranches loaded")

	a.Collector = collector.NewCollector(NewFetcher(cfg, logger), logger.Component("collector"))

	a.Thresholds, err = thresholds.Open(cfg.Thresholds.File, cfg.Thresholds.Defaults, logger.Component("thresholds"))
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Recorder = recorder.NewNoopRecorder()
	if cfg.Recorder.SQLitePath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Recorder.SQLitePath), 0755); err != nil {
			logger.Warn().Err(err).Msg("create recorder dir failed, using noop")
		} else if sr, err := recorder.NewSQLiteRecorder(cfg.Recorder.SQLitePath, logger.Component("recorder")); err != nil {
			logger.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
		} else {
			a.Recorder = sr
			a.closers = append(a.closers, sr.Close)
		}
	}
	return a, nil
}

// openPrimary opens the configured primary backend. A backend that cannot be
// opened is replaced by store.Unavailable so the ledger degrades to local
// data on load.
func openPrimary(ctx context.Context, cfg *config.Config, logger *logging.Logger) store.Backend {
	switch cfg.Storage.Primary {
	case config.PrimarySurreal:
		s := cfg.Storage.Surreal
		b, err := surreal.Open(ctx, surreal.Config{
			Address:   s.Address,
			Username:  s.Username,
			Password:  s.Password,
			Namespace: s.Namespace,
			Database:  s.Database,
		}, logger.Component("surreal"))
		if err != nil {
			logger.Warn().Err(err).Msg("surreal backend unavailable")
			return store.NewUnavailable("surrealdb", err)
		}
		return b
	case config.PrimarySQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.Storage.SQLitePath), 0755); err != nil {
			return store.NewUnavailable("sqlite", err)
		}
		b, err := sqlite.Open(cfg.Storage.SQLitePath, logger.Component("sqlite"))
		if err != nil {
			logger.Warn().Err(err).Msg("sqlite backend unavailable")
			return store.NewUnavailable("sqlite", err)
		}
		return b
	default:
		return nil
	}
}

// NewFetcher builds the configured price provider.
func NewFetcher(cfg *config.Config, logger *logging.Logger) collector.Fetcher {
	ps := cfg.PriceSource
	switch ps.Provider {
	case "yahoo":
		f := collector.NewYahooFetcher(cfg.Proxy, ps.RateLimit)
		if ps.BaseURL != "" {
			f.BaseURL = ps.BaseURL
		}
		return f
	case "mock":
		return &collector.MockFetcher{Prices: map[string]float64{
			cfg.Benchmark: 600, "DIA": 440, "GLD": 300, "SLV": 33, "MRK": 80,
		}}
	default:
		opts := []collector.PolygonOption{
			collector.WithPolygonProxy(cfg.Proxy),
			collector.WithPolygonLogger(logger.Component("polygon")),
		}
		if ps.BaseURL != "" {
			opts = append(opts, collector.WithPolygonURL(ps.BaseURL))
		}
		if ps.RateLimit > 0 {
			opts = append(opts, collector.WithPolygonRateLimit(ps.RateLimit))
		}
		return collector.NewPolygonFetcher(ps.APIKey, opts...)
	}
}

// View returns the configured default dashboard options.
func (a *App) View() dashboard.Options {
	order, err := dashboard.ParseSort(a.Config.Dashboard.Sort)
	if err != nil {
		order = dashboard.SortFirstSeen
	}
	return dashboard.Options{Sort: order, Pin: a.Config.Dashboard.Pin}
}

// Close releases stores in reverse opening order.
func (a *App) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}
