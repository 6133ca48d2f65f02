package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"TrancheTrack/internal/calculator"
	"TrancheTrack/internal/logging"
	"TrancheTrack/internal/model"
	"TrancheTrack/internal/notifier"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Prices map[string]float64
	Bars   map[string][]model.OHLCV
	Errs   map[string]error
	Calls  []string
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchDailyBars(_ context.Context, symbol string, from, to time.Time) ([]model.OHLCV, error) {
	m.Calls = append(m.Calls, "bars:"+symbol)
	if err := m.Errs[symbol]; err != nil {
		return nil, err
	}
	if bars, ok := m.Bars[symbol]; ok {
		return bars, nil
	}
	p, ok := m.Prices[symbol]
	if !ok {
		return nil, ErrNoData
	}
	return generateMockBars(p, from, to), nil
}

func (m *MockFetcher) FetchCurrentPrice(_ context.Context, symbol string) (float64, error) {
	m.Calls = append(m.Calls, "price:"+symbol)
	if err := m.Errs[symbol]; err != nil {
		return 0, err
	}
	p, ok := m.Prices[symbol]
	if !ok {
		return 0, ErrNoData
	}
	return p, nil
}

// generateMockBars builds a gently rising series ending at basePrice.
func generateMockBars(basePrice float64, from, to time.Time) []model.OHLCV {
	var bars []model.OHLCV
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		bars = append(bars, model.OHLCV{Time: d})
	}
	n := len(bars)
	for i := range bars {
		p := basePrice * (1 + float64(i-n+1)*0.001)
		bars[i].Open = p * 0.999
		bars[i].High = p * 1.005
		bars[i].Low = p * 0.995
		bars[i].Close = p
		bars[i].Volume = 1000000
	}
	return bars
}

// DefaultLookbackDays is the calendar span of bars fetched per ticker.
const DefaultLookbackDays = 120

// Collector refreshes prices and indicators for a batch of tickers.
type Collector struct {
	Fetcher  Fetcher
	Lookback int
	logger   *logging.Logger
	now      func() time.Time
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, logger *logging.Logger) *Collector {
	if logger == nil {
		logger = logging.NewSilent()
	}
	return &Collector{
		Fetcher:  fetcher,
		Lookback: DefaultLookbackDays,
		logger:   logger,
		now:      time.Now,
	}
}

// Refresh fetches the latest price of every ticker plus the benchmark, one
// request at a time, and computes indicators from daily bars. The batch
// always completes; failures are collected per ticker. A ticker whose price
// could not be fetched is absent from the snapshot. One whose bars could not
// be fetched keeps its price but has no indicators.
func (c *Collector) Refresh(ctx context.Context, tickers []string, benchmark string) model.RefreshResult {
	now := c.now()
	res := model.RefreshResult{
		Snapshot:   model.PriceSnapshot{Prices: make(map[string]float64), FetchedAt: now},
		Bars:       make(map[string][]model.OHLCV),
		Indicators: make(map[string]*model.IndicatorSet),
	}

	tracked := make(map[string]bool, len(tickers))
	batch := make([]string, 0, len(tickers)+1)
	for _, t := range tickers {
		if !tracked[t] {
			tracked[t] = true
			batch = append(batch, t)
		}
	}
	if benchmark != "" && !tracked[benchmark] {
		batch = append(batch, benchmark)
	}

	from := now.AddDate(0, 0, -c.Lookback)
	for _, t := range batch {
		price, err := c.Fetcher.FetchCurrentPrice(ctx, t)
		if err != nil {
			c.logger.Warn().Err(err).Str("ticker", t).Str("provider", c.Fetcher.Name()).Msg("price fetch failed")
			res.Failures = append(res.Failures, model.FetchFailure{Ticker: t, Err: err})
			continue
		}
		if t == benchmark {
			p := price
			res.Snapshot.Benchmark = &p
		}
		if !tracked[t] {
			continue
		}
		res.Snapshot.Prices[t] = price

		bars, err := c.Fetcher.FetchDailyBars(ctx, t, from, now)
		if err != nil {
			c.logger.Warn().Err(err).Str("ticker", t).Msg("bar fetch failed")
			res.Failures = append(res.Failures, model.FetchFailure{Ticker: t, Err: err, Bars: true})
			continue
		}
		res.Bars[t] = bars
		if set := calculator.ComputeIndicators(bars); set != nil {
			res.Indicators[t] = set
		}
	}

	c.logger.Info().
		Int("tickers", len(batch)).
		Int("priced", len(res.Snapshot.Prices)).
		Int("failed", len(res.Failures)).
		Msg("refresh complete")
	return res
}

// Notices converts refresh failures into user notices: one combined notice
// for rate limiting, one per ticker otherwise.
func Notices(res model.RefreshResult) []notifier.Notice {
	var out []notifier.Notice
	var limited []string
	seen := make(map[string]bool)
	for _, f := range res.Failures {
		switch {
		case errors.Is(f.Err, ErrRateLimited):
			if !seen["rl:"+f.Ticker] {
				seen["rl:"+f.Ticker] = true
				limited = append(limited, f.Ticker)
			}
		case f.Bars:
			fp := "bars:" + f.Ticker
			if !seen[fp] {
				seen[fp] = true
				kind := notifier.KindTransport
				if errors.Is(f.Err, ErrNoData) {
					kind = notifier.KindNoData
				}
				out = append(out, notifier.Notice{
					Fingerprint: fp,
					Kind:        kind,
					Message:     fmt.Sprintf("Indicator data unavailable for %s: %v", f.Ticker, f.Err),
					Tickers:     []string{f.Ticker},
				})
			}
		case errors.Is(f.Err, ErrNoData):
			fp := "no-data:" + f.Ticker
			if !seen[fp] {
				seen[fp] = true
				out = append(out, notifier.Notice{
					Fingerprint: fp,
					Kind:        notifier.KindNoData,
					Message:     fmt.Sprintf("No price data returned for %s", f.Ticker),
					Tickers:     []string{f.Ticker},
				})
			}
		default:
			fp := "transport:" + f.Ticker
			if !seen[fp] {
				seen[fp] = true
				out = append(out, notifier.Notice{
					Fingerprint: fp,
					Kind:        notifier.KindTransport,
					Message:     fmt.Sprintf("Price fetch failed for %s: %v", f.Ticker, f.Err),
					Tickers:     []string{f.Ticker},
				})
			}
		}
	}
	if len(limited) > 0 {
		out = append([]notifier.Notice{{
			Fingerprint: "rate-limit",
			Kind:        notifier.KindRateLimit,
			Message:     notifier.RateLimitMessage(limited),
			Tickers:     limited,
		}}, out...)
	}
	return out
}
