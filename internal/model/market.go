package model

import "time"

// OHLCV represents a single daily bar.
type OHLCV struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// PriceSnapshot holds the latest close per tracked ticker plus the benchmark,
// refreshed together as one batch.
type PriceSnapshot struct {
	Prices    map[string]float64
	Benchmark *float64
	FetchedAt time.Time
}

// Price returns the latest price for ticker, or nil if none has been fetched.
func (s PriceSnapshot) Price(ticker string) *float64 {
	p, ok := s.Prices[ticker]
	if !ok {
		return nil
	}
	return &p
}

// FetchFailure records one ticker that could not be refreshed.
type FetchFailure struct {
	Ticker string
	Err    error
	// Bars is set when the price was fetched but the bar history was not.
	Bars bool
}

// RefreshResult is the outcome of one batch refresh. Tickers whose price
// fetch failed are absent from the snapshot and from Indicators.
type RefreshResult struct {
	Snapshot   PriceSnapshot
	Bars       map[string][]OHLCV
	Indicators map[string]*IndicatorSet
	Failures   []FetchFailure
}
