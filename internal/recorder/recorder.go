// Package recorder keeps a history of refreshes and tranche edits for later
// analysis.
package recorder

import (
	"context"
	"time"

	"TrancheTrack/internal/dashboard"
	"TrancheTrack/internal/model"
)

// TickerSnapshot is the state of one ticker at a refresh.
type TickerSnapshot struct {
	Ticker     string
	Price      *float64
	AvgCost    *float64
	Indicators *model.IndicatorSet
	Signal     *model.CompositeSignal
}

// RefreshRecord holds all data for one refresh.
type RefreshRecord struct {
	At        time.Time
	Benchmark *float64
	Tickers   []TickerSnapshot
	Failed    []string
}

// TrancheEvent records one user edit of the tranche set.
type TrancheEvent struct {
	Action    string // "add", "update", "delete"
	TrancheID model.TrancheID
	Ticker    string
	Detail    string
}

// HistoryPoint is one recorded price and score of a ticker.
type HistoryPoint struct {
	At    time.Time
	Price *float64
	Score *int
	Label string
}

// Recorder persists historical data for analysis.
type Recorder interface {
	RecordRefresh(ctx context.Context, rec *RefreshRecord) error
	RecordTrancheEvent(ctx context.Context, evt *TrancheEvent) error
	History(ctx context.Context, ticker string, limit int) ([]HistoryPoint, error)
	Close() error
}

// NewRefreshRecord captures the priced state of every group in rep.
func NewRefreshRecord(rep dashboard.Report, indicators func(string) *model.IndicatorSet, failed []model.FetchFailure) *RefreshRecord {
	rec := &RefreshRecord{At: rep.RefreshedAt, Benchmark: rep.Benchmark}
	if rec.At.IsZero() {
		rec.At = rep.AsOf
	}
	for _, g := range rep.Groups {
		rec.Tickers = append(rec.Tickers, TickerSnapshot{
			Ticker:     g.Ticker,
			Price:      g.Price,
			AvgCost:    g.AvgCost,
			Indicators: indicators(g.Ticker),
			Signal:     g.Signal,
		})
	}
	for _, f := range failed {
		rec.Failed = append(rec.Failed, f.Ticker)
	}
	return rec
}
