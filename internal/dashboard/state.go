// Package dashboard holds the presentation state and builds the tranche
// report from it.
package dashboard

import (
	"sync"
	"time"

	"TrancheTrack/internal/model"
)

// State is the latest market data the report renders from. Prices persist
// across refreshes until replaced; indicators are replaced wholesale.
type State struct {
	mu          sync.RWMutex
	prices      map[string]float64
	benchmark   *float64
	indicators  map[string]*model.IndicatorSet
	refreshedAt time.Time
}

// NewState creates an empty State.
func NewState() *State {
	return &State{
		prices:     make(map[string]float64),
		indicators: make(map[string]*model.IndicatorSet),
	}
}

// Apply merges a refresh result. Tickers that failed keep their previous
// price. The refresh time only advances when the benchmark was priced.
func (s *State) Apply(res model.RefreshResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for t, p := range res.Snapshot.Prices {
		s.prices[t] = p
	}
	if res.Snapshot.Benchmark != nil {
		b := *res.Snapshot.Benchmark
		s.benchmark = &b
		s.refreshedAt = res.Snapshot.FetchedAt
	}
	s.indicators = make(map[string]*model.IndicatorSet, len(res.Indicators))
	for t, set := range res.Indicators {
		s.indicators[t] = set
	}
}

// Snapshot returns a copy of the current prices.
func (s *State) Snapshot() model.PriceSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := model.PriceSnapshot{
		Prices:    make(map[string]float64, len(s.prices)),
		FetchedAt: s.refreshedAt,
	}
	for t, p := range s.prices {
		snap.Prices[t] = p
	}
	if s.benchmark != nil {
		b := *s.benchmark
		snap.Benchmark = &b
	}
	return snap
}

// Indicators returns the indicator set for ticker, or nil.
func (s *State) Indicators(ticker string) *model.IndicatorSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indicators[ticker]
}

// RefreshedAt returns the time of the last refresh that priced the
// benchmark, or the zero time.
func (s *State) RefreshedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshedAt
}
