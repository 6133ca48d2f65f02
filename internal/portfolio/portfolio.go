// Package portfolio groups tranches by ticker and ranks tickers by their
// composite signal.
package portfolio

import (
	"sort"

	"TrancheTrack/internal/model"
	"TrancheTrack/internal/strategy"
)

// Group holds the tranches of one ticker in their original order.
type Group struct {
	Ticker   string
	Tranches []model.Tranche
}

// GroupByTicker groups tranches by ticker, preserving the order in which each
// ticker first appears.
func GroupByTicker(tranches []model.Tranche) []Group {
	index := make(map[string]int)
	var groups []Group
	for _, t := range tranches {
		i, ok := index[t.Ticker]
		if !ok {
			i = len(groups)
			index[t.Ticker] = i
			groups = append(groups, Group{Ticker: t.Ticker})
		}
		groups[i].Tranches = append(groups[i].Tranches, t)
	}
	return groups
}

// Tickers returns the distinct tickers in first-appearance order.
func Tickers(tranches []model.Tranche) []string {
	groups := GroupByTicker(tranches)
	out := make([]string, len(groups))
	for i, g := range groups {
		out[i] = g.Ticker
	}
	return out
}

// WeightedAvgCost returns Σ(price·w)/Σw where w is the share count, or 1 for
// tranches without one. Mixed groups are not corrected; see PartiallyWeighted.
func WeightedAvgCost(tranches []model.Tranche) (float64, bool) {
	var sum, weight float64
	for _, t := range tranches {
		w := 1.0
		if t.Shares != nil {
			w = *t.Shares
		}
		sum += t.PurchasePrice * w
		weight += w
	}
	if weight == 0 {
		return 0, false
	}
	return sum / weight, true
}

// PartiallyWeighted reports whether some but not all tranches carry shares,
// in which case WeightedAvgCost mixes share and unit weights.
func PartiallyWeighted(tranches []model.Tranche) bool {
	with := 0
	for _, t := range tranches {
		if t.Shares != nil {
			with++
		}
	}
	return with > 0 && with < len(tranches)
}

// MeanAlpha averages the alpha of every metric that has one.
func MeanAlpha(metrics []model.TrancheMetrics) *float64 {
	var sum float64
	n := 0
	for _, m := range metrics {
		if m.Alpha != nil {
			sum += *m.Alpha
			n++
		}
	}
	if n == 0 {
		return nil
	}
	avg := sum / float64(n)
	return &avg
}

// Rank scores every input with a live price and sorts descending by score.
// Ties keep input order.
func Rank(inputs []strategy.Input) []model.CompositeSignal {
	var out []model.CompositeSignal
	for _, in := range inputs {
		if in.Price == nil {
			continue
		}
		out = append(out, strategy.Evaluate(in))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}
