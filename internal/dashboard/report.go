package dashboard

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"TrancheTrack/internal/calculator"
	"TrancheTrack/internal/model"
	"TrancheTrack/internal/portfolio"
	"TrancheTrack/internal/strategy"
)

// SortOrder orders the ticker groups of a report.
type SortOrder string

const (
	SortFirstSeen SortOrder = "first-seen"
	SortTicker    SortOrder = "ticker"
	SortAlpha     SortOrder = "alpha"
)

// ParseSort accepts a sort name; empty means first-seen.
func ParseSort(s string) (SortOrder, error) {
	switch o := SortOrder(strings.ToLower(strings.TrimSpace(s))); o {
	case "":
		return SortFirstSeen, nil
	case SortFirstSeen, SortTicker, SortAlpha:
		return o, nil
	default:
		return "", fmt.Errorf("unknown sort %q (first-seen, ticker, alpha)", s)
	}
}

// Options controls the view.
type Options struct {
	Sort SortOrder
	// Filter limits groups and banners to one ticker when set.
	Filter string
	// Pin names the ticker whose banner is shown first.
	Pin string
}

// Thresholds resolves the alert threshold of a ticker.
type Thresholds interface {
	Get(ticker string) model.AlertThreshold
}

// Row is one tranche with its metrics.
type Row struct {
	Tranche model.Tranche
	Metrics model.TrancheMetrics
}

// GroupView is one ticker's section of the report.
type GroupView struct {
	Ticker    string
	Rows      []Row
	Price     *float64
	AvgCost   *float64
	Partial   bool
	MeanAlpha *float64
	Threshold model.AlertThreshold
	// Signal is nil until the ticker has been priced.
	Signal *model.CompositeSignal
}

// Banner is the oscillator alert of one priced ticker.
type Banner struct {
	Ticker     string
	Zone       model.Zone
	Price      float64
	AvgCost    float64
	Oscillator float64
}

// Report is everything the presentation renders for one cycle.
type Report struct {
	AsOf        time.Time
	RefreshedAt time.Time
	Benchmark   *float64
	Groups      []GroupView
	Banners     []Banner
	Rankings    []model.CompositeSignal
}

func thresholdOf(th Thresholds, ticker string) model.AlertThreshold {
	if th == nil {
		return model.DefaultThreshold
	}
	return th.Get(ticker)
}

// Build assembles the report from the current state and tranche set.
func Build(st *State, tranches []model.Tranche, th Thresholds, asOf time.Time, opts Options) Report {
	snap := st.Snapshot()
	rep := Report{
		AsOf:        asOf,
		RefreshedAt: snap.FetchedAt,
		Benchmark:   snap.Benchmark,
	}

	var inputs []strategy.Input
	for _, g := range portfolio.GroupByTicker(tranches) {
		view := GroupView{
			Ticker:    g.Ticker,
			Price:     snap.Price(g.Ticker),
			Partial:   portfolio.PartiallyWeighted(g.Tranches),
			Threshold: thresholdOf(th, g.Ticker),
		}
		if avg, ok := portfolio.WeightedAvgCost(g.Tranches); ok {
			view.AvgCost = &avg
		}

		metrics := make([]model.TrancheMetrics, len(g.Tranches))
		for i, t := range g.Tranches {
			metrics[i] = calculator.ComputeTrancheMetrics(t, view.Price, snap.Benchmark, asOf)
			view.Rows = append(view.Rows, Row{Tranche: t, Metrics: metrics[i]})
		}
		view.MeanAlpha = portfolio.MeanAlpha(metrics)

		in := strategy.Input{
			Ticker:     g.Ticker,
			Price:      view.Price,
			AvgCost:    view.AvgCost,
			Threshold:  view.Threshold,
			Indicators: st.Indicators(g.Ticker),
		}
		inputs = append(inputs, in)
		if view.Price != nil {
			sig := strategy.Evaluate(in)
			view.Signal = &sig
		}
		rep.Groups = append(rep.Groups, view)
	}
	rep.Rankings = portfolio.Rank(inputs)

	if f := model.NormalizeTicker(opts.Filter); f != "" {
		kept := rep.Groups[:0]
		for _, g := range rep.Groups {
			if g.Ticker == f {
				kept = append(kept, g)
			}
		}
		rep.Groups = kept
	}

	rep.Banners = banners(rep.Groups, model.NormalizeTicker(opts.Pin))
	sortGroups(rep.Groups, opts.Sort)
	return rep
}

// banners lists priced groups in group order, with pin first.
func banners(groups []GroupView, pin string) []Banner {
	var out []Banner
	for _, g := range groups {
		if g.Signal == nil || g.Signal.Oscillator == nil {
			continue
		}
		b := Banner{
			Ticker:     g.Ticker,
			Zone:       g.Signal.Zone,
			Price:      *g.Price,
			AvgCost:    *g.AvgCost,
			Oscillator: *g.Signal.Oscillator,
		}
		if g.Ticker == pin {
			out = append([]Banner{b}, out...)
		} else {
			out = append(out, b)
		}
	}
	return out
}

func sortGroups(groups []GroupView, order SortOrder) {
	switch order {
	case SortTicker:
		sort.SliceStable(groups, func(i, j int) bool { return groups[i].Ticker < groups[j].Ticker })
	case SortAlpha:
		sort.SliceStable(groups, func(i, j int) bool {
			a, b := groups[i].MeanAlpha, groups[j].MeanAlpha
			if a == nil || b == nil {
				return a != nil && b == nil
			}
			return *a > *b
		})
	}
}
