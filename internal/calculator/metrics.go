package calculator

import (
	"math"
	"time"

	"TrancheTrack/internal/model"
)

// ComputeTrancheMetrics derives P&L, annualized return and alpha versus the
// benchmark for one tranche as of the given instant. With either price
// missing only DaysHeld is populated.
func ComputeTrancheMetrics(t model.Tranche, currentPrice, benchmarkPrice *float64, asOf time.Time) model.TrancheMetrics {
	m := model.TrancheMetrics{DaysHeld: DaysHeld(t.Date, asOf)}
	if currentPrice == nil || benchmarkPrice == nil {
		return m
	}
	cur, bench := *currentPrice, *benchmarkPrice

	pnl := cur - t.PurchasePrice
	pctPnl := pnl / t.PurchasePrice
	annPctPnl := annualize(pctPnl, m.DaysHeld)

	benchPnl := bench - t.BenchmarkPrice
	benchPctPnl := benchPnl / t.BenchmarkPrice
	benchAnnPctPnl := annualize(benchPctPnl, m.DaysHeld)

	alpha := (annPctPnl - benchAnnPctPnl) * 100

	m.CurrentPrice = &cur
	m.BenchmarkPrice = &bench
	m.PnL = &pnl
	m.PctPnL = &pctPnl
	m.AnnPctPnL = &annPctPnl
	m.BenchmarkPnL = &benchPnl
	m.BenchmarkPctPnL = &benchPctPnl
	m.BenchmarkAnnPctPnL = &benchAnnPctPnl
	m.Alpha = &alpha
	return m
}

// DaysHeld returns the whole days between midnight of the purchase date and
// asOf, in asOf's location. Future dates give a negative count. Unparseable
// dates count as zero.
func DaysHeld(date string, asOf time.Time) int {
	purchased, err := time.ParseInLocation(model.DateLayout, date, asOf.Location())
	if err != nil {
		return 0
	}
	return int(math.Floor(asOf.Sub(purchased).Hours() / 24))
}

func annualize(pct float64, days int) float64 {
	if days <= 0 {
		return 0
	}
	return pct / (float64(days) / 365)
}

// Oscillator returns the fractional distance of price from avgCost.
func Oscillator(price, avgCost float64) (float64, bool) {
	if avgCost <= 0 {
		return 0, false
	}
	return (price - avgCost) / avgCost, true
}
