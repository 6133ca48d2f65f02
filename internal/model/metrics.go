package model

// TrancheMetrics holds the return figures of one tranche. Everything except
// DaysHeld is nil until both the ticker and benchmark prices are known.
type TrancheMetrics struct {
	DaysHeld           int
	CurrentPrice       *float64
	BenchmarkPrice     *float64
	PnL                *float64
	PctPnL             *float64
	AnnPctPnL          *float64
	BenchmarkPnL       *float64
	BenchmarkPctPnL    *float64
	BenchmarkAnnPctPnL *float64
	Alpha              *float64
}
