package ledger

import "TrancheTrack/internal/model"

// DefaultTranches is the canonical set seeded into an empty or partial
// collection on load.
var DefaultTranches = []model.Tranche{
	{Ticker: "DIA", Date: "2020-07-21", PurchasePrice: 269.60, BenchmarkPrice: 325.01},
	{Ticker: "GLD", Date: "2022-07-18", PurchasePrice: 159.34, BenchmarkPrice: 381.95},
	{Ticker: "GLD", Date: "2025-10-13", PurchasePrice: 376.73, BenchmarkPrice: 663.04},
	{Ticker: "SLV", Date: "2022-07-18", PurchasePrice: 17.32, BenchmarkPrice: 381.95},
	{Ticker: "MRK", Date: "2005-07-26", PurchasePrice: 29.81, BenchmarkPrice: 84.33},
	{Ticker: "MRK", Date: "2009-01-14", PurchasePrice: 26.40, BenchmarkPrice: 84.37},
	{Ticker: "MRK", Date: "2025-05-27", PurchasePrice: 77.12, BenchmarkPrice: 591.15},
	{Ticker: "MRK", Date: "2025-09-02", PurchasePrice: 85.24, BenchmarkPrice: 640.27},
	{Ticker: "MRK", Date: "2025-12-01", PurchasePrice: 105.08, BenchmarkPrice: 680.27},
}

// ShareSeeds maps natural keys to the share counts backfilled onto records
// created before shares were tracked.
type ShareSeeds map[model.NaturalKey]float64

// DefaultShareSeeds covers the default tranches.
var DefaultShareSeeds = ShareSeeds{
	model.KeyOf("DIA", "2020-07-21", 269.60): 37,
	model.KeyOf("GLD", "2022-07-18", 159.34): 62,
	model.KeyOf("GLD", "2025-10-13", 376.73): 26,
	model.KeyOf("SLV", "2022-07-18", 17.32):  577,
	model.KeyOf("MRK", "2005-07-26", 29.81):  335,
	model.KeyOf("MRK", "2009-01-14", 26.40):  378,
	model.KeyOf("MRK", "2025-05-27", 77.12):  129,
	model.KeyOf("MRK", "2025-09-02", 85.24):  117,
	model.KeyOf("MRK", "2025-12-01", 105.08): 95,
}
