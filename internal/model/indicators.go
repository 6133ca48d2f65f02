package model

// Trend is the Parabolic SAR direction.
type Trend string

const (
	TrendBullish Trend = "Bullish"
	TrendBearish Trend = "Bearish"
)

// SAR is the final Parabolic SAR reading of a bar series.
type SAR struct {
	Value float64
	Trend Trend
}

// Fractal is a confirmed 5-bar pivot.
type Fractal struct {
	Index int
	Price float64
}

// Stochastic holds the latest %K and, when enough history exists, %D.
type Stochastic struct {
	K float64
	D *float64
}

// IndicatorSet holds all computed technical indicators for one ticker.
// A nil member means the series was too short for that indicator.
type IndicatorSet struct {
	EMA         *float64
	RSI         *float64
	Stoch       *Stochastic
	SAR         *SAR
	UpFractal   *Fractal
	DownFractal *Fractal
}
