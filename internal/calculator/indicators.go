package calculator

import "TrancheTrack/internal/model"

// Indicator periods used on every refresh.
const (
	MinBars      = 14
	EMAPeriod    = 20
	RSIPeriod    = 14
	StochKPeriod = 14
	StochDPeriod = 3
)

// ComputeIndicators derives the full indicator set from daily bars in
// ascending order. Series shorter than MinBars yield nil.
func ComputeIndicators(bars []model.OHLCV) *model.IndicatorSet {
	if len(bars) < MinBars {
		return nil
	}
	closes := extractCloses(bars)
	set := &model.IndicatorSet{}

	if v, ok := EMA(closes, EMAPeriod); ok {
		set.EMA = &v
	}
	if v, ok := RSI(closes, RSIPeriod); ok {
		set.RSI = &v
	}
	if st, ok := Stochastic(bars, StochKPeriod, StochDPeriod); ok {
		set.Stoch = st
	}
	if sar, ok := ParabolicSAR(bars); ok {
		set.SAR = &sar
	}
	set.UpFractal, set.DownFractal = Fractals(bars)
	return set
}
