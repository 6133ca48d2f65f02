package calculator

import (
	"math"

	"TrancheTrack/internal/model"
)

const (
	sarStep = 0.02
	sarMax  = 0.20
)

// ParabolicSAR runs the Wilder stop-and-reverse over bars, starting bullish at
// the first bar's low, and returns the final stop and trend.
func ParabolicSAR(bars []model.OHLCV) (model.SAR, bool) {
	if len(bars) < 5 {
		return model.SAR{}, false
	}
	bullish := true
	sar := bars[0].Low
	ep := bars[0].High
	af := sarStep

	for i := 1; i < len(bars); i++ {
		sar += af * (ep - sar)
		bar := bars[i]

		if bullish {
			sar = math.Min(sar, bars[i-1].Low)
			if i >= 2 {
				sar = math.Min(sar, bars[i-2].Low)
			}
			if bar.Low < sar {
				bullish = false
				sar, ep, af = ep, bar.Low, sarStep
				continue
			}
			if bar.High > ep {
				ep = bar.High
				af = math.Min(af+sarStep, sarMax)
			}
			continue
		}

		sar = math.Max(sar, bars[i-1].High)
		if i >= 2 {
			sar = math.Max(sar, bars[i-2].High)
		}
		if bar.High > sar {
			bullish = true
			sar, ep, af = ep, bar.High, sarStep
			continue
		}
		if bar.Low < ep {
			ep = bar.Low
			af = math.Min(af+sarStep, sarMax)
		}
	}

	trend := model.TrendBullish
	if !bullish {
		trend = model.TrendBearish
	}
	return model.SAR{Value: sar, Trend: trend}, true
}
