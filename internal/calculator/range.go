package calculator

import (
	"math"

	"TrancheTrack/internal/model"
)

// windowRange returns the highest high and lowest low of bars[start:end].
func windowRange(bars []model.OHLCV, start, end int) (high, low float64) {
	high = math.Inf(-1)
	low = math.Inf(1)
	for i := start; i < end; i++ {
		if bars[i].High > high {
			high = bars[i].High
		}
		if bars[i].Low < low {
			low = bars[i].Low
		}
	}
	return high, low
}

// Stochastic computes the latest %K over kPeriod bars and its %D, the simple
// average of the last dPeriod %K readings. A flat window reads 50.
func Stochastic(bars []model.OHLCV, kPeriod, dPeriod int) (*model.Stochastic, bool) {
	if kPeriod <= 0 || len(bars) < kPeriod {
		return nil, false
	}
	ks := make([]float64, 0, len(bars)-kPeriod+1)
	for end := kPeriod; end <= len(bars); end++ {
		high, low := windowRange(bars, end-kPeriod, end)
		k := 50.0
		if high != low {
			k = (bars[end-1].Close - low) / (high - low) * 100
		}
		ks = append(ks, k)
	}
	st := &model.Stochastic{K: ks[len(ks)-1]}
	if d, ok := SMA(ks, dPeriod); ok {
		st.D = &d
	}
	return st, true
}
