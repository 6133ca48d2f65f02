package calculator

import "TrancheTrack/internal/model"

// SMA computes the simple moving average of the last period values.
func SMA(values []float64, period int) (float64, bool) {
	if period <= 0 || len(values) < period {
		return 0, false
	}
	sum := 0.0
	for i := len(values) - period; i < len(values); i++ {
		sum += values[i]
	}
	return sum / float64(period), true
}

// EMA computes the exponential moving average of closes and returns only the
// final value. The seed is the simple average of the first period closes.
func EMA(closes []float64, period int) (float64, bool) {
	if period <= 0 || len(closes) < period {
		return 0, false
	}
	ema, _ := SMA(closes[:period], period)
	k := 2.0 / float64(period+1)
	for _, c := range closes[period:] {
		ema = c*k + ema*(1-k)
	}
	return ema, true
}

func extractCloses(bars []model.OHLCV) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}
