package calculator

import "TrancheTrack/internal/model"

// Fractals scans for 5-bar pivots and returns the most recent confirmed
// up-fractal (high) and down-fractal (low). Either may be nil.
func Fractals(bars []model.OHLCV) (up, down *model.Fractal) {
	for i := 2; i <= len(bars)-3; i++ {
		h := bars[i].High
		if h > bars[i-1].High && h > bars[i-2].High && h > bars[i+1].High && h > bars[i+2].High {
			up = &model.Fractal{Index: i, Price: h}
		}
		l := bars[i].Low
		if l < bars[i-1].Low && l < bars[i-2].Low && l < bars[i+1].Low && l < bars[i+2].Low {
			down = &model.Fractal{Index: i, Price: l}
		}
	}
	return up, down
}
