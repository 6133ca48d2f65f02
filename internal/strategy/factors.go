package strategy

import (
	"fmt"

	"TrancheTrack/internal/model"
)

// Factor names as they appear in reports.
const (
	FactorOscillator = "Cost Oscillator"
	FactorRSI        = "RSI(14)"
	FactorStochastic = "Stochastic %K"
	FactorSAR        = "Parabolic SAR"
	FactorEMA        = "EMA(20)"
)

const unavailable = "n/a"

// scoreOscillator: +2 at or below the add threshold, -2 at or above trim.
func scoreOscillator(osc *float64, th model.AlertThreshold) model.FactorScore {
	f := model.FactorScore{Name: FactorOscillator, Commentary: unavailable}
	if osc == nil {
		return f
	}
	f.Commentary = fmt.Sprintf("%+.1f%% from avg", *osc*100)
	switch zoneOf(*osc, th) {
	case model.ZoneAdd:
		f.Score = 2
	case model.ZoneTrim:
		f.Score = -2
	}
	return f
}

// scoreRSI: overbought at 70, oversold at 30, both inclusive.
func scoreRSI(ind *model.IndicatorSet) model.FactorScore {
	f := model.FactorScore{Name: FactorRSI, Commentary: unavailable}
	if ind == nil || ind.RSI == nil {
		return f
	}
	rsi := *ind.RSI
	f.Commentary = fmt.Sprintf("RSI=%.1f", rsi)
	switch {
	case rsi >= 70:
		f.Score = -1
	case rsi <= 30:
		f.Score = 1
	}
	return f
}

// scoreStochastic: overbought at 80, oversold at 20, both inclusive.
func scoreStochastic(ind *model.IndicatorSet) model.FactorScore {
	f := model.FactorScore{Name: FactorStochastic, Commentary: unavailable}
	if ind == nil || ind.Stoch == nil {
		return f
	}
	k := ind.Stoch.K
	f.Commentary = fmt.Sprintf("%%K=%.1f", k)
	switch {
	case k >= 80:
		f.Score = -1
	case k <= 20:
		f.Score = 1
	}
	return f
}

// scoreSAR penalizes a bearish trend only.
func scoreSAR(ind *model.IndicatorSet) model.FactorScore {
	f := model.FactorScore{Name: FactorSAR, Commentary: unavailable}
	if ind == nil || ind.SAR == nil {
		return f
	}
	f.Commentary = fmt.Sprintf("%s @ %.2f", ind.SAR.Trend, ind.SAR.Value)
	if ind.SAR.Trend == model.TrendBearish {
		f.Score = -1
	}
	return f
}

// scoreEMA penalizes price below the EMA only.
func scoreEMA(price *float64, ind *model.IndicatorSet) model.FactorScore {
	f := model.FactorScore{Name: FactorEMA, Commentary: unavailable}
	if price == nil || ind == nil || ind.EMA == nil {
		return f
	}
	if *price < *ind.EMA {
		f.Score = -1
		f.Commentary = fmt.Sprintf("below %.2f", *ind.EMA)
	} else {
		f.Commentary = fmt.Sprintf("above %.2f", *ind.EMA)
	}
	return f
}
