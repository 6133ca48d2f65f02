package strategy

import (
	"TrancheTrack/internal/calculator"
	"TrancheTrack/internal/model"
)

// Input is everything the engine needs to score one ticker. Any nil member
// contributes nothing.
type Input struct {
	Ticker     string
	Price      *float64
	AvgCost    *float64
	Threshold  model.AlertThreshold
	Indicators *model.IndicatorSet
}

// Labels maps score floors to labels, highest first. Scores are integers, so
// a floor of 0 after the Buy band only matches exactly 0.
var Labels = []struct {
	MinScore int
	Label    model.SignalLabel
}{
	{3, model.LabelStrongBuy},
	{1, model.LabelBuy},
	{0, model.LabelHold},
	{-2, model.LabelSell},
}

// DefaultLabel applies below the lowest floor.
const DefaultLabel = model.LabelStrongSell

// LabelFor maps a composite score to its label.
func LabelFor(score int) model.SignalLabel {
	for _, l := range Labels {
		if score >= l.MinScore {
			return l.Label
		}
	}
	return DefaultLabel
}

// Evaluate computes the composite signal for one ticker.
func Evaluate(in Input) model.CompositeSignal {
	sig := model.CompositeSignal{Ticker: in.Ticker, Zone: model.ZoneNeutral}

	if in.Price != nil && in.AvgCost != nil {
		if osc, ok := calculator.Oscillator(*in.Price, *in.AvgCost); ok {
			sig.Oscillator = &osc
			sig.Zone = zoneOf(osc, in.Threshold)
		}
	}

	sig.Factors = []model.FactorScore{
		scoreOscillator(sig.Oscillator, in.Threshold),
		scoreRSI(in.Indicators),
		scoreStochastic(in.Indicators),
		scoreSAR(in.Indicators),
		scoreEMA(in.Price, in.Indicators),
	}
	for _, f := range sig.Factors {
		sig.Score += f.Score
	}
	sig.Label = LabelFor(sig.Score)
	return sig
}

func zoneOf(osc float64, th model.AlertThreshold) model.Zone {
	switch {
	case osc <= th.AddPct:
		return model.ZoneAdd
	case osc >= th.TrimPct:
		return model.ZoneTrim
	default:
		return model.ZoneNeutral
	}
}
