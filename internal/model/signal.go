package model

// SignalLabel is the discrete classification of a composite score.
type SignalLabel string

const (
	LabelStrongBuy  SignalLabel = "Strong Buy"
	LabelBuy        SignalLabel = "Buy"
	LabelHold       SignalLabel = "Hold"
	LabelSell       SignalLabel = "Sell"
	LabelStrongSell SignalLabel = "Strong Sell"
)

// Zone classifies the cost-basis oscillator against the alert thresholds.
type Zone string

const (
	ZoneAdd     Zone = "add"
	ZoneTrim    Zone = "trim"
	ZoneNeutral Zone = "neutral"
)

// AlertThreshold holds the per-ticker oscillator triggers, as fractions.
// AddPct is negative, TrimPct positive.
type AlertThreshold struct {
	AddPct  float64 `json:"addPct" yaml:"add_pct" validate:"lt=0,gte=-1"`
	TrimPct float64 `json:"trimPct" yaml:"trim_pct" validate:"gt=0"`
}

// DefaultThreshold applies to tickers with no configured threshold.
var DefaultThreshold = AlertThreshold{AddPct: -0.20, TrimPct: 0.40}

// FactorScore represents a single factor's contribution to the composite score.
type FactorScore struct {
	Name       string
	Score      int
	Commentary string
}

// CompositeSignal is the final output of the strategy engine for one ticker.
type CompositeSignal struct {
	Ticker     string
	Factors    []FactorScore
	Score      int
	Label      SignalLabel
	Oscillator *float64
	Zone       Zone
}
