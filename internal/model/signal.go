package model

import "time"

// SignalLabel is the direction recommended by the aggregator.
type SignalLabel string

const (
	SignalStrongLong  SignalLabel = "STRONG_LONG"
	SignalLong        SignalLabel = "LONG"
	SignalNeutral     SignalLabel = "NEUTRAL"
	SignalShort       SignalLabel = "SHORT"
	SignalStrongShort SignalLabel = "STRONG_SHORT"
)

// Opposite returns the label pointing the other way.
func (l SignalLabel) Opposite() SignalLabel {
	switch l {
	case SignalStrongLong:
		return SignalStrongShort
	case SignalLong:
		return SignalShort
	case SignalShort:
		return SignalLong
	case SignalStrongShort:
		return SignalStrongLong
	default:
		return SignalNeutral
	}
}

// Direction of a single rule outcome.
type Direction int

const (
	Bearish Direction = -1
	Abstain Direction = 0
	Bullish Direction = 1
)

// Vote is the outcome of one aggregation rule.
type Vote struct {
	Rule       string
	Direction  Direction
	Weight     int
	Commentary string
}

// Signal is the final output of the signal aggregator.
type Signal struct {
	Label      SignalLabel
	Confidence int
	Bullish    int
	Bearish    int
	Votes      []Vote
}

// SignalConfig holds the rule parameters and thresholds of the aggregator.
type SignalConfig struct {
	TrendMA          int     `yaml:"trend_ma"`
	FastEMA          int     `yaml:"fast_ema"`
	SlowEMA          int     `yaml:"slow_ema"`
	RequireCrossover bool    `yaml:"require_crossover"`
	RSIOversold      float64 `yaml:"rsi_oversold"`
	RSIOverbought    float64 `yaml:"rsi_overbought"`
	RSIExtremeWeight int     `yaml:"rsi_extreme_weight"`
	StochLow         float64 `yaml:"stoch_low"`
	StochHigh        float64 `yaml:"stoch_high"`
	WRLow            float64 `yaml:"wr_low"`
	WRHigh           float64 `yaml:"wr_high"`
	MinVotes         int     `yaml:"min_votes"`
	StrongMargin     int     `yaml:"strong_margin"`
}

// DefaultSignalConfig returns the crossover-agnostic extended rule set.
func DefaultSignalConfig() SignalConfig {
	return SignalConfig{
		TrendMA:          20,
		FastEMA:          5,
		SlowEMA:          26,
		RSIOversold:      30,
		RSIOverbought:    70,
		RSIExtremeWeight: 2,
		StochLow:         20,
		StochHigh:        80,
		WRLow:            -80,
		WRHigh:           -20,
		MinVotes:         3,
		StrongMargin:     3,
	}
}

// Analysis is one evaluated trading pair, ready for presentation.
type Analysis struct {
	Symbol string
	Price  float64
	Latest IndicatorRow
	Signal *Signal
	At     time.Time
}
