package strategy

import (
	"math"

	"CryptoSignal/internal/model"
)

// Classify reduces the last two indicator rows to a directional signal. It
// returns NEUTRAL with confidence 0 when fewer than two rows exist or a
// required indicator of the latest row is undefined.
func Classify(rows []model.IndicatorRow, cfg model.SignalConfig) *model.Signal {
	if len(rows) < 2 {
		return &model.Signal{Label: model.SignalNeutral}
	}
	latest := &rows[len(rows)-1]
	prev := &rows[len(rows)-2]
	if !ready(latest, cfg) {
		return &model.Signal{Label: model.SignalNeutral}
	}

	votes := make([]model.Vote, 0, len(rules))
	for _, r := range rules {
		votes = append(votes, r(latest, prev, cfg))
	}
	return decide(votes, cfg)
}

// decide tallies votes and maps the tally to a label.
func decide(votes []model.Vote, cfg model.SignalConfig) *model.Signal {
	sig := &model.Signal{Votes: votes}
	for _, v := range votes {
		switch v.Direction {
		case model.Bullish:
			sig.Bullish += v.Weight
		case model.Bearish:
			sig.Bearish += v.Weight
		}
	}
	sig.Label, sig.Confidence = mapLabel(sig.Bullish, sig.Bearish, cfg)
	return sig
}

// mapLabel applies the vote thresholds. A StrongMargin of 0 disables the
// STRONG labels.
func mapLabel(bullish, bearish int, cfg model.SignalConfig) (model.SignalLabel, int) {
	strong := func(win, lose int) bool {
		return cfg.StrongMargin > 0 && win > lose+cfg.StrongMargin
	}
	switch {
	case bullish > bearish && bullish >= cfg.MinVotes:
		if strong(bullish, bearish) {
			return model.SignalStrongLong, bullish - bearish
		}
		return model.SignalLong, bullish - bearish
	case bearish > bullish && bearish >= cfg.MinVotes:
		if strong(bearish, bullish) {
			return model.SignalStrongShort, bearish - bullish
		}
		return model.SignalShort, bearish - bullish
	default:
		return model.SignalNeutral, 0
	}
}

func ready(r *model.IndicatorRow, cfg model.SignalConfig) bool {
	required := []float64{
		r.Bar.Close,
		r.MAValue(cfg.TrendMA),
		r.EMAValue(cfg.FastEMA),
		r.EMAValue(cfg.SlowEMA),
		r.RSI,
		r.MACD,
		r.MACDSignal,
		r.BBUpper,
		r.BBLower,
	}
	for _, v := range required {
		if math.IsNaN(v) {
			return false
		}
	}
	return true
}
