package strategy

import (
	"fmt"

	"CryptoSignal/internal/model"
)

// rule casts one vote from the latest row and the one before it.
type rule func(latest, prev *model.IndicatorRow, cfg model.SignalConfig) model.Vote

// rules are evaluated in this order; the order is kept in Signal.Votes.
var rules = []rule{
	voteTrend,
	voteEMACross,
	voteRSI,
	voteBollinger,
	voteMACD,
	voteStochastic,
	voteWilliamsR,
	voteVolume,
	voteSAR,
	voteOBV,
}

// compare returns Bullish when a > b, Bearish when a < b and Abstain on a tie
// or when either side is undefined.
func compare(a, b float64) model.Direction {
	switch {
	case a > b:
		return model.Bullish
	case a < b:
		return model.Bearish
	default:
		return model.Abstain
	}
}

func vote(name string, dir model.Direction, weight int, commentary string) model.Vote {
	if dir == model.Abstain {
		weight = 0
	}
	return model.Vote{Rule: name, Direction: dir, Weight: weight, Commentary: commentary}
}

// crossed keeps only a fresh cross of fast over slow versus the previous row.
func crossed(fast, slow, prevFast, prevSlow float64) model.Direction {
	now := compare(fast, slow)
	switch {
	case now == model.Bullish && prevFast <= prevSlow:
		return model.Bullish
	case now == model.Bearish && prevFast >= prevSlow:
		return model.Bearish
	default:
		return model.Abstain
	}
}

// voteTrend compares the close with the long moving average.
func voteTrend(latest, _ *model.IndicatorRow, cfg model.SignalConfig) model.Vote {
	ma := latest.MAValue(cfg.TrendMA)
	return vote("trend", compare(latest.Bar.Close, ma), 1,
		fmt.Sprintf("close %.4g vs MA%d %.4g", latest.Bar.Close, cfg.TrendMA, ma))
}

// voteEMACross compares the fast and slow EMA.
func voteEMACross(latest, prev *model.IndicatorRow, cfg model.SignalConfig) model.Vote {
	fast, slow := latest.EMAValue(cfg.FastEMA), latest.EMAValue(cfg.SlowEMA)
	dir := compare(fast, slow)
	if cfg.RequireCrossover {
		dir = crossed(fast, slow, prev.EMAValue(cfg.FastEMA), prev.EMAValue(cfg.SlowEMA))
	}
	return vote("ema", dir, 1, fmt.Sprintf("EMA%d %.4g vs EMA%d %.4g", cfg.FastEMA, fast, cfg.SlowEMA, slow))
}

// voteRSI weights the oversold and overbought zones.
func voteRSI(latest, _ *model.IndicatorRow, cfg model.SignalConfig) model.Vote {
	rsi := latest.RSI
	weight := cfg.RSIExtremeWeight
	if weight < 1 {
		weight = 1
	}
	switch {
	case rsi < cfg.RSIOversold:
		return vote("rsi", model.Bullish, weight, fmt.Sprintf("RSI=%.0f oversold", rsi))
	case rsi > cfg.RSIOverbought:
		return vote("rsi", model.Bearish, weight, fmt.Sprintf("RSI=%.0f overbought", rsi))
	default:
		return vote("rsi", compare(rsi, 50), 1, fmt.Sprintf("RSI=%.0f", rsi))
	}
}

// voteBollinger treats a touch of either band as a mean-reversion setup.
func voteBollinger(latest, _ *model.IndicatorRow, _ model.SignalConfig) model.Vote {
	c := latest.Bar.Close
	switch {
	case !(latest.BBUpper > latest.BBLower):
		return vote("boll", model.Abstain, 0, "band width 0")
	case c <= latest.BBLower:
		return vote("boll", model.Bullish, 1, "close at lower band")
	case c >= latest.BBUpper:
		return vote("boll", model.Bearish, 1, "close at upper band")
	default:
		return vote("boll", model.Abstain, 0, "inside bands")
	}
}

// voteMACD compares the MACD line with its signal line.
func voteMACD(latest, prev *model.IndicatorRow, cfg model.SignalConfig) model.Vote {
	dir := compare(latest.MACD, latest.MACDSignal)
	if cfg.RequireCrossover {
		dir = crossed(latest.MACD, latest.MACDSignal, prev.MACD, prev.MACDSignal)
	}
	return vote("macd", dir, 1, fmt.Sprintf("hist %.4g", latest.MACDHistogram))
}

func voteStochastic(latest, _ *model.IndicatorRow, cfg model.SignalConfig) model.Vote {
	k, d := latest.K, latest.D
	commentary := fmt.Sprintf("K=%.0f D=%.0f", k, d)
	switch {
	case latest.StochFlat:
		return vote("kdj", model.Abstain, 0, "flat range")
	case k < cfg.StochLow && d < cfg.StochLow:
		return vote("kdj", model.Bullish, 1, commentary)
	case k > cfg.StochHigh && d > cfg.StochHigh:
		return vote("kdj", model.Bearish, 1, commentary)
	default:
		return vote("kdj", model.Abstain, 0, commentary)
	}
}

func voteWilliamsR(latest, _ *model.IndicatorRow, cfg model.SignalConfig) model.Vote {
	wr := latest.WR
	commentary := fmt.Sprintf("WR=%.0f", wr)
	switch {
	case latest.WRFlat:
		return vote("wr", model.Abstain, 0, "flat range")
	case wr > cfg.WRHigh:
		return vote("wr", model.Bearish, 1, commentary)
	case wr < cfg.WRLow:
		return vote("wr", model.Bullish, 1, commentary)
	default:
		return vote("wr", model.Abstain, 0, commentary)
	}
}

// voteVolume follows the last price change when volume runs above its average.
func voteVolume(latest, prev *model.IndicatorRow, _ model.SignalConfig) model.Vote {
	if !(latest.Bar.Volume > latest.VolumeMA) {
		return vote("volume", model.Abstain, 0, "volume below average")
	}
	return vote("volume", compare(latest.Bar.Close, prev.Bar.Close), 1,
		fmt.Sprintf("volume %.0f > avg %.0f", latest.Bar.Volume, latest.VolumeMA))
}

func voteSAR(latest, _ *model.IndicatorRow, _ model.SignalConfig) model.Vote {
	return vote("sar", compare(latest.Bar.Close, latest.SAR), 1, fmt.Sprintf("SAR %.4g", latest.SAR))
}

func voteOBV(latest, prev *model.IndicatorRow, _ model.SignalConfig) model.Vote {
	return vote("obv", compare(latest.OBV, prev.OBV), 1, fmt.Sprintf("OBV %.0f", latest.OBV))
}
