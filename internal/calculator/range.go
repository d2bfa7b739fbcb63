package calculator

import (
	"math"

	"CryptoSignal/internal/model"
)

// highLow scans bars[end-period+1 : end+1] and returns the highest high and
// the lowest low.
func highLow(bars []model.OHLCV, end, period int) (high, low float64) {
	high = math.Inf(-1)
	low = math.Inf(1)
	for i := end - period + 1; i <= end; i++ {
		if bars[i].High > high {
			high = bars[i].High
		}
		if bars[i].Low < low {
			low = bars[i].Low
		}
	}
	return high, low
}

// HighLowRange returns HH - LL over the last period bars, NaN until the
// window is full.
func HighLowRange(bars []model.OHLCV, period int) []float64 {
	out := nanSeries(len(bars))
	if period <= 0 {
		return out
	}
	for i := period - 1; i < len(bars); i++ {
		high, low := highLow(bars, i, period)
		out[i] = high - low
	}
	return out
}

// minMax returns the extremes of values; ok is false if any value is NaN.
func minMax(values []float64) (lo, hi float64, ok bool) {
	lo = math.Inf(1)
	hi = math.Inf(-1)
	for _, v := range values {
		if math.IsNaN(v) {
			return 0, 0, false
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi, true
}

// stochRatio places value inside [low, high] on a 0..100 scale. A zero
// range is defined as 0.
func stochRatio(value, low, high float64) float64 {
	if high == low {
		return 0
	}
	return 100 * ((value - low) / (high - low))
}
