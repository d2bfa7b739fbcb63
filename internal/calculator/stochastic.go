package calculator

import "CryptoSignal/internal/model"

// Stochastic computes the KDJ oscillator. Raw %K compares the close with the
// period high-low range, K is its SMA over smooth bars (1 keeps it raw), D is
// the SMA of K over signal bars and J = 3K - 2D.
func Stochastic(bars []model.OHLCV, period, smooth, signal int) (k, d, j []float64) {
	raw := nanSeries(len(bars))
	if period > 0 {
		for i := period - 1; i < len(bars); i++ {
			high, low := highLow(bars, i, period)
			raw[i] = stochRatio(bars[i].Close, low, high)
		}
	}
	k = raw
	if smooth > 1 {
		k = SMA(raw, smooth)
	}
	d = SMA(k, signal)
	j = make([]float64, len(bars))
	for i := range bars {
		j[i] = 3*k[i] - 2*d[i]
	}
	return k, d, j
}

// WilliamsR returns -100 * (HH - close) / (HH - LL) over period bars.
func WilliamsR(bars []model.OHLCV, period int) []float64 {
	out := nanSeries(len(bars))
	if period <= 0 {
		return out
	}
	for i := period - 1; i < len(bars); i++ {
		high, low := highLow(bars, i, period)
		if high == low {
			out[i] = 0
			continue
		}
		out[i] = -100 * (high - bars[i].Close) / (high - low)
	}
	return out
}

// StochRSI applies the stochastic formula to an RSI series, using the
// extremes of the last period RSI values.
func StochRSI(rsi []float64, period int) []float64 {
	out := nanSeries(len(rsi))
	if period <= 0 {
		return out
	}
	for i := period - 1; i < len(rsi); i++ {
		lo, hi, ok := minMax(rsi[i-period+1 : i+1])
		if !ok {
			continue
		}
		out[i] = stochRatio(rsi[i], lo, hi)
	}
	return out
}
