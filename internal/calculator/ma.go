package calculator

import (
	"math"

	"CryptoSignal/internal/model"
)

// SMA returns the simple moving average of values over period, parallel to
// values. An index is NaN until period consecutive defined values are seen.
func SMA(values []float64, period int) []float64 {
	out := nanSeries(len(values))
	if period <= 0 {
		return out
	}
	run := 0
	for i, v := range values {
		if math.IsNaN(v) {
			run = 0
			continue
		}
		run++
		if run >= period {
			out[i] = windowMean(values[i-period+1 : i+1])
		}
	}
	return out
}

// EMA returns the exponential moving average of values with smoothing factor
// 2/(period+1). The first defined value seeds the average and is itself left
// undefined.
func EMA(values []float64, period int) []float64 {
	out := nanSeries(len(values))
	if period <= 0 {
		return out
	}
	alpha := 2.0 / float64(period+1)
	seeded := false
	var ema float64
	for i, v := range values {
		if math.IsNaN(v) {
			continue
		}
		if !seeded {
			ema = v
			seeded = true
			continue
		}
		ema += alpha * (v - ema)
		out[i] = ema
	}
	return out
}

// windowMean uses an incremental mean so a constant window yields exactly
// that constant.
func windowMean(window []float64) float64 {
	mean := 0.0
	for k, v := range window {
		mean += (v - mean) / float64(k+1)
	}
	return mean
}

func nanSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

func extractCloses(bars []model.OHLCV) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}

func extractVolumes(bars []model.OHLCV) []float64 {
	volumes := make([]float64, len(bars))
	for i, b := range bars {
		volumes[i] = b.Volume
	}
	return volumes
}
