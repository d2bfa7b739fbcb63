package calculator

import "CryptoSignal/internal/model"

// OBV returns the on-balance volume, starting at 0 on the first bar.
func OBV(bars []model.OHLCV) []float64 {
	out := make([]float64, len(bars))
	obv := 0.0
	for i := 1; i < len(bars); i++ {
		switch {
		case bars[i].Close > bars[i-1].Close:
			obv += bars[i].Volume
		case bars[i].Close < bars[i-1].Close:
			obv -= bars[i].Volume
		}
		out[i] = obv
	}
	return out
}
