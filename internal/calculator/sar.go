package calculator

import (
	"math"

	"CryptoSignal/internal/model"
)

// ParabolicSAR computes the stop-and-reverse level for every bar after the
// first. The initial trend follows the first close-to-close move.
func ParabolicSAR(bars []model.OHLCV, step, maxStep float64) []float64 {
	out := nanSeries(len(bars))
	if len(bars) < 2 {
		return out
	}

	up := bars[1].Close >= bars[0].Close
	var sar, ep float64
	if up {
		sar, ep = bars[0].Low, bars[0].High
	} else {
		sar, ep = bars[0].High, bars[0].Low
	}
	af := step

	for i := 1; i < len(bars); i++ {
		next := sar + af*(ep-sar)
		if up {
			// Never above the two prior lows.
			next = math.Min(next, bars[i-1].Low)
			if i >= 2 {
				next = math.Min(next, bars[i-2].Low)
			}
			switch {
			case bars[i].Low < next:
				up = false
				next = ep
				ep = bars[i].Low
				af = step
			case bars[i].High > ep:
				ep = bars[i].High
				af = math.Min(af+step, maxStep)
			}
		} else {
			next = math.Max(next, bars[i-1].High)
			if i >= 2 {
				next = math.Max(next, bars[i-2].High)
			}
			switch {
			case bars[i].High > next:
				up = true
				next = ep
				ep = bars[i].High
				af = step
			case bars[i].Low < ep:
				ep = bars[i].Low
				af = math.Min(af+step, maxStep)
			}
		}
		out[i] = next
		sar = next
	}
	return out
}
