package calculator

import "math"

// Bollinger returns the upper, middle and lower bands of closes. The bands sit
// multiplier population standard deviations around the window SMA.
func Bollinger(closes []float64, window int, multiplier float64) (upper, middle, lower []float64) {
	n := len(closes)
	upper, middle, lower = nanSeries(n), nanSeries(n), nanSeries(n)
	if window <= 0 {
		return upper, middle, lower
	}
	for i := window - 1; i < n; i++ {
		w := closes[i-window+1 : i+1]
		mean := windowMean(w)
		var variance float64
		for _, c := range w {
			variance += (c - mean) * (c - mean)
		}
		sd := math.Sqrt(variance / float64(window))
		middle[i] = mean
		upper[i] = mean + multiplier*sd
		lower[i] = mean - multiplier*sd
	}
	return upper, middle, lower
}
