package calculator

// MACD returns the MACD line (fast EMA minus slow EMA), its signal EMA and
// the histogram between them.
func MACD(closes []float64, fast, slow, signal int) (line, signalLine, histogram []float64) {
	fastEMA := EMA(closes, fast)
	slowEMA := EMA(closes, slow)
	line = make([]float64, len(closes))
	for i := range closes {
		line[i] = fastEMA[i] - slowEMA[i]
	}
	signalLine = EMA(line, signal)
	histogram = make([]float64, len(closes))
	for i := range closes {
		histogram[i] = line[i] - signalLine[i]
	}
	return line, signalLine, histogram
}
