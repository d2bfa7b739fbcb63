package model

import "time"

// OHLCV represents a single candlestick bar.
type OHLCV struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Series holds the bars of one trading pair at a fixed interval, oldest first.
type Series struct {
	Symbol    string
	Interval  string
	Bars      []OHLCV
	FetchedAt time.Time
}

// Last returns the most recent bar and false when the series is empty.
func (s *Series) Last() (OHLCV, bool) {
	if len(s.Bars) == 0 {
		return OHLCV{}, false
	}
	return s.Bars[len(s.Bars)-1], true
}
