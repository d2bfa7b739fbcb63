package model

import "math"

// IndicatorConfig holds the window lengths used by the indicator engine.
type IndicatorConfig struct {
	MA   []int `yaml:"ma"`
	EMA  []int `yaml:"ema"`
	BOLL struct {
		Window int     `yaml:"window"`
		StdDev float64 `yaml:"std_dev"`
	} `yaml:"boll"`
	SAR struct {
		Step float64 `yaml:"step"`
		Max  float64 `yaml:"max"`
	} `yaml:"sar"`
	MACD struct {
		Fast   int `yaml:"fast"`
		Slow   int `yaml:"slow"`
		Signal int `yaml:"signal"`
	} `yaml:"macd"`
	RSI   int `yaml:"rsi"`
	STOCH struct {
		Period int `yaml:"period"`
		Smooth int `yaml:"smooth"`
		Signal int `yaml:"signal"`
	} `yaml:"stoch"`
	WR           int `yaml:"wr"`
	StochRSI     int `yaml:"stoch_rsi"`
	VolumePeriod int `yaml:"volume_period"`
	MinBars      int `yaml:"min_bars"`
}

// DefaultIndicatorConfig returns the windows used by the 5m scalping setup.
func DefaultIndicatorConfig() IndicatorConfig {
	var cfg IndicatorConfig
	cfg.MA = []int{5, 10, 20}
	cfg.EMA = []int{5, 12, 26}
	cfg.BOLL.Window = 20
	cfg.BOLL.StdDev = 2
	cfg.SAR.Step = 0.02
	cfg.SAR.Max = 0.2
	cfg.MACD.Fast = 12
	cfg.MACD.Slow = 26
	cfg.MACD.Signal = 9
	cfg.RSI = 14
	cfg.STOCH.Period = 14
	cfg.STOCH.Smooth = 1
	cfg.STOCH.Signal = 3
	cfg.WR = 14
	cfg.StochRSI = 14
	cfg.VolumePeriod = 20
	cfg.MinBars = 50
	return cfg
}

// IndicatorRow is the bar at one index of a series together with every
// indicator value computed up to and including that bar. Values whose
// lookback window is not yet satisfied are NaN.
type IndicatorRow struct {
	Bar OHLCV

	MA  map[int]float64
	EMA map[int]float64

	BBUpper  float64
	BBMiddle float64
	BBLower  float64

	SAR float64

	MACD          float64
	MACDSignal    float64
	MACDHistogram float64

	RSI float64

	K float64
	D float64
	J float64

	WR       float64
	OBV      float64
	StochRSI float64
	VolumeMA float64

	// StochFlat and WRFlat mark a zero high-low range over the oscillator
	// window, where K and WR are defined as 0 but carry no position.
	StochFlat bool
	WRFlat    bool
}

// NewIndicatorRow returns a row for bar with every indicator undefined.
func NewIndicatorRow(bar OHLCV, cfg IndicatorConfig) IndicatorRow {
	nan := math.NaN()
	row := IndicatorRow{
		Bar:           bar,
		MA:            make(map[int]float64, len(cfg.MA)),
		EMA:           make(map[int]float64, len(cfg.EMA)),
		BBUpper:       nan,
		BBMiddle:      nan,
		BBLower:       nan,
		SAR:           nan,
		MACD:          nan,
		MACDSignal:    nan,
		MACDHistogram: nan,
		RSI:           nan,
		K:             nan,
		D:             nan,
		J:             nan,
		WR:            nan,
		OBV:           nan,
		StochRSI:      nan,
		VolumeMA:      nan,
	}
	for _, p := range cfg.MA {
		row.MA[p] = nan
	}
	for _, p := range cfg.EMA {
		row.EMA[p] = nan
	}
	return row
}

// MAValue returns MA_period, NaN when it was not configured.
func (r IndicatorRow) MAValue(period int) float64 {
	if v, ok := r.MA[period]; ok {
		return v
	}
	return math.NaN()
}

// EMAValue returns EMA_period, NaN when it was not configured.
func (r IndicatorRow) EMAValue(period int) float64 {
	if v, ok := r.EMA[period]; ok {
		return v
	}
	return math.NaN()
}
