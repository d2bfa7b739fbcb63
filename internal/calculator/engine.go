package calculator

import (
	"errors"
	"fmt"

	"CryptoSignal/internal/model"
)

var (
	// ErrInsufficientData is returned with undefined rows when the series is
	// shorter than IndicatorConfig.MinBars.
	ErrInsufficientData = errors.New("not enough bars for indicator calculation")
	// ErrInvalidConfig reports a window length the engine cannot use.
	ErrInvalidConfig = errors.New("invalid indicator config")
)

// Compute returns one IndicatorRow per bar. Every value depends only on the
// bars up to and including its own index.
func Compute(bars []model.OHLCV, cfg model.IndicatorConfig) ([]model.IndicatorRow, error) {
	if err := Validate(cfg); err != nil {
		return nil, err
	}

	rows := make([]model.IndicatorRow, len(bars))
	for i, b := range bars {
		rows[i] = model.NewIndicatorRow(b, cfg)
	}
	if len(bars) < cfg.MinBars {
		return rows, ErrInsufficientData
	}

	closes := extractCloses(bars)

	for _, p := range cfg.MA {
		ma := SMA(closes, p)
		for i := range rows {
			rows[i].MA[p] = ma[i]
		}
	}
	for _, p := range cfg.EMA {
		ema := EMA(closes, p)
		for i := range rows {
			rows[i].EMA[p] = ema[i]
		}
	}

	upper, middle, lower := Bollinger(closes, cfg.BOLL.Window, cfg.BOLL.StdDev)
	sar := ParabolicSAR(bars, cfg.SAR.Step, cfg.SAR.Max)
	macd, signal, hist := MACD(closes, cfg.MACD.Fast, cfg.MACD.Slow, cfg.MACD.Signal)
	rsi := RSI(closes, cfg.RSI)
	k, d, j := Stochastic(bars, cfg.STOCH.Period, cfg.STOCH.Smooth, cfg.STOCH.Signal)
	wr := WilliamsR(bars, cfg.WR)
	stochRange := HighLowRange(bars, cfg.STOCH.Period)
	wrRange := HighLowRange(bars, cfg.WR)
	obv := OBV(bars)
	stochRSI := StochRSI(RSI(closes, cfg.StochRSI), cfg.StochRSI)
	volumeMA := SMA(extractVolumes(bars), cfg.VolumePeriod)

	for i := range rows {
		r := &rows[i]
		r.BBUpper, r.BBMiddle, r.BBLower = upper[i], middle[i], lower[i]
		r.SAR = sar[i]
		r.MACD, r.MACDSignal, r.MACDHistogram = macd[i], signal[i], hist[i]
		r.RSI = rsi[i]
		r.K, r.D, r.J = k[i], d[i], j[i]
		r.WR = wr[i]
		r.StochFlat = stochRange[i] == 0
		r.WRFlat = wrRange[i] == 0
		r.OBV = obv[i]
		r.StochRSI = stochRSI[i]
		r.VolumeMA = volumeMA[i]
	}
	return rows, nil
}

// Validate checks that every window in cfg is usable.
func Validate(cfg model.IndicatorConfig) error {
	for _, p := range cfg.MA {
		if p <= 0 {
			return fmt.Errorf("%w: ma period %d", ErrInvalidConfig, p)
		}
	}
	for _, p := range cfg.EMA {
		if p <= 0 {
			return fmt.Errorf("%w: ema period %d", ErrInvalidConfig, p)
		}
	}
	periods := []struct {
		name  string
		value int
	}{
		{"boll window", cfg.BOLL.Window},
		{"macd fast", cfg.MACD.Fast},
		{"macd slow", cfg.MACD.Slow},
		{"macd signal", cfg.MACD.Signal},
		{"rsi", cfg.RSI},
		{"stoch period", cfg.STOCH.Period},
		{"stoch signal", cfg.STOCH.Signal},
		{"wr", cfg.WR},
		{"stoch_rsi", cfg.StochRSI},
		{"volume period", cfg.VolumePeriod},
	}
	for _, p := range periods {
		if p.value <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %d", ErrInvalidConfig, p.name, p.value)
		}
	}
	if cfg.STOCH.Smooth < 0 {
		return fmt.Errorf("%w: stoch smooth %d", ErrInvalidConfig, cfg.STOCH.Smooth)
	}
	if cfg.MACD.Fast >= cfg.MACD.Slow {
		return fmt.Errorf("%w: macd fast %d must be below slow %d", ErrInvalidConfig, cfg.MACD.Fast, cfg.MACD.Slow)
	}
	if cfg.BOLL.StdDev < 0 {
		return fmt.Errorf("%w: boll std_dev %.2f", ErrInvalidConfig, cfg.BOLL.StdDev)
	}
	if cfg.SAR.Step <= 0 || cfg.SAR.Max < cfg.SAR.Step {
		return fmt.Errorf("%w: sar step %.3f / max %.3f", ErrInvalidConfig, cfg.SAR.Step, cfg.SAR.Max)
	}
	if cfg.MinBars < 0 {
		return fmt.Errorf("%w: min_bars %d", ErrInvalidConfig, cfg.MinBars)
	}
	return nil
}
