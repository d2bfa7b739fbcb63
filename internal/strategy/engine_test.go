package strategy

import (
	"math"
	"testing"
	"time"

	"CryptoSignal/internal/calculator"
	"CryptoSignal/internal/model"
)

func genRows(t *testing.T, n int, closeAt func(i int) float64) []model.IndicatorRow {
	t.Helper()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]model.OHLCV, n)
	for i := range bars {
		c := closeAt(i)
		bars[i] = model.OHLCV{
			Time: start.Add(time.Duration(i) * 5 * time.Minute),
			Open: c, High: c + 0.5, Low: c - 0.5, Close: c, Volume: 1000,
		}
	}
	rows, err := calculator.Compute(bars, model.DefaultIndicatorConfig())
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	return rows
}

// baseRow is a fully defined row on which no rule votes.
func baseRow() model.IndicatorRow {
	cfg := model.DefaultIndicatorConfig()
	r := model.NewIndicatorRow(model.OHLCV{Open: 100, High: 101, Low: 99, Close: 100, Volume: 500}, cfg)
	for _, p := range cfg.MA {
		r.MA[p] = 100
	}
	for _, p := range cfg.EMA {
		r.EMA[p] = 100
	}
	r.BBUpper, r.BBMiddle, r.BBLower = 105, 100, 95
	r.SAR = 100
	r.MACD, r.MACDSignal, r.MACDHistogram = 0, 0, 0
	r.RSI = 50
	r.K, r.D, r.J = 50, 50, 50
	r.WR = -50
	r.OBV = 0
	r.StochRSI = 50
	r.VolumeMA = 1000
	return r
}

func findVote(sig *model.Signal, name string) model.Vote {
	for _, v := range sig.Votes {
		if v.Rule == name {
			return v
		}
	}
	return model.Vote{}
}

func TestClassify_RisingSeries(t *testing.T) {
	rows := genRows(t, 60, func(i int) float64 { return 100 + float64(i) })
	sig := Classify(rows, model.DefaultSignalConfig())

	if sig.Label != model.SignalLong && sig.Label != model.SignalStrongLong {
		t.Fatalf("expected LONG or STRONG_LONG, got %s (bull=%d bear=%d)", sig.Label, sig.Bullish, sig.Bearish)
	}
	if sig.Confidence <= 0 {
		t.Errorf("expected positive confidence, got %d", sig.Confidence)
	}
	if v := findVote(sig, "rsi"); v.Direction != model.Bearish || v.Weight != 2 {
		t.Errorf("RSI 100 should be a double bearish vote, got %+v", v)
	}
	if len(sig.Votes) != len(rules) {
		t.Errorf("expected %d votes, got %d", len(rules), len(sig.Votes))
	}
}

func TestClassify_FallingSeries(t *testing.T) {
	rows := genRows(t, 60, func(i int) float64 { return 159 - float64(i) })
	sig := Classify(rows, model.DefaultSignalConfig())

	if sig.Label != model.SignalShort && sig.Label != model.SignalStrongShort {
		t.Fatalf("expected SHORT or STRONG_SHORT, got %s (bull=%d bear=%d)", sig.Label, sig.Bullish, sig.Bearish)
	}
	if sig.Confidence <= 0 {
		t.Errorf("expected positive confidence, got %d", sig.Confidence)
	}
}

func TestClassify_FlatSeries(t *testing.T) {
	rows := genRows(t, 60, func(int) float64 { return 1000 })
	sig := Classify(rows, model.DefaultSignalConfig())
	if sig.Label != model.SignalNeutral || sig.Confidence != 0 {
		t.Errorf("expected NEUTRAL/0 on a flat market, got %s/%d", sig.Label, sig.Confidence)
	}
}

func TestClassify_ZeroRangeOscillatorsAbstain(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]model.OHLCV, 60)
	for i := range bars {
		bars[i] = model.OHLCV{
			Time: start.Add(time.Duration(i) * 5 * time.Minute),
			Open: 1000, High: 1000, Low: 1000, Close: 1000, Volume: 1000,
		}
	}
	rows, err := calculator.Compute(bars, model.DefaultIndicatorConfig())
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	sig := Classify(rows, model.DefaultSignalConfig())
	for _, rule := range []string{"kdj", "wr"} {
		if v := findVote(sig, rule); v.Direction != model.Abstain {
			t.Errorf("%s should abstain on a zero range, got %+v", rule, v)
		}
	}
	if sig.Label != model.SignalNeutral || sig.Bullish != 0 || sig.Bearish != 0 {
		t.Errorf("expected an empty NEUTRAL tally, got %s %d/%d", sig.Label, sig.Bullish, sig.Bearish)
	}
}

func TestClassify_NotEnoughRows(t *testing.T) {
	cfg := model.DefaultSignalConfig()
	for _, rows := range [][]model.IndicatorRow{nil, {baseRow()}} {
		sig := Classify(rows, cfg)
		if sig.Label != model.SignalNeutral || sig.Confidence != 0 {
			t.Errorf("%d rows: expected NEUTRAL/0, got %s/%d", len(rows), sig.Label, sig.Confidence)
		}
	}

	// Shorter than the minimum bar count: every indicator undefined.
	bars := make([]model.OHLCV, 40)
	for i := range bars {
		c := 100 + float64(i)
		bars[i] = model.OHLCV{Open: c, High: c, Low: c, Close: c, Volume: 1}
	}
	rows, _ := calculator.Compute(bars, model.DefaultIndicatorConfig())
	if sig := Classify(rows, cfg); sig.Label != model.SignalNeutral || sig.Confidence != 0 {
		t.Errorf("insufficient data: expected NEUTRAL/0, got %s/%d", sig.Label, sig.Confidence)
	}
}

func TestClassify_UndefinedColumn(t *testing.T) {
	prev, latest := baseRow(), baseRow()
	latest.RSI = math.NaN()
	sig := Classify([]model.IndicatorRow{prev, latest}, model.DefaultSignalConfig())
	if sig.Label != model.SignalNeutral || sig.Confidence != 0 {
		t.Errorf("expected NEUTRAL/0 with undefined RSI, got %s/%d", sig.Label, sig.Confidence)
	}
}

func TestClassify_QuietRowAbstains(t *testing.T) {
	sig := Classify([]model.IndicatorRow{baseRow(), baseRow()}, model.DefaultSignalConfig())
	for _, v := range sig.Votes {
		if v.Direction != model.Abstain {
			t.Errorf("rule %s should abstain on a quiet row, got %+v", v.Rule, v)
		}
	}
	if sig.Label != model.SignalNeutral {
		t.Errorf("expected NEUTRAL, got %s", sig.Label)
	}
}

func TestClassify_Deterministic(t *testing.T) {
	rows := genRows(t, 80, func(i int) float64 { return 100 + 10*math.Sin(float64(i)/4) })
	cfg := model.DefaultSignalConfig()
	a, b := Classify(rows, cfg), Classify(rows, cfg)
	if a.Label != b.Label || a.Confidence != b.Confidence || a.Bullish != b.Bullish || a.Bearish != b.Bearish {
		t.Errorf("repeated calls differ: %+v vs %+v", a, b)
	}
}

func TestDecide_Symmetric(t *testing.T) {
	cfg := model.DefaultSignalConfig()
	inputs := [][]model.IndicatorRow{
		genRows(t, 60, func(i int) float64 { return 100 + float64(i) }),
		genRows(t, 80, func(i int) float64 { return 100 + 10*math.Sin(float64(i)/4) }),
		genRows(t, 70, func(i int) float64 { return 200 - 0.5*float64(i) + 3*math.Cos(float64(i)) }),
	}
	for n, rows := range inputs {
		sig := Classify(rows, cfg)
		mirrored := make([]model.Vote, len(sig.Votes))
		for i, v := range sig.Votes {
			v.Direction = -v.Direction
			mirrored[i] = v
		}
		flipped := decide(mirrored, cfg)
		if flipped.Label != sig.Label.Opposite() {
			t.Errorf("input %d: %s mirrored to %s", n, sig.Label, flipped.Label)
		}
		if flipped.Confidence != sig.Confidence {
			t.Errorf("input %d: confidence %d mirrored to %d", n, sig.Confidence, flipped.Confidence)
		}
	}
}

func TestMapLabel_Thresholds(t *testing.T) {
	cfg := model.DefaultSignalConfig()
	tests := []struct {
		bull, bear int
		label      model.SignalLabel
		confidence int
	}{
		{8, 2, model.SignalStrongLong, 6},
		{7, 4, model.SignalLong, 3},
		{5, 4, model.SignalLong, 1},
		{3, 0, model.SignalLong, 3},
		{2, 0, model.SignalNeutral, 0},
		{4, 4, model.SignalNeutral, 0},
		{0, 0, model.SignalNeutral, 0},
		{0, 2, model.SignalNeutral, 0},
		{3, 5, model.SignalShort, 2},
		{1, 5, model.SignalStrongShort, 4},
	}
	for _, tt := range tests {
		label, conf := mapLabel(tt.bull, tt.bear, cfg)
		if label != tt.label || conf != tt.confidence {
			t.Errorf("bull=%d bear=%d: expected %s/%d, got %s/%d", tt.bull, tt.bear, tt.label, tt.confidence, label, conf)
		}
		mirror, mconf := mapLabel(tt.bear, tt.bull, cfg)
		if mirror != tt.label.Opposite() || mconf != conf {
			t.Errorf("bull=%d bear=%d: mirror gave %s/%d", tt.bear, tt.bull, mirror, mconf)
		}
	}

	simple := cfg
	simple.StrongMargin = 0
	if label, _ := mapLabel(9, 0, simple); label != model.SignalLong {
		t.Errorf("strong labels should be disabled, got %s", label)
	}
}

func TestRules_Crossover(t *testing.T) {
	cfg := model.DefaultSignalConfig()
	cfg.RequireCrossover = true

	prev, latest := baseRow(), baseRow()
	prev.EMA[cfg.FastEMA], prev.EMA[cfg.SlowEMA] = 99, 100
	latest.EMA[cfg.FastEMA], latest.EMA[cfg.SlowEMA] = 101, 100
	prev.MACD, prev.MACDSignal = -0.2, 0.1
	latest.MACD, latest.MACDSignal = 0.3, 0.1

	sig := Classify([]model.IndicatorRow{prev, latest}, cfg)
	if v := findVote(sig, "ema"); v.Direction != model.Bullish {
		t.Errorf("fresh EMA cross should vote bullish, got %+v", v)
	}
	if v := findVote(sig, "macd"); v.Direction != model.Bullish {
		t.Errorf("fresh MACD cross should vote bullish, got %+v", v)
	}

	// Already above on the previous bar: no fresh cross.
	prev.EMA[cfg.FastEMA] = 101
	prev.MACD = 0.3
	sig = Classify([]model.IndicatorRow{prev, latest}, cfg)
	if v := findVote(sig, "ema"); v.Direction != model.Abstain {
		t.Errorf("stale EMA cross should abstain, got %+v", v)
	}
	if v := findVote(sig, "macd"); v.Direction != model.Abstain {
		t.Errorf("stale MACD cross should abstain, got %+v", v)
	}

	cfg.RequireCrossover = false
	sig = Classify([]model.IndicatorRow{prev, latest}, cfg)
	if v := findVote(sig, "ema"); v.Direction != model.Bullish {
		t.Errorf("static comparison should vote bullish, got %+v", v)
	}
}

func TestRules_Oscillators(t *testing.T) {
	cfg := model.DefaultSignalConfig()
	tests := []struct {
		name   string
		mutate func(r *model.IndicatorRow)
		rule   string
		dir    model.Direction
		weight int
	}{
		{"rsi oversold", func(r *model.IndicatorRow) { r.RSI = 25 }, "rsi", model.Bullish, 2},
		{"rsi overbought", func(r *model.IndicatorRow) { r.RSI = 75 }, "rsi", model.Bearish, 2},
		{"rsi mild bull", func(r *model.IndicatorRow) { r.RSI = 55 }, "rsi", model.Bullish, 1},
		{"rsi mild bear", func(r *model.IndicatorRow) { r.RSI = 45 }, "rsi", model.Bearish, 1},
		{"lower band", func(r *model.IndicatorRow) { r.Bar.Close = 95 }, "boll", model.Bullish, 1},
		{"upper band", func(r *model.IndicatorRow) { r.Bar.Close = 106 }, "boll", model.Bearish, 1},
		{"stoch low", func(r *model.IndicatorRow) { r.K, r.D = 10, 15 }, "kdj", model.Bullish, 1},
		{"stoch high", func(r *model.IndicatorRow) { r.K, r.D = 90, 85 }, "kdj", model.Bearish, 1},
		{"stoch mixed", func(r *model.IndicatorRow) { r.K, r.D = 10, 50 }, "kdj", model.Abstain, 0},
		{"stoch flat", func(r *model.IndicatorRow) { r.K, r.D, r.StochFlat = 0, 0, true }, "kdj", model.Abstain, 0},
		{"wr high", func(r *model.IndicatorRow) { r.WR = -10 }, "wr", model.Bearish, 1},
		{"wr low", func(r *model.IndicatorRow) { r.WR = -90 }, "wr", model.Bullish, 1},
		{"volume up", func(r *model.IndicatorRow) { r.Bar.Volume, r.Bar.Close = 2000, 101 }, "volume", model.Bullish, 1},
		{"volume down", func(r *model.IndicatorRow) { r.Bar.Volume, r.Bar.Close = 2000, 99 }, "volume", model.Bearish, 1},
		{"wr flat", func(r *model.IndicatorRow) { r.WR, r.WRFlat = 0, true }, "wr", model.Abstain, 0},
		{"sar below", func(r *model.IndicatorRow) { r.SAR = 98 }, "sar", model.Bullish, 1},
		{"obv falling", func(r *model.IndicatorRow) { r.OBV = -500 }, "obv", model.Bearish, 1},
	}
	for _, tt := range tests {
		prev, latest := baseRow(), baseRow()
		tt.mutate(&latest)
		v := findVote(Classify([]model.IndicatorRow{prev, latest}, cfg), tt.rule)
		if v.Direction != tt.dir || v.Weight != tt.weight {
			t.Errorf("%s: expected %d x%d, got %d x%d", tt.name, tt.dir, tt.weight, v.Direction, v.Weight)
		}
	}
}
