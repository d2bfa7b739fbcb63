package calculator

import (
	"errors"
	"math"
	"testing"
	"time"

	"CryptoSignal/internal/model"
)

var baseTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func genBars(n int, closeAt func(i int) float64) []model.OHLCV {
	bars := make([]model.OHLCV, n)
	for i := 0; i < n; i++ {
		c := closeAt(i)
		bars[i] = model.OHLCV{
			Time:   baseTime.Add(time.Duration(i) * 5 * time.Minute),
			Open:   c,
			High:   c + 0.5,
			Low:    c - 0.5,
			Close:  c,
			Volume: 1000,
		}
	}
	return bars
}

func risingBars(n int) []model.OHLCV {
	return genBars(n, func(i int) float64 { return 100 + float64(i) })
}

func flatBars(n int, price float64) []model.OHLCV {
	bars := make([]model.OHLCV, n)
	for i := range bars {
		bars[i] = model.OHLCV{
			Time: baseTime.Add(time.Duration(i) * 5 * time.Minute),
			Open: price, High: price, Low: price, Close: price, Volume: 1000,
		}
	}
	return bars
}

func wavyBars(n int) []model.OHLCV {
	bars := genBars(n, func(i int) float64 {
		return 100 + 10*math.Sin(float64(i)/5) + 0.3*float64(i)
	})
	for i := range bars {
		bars[i].Volume = 1000 + float64(i%7)*100
	}
	return bars
}

func assertClose(t *testing.T, label string, got, want, tol float64) {
	t.Helper()
	if math.IsNaN(got) || math.Abs(got-want) > tol {
		t.Errorf("%s: got %.6f, want %.6f (tol=%g)", label, got, want, tol)
	}
}

func sameFloat(a, b float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.IsNaN(a) && math.IsNaN(b)
	}
	return a == b
}

func TestCompute_InsufficientData(t *testing.T) {
	cfg := model.DefaultIndicatorConfig()
	bars := risingBars(49)

	rows, err := Compute(bars, cfg)
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
	if len(rows) != len(bars) {
		t.Fatalf("expected %d rows, got %d", len(bars), len(rows))
	}
	for i, r := range rows {
		if r.Bar != bars[i] {
			t.Fatalf("row %d: bar was modified", i)
		}
		for _, p := range cfg.MA {
			if !math.IsNaN(r.MA[p]) {
				t.Errorf("row %d: MA_%d should be undefined, got %.4f", i, p, r.MA[p])
			}
		}
		for _, p := range cfg.EMA {
			if !math.IsNaN(r.EMA[p]) {
				t.Errorf("row %d: EMA_%d should be undefined, got %.4f", i, p, r.EMA[p])
			}
		}
		for name, v := range map[string]float64{
			"BBUpper": r.BBUpper, "SAR": r.SAR, "MACD": r.MACD, "RSI": r.RSI,
			"K": r.K, "WR": r.WR, "OBV": r.OBV, "StochRSI": r.StochRSI,
		} {
			if !math.IsNaN(v) {
				t.Errorf("row %d: %s should be undefined, got %.4f", i, name, v)
			}
		}
	}

	if _, err := Compute(risingBars(50), cfg); err != nil {
		t.Errorf("50 bars should be enough, got %v", err)
	}
}

func TestCompute_InvalidConfig(t *testing.T) {
	cfg := model.DefaultIndicatorConfig()
	cfg.MACD.Fast = 30
	if _, err := Compute(risingBars(60), cfg); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig for fast >= slow, got %v", err)
	}

	cfg = model.DefaultIndicatorConfig()
	cfg.MA = []int{5, 0}
	if _, err := Compute(risingBars(60), cfg); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig for zero MA period, got %v", err)
	}

	cfg = model.DefaultIndicatorConfig()
	cfg.SAR.Max = 0.01
	if _, err := Compute(risingBars(60), cfg); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig for sar max < step, got %v", err)
	}
}

func TestCompute_RisingSeries(t *testing.T) {
	bars := risingBars(60)
	rows, err := Compute(bars, model.DefaultIndicatorConfig())
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	last := rows[len(rows)-1]

	assertClose(t, "MA_10", last.MA[10], 154.5, 1e-9)
	if last.RSI != 100 {
		t.Errorf("expected RSI 100 on a rising series, got %.4f", last.RSI)
	}
	if rows[0].OBV != 0 {
		t.Errorf("OBV should start at 0, got %.0f", rows[0].OBV)
	}
	for i := 1; i < len(rows); i++ {
		if rows[i].OBV-rows[i-1].OBV != 1000 {
			t.Fatalf("bar %d: OBV should grow by 1000, got %.0f -> %.0f", i, rows[i-1].OBV, rows[i].OBV)
		}
	}
	if !(last.EMA[5] > last.EMA[26]) {
		t.Errorf("fast EMA should lead slow EMA: %.4f vs %.4f", last.EMA[5], last.EMA[26])
	}
	if !(last.MACD > last.MACDSignal) {
		t.Errorf("MACD should be above its signal: %.4f vs %.4f", last.MACD, last.MACDSignal)
	}
	if last.StochFlat || last.WRFlat {
		t.Errorf("moving series should not be flagged flat")
	}
	if !(last.SAR < last.Bar.Low) {
		t.Errorf("SAR should trail below price in an uptrend: %.4f vs low %.4f", last.SAR, last.Bar.Low)
	}
}

func TestCompute_FlatSeries(t *testing.T) {
	rows, err := Compute(flatBars(60, 1000), model.DefaultIndicatorConfig())
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	last := rows[len(rows)-1]

	if last.BBUpper-last.BBLower != 0 {
		t.Errorf("expected zero band width, got %.6f", last.BBUpper-last.BBLower)
	}
	if last.MA[20] != 1000 {
		t.Errorf("MA_20 of a constant series should be exact, got %v", last.MA[20])
	}
	if last.RSI != 50 {
		t.Errorf("expected RSI 50 with no movement, got %.4f", last.RSI)
	}
	if last.K != 0 || last.D != 0 || last.WR != 0 {
		t.Errorf("zero range should yield 0: K=%.2f D=%.2f WR=%.2f", last.K, last.D, last.WR)
	}
	if !last.StochFlat || !last.WRFlat {
		t.Errorf("zero range should be flagged: StochFlat=%v WRFlat=%v", last.StochFlat, last.WRFlat)
	}
	if last.StochRSI != 0 {
		t.Errorf("flat RSI should yield StochRSI 0, got %.2f", last.StochRSI)
	}
	if last.MACD != 0 || last.MACDHistogram != 0 {
		t.Errorf("expected zero MACD, got %.6f / %.6f", last.MACD, last.MACDHistogram)
	}
}

func TestCompute_NoLookAhead(t *testing.T) {
	cfg := model.DefaultIndicatorConfig()
	bars := wavyBars(90)
	full, err := Compute(bars, cfg)
	if err != nil {
		t.Fatalf("compute full: %v", err)
	}
	part, err := Compute(bars[:60], cfg)
	if err != nil {
		t.Fatalf("compute prefix: %v", err)
	}

	for i := range part {
		a, b := part[i], full[i]
		pairs := [][2]float64{
			{a.BBUpper, b.BBUpper}, {a.BBLower, b.BBLower}, {a.SAR, b.SAR},
			{a.MACD, b.MACD}, {a.MACDSignal, b.MACDSignal}, {a.RSI, b.RSI},
			{a.K, b.K}, {a.D, b.D}, {a.J, b.J}, {a.WR, b.WR}, {a.OBV, b.OBV},
			{a.StochRSI, b.StochRSI}, {a.VolumeMA, b.VolumeMA},
		}
		for _, p := range cfg.MA {
			pairs = append(pairs, [2]float64{a.MA[p], b.MA[p]})
		}
		for _, p := range cfg.EMA {
			pairs = append(pairs, [2]float64{a.EMA[p], b.EMA[p]})
		}
		for j, pr := range pairs {
			if !sameFloat(pr[0], pr[1]) {
				t.Fatalf("row %d value %d differs with more future bars: %v vs %v", i, j, pr[0], pr[1])
			}
		}
	}
}

func TestCompute_Deterministic(t *testing.T) {
	cfg := model.DefaultIndicatorConfig()
	bars := wavyBars(70)
	a, _ := Compute(bars, cfg)
	b, _ := Compute(bars, cfg)
	for i := range a {
		if !sameFloat(a[i].RSI, b[i].RSI) || !sameFloat(a[i].SAR, b[i].SAR) || !sameFloat(a[i].StochRSI, b[i].StochRSI) {
			t.Fatalf("row %d differs between identical calls", i)
		}
	}
}
