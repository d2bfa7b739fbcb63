package collector

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"CryptoSignal/internal/calculator"
	"CryptoSignal/internal/logger"
	"CryptoSignal/internal/model"
	"CryptoSignal/internal/strategy"
)

// MockFetcher returns generated or fixed data for development and testing.
// Generated bars depend only on the symbol, interval and limit.
type MockFetcher struct {
	Bars  map[string][]model.OHLCV
	Price map[string]float64
	Err   error
	// Now anchors the generated series; zero means time.Now.
	Now func() time.Time
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchKlines(ctx context.Context, symbol, interval string, limit int) ([]model.OHLCV, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.Err != nil {
		return nil, m.Err
	}
	if bars, ok := m.Bars[symbol]; ok {
		if len(bars) > limit {
			bars = bars[len(bars)-limit:]
		}
		return bars, nil
	}
	step, ok := IntervalDuration(interval)
	if !ok {
		return nil, fmt.Errorf("mock: unsupported interval %q", interval)
	}
	now := time.Now
	if m.Now != nil {
		now = m.Now
	}
	return generateMockBars(symbol, m.basePrice(symbol), limit, step, now()), nil
}

func (m *MockFetcher) FetchPrice(ctx context.Context, symbol string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if m.Err != nil {
		return 0, m.Err
	}
	if bars, ok := m.Bars[symbol]; ok && len(bars) > 0 {
		return bars[len(bars)-1].Close, nil
	}
	return m.basePrice(symbol), nil
}

func (m *MockFetcher) basePrice(symbol string) float64 {
	if p, ok := m.Price[symbol]; ok {
		return p
	}
	return 100 + float64(symbolSeed(symbol)%1000)
}

func symbolSeed(symbol string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(symbol))
	return h.Sum32()
}

// generateMockBars draws a drifting sine wave so the indicators move.
func generateMockBars(symbol string, basePrice float64, count int, step time.Duration, now time.Time) []model.OHLCV {
	seed := symbolSeed(symbol)
	phase := float64(seed%628) / 100
	drift := (float64(seed%7) - 3) * 0.0004
	end := now.Truncate(step)

	bars := make([]model.OHLCV, count)
	for i := 0; i < count; i++ {
		x := float64(i)
		p := basePrice * (1 + 0.02*math.Sin(x/6+phase) + drift*x)
		bars[i] = model.OHLCV{
			Time:   end.Add(-time.Duration(count-1-i) * step),
			Open:   p * 0.999,
			High:   p * 1.004,
			Low:    p * 0.996,
			Close:  p,
			Volume: 1000 + 400*math.Abs(math.Cos(x/3+phase)),
		}
	}
	return bars
}

// Collector orchestrates data fetching, indicator computation and signal
// classification.
type Collector struct {
	Fetcher    Fetcher
	Interval   string
	Limit      int
	Indicators model.IndicatorConfig
	Signal     model.SignalConfig
	// Workers bounds concurrent fetches in Scan.
	Workers int

	logger zerolog.Logger
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, interval string, limit int, ind model.IndicatorConfig, sig model.SignalConfig) *Collector {
	return &Collector{
		Fetcher:    fetcher,
		Interval:   interval,
		Limit:      limit,
		Indicators: ind,
		Signal:     sig,
		Workers:    4,
		logger:     logger.Component("collector"),
	}
}

// Analyze fetches the latest bars for symbol and classifies them. A series
// shorter than the indicator warm-up still yields a NEUTRAL analysis.
func (c *Collector) Analyze(ctx context.Context, symbol string) (*model.Analysis, error) {
	bars, err := c.Fetcher.FetchKlines(ctx, symbol, c.Interval, c.Limit)
	if err != nil {
		return nil, fmt.Errorf("%w for %s: %w", ErrNoData, symbol, err)
	}
	series := model.Series{Symbol: symbol, Interval: c.Interval, Bars: bars, FetchedAt: time.Now()}
	last, ok := series.Last()
	if !ok {
		return nil, fmt.Errorf("%w for %s: empty kline response", ErrNoData, symbol)
	}

	rows, err := calculator.Compute(series.Bars, c.Indicators)
	if err != nil {
		if !errors.Is(err, calculator.ErrInsufficientData) {
			return nil, fmt.Errorf("compute indicators for %s: %w", symbol, err)
		}
		c.logger.Warn().Str("symbol", symbol).Int("bars", len(series.Bars)).Msg("not enough bars, signal will be neutral")
	}

	return &model.Analysis{
		Symbol: series.Symbol,
		Price:  last.Close,
		Latest: rows[len(rows)-1],
		Signal: strategy.Classify(rows, c.Signal),
		At:     last.Time,
	}, nil
}

// Price returns the latest traded price of symbol.
func (c *Collector) Price(ctx context.Context, symbol string) (float64, error) {
	p, err := c.Fetcher.FetchPrice(ctx, symbol)
	if err != nil {
		return 0, fmt.Errorf("%w for %s: %w", ErrNoData, symbol, err)
	}
	return p, nil
}

// ScanResult is the outcome of analysing one pair.
type ScanResult struct {
	Symbol   string
	Analysis *model.Analysis
	Err      error
	// Duration is the wall time spent fetching and analysing the pair.
	Duration time.Duration
}

// Scan analyses every symbol concurrently. Results keep the input order and
// a failing pair does not stop the others.
func (c *Collector) Scan(ctx context.Context, symbols []string) []ScanResult {
	results := make([]ScanResult, len(symbols))
	g, gctx := errgroup.WithContext(ctx)
	if c.Workers > 0 {
		g.SetLimit(c.Workers)
	}
	for i, symbol := range symbols {
		i, symbol := i, symbol
		g.Go(func() error {
			start := time.Now()
			a, err := c.Analyze(gctx, symbol)
			if err != nil {
				c.logger.Warn().Err(err).Str("symbol", symbol).Msg("analysis failed")
			}
			results[i] = ScanResult{Symbol: symbol, Analysis: a, Err: err, Duration: time.Since(start)}
			return nil
		})
	}
	_ = g.Wait()
	return results
}
