package collector

import (
	"context"
	"errors"
	"time"

	"CryptoSignal/internal/model"
)

var (
	// ErrNoData reports that no market data could be obtained for a symbol.
	ErrNoData = errors.New("no market data")
	// ErrInvalidSymbol is returned when the exchange does not know the symbol.
	ErrInvalidSymbol = errors.New("invalid symbol")
)

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	// FetchKlines returns up to limit bars in ascending time order.
	FetchKlines(ctx context.Context, symbol, interval string, limit int) ([]model.OHLCV, error)
	FetchPrice(ctx context.Context, symbol string) (float64, error)
	Name() string
}

var intervals = map[string]time.Duration{
	"1m":  time.Minute,
	"3m":  3 * time.Minute,
	"5m":  5 * time.Minute,
	"15m": 15 * time.Minute,
	"30m": 30 * time.Minute,
	"1h":  time.Hour,
	"2h":  2 * time.Hour,
	"4h":  4 * time.Hour,
	"6h":  6 * time.Hour,
	"8h":  8 * time.Hour,
	"12h": 12 * time.Hour,
	"1d":  24 * time.Hour,
	"3d":  72 * time.Hour,
	"1w":  7 * 24 * time.Hour,
}

// IntervalDuration maps a kline interval such as "5m" to its length. Unknown
// intervals report false.
func IntervalDuration(interval string) (time.Duration, bool) {
	d, ok := intervals[interval]
	return d, ok
}
