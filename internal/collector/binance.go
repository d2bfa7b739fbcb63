package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"CryptoSignal/internal/logger"
	"CryptoSignal/internal/model"
)

// BinanceOptions configures a BinanceFetcher.
type BinanceOptions struct {
	BaseURL        string
	Proxy          string
	Timeout        time.Duration
	RequestsPerSec int
	MaxRetries     uint64
	RetryInterval  time.Duration
	MaxRetryTime   time.Duration
}

// BinanceFetcher implements Fetcher using the public Binance spot REST API.
type BinanceFetcher struct {
	BaseURL string
	Client  *http.Client
	Limiter *rate.Limiter

	maxRetries    uint64
	retryInterval time.Duration
	maxRetryTime  time.Duration
	logger        zerolog.Logger
}

// NewBinanceFetcher creates a new fetcher with optional proxy support.
func NewBinanceFetcher(opts BinanceOptions) *BinanceFetcher {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://api.binance.com"
	}
	if opts.Timeout == 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.RequestsPerSec == 0 {
		opts.RequestsPerSec = 10
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 3
	}
	if opts.RetryInterval == 0 {
		opts.RetryInterval = 500 * time.Millisecond
	}
	if opts.MaxRetryTime == 0 {
		opts.MaxRetryTime = 30 * time.Second
	}

	transport := &http.Transport{}
	if opts.Proxy != "" {
		if u, err := url.Parse(opts.Proxy); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &BinanceFetcher{
		BaseURL: opts.BaseURL,
		Client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		Limiter:       rate.NewLimiter(rate.Every(time.Second/time.Duration(opts.RequestsPerSec)), opts.RequestsPerSec),
		maxRetries:    opts.MaxRetries,
		retryInterval: opts.RetryInterval,
		maxRetryTime:  opts.MaxRetryTime,
		logger:        logger.Component("binance"),
	}
}

func (f *BinanceFetcher) Name() string { return "binance" }

// StatusError is a non-200 reply from the exchange.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.StatusCode, e.Body)
}

// FetchKlines requests /api/v3/klines. Each kline is an array whose price and
// volume fields are decimal strings.
func (f *BinanceFetcher) FetchKlines(ctx context.Context, symbol, interval string, limit int) ([]model.OHLCV, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("interval", interval)
	q.Set("limit", strconv.Itoa(limit))

	var raw [][]json.RawMessage
	if err := f.get(ctx, "/api/v3/klines", q, &raw); err != nil {
		return nil, fmt.Errorf("fetch klines %s: %w", symbol, err)
	}

	bars := make([]model.OHLCV, 0, len(raw))
	for i, k := range raw {
		bar, err := parseKline(k)
		if err != nil {
			return nil, fmt.Errorf("decode kline %d of %s: %w", i, symbol, err)
		}
		bars = append(bars, bar)
	}
	// Ensure chronological order
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

// FetchPrice requests the latest traded price from /api/v3/ticker/price.
func (f *BinanceFetcher) FetchPrice(ctx context.Context, symbol string) (float64, error) {
	q := url.Values{}
	q.Set("symbol", symbol)

	var result struct {
		Symbol string `json:"symbol"`
		Price  string `json:"price"`
	}
	if err := f.get(ctx, "/api/v3/ticker/price", q, &result); err != nil {
		return 0, fmt.Errorf("fetch price %s: %w", symbol, err)
	}
	price, err := decimal.NewFromString(result.Price)
	if err != nil {
		return 0, fmt.Errorf("decode price %s: %w", symbol, err)
	}
	return price.InexactFloat64(), nil
}

// get performs a rate limited GET with exponential backoff. Transport errors,
// 429 and 5xx replies are retried; a 400 means the symbol is unknown.
func (f *BinanceFetcher) get(ctx context.Context, path string, q url.Values, out interface{}) error {
	endpoint := f.BaseURL + path + "?" + q.Encode()

	var body []byte
	operation := func() error {
		if err := f.Limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := f.Client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		switch {
		case resp.StatusCode == http.StatusOK:
			body = data
			return nil
		case resp.StatusCode == http.StatusBadRequest:
			return backoff.Permanent(fmt.Errorf("%w: %w", ErrInvalidSymbol, &StatusError{StatusCode: resp.StatusCode, Body: string(data)}))
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return &StatusError{StatusCode: resp.StatusCode, Body: string(data)}
		default:
			return backoff.Permanent(&StatusError{StatusCode: resp.StatusCode, Body: string(data)})
		}
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = f.retryInterval
	exp.MaxElapsedTime = f.maxRetryTime
	policy := backoff.WithContext(backoff.WithMaxRetries(exp, f.maxRetries), ctx)

	notify := func(err error, wait time.Duration) {
		f.logger.Warn().Err(err).Str("path", path).Dur("retry_in", wait).Msg("binance request failed")
	}
	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func parseKline(k []json.RawMessage) (model.OHLCV, error) {
	if len(k) < 6 {
		return model.OHLCV{}, fmt.Errorf("expected at least 6 fields, got %d", len(k))
	}
	var openTime int64
	if err := json.Unmarshal(k[0], &openTime); err != nil {
		return model.OHLCV{}, fmt.Errorf("open time: %w", err)
	}
	var fields [5]float64
	for i := range fields {
		var s string
		if err := json.Unmarshal(k[i+1], &s); err != nil {
			return model.OHLCV{}, fmt.Errorf("field %d: %w", i+1, err)
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return model.OHLCV{}, fmt.Errorf("field %d: %w", i+1, err)
		}
		fields[i] = d.InexactFloat64()
	}
	return model.OHLCV{
		Time:   time.UnixMilli(openTime).UTC(),
		Open:   fields[0],
		High:   fields[1],
		Low:    fields[2],
		Close:  fields[3],
		Volume: fields[4],
	}, nil
}
