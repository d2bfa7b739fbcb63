package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"CryptoSignal/internal/calculator"
	"CryptoSignal/internal/collector"
	"CryptoSignal/internal/model"
)

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
	} `yaml:"telegram"`
	TestMode bool     `yaml:"test_mode"`
	Pairs    []string `yaml:"pairs"`
	Exchange struct {
		BaseURL        string `yaml:"base_url"`
		Interval       string `yaml:"interval"`
		Limit          int    `yaml:"limit"`
		RequestsPerSec int    `yaml:"requests_per_sec"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"exchange"`
	Schedule struct {
		BroadcastCron string `yaml:"broadcast_cron"`
		KeepAliveCron string `yaml:"keepalive_cron"`
	} `yaml:"schedule"`
	KeepAlive struct {
		URL string `yaml:"url"`
	} `yaml:"keepalive"`
	Health struct {
		Addr string `yaml:"addr"`
	} `yaml:"health"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Indicators model.IndicatorConfig `yaml:"indicators"`
	Signal     model.SignalConfig    `yaml:"signal"`
	LogLevel   string                `yaml:"log_level"`
	Proxy      string                `yaml:"proxy"`
}

// DefaultPairs is the watch list used when none is configured.
var DefaultPairs = []string{"BTCUSDT", "ETHUSDT", "BNBUSDT", "XRPUSDT", "ADAUSDT", "SOLUSDT", "ZECUSDT"}

// Load reads config from a YAML file, then applies .env and environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{
		TestMode:   true,
		Indicators: model.DefaultIndicatorConfig(),
		Signal:     model.DefaultSignalConfig(),
	}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// A missing .env file is normal outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	} else if v := os.Getenv("BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TEST_MODE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parse TEST_MODE: %w", err)
		}
		cfg.TestMode = b
	}
	if v := os.Getenv("TRADING_PAIRS"); v != "" {
		cfg.Pairs = strings.Split(v, ",")
	}
	if v := os.Getenv("BINANCE_BASE_URL"); v != "" {
		cfg.Exchange.BaseURL = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("KEEPALIVE_URL"); v != "" {
		cfg.KeepAlive.URL = v
	}
	if v := os.Getenv("HEALTH_ADDR"); v != "" {
		cfg.Health.Addr = v
	} else if v := os.Getenv("PORT"); v != "" {
		cfg.Health.Addr = ":" + v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("CRON_BROADCAST"); v != "" {
		cfg.Schedule.BroadcastCron = v
	}
	return nil
}

func applyDefaults(cfg *Config) {
	pairs := make([]string, 0, len(cfg.Pairs))
	for _, p := range cfg.Pairs {
		if p = NormalizePair(p); p != "" {
			pairs = append(pairs, p)
		}
	}
	if len(pairs) == 0 {
		pairs = append(pairs, DefaultPairs...)
	}
	cfg.Pairs = pairs

	if cfg.Exchange.BaseURL == "" {
		cfg.Exchange.BaseURL = "https://api.binance.com"
	}
	if cfg.Exchange.Interval == "" {
		cfg.Exchange.Interval = "5m"
	}
	if cfg.Exchange.Limit == 0 {
		cfg.Exchange.Limit = 100
	}
	if cfg.Exchange.RequestsPerSec == 0 {
		cfg.Exchange.RequestsPerSec = 10
	}
	if cfg.Exchange.TimeoutSeconds == 0 {
		cfg.Exchange.TimeoutSeconds = 10
	}
	if cfg.Schedule.BroadcastCron == "" {
		cfg.Schedule.BroadcastCron = "0 */5 * * * *"
	}
	if cfg.Schedule.KeepAliveCron == "" {
		cfg.Schedule.KeepAliveCron = "@every 10m"
	}
	if cfg.Health.Addr == "" {
		cfg.Health.Addr = ":8080"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/subscribers.db"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
}

// NormalizePair upper-cases a trading pair and strips separators users tend to type.
func NormalizePair(p string) string {
	p = strings.ToUpper(strings.TrimSpace(p))
	return strings.NewReplacer("/", "", "-", "", "_", "").Replace(p)
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}
	if len(c.Pairs) == 0 {
		return fmt.Errorf("pairs must not be empty")
	}
	if _, ok := collector.IntervalDuration(c.Exchange.Interval); !ok {
		return fmt.Errorf("exchange.interval %q is not a supported kline interval", c.Exchange.Interval)
	}
	if c.Exchange.Limit < c.Indicators.MinBars || c.Exchange.Limit > 1000 {
		return fmt.Errorf("exchange.limit must be between indicators.min_bars (%d) and 1000", c.Indicators.MinBars)
	}
	if c.Exchange.RequestsPerSec < 0 {
		return fmt.Errorf("exchange.requests_per_sec must not be negative")
	}
	if err := calculator.Validate(c.Indicators); err != nil {
		return err
	}
	if !contains(c.Indicators.MA, c.Signal.TrendMA) {
		return fmt.Errorf("signal.trend_ma %d is not among indicators.ma", c.Signal.TrendMA)
	}
	if !contains(c.Indicators.EMA, c.Signal.FastEMA) || !contains(c.Indicators.EMA, c.Signal.SlowEMA) {
		return fmt.Errorf("signal.fast_ema and signal.slow_ema must be among indicators.ema")
	}
	if c.Signal.MinVotes < 1 {
		return fmt.Errorf("signal.min_votes must be positive")
	}
	if c.Signal.StrongMargin < 0 {
		return fmt.Errorf("signal.strong_margin must not be negative")
	}
	return nil
}

func contains(values []int, v int) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
