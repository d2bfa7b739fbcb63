package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"CryptoSignal/internal/collector"
	"CryptoSignal/internal/config"
	"CryptoSignal/internal/health"
	"CryptoSignal/internal/keepalive"
	"CryptoSignal/internal/logger"
	"CryptoSignal/internal/notifier"
	"CryptoSignal/internal/scheduler"
	"CryptoSignal/internal/subscriber"
)

func main() {
	logger.Init(os.Getenv("LOG_LEVEL"))
	log.Info().Msg("CryptoSignal starting...")

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	logger.Init(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config validation")
	}

	// Init fetcher
	var fetcher collector.Fetcher
	if cfg.TestMode {
		fetcher = &collector.MockFetcher{}
	} else {
		fetcher = collector.NewBinanceFetcher(collector.BinanceOptions{
			BaseURL:        cfg.Exchange.BaseURL,
			Proxy:          cfg.Proxy,
			Timeout:        time.Duration(cfg.Exchange.TimeoutSeconds) * time.Second,
			RequestsPerSec: cfg.Exchange.RequestsPerSec,
		})
	}
	log.Info().Str("source", fetcher.Name()).Strs("pairs", cfg.Pairs).Str("interval", cfg.Exchange.Interval).Msg("data source ready")

	col := collector.NewCollector(fetcher, cfg.Exchange.Interval, cfg.Exchange.Limit, cfg.Indicators, cfg.Signal)

	// Init subscriber store
	var subs subscriber.Store
	if cfg.Database.SQLitePath != "" {
		ss, err := subscriber.NewSQLiteStore(cfg.Database.SQLitePath)
		if err != nil {
			log.Warn().Err(err).Msg("init sqlite store failed, using memory")
			subs = subscriber.NewMemoryStore()
		} else {
			subs = ss
		}
	} else {
		subs = subscriber.NewMemoryStore()
	}
	defer subs.Close()

	// Init Telegram notifier
	tn, err := notifier.NewTelegramNotifier(notifier.TelegramOptions{
		BotToken: cfg.Telegram.BotToken,
		Proxy:    cfg.Proxy,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("init telegram")
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mode := "live"
	if cfg.TestMode {
		mode = "test"
	}
	metrics := health.NewMetrics()
	state := health.NewState()
	hs := health.NewServer(cfg.Health.Addr, health.NewMux(state, metrics, health.Info{
		Mode:   mode,
		Source: fetcher.Name(),
		Pairs:  cfg.Pairs,
	}, subs.Count))
	if err := hs.Start(); err != nil {
		log.Fatal().Err(err).Str("addr", cfg.Health.Addr).Msg("start health server")
	}

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, col, tn, subs, metrics, state, scheduler.Options{
		Pairs:    cfg.Pairs,
		Interval: cfg.Exchange.Interval,
		TestMode: cfg.TestMode,
		Source:   fetcher.Name(),
	})
	if cfg.KeepAlive.URL != "" {
		sched.Pinger = keepalive.NewPinger(cfg.KeepAlive.URL, 10*time.Second)
	}
	if err := sched.RegisterAll(cfg.Schedule.BroadcastCron, cfg.Schedule.KeepAliveCron); err != nil {
		log.Fatal().Err(err).Msg("register cron tasks")
	}
	sched.Start()

	// Start Telegram polling
	go tn.StartPolling(ctx, sched.HandleCommand)
	state.SetReady(true)
	log.Info().Msg("telegram polling started")

	// Optional: run immediately on start
	if os.Getenv("RUN_ON_START") == "true" {
		log.Info().Msg("RUN_ON_START enabled, broadcasting now")
		go sched.Broadcast(ctx)
	}

	log.Info().Str("mode", mode).Msg("CryptoSignal is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("shutdown signal received, stopping...")
	state.SetReady(false)
	cancel()
	sched.Stop()

	shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	if err := hs.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("health server shutdown")
	}
	log.Info().Msg("CryptoSignal stopped")
}
