package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"CryptoSignal/internal/collector"
	"CryptoSignal/internal/config"
	"CryptoSignal/internal/health"
	"CryptoSignal/internal/logger"
	"CryptoSignal/internal/model"
	"CryptoSignal/internal/notifier"
	"CryptoSignal/internal/subscriber"
)

// ErrUnknownPair is returned for pairs outside the watch list.
var ErrUnknownPair = errors.New("unknown trading pair")

// Sender delivers HTML messages to a chat.
type Sender interface {
	SendWithRetry(ctx context.Context, chatID int64, text string, maxRetries int) error
}

// Pinger keeps the hosting service awake.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options carries the presentation settings of the scheduler.
type Options struct {
	Pairs      []string
	Interval   string
	TestMode   bool
	Source     string
	MaxRetries int
}

// Scheduler manages all cron tasks and answers bot commands.
type Scheduler struct {
	Cron        *cron.Cron
	Collector   *collector.Collector
	Notifier    Sender
	Subscribers subscriber.Store
	Pinger      Pinger
	Metrics     *health.Metrics
	State       *health.State
	Ctx         context.Context

	opts   Options
	logger zerolog.Logger
}

// NewScheduler creates a new Scheduler. Overlapping runs of the same job are skipped.
func NewScheduler(ctx context.Context, col *collector.Collector, sender Sender, subs subscriber.Store,
	metrics *health.Metrics, state *health.State, opts Options) *Scheduler {
	lg := logger.Component("scheduler")
	cl := cronLogger{l: lg}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 3
	}
	return &Scheduler{
		Cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		Collector:   col,
		Notifier:    sender,
		Subscribers: subs,
		Metrics:     metrics,
		State:       state,
		Ctx:         ctx,
		opts:        opts,
		logger:      lg,
	}
}

// RegisterAll registers the broadcast job and, when a pinger is set, the keep-alive job.
func (s *Scheduler) RegisterAll(broadcastCron, keepAliveCron string) error {
	if _, err := s.Cron.AddFunc(broadcastCron, func() { s.Broadcast(s.Ctx) }); err != nil {
		return fmt.Errorf("register broadcast task: %w", err)
	}
	if s.Pinger != nil {
		if _, err := s.Cron.AddFunc(keepAliveCron, s.keepAlive); err != nil {
			return fmt.Errorf("register keep-alive task: %w", err)
		}
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.logger.Info().Int("jobs", len(s.Cron.Entries())).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.logger.Info().Msg("scheduler stopped")
}

// Broadcast scans every pair and sends the directional signals to all
// subscribers. It returns the number of messages delivered.
func (s *Scheduler) Broadcast(ctx context.Context) int {
	s.logger.Info().Msg("running broadcast")
	var alerts []*model.Analysis
	for _, r := range s.scan(ctx) {
		if r.Err != nil {
			continue
		}
		if r.Analysis.Signal.Label != model.SignalNeutral {
			alerts = append(alerts, r.Analysis)
		}
	}
	s.Metrics.BroadcastsTotal.Inc()
	s.State.MarkBroadcast(time.Now())

	if len(alerts) == 0 {
		s.logger.Info().Msg("no directional signals this round")
		return 0
	}

	subs, err := s.Subscribers.List()
	if err != nil {
		s.logger.Error().Err(err).Msg("list subscribers")
		return 0
	}
	text := notifier.FormatAlerts(alerts, s.opts.TestMode)
	sent := 0
	for _, sub := range subs {
		err := s.Notifier.SendWithRetry(ctx, sub.ChatID, text, s.opts.MaxRetries)
		s.Metrics.MessageSent(err)
		switch {
		case errors.Is(err, notifier.ErrChatUnreachable):
			s.logger.Warn().Int64("chat_id", sub.ChatID).Msg("chat unreachable, unsubscribing")
			if _, err := s.Subscribers.Remove(sub.ChatID); err != nil {
				s.logger.Error().Err(err).Int64("chat_id", sub.ChatID).Msg("remove subscriber")
			}
		case err != nil:
			s.logger.Error().Err(err).Int64("chat_id", sub.ChatID).Msg("send broadcast")
		default:
			sent++
		}
	}
	s.logger.Info().Int("signals", len(alerts)).Int("sent", sent).Int("subscribers", len(subs)).Msg("broadcast done")
	return sent
}

func (s *Scheduler) keepAlive() {
	if err := s.Pinger.Ping(s.Ctx); err != nil {
		s.logger.Warn().Err(err).Msg("keep-alive ping failed")
	}
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, cmd notifier.Command) string {
	switch cmd.Name {
	case "start", "stop", "signal", "price", "scan", "status", "help":
		s.Metrics.CommandsTotal.WithLabelValues(cmd.Name).Inc()
	default:
		s.Metrics.CommandsTotal.WithLabelValues("unknown").Inc()
	}

	switch cmd.Name {
	case "start":
		return s.subscribe(cmd)
	case "stop":
		return s.unsubscribe(cmd)
	case "signal":
		pair, err := s.resolvePair(cmd.Arg(0))
		if err != nil {
			return notifier.FormatUnknownPair(cmd.Arg(0), s.opts.Pairs)
		}
		a, err := s.analyze(ctx, pair)
		if err != nil {
			return notifier.MsgSignalError
		}
		return notifier.FormatSignal(a, s.opts.TestMode)
	case "price":
		pair, err := s.resolvePair(cmd.Arg(0))
		if err != nil {
			return notifier.FormatUnknownPair(cmd.Arg(0), s.opts.Pairs)
		}
		p, err := s.Collector.Price(ctx, pair)
		if err != nil {
			s.Metrics.FetchErrorsTotal.WithLabelValues(pair).Inc()
			s.logger.Error().Err(err).Str("symbol", pair).Msg("fetch price")
			return notifier.MsgPriceError
		}
		return notifier.FormatPrice(pair, p, time.Now())
	case "scan":
		results := s.scan(ctx)
		for _, r := range results {
			if r.Err == nil {
				return notifier.FormatScan(results, s.opts.TestMode)
			}
		}
		return notifier.MsgScanError
	case "status":
		return notifier.FormatStatus(s.status())
	default:
		return notifier.FormatHelp()
	}
}

func (s *Scheduler) subscribe(cmd notifier.Command) string {
	welcome := notifier.FormatWelcome(cmd.Username, s.opts.Pairs, s.opts.Interval, s.opts.TestMode)
	added, err := s.Subscribers.Add(model.Subscriber{ChatID: cmd.ChatID, Username: cmd.Username})
	if err != nil {
		s.logger.Error().Err(err).Int64("chat_id", cmd.ChatID).Msg("add subscriber")
		return welcome
	}
	if added {
		s.logger.Info().Int64("chat_id", cmd.ChatID).Msg("subscribed")
	}
	return welcome + "\n\n" + notifier.MsgSubscribed
}

func (s *Scheduler) unsubscribe(cmd notifier.Command) string {
	removed, err := s.Subscribers.Remove(cmd.ChatID)
	if err != nil {
		s.logger.Error().Err(err).Int64("chat_id", cmd.ChatID).Msg("remove subscriber")
		return notifier.MsgUnsubscribeError
	}
	if !removed {
		return notifier.MsgNotSubbed
	}
	s.logger.Info().Int64("chat_id", cmd.ChatID).Msg("unsubscribed")
	return notifier.MsgUnsubscribed
}

// resolvePair defaults to the first configured pair.
func (s *Scheduler) resolvePair(arg string) (string, error) {
	if arg == "" {
		if len(s.opts.Pairs) == 0 {
			return "", ErrUnknownPair
		}
		return s.opts.Pairs[0], nil
	}
	pair := config.NormalizePair(arg)
	for _, p := range s.opts.Pairs {
		if p == pair {
			return pair, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownPair, pair)
}

func (s *Scheduler) analyze(ctx context.Context, pair string) (*model.Analysis, error) {
	start := time.Now()
	a, err := s.Collector.Analyze(ctx, pair)
	s.Metrics.AnalysisDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		s.Metrics.FetchErrorsTotal.WithLabelValues(pair).Inc()
		s.logger.Error().Err(err).Str("symbol", pair).Msg("analyze")
		return nil, err
	}
	s.Metrics.SignalsTotal.WithLabelValues(string(a.Signal.Label)).Inc()
	return a, nil
}

func (s *Scheduler) scan(ctx context.Context) []collector.ScanResult {
	results := s.Collector.Scan(ctx, s.opts.Pairs)
	for _, r := range results {
		s.Metrics.AnalysisDuration.Observe(r.Duration.Seconds())
		if r.Err != nil {
			s.Metrics.FetchErrorsTotal.WithLabelValues(r.Symbol).Inc()
			continue
		}
		s.Metrics.SignalsTotal.WithLabelValues(string(r.Analysis.Signal.Label)).Inc()
	}
	return results
}

func (s *Scheduler) status() notifier.Status {
	n, err := s.Subscribers.Count()
	if err != nil {
		s.logger.Error().Err(err).Msg("count subscribers")
	}
	return notifier.Status{
		TestMode:      s.opts.TestMode,
		Source:        s.opts.Source,
		Pairs:         s.opts.Pairs,
		Interval:      s.opts.Interval,
		Uptime:        s.State.Uptime(),
		Subscribers:   n,
		LastBroadcast: s.State.LastBroadcast(),
	}
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	l zerolog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug().Fields(keysAndValues).Msg(msg)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
