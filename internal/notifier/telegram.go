package notifier

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"CryptoSignal/internal/logger"
)

// ErrChatUnreachable means Telegram refused delivery to the chat for good,
// typically because the user blocked the bot.
var ErrChatUnreachable = errors.New("chat unreachable")

// TelegramOptions configures a TelegramNotifier.
type TelegramOptions struct {
	BotToken string
	Proxy    string
	// Endpoint overrides tgbotapi.APIEndpoint, mainly for tests.
	Endpoint      string
	RetryInterval time.Duration
}

// TelegramNotifier sends messages via the Telegram Bot API.
type TelegramNotifier struct {
	Bot *tgbotapi.BotAPI

	retryInterval time.Duration
	logger        zerolog.Logger
}

// NewTelegramNotifier authorizes the bot with optional proxy support.
func NewTelegramNotifier(opts TelegramOptions) (*TelegramNotifier, error) {
	transport := &http.Transport{}
	if opts.Proxy != "" {
		if u, err := url.Parse(opts.Proxy); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if opts.Endpoint == "" {
		opts.Endpoint = tgbotapi.APIEndpoint
	}
	if opts.RetryInterval == 0 {
		opts.RetryInterval = time.Second
	}

	client := &http.Client{Timeout: 75 * time.Second, Transport: transport}
	bot, err := tgbotapi.NewBotAPIWithClient(opts.BotToken, opts.Endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("authorize bot: %w", err)
	}

	lg := logger.Component("telegram")
	lg.Info().Str("username", bot.Self.UserName).Msg("authorized on telegram")
	return &TelegramNotifier{Bot: bot, retryInterval: opts.RetryInterval, logger: lg}, nil
}

// Username is the bot's own handle, used to strip /cmd@bot suffixes.
func (t *TelegramNotifier) Username() string { return t.Bot.Self.UserName }

// Send sends an HTML message to chatID.
func (t *TelegramNotifier) Send(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if _, err := t.Bot.Send(msg); err != nil {
		var apiErr *tgbotapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusForbidden {
			return fmt.Errorf("%w: %d: %s", ErrChatUnreachable, chatID, apiErr.Message)
		}
		return fmt.Errorf("send message to %d: %w", chatID, err)
	}
	return nil
}

// SendWithRetry sends a message with exponential backoff retry. Unreachable
// chats are not retried.
func (t *TelegramNotifier) SendWithRetry(ctx context.Context, chatID int64, text string, maxRetries int) error {
	attempt := 0
	operation := func() error {
		attempt++
		err := t.Send(chatID, text)
		if errors.Is(err, ErrChatUnreachable) {
			return backoff.Permanent(err)
		}
		return err
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = t.retryInterval
	exp.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(exp, uint64(maxRetries)), ctx)

	notify := func(err error, wait time.Duration) {
		t.logger.Warn().Err(err).Int("attempt", attempt).Int("max", maxRetries+1).Dur("retry_in", wait).Msg("telegram send failed")
	}
	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		if errors.Is(err, ErrChatUnreachable) || ctx.Err() != nil {
			return err
		}
		return fmt.Errorf("all %d attempts exhausted: %w", attempt, err)
	}
	return nil
}
