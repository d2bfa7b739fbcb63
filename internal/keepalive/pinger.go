// Package keepalive pings the bot's own public URL so free-tier hosts do not
// idle the process.
package keepalive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"CryptoSignal/internal/logger"
)

var ErrNoURL = errors.New("keep-alive url not configured")

type Pinger struct {
	URL    string
	Client *http.Client
	logger zerolog.Logger
}

func NewPinger(url string, timeout time.Duration) *Pinger {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Pinger{
		URL:    url,
		Client: &http.Client{Timeout: timeout},
		logger: logger.Component("keepalive"),
	}
}

// Ping issues a GET and treats any non-2xx reply as a failure.
func (p *Pinger) Ping(ctx context.Context) error {
	if p.URL == "" {
		return ErrNoURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL, nil)
	if err != nil {
		return fmt.Errorf("build ping request: %w", err)
	}
	start := time.Now()
	resp, err := p.Client.Do(req)
	if err != nil {
		return fmt.Errorf("ping %s: %w", p.URL, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("ping %s: status %d", p.URL, resp.StatusCode)
	}
	p.logger.Debug().Int("status", resp.StatusCode).Dur("took", time.Since(start)).Msg("keep-alive ping")
	return nil
}
