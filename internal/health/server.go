// Package health serves the liveness, status and metrics endpoints.
package health

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"CryptoSignal/internal/logger"
)

// Info is the static part of the /healthz payload.
type Info struct {
	Mode   string
	Source string
	Pairs  []string
}

// CountFunc reports the current number of subscribers.
type CountFunc func() (int, error)

func NewMux(state *State, metrics *Metrics, info Info, subscribers CountFunc) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("CryptoSignal bot is running"))
	})

	mux.HandleFunc("/livez", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if !state.Ready() {
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ready"))
	})

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		subs := -1
		if subscribers != nil {
			if n, err := subscribers(); err == nil {
				subs = n
			}
		}
		var last int64
		if t := state.LastBroadcast(); !t.IsZero() {
			last = t.Unix()
		}
		resp := map[string]any{
			"ready":             state.Ready(),
			"uptimeSec":         int64(state.Uptime().Seconds()),
			"subscribers":       subs,
			"lastBroadcastUnix": last,
			"mode":              info.Mode,
			"source":            info.Source,
			"pairs":             info.Pairs,
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	})

	if metrics != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
	}
	return mux
}

// Server runs the health mux in the background.
type Server struct {
	srv    *http.Server
	ln     net.Listener
	logger zerolog.Logger
}

func NewServer(addr string, handler http.Handler) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger.Component("health"),
	}
}

// Start binds the listener synchronously so bind errors surface to the caller.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return err
	}
	s.ln = ln
	go func() {
		if err := s.srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("health server stopped")
		}
	}()
	s.logger.Info().Str("addr", ln.Addr().String()).Msg("health server listening")
	return nil
}

// Addr is the bound address, useful when listening on port 0.
func (s *Server) Addr() string {
	if s.ln == nil {
		return s.srv.Addr
	}
	return s.ln.Addr().String()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
