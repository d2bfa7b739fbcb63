package keepalive

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestPing(t *testing.T) {
	var status, hits atomic.Int32
	status.Store(http.StatusOK)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		w.WriteHeader(int(status.Load()))
	}))
	defer srv.Close()

	p := NewPinger(srv.URL, time.Second)
	if err := p.Ping(context.Background()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	status.Store(http.StatusBadGateway)
	if err := p.Ping(context.Background()); err == nil {
		t.Error("expected error on 502")
	}
	if n := hits.Load(); n != 2 {
		t.Errorf("expected 2 hits, got %d", n)
	}
}

func TestPing_NoURL(t *testing.T) {
	if err := NewPinger("", 0).Ping(context.Background()); !errors.Is(err, ErrNoURL) {
		t.Errorf("expected ErrNoURL, got %v", err)
	}
}

func TestPing_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	if err := NewPinger(url, time.Second).Ping(context.Background()); err == nil {
		t.Error("expected error for closed server")
	}
}
