package health

import (
	"sync/atomic"
	"time"
)

// State is the liveness data shared between the scheduler and /healthz.
type State struct {
	startedAt     time.Time
	ready         atomic.Bool
	lastBroadcast atomic.Int64
}

func NewState() *State {
	return &State{startedAt: time.Now()}
}

func (s *State) SetReady(v bool) { s.ready.Store(v) }
func (s *State) Ready() bool     { return s.ready.Load() }

func (s *State) Uptime() time.Duration { return time.Since(s.startedAt) }

func (s *State) MarkBroadcast(t time.Time) { s.lastBroadcast.Store(t.UnixNano()) }

// LastBroadcast is zero until the first broadcast completes.
func (s *State) LastBroadcast() time.Time {
	n := s.lastBroadcast.Load()
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}
