package subscriber

import (
	"sort"
	"sync"
	"time"

	"CryptoSignal/internal/model"
)

// MemoryStore is an in-process Store used when SQLite is not configured.
type MemoryStore struct {
	mu   sync.RWMutex
	subs map[int64]model.Subscriber
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{subs: make(map[int64]model.Subscriber)}
}

func (m *MemoryStore) Add(sub model.Subscriber) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.subs[sub.ChatID]; ok {
		return false, nil
	}
	if sub.SubscribedAt.IsZero() {
		sub.SubscribedAt = time.Now()
	}
	m.subs[sub.ChatID] = sub
	return true, nil
}

func (m *MemoryStore) Remove(chatID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.subs[chatID]; !ok {
		return false, nil
	}
	delete(m.subs, chatID)
	return true, nil
}

func (m *MemoryStore) List() ([]model.Subscriber, error) {
	m.mu.RLock()
	out := make([]model.Subscriber, 0, len(m.subs))
	for _, s := range m.subs {
		out = append(out, s)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].SubscribedAt.Equal(out[j].SubscribedAt) {
			return out[i].SubscribedAt.Before(out[j].SubscribedAt)
		}
		return out[i].ChatID < out[j].ChatID
	})
	return out, nil
}

func (m *MemoryStore) Count() (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subs), nil
}

func (m *MemoryStore) Close() error { return nil }
