package session

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps sessions in a map. Contents are lost on restart.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]Record)}
}

func (m *MemoryStore) Get(_ context.Context, token string) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.sessions[token]
	if !ok {
		return Record{}, ErrNotFound
	}
	rec.Payload = append([]byte(nil), rec.Payload...)
	return rec, nil
}

func (m *MemoryStore) Put(_ context.Context, token string, payload []byte, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[token] = Record{
		Token:     token,
		Payload:   append([]byte(nil), payload...),
		UpdatedAt: now,
	}
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
	return nil
}

func (m *MemoryStore) Prune(_ context.Context, cutoff time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	deleted := 0
	for token, rec := range m.sessions {
		if rec.UpdatedAt.Before(cutoff) {
			delete(m.sessions, token)
			deleted++
		}
	}
	return deleted, nil
}

func (m *MemoryStore) List(_ context.Context) ([]Record, error) {
	m.mu.RLock()
	out := make([]Record, 0, len(m.sessions))
	for _, rec := range m.sessions {
		rec.Payload = append([]byte(nil), rec.Payload...)
		out = append(out, rec)
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func (m *MemoryStore) Ping(_ context.Context) error {
	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}
