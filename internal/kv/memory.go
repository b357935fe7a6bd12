package kv

import (
	"context"
	"sync"
)

// Memory is an in-process Store. It also serves as the session-scoped store
// (cleared when the process exits) and as the fallback when persistent storage
// cannot be opened.
type Memory struct {
	mu   sync.RWMutex
	data map[string]string
	hub  *hub
}

func NewMemory() *Memory {
	return &Memory{data: map[string]string{}, hub: newHub()}
}

func (m *Memory) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	prev, had := m.data[key]
	m.data[key] = value
	m.mu.Unlock()
	if !had || prev != value {
		m.hub.broadcast(Change{Key: key})
	}
	return nil
}

func (m *Memory) Remove(key string) error {
	m.mu.Lock()
	_, had := m.data[key]
	delete(m.data, key)
	m.mu.Unlock()
	if had {
		m.hub.broadcast(Change{Key: key})
	}
	return nil
}

// Snapshot returns a copy of all entries.
func (m *Memory) Snapshot() (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string, len(m.data))
	for k, v := range m.data {
		out[k] = v
	}
	return out, nil
}

// Watch reports every effective write until ctx is done.
func (m *Memory) Watch(ctx context.Context) (<-chan Change, error) {
	in, cancel := m.hub.subscribe(16)
	out := make(chan Change, 16)
	go func() {
		defer close(out)
		defer cancel()
		for {
			select {
			case <-ctx.Done():
				return
			case c, ok := <-in:
				if !ok {
					return
				}
				select {
				case out <- c:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (m *Memory) Close() error { return nil }
