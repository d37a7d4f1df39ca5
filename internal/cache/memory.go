package cache

import (
	"context"
	"sync"
)

// Memory is the in-process fallback used when no Redis URL is configured.
// It never evicts; entries live for the lifetime of the process.
type Memory struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

// NewMemory constructs an empty Memory cache.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string][]byte)}
}

// Get returns nil, nil on a miss.
func (m *Memory) Get(_ context.Context, requestURL string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	body, ok := m.entries[requestURL]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(body))
	copy(out, body)
	return out, nil
}

// Set stores a copy of body. Empty bodies are not cached.
func (m *Memory) Set(_ context.Context, requestURL string, body []byte) error {
	if len(body) == 0 {
		return nil
	}
	stored := make([]byte, len(body))
	copy(stored, body)

	m.mu.Lock()
	m.entries[requestURL] = stored
	m.mu.Unlock()
	return nil
}

// Ping always succeeds.
func (m *Memory) Ping(context.Context) error { return nil }
