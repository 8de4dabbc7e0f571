package tokenstore

import (
	"context"
	"sync"
)

// Memory keeps the token for the lifetime of the process only.
type Memory struct {
	mu    sync.RWMutex
	token string
	set   bool
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Get(context.Context) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token, m.set, nil
}

func (m *Memory) Set(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token, m.set = token, true
	return nil
}

func (m *Memory) Remove(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token, m.set = "", false
	return nil
}
