package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/verte-zerg/keyload/internal/model"
)

// Memory is an in-process partial store.
type Memory struct {
	mu   sync.RWMutex
	data map[string]model.Snapshot
}

// NewMemory creates an empty store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]model.Snapshot)}
}

// Save stores a copy of snap under key.
func (m *Memory) Save(_ context.Context, key string, snap model.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = model.Merge(snap)
	return nil
}

// Load returns a copy of the snapshot stored under key.
func (m *Memory) Load(_ context.Context, key string) (model.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap, ok := m.data[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return model.Merge(snap), nil
}

// Keys lists keys with the given prefix.
func (m *Memory) Keys(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var keys []string
	for key := range m.data {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Delete removes keys.
func (m *Memory) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}
