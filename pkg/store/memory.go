package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// MemoryGateway is an in-memory Gateway used by tests and storage-less
// local runs. Values round-trip through JSON so behavior matches the
// Redis gateway.
type MemoryGateway struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryGateway creates an empty in-memory gateway.
func NewMemoryGateway() *MemoryGateway {
	return &MemoryGateway{data: make(map[string][]byte)}
}

func (g *MemoryGateway) Get(ctx context.Context, key string, out interface{}) (bool, error) {
	g.mu.RLock()
	blob, ok := g.data[key]
	g.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(blob, out); err != nil {
		return false, fmt.Errorf("failed to unmarshal key %s: %w", key, err)
	}
	return true, nil
}

func (g *MemoryGateway) Set(ctx context.Context, key string, value interface{}) error {
	blob, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal key %s: %w", key, err)
	}
	g.mu.Lock()
	g.data[key] = blob
	g.mu.Unlock()
	return nil
}

func (g *MemoryGateway) Delete(ctx context.Context, key string) error {
	g.mu.Lock()
	delete(g.data, key)
	g.mu.Unlock()
	return nil
}

// Corrupt replaces the blob under key with malformed JSON. Tests use this
// to exercise fallback-to-defaults on unreadable persisted state.
func (g *MemoryGateway) Corrupt(key string) {
	g.mu.Lock()
	g.data[key] = []byte("{not json")
	g.mu.Unlock()
}
