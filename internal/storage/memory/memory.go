// Package memory implements storage.Backend with an in-process map.
// Documents do not survive a restart.
package memory

import (
	"context"
	"sort"
	"sync"
)

// Backend stores documents in memory.
type Backend struct {
	docs   map[string]string
	writes int
	mu     sync.RWMutex
}

// New creates a new memory backend.
func New() *Backend {
	return &Backend{docs: make(map[string]string)}
}

// Init is a no-op for the memory backend.
func (b *Backend) Init() error {
	return nil
}

// Close is a no-op for the memory backend.
func (b *Backend) Close() error {
	return nil
}

// Get returns the document stored under key.
func (b *Backend) Get(_ context.Context, key string) (string, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	v, ok := b.docs[key]
	return v, ok, nil
}

// Set replaces the document stored under key.
func (b *Backend) Set(_ context.Context, key, value string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.docs[key] = value
	b.writes++
	return nil
}

// Keys returns the stored keys in lexical order.
func (b *Backend) Keys() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	keys := make([]string, 0, len(b.docs))
	for k := range b.docs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Writes returns the number of Set calls so far.
func (b *Backend) Writes() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.writes
}
