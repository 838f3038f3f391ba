package cache

import (
	"context"
	"sync"

	"github.com/threatforge/detection-platform/internal/models"
)

// Memory is the in-process cache implementation: a map guarded by a single
// reader/writer lock scoped to the instance.
type Memory struct {
	mu      sync.RWMutex
	entries map[Key]*models.ValidationResult
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[Key]*models.ValidationResult)}
}

func (m *Memory) Get(_ context.Context, key Key) (*models.ValidationResult, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result, ok := m.entries[key]
	return result, ok
}

func (m *Memory) Put(_ context.Context, key Key, result *models.ValidationResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = result
}

// Len reports the number of cached entries.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
