// Package mocks provides shared in-memory test doubles.
package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MockCache is an in-memory stand-in for the Redis cache. Expirations are
// ignored; tests that care about TTL use miniredis against the real client.
type MockCache struct {
	data     map[string]string
	failGets bool
	failSets bool
	gets     int
	sets     int
	mu       sync.RWMutex
}

// NewMockCache creates a new mock cache instance.
func NewMockCache() *MockCache {
	return &MockCache{data: make(map[string]string)}
}

// Get retrieves a value. Missing keys return an empty string, matching the
// real client's treatment of redis.Nil.
func (m *MockCache) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.gets++
	if m.failGets {
		return "", fmt.Errorf("cache unavailable")
	}
	return m.data[key], nil
}

// Set stores a value.
func (m *MockCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sets++
	if m.failSets {
		return fmt.Errorf("cache unavailable")
	}
	m.data[key] = fmt.Sprint(value)
	return nil
}

// Del deletes keys.
func (m *MockCache) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

// Health always reports healthy.
func (m *MockCache) Health(_ context.Context) error {
	return nil
}

// Close is a no-op.
func (m *MockCache) Close() error {
	return nil
}

// FailGets makes subsequent Get calls fail.
func (m *MockCache) FailGets(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failGets = fail
}

// FailSets makes subsequent Set calls fail.
func (m *MockCache) FailSets(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failSets = fail
}

// GetCalls returns how many Get calls were made.
func (m *MockCache) GetCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.gets
}

// SetCalls returns how many Set calls were made.
func (m *MockCache) SetCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sets
}
