// Package device is the client-side key/value store that keeps the logged-in
// user and UI preferences between runs. Values are stored as JSON.
package device

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

const (
	KeyUserData             = "userData"
	KeyNotificationsEnabled = "notificationsEnabled"
	KeyDarkModeEnabled      = "darkModeEnabled"
)

type Storage interface {
	// Get decodes the value under key into dst and reports whether it existed.
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any) error
	Delete(ctx context.Context, key string) error
}

type MemoryStorage struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{data: make(map[string][]byte)}
}

func (s *MemoryStorage) Get(ctx context.Context, key string, dst any) (bool, error) {
	_ = ctx

	s.mu.RLock()
	raw, ok := s.data[key]
	s.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return true, fmt.Errorf("device: decode %s: %w", key, err)
	}
	return true, nil
}

func (s *MemoryStorage) Set(ctx context.Context, key string, v any) error {
	_ = ctx

	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("device: encode %s: %w", key, err)
	}
	s.mu.Lock()
	s.data[key] = raw
	s.mu.Unlock()
	return nil
}

func (s *MemoryStorage) Delete(ctx context.Context, key string) error {
	_ = ctx

	s.mu.Lock()
	delete(s.data, key)
	s.mu.Unlock()
	return nil
}
