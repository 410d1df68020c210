package profile

import (
	"context"
	"sync"
	"time"
)

type Store interface {
	Get(ctx context.Context, id int64) (Profile, error)
	// Update replaces the editable fields of an existing profile.
	Update(ctx context.Context, id int64, req UpdateRequest) (Profile, error)
	GetSettings(ctx context.Context, id int64) (Settings, error)
	UpdateSettings(ctx context.Context, id int64, patch SettingsPatch) (Settings, error)
}

type InMemoryStore struct {
	mu       sync.RWMutex
	profiles map[int64]Profile
	settings map[int64]Settings
	now      func() time.Time
}

// NewInMemoryStore returns a store holding the given profiles with default settings.
func NewInMemoryStore(seed ...Profile) *InMemoryStore {
	s := &InMemoryStore{
		profiles: make(map[int64]Profile, len(seed)),
		settings: make(map[int64]Settings, len(seed)),
		now:      time.Now,
	}
	for _, p := range seed {
		s.profiles[p.ID] = p
		s.settings[p.ID] = DefaultSettings()
	}
	return s
}

func (s *InMemoryStore) Get(ctx context.Context, id int64) (Profile, error) {
	_ = ctx

	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[id]
	if !ok {
		return Profile{}, ErrNotFound
	}
	return p, nil
}

func (s *InMemoryStore) Update(ctx context.Context, id int64, req UpdateRequest) (Profile, error) {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[id]
	if !ok {
		return Profile{}, ErrNotFound
	}
	p = req.applyTo(p, s.now())
	s.profiles[id] = p
	return p, nil
}

func (s *InMemoryStore) GetSettings(ctx context.Context, id int64) (Settings, error) {
	_ = ctx

	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.profiles[id]; !ok {
		return Settings{}, ErrNotFound
	}
	return s.settings[id], nil
}

func (s *InMemoryStore) UpdateSettings(ctx context.Context, id int64, patch SettingsPatch) (Settings, error) {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.profiles[id]; !ok {
		return Settings{}, ErrNotFound
	}
	next := patch.Apply(s.settings[id])
	s.settings[id] = next
	return next, nil
}
