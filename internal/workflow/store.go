package workflow

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Store struct {
	mu       sync.RWMutex
	projects map[string]Project
	now      func() time.Time
}

func NewStore() *Store {
	return &Store{projects: make(map[string]Project), now: time.Now}
}

func (s *Store) Create(ctx context.Context, p Project) (Project, error) {
	_ = ctx

	if p.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return Project{}, err
		}
		p.ID = id.String()
	}

	s.mu.Lock()
	s.projects[p.ID] = p
	s.mu.Unlock()
	return p, nil
}

func (s *Store) Get(ctx context.Context, id string) (Project, error) {
	_ = ctx

	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.projects[id]
	if !ok {
		return Project{}, ErrNotFound
	}
	return p, nil
}

// Approve advances one project. ErrCompleted is returned with the unchanged project.
func (s *Store) Approve(ctx context.Context, id string) (Project, error) {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[id]
	if !ok {
		return Project{}, ErrNotFound
	}
	next, err := Approve(p, s.now())
	if err != nil {
		return p, err
	}
	s.projects[id] = next
	return next, nil
}

// AdvanceAll moves every unfinished project one step and reports how many moved.
func (s *Store) AdvanceAll(ctx context.Context) int {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	moved := 0
	for id, p := range s.projects {
		next, err := Approve(p, now)
		if err != nil {
			continue
		}
		s.projects[id] = next
		moved++
	}
	return moved
}
