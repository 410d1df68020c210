package order

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Store interface {
	Create(ctx context.Context, o Order) (Order, error)
	Get(ctx context.Context, id string) (Order, error)
	// List returns orders newest first.
	List(ctx context.Context) ([]Order, error)
	// UpdateStatus applies next to the current status and returns the updated
	// order together with the status it had before.
	UpdateStatus(ctx context.Context, id string, next Transition) (Order, Status, error)
	Delete(ctx context.Context, id string) error
}

type InMemoryStore struct {
	mu    sync.RWMutex
	byID  map[string]Order
	order []string
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byID: make(map[string]Order),
	}
}

func (s *InMemoryStore) Create(ctx context.Context, o Order) (Order, error) {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	if o.ID == "" {
		o.ID = newID()
	}
	if _, exists := s.byID[o.ID]; !exists {
		s.order = append(s.order, o.ID)
	}
	s.byID[o.ID] = o
	return o, nil
}

func (s *InMemoryStore) Get(ctx context.Context, id string) (Order, error) {
	_ = ctx

	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.byID[id]
	if !ok {
		return Order{}, ErrNotFound
	}
	return o, nil
}

func (s *InMemoryStore) List(ctx context.Context) ([]Order, error) {
	_ = ctx

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Order, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		out = append(out, s.byID[s.order[i]])
	}
	return out, nil
}

func (s *InMemoryStore) UpdateStatus(ctx context.Context, id string, next Transition) (Order, Status, error) {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.byID[id]
	if !ok {
		return Order{}, "", ErrNotFound
	}

	prev := o.Status
	to, err := next(prev)
	if err != nil {
		return o, prev, err
	}
	if to != prev {
		o.Status = to
		o.UpdatedAt = time.Now().UTC()
		s.byID[id] = o
	}
	return o, prev, nil
}

func (s *InMemoryStore) Delete(ctx context.Context, id string) error {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[id]; !ok {
		return ErrNotFound
	}
	delete(s.byID, id)
	if i := slices.Index(s.order, id); i >= 0 {
		s.order = slices.Delete(s.order, i, i+1)
	}
	return nil
}

// newID returns a UUIDv7, which sorts by creation time.
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
