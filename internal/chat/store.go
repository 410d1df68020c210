package chat

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store keeps one append-only message log per session.
type Store interface {
	// Create opens a session whose log starts with seed.
	Create(ctx context.Context, seed Message) (string, error)
	Append(ctx context.Context, sessionID string, msgs ...Message) error
	List(ctx context.Context, sessionID string) ([]Message, error)
	// Reset replaces the whole log with seed.
	Reset(ctx context.Context, sessionID string, seed Message) error
}

func newSessionID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]Message
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string][]Message)}
}

func (s *MemoryStore) Create(ctx context.Context, seed Message) (string, error) {
	_ = ctx

	id := newSessionID()
	s.mu.Lock()
	s.sessions[id] = []Message{seed}
	s.mu.Unlock()
	return id, nil
}

func (s *MemoryStore) Append(ctx context.Context, sessionID string, msgs ...Message) error {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	log, ok := s.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	s.sessions[sessionID] = append(log, msgs...)
	return nil
}

func (s *MemoryStore) List(ctx context.Context, sessionID string) ([]Message, error) {
	_ = ctx

	s.mu.RLock()
	defer s.mu.RUnlock()

	log, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	out := make([]Message, len(log))
	copy(out, log)
	return out, nil
}

func (s *MemoryStore) Reset(ctx context.Context, sessionID string, seed Message) error {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return ErrSessionNotFound
	}
	s.sessions[sessionID] = []Message{seed}
	return nil
}

// Service ties a Store to a Responder.
type Service struct {
	Store     Store
	Responder Responder
	Now       func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) Open(ctx context.Context) (string, error) {
	return s.Store.Create(ctx, welcomeMessage(s.now()))
}

// Send records the user's message and the automatic reply, returning both.
func (s *Service) Send(ctx context.Context, sessionID, text, category string) ([]Message, error) {
	text, err := NormalizeText(text)
	if err != nil {
		return nil, err
	}

	now := s.now()
	in := newMessage(text, TypeUser, now)
	in.Category = category
	out := newMessage(s.Responder.Reply(text, category), TypeReply, now)
	out.Category = category

	if err := s.Store.Append(ctx, sessionID, in, out); err != nil {
		return nil, err
	}
	return []Message{in, out}, nil
}

func (s *Service) History(ctx context.Context, sessionID string) ([]Message, error) {
	return s.Store.List(ctx, sessionID)
}

func (s *Service) Clear(ctx context.Context, sessionID string) error {
	return s.Store.Reset(ctx, sessionID, clearedMessage(s.now()))
}
