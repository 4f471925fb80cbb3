package cache

import (
	"context"
	"sync"
	"time"
)

type answer struct {
	exists    bool
	expiresAt time.Time
}

// InMemoryAnswerStore implements AnswerStore with a map. Expired answers are
// dropped when read.
type InMemoryAnswerStore struct {
	mu      sync.Mutex
	answers map[string]answer
	now     func() time.Time
}

// NewInMemoryAnswerStore creates an empty store
func NewInMemoryAnswerStore() *InMemoryAnswerStore {
	return &InMemoryAnswerStore{
		answers: make(map[string]answer),
		now:     time.Now,
	}
}

// Get implements AnswerStore
func (s *InMemoryAnswerStore) Get(_ context.Context, key string) (bool, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.answers[key]
	if !ok {
		return false, false, nil
	}
	if !s.now().Before(a.expiresAt) {
		delete(s.answers, key)
		return false, false, nil
	}
	return a.exists, true, nil
}

// Set implements AnswerStore
func (s *InMemoryAnswerStore) Set(_ context.Context, key string, exists bool, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.answers[key] = answer{exists: exists, expiresAt: s.now().Add(ttl)}
	return nil
}

// Close implements AnswerStore
func (s *InMemoryAnswerStore) Close() error {
	return nil
}

// Len returns the number of stored answers, including expired ones not yet read
func (s *InMemoryAnswerStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.answers)
}

var _ AnswerStore = (*InMemoryAnswerStore)(nil)
