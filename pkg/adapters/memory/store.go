package memory

import (
	"context"
	"sync"
	"time"

	"github.com/aretw0/pathway/pkg/domain"
)

type entry struct {
	index     int
	expiresAt time.Time
}

// Store implements ports.PositionStore in memory.
// Positions are lost on restart. Safe for concurrent use.
type Store struct {
	data map[string]entry
	mu   sync.RWMutex
	ttl  time.Duration
	now  func() time.Time
}

// Option configures the Store.
type Option func(*Store)

// WithTTL expires positions that have not been written for ttl.
// Zero (the default) keeps positions for the process lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// NewStore creates a new in-memory store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		data: make(map[string]entry),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) expired(e entry) bool {
	return !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt)
}

// Save stores the position in memory.
func (s *Store) Save(ctx context.Context, callID string, index int) error {
	e := entry{index: index}
	if s.ttl > 0 {
		e.expiresAt = s.now().Add(s.ttl)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[callID] = e
	return nil
}

// Load retrieves the position from memory.
func (s *Store) Load(ctx context.Context, callID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.data[callID]
	if !ok || s.expired(e) {
		return 0, domain.ErrCallNotFound
	}
	return e.index, nil
}

// Delete removes the position.
func (s *Store) Delete(ctx context.Context, callID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, callID)
	return nil
}

// List returns the known calls, pruning expired ones.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	calls := make([]string, 0, len(s.data))
	for id, e := range s.data {
		if s.expired(e) {
			delete(s.data, id)
			continue
		}
		calls = append(calls, id)
	}
	return calls, nil
}
