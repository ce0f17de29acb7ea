package position

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/pathway/internal/logging"
	"github.com/aretw0/pathway/pkg/domain"
	"github.com/aretw0/pathway/pkg/ports"
)

// DefaultLockTTL bounds how long a distributed lock is held if the holder dies.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates position access, ensuring safe concurrent operations.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	store ports.PositionStore

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker  ports.DistributedLocker // Optional distributed locker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL overrides DefaultLockTTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a new position Manager with the given persistence store.
func NewManager(store ports.PositionStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(callID) after unlocking.
func (m *Manager) acquire(callID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[callID]
	if !exists {
		entry = &lockEntry{}
		m.locks[callID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(callID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[callID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, callID)
	}
}

// Read returns the current position of a call without changing it.
// Unseen calls are at position 0.
func (m *Manager) Read(ctx context.Context, callID string) (int, error) {
	return m.load(ctx, callID)
}

// Advance moves the call to (current+1) mod n and returns the position it left.
func (m *Manager) Advance(ctx context.Context, callID string, n int) (int, error) {
	if n <= 0 {
		return 0, fmt.Errorf("cannot advance over %d steps", n)
	}
	var prev int
	err := m.WithLock(ctx, callID, func(ctx context.Context) error {
		var err error
		prev, err = m.advance(ctx, callID, n)
		return err
	})
	return prev, err
}

// Transition reads the position of a call, asks decide whether to advance, and
// advances if it says so, all while holding the call's lock. It returns the
// position that was evaluated and the position stored for the next turn.
// If decide returns an error nothing is written.
func (m *Manager) Transition(ctx context.Context, callID string, n int, decide func(ctx context.Context, index int) (bool, error)) (index, next int, err error) {
	if n <= 0 {
		return 0, 0, fmt.Errorf("cannot advance over %d steps", n)
	}
	err = m.WithLock(ctx, callID, func(ctx context.Context) error {
		current, err := m.load(ctx, callID)
		if err != nil {
			return err
		}
		if current < 0 || current >= n {
			m.logger.Warn("Stored position outside the pathway, wrapping",
				"call_id", callID,
				"position", current,
				"steps", n,
			)
			current = ((current % n) + n) % n
		}
		index, next = current, current

		ok, err := decide(ctx, current)
		if err != nil || !ok {
			return err
		}

		if _, err := m.advance(ctx, callID, n); err != nil {
			return err
		}
		next = (current + 1) % n
		return nil
	})
	return index, next, err
}

// Reset forgets the position of a call, sending it back to the first step.
func (m *Manager) Reset(ctx context.Context, callID string) error {
	return m.WithLock(ctx, callID, func(ctx context.Context) error {
		if err := m.store.Delete(ctx, callID); err != nil {
			return fmt.Errorf("%w: %w", domain.ErrPersistence, err)
		}
		return nil
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	calls, err := m.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}
	return calls, nil
}

// Store returns the underlying position store.
func (m *Manager) Store() ports.PositionStore {
	return m.store
}

// WithLock executes a function while holding the lock for the call.
func (m *Manager) WithLock(ctx context.Context, callID string, fn func(context.Context) error) error {
	entry := m.acquire(callID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(callID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, callID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("%w: failed to acquire distributed lock: %w", domain.ErrPersistence, err)
		}
		defer func() {
			// Release even if the request context is gone.
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"call_id", callID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

func (m *Manager) load(ctx context.Context, callID string) (int, error) {
	index, err := m.store.Load(ctx, callID)
	if err != nil {
		if errors.Is(err, domain.ErrCallNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}
	return index, nil
}

// advance must be called with the call's lock held.
func (m *Manager) advance(ctx context.Context, callID string, n int) (int, error) {
	if adv, ok := m.store.(ports.Advancer); ok {
		prev, err := adv.Advance(ctx, callID, n)
		if err != nil {
			return 0, fmt.Errorf("%w: %w", domain.ErrPersistence, err)
		}
		return prev, nil
	}

	current, err := m.load(ctx, callID)
	if err != nil {
		return 0, err
	}
	if err := m.store.Save(ctx, callID, ((current+1)%n+n)%n); err != nil {
		return 0, fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}
	return current, nil
}
