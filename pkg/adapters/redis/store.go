package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aretw0/pathway/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// farFuture is the index score of positions that never expire (2100-01-01).
const farFuture = 4102444800

// advanceScript reads the current index (0 when absent), stores (index+1) mod n
// and returns the index it read.
var advanceScript = backend.NewScript(`
local current = tonumber(redis.call("GET", KEYS[1]) or "0")
local nextIndex = (current + 1) % tonumber(ARGV[1])
local ttl = tonumber(ARGV[2])
if ttl > 0 then
	redis.call("SET", KEYS[1], nextIndex, "PX", ttl)
else
	redis.call("SET", KEYS[1], nextIndex)
end
redis.call("ZADD", KEYS[2], ARGV[3], ARGV[4])
return current
`)

// Store implements ports.PositionStore and ports.Advancer using Redis.
// Positions are shared between replicas and survive proxy restarts.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Store)

// WithTTL sets the expiration for positions. Every write refreshes it.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for positions.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: "pathway:position:",
		ttl:    0, // No expiration by default
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

// Client returns the underlying redis client, e.g. to share it with a Locker.
func (s *Store) Client() *backend.Client {
	return s.client
}

func (s *Store) key(callID string) string {
	return s.prefix + callID
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

func (s *Store) score() float64 {
	if s.ttl == 0 {
		return farFuture
	}
	return float64(time.Now().Add(s.ttl).Unix())
}

// Save persists the position to Redis.
func (s *Store) Save(ctx context.Context, callID string, index int) error {
	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.key(callID), index, s.ttl)
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{
		Score:  s.score(),
		Member: callID,
	})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Load retrieves the position from Redis.
func (s *Store) Load(ctx context.Context, callID string) (int, error) {
	val, err := s.client.Get(ctx, s.key(callID)).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return 0, domain.ErrCallNotFound
		}
		return 0, fmt.Errorf("failed to get from redis: %w", err)
	}

	index, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("corrupt position for call %q: %w", callID, err)
	}
	return index, nil
}

// Advance atomically moves the call to the following step and returns the index it left.
func (s *Store) Advance(ctx context.Context, callID string, n int) (int, error) {
	if n <= 0 {
		return 0, fmt.Errorf("cannot advance over %d steps", n)
	}
	prev, err := advanceScript.Run(ctx, s.client,
		[]string{s.key(callID), s.indexKey()},
		n, s.ttl.Milliseconds(), s.score(), callID,
	).Int()
	if err != nil {
		return 0, fmt.Errorf("failed to advance in redis: %w", err)
	}
	return prev, nil
}

// Delete removes the position.
func (s *Store) Delete(ctx context.Context, callID string) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.key(callID))
	pipe.ZRem(ctx, s.indexKey(), callID)

	_, err := pipe.Exec(ctx)
	return err
}

// List returns the known calls, lazily pruning expired entries from the index.
func (s *Store) List(ctx context.Context) ([]string, error) {
	now := float64(time.Now().Unix())

	err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to prune expired positions: %w", err)
	}

	calls, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list positions: %w", err)
	}
	return calls, nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
