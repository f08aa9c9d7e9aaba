package presence

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "lastseen:"

// Store records when an identity was last seen on the live channel. A zero
// time from LastSeen means never.
type Store interface {
	Touch(ctx context.Context, identity string) error
	LastSeen(ctx context.Context, identity string) (time.Time, error)
}

// RedisStore keeps last-seen stamps in Redis so they survive restarts.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Touch(ctx context.Context, identity string) error {
	stamp := time.Now().UTC().Format(time.RFC3339Nano)
	if err := s.client.Set(ctx, keyPrefix+identity, stamp, 0).Err(); err != nil {
		return fmt.Errorf("touch %s: %w", identity, err)
	}
	return nil
}

func (s *RedisStore) LastSeen(ctx context.Context, identity string) (time.Time, error) {
	val, err := s.client.Get(ctx, keyPrefix+identity).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("last seen %s: %w", identity, err)
	}
	t, err := time.Parse(time.RFC3339Nano, val)
	if err != nil {
		return time.Time{}, fmt.Errorf("last seen %s: %w", identity, err)
	}
	return t, nil
}

// MemoryStore is the dev/test fallback when no Redis is configured.
type MemoryStore struct {
	mu   sync.RWMutex
	seen map[string]time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{seen: make(map[string]time.Time)}
}

func (s *MemoryStore) Touch(_ context.Context, identity string) error {
	s.mu.Lock()
	s.seen[identity] = time.Now().UTC()
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) LastSeen(_ context.Context, identity string) (time.Time, error) {
	s.mu.RLock()
	t := s.seen[identity]
	s.mu.RUnlock()
	return t, nil
}
