package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// StateStore remembers OAuth state values between the start and callback
// legs of a sign-in. Consume succeeds at most once per state.
type StateStore interface {
	Put(ctx context.Context, state string, ttl time.Duration) error
	Consume(ctx context.Context, state string) (bool, error)
}

type memoryStateStore struct {
	mu    sync.Mutex
	items map[string]time.Time
}

func NewMemoryStateStore() StateStore {
	return &memoryStateStore{items: make(map[string]time.Time)}
}

func (s *memoryStateStore) Put(_ context.Context, state string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for k, exp := range s.items {
		if now.After(exp) {
			delete(s.items, k)
		}
	}
	s.items[state] = now.Add(ttl)
	return nil
}

func (s *memoryStateStore) Consume(_ context.Context, state string) (bool, error) {
	s.mu.Lock()
	exp, ok := s.items[state]
	if ok {
		delete(s.items, state)
	}
	s.mu.Unlock()

	return ok && time.Now().Before(exp), nil
}

const redisStatePrefix = "loanmitra:oauth_state:"

type redisStateStore struct {
	client *redis.Client
}

// NewRedisStateStore connects to addr and verifies it with a ping, so
// several server replicas can share sign-in state.
func NewRedisStateStore(ctx context.Context, addr, password string, db int) (StateStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return &redisStateStore{client: client}, nil
}

func (s *redisStateStore) Put(ctx context.Context, state string, ttl time.Duration) error {
	return s.client.Set(ctx, redisStatePrefix+state, "1", ttl).Err()
}

func (s *redisStateStore) Consume(ctx context.Context, state string) (bool, error) {
	err := s.client.GetDel(ctx, redisStatePrefix+state).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *redisStateStore) Close() error {
	return s.client.Close()
}
