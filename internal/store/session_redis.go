package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bigm-o/Flash-mind/pkg/domain"
)

const sessionKeyPrefix = "flashmind:session:"

// RedisSessionStore keeps session state in Redis with a TTL, so multiple
// replicas behind a load balancer can serve the same session. State is
// stored as a JSON value per session.
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSessionStore builds a Redis-backed session store.
func NewRedisSessionStore(addr, password string, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
		ttl: ttl,
	}
}

// Create stores a new session, refusing to overwrite an existing one.
func (s *RedisSessionStore) Create(state domain.SessionState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	ctx, cancel := callContext()
	defer cancel()
	ok, err := s.client.SetNX(ctx, sessionKeyPrefix+state.ID, data, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	if !ok {
		return ErrSessionExists
	}
	return nil
}

// Get retrieves a session by id.
func (s *RedisSessionStore) Get(id string) (domain.SessionState, bool, error) {
	ctx, cancel := callContext()
	defer cancel()
	data, err := s.client.Get(ctx, sessionKeyPrefix+id).Bytes()
	if err == redis.Nil {
		return domain.SessionState{}, false, nil
	}
	if err != nil {
		return domain.SessionState{}, false, fmt.Errorf("load session: %w", err)
	}
	var state domain.SessionState
	if err := json.Unmarshal(data, &state); err != nil {
		return domain.SessionState{}, false, fmt.Errorf("decode session: %w", err)
	}
	return state, true, nil
}

// Save replaces the stored state and refreshes the TTL.
func (s *RedisSessionStore) Save(state domain.SessionState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	ctx, cancel := callContext()
	defer cancel()
	if err := s.client.Set(ctx, sessionKeyPrefix+state.ID, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Delete removes a session.
func (s *RedisSessionStore) Delete(id string) error {
	ctx, cancel := callContext()
	defer cancel()
	if err := s.client.Del(ctx, sessionKeyPrefix+id).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func callContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 3*time.Second)
}
