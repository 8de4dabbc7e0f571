package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dataflow/console/internal/core/ports"
	"github.com/dataflow/console/internal/pkg/bearer"
)

// TokenStore persists the access token in Redis under ports.TokenKey.
// When the token is a JWT with an exp claim the key expires with it.
type TokenStore struct {
	client *redis.Client
	key    string
	now    func() time.Time
}

// NewTokenStore creates a TokenStore wrapping the given Redis client.
// A non-empty namespace is prepended to the key so several consoles can share
// one Redis database.
func NewTokenStore(client *redis.Client, namespace string) *TokenStore {
	key := ports.TokenKey
	if namespace != "" {
		key = namespace + ":" + key
	}
	return &TokenStore{client: client, key: key, now: time.Now}
}

func (s *TokenStore) Get(ctx context.Context) (string, bool, error) {
	v, err := s.client.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("token get: %w", err)
	}
	return v, true, nil
}

func (s *TokenStore) Set(ctx context.Context, token string) error {
	if err := s.client.Set(ctx, s.key, token, s.ttl(token)).Err(); err != nil {
		return fmt.Errorf("token set: %w", err)
	}
	return nil
}

func (s *TokenStore) Remove(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("token remove: %w", err)
	}
	return nil
}

// ttl is zero (no expiry) for opaque tokens and tokens already past exp.
// Expired tokens are kept so startup validation can discard them itself.
func (s *TokenStore) ttl(token string) time.Duration {
	exp, ok := bearer.Expiry(token)
	if !ok {
		return 0
	}
	ttl := exp.Sub(s.now())
	if ttl <= 0 {
		return 0
	}
	return ttl
}

// Key returns the Redis key the token is stored under.
func (s *TokenStore) Key() string {
	return s.key
}
