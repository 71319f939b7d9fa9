package revocation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps revocation entries as Redis keys with an expiry, so
// Redis drops each entry once the token it guards has expired.
type RedisStore struct {
	client redis.UniversalClient
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

// NewRedisClient opens a client for the given address.
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

func (s *RedisStore) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	secs := ttlSeconds(ttl)
	if err := s.client.Set(ctx, Key(token), "1", time.Duration(secs)*time.Second).Err(); err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	return nil
}

func (s *RedisStore) Check(ctx context.Context, token string) (CheckResult, error) {
	err := s.client.Get(ctx, Key(token)).Err()
	switch {
	case err == nil:
		return Revoked, nil
	case errors.Is(err, redis.Nil):
		return NotRevoked, nil
	default:
		return CheckFailed, fmt.Errorf("redis error: %w", err)
	}
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
