package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ReauthStore holds the short-lived markers proving a caller re-entered their
// password moments ago. A marker gates exactly one sensitive operation:
// Consume removes it atomically, so a second operation needs a fresh
// re-authentication.
type ReauthStore interface {
	// Grant records a marker for token that expires after the store's TTL.
	Grant(ctx context.Context, token string) error

	// Consume atomically checks and deletes the marker for token. It
	// returns ErrReauthRequired when no live marker exists.
	Consume(ctx context.Context, token string) error
}

// RedisReauthStore keys markers by a SHA-256 of the bearer token so raw
// tokens never land in the cache.
type RedisReauthStore struct {
	client  redis.UniversalClient
	ttl     time.Duration
	timeout time.Duration
}

func NewRedisReauthStore(client redis.UniversalClient, ttl, timeout time.Duration) *RedisReauthStore {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &RedisReauthStore{client: client, ttl: ttl, timeout: timeout}
}

func (s *RedisReauthStore) Grant(ctx context.Context, token string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.client.Set(ctx, reauthKey(token), "1", s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: reauth grant: %v", ErrServiceUnavailable, err)
	}
	return nil
}

func (s *RedisReauthStore) Consume(ctx context.Context, token string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.client.GetDel(ctx, reauthKey(token)).Result()
	if err == redis.Nil {
		return ErrReauthRequired
	}
	if err != nil {
		return fmt.Errorf("%w: reauth check: %v", ErrServiceUnavailable, err)
	}
	return nil
}

func reauthKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "reauth:" + hex.EncodeToString(sum[:])
}
