package credstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/pscheid92/adminpulse/internal/platform/crypto"
	"github.com/redis/go-redis/v9"
)

const (
	redisKeyAccess  = "adminpulse:credentials:access"
	redisKeyRefresh = "adminpulse:credentials:refresh"
)

// RedisStore keeps the credential pair in Redis, for installations where
// the console runs in a container without a stable filesystem. Single-key
// GET/SET is atomic, so no locking is needed.
type RedisStore struct {
	rdb    *redis.Client
	crypto crypto.Service
}

// OpenRedis connects to Redis using a URL (e.g. "redis://localhost:6379").
func OpenRedis(redisURL string, cryptoSvc crypto.Service) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	return NewRedisStore(redis.NewClient(opts), cryptoSvc), nil
}

// NewRedisStore wraps an existing go-redis client.
func NewRedisStore(rdb *redis.Client, cryptoSvc crypto.Service) *RedisStore {
	return &RedisStore{rdb: rdb, crypto: cryptoSvc}
}

// Ping verifies connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// Close closes the underlying connection.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

func (s *RedisStore) GetAccess(ctx context.Context) (string, error) {
	return s.get(ctx, redisKeyAccess)
}

func (s *RedisStore) SetAccess(ctx context.Context, token string) error {
	return s.set(ctx, redisKeyAccess, token)
}

func (s *RedisStore) GetRefresh(ctx context.Context) (string, error) {
	return s.get(ctx, redisKeyRefresh)
}

func (s *RedisStore) SetRefresh(ctx context.Context, token string) error {
	return s.set(ctx, redisKeyRefresh, token)
}

func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.rdb.Del(ctx, redisKeyAccess, redisKeyRefresh).Err(); err != nil {
		return fmt.Errorf("failed to clear credentials: %w", err)
	}
	return nil
}

func (s *RedisStore) get(ctx context.Context, key string) (string, error) {
	stored, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", key, err)
	}

	token, err := s.crypto.Decrypt(stored)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt %s: %w", key, err)
	}
	return token, nil
}

func (s *RedisStore) set(ctx context.Context, key, token string) error {
	if token == "" {
		if err := s.rdb.Del(ctx, key).Err(); err != nil {
			return fmt.Errorf("failed to delete %s: %w", key, err)
		}
		return nil
	}

	sealed, err := s.crypto.Encrypt(token)
	if err != nil {
		return fmt.Errorf("failed to encrypt %s: %w", key, err)
	}

	if err := s.rdb.Set(ctx, key, sealed, 0).Err(); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}
