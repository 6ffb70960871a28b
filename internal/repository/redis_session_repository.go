package repository

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/savings-portal/internal/session"
)

// RedisSessionRepository keeps the durable session snapshot in Redis.
type RedisSessionRepository struct {
	client *redis.Client
	prefix string
}

var _ session.Storage = (*RedisSessionRepository)(nil)

// NewRedisSessionRepository returns a Redis-backed session storage.
func NewRedisSessionRepository(client *redis.Client, prefix string) *RedisSessionRepository {
	return &RedisSessionRepository{client: client, prefix: prefix}
}

func (r *RedisSessionRepository) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, session.ErrNotFound
		}
		return nil, err
	}
	return val, nil
}

func (r *RedisSessionRepository) Set(ctx context.Context, key string, value []byte) error {
	return r.client.Set(ctx, r.prefix+key, value, 0).Err()
}

func (r *RedisSessionRepository) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.prefix+key).Err()
}
