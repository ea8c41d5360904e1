package keyvault

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type hashGetter interface {
	HGet(ctx context.Context, key, field string) *redis.StringCmd
}

// RedisStore reads records from a single hash keyed by wallet address.
type RedisStore struct {
	client hashGetter
	closer func() error
	key    string
}

func NewRedisStore(ctx context.Context, addr, password string, db int, key string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: ping redis: %v", ErrConfiguration, err)
	}
	return &RedisStore{client: client, closer: client.Close, key: key}, nil
}

func (s *RedisStore) Get(ctx context.Context, wallet string) (string, error) {
	record, err := s.client.HGet(ctx, s.key, wallet).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("hget key record: %w", err)
	}
	return record, nil
}

func (s *RedisStore) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}
