package kv

import (
	"context"
	"fmt"

	redisv9 "github.com/redis/go-redis/v9"
)

// RedisStore keeps slots as plain redis strings without expiry, so every
// process pointed at the same instance sees one shared value.
type RedisStore struct {
	client *redisv9.Client
	prefix string
}

func NewRedisStore(client *redisv9.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	raw, err := s.client.Get(ctx, s.key(key)).Result()
	if err == redisv9.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %s failed: %w", key, err)
	}
	return raw, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s failed: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("redis delete %s failed: %w", key, err)
	}
	return nil
}

// Close is a no-op: the client belongs to whoever dialed it.
func (s *RedisStore) Close() error {
	return nil
}

func (s *RedisStore) key(key string) string {
	return s.prefix + key
}
