// Package kv holds the small persisted slots the clients share: the admin
// credential and the theme preference.
package kv

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

type StoreType string

const (
	StoreTypeMemory StoreType = "memory"
	StoreTypeFile   StoreType = "file"
	StoreTypeRedis  StoreType = "redis"
)

var (
	ErrInvalidConfig    = errors.New("invalid kv store configuration")
	ErrInvalidStoreType = errors.New("invalid kv store type")
)

// Store is a flat string key-value slot store. Get reports ok=false for a
// missing key rather than an error. Writers do not coordinate: the last
// Set wins.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

type Option func(*storeConfig)

type storeConfig struct {
	redisClient *redis.Client
	keyPrefix   string
	filePath    string
}

func WithRedisClient(client *redis.Client) Option {
	return func(c *storeConfig) {
		c.redisClient = client
	}
}

// WithKeyPrefix namespaces keys in shared backends such as redis.
func WithKeyPrefix(prefix string) Option {
	return func(c *storeConfig) {
		c.keyPrefix = prefix
	}
}

func WithFilePath(path string) Option {
	return func(c *storeConfig) {
		c.filePath = path
	}
}

func NewStore(storeType StoreType, opts ...Option) (Store, error) {
	cfg := &storeConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	switch storeType {
	case StoreTypeMemory:
		return NewMemoryStore(), nil
	case StoreTypeFile:
		if cfg.filePath == "" {
			return nil, ErrInvalidConfig
		}
		return NewFileStore(cfg.filePath), nil
	case StoreTypeRedis:
		if cfg.redisClient == nil {
			return nil, ErrInvalidConfig
		}
		return NewRedisStore(cfg.redisClient, cfg.keyPrefix), nil
	default:
		return nil, ErrInvalidStoreType
	}
}
