package session

import (
	"time"

	dst "github.com/creastat/dialogstate"
	"github.com/redis/go-redis/v9"
)

// StoreType selects a Store implementation.
type StoreType string

const (
	StoreTypeMemory StoreType = "memory"
	StoreTypeRedis  StoreType = "redis"
)

const (
	recordKeyPrefix = "dialogue:"
	defaultTTL      = 24 * time.Hour
)

// NewStore builds a Store of the given type. The redis store needs
// WithRedisClient.
func NewStore(storeType StoreType, opts ...StoreOption) (Store, error) {
	cfg := &storeConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	switch storeType {
	case StoreTypeMemory:
		return newMemoryStore(), nil
	case StoreTypeRedis:
		if cfg.redisClient == nil {
			return nil, ErrInvalidConfig
		}
		if cfg.redisTTL <= 0 {
			cfg.redisTTL = defaultTTL
		}
		return &redisStore{client: cfg.redisClient, ttl: cfg.redisTTL}, nil
	default:
		return nil, ErrInvalidStoreType
	}
}

// NewStoreFromConfig builds the store selected by cfg.Store, or returns nil
// when none is configured.
func NewStoreFromConfig(cfg *dst.Config) (Store, error) {
	switch StoreType(cfg.Store.Type) {
	case "":
		return nil, nil
	case StoreTypeRedis:
		client := redis.NewClient(&redis.Options{
			Addr: cfg.Store.RedisAddr,
			DB:   cfg.Store.RedisDB,
		})
		return NewStore(StoreTypeRedis, WithRedisClient(client), WithRedisTTL(cfg.StoreTTL()))
	default:
		return NewStore(StoreType(cfg.Store.Type))
	}
}
