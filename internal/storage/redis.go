package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"finitefield.org/storefront-web/internal/cart"
	"finitefield.org/storefront-web/internal/config"
)

const defaultRedisNamespace = "storefront"

type cmdable interface {
	Ping(context.Context) *redis.StatusCmd
	Get(context.Context, string) *redis.StringCmd
	Set(context.Context, string, any, time.Duration) *redis.StatusCmd
	Del(context.Context, ...string) *redis.IntCmd
}

// Redis stores slots as namespaced string keys.
type Redis struct {
	store     cmdable
	raw       *redis.Client
	namespace string
	ttl       time.Duration
}

// NewRedis connects to Redis and verifies connectivity.
func NewRedis(ctx context.Context, cfg config.RedisConfig) (*Redis, error) {
	opts, err := redisOptions(cfg)
	if err != nil {
		return nil, err
	}
	raw := redis.NewClient(opts)
	if err := raw.Ping(ctx).Err(); err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &Redis{store: raw, raw: raw, namespace: cfg.Namespace, ttl: cfg.TTL}, nil
}

func redisOptions(cfg config.RedisConfig) (*redis.Options, error) {
	if cfg.URL == "" && cfg.Address == "" {
		return nil, fmt.Errorf("%w: redis url or address is required", ErrNotConfigured)
	}
	var opts *redis.Options
	if cfg.URL != "" {
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parsing redis url: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{
			Addr:     cfg.Address,
			Password: cfg.Password,
			DB:       cfg.DB,
		}
	}
	if opts.PoolSize == 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = cfg.ReadTimeout
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = cfg.WriteTimeout
	}
	return opts, nil
}

// Key returns the namespaced Redis key for a slot key.
func (r *Redis) Key(key string) string {
	ns := strings.TrimSpace(r.namespace)
	if ns == "" {
		ns = defaultRedisNamespace
	}
	return ns + ":" + key
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	if r.store == nil {
		return nil, errors.New("redis client not initialized")
	}
	v, err := r.store.Get(ctx, r.Key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, cart.ErrSlotEmpty
		}
		return nil, err
	}
	return v, nil
}

// Set writes the slot; a configured TTL is refreshed on every write.
func (r *Redis) Set(ctx context.Context, key string, value []byte) error {
	if r.store == nil {
		return errors.New("redis client not initialized")
	}
	return r.store.Set(ctx, r.Key(key), value, r.ttl).Err()
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	if r.store == nil {
		return errors.New("redis client not initialized")
	}
	return r.store.Del(ctx, r.Key(key)).Err()
}

// Ping checks connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if r.store == nil {
		return errors.New("redis client not initialized")
	}
	return r.store.Ping(ctx).Err()
}

// Close releases the underlying connection pool.
func (r *Redis) Close() error {
	if r.raw == nil {
		return nil
	}
	return r.raw.Close()
}
