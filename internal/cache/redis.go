package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kennedy-ak/hitech-store/internal/domain"
)

const (
	defaultTTL    = 15 * time.Minute
	defaultJitter = 5 * time.Minute
	keyPrefix     = "cart:"
)

// Options tunes how long cached carts live. Zero values fall back to
// the defaults.
type Options struct {
	TTL    time.Duration
	Jitter time.Duration
}

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	jitter time.Duration
}

func NewRedisCache(client *redis.Client, opts Options) *RedisCache {
	if opts.TTL <= 0 {
		opts.TTL = defaultTTL
	}
	if opts.Jitter <= 0 {
		opts.Jitter = defaultJitter
	}
	return &RedisCache{
		client: client,
		ttl:    opts.TTL,
		jitter: opts.Jitter,
	}
}

func (r *RedisCache) Get(ctx context.Context, owner string) (*domain.Cart, error) {
	data, err := r.client.Get(ctx, r.key(owner)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var cart domain.Cart
	if err2 := json.Unmarshal(data, &cart); err2 != nil {
		return nil, fmt.Errorf("unmarshal cart failed: %w", err2)
	}

	return &cart, nil
}

func (r *RedisCache) Set(ctx context.Context, owner string, cart *domain.Cart) error {
	jsonCart, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}

	// Jitter spreads expirations so a burst of writes doesn't expire at once.
	ttl := r.ttl + time.Duration(rand.Int63n(int64(r.jitter)))
	if errSet := r.client.Set(ctx, r.key(owner), string(jsonCart), ttl).Err(); errSet != nil {
		return fmt.Errorf("redis set failed: %w", errSet)
	}
	return nil
}

func (r *RedisCache) Delete(ctx context.Context, owner string) error {
	if err := r.client.Del(ctx, r.key(owner)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}

	return nil
}

func (r *RedisCache) key(owner string) string {
	return keyPrefix + owner
}
