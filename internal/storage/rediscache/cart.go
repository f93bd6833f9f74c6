// Package rediscache caches register carts in Redis.
package rediscache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"

	"github.com/xenking/tiendita-pos/internal/domain/cart"
	"github.com/xenking/tiendita-pos/internal/domain/register"
)

const keyPrefix = "pos:cart:"

// DefaultTTL is how long an untouched cart is kept.
const DefaultTTL = 7 * 24 * time.Hour

var _ register.CartStore = (*CartStore)(nil)

// CartStore stores cart state as JSON under pos:cart:<userID>. Every save
// renews the TTL.
type CartStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewCartStore creates a CartStore. A non-positive ttl uses DefaultTTL.
func NewCartStore(client redis.UniversalClient, ttl time.Duration) *CartStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &CartStore{client: client, ttl: ttl}
}

// NewClient parses a redis:// URL and returns a connected client.
func NewClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(err, "parse redis url")
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "ping redis")
	}
	return client, nil
}

func (s *CartStore) Load(ctx context.Context, userID string) (*cart.State, error) {
	data, err := s.client.Get(ctx, cartKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "redis get")
	}

	var st cart.State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, errors.Wrap(err, "unmarshal cart")
	}
	return &st, nil
}

func (s *CartStore) Save(ctx context.Context, userID string, st cart.State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return errors.Wrap(err, "marshal cart")
	}
	if err := s.client.Set(ctx, cartKey(userID), data, s.ttl).Err(); err != nil {
		return errors.Wrap(err, "redis set")
	}
	return nil
}

func (s *CartStore) Delete(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, cartKey(userID)).Err(); err != nil {
		return errors.Wrap(err, "redis del")
	}
	return nil
}

func cartKey(userID string) string {
	return keyPrefix + userID
}
