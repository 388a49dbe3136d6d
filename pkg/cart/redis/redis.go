// Package redis stores cart state in Redis, one string key per client.
package redis

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"cartflow/pkg/cart"
)

var _ cart.Storage = (*Storage)(nil)

// Storage persists cart state in Redis.
type Storage struct {
	client goredis.Cmdable
	ttl    time.Duration
}

// New creates a Redis storage. A zero ttl keeps state until it is overwritten.
func New(client goredis.Cmdable, ttl time.Duration) *Storage {
	return &Storage{client: client, ttl: ttl}
}

// Load returns the state stored under key.
func (s *Storage) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, cart.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Save writes the state under key, refreshing its expiry.
func (s *Storage) Save(ctx context.Context, key string, data []byte) error {
	return s.client.Set(ctx, key, data, s.ttl).Err()
}
