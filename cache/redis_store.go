package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/AlfredDev/bestcombo/apperr"
	"github.com/AlfredDev/bestcombo/fingerprint"
	"github.com/AlfredDev/bestcombo/redisclient"
)

// RedisStore is the Store implementation backing the Cache Coordinator
// (spec.md §4.2, C2) with Redis.
type RedisStore struct {
	client *redisclient.Client
}

// NewRedisStore builds a RedisStore over an already-connected client.
func NewRedisStore(client *redisclient.Client) *RedisStore {
	return &RedisStore{client: client}
}

var _ Store = (*RedisStore)(nil)

// Put implements Store.
func (s *RedisStore) Put(ctx context.Context, key fingerprint.Key, value Value[Results]) error {
	entry := Entry[Results]{Key: key, Value: value}

	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("%w: marshal cache entry: %v", apperr.ErrSerialization, err)
	}

	if err := s.client.Raw.Set(ctx, key.CacheAddress(), payload, TTL).Err(); err != nil {
		return fmt.Errorf("%w: redis set: %v", apperr.ErrTransport, err)
	}
	return nil
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, key fingerprint.Key) (*Entry[Results], error) {
	payload, err := s.client.Raw.Get(ctx, key.CacheAddress()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: redis get: %v", apperr.ErrTransport, err)
	}

	var entry Entry[Results]
	if err := json.Unmarshal(payload, &entry); err != nil {
		return nil, fmt.Errorf("%w: unmarshal cache entry: %v", apperr.ErrDeserialization, err)
	}
	return &entry, nil
}
