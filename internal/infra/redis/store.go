package redis

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/vietddude/draftsync/internal/infra/storage"
)

const scanBatch = 100

// Namespace returns a Store bound to name.
func (c *Client) Namespace(name string) storage.Store {
	return &Store{client: c, namespace: name}
}

// Store implements storage.Store with one Redis string per key.
type Store struct {
	client    *Client
	namespace string
}

// Get returns the value stored under key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := s.client.rdb.Get(ctx, s.client.entryKey(s.namespace, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, storage.Wrap("get "+key, err)
	}
	return data, true, nil
}

// Set stores value without expiry; TTLs are enforced on read by the callers.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.rdb.Set(ctx, s.client.entryKey(s.namespace, key), value, 0).Err(); err != nil {
		return storage.Wrap("set "+key, err)
	}
	return nil
}

// Delete removes key.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.rdb.Del(ctx, s.client.entryKey(s.namespace, key)).Err(); err != nil {
		return storage.Wrap("delete "+key, err)
	}
	return nil
}

// Clear removes every key under the namespace prefix.
func (s *Store) Clear(ctx context.Context) error {
	var cursor uint64
	pattern := s.client.namespacePattern(s.namespace)
	for {
		keys, next, err := s.client.rdb.Scan(ctx, cursor, pattern, scanBatch).Result()
		if err != nil {
			return storage.Wrap("clear scan", err)
		}
		if len(keys) > 0 {
			if err := s.client.rdb.Del(ctx, keys...).Err(); err != nil {
				return storage.Wrap("clear del", err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}
