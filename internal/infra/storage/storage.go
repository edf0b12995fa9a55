// Package storage defines the namespaced key-value contract every local store is built on.
//
// Backends live in sub-packages (memory, sqlite, postgres) and in infra/redis. A Backend hands out
// one Store per logical namespace so the draft slot, the preset cache and the pending queue never
// collide, and the engine behind them can be swapped without touching callers.
//
// Failures from this layer are wrapped with ErrStorage. Losing the store degrades the client to
// "no offline support"; it never corrupts remote state.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Namespaces used by the subsystem.
const (
	NamespaceDraft        = "draft"
	NamespacePreset       = "preset"
	NamespacePendingQueue = "pending-queue"
)

// ErrStorage marks a failure of the backing engine (quota, unavailable backend, corrupt row).
var ErrStorage = errors.New("storage error")

// Store is a single namespace of durable key-value pairs.
type Store interface {
	// Get returns the value for key. found is false when the key is absent.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)

	// Set writes value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Clear removes every key in the namespace.
	Clear(ctx context.Context) error
}

// Backend hands out namespaced stores sharing one engine.
type Backend interface {
	Namespace(name string) Store
	Close() error
}

// Wrap tags err as a storage failure for op.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}

// GetJSON decodes the value at key into dest. found is false when the key is absent.
func GetJSON(ctx context.Context, s Store, key string, dest any) (bool, error) {
	data, found, err := s.Get(ctx, key)
	if err != nil || !found {
		return false, err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, Wrap("decode "+key, err)
	}
	return true, nil
}

// SetJSON encodes value and stores it at key.
func SetJSON(ctx context.Context, s Store, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return Wrap("encode "+key, err)
	}
	return s.Set(ctx, key, data)
}
