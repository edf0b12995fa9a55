package preset

import (
	"context"
	"log/slog"
	"time"

	"k8s.io/utils/clock"

	"github.com/vietddude/draftsync/internal/core/domain"
	"github.com/vietddude/draftsync/internal/infra/storage"
)

// DefaultTTL is how long a cached preset list stays servable.
const DefaultTTL = 24 * time.Hour

// Cache is the single-slot preset cache. The slot hard-expires at cachedAt+TTL
// and is deleted lazily on read. lastCheckedAt tracks the last time the remote
// source confirmed the data and drives ShouldCheckForUpdates.
type Cache struct {
	kv            storage.Store
	ttl           time.Duration
	checkInterval time.Duration
	clock         clock.PassiveClock
	log           *slog.Logger
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithCheckInterval sets how long after the last check the cache asks for
// re-verification. Defaults to the TTL.
func WithCheckInterval(d time.Duration) CacheOption {
	return func(c *Cache) {
		if d > 0 {
			c.checkInterval = d
		}
	}
}

// NewCache creates a preset cache on kv.
func NewCache(kv storage.Store, ttl time.Duration, clk clock.PassiveClock, opts ...CacheOption) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if clk == nil {
		clk = clock.RealClock{}
	}
	c := &Cache{
		kv:    kv,
		ttl:   ttl,
		clock: clk,
		log:   slog.Default().With("component", "preset-cache"),
	}
	c.checkInterval = ttl
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached presets, or nil when empty or expired.
func (c *Cache) Get(ctx context.Context) []domain.Preset {
	entry := c.read(ctx)
	if entry == nil {
		return nil
	}
	if c.clock.Since(entry.CachedAt) >= c.ttl {
		c.log.Debug("Preset cache expired", "cached_at", entry.CachedAt)
		if err := c.kv.Delete(ctx, domain.PresetCacheID); err != nil {
			c.log.Warn("Failed to delete expired presets", "error", err)
		}
		return nil
	}
	return entry.Data
}

// Set overwrites the slot; cachedAt and lastCheckedAt both become now.
func (c *Cache) Set(ctx context.Context, data []domain.Preset) {
	now := c.clock.Now()
	c.write(ctx, &domain.CachedPreset{
		ID:            domain.PresetCacheID,
		Data:          data,
		CachedAt:      now,
		LastCheckedAt: now,
	})
}

// UpdateLastChecked records that the remote source was asked and nothing changed.
// Data and cachedAt are left untouched. No-op when the slot is empty.
func (c *Cache) UpdateLastChecked(ctx context.Context) {
	entry := c.read(ctx)
	if entry == nil {
		return
	}
	entry.LastCheckedAt = c.clock.Now()
	c.write(ctx, entry)
}

// ShouldCheckForUpdates is true when nothing is cached or the last check is
// at least one check interval old. This is independent from hard expiry.
func (c *Cache) ShouldCheckForUpdates(ctx context.Context) bool {
	entry := c.read(ctx)
	if entry == nil {
		return true
	}
	return c.clock.Since(entry.LastCheckedAt) >= c.checkInterval
}

// Entry returns the raw slot without applying expiry, for status reporting.
func (c *Cache) Entry(ctx context.Context) *domain.CachedPreset {
	return c.read(ctx)
}

func (c *Cache) read(ctx context.Context) *domain.CachedPreset {
	var entry domain.CachedPreset
	found, err := storage.GetJSON(ctx, c.kv, domain.PresetCacheID, &entry)
	if err != nil {
		c.log.Warn("Failed to read preset cache", "error", err)
		return nil
	}
	if !found {
		return nil
	}
	return &entry
}

func (c *Cache) write(ctx context.Context, entry *domain.CachedPreset) {
	if err := storage.SetJSON(ctx, c.kv, domain.PresetCacheID, entry); err != nil {
		c.log.Warn("Failed to write preset cache", "error", err)
	}
}
