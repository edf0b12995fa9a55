package preset

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"

	"golang.org/x/sync/singleflight"

	"github.com/vietddude/draftsync/internal/core/domain"
	"github.com/vietddude/draftsync/internal/metrics"
)

// Source fetches the authoritative preset list.
type Source interface {
	ListPresets(ctx context.Context) ([]domain.Preset, error)
}

// Loader is the read-through front of the Cache.
type Loader struct {
	cache  *Cache
	source Source
	group  singleflight.Group
	log    *slog.Logger
}

// NewLoader creates a read-through loader.
func NewLoader(cache *Cache, source Source) *Loader {
	return &Loader{
		cache:  cache,
		source: source,
		log:    slog.Default().With("component", "preset-loader"),
	}
}

// Load returns presets, serving the cache while it is fresh and re-verifying
// with the source once a check is due. If the source fails while cached data
// exists, the cached data is served. Concurrent loads share one fetch.
func (l *Loader) Load(ctx context.Context) ([]domain.Preset, error) {
	cached := l.cache.Get(ctx)
	if cached != nil && !l.cache.ShouldCheckForUpdates(ctx) {
		metrics.PresetCache.WithLabelValues("hit").Inc()
		return cached, nil
	}

	// The shared fetch outlives any single caller; each caller waits on its own ctx.
	ch := l.group.DoChan(domain.PresetCacheID, func() (any, error) {
		return l.refresh(context.WithoutCancel(ctx), cached)
	})
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("failed to load presets: %w", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]domain.Preset), nil
	}
}

func (l *Loader) refresh(ctx context.Context, cached []domain.Preset) ([]domain.Preset, error) {
	fresh, err := l.source.ListPresets(ctx)
	if err != nil {
		if cached != nil {
			l.log.Warn("Preset refresh failed, serving cached presets", "error", err)
			metrics.PresetCache.WithLabelValues("stale").Inc()
			return cached, nil
		}
		metrics.PresetCache.WithLabelValues("miss").Inc()
		return nil, fmt.Errorf("failed to load presets: %w", err)
	}

	if cached != nil && reflect.DeepEqual(cached, fresh) {
		l.cache.UpdateLastChecked(ctx)
		metrics.PresetCache.WithLabelValues("verified").Inc()
		return cached, nil
	}

	l.cache.Set(ctx, fresh)
	if cached == nil {
		metrics.PresetCache.WithLabelValues("miss").Inc()
	} else {
		metrics.PresetCache.WithLabelValues("refresh").Inc()
	}
	l.log.Debug("Preset cache refreshed", "count", len(fresh))
	return fresh, nil
}
