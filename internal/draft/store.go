// Package draft keeps a single autosaved copy of the user's unsent input.
//
// There is exactly one slot. Every save overwrites it and a read after the TTL
// deletes it; there is no background sweep. Storage failures are logged and
// swallowed because the draft is a best-effort safety net.
package draft

import (
	"context"
	"log/slog"
	"time"

	"k8s.io/utils/clock"

	"github.com/vietddude/draftsync/internal/core/domain"
	"github.com/vietddude/draftsync/internal/infra/storage"
	"github.com/vietddude/draftsync/internal/metrics"
)

const (
	slotKey    = "current"
	DefaultTTL = 7 * 24 * time.Hour
)

// Store is the draft autosave slot.
type Store struct {
	kv    storage.Store
	ttl   time.Duration
	clock clock.PassiveClock
	log   *slog.Logger
}

// NewStore creates a draft store on kv. A zero ttl uses DefaultTTL; a nil clk uses the wall clock.
func NewStore(kv storage.Store, ttl time.Duration, clk clock.PassiveClock) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &Store{
		kv:    kv,
		ttl:   ttl,
		clock: clk,
		log:   slog.Default().With("component", "draft"),
	}
}

// SaveDraft overwrites the slot with payload. It never fails the caller.
func (s *Store) SaveDraft(ctx context.Context, payload domain.AssistantPayload) {
	rec := domain.DraftRecord{Payload: payload, SavedAt: s.clock.Now()}
	if err := storage.SetJSON(ctx, s.kv, slotKey, rec); err != nil {
		s.log.Warn("Failed to save draft", "error", err)
		return
	}
	metrics.DraftsSaved.Inc()
	s.log.Debug("Draft saved", "name", payload.Name)
}

// LoadDraft returns the saved payload, or nil when the slot is empty or expired.
func (s *Store) LoadDraft(ctx context.Context) *domain.AssistantPayload {
	rec := s.load(ctx)
	if rec == nil {
		return nil
	}
	return &rec.Payload
}

// HasDraft reports whether a live draft exists.
func (s *Store) HasDraft(ctx context.Context) bool {
	return s.load(ctx) != nil
}

// DraftTimestamp returns when the live draft was saved.
func (s *Store) DraftTimestamp(ctx context.Context) (time.Time, bool) {
	rec := s.load(ctx)
	if rec == nil {
		return time.Time{}, false
	}
	return rec.SavedAt, true
}

// ClearDraft deletes the slot. Called after a successful submission.
func (s *Store) ClearDraft(ctx context.Context) {
	if err := s.kv.Delete(ctx, slotKey); err != nil {
		s.log.Warn("Failed to clear draft", "error", err)
	}
}

// load reads the slot and lazily deletes it once now - savedAt >= ttl.
func (s *Store) load(ctx context.Context) *domain.DraftRecord {
	var rec domain.DraftRecord
	found, err := storage.GetJSON(ctx, s.kv, slotKey, &rec)
	if err != nil {
		s.log.Warn("Failed to load draft", "error", err)
		return nil
	}
	if !found {
		return nil
	}

	if s.clock.Since(rec.SavedAt) >= s.ttl {
		s.log.Debug("Draft expired", "saved_at", rec.SavedAt)
		s.ClearDraft(ctx)
		return nil
	}
	return &rec
}
