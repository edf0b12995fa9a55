// Package queue is the durable pending-write queue drained by the syncer.
package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"
	"k8s.io/utils/clock"

	"github.com/vietddude/draftsync/internal/core/domain"
	"github.com/vietddude/draftsync/internal/infra/storage"
	"github.com/vietddude/draftsync/internal/metrics"
)

// DefaultMaxRetries is the background retry cap.
const DefaultMaxRetries = 5

// entriesKey holds the whole queue as one ordered JSON list so that insertion
// order survives any backend.
const entriesKey = "entries"

// ErrNotFound is returned when no entry has the requested tempId.
var ErrNotFound = errors.New("pending write not found")

// NewTempID returns a client-generated placeholder id.
func NewTempID() string {
	return "tmp-" + uuid.NewString()
}

// Queue is a durable list of pending writes keyed by tempId.
// It assumes a single writer process; the mutex only serializes goroutines.
type Queue struct {
	mu         sync.Mutex
	kv         storage.Store
	maxRetries int
	clock      clock.PassiveClock
	log        *slog.Logger
}

// New creates a queue on kv.
func New(kv storage.Store, maxRetries int, clk clock.PassiveClock) *Queue {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &Queue{
		kv:         kv,
		maxRetries: maxRetries,
		clock:      clk,
		log:        slog.Default().With("component", "queue"),
	}
}

// MaxRetries returns the retry cap.
func (q *Queue) MaxRetries() int { return q.maxRetries }

// Enqueue inserts an entry, or overwrites the entry with the same tempId in
// place. Either way RetryCount starts at zero.
func (q *Queue) Enqueue(ctx context.Context, tempID string, payload domain.AssistantPayload) error {
	if tempID == "" {
		return fmt.Errorf("enqueue: empty temp id")
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	entries, err := q.load(ctx)
	if err != nil {
		return err
	}

	entry := domain.PendingWrite{
		TempID:     tempID,
		Payload:    payload,
		EnqueuedAt: q.clock.Now(),
	}
	if i := index(entries, tempID); i >= 0 {
		entries[i] = entry
		q.log.Debug("Pending write replaced", "temp_id", tempID)
	} else {
		entries = append(entries, entry)
		q.log.Debug("Pending write enqueued", "temp_id", tempID)
	}
	return q.save(ctx, entries)
}

// List returns all entries in insertion order, exhausted ones included.
func (q *Queue) List(ctx context.Context) ([]domain.PendingWrite, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.load(ctx)
}

// Get returns the entry for tempID.
func (q *Queue) Get(ctx context.Context, tempID string) (*domain.PendingWrite, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	entries, err := q.load(ctx)
	if err != nil {
		return nil, err
	}
	i := index(entries, tempID)
	if i < 0 {
		return nil, ErrNotFound
	}
	e := entries[i]
	return &e, nil
}

// Count returns the number of entries.
func (q *Queue) Count(ctx context.Context) (int, error) {
	entries, err := q.List(ctx)
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

// UpdateRetry records a failed attempt. Below the cap it increments RetryCount
// and stores errMsg; at the cap the entry is left untouched.
func (q *Queue) UpdateRetry(ctx context.Context, tempID, errMsg string) (*domain.PendingWrite, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	entries, err := q.load(ctx)
	if err != nil {
		return nil, err
	}
	i := index(entries, tempID)
	if i < 0 {
		return nil, ErrNotFound
	}

	e := &entries[i]
	if e.RetryCount >= q.maxRetries {
		out := *e
		return &out, nil
	}
	e.RetryCount++
	e.LastError = errMsg
	e.LastAttemptAt = q.clock.Now()
	if err := q.save(ctx, entries); err != nil {
		return nil, err
	}
	if e.RetryCount >= q.maxRetries {
		q.log.Warn("Pending write exhausted", "temp_id", tempID, "retries", e.RetryCount, "error", errMsg)
	}
	out := *e
	return &out, nil
}

// Remove deletes the entry for tempID. Removing an absent entry is a no-op.
func (q *Queue) Remove(ctx context.Context, tempID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	entries, err := q.load(ctx)
	if err != nil {
		return err
	}
	i := index(entries, tempID)
	if i < 0 {
		return nil
	}
	return q.save(ctx, slices.Delete(entries, i, i+1))
}

// Requeue resets the retry count of an entry so the syncer picks it up again.
// It is an operator action and never happens automatically.
func (q *Queue) Requeue(ctx context.Context, tempID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	entries, err := q.load(ctx)
	if err != nil {
		return err
	}
	i := index(entries, tempID)
	if i < 0 {
		return ErrNotFound
	}
	entries[i].RetryCount = 0
	entries[i].LastError = ""
	q.log.Info("Pending write requeued", "temp_id", tempID)
	return q.save(ctx, entries)
}

// IsExhausted reports whether e has hit the retry cap.
func (q *Queue) IsExhausted(e domain.PendingWrite) bool {
	return e.RetryCount >= q.maxRetries
}

func (q *Queue) load(ctx context.Context) ([]domain.PendingWrite, error) {
	var entries []domain.PendingWrite
	if _, err := storage.GetJSON(ctx, q.kv, entriesKey, &entries); err != nil {
		return nil, fmt.Errorf("failed to load pending writes: %w", err)
	}
	return entries, nil
}

func (q *Queue) save(ctx context.Context, entries []domain.PendingWrite) error {
	if len(entries) == 0 {
		if err := q.kv.Delete(ctx, entriesKey); err != nil {
			return fmt.Errorf("failed to save pending writes: %w", err)
		}
	} else if err := storage.SetJSON(ctx, q.kv, entriesKey, entries); err != nil {
		return fmt.Errorf("failed to save pending writes: %w", err)
	}
	metrics.QueueDepth.Set(float64(len(entries)))
	return nil
}

func index(entries []domain.PendingWrite, tempID string) int {
	return slices.IndexFunc(entries, func(e domain.PendingWrite) bool {
		return e.TempID == tempID
	})
}
