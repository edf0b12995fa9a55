// Package health exposes the admin HTTP surface: liveness, sync status,
// queue inspection, the draft slot, a manual sync trigger and Prometheus metrics.
package health

import (
	"context"
	"time"

	"github.com/vietddude/draftsync/internal/core/domain"
	"github.com/vietddude/draftsync/internal/netstatus"
	"github.com/vietddude/draftsync/internal/syncer"
)

// SystemStatus represents the overall health state of the subsystem.
type SystemStatus string

const (
	StatusHealthy  SystemStatus = "healthy"
	StatusDegraded SystemStatus = "degraded"
	StatusCritical SystemStatus = "critical"
)

// QueueReader is the read side of queue.Queue.
type QueueReader interface {
	List(ctx context.Context) ([]domain.PendingWrite, error)
	IsExhausted(e domain.PendingWrite) bool
}

// DraftReader is the read side of draft.Store.
type DraftReader interface {
	LoadDraft(ctx context.Context) *domain.AssistantPayload
	DraftTimestamp(ctx context.Context) (time.Time, bool)
}

// Syncer is the part of syncer.Orchestrator the admin server drives.
type Syncer interface {
	Status() syncer.Status
	TriggerSync(ctx context.Context) ([]domain.SyncResult, bool)
}

// Pinger checks a storage backend. Backends without a Health method are skipped.
type Pinger interface {
	Health(ctx context.Context) error
}

// Report is the aggregated health of the subsystem.
type Report struct {
	Status          SystemStatus `json:"status"`
	Online          bool         `json:"online"`
	StorageOK       bool         `json:"storage_ok"`
	StorageError    string       `json:"storage_error,omitempty"`
	PendingWrites   int          `json:"pending_writes"`
	ExhaustedWrites int          `json:"exhausted_writes"`
}

// Monitor aggregates health from the store, the network and the queue.
type Monitor struct {
	queue   QueueReader
	network netstatus.Monitor
	store   Pinger
}

// NewMonitor creates a monitor. store may be nil.
func NewMonitor(queue QueueReader, network netstatus.Monitor, store Pinger) *Monitor {
	return &Monitor{queue: queue, network: network, store: store}
}

// CheckHealth builds a report. A broken store is critical; being offline or
// holding exhausted writes that need an operator is degraded.
func (m *Monitor) CheckHealth(ctx context.Context) Report {
	report := Report{
		Status:    StatusHealthy,
		Online:    m.network.IsOnline(),
		StorageOK: true,
	}

	if m.store != nil {
		if err := m.store.Health(ctx); err != nil {
			report.StorageOK = false
			report.StorageError = err.Error()
		}
	}

	entries, err := m.queue.List(ctx)
	if err != nil {
		report.StorageOK = false
		if report.StorageError == "" {
			report.StorageError = err.Error()
		}
	}
	report.PendingWrites = len(entries)
	for _, e := range entries {
		if m.queue.IsExhausted(e) {
			report.ExhaustedWrites++
		}
	}

	switch {
	case !report.StorageOK:
		report.Status = StatusCritical
	case !report.Online || report.ExhaustedWrites > 0:
		report.Status = StatusDegraded
	}
	return report
}
